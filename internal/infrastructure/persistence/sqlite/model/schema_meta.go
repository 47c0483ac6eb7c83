package model

type SchemaMeta struct {
	ID        uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string `gorm:"column:key;type:text;uniqueIndex;not null"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (SchemaMeta) TableName() string {
	return "schema_meta"
}

type CacheKV struct {
	Key       string `gorm:"column:key;type:text;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (CacheKV) TableName() string {
	return "cache_kv"
}
