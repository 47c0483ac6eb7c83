package model

// AuditRecord is append-only: rows are inserted in the same transaction as
// the mutation they describe and never updated or deleted.
type AuditRecord struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	ObjectUID   string `gorm:"column:object_uid;type:text;not null;index"`
	ObjectType  string `gorm:"column:object_type;type:text;not null"`
	Operation   string `gorm:"column:operation;type:text;not null"`
	ChangedBy   string `gorm:"column:changed_by;type:text"`
	ChangedAt   string `gorm:"column:changed_at;type:text;not null"`
	Changes     string `gorm:"column:changes;type:text;not null"`
	BeforeState string `gorm:"column:before_state;type:text"`
	AfterState  string `gorm:"column:after_state;type:text"`
}

func (AuditRecord) TableName() string {
	return "audit_log"
}
