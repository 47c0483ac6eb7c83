package model

// Equipment mirrors the merged equipment record. Nested list/map fields are
// JSON text columns; position and size are decomposed into four scalar
// columns so diagram tools can query them directly.
type Equipment struct {
	UID  string `gorm:"column:uid;type:text;primaryKey"`
	Code string `gorm:"column:code;type:text;uniqueIndex;not null"`
	Name string `gorm:"column:name;type:text;not null"`

	Specification     string  `gorm:"column:specification;type:text;not null"`
	Model             string  `gorm:"column:model;type:text;not null"`
	Manufacturer      string  `gorm:"column:manufacturer;type:text;not null"`
	DesignPressure    float64 `gorm:"column:design_pressure;not null"`
	DesignTemperature float64 `gorm:"column:design_temperature;not null"`
	Quantity          int     `gorm:"column:quantity;not null"`
	Power             float64 `gorm:"column:power;not null"`
	Weight            float64 `gorm:"column:weight;not null"`
	Price             float64 `gorm:"column:price;not null"`

	PosX   float64 `gorm:"column:pos_x;not null"`
	PosY   float64 `gorm:"column:pos_y;not null"`
	Width  float64 `gorm:"column:width;not null"`
	Height float64 `gorm:"column:height;not null"`

	Properties  string `gorm:"column:properties;type:text;not null"`
	Connections string `gorm:"column:connections;type:text;not null"`

	SafetyDocUID string `gorm:"column:safety_doc_uid;type:text;not null"`
	HazardClass  string `gorm:"column:hazard_class;type:text;not null"`
	CASNumber    string `gorm:"column:cas_number;type:text;not null"`

	Status   string `gorm:"column:status;type:text;not null"`
	Location string `gorm:"column:location;type:text;not null"`
	Tags     string `gorm:"column:tags;type:text;not null"`
	Notes    string `gorm:"column:notes;type:text;not null"`

	CreatedAt    string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt    string `gorm:"column:updated_at;type:text;not null"`
	Version      int    `gorm:"column:version;not null;default:1"`
	Revisions    string `gorm:"column:revisions;type:text;not null"`
	SourceModule string `gorm:"column:source_module;type:text;not null"`
}

func (Equipment) TableName() string {
	return "equipment"
}
