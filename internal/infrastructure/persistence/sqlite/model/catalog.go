package model

type Material struct {
	UID         string  `gorm:"column:uid;type:text;primaryKey"`
	Code        string  `gorm:"column:code;type:text;uniqueIndex;not null"`
	Name        string  `gorm:"column:name;type:text;not null"`
	CASNumber   string  `gorm:"column:cas_number;type:text;not null"`
	Phase       string  `gorm:"column:phase;type:text;not null"`
	Density     float64 `gorm:"column:density;not null"`
	HazardClass string  `gorm:"column:hazard_class;type:text;not null"`
	Properties  string  `gorm:"column:properties;type:text;not null"`
	CreatedAt   string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt   string  `gorm:"column:updated_at;type:text;not null"`
}

func (Material) TableName() string {
	return "materials"
}

type ProcessRoute struct {
	UID         string `gorm:"column:uid;type:text;primaryKey"`
	Code        string `gorm:"column:code;type:text;uniqueIndex;not null"`
	Name        string `gorm:"column:name;type:text;not null"`
	Description string `gorm:"column:description;type:text;not null"`
	Steps       string `gorm:"column:steps;type:text;not null"`
	CreatedAt   string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt   string `gorm:"column:updated_at;type:text;not null"`
}

func (ProcessRoute) TableName() string {
	return "process_routes"
}

type SafetyDocument struct {
	UID       string `gorm:"column:uid;type:text;primaryKey"`
	DocNumber string `gorm:"column:doc_number;type:text;uniqueIndex;not null"`
	Title     string `gorm:"column:title;type:text;not null"`
	DocType   string `gorm:"column:doc_type;type:text;not null"`
	Revision  string `gorm:"column:revision;type:text;not null"`
	Metadata  string `gorm:"column:metadata;type:text;not null"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (SafetyDocument) TableName() string {
	return "safety_documents"
}

type FlowDiagram struct {
	UID       string `gorm:"column:uid;type:text;primaryKey"`
	Code      string `gorm:"column:code;type:text;uniqueIndex;not null"`
	Name      string `gorm:"column:name;type:text;not null"`
	Nodes     string `gorm:"column:nodes;type:text;not null"`
	Metadata  string `gorm:"column:metadata;type:text;not null"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (FlowDiagram) TableName() string {
	return "flow_diagrams"
}

type Project struct {
	UID         string `gorm:"column:uid;type:text;primaryKey"`
	Code        string `gorm:"column:code;type:text;uniqueIndex;not null"`
	Name        string `gorm:"column:name;type:text;not null"`
	Description string `gorm:"column:description;type:text;not null"`
	Metadata    string `gorm:"column:metadata;type:text;not null"`
	CreatedAt   string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt   string `gorm:"column:updated_at;type:text;not null"`
}

func (Project) TableName() string {
	return "projects"
}
