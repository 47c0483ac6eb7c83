package entity

import "time"

// The remaining plant objects are each owned by a single module and never
// merged, so they stay flat: UID, a business identifier, domain fields and
// timestamps.

type Material struct {
	UID         string
	Code        string
	Name        string
	CASNumber   string
	Phase       string
	Density     float64
	HazardClass string
	Properties  map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type RouteStep struct {
	Seq          int    `json:"seq"`
	Name         string `json:"name"`
	EquipmentUID string `json:"equipment_uid"`
}

type ProcessRoute struct {
	UID         string
	Code        string
	Name        string
	Description string
	Steps       []RouteStep
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type SafetyDocument struct {
	UID       string
	DocNumber string
	Title     string
	DocType   string
	Revision  string
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type DiagramNode struct {
	EquipmentUID string  `json:"equipment_uid"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
}

type FlowDiagram struct {
	UID       string
	Code      string
	Name      string
	Nodes     []DiagramNode
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Project struct {
	UID         string
	Code        string
	Name        string
	Description string
	Metadata    map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
