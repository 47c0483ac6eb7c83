// Package entity holds the shared record model for equipment and the other
// plant objects, together with the field-level merge policy and the
// completeness scorer. Everything here is pure: no storage, no logging.
package entity

import "time"

// Category names the module that contributes a group of equipment fields.
type Category string

const (
	CategoryInventory Category = "inventory"
	CategoryDiagram   Category = "diagram"
	CategorySafety    Category = "safety"
	CategoryCommon    Category = "common"
)

// Categories in canonical order.
func Categories() []Category {
	return []Category{CategoryInventory, CategoryDiagram, CategorySafety, CategoryCommon}
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Connection is one diagram edge leaving this equipment.
type Connection struct {
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

// Revision is one entry of the append-only change history. The invariant
// len(Revisions) == Version-1 holds for every persisted equipment record.
type Revision struct {
	Timestamp    time.Time `json:"timestamp"`
	Version      int       `json:"version"`
	SourceModule string    `json:"source_module"`
}

// Equipment is the one logical record per physical piece of equipment that
// all producing modules agree on. The UID is assigned once at first
// persistence and never changes; the business Code is the human key used to
// detect that two contributions describe the same real-world object.
type Equipment struct {
	UID  string
	Code string
	Name string

	// Inventory-owned.
	Specification     string
	Model             string
	Manufacturer      string
	DesignPressure    float64
	DesignTemperature float64
	Quantity          int
	Power             float64
	Weight            float64
	Price             float64

	// Diagram-owned.
	Position    Position
	Size        Size
	Properties  map[string]string
	Connections []Connection

	// Safety-owned.
	SafetyDocUID string
	HazardClass  string
	CASNumber    string

	// Common.
	Status   string
	Location string
	Tags     []string
	Notes    string

	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int
	Revisions    []Revision
	SourceModule string

	// CorruptFields names nested columns whose stored JSON failed to decode
	// on load and were replaced by their empty defaults. Never persisted.
	CorruptFields []string
}

// Clone returns a deep copy so merge results never alias the stored record.
func (e Equipment) Clone() Equipment {
	out := e

	if e.Properties != nil {
		out.Properties = make(map[string]string, len(e.Properties))
		for k, v := range e.Properties {
			out.Properties[k] = v
		}
	}
	if e.Connections != nil {
		out.Connections = append([]Connection(nil), e.Connections...)
	}
	if e.Tags != nil {
		out.Tags = append([]string(nil), e.Tags...)
	}
	if e.Revisions != nil {
		out.Revisions = append([]Revision(nil), e.Revisions...)
	}
	if e.CorruptFields != nil {
		out.CorruptFields = append([]string(nil), e.CorruptFields...)
	}
	return out
}

// commitRevision applies the bookkeeping every persisted mutation shares:
// version +1, refreshed timestamp, one appended history entry.
func commitRevision(e *Equipment, sourceModule string, now time.Time) {
	e.Version++
	e.UpdatedAt = now
	e.SourceModule = sourceModule
	e.Revisions = append(e.Revisions, Revision{
		Timestamp:    now,
		Version:      e.Version,
		SourceModule: sourceModule,
	})
}
