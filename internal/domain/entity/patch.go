package entity

import "time"

// Patch is a partial equipment contribution from one module. Pointer fields
// distinguish "not submitted" (nil) from "submitted, possibly zero": a module
// that deliberately clears a value or reports a true quantity of zero sends a
// non-nil pointer and wins over stale data. Collection fields use nil for
// absent; a non-nil empty collection clears the stored one.
type Patch struct {
	Code string
	Name *string

	Specification     *string
	Model             *string
	Manufacturer      *string
	DesignPressure    *float64
	DesignTemperature *float64
	Quantity          *int
	Power             *float64
	Weight            *float64
	Price             *float64

	Position    *Position
	Size        *Size
	Properties  map[string]string
	Connections []Connection

	SafetyDocUID *string
	HazardClass  *string
	CASNumber    *string

	Status   *string
	Location *string
	Tags     []string
	Notes    *string
}

// NewFromPatch builds a fresh record (version 1, no history) from a module's
// first contribution. The caller assigns the UID at persistence time.
func NewFromPatch(p Patch, sourceModule string, now time.Time) Equipment {
	eq := Equipment{
		Code:         p.Code,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
		SourceModule: sourceModule,
	}
	applyPatchFields(&eq, p)
	return eq
}

// ApplyPatch merges a partial contribution into an existing record and
// performs the revision bookkeeping. Submitted fields always win, including
// submitted zero values.
func ApplyPatch(existing Equipment, p Patch, sourceModule string, now time.Time) Equipment {
	out := existing.Clone()
	applyPatchFields(&out, p)
	commitRevision(&out, sourceModule, now)
	return out
}

func applyPatchFields(e *Equipment, p Patch) {
	if p.Name != nil {
		e.Name = *p.Name
	}

	if p.Specification != nil {
		e.Specification = *p.Specification
	}
	if p.Model != nil {
		e.Model = *p.Model
	}
	if p.Manufacturer != nil {
		e.Manufacturer = *p.Manufacturer
	}
	if p.DesignPressure != nil {
		e.DesignPressure = *p.DesignPressure
	}
	if p.DesignTemperature != nil {
		e.DesignTemperature = *p.DesignTemperature
	}
	if p.Quantity != nil {
		e.Quantity = *p.Quantity
	}
	if p.Power != nil {
		e.Power = *p.Power
	}
	if p.Weight != nil {
		e.Weight = *p.Weight
	}
	if p.Price != nil {
		e.Price = *p.Price
	}

	if p.Position != nil {
		e.Position = *p.Position
	}
	if p.Size != nil {
		e.Size = *p.Size
	}
	if p.Properties != nil {
		e.Properties = make(map[string]string, len(p.Properties))
		for k, v := range p.Properties {
			e.Properties[k] = v
		}
	}
	if p.Connections != nil {
		e.Connections = append([]Connection(nil), p.Connections...)
	}

	if p.SafetyDocUID != nil {
		e.SafetyDocUID = *p.SafetyDocUID
	}
	if p.HazardClass != nil {
		e.HazardClass = *p.HazardClass
	}
	if p.CASNumber != nil {
		e.CASNumber = *p.CASNumber
	}

	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Tags != nil {
		e.Tags = append([]string(nil), p.Tags...)
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
}

// Ptr is a convenience for building patches: entity.Ptr("value").
func Ptr[T any](v T) *T { return &v }
