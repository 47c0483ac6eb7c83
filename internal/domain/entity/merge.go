package entity

import "time"

// Merge combines two versions of the same logical equipment record under the
// whole-entity policy: a non-empty incoming scalar fills an empty existing
// one but never displaces non-empty data, while non-empty incoming
// collections replace the stored collection wholesale. Version, timestamp and
// history bookkeeping happen exactly once per call.
//
// Under this policy a zero scalar is indistinguishable from "never set", so a
// deliberately cleared field cannot overwrite stale data. Modules that need
// that distinction submit a Patch (ApplyPatch) instead.
func Merge(existing, incoming Equipment, sourceModule string, now time.Time) Equipment {
	out := existing.Clone()

	out.Name = mergeString(out.Name, incoming.Name)

	out.Specification = mergeString(out.Specification, incoming.Specification)
	out.Model = mergeString(out.Model, incoming.Model)
	out.Manufacturer = mergeString(out.Manufacturer, incoming.Manufacturer)
	out.DesignPressure = mergeFloat(out.DesignPressure, incoming.DesignPressure)
	out.DesignTemperature = mergeFloat(out.DesignTemperature, incoming.DesignTemperature)
	out.Quantity = mergeInt(out.Quantity, incoming.Quantity)
	out.Power = mergeFloat(out.Power, incoming.Power)
	out.Weight = mergeFloat(out.Weight, incoming.Weight)
	out.Price = mergeFloat(out.Price, incoming.Price)

	if incoming.Position != (Position{}) && out.Position == (Position{}) {
		out.Position = incoming.Position
	}
	if incoming.Size != (Size{}) && out.Size == (Size{}) {
		out.Size = incoming.Size
	}
	if len(incoming.Properties) > 0 {
		out.Properties = make(map[string]string, len(incoming.Properties))
		for k, v := range incoming.Properties {
			out.Properties[k] = v
		}
	}
	if len(incoming.Connections) > 0 {
		out.Connections = append([]Connection(nil), incoming.Connections...)
	}

	out.SafetyDocUID = mergeString(out.SafetyDocUID, incoming.SafetyDocUID)
	out.HazardClass = mergeString(out.HazardClass, incoming.HazardClass)
	out.CASNumber = mergeString(out.CASNumber, incoming.CASNumber)

	out.Status = mergeString(out.Status, incoming.Status)
	out.Location = mergeString(out.Location, incoming.Location)
	if len(incoming.Tags) > 0 {
		out.Tags = append([]string(nil), incoming.Tags...)
	}
	out.Notes = mergeString(out.Notes, incoming.Notes)

	commitRevision(&out, sourceModule, now)
	return out
}

func mergeString(existing, incoming string) string {
	if incoming != "" && existing == "" {
		return incoming
	}
	return existing
}

func mergeFloat(existing, incoming float64) float64 {
	if incoming != 0 && existing == 0 {
		return incoming
	}
	return existing
}

func mergeInt(existing, incoming int) int {
	if incoming != 0 && existing == 0 {
		return incoming
	}
	return existing
}
