package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"plantsync/internal/bootstrap/logging"
	"plantsync/internal/domain/entity"
	"plantsync/internal/errs"
	"plantsync/internal/infrastructure/persistence/sqlite/model"
)

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeEquipment(eq entity.Equipment) (model.Equipment, error) {
	properties, err := model.EncodePropertyMap(eq.Properties)
	if err != nil {
		return model.Equipment{}, err
	}
	connections, err := model.EncodeConnections(eq.Connections)
	if err != nil {
		return model.Equipment{}, err
	}
	tags, err := model.EncodeStringList(eq.Tags)
	if err != nil {
		return model.Equipment{}, err
	}
	revisions, err := model.EncodeRevisions(eq.Revisions)
	if err != nil {
		return model.Equipment{}, err
	}

	return model.Equipment{
		UID:               eq.UID,
		Code:              eq.Code,
		Name:              eq.Name,
		Specification:     eq.Specification,
		Model:             eq.Model,
		Manufacturer:      eq.Manufacturer,
		DesignPressure:    eq.DesignPressure,
		DesignTemperature: eq.DesignTemperature,
		Quantity:          eq.Quantity,
		Power:             eq.Power,
		Weight:            eq.Weight,
		Price:             eq.Price,
		PosX:              eq.Position.X,
		PosY:              eq.Position.Y,
		Width:             eq.Size.Width,
		Height:            eq.Size.Height,
		Properties:        properties,
		Connections:       connections,
		SafetyDocUID:      eq.SafetyDocUID,
		HazardClass:       eq.HazardClass,
		CASNumber:         eq.CASNumber,
		Status:            eq.Status,
		Location:          eq.Location,
		Tags:              tags,
		Notes:             eq.Notes,
		CreatedAt:         formatTime(eq.CreatedAt),
		UpdatedAt:         formatTime(eq.UpdatedAt),
		Version:           eq.Version,
		Revisions:         revisions,
		SourceModule:      eq.SourceModule,
	}, nil
}

// decodeEquipment never fails the row: a nested column that does not parse is
// replaced by its empty default, logged, and named in CorruptFields so
// callers can tell legitimately-empty from corrupt.
func decodeEquipment(ctx context.Context, row model.Equipment) entity.Equipment {
	eq := entity.Equipment{
		UID:               row.UID,
		Code:              row.Code,
		Name:              row.Name,
		Specification:     row.Specification,
		Model:             row.Model,
		Manufacturer:      row.Manufacturer,
		DesignPressure:    row.DesignPressure,
		DesignTemperature: row.DesignTemperature,
		Quantity:          row.Quantity,
		Power:             row.Power,
		Weight:            row.Weight,
		Price:             row.Price,
		Position:          entity.Position{X: row.PosX, Y: row.PosY},
		Size:              entity.Size{Width: row.Width, Height: row.Height},
		SafetyDocUID:      row.SafetyDocUID,
		HazardClass:       row.HazardClass,
		CASNumber:         row.CASNumber,
		Status:            row.Status,
		Location:          row.Location,
		Notes:             row.Notes,
		CreatedAt:         parseTime(row.CreatedAt),
		UpdatedAt:         parseTime(row.UpdatedAt),
		Version:           row.Version,
		SourceModule:      row.SourceModule,
	}

	if properties, err := model.DecodePropertyMap(row.Properties); err != nil {
		warnCorrupt(ctx, row.UID, "properties", err)
		eq.Properties = map[string]string{}
		eq.CorruptFields = append(eq.CorruptFields, "properties")
	} else {
		eq.Properties = properties
	}

	if connections, err := model.DecodeConnections(row.Connections); err != nil {
		warnCorrupt(ctx, row.UID, "connections", err)
		eq.Connections = []entity.Connection{}
		eq.CorruptFields = append(eq.CorruptFields, "connections")
	} else {
		eq.Connections = connections
	}

	if tags, err := model.DecodeStringList(row.Tags); err != nil {
		warnCorrupt(ctx, row.UID, "tags", err)
		eq.Tags = []string{}
		eq.CorruptFields = append(eq.CorruptFields, "tags")
	} else {
		eq.Tags = tags
	}

	if revisions, err := model.DecodeRevisions(row.Revisions); err != nil {
		warnCorrupt(ctx, row.UID, "revisions", err)
		eq.Revisions = []entity.Revision{}
		eq.CorruptFields = append(eq.CorruptFields, "revisions")
	} else {
		eq.Revisions = revisions
	}

	return eq
}

func warnCorrupt(ctx context.Context, uid, field string, err error) {
	logging.Warn(ctx, "corrupt nested field replaced with empty default",
		slog.String("uid", uid),
		slog.String("field", field),
		slog.Any("err", errs.Loggable(err)),
	)
}

// stateJSON renders a model row for the audit before/after columns.
func stateJSON(row any) (string, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return "", errs.Wrap(err, "encode audit state")
	}
	return string(raw), nil
}

// diffChanges lists the JSON keys whose values differ between two audit
// states, sorted for stable output.
func diffChanges(beforeState, afterState string) string {
	var before, after map[string]any
	if beforeState != "" {
		_ = json.Unmarshal([]byte(beforeState), &before)
	}
	if afterState != "" {
		_ = json.Unmarshal([]byte(afterState), &after)
	}

	changed := make([]string, 0, len(after))
	for key, afterValue := range after {
		beforeValue, ok := before[key]
		if !ok || !equalJSONValue(beforeValue, afterValue) {
			changed = append(changed, key)
		}
	}
	for key := range before {
		if _, ok := after[key]; !ok {
			changed = append(changed, key)
		}
	}
	sort.Strings(changed)

	raw, err := json.Marshal(changed)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func equalJSONValue(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ra) == string(rb)
}
