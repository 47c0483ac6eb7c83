// Package model defines the GORM table models and the typed codecs for the
// JSON-encoded nested columns. Each nested field has exactly one encode and
// one decode function pair, so the container kind of every column is fixed at
// compile time instead of living in a runtime lookup table.
package model

import (
	"encoding/json"

	"plantsync/internal/domain/entity"
	"plantsync/internal/errs"
)

func encodeJSON(v any, what string) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", errs.Wrapf(err, "encode %s", what)
	}
	return string(raw), nil
}

// decodeJSON reports corrupt stored text as an error and leaves out
// untouched, so the caller can substitute the field's empty default and
// surface the diagnostic instead of aborting the row.
func decodeJSON(raw string, out any, what string) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return errs.Wrapf(err, "decode %s", what)
	}
	return nil
}

func EncodeStringList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	return encodeJSON(v, "string list")
}

func DecodeStringList(raw string) ([]string, error) {
	var out []string
	if err := decodeJSON(raw, &out, "string list"); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodePropertyMap(v map[string]string) (string, error) {
	if v == nil {
		v = map[string]string{}
	}
	return encodeJSON(v, "property map")
}

func DecodePropertyMap(raw string) (map[string]string, error) {
	var out map[string]string
	if err := decodeJSON(raw, &out, "property map"); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeConnections(v []entity.Connection) (string, error) {
	if v == nil {
		v = []entity.Connection{}
	}
	return encodeJSON(v, "connections")
}

func DecodeConnections(raw string) ([]entity.Connection, error) {
	var out []entity.Connection
	if err := decodeJSON(raw, &out, "connections"); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeRevisions(v []entity.Revision) (string, error) {
	if v == nil {
		v = []entity.Revision{}
	}
	return encodeJSON(v, "revisions")
}

func DecodeRevisions(raw string) ([]entity.Revision, error) {
	var out []entity.Revision
	if err := decodeJSON(raw, &out, "revisions"); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeSteps(v []entity.RouteStep) (string, error) {
	if v == nil {
		v = []entity.RouteStep{}
	}
	return encodeJSON(v, "route steps")
}

func DecodeSteps(raw string) ([]entity.RouteStep, error) {
	var out []entity.RouteStep
	if err := decodeJSON(raw, &out, "route steps"); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeNodes(v []entity.DiagramNode) (string, error) {
	if v == nil {
		v = []entity.DiagramNode{}
	}
	return encodeJSON(v, "diagram nodes")
}

func DecodeNodes(raw string) ([]entity.DiagramNode, error) {
	var out []entity.DiagramNode
	if err := decodeJSON(raw, &out, "diagram nodes"); err != nil {
		return nil, err
	}
	return out, nil
}
