package entity

import (
	"testing"
	"time"
)

var mergeNow = time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

func baseEquipment() Equipment {
	return Equipment{
		UID:          "EQ-20260101000000-000001-abcd1234",
		Code:         "EQ-001",
		Name:         "Pump A",
		Manufacturer: "Acme",
		Quantity:     2,
		Version:      1,
		SourceModule: "inventory",
		CreatedAt:    mergeNow.Add(-time.Hour),
		UpdatedAt:    mergeNow.Add(-time.Hour),
	}
}

func TestMergeFillsEmptyScalars(t *testing.T) {
	existing := baseEquipment()
	incoming := Equipment{
		Code:     "EQ-001",
		Model:    "PX-200",
		Location: "Unit 3",
	}

	merged := Merge(existing, incoming, "pfd", mergeNow)

	if merged.Model != "PX-200" {
		t.Fatalf("Model = %q, want filled from incoming", merged.Model)
	}
	if merged.Location != "Unit 3" {
		t.Fatalf("Location = %q", merged.Location)
	}
}

func TestMergeKeepsNonEmptyScalars(t *testing.T) {
	existing := baseEquipment()
	incoming := Equipment{
		Code:         "EQ-001",
		Name:         "Pump A (renamed)",
		Manufacturer: "Other Corp",
	}

	merged := Merge(existing, incoming, "pfd", mergeNow)

	if merged.Name != "Pump A" {
		t.Fatalf("Name = %q, non-empty existing must win", merged.Name)
	}
	if merged.Manufacturer != "Acme" {
		t.Fatalf("Manufacturer = %q", merged.Manufacturer)
	}
}

func TestMergeTakesCollectionsWholesale(t *testing.T) {
	existing := baseEquipment()
	existing.Tags = []string{"rotating", "critical"}
	existing.Properties = map[string]string{"stage": "1"}

	incoming := Equipment{
		Code:       "EQ-001",
		Tags:       []string{"spared"},
		Properties: map[string]string{"stage": "2", "loop": "L-7"},
	}

	merged := Merge(existing, incoming, "pfd", mergeNow)

	if len(merged.Tags) != 1 || merged.Tags[0] != "spared" {
		t.Fatalf("Tags = %v, want wholesale replacement", merged.Tags)
	}
	if len(merged.Properties) != 2 || merged.Properties["loop"] != "L-7" {
		t.Fatalf("Properties = %v", merged.Properties)
	}
}

func TestMergeLeavesCollectionsWhenIncomingEmpty(t *testing.T) {
	existing := baseEquipment()
	existing.Connections = []Connection{{Target: "EQ-002", Kind: "pipe"}}

	merged := Merge(existing, Equipment{Code: "EQ-001"}, "pfd", mergeNow)

	if len(merged.Connections) != 1 {
		t.Fatalf("Connections = %v, empty incoming must not clear", merged.Connections)
	}
}

func TestMergeVersionAndHistoryBookkeeping(t *testing.T) {
	existing := baseEquipment()

	merged := Merge(existing, Equipment{Code: "EQ-001", Model: "PX-200"}, "pfd", mergeNow)

	if merged.Version != existing.Version+1 {
		t.Fatalf("Version = %d, want %d", merged.Version, existing.Version+1)
	}
	if len(merged.Revisions) != merged.Version-1 {
		t.Fatalf("len(Revisions) = %d, want %d", len(merged.Revisions), merged.Version-1)
	}

	last := merged.Revisions[len(merged.Revisions)-1]
	if last.Version != merged.Version || last.SourceModule != "pfd" || !last.Timestamp.Equal(mergeNow) {
		t.Fatalf("revision entry = %+v", last)
	}
	if !merged.UpdatedAt.Equal(mergeNow) {
		t.Fatalf("UpdatedAt = %v", merged.UpdatedAt)
	}
}

func TestMergeDoesNotMutateExisting(t *testing.T) {
	existing := baseEquipment()
	existing.Tags = []string{"rotating"}

	_ = Merge(existing, Equipment{Code: "EQ-001", Tags: []string{"spared"}}, "pfd", mergeNow)

	if existing.Version != 1 || len(existing.Revisions) != 0 {
		t.Fatalf("existing mutated: version=%d revisions=%d", existing.Version, len(existing.Revisions))
	}
	if existing.Tags[0] != "rotating" {
		t.Fatalf("existing tags mutated: %v", existing.Tags)
	}
}

func TestMergeZeroScalarCannotClear(t *testing.T) {
	// Documented cost of the whole-entity policy: a true zero quantity is
	// indistinguishable from "never set". Patches exist for that case.
	existing := baseEquipment()

	merged := Merge(existing, Equipment{Code: "EQ-001", Quantity: 0}, "inventory", mergeNow)

	if merged.Quantity != 2 {
		t.Fatalf("Quantity = %d, zero incoming must not clear", merged.Quantity)
	}
}
