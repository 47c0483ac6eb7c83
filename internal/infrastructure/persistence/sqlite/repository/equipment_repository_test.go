package repository

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"plantsync/internal/domain/entity"
	"plantsync/internal/infrastructure/persistence/sqlite/model"
	"plantsync/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "plantsync.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(
		&model.Equipment{},
		&model.Material{},
		&model.ProcessRoute{},
		&model.SafetyDocument{},
		&model.FlowDiagram{},
		&model.Project{},
		&model.AuditRecord{},
		&model.SchemaMeta{},
		&model.CacheKV{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func setupEquipmentRepository(t *testing.T) (*EquipmentRepository, *gorm.DB) {
	t.Helper()
	db := setupDB(t)
	return NewEquipmentRepository(db, NewStoreLock()), db
}

func sampleEquipment(uidValue string) entity.Equipment {
	now := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	return entity.Equipment{
		UID:          uidValue,
		Code:         "EQ-001",
		Name:         "Pump A",
		Manufacturer: "Acme",
		Quantity:     2,
		Position:     entity.Position{X: 12, Y: 34},
		Size:         entity.Size{Width: 80, Height: 60},
		Properties:   map[string]string{"loop": "L-7"},
		Connections:  []entity.Connection{{Target: "EQ-002", Kind: "pipe"}},
		Tags:         []string{"rotating"},
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
		SourceModule: "inventory",
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	repo, _ := setupEquipmentRepository(t)
	ctx := context.Background()

	eq := sampleEquipment("EQ-20260101000000-000001-abcd1234")
	if _, err := repo.Save(ctx, eq, "inventory"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Get(ctx, eq.UID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got.Code != eq.Code || got.Name != eq.Name || got.Manufacturer != eq.Manufacturer {
		t.Fatalf("Get() = %+v", got)
	}
	if got.Position != (entity.Position{X: 12, Y: 34}) {
		t.Fatalf("Position = %+v, scalar-column decomposition must be lossless", got.Position)
	}
	if got.Size != (entity.Size{Width: 80, Height: 60}) {
		t.Fatalf("Size = %+v", got.Size)
	}
	if got.Properties["loop"] != "L-7" {
		t.Fatalf("Properties = %v", got.Properties)
	}
	if len(got.Connections) != 1 || got.Connections[0].Target != "EQ-002" {
		t.Fatalf("Connections = %v", got.Connections)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "rotating" {
		t.Fatalf("Tags = %v", got.Tags)
	}
	if !got.CreatedAt.Equal(eq.CreatedAt) || !got.UpdatedAt.Equal(eq.UpdatedAt) {
		t.Fatalf("timestamps = %v / %v", got.CreatedAt, got.UpdatedAt)
	}
	if len(got.CorruptFields) != 0 {
		t.Fatalf("CorruptFields = %v, want none", got.CorruptFields)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	repo, _ := setupEquipmentRepository(t)

	if _, err := repo.Get(context.Background(), "EQ-nope"); err != ports.ErrNotFound {
		t.Fatalf("Get() error = %v, want ports.ErrNotFound", err)
	}
	if _, err := repo.GetByCode(context.Background(), "EQ-404"); err != ports.ErrNotFound {
		t.Fatalf("GetByCode() error = %v, want ports.ErrNotFound", err)
	}
}

func TestSaveWritesAuditInsertThenUpdate(t *testing.T) {
	repo, db := setupEquipmentRepository(t)
	ctx := context.Background()

	eq := sampleEquipment("EQ-20260101000000-000001-abcd1234")
	if _, err := repo.Save(ctx, eq, "inventory"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	eq.Name = "Pump A1"
	eq.Version = 2
	if _, err := repo.Save(ctx, eq, "ui"); err != nil {
		t.Fatalf("Save() update error = %v", err)
	}

	var records []model.AuditRecord
	if err := db.Order("id asc").Find(&records).Error; err != nil {
		t.Fatalf("query audit: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("audit records = %d, want 2", len(records))
	}
	if records[0].Operation != ports.AuditInsert || records[0].BeforeState != "" {
		t.Fatalf("first record = %+v", records[0])
	}
	if records[1].Operation != ports.AuditUpdate || records[1].BeforeState == "" || records[1].ChangedBy != "ui" {
		t.Fatalf("second record = %+v", records[1])
	}

	var changed []string
	if err := json.Unmarshal([]byte(records[1].Changes), &changed); err != nil {
		t.Fatalf("decode changes: %v", err)
	}
	found := false
	for _, field := range changed {
		if field == "Name" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Changes = %v, want Name listed", changed)
	}
}

func TestDeleteMissingWritesNoAudit(t *testing.T) {
	repo, db := setupEquipmentRepository(t)

	deleted, err := repo.Delete(context.Background(), "EQ-nope", "ui")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted {
		t.Fatal("Delete() = true for missing uid")
	}

	var count int64
	if err := db.Model(&model.AuditRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if count != 0 {
		t.Fatalf("audit records = %d, want 0", count)
	}
}

func TestDeleteCapturesPriorState(t *testing.T) {
	repo, db := setupEquipmentRepository(t)
	ctx := context.Background()

	eq := sampleEquipment("EQ-20260101000000-000001-abcd1234")
	if _, err := repo.Save(ctx, eq, "inventory"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	deleted, err := repo.Delete(ctx, eq.UID, "ui")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Fatal("Delete() = false")
	}

	if _, err := repo.Get(ctx, eq.UID); err != ports.ErrNotFound {
		t.Fatalf("Get() after delete error = %v", err)
	}

	var record model.AuditRecord
	if err := db.Where("operation = ?", ports.AuditDelete).Take(&record).Error; err != nil {
		t.Fatalf("query delete audit: %v", err)
	}
	if record.BeforeState == "" || record.AfterState != "" {
		t.Fatalf("delete audit = %+v", record)
	}
}

func TestSearchMatchesCaseInsensitiveAcrossFields(t *testing.T) {
	repo, _ := setupEquipmentRepository(t)
	ctx := context.Background()

	first := sampleEquipment("EQ-20260101000000-000001-aaaa1111")
	first.Code = "EQ-002"
	first.Name = "Centrifugal Pump"
	second := sampleEquipment("EQ-20260101000000-000002-bbbb2222")
	second.Code = "EQ-001"
	second.Name = "Heat Exchanger"
	second.Notes = "backup PUMP for unit 2"

	for _, eq := range []entity.Equipment{first, second} {
		if _, err := repo.Save(ctx, eq, "inventory"); err != nil {
			t.Fatalf("Save(%s) error = %v", eq.Code, err)
		}
	}

	items, err := repo.Search(ctx, "pump", []string{"name", "notes"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Search() len = %d, want 2", len(items))
	}
	// Ordered by business code.
	if items[0].Code != "EQ-001" || items[1].Code != "EQ-002" {
		t.Fatalf("Search() order = %s, %s", items[0].Code, items[1].Code)
	}

	items, err = repo.Search(ctx, "pump", []string{"name"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 1 || items[0].Code != "EQ-002" {
		t.Fatalf("Search(name only) = %v", items)
	}
}

func TestSearchIgnoresUnknownFields(t *testing.T) {
	repo, _ := setupEquipmentRepository(t)

	items, err := repo.Search(context.Background(), "pump", []string{"uid; DROP TABLE equipment"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("Search() = %v", items)
	}
}

func TestCorruptNestedFieldFallsBackToDefault(t *testing.T) {
	repo, db := setupEquipmentRepository(t)
	ctx := context.Background()

	eq := sampleEquipment("EQ-20260101000000-000001-abcd1234")
	if _, err := repo.Save(ctx, eq, "inventory"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := db.Model(&model.Equipment{}).
		Where("uid = ?", eq.UID).
		Update("properties", "{not json").Error; err != nil {
		t.Fatalf("corrupt column: %v", err)
	}

	got, err := repo.Get(ctx, eq.UID)
	if err != nil {
		t.Fatalf("Get() error = %v, corrupt field must not abort the row", err)
	}
	if len(got.Properties) != 0 {
		t.Fatalf("Properties = %v, want empty default", got.Properties)
	}
	if len(got.CorruptFields) != 1 || got.CorruptFields[0] != "properties" {
		t.Fatalf("CorruptFields = %v", got.CorruptFields)
	}
	// Intact fields survive.
	if len(got.Tags) != 1 {
		t.Fatalf("Tags = %v", got.Tags)
	}

	// A corrupt row must not abort a collection read either.
	items, err := repo.List(ctx, ports.EquipmentFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("List() len = %d", len(items))
	}
}

func TestListFilters(t *testing.T) {
	repo, _ := setupEquipmentRepository(t)
	ctx := context.Background()

	first := sampleEquipment("EQ-20260101000000-000001-aaaa1111")
	first.Code = "EQ-001"
	first.Status = "operating"
	second := sampleEquipment("EQ-20260101000000-000002-bbbb2222")
	second.Code = "EQ-002"
	second.Status = "retired"

	for _, eq := range []entity.Equipment{first, second} {
		if _, err := repo.Save(ctx, eq, "inventory"); err != nil {
			t.Fatalf("Save(%s) error = %v", eq.Code, err)
		}
	}

	items, err := repo.List(ctx, ports.EquipmentFilter{Status: "operating"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 1 || items[0].Code != "EQ-001" {
		t.Fatalf("List(status) = %v", items)
	}
}
