package sync

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"plantsync/internal/domain/entity"
	"plantsync/internal/domain/uid"
	"plantsync/internal/infrastructure/bus"
	"plantsync/internal/infrastructure/cache"
	"plantsync/internal/infrastructure/persistence/sqlite/model"
	"plantsync/internal/infrastructure/persistence/sqlite/repository"
	"plantsync/internal/infrastructure/persistence/sqlite/uow"
	"plantsync/internal/ports"
)

// recordingSubscriber collects every change it is notified of.
type recordingSubscriber struct {
	module string

	mu      sync.Mutex
	changes []ports.Change
}

func (s *recordingSubscriber) Module() string { return s.module }

func (s *recordingSubscriber) Notify(_ context.Context, change ports.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, change)
	return nil
}

func (s *recordingSubscriber) seen() []ports.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Change(nil), s.changes...)
}

type fixture struct {
	service *Service
	bus     *bus.SyncBus
	db      *gorm.DB
}

func setupService(t *testing.T) *fixture {
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

	lock := repository.NewStoreLock()
	syncBus := bus.NewSyncBus()
	service := NewService(
		repository.NewEquipmentRepository(db, lock),
		repository.NewCatalogRepository(db, lock),
		repository.NewAuditLogReader(db),
		uow.NewUnitOfWork(db, lock),
		syncBus,
		cache.NewSQLiteCache(db),
		uid.NewGenerator(),
		entity.DefaultWeights(),
	)
	return &fixture{service: service, bus: syncBus, db: db}
}

// Two modules contribute to the same business code: the result is one record
// carrying both contributions, with the version bumped once per save.
func TestContributionsFromTwoModulesConverge(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	uidValue, err := f.service.SaveFromInventory(ctx, InventoryInput{
		Code:         "EQ-001",
		Name:         "Pump A",
		Manufacturer: "Acme",
		Model:        "PX-200",
		Quantity:     2,
		Power:        55,
	})
	if err != nil {
		t.Fatalf("SaveFromInventory() error = %v", err)
	}

	uidAgain, err := f.service.SaveFromDiagram(ctx, DiagramInput{
		Code:     "EQ-001",
		Position: entity.Position{X: 10, Y: 20},
		Size:     entity.Size{Width: 80, Height: 60},
	})
	if err != nil {
		t.Fatalf("SaveFromDiagram() error = %v", err)
	}
	if uidAgain != uidValue {
		t.Fatalf("diagram save resolved to uid %s, want %s", uidAgain, uidValue)
	}

	got, err := f.service.GetEquipment(ctx, uidValue)
	if err != nil {
		t.Fatalf("GetEquipment() error = %v", err)
	}
	if got.Version != 2 {
		t.Fatalf("Version = %d, want 2", got.Version)
	}
	if got.Manufacturer != "Acme" || got.Quantity != 2 {
		t.Fatalf("inventory fields lost: %+v", got)
	}
	if got.Position != (entity.Position{X: 10, Y: 20}) {
		t.Fatalf("Position = %+v", got.Position)
	}
	if got.Name != "Pump A" {
		t.Fatalf("Name = %q", got.Name)
	}
	if len(got.Revisions) != got.Version-1 {
		t.Fatalf("len(Revisions) = %d, Version = %d", len(got.Revisions), got.Version)
	}
	if got.SourceModule != ModuleDiagram {
		t.Fatalf("SourceModule = %q", got.SourceModule)
	}

	records, err := f.service.ListEquipment(ctx, ports.EquipmentFilter{})
	if err != nil {
		t.Fatalf("ListEquipment() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ListEquipment() len = %d, want exactly one record per code", len(records))
	}
}

// Every subscriber except the writing module is notified, exactly once.
func TestPublishSkipsWritingModule(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	ui := &recordingSubscriber{module: "ui"}
	excel := &recordingSubscriber{module: "excel"}
	pfd := &recordingSubscriber{module: ModuleDiagram}
	f.bus.Subscribe(ui)
	f.bus.Subscribe(excel)
	f.bus.Subscribe(pfd)

	if _, err := f.service.SaveFromDiagram(ctx, DiagramInput{
		Code:     "EQ-002",
		Name:     "Exchanger",
		Position: entity.Position{X: 5, Y: 5},
	}); err != nil {
		t.Fatalf("SaveFromDiagram() error = %v", err)
	}

	for _, sub := range []*recordingSubscriber{ui, excel} {
		changes := sub.seen()
		if len(changes) != 1 {
			t.Fatalf("%s notified %d times, want 1", sub.module, len(changes))
		}
		if changes[0].Type != ports.ChangeCreated || changes[0].ChangedBy != ModuleDiagram {
			t.Fatalf("%s change = %+v", sub.module, changes[0])
		}
		if changes[0].Payload["code"] != "EQ-002" {
			t.Fatalf("%s payload = %v", sub.module, changes[0].Payload)
		}
	}
	if len(pfd.seen()) != 0 {
		t.Fatalf("writer module notified: %+v", pfd.seen())
	}
}

func TestSecondSaveNotifiesAsUpdate(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	if _, err := f.service.SaveFromInventory(ctx, InventoryInput{Code: "EQ-003", Name: "Tank"}); err != nil {
		t.Fatalf("SaveFromInventory() error = %v", err)
	}

	ui := &recordingSubscriber{module: "ui"}
	f.bus.Subscribe(ui)

	if _, err := f.service.SaveFromSafety(ctx, SafetyInput{Code: "EQ-003", HazardClass: "3"}); err != nil {
		t.Fatalf("SaveFromSafety() error = %v", err)
	}

	changes := ui.seen()
	if len(changes) != 1 || changes[0].Type != ports.ChangeUpdated {
		t.Fatalf("changes = %+v, want one update", changes)
	}
	if changes[0].Payload["version"] != 2 {
		t.Fatalf("payload version = %v", changes[0].Payload["version"])
	}
}

func TestCreateRequiresCodeAndName(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	if _, err := f.service.SaveFromInventory(ctx, InventoryInput{Name: "No Code"}); err != entity.ErrCodeRequired {
		t.Fatalf("SaveFromInventory(no code) error = %v", err)
	}

	// A new record needs a name; an update does not.
	if _, err := f.service.SaveFromDiagram(ctx, DiagramInput{Code: "EQ-004", Position: entity.Position{X: 1, Y: 1}}); err == nil {
		t.Fatal("SaveFromDiagram() creating without name succeeded")
	}
	if _, err := f.service.SaveFromInventory(ctx, InventoryInput{Code: "EQ-004", Name: "Compressor"}); err != nil {
		t.Fatalf("SaveFromInventory() error = %v", err)
	}
	if _, err := f.service.SaveFromDiagram(ctx, DiagramInput{Code: "EQ-004", Position: entity.Position{X: 1, Y: 1}}); err != nil {
		t.Fatalf("SaveFromDiagram() update error = %v", err)
	}
}

func TestInvalidStatusRejected(t *testing.T) {
	f := setupService(t)

	_, err := f.service.SaveFromInventory(context.Background(), InventoryInput{
		Code:   "EQ-005",
		Name:   "Pump",
		Status: "exploded",
	})
	if err != entity.ErrInvalidStatus {
		t.Fatalf("SaveFromInventory() error = %v, want ErrInvalidStatus", err)
	}
}

func TestResolveConflictClearsSubmittedZero(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	uidValue, err := f.service.SaveFromInventory(ctx, InventoryInput{
		Code:     "EQ-006",
		Name:     "Pump",
		Location: "Unit 1",
		Quantity: 4,
	})
	if err != nil {
		t.Fatalf("SaveFromInventory() error = %v", err)
	}

	resolved, err := f.service.ResolveConflict(ctx, uidValue, entity.Patch{
		Location: entity.Ptr(""),
		Quantity: entity.Ptr(2),
	}, "ui")
	if err != nil {
		t.Fatalf("ResolveConflict() error = %v", err)
	}
	if resolved.Location != "" {
		t.Fatalf("Location = %q, submitted empty value must win", resolved.Location)
	}
	if resolved.Quantity != 2 {
		t.Fatalf("Quantity = %d", resolved.Quantity)
	}
	if resolved.Version != 2 {
		t.Fatalf("Version = %d", resolved.Version)
	}
}

func TestSaveMergedRecordKeepsExistingNonEmpty(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	uidValue, err := f.service.SaveFromInventory(ctx, InventoryInput{
		Code:         "EQ-007",
		Name:         "Reactor",
		Manufacturer: "Acme",
	})
	if err != nil {
		t.Fatalf("SaveFromInventory() error = %v", err)
	}

	if _, err := f.service.SaveMergedRecord(ctx, entity.Equipment{
		Code:         "EQ-007",
		Name:         "Reactor R-101",
		Manufacturer: "Other Corp",
		Location:     "Unit 3",
	}, "excel"); err != nil {
		t.Fatalf("SaveMergedRecord() error = %v", err)
	}

	got, err := f.service.GetEquipment(ctx, uidValue)
	if err != nil {
		t.Fatalf("GetEquipment() error = %v", err)
	}
	// Non-empty existing values survive the legacy merge; empty ones fill.
	if got.Manufacturer != "Acme" {
		t.Fatalf("Manufacturer = %q, want existing value kept", got.Manufacturer)
	}
	if got.Location != "Unit 3" {
		t.Fatalf("Location = %q, want filled", got.Location)
	}
	if got.Version != 2 {
		t.Fatalf("Version = %d", got.Version)
	}
}

func TestDeleteMissingReturnsFalse(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	deleted, err := f.service.DeleteEquipment(ctx, "EQ-missing", "ui")
	if err != nil {
		t.Fatalf("DeleteEquipment() error = %v", err)
	}
	if deleted {
		t.Fatal("DeleteEquipment() = true for missing uid")
	}

	entries, err := f.service.ListAudit(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListAudit() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("ListAudit() = %+v, want no audit for no-op delete", entries)
	}
}

func TestAuditTrailOrderedNewestFirst(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	uidValue, err := f.service.SaveFromInventory(ctx, InventoryInput{Code: "EQ-008", Name: "Pump"})
	if err != nil {
		t.Fatalf("SaveFromInventory() error = %v", err)
	}
	if _, err := f.service.SaveFromSafety(ctx, SafetyInput{Code: "EQ-008", CASNumber: "7664-93-9"}); err != nil {
		t.Fatalf("SaveFromSafety() error = %v", err)
	}

	entries, err := f.service.ListAudit(ctx, uidValue, 10)
	if err != nil {
		t.Fatalf("ListAudit() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListAudit() len = %d", len(entries))
	}
	if entries[0].Operation != ports.AuditUpdate || entries[1].Operation != ports.AuditInsert {
		t.Fatalf("order = %s, %s", entries[0].Operation, entries[1].Operation)
	}
	if entries[0].ChangedBy != ModuleSafety || entries[1].ChangedBy != ModuleInventory {
		t.Fatalf("changed_by = %s, %s", entries[0].ChangedBy, entries[1].ChangedBy)
	}
}

func TestDiagramViewCarriesInventorySummary(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	if _, err := f.service.SaveFromInventory(ctx, InventoryInput{
		Code:         "EQ-009",
		Name:         "Pump B",
		Manufacturer: "Acme",
		Model:        "PX-200",
		Quantity:     2,
		Power:        55,
	}); err != nil {
		t.Fatalf("SaveFromInventory() error = %v", err)
	}
	if _, err := f.service.SaveFromDiagram(ctx, DiagramInput{
		Code:     "EQ-009",
		Position: entity.Position{X: 40, Y: 25},
	}); err != nil {
		t.Fatalf("SaveFromDiagram() error = %v", err)
	}

	items, err := f.service.DiagramView(ctx)
	if err != nil {
		t.Fatalf("DiagramView() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("DiagramView() len = %d", len(items))
	}
	item := items[0]
	if item.Position != (entity.Position{X: 40, Y: 25}) {
		t.Fatalf("Position = %+v", item.Position)
	}
	want := "Acme, PX-200, qty 2, 55.0 kW"
	if item.InventorySummary != want {
		t.Fatalf("InventorySummary = %q, want %q", item.InventorySummary, want)
	}
}

func TestCompletenessScoresAndMemoizes(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	uidValue, err := f.service.SaveFromInventory(ctx, InventoryInput{
		Code:         "EQ-010",
		Name:         "Pump",
		Manufacturer: "Acme",
		Quantity:     1,
	})
	if err != nil {
		t.Fatalf("SaveFromInventory() error = %v", err)
	}

	report, err := f.service.Completeness(ctx, uidValue)
	if err != nil {
		t.Fatalf("Completeness() error = %v", err)
	}
	if report.Version != 1 {
		t.Fatalf("Version = %d", report.Version)
	}
	if report.Overall <= 0 || report.Overall >= 1 {
		t.Fatalf("Overall = %v, want strictly between 0 and 1 for a partial record", report.Overall)
	}
	if report.ByCategory[entity.CategoryDiagram] != 0 {
		t.Fatalf("diagram score = %v, want 0 with nothing contributed", report.ByCategory[entity.CategoryDiagram])
	}
	if len(report.MissingByCategory[entity.CategoryDiagram]) == 0 {
		t.Fatal("MissingByCategory[diagram] empty")
	}

	var cached model.CacheKV
	if err := f.db.Where("key = ?", "score:"+uidValue+":1").Take(&cached).Error; err != nil {
		t.Fatalf("cached report row: %v", err)
	}

	// A version bump keys out the memoized report.
	if _, err := f.service.SaveFromDiagram(ctx, DiagramInput{
		Code:        "EQ-010",
		Position:    entity.Position{X: 1, Y: 2},
		Size:        entity.Size{Width: 3, Height: 4},
		Properties:  map[string]string{"loop": "L-1"},
		Connections: []entity.Connection{{Target: "EQ-009", Kind: "pipe"}},
	}); err != nil {
		t.Fatalf("SaveFromDiagram() error = %v", err)
	}

	after, err := f.service.Completeness(ctx, uidValue)
	if err != nil {
		t.Fatalf("Completeness() after update error = %v", err)
	}
	if after.Version != 2 {
		t.Fatalf("Version = %d", after.Version)
	}
	if after.ByCategory[entity.CategoryDiagram] != 1 {
		t.Fatalf("diagram score = %v, want 1 with all diagram fields filled", after.ByCategory[entity.CategoryDiagram])
	}
	if after.Overall <= report.Overall {
		t.Fatalf("Overall did not improve: %v -> %v", report.Overall, after.Overall)
	}
}

func TestMaterialSaveAssignsUIDAndKeepsItOnUpdate(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	uidValue, err := f.service.SaveMaterial(ctx, entity.Material{Code: "M-1", Name: "Acid"}, "safety")
	if err != nil {
		t.Fatalf("SaveMaterial() error = %v", err)
	}
	parts, err := uid.Parse(uidValue)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", uidValue, err)
	}
	if parts.Category != "MAT" {
		t.Fatalf("uid category = %q", parts.Category)
	}

	again, err := f.service.SaveMaterial(ctx, entity.Material{Code: "M-1", Name: "Sulfuric Acid"}, "safety")
	if err != nil {
		t.Fatalf("SaveMaterial() update error = %v", err)
	}
	if again != uidValue {
		t.Fatalf("update reassigned uid: %s -> %s", uidValue, again)
	}

	got, err := f.service.GetMaterial(ctx, uidValue)
	if err != nil {
		t.Fatalf("GetMaterial() error = %v", err)
	}
	if got.Name != "Sulfuric Acid" {
		t.Fatalf("Name = %q", got.Name)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatalf("timestamps = %v / %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestRepeatedIdenticalSaveStillBumpsVersion(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	input := InventoryInput{Code: "EQ-011", Name: "Pump", Manufacturer: "Acme"}
	uidValue, err := f.service.SaveFromInventory(ctx, input)
	if err != nil {
		t.Fatalf("SaveFromInventory() error = %v", err)
	}
	if _, err := f.service.SaveFromInventory(ctx, input); err != nil {
		t.Fatalf("SaveFromInventory() repeat error = %v", err)
	}

	got, err := f.service.GetEquipment(ctx, uidValue)
	if err != nil {
		t.Fatalf("GetEquipment() error = %v", err)
	}
	if got.Version != 2 {
		t.Fatalf("Version = %d, every accepted save bumps the version", got.Version)
	}
	if len(got.Revisions) != 1 {
		t.Fatalf("len(Revisions) = %d", len(got.Revisions))
	}
}
