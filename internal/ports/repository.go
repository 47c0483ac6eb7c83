package ports

import (
	"context"
	"errors"

	"plantsync/internal/domain/entity"
)

// ErrNotFound is the single not-found sentinel for every lookup by UID or
// business code. Call sites branch with errors.Is and stay simple.
var ErrNotFound = errors.New("record not found")

// EquipmentFilter narrows List results. Zero value means everything.
type EquipmentFilter struct {
	Status       string
	Location     string
	SourceModule string
}

// EquipmentRepository is the persistence port for the merged equipment
// record. Every Save/Delete writes exactly one audit row inside the same
// transaction; a storage failure rolls the whole operation back.
type EquipmentRepository interface {
	// Save upserts by UID and returns the UID. It never skips the write:
	// version bookkeeping is the caller's job and happens per call.
	Save(ctx context.Context, eq entity.Equipment, changedBy string) (string, error)
	Get(ctx context.Context, uid string) (entity.Equipment, error)
	GetByCode(ctx context.Context, code string) (entity.Equipment, error)
	List(ctx context.Context, filter EquipmentFilter) ([]entity.Equipment, error)
	// Search matches term case-insensitively as a substring OR-ed across the
	// named fields, ordered by business code.
	Search(ctx context.Context, term string, fields []string) ([]entity.Equipment, error)
	// Delete reports whether a row existed. Deleting a missing UID writes no
	// audit record.
	Delete(ctx context.Context, uid string, changedBy string) (bool, error)
}

// CatalogRepository persists the single-owner entities. They are never
// merged, so the contract is plain CRUD with the same audit guarantees.
type CatalogRepository interface {
	SaveMaterial(ctx context.Context, m entity.Material, changedBy string) (string, error)
	GetMaterial(ctx context.Context, uid string) (entity.Material, error)
	GetMaterialByCode(ctx context.Context, code string) (entity.Material, error)
	ListMaterials(ctx context.Context) ([]entity.Material, error)
	DeleteMaterial(ctx context.Context, uid string, changedBy string) (bool, error)

	SaveProcessRoute(ctx context.Context, r entity.ProcessRoute, changedBy string) (string, error)
	GetProcessRoute(ctx context.Context, uid string) (entity.ProcessRoute, error)
	ListProcessRoutes(ctx context.Context) ([]entity.ProcessRoute, error)
	DeleteProcessRoute(ctx context.Context, uid string, changedBy string) (bool, error)

	SaveSafetyDocument(ctx context.Context, d entity.SafetyDocument, changedBy string) (string, error)
	GetSafetyDocument(ctx context.Context, uid string) (entity.SafetyDocument, error)
	GetSafetyDocumentByNumber(ctx context.Context, docNumber string) (entity.SafetyDocument, error)
	ListSafetyDocuments(ctx context.Context) ([]entity.SafetyDocument, error)
	DeleteSafetyDocument(ctx context.Context, uid string, changedBy string) (bool, error)

	SaveFlowDiagram(ctx context.Context, d entity.FlowDiagram, changedBy string) (string, error)
	GetFlowDiagram(ctx context.Context, uid string) (entity.FlowDiagram, error)
	ListFlowDiagrams(ctx context.Context) ([]entity.FlowDiagram, error)
	DeleteFlowDiagram(ctx context.Context, uid string, changedBy string) (bool, error)

	SaveProject(ctx context.Context, p entity.Project, changedBy string) (string, error)
	GetProject(ctx context.Context, uid string) (entity.Project, error)
	ListProjects(ctx context.Context) ([]entity.Project, error)
	DeleteProject(ctx context.Context, uid string, changedBy string) (bool, error)
}
