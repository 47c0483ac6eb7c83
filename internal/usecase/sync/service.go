// Package sync is the facade every consuming module talks to: it resolves
// business codes, delegates merging to the entity package, persists through
// the repository ports and fans change notifications out on the sync bus.
package sync

import (
	"time"

	"plantsync/internal/domain/entity"
	"plantsync/internal/domain/uid"
	"plantsync/internal/ports"
)

// Module labels used by the built-in save paths.
const (
	ModuleInventory = "inventory"
	ModuleDiagram   = "pfd"
	ModuleSafety    = "safety"
)

type Service struct {
	equipment ports.EquipmentRepository
	catalog   ports.CatalogRepository
	audit     ports.AuditReader
	uow       ports.UnitOfWork
	bus       ports.SyncBus
	cache     ports.Cache
	uids      *uid.Generator
	weights   entity.Weights
	now       func() time.Time
}

func NewService(
	equipment ports.EquipmentRepository,
	catalog ports.CatalogRepository,
	audit ports.AuditReader,
	uow ports.UnitOfWork,
	bus ports.SyncBus,
	cache ports.Cache,
	uids *uid.Generator,
	weights entity.Weights,
) *Service {
	return &Service{
		equipment: equipment,
		catalog:   catalog,
		audit:     audit,
		uow:       uow,
		bus:       bus,
		cache:     cache,
		uids:      uids,
		weights:   weights,
		now:       time.Now,
	}
}

// InventoryInput is the inventory module's contribution. Empty fields mean
// "not supplied" on this path; use ResolveConflict with an explicit patch to
// deliberately clear a value.
type InventoryInput struct {
	Code              string
	Name              string
	Specification     string
	Model             string
	Manufacturer      string
	DesignPressure    float64
	DesignTemperature float64
	Quantity          int
	Power             float64
	Weight            float64
	Price             float64
	Status            string
	Location          string
	Tags              []string
	Notes             string
}

// DiagramInput is the flow-diagram module's contribution.
type DiagramInput struct {
	Code        string
	Name        string
	Position    entity.Position
	Size        entity.Size
	Properties  map[string]string
	Connections []entity.Connection
}

// SafetyInput is the safety-document module's contribution.
type SafetyInput struct {
	Code         string
	Name         string
	SafetyDocUID string
	HazardClass  string
	CASNumber    string
}

// DiagramItem is the diagram-relevant projection of an equipment record plus
// a read-only summary of the inventory-owned fields.
type DiagramItem struct {
	UID              string
	Code             string
	Name             string
	Position         entity.Position
	Size             entity.Size
	Properties       map[string]string
	Connections      []entity.Connection
	InventorySummary string
}

// ScoreReport is the completeness breakdown served to UI badges.
type ScoreReport struct {
	UID               string                       `json:"uid"`
	Version           int                          `json:"version"`
	Overall           float64                      `json:"overall"`
	ByCategory        map[entity.Category]float64  `json:"by_category"`
	MissingByCategory map[entity.Category][]string `json:"missing_by_category"`
}
