package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"plantsync/internal/domain/entity"
	"plantsync/internal/errs"
	"plantsync/internal/infrastructure/persistence/sqlite/model"
	"plantsync/internal/ports"
)

// CatalogRepository persists the single-owner entities. Same audit and
// transaction contract as equipment, minus merge and versioning.
type CatalogRepository struct {
	db   *gorm.DB
	lock *StoreLock
}

var _ ports.CatalogRepository = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB, lock *StoreLock) *CatalogRepository {
	return &CatalogRepository{db: db, lock: lock}
}

func (r *CatalogRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// saveRow upserts one catalog row and appends its audit record. existing must
// point at a zero value of the row's type; found reports whether it was
// loaded.
func (r *CatalogRepository) saveRow(ctx context.Context, uid, objectType string, row, existing any, found *bool, changedBy string) error {
	if strings.TrimSpace(uid) == "" {
		return fmt.Errorf("%s uid is required before save", objectType)
	}

	run := func(tx *gorm.DB) error {
		operation := ports.AuditInsert
		beforeState := ""

		err := tx.Where("uid = ?", uid).Take(existing).Error
		switch {
		case err == nil:
			*found = true
			operation = ports.AuditUpdate
			beforeState, err = stateJSON(existing)
			if err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return errs.Wrapf(err, "query existing %s", objectType)
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			UpdateAll: true,
		}).Create(row).Error; err != nil {
			return errs.Wrapf(err, "upsert %s", objectType)
		}

		afterState, err := stateJSON(row)
		if err != nil {
			return err
		}

		return appendAudit(tx, model.AuditRecord{
			ObjectUID:   uid,
			ObjectType:  objectType,
			Operation:   operation,
			ChangedBy:   changedBy,
			ChangedAt:   formatTime(time.Now()),
			Changes:     diffChanges(beforeState, afterState),
			BeforeState: beforeState,
			AfterState:  afterState,
		})
	}

	if ports.TxFromContext(ctx) != nil {
		db, err := r.dbFromContext(ctx)
		if err != nil {
			return err
		}
		return run(db)
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	return r.db.WithContext(ctx).Transaction(run)
}

// deleteRow mirrors the equipment delete contract: false and no audit row
// for a missing UID.
func (r *CatalogRepository) deleteRow(ctx context.Context, uid, objectType string, existing, rowType any, changedBy string) (bool, error) {
	run := func(tx *gorm.DB) (bool, error) {
		if err := tx.Where("uid = ?", uid).Take(existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, errs.Wrapf(err, "query %s for delete", objectType)
		}

		beforeState, err := stateJSON(existing)
		if err != nil {
			return false, err
		}

		if err := tx.Where("uid = ?", uid).Delete(rowType).Error; err != nil {
			return false, errs.Wrapf(err, "delete %s", objectType)
		}

		if err := appendAudit(tx, model.AuditRecord{
			ObjectUID:   uid,
			ObjectType:  objectType,
			Operation:   ports.AuditDelete,
			ChangedBy:   changedBy,
			ChangedAt:   formatTime(time.Now()),
			Changes:     diffChanges(beforeState, ""),
			BeforeState: beforeState,
		}); err != nil {
			return false, err
		}
		return true, nil
	}

	if ports.TxFromContext(ctx) != nil {
		db, err := r.dbFromContext(ctx)
		if err != nil {
			return false, err
		}
		return run(db)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	deleted := false
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := run(tx)
		if err != nil {
			return err
		}
		deleted = ok
		return nil
	}); err != nil {
		return false, err
	}
	return deleted, nil
}

// --- materials ---

func (r *CatalogRepository) SaveMaterial(ctx context.Context, m entity.Material, changedBy string) (string, error) {
	properties, err := model.EncodePropertyMap(m.Properties)
	if err != nil {
		return "", err
	}

	row := model.Material{
		UID:         m.UID,
		Code:        m.Code,
		Name:        m.Name,
		CASNumber:   m.CASNumber,
		Phase:       m.Phase,
		Density:     m.Density,
		HazardClass: m.HazardClass,
		Properties:  properties,
		CreatedAt:   formatTime(m.CreatedAt),
		UpdatedAt:   formatTime(m.UpdatedAt),
	}

	var existing model.Material
	var found bool
	if err := r.saveRow(ctx, m.UID, "material", &row, &existing, &found, changedBy); err != nil {
		return "", err
	}
	return m.UID, nil
}

func (r *CatalogRepository) GetMaterial(ctx context.Context, uid string) (entity.Material, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return entity.Material{}, err
	}

	var row model.Material
	if err := db.Where("uid = ?", uid).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Material{}, ports.ErrNotFound
		}
		return entity.Material{}, errs.Wrap(err, "query material by uid")
	}
	return decodeMaterial(ctx, row), nil
}

func (r *CatalogRepository) GetMaterialByCode(ctx context.Context, code string) (entity.Material, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return entity.Material{}, err
	}

	var row model.Material
	if err := db.Where("code = ?", code).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Material{}, ports.ErrNotFound
		}
		return entity.Material{}, errs.Wrap(err, "query material by code")
	}
	return decodeMaterial(ctx, row), nil
}

func (r *CatalogRepository) ListMaterials(ctx context.Context) ([]entity.Material, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Material
	if err := db.Order("code asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query materials")
	}

	items := make([]entity.Material, 0, len(rows))
	for _, row := range rows {
		items = append(items, decodeMaterial(ctx, row))
	}
	return items, nil
}

func (r *CatalogRepository) DeleteMaterial(ctx context.Context, uid string, changedBy string) (bool, error) {
	var existing model.Material
	return r.deleteRow(ctx, uid, "material", &existing, &model.Material{}, changedBy)
}

func decodeMaterial(ctx context.Context, row model.Material) entity.Material {
	m := entity.Material{
		UID:         row.UID,
		Code:        row.Code,
		Name:        row.Name,
		CASNumber:   row.CASNumber,
		Phase:       row.Phase,
		Density:     row.Density,
		HazardClass: row.HazardClass,
		CreatedAt:   parseTime(row.CreatedAt),
		UpdatedAt:   parseTime(row.UpdatedAt),
	}

	if properties, err := model.DecodePropertyMap(row.Properties); err != nil {
		warnCorrupt(ctx, row.UID, "properties", err)
		m.Properties = map[string]string{}
	} else {
		m.Properties = properties
	}
	return m
}

// --- process routes ---

func (r *CatalogRepository) SaveProcessRoute(ctx context.Context, route entity.ProcessRoute, changedBy string) (string, error) {
	steps, err := model.EncodeSteps(route.Steps)
	if err != nil {
		return "", err
	}

	row := model.ProcessRoute{
		UID:         route.UID,
		Code:        route.Code,
		Name:        route.Name,
		Description: route.Description,
		Steps:       steps,
		CreatedAt:   formatTime(route.CreatedAt),
		UpdatedAt:   formatTime(route.UpdatedAt),
	}

	var existing model.ProcessRoute
	var found bool
	if err := r.saveRow(ctx, route.UID, "process_route", &row, &existing, &found, changedBy); err != nil {
		return "", err
	}
	return route.UID, nil
}

func (r *CatalogRepository) GetProcessRoute(ctx context.Context, uid string) (entity.ProcessRoute, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return entity.ProcessRoute{}, err
	}

	var row model.ProcessRoute
	if err := db.Where("uid = ?", uid).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.ProcessRoute{}, ports.ErrNotFound
		}
		return entity.ProcessRoute{}, errs.Wrap(err, "query process route by uid")
	}
	return decodeProcessRoute(ctx, row), nil
}

func (r *CatalogRepository) ListProcessRoutes(ctx context.Context) ([]entity.ProcessRoute, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.ProcessRoute
	if err := db.Order("code asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query process routes")
	}

	items := make([]entity.ProcessRoute, 0, len(rows))
	for _, row := range rows {
		items = append(items, decodeProcessRoute(ctx, row))
	}
	return items, nil
}

func (r *CatalogRepository) DeleteProcessRoute(ctx context.Context, uid string, changedBy string) (bool, error) {
	var existing model.ProcessRoute
	return r.deleteRow(ctx, uid, "process_route", &existing, &model.ProcessRoute{}, changedBy)
}

func decodeProcessRoute(ctx context.Context, row model.ProcessRoute) entity.ProcessRoute {
	route := entity.ProcessRoute{
		UID:         row.UID,
		Code:        row.Code,
		Name:        row.Name,
		Description: row.Description,
		CreatedAt:   parseTime(row.CreatedAt),
		UpdatedAt:   parseTime(row.UpdatedAt),
	}

	if steps, err := model.DecodeSteps(row.Steps); err != nil {
		warnCorrupt(ctx, row.UID, "steps", err)
		route.Steps = []entity.RouteStep{}
	} else {
		route.Steps = steps
	}
	return route
}

// --- safety documents ---

func (r *CatalogRepository) SaveSafetyDocument(ctx context.Context, doc entity.SafetyDocument, changedBy string) (string, error) {
	metadata, err := model.EncodePropertyMap(doc.Metadata)
	if err != nil {
		return "", err
	}

	row := model.SafetyDocument{
		UID:       doc.UID,
		DocNumber: doc.DocNumber,
		Title:     doc.Title,
		DocType:   doc.DocType,
		Revision:  doc.Revision,
		Metadata:  metadata,
		CreatedAt: formatTime(doc.CreatedAt),
		UpdatedAt: formatTime(doc.UpdatedAt),
	}

	var existing model.SafetyDocument
	var found bool
	if err := r.saveRow(ctx, doc.UID, "safety_document", &row, &existing, &found, changedBy); err != nil {
		return "", err
	}
	return doc.UID, nil
}

func (r *CatalogRepository) GetSafetyDocument(ctx context.Context, uid string) (entity.SafetyDocument, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return entity.SafetyDocument{}, err
	}

	var row model.SafetyDocument
	if err := db.Where("uid = ?", uid).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.SafetyDocument{}, ports.ErrNotFound
		}
		return entity.SafetyDocument{}, errs.Wrap(err, "query safety document by uid")
	}
	return decodeSafetyDocument(ctx, row), nil
}

func (r *CatalogRepository) GetSafetyDocumentByNumber(ctx context.Context, docNumber string) (entity.SafetyDocument, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return entity.SafetyDocument{}, err
	}

	var row model.SafetyDocument
	if err := db.Where("doc_number = ?", docNumber).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.SafetyDocument{}, ports.ErrNotFound
		}
		return entity.SafetyDocument{}, errs.Wrap(err, "query safety document by number")
	}
	return decodeSafetyDocument(ctx, row), nil
}

func (r *CatalogRepository) ListSafetyDocuments(ctx context.Context) ([]entity.SafetyDocument, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.SafetyDocument
	if err := db.Order("doc_number asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query safety documents")
	}

	items := make([]entity.SafetyDocument, 0, len(rows))
	for _, row := range rows {
		items = append(items, decodeSafetyDocument(ctx, row))
	}
	return items, nil
}

func (r *CatalogRepository) DeleteSafetyDocument(ctx context.Context, uid string, changedBy string) (bool, error) {
	var existing model.SafetyDocument
	return r.deleteRow(ctx, uid, "safety_document", &existing, &model.SafetyDocument{}, changedBy)
}

func decodeSafetyDocument(ctx context.Context, row model.SafetyDocument) entity.SafetyDocument {
	doc := entity.SafetyDocument{
		UID:       row.UID,
		DocNumber: row.DocNumber,
		Title:     row.Title,
		DocType:   row.DocType,
		Revision:  row.Revision,
		CreatedAt: parseTime(row.CreatedAt),
		UpdatedAt: parseTime(row.UpdatedAt),
	}

	if metadata, err := model.DecodePropertyMap(row.Metadata); err != nil {
		warnCorrupt(ctx, row.UID, "metadata", err)
		doc.Metadata = map[string]string{}
	} else {
		doc.Metadata = metadata
	}
	return doc
}

// --- flow diagrams ---

func (r *CatalogRepository) SaveFlowDiagram(ctx context.Context, diagram entity.FlowDiagram, changedBy string) (string, error) {
	nodes, err := model.EncodeNodes(diagram.Nodes)
	if err != nil {
		return "", err
	}
	metadata, err := model.EncodePropertyMap(diagram.Metadata)
	if err != nil {
		return "", err
	}

	row := model.FlowDiagram{
		UID:       diagram.UID,
		Code:      diagram.Code,
		Name:      diagram.Name,
		Nodes:     nodes,
		Metadata:  metadata,
		CreatedAt: formatTime(diagram.CreatedAt),
		UpdatedAt: formatTime(diagram.UpdatedAt),
	}

	var existing model.FlowDiagram
	var found bool
	if err := r.saveRow(ctx, diagram.UID, "flow_diagram", &row, &existing, &found, changedBy); err != nil {
		return "", err
	}
	return diagram.UID, nil
}

func (r *CatalogRepository) GetFlowDiagram(ctx context.Context, uid string) (entity.FlowDiagram, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return entity.FlowDiagram{}, err
	}

	var row model.FlowDiagram
	if err := db.Where("uid = ?", uid).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.FlowDiagram{}, ports.ErrNotFound
		}
		return entity.FlowDiagram{}, errs.Wrap(err, "query flow diagram by uid")
	}
	return decodeFlowDiagram(ctx, row), nil
}

func (r *CatalogRepository) ListFlowDiagrams(ctx context.Context) ([]entity.FlowDiagram, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.FlowDiagram
	if err := db.Order("code asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query flow diagrams")
	}

	items := make([]entity.FlowDiagram, 0, len(rows))
	for _, row := range rows {
		items = append(items, decodeFlowDiagram(ctx, row))
	}
	return items, nil
}

func (r *CatalogRepository) DeleteFlowDiagram(ctx context.Context, uid string, changedBy string) (bool, error) {
	var existing model.FlowDiagram
	return r.deleteRow(ctx, uid, "flow_diagram", &existing, &model.FlowDiagram{}, changedBy)
}

func decodeFlowDiagram(ctx context.Context, row model.FlowDiagram) entity.FlowDiagram {
	diagram := entity.FlowDiagram{
		UID:       row.UID,
		Code:      row.Code,
		Name:      row.Name,
		CreatedAt: parseTime(row.CreatedAt),
		UpdatedAt: parseTime(row.UpdatedAt),
	}

	if nodes, err := model.DecodeNodes(row.Nodes); err != nil {
		warnCorrupt(ctx, row.UID, "nodes", err)
		diagram.Nodes = []entity.DiagramNode{}
	} else {
		diagram.Nodes = nodes
	}

	if metadata, err := model.DecodePropertyMap(row.Metadata); err != nil {
		warnCorrupt(ctx, row.UID, "metadata", err)
		diagram.Metadata = map[string]string{}
	} else {
		diagram.Metadata = metadata
	}
	return diagram
}

// --- projects ---

func (r *CatalogRepository) SaveProject(ctx context.Context, project entity.Project, changedBy string) (string, error) {
	metadata, err := model.EncodePropertyMap(project.Metadata)
	if err != nil {
		return "", err
	}

	row := model.Project{
		UID:         project.UID,
		Code:        project.Code,
		Name:        project.Name,
		Description: project.Description,
		Metadata:    metadata,
		CreatedAt:   formatTime(project.CreatedAt),
		UpdatedAt:   formatTime(project.UpdatedAt),
	}

	var existing model.Project
	var found bool
	if err := r.saveRow(ctx, project.UID, "project", &row, &existing, &found, changedBy); err != nil {
		return "", err
	}
	return project.UID, nil
}

func (r *CatalogRepository) GetProject(ctx context.Context, uid string) (entity.Project, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return entity.Project{}, err
	}

	var row model.Project
	if err := db.Where("uid = ?", uid).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Project{}, ports.ErrNotFound
		}
		return entity.Project{}, errs.Wrap(err, "query project by uid")
	}
	return decodeProject(ctx, row), nil
}

func (r *CatalogRepository) ListProjects(ctx context.Context) ([]entity.Project, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Project
	if err := db.Order("code asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query projects")
	}

	items := make([]entity.Project, 0, len(rows))
	for _, row := range rows {
		items = append(items, decodeProject(ctx, row))
	}
	return items, nil
}

func (r *CatalogRepository) DeleteProject(ctx context.Context, uid string, changedBy string) (bool, error) {
	var existing model.Project
	return r.deleteRow(ctx, uid, "project", &existing, &model.Project{}, changedBy)
}

func decodeProject(ctx context.Context, row model.Project) entity.Project {
	project := entity.Project{
		UID:         row.UID,
		Code:        row.Code,
		Name:        row.Name,
		Description: row.Description,
		CreatedAt:   parseTime(row.CreatedAt),
		UpdatedAt:   parseTime(row.UpdatedAt),
	}

	if metadata, err := model.DecodePropertyMap(row.Metadata); err != nil {
		warnCorrupt(ctx, row.UID, "metadata", err)
		project.Metadata = map[string]string{}
	} else {
		project.Metadata = metadata
	}
	return project
}
