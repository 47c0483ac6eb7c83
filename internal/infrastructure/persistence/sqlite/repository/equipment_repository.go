package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"plantsync/internal/domain/entity"
	"plantsync/internal/errs"
	"plantsync/internal/infrastructure/persistence/sqlite/model"
	"plantsync/internal/ports"
)

// StoreLock serializes every mutating store operation. Coarse by design:
// this is an embedded single-application store, not a multi-client service.
// Reads go straight to sqlite and only contend on its own locking.
type StoreLock struct {
	sync.Mutex
}

func NewStoreLock() *StoreLock {
	return &StoreLock{}
}

type EquipmentRepository struct {
	db   *gorm.DB
	lock *StoreLock
}

var _ ports.EquipmentRepository = (*EquipmentRepository)(nil)

func NewEquipmentRepository(db *gorm.DB, lock *StoreLock) *EquipmentRepository {
	return &EquipmentRepository{db: db, lock: lock}
}

func (r *EquipmentRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
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

// Save upserts by UID and appends one audit row in the same transaction.
// It deliberately never short-circuits on an unchanged payload: every call
// costs one version bump, which keeps the version/history invariant trivial.
func (r *EquipmentRepository) Save(ctx context.Context, eq entity.Equipment, changedBy string) (string, error) {
	if strings.TrimSpace(eq.UID) == "" {
		return "", errors.New("equipment uid is required before save")
	}
	if eq.Code == "" {
		return "", entity.ErrCodeRequired
	}

	row, err := encodeEquipment(eq)
	if err != nil {
		return "", err
	}

	if ports.TxFromContext(ctx) != nil {
		db, err := r.dbFromContext(ctx)
		if err != nil {
			return "", err
		}
		return eq.UID, r.saveInTx(db, row, changedBy)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.saveInTx(tx, row, changedBy)
	}); err != nil {
		return "", err
	}
	return eq.UID, nil
}

func (r *EquipmentRepository) saveInTx(tx *gorm.DB, row model.Equipment, changedBy string) error {
	var existing model.Equipment
	operation := ports.AuditInsert
	beforeState := ""

	err := tx.Where("uid = ?", row.UID).Take(&existing).Error
	switch {
	case err == nil:
		operation = ports.AuditUpdate
		beforeState, err = stateJSON(existing)
		if err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// First persistence of this UID.
	default:
		return errs.Wrap(err, "query existing equipment")
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		UpdateAll: true,
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert equipment")
	}

	afterState, err := stateJSON(row)
	if err != nil {
		return err
	}

	return appendAudit(tx, model.AuditRecord{
		ObjectUID:   row.UID,
		ObjectType:  "equipment",
		Operation:   operation,
		ChangedBy:   changedBy,
		ChangedAt:   formatTime(time.Now()),
		Changes:     diffChanges(beforeState, afterState),
		BeforeState: beforeState,
		AfterState:  afterState,
	})
}

func (r *EquipmentRepository) Get(ctx context.Context, uid string) (entity.Equipment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return entity.Equipment{}, err
	}

	var row model.Equipment
	if err := db.Where("uid = ?", uid).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Equipment{}, ports.ErrNotFound
		}
		return entity.Equipment{}, errs.Wrap(err, "query equipment by uid")
	}
	return decodeEquipment(ctx, row), nil
}

func (r *EquipmentRepository) GetByCode(ctx context.Context, code string) (entity.Equipment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return entity.Equipment{}, err
	}

	var row model.Equipment
	if err := db.Where("code = ?", code).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.Equipment{}, ports.ErrNotFound
		}
		return entity.Equipment{}, errs.Wrap(err, "query equipment by code")
	}
	return decodeEquipment(ctx, row), nil
}

func (r *EquipmentRepository) List(ctx context.Context, filter ports.EquipmentFilter) ([]entity.Equipment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Equipment{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if filter.SourceModule != "" {
		query = query.Where("source_module = ?", filter.SourceModule)
	}

	var rows []model.Equipment
	if err := query.Order("code asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query equipment")
	}

	items := make([]entity.Equipment, 0, len(rows))
	for _, row := range rows {
		items = append(items, decodeEquipment(ctx, row))
	}
	return items, nil
}

// searchColumns whitelists the fields Search may touch; anything else in the
// caller's list is ignored rather than interpolated into SQL.
var searchColumns = map[string]string{
	"code":          "code",
	"name":          "name",
	"specification": "specification",
	"model":         "model",
	"manufacturer":  "manufacturer",
	"status":        "status",
	"location":      "location",
	"notes":         "notes",
}

func (r *EquipmentRepository) Search(ctx context.Context, term string, fields []string) ([]entity.Equipment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return []entity.Equipment{}, nil
	}

	if len(fields) == 0 {
		fields = []string{"code", "name"}
	}

	pattern := "%" + strings.ToLower(term) + "%"
	conditions := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for _, field := range fields {
		column, ok := searchColumns[strings.ToLower(strings.TrimSpace(field))]
		if !ok {
			continue
		}
		conditions = append(conditions, "lower("+column+") LIKE ?")
		args = append(args, pattern)
	}
	if len(conditions) == 0 {
		return []entity.Equipment{}, nil
	}

	var rows []model.Equipment
	if err := db.Model(&model.Equipment{}).
		Where(strings.Join(conditions, " OR "), args...).
		Order("code asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "search equipment")
	}

	items := make([]entity.Equipment, 0, len(rows))
	for _, row := range rows {
		items = append(items, decodeEquipment(ctx, row))
	}
	return items, nil
}

// Delete removes the row and appends one DELETE audit record capturing the
// prior full state. A missing UID is a no-op: false, no audit row.
func (r *EquipmentRepository) Delete(ctx context.Context, uid string, changedBy string) (bool, error) {
	if ports.TxFromContext(ctx) != nil {
		db, err := r.dbFromContext(ctx)
		if err != nil {
			return false, err
		}
		return r.deleteInTx(db, uid, changedBy)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	deleted := false
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := r.deleteInTx(tx, uid, changedBy)
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

func (r *EquipmentRepository) deleteInTx(tx *gorm.DB, uid string, changedBy string) (bool, error) {
	var existing model.Equipment
	if err := tx.Where("uid = ?", uid).Take(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, errs.Wrap(err, "query equipment for delete")
	}

	beforeState, err := stateJSON(existing)
	if err != nil {
		return false, err
	}

	if err := tx.Where("uid = ?", uid).Delete(&model.Equipment{}).Error; err != nil {
		return false, errs.Wrap(err, "delete equipment")
	}

	if err := appendAudit(tx, model.AuditRecord{
		ObjectUID:   uid,
		ObjectType:  "equipment",
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

func appendAudit(tx *gorm.DB, record model.AuditRecord) error {
	if err := tx.Create(&record).Error; err != nil {
		return errs.Wrap(err, "append audit record")
	}
	return nil
}
