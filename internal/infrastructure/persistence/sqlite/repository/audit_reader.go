package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"plantsync/internal/errs"
	"plantsync/internal/infrastructure/persistence/sqlite/model"
	"plantsync/internal/ports"
)

type AuditLogReader struct {
	db *gorm.DB
}

var _ ports.AuditReader = (*AuditLogReader)(nil)

func NewAuditLogReader(db *gorm.DB) *AuditLogReader {
	return &AuditLogReader{db: db}
}

func (r *AuditLogReader) ListAudit(ctx context.Context, objectUID string, limit int) ([]ports.AuditEntry, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	db := r.db.WithContext(ctx)
	if tx := ports.TxFromContext(ctx); tx != nil {
		gormTx, ok := tx.(*gorm.DB)
		if !ok || gormTx == nil {
			return nil, fmt.Errorf("invalid tx in context: %T", tx)
		}
		db = gormTx.WithContext(ctx)
	}

	query := db.Model(&model.AuditRecord{}).Order("id desc")
	if objectUID != "" {
		query = query.Where("object_uid = ?", objectUID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.AuditRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query audit log")
	}

	items := make([]ports.AuditEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.AuditEntry{
			ID:          row.ID,
			ObjectUID:   row.ObjectUID,
			ObjectType:  row.ObjectType,
			Operation:   row.Operation,
			ChangedBy:   row.ChangedBy,
			ChangedAt:   row.ChangedAt,
			Changes:     row.Changes,
			BeforeState: row.BeforeState,
			AfterState:  row.AfterState,
		})
	}
	return items, nil
}
