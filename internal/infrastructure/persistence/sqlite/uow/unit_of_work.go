package uow

import (
	"context"

	"gorm.io/gorm"

	"plantsync/internal/infrastructure/persistence/sqlite/repository"
	"plantsync/internal/ports"
)

// UnitOfWork implements ports.UnitOfWork with gorm. It takes the store lock
// for the whole transaction, so facade-level mutations are serialized the
// same way direct repository mutations are. Repositories called inside the
// callback pick the transaction up from context and skip their own locking.
type UnitOfWork struct {
	db   *gorm.DB
	lock *repository.StoreLock
}

func NewUnitOfWork(db *gorm.DB, lock *repository.StoreLock) *UnitOfWork {
	return &UnitOfWork{db: db, lock: lock}
}

func (u *UnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	u.lock.Lock()
	defer u.lock.Unlock()

	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ports.WithTxContext(ctx, tx))
	})
}
