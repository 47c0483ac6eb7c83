package ports

import "context"

// Audit operations.
const (
	AuditInsert = "INSERT"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
)

// AuditEntry is one append-only row of the audit trail.
type AuditEntry struct {
	ID          uint64
	ObjectUID   string
	ObjectType  string
	Operation   string
	ChangedBy   string
	ChangedAt   string
	Changes     string
	BeforeState string
	AfterState  string
}

// AuditReader exposes the trail for diagnostics and the console.
// Writing audit rows is not a port: repositories append them inside their
// own transactions.
type AuditReader interface {
	ListAudit(ctx context.Context, objectUID string, limit int) ([]AuditEntry, error)
}
