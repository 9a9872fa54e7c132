package core

import (
	"context"
	"errors"
)

// Sentinel errors shared by all RecordStore implementations.
var (
	// ErrRecordNotFound means an update referenced a row that does not
	// exist in the store. Reported to the caller, never retried.
	ErrRecordNotFound = errors.New("record not found")

	// ErrStoreLocked means the store could not be written because another
	// process holds it. Store implementations retry before returning it.
	ErrStoreLocked = errors.New("store locked")
)

// RowKey addresses a single row. SKUID takes precedence when set; a
// transfer's source row is addressed by (ProductName, Location) because
// the orchestrator only knows the source by product and site.
type RowKey struct {
	SKUID       string
	ProductName string
	Location    string
}

// FieldChanges lists the fields an update assigns. Values are absolute,
// not deltas, so re-applying the same update is idempotent. Nil fields are
// left untouched.
type FieldChanges struct {
	Stock    *int
	Forecast *int
	OnOrder  *int
}

// RecordUpdate is one row mutation within a save.
type RecordUpdate struct {
	Key    RowKey
	Fields FieldChanges
}

// RecordStore is the shared record store the pipeline reads from and
// commits to. ApplyAndSave locates each target row, assigns the listed
// fields and persists the result; it returns ErrRecordNotFound for an
// unknown row and ErrStoreLocked (wrapped) once its retry budget is spent.
type RecordStore interface {
	LoadAll(ctx context.Context) ([]ItemRecord, error)
	ApplyAndSave(ctx context.Context, updates []RecordUpdate) error
}

// IntPtr is a small helper for building FieldChanges literals.
func IntPtr(v int) *int { return &v }
