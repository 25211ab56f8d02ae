package availability

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence interface for the slot ledger.
type Repository interface {
	// Merge folds slots into the doctor's entry for date, creating
	// the entry when absent. Slots must already be normalized.
	Merge(ctx context.Context, doctorID uuid.UUID, date string, slots []string) (*Day, error)
	// Delete removes a whole date entry, scoped to its owner.
	Delete(ctx context.Context, doctorID, id uuid.UUID) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Day, int, error)
	// GetSlots returns the open slots for (doctor, date), empty when
	// no entry exists.
	GetSlots(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)

	// ReserveSlot removes timeSlot from the entry only if present,
	// in a single conditional statement. Returns false when the slot
	// was not open.
	ReserveSlot(ctx context.Context, doctorID uuid.UUID, date, timeSlot string) (bool, error)
	// ReleaseSlot puts timeSlot back, creating the entry when absent.
	// Re-releasing an already open slot is a no-op.
	ReleaseSlot(ctx context.Context, doctorID uuid.UUID, date, timeSlot string) error
}
