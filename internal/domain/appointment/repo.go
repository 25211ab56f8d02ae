package appointment

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence interface for appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// HasActiveAt reports whether a non-cancelled appointment other
	// than exclude occupies (doctor, date, time). Pass uuid.Nil to
	// exclude nothing.
	HasActiveAt(ctx context.Context, doctorID uuid.UUID, date, timeSlot string, exclude uuid.UUID) (bool, error)
	// RevenueByDoctor returns confirmed (completed and paid) and
	// pending (booked and paid) revenue sums.
	RevenueByDoctor(ctx context.Context, doctorID uuid.UUID) (confirmed, pending int64, err error)
}
