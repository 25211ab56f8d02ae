package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("availability entry not found")

// Service manages the slot ledger.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add merges time slots into the doctor's entry for a date, creating
// the entry when none exists. Duplicates are eliminated and the result
// stays sorted.
func (s *Service) Add(ctx context.Context, doctorID uuid.UUID, date string, slots []string) (*Day, error) {
	if !ValidDate(date) {
		return nil, fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("at least one time slot is required")
	}
	for _, t := range slots {
		if !ValidTime(t) {
			return nil, fmt.Errorf("invalid time slot %q, expected HH:MM", t)
		}
	}

	day, err := s.repo.Merge(ctx, doctorID, date, NormalizeSlots(slots))
	if err != nil {
		return nil, fmt.Errorf("merge availability: %w", err)
	}
	return day, nil
}

// Delete removes a whole date entry owned by the doctor.
func (s *Service) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, doctorID, id); err != nil {
		return ErrNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Day, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

// OpenSlots returns the open slots for (doctor, date). A date without
// an entry yields an empty list, not an error.
func (s *Service) OpenSlots(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	if !ValidDate(date) {
		return nil, fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	return s.repo.GetSlots(ctx, doctorID, date)
}
