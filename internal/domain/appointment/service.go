package appointment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/domain/account"
	"github.com/careslot/careslot/internal/domain/availability"
	"github.com/careslot/careslot/internal/platform/notification"
	"github.com/careslot/careslot/internal/platform/payment"
)

var (
	ErrNotFound         = errors.New("appointment not found")
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrFeeMismatch      = errors.New("amount does not match the consultation fee")
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrSlotUnavailable  = errors.New("slot no longer available")
	ErrAlreadyBooked    = errors.New("doctor already has an appointment at this time")
	ErrSameSlot         = errors.New("new slot matches the current one")
	ErrCannotCancel     = errors.New("appointment not found or cannot be cancelled")
	ErrCannotReschedule = errors.New("appointment not found or cannot be rescheduled")
	ErrCannotComplete   = errors.New("appointment not found or cannot be completed")
)

// SlotLedger is the slice of the availability repository the booking
// workflow needs.
type SlotLedger interface {
	ReserveSlot(ctx context.Context, doctorID uuid.UUID, date, timeSlot string) (bool, error)
	ReleaseSlot(ctx context.Context, doctorID uuid.UUID, date, timeSlot string) error
}

// Directory resolves accounts for fee lookups and email recipients.
type Directory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// TxRunner runs fn atomically. Production wiring binds it to a
// database transaction; tests use Passthrough.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Passthrough is a TxRunner without transactional behavior.
func Passthrough(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Service implements the appointment workflow: order creation, booking,
// cancellation, reschedules, completion, and revenue.
type Service struct {
	repo          Repository
	slots         SlotLedger
	directory     Directory
	gateway       payment.Gateway
	mailer        *notification.Mailer
	tx            TxRunner
	paymentSecret string
	logger        zerolog.Logger
}

func NewService(repo Repository, slots SlotLedger, directory Directory, gateway payment.Gateway,
	mailer *notification.Mailer, tx TxRunner, paymentSecret string, logger zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		slots:         slots,
		directory:     directory,
		gateway:       gateway,
		mailer:        mailer,
		tx:            tx,
		paymentSecret: paymentSecret,
		logger:        logger,
	}
}

func (s *Service) doctor(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	doc, err := s.directory.GetByID(ctx, id)
	if err != nil || doc.Role != account.RoleDoctor || doc.ConsultationFee == nil {
		return nil, ErrDoctorNotFound
	}
	return doc, nil
}

// CreateOrder registers a payment order for a consultation. The amount
// must match the doctor's current fee exactly.
func (s *Service) CreateOrder(ctx context.Context, patientID, doctorID uuid.UUID, amount int64) (*payment.Order, error) {
	doc, err := s.doctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if amount != *doc.ConsultationFee {
		return nil, ErrFeeMismatch
	}

	receipt := fmt.Sprintf("appointment_%d", time.Now().UnixMilli())
	order, err := s.gateway.CreateOrder(ctx, amount*100, "INR", receipt, map[string]interface{}{
		"doctorId":  doctorID.String(),
		"patientId": patientID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("create payment order: %w", err)
	}
	return order, nil
}

// BookInput carries a booking request with its payment proof.
type BookInput struct {
	DoctorID  uuid.UUID `json:"doctorId"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	OrderID   string    `json:"orderId"`
	PaymentID string    `json:"paymentId"`
	Signature string    `json:"signature"`
}

// Book verifies the payment signature, then atomically takes the slot,
// checks for conflicts, and records the appointment. The charged
// amount is the doctor's current fee, never a client-supplied value.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, in BookInput) (*Appointment, error) {
	if !availability.ValidDate(in.Date) {
		return nil, fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	if !availability.ValidTime(in.Time) {
		return nil, fmt.Errorf("time must be in HH:MM format")
	}
	if in.OrderID == "" || in.PaymentID == "" {
		return nil, fmt.Errorf("orderId and paymentId are required")
	}

	// Fail closed before touching any state.
	if !payment.VerifySignature(in.OrderID, in.PaymentID, in.Signature, s.paymentSecret) {
		return nil, ErrInvalidSignature
	}

	doc, err := s.doctor(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}

	appt := &Appointment{
		PatientID:     patientID,
		DoctorID:      in.DoctorID,
		Date:          in.Date,
		Time:          in.Time,
		Amount:        *doc.ConsultationFee,
		Status:        StatusBooked,
		PaymentStatus: PaymentPaid,
		PaymentID:     &in.PaymentID,
		OrderID:       &in.OrderID,
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		taken, err := s.slots.ReserveSlot(ctx, in.DoctorID, in.Date, in.Time)
		if err != nil {
			return fmt.Errorf("reserve slot: %w", err)
		}
		if !taken {
			return ErrSlotUnavailable
		}

		conflict, err := s.repo.HasActiveAt(ctx, in.DoctorID, in.Date, in.Time, uuid.Nil)
		if err != nil {
			return fmt.Errorf("conflict check: %w", err)
		}
		if conflict {
			return ErrAlreadyBooked
		}

		return s.repo.Create(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notification.TemplateBookingConfirmed, appt, doc, map[string]string{
		"amount": strconv.FormatInt(appt.Amount, 10),
	})
	return appt, nil
}

// Cancel cancels the patient's own booked appointment, refunds the
// captured payment when possible, and returns the slot to the ledger.
// A refund failure is tolerated: the appointment still cancels, but
// the payment status stays paid.
func (s *Service) Cancel(ctx context.Context, patientID, apptID uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, apptID)
	if err != nil || a.PatientID != patientID || a.Status != StatusBooked {
		return nil, ErrCannotCancel
	}

	refundNote := "No payment was captured."
	if a.PaymentStatus == PaymentPaid && a.PaymentID != nil {
		refundID, err := s.gateway.Refund(ctx, *a.PaymentID, a.Amount*100)
		if err != nil {
			s.logger.Error().Err(err).Str("appointment_id", a.ID.String()).Msg("refund failed, cancelling anyway")
			refundNote = "The refund could not be processed automatically; support will follow up."
		} else {
			a.RefundID = &refundID
			a.PaymentStatus = PaymentRefunded
			refundNote = "Your payment will be refunded."
		}
	}

	a.Status = StatusCancelled

	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, a); err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}
		if err := s.slots.ReleaseSlot(ctx, a.DoctorID, a.Date, a.Time); err != nil {
			return fmt.Errorf("release slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc, _ := s.directory.GetByID(ctx, a.DoctorID)
	s.notify(ctx, notification.TemplateBookingCancelled, a, doc, map[string]string{
		"refund_note": refundNote,
	})
	return a, nil
}

// RequestReschedule records the patient's wish to move a booked
// appointment. The slot ledger is untouched; the doctor performs the
// actual move.
func (s *Service) RequestReschedule(ctx context.Context, patientID, apptID uuid.UUID, reason string) (*Appointment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("a reason is required")
	}

	a, err := s.repo.GetByID(ctx, apptID)
	if err != nil || a.PatientID != patientID || a.Status != StatusBooked {
		return nil, ErrCannotReschedule
	}

	a.RescheduleRequested = true
	a.RescheduleReason = &reason
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	doc, _ := s.directory.GetByID(ctx, a.DoctorID)
	patient, _ := s.directory.GetByID(ctx, a.PatientID)
	if doc != nil {
		data := map[string]string{
			"name":   doc.Name,
			"date":   a.Date,
			"time":   a.Time,
			"reason": reason,
		}
		if patient != nil {
			data["patient"] = patient.Name
		}
		s.mailer.Send(ctx, notification.TemplateRescheduleRequested, data, doc.Email)
	}
	return a, nil
}

// ApproveReschedule moves the doctor's own booked appointment to a new
// slot: the new slot is taken and the old one returned in the same
// transaction, and the reschedule request is cleared.
func (s *Service) ApproveReschedule(ctx context.Context, doctorID, apptID uuid.UUID, newDate, newTime string) (*Appointment, error) {
	if !availability.ValidDate(newDate) {
		return nil, fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	if !availability.ValidTime(newTime) {
		return nil, fmt.Errorf("time must be in HH:MM format")
	}

	a, err := s.repo.GetByID(ctx, apptID)
	if err != nil || a.DoctorID != doctorID || a.Status != StatusBooked {
		return nil, ErrCannotReschedule
	}
	if a.Date == newDate && a.Time == newTime {
		return nil, ErrSameSlot
	}

	oldDate, oldTime := a.Date, a.Time

	err = s.tx(ctx, func(ctx context.Context) error {
		taken, err := s.slots.ReserveSlot(ctx, doctorID, newDate, newTime)
		if err != nil {
			return fmt.Errorf("reserve slot: %w", err)
		}
		if !taken {
			return ErrSlotUnavailable
		}

		conflict, err := s.repo.HasActiveAt(ctx, doctorID, newDate, newTime, a.ID)
		if err != nil {
			return fmt.Errorf("conflict check: %w", err)
		}
		if conflict {
			return ErrAlreadyBooked
		}

		if err := s.slots.ReleaseSlot(ctx, doctorID, oldDate, oldTime); err != nil {
			return fmt.Errorf("release old slot: %w", err)
		}

		a.Date = newDate
		a.Time = newTime
		a.RescheduleRequested = false
		a.RescheduleReason = nil
		return s.repo.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	doc, _ := s.directory.GetByID(ctx, doctorID)
	s.notify(ctx, notification.TemplateRescheduleApproved, a, doc, nil)
	return a, nil
}

// Complete marks the doctor's own booked appointment as done.
func (s *Service) Complete(ctx context.Context, doctorID, apptID uuid.UUID, notes string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, apptID)
	if err != nil || a.DoctorID != doctorID || a.Status != StatusBooked {
		return nil, ErrCannotComplete
	}

	a.Status = StatusCompleted
	if notes = strings.TrimSpace(notes); notes != "" {
		a.Notes = &notes
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	doc, _ := s.directory.GetByID(ctx, doctorID)
	s.notify(ctx, notification.TemplateVisitCompleted, a, doc, nil)
	return a, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

// RevenueForDoctor sums confirmed and pending revenue and returns the
// doctor's appointment list alongside.
func (s *Service) RevenueForDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) (*Revenue, error) {
	confirmed, pending, err := s.repo.RevenueByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("revenue sums: %w", err)
	}
	appts, _, err := s.repo.ListByDoctor(ctx, doctorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return &Revenue{
		ConfirmedRevenue: confirmed,
		PendingRevenue:   pending,
		Appointments:     appts,
	}, nil
}

// notify emails both parties about an appointment event, best-effort.
func (s *Service) notify(ctx context.Context, templateID string, a *Appointment, doc *account.Account, extra map[string]string) {
	patient, _ := s.directory.GetByID(ctx, a.PatientID)

	data := map[string]string{
		"date": a.Date,
		"time": a.Time,
	}
	if doc != nil {
		data["doctor"] = doc.Name
	}
	if patient != nil {
		data["name"] = patient.Name
	}
	for k, v := range extra {
		data[k] = v
	}

	var recipients []string
	if patient != nil {
		recipients = append(recipients, patient.Email)
	}
	if doc != nil {
		recipients = append(recipients, doc.Email)
	}
	s.mailer.Send(ctx, templateID, data, recipients...)
}
