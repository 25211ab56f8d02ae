package appointment

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusBooked      = "booked"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
	StatusRescheduled = "rescheduled"
)

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Appointment is one paid consultation booking. Date is YYYY-MM-DD and
// Time is a zero-padded HH:MM slot. Amount is the doctor's fee at
// booking time, in whole currency units.
type Appointment struct {
	ID                  uuid.UUID `json:"id"`
	PatientID           uuid.UUID `json:"patientId"`
	DoctorID            uuid.UUID `json:"doctorId"`
	Date                string    `json:"date"`
	Time                string    `json:"time"`
	Amount              int64     `json:"amount"`
	Status              string    `json:"status"`
	PaymentStatus       string    `json:"paymentStatus"`
	PaymentID           *string   `json:"paymentId,omitempty"`
	OrderID             *string   `json:"orderId,omitempty"`
	RefundID            *string   `json:"refundId,omitempty"`
	RescheduleRequested bool      `json:"rescheduleRequested"`
	RescheduleReason    *string   `json:"rescheduleReason,omitempty"`
	Notes               *string   `json:"notes,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Revenue summarizes a doctor's earnings. Confirmed counts completed
// paid visits; Pending counts booked paid visits still to happen.
type Revenue struct {
	ConfirmedRevenue int64          `json:"confirmedRevenue"`
	PendingRevenue   int64          `json:"pendingRevenue"`
	Appointments     []*Appointment `json:"appointments"`
}
