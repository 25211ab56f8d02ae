package appointment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/domain/account"
	"github.com/careslot/careslot/internal/platform/notification"
	"github.com/careslot/careslot/internal/platform/payment"
)

const testPaymentSecret = "test-razorpay-secret"

type mockRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[a.ID]; !ok {
		return errors.New("not found")
	}
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *mockRepo) listBy(match func(*Appointment) bool) []*Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Appointment
	for _, a := range m.items {
		if match(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _, _ int) ([]*Appointment, int, error) {
	items := m.listBy(func(a *Appointment) bool { return a.PatientID == patientID })
	return items, len(items), nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, _, _ int) ([]*Appointment, int, error) {
	items := m.listBy(func(a *Appointment) bool { return a.DoctorID == doctorID })
	return items, len(items), nil
}

func (m *mockRepo) HasActiveAt(_ context.Context, doctorID uuid.UUID, date, timeSlot string, exclude uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.DoctorID == doctorID && a.Date == date && a.Time == timeSlot &&
			a.Status != StatusCancelled && a.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) RevenueByDoctor(_ context.Context, doctorID uuid.UUID) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var confirmed, pending int64
	for _, a := range m.items {
		if a.DoctorID != doctorID || a.PaymentStatus != PaymentPaid {
			continue
		}
		switch a.Status {
		case StatusCompleted:
			confirmed += a.Amount
		case StatusBooked:
			pending += a.Amount
		}
	}
	return confirmed, pending, nil
}

type mockSlots struct {
	mu    sync.Mutex
	slots map[string][]string
}

func newMockSlots() *mockSlots {
	return &mockSlots{slots: make(map[string][]string)}
}

func slotKey(doctorID uuid.UUID, date string) string {
	return doctorID.String() + "|" + date
}

func (m *mockSlots) add(doctorID uuid.UUID, date string, times ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := slotKey(doctorID, date)
	m.slots[k] = append(m.slots[k], times...)
}

func (m *mockSlots) ReserveSlot(_ context.Context, doctorID uuid.UUID, date, timeSlot string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := slotKey(doctorID, date)
	for i, t := range m.slots[k] {
		if t == timeSlot {
			m.slots[k] = append(m.slots[k][:i], m.slots[k][i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSlots) ReleaseSlot(_ context.Context, doctorID uuid.UUID, date, timeSlot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := slotKey(doctorID, date)
	m.slots[k] = append(m.slots[k], timeSlot)
	return nil
}

func (m *mockSlots) open(doctorID uuid.UUID, date string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.slots[slotKey(doctorID, date)]))
	copy(out, m.slots[slotKey(doctorID, date)])
	return out
}

type mockDirectory struct {
	accounts map[uuid.UUID]*account.Account
}

func (m *mockDirectory) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return a, nil
}

type fixture struct {
	svc       *Service
	repo      *mockRepo
	slots     *mockSlots
	gateway   *payment.MockGateway
	emails    *notification.MockEmailSender
	doctorID  uuid.UUID
	patientID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fee := int64(500)
	doctorID := uuid.New()
	patientID := uuid.New()

	dir := &mockDirectory{accounts: map[uuid.UUID]*account.Account{
		doctorID: {
			ID:              doctorID,
			Name:            "Dr. Rao",
			Email:           "rao@clinic.example",
			Role:            account.RoleDoctor,
			ConsultationFee: &fee,
		},
		patientID: {
			ID:    patientID,
			Name:  "Asha",
			Email: "asha@example.com",
			Role:  account.RolePatient,
		},
	}}

	repo := newMockRepo()
	slots := newMockSlots()
	gateway := &payment.MockGateway{}
	emails := &notification.MockEmailSender{}
	mailer := notification.NewMailer(emails, notification.NewTemplateEngine(), zerolog.Nop())

	svc := NewService(repo, slots, dir, gateway, mailer, Passthrough, testPaymentSecret, zerolog.Nop())
	return &fixture{
		svc:       svc,
		repo:      repo,
		slots:     slots,
		gateway:   gateway,
		emails:    emails,
		doctorID:  doctorID,
		patientID: patientID,
	}
}

func signedBooking(f *fixture, date, timeSlot string) BookInput {
	orderID := "order_test_1"
	paymentID := "pay_test_1"
	return BookInput{
		DoctorID:  f.doctorID,
		Date:      date,
		Time:      timeSlot,
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: payment.Sign(orderID, paymentID, testPaymentSecret),
	}
}

func TestCreateOrder_UsesDoctorFee(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.CreateOrder(context.Background(), f.patientID, f.doctorID, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Amount != 50000 {
		t.Errorf("expected amount in paise 50000, got %d", order.Amount)
	}
	if order.Currency != "INR" {
		t.Errorf("expected INR, got %s", order.Currency)
	}
	if !strings.HasPrefix(order.Receipt, "appointment_") {
		t.Errorf("unexpected receipt %q", order.Receipt)
	}

	calls := f.gateway.OrderCalls()
	if len(calls) != 1 || calls[0].Notes["doctorId"] != f.doctorID.String() {
		t.Errorf("expected order notes to carry doctor id, got %+v", calls)
	}
}

func TestCreateOrder_FeeMismatch(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.CreateOrder(context.Background(), f.patientID, f.doctorID, 499); !errors.Is(err, ErrFeeMismatch) {
		t.Fatalf("expected ErrFeeMismatch, got %v", err)
	}
	if len(f.gateway.OrderCalls()) != 0 {
		t.Error("gateway should not be called on fee mismatch")
	}
}

func TestCreateOrder_UnknownDoctor(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.CreateOrder(context.Background(), f.patientID, uuid.New(), 500); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestBook_Success(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00", "09:30")

	a, err := f.svc.Book(context.Background(), f.patientID, signedBooking(f, "2026-09-01", "09:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Amount != 500 {
		t.Errorf("expected amount from doctor fee 500, got %d", a.Amount)
	}
	if a.Status != StatusBooked || a.PaymentStatus != PaymentPaid {
		t.Errorf("expected booked/paid, got %s/%s", a.Status, a.PaymentStatus)
	}

	open := f.slots.open(f.doctorID, "2026-09-01")
	if len(open) != 1 || open[0] != "09:30" {
		t.Errorf("expected slot 09:00 removed from ledger, got %v", open)
	}

	calls := f.emails.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected confirmation emails to patient and doctor, got %d", len(calls))
	}
}

func TestBook_InvalidSignature(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00")

	in := signedBooking(f, "2026-09-01", "09:00")
	in.Signature = "deadbeef"

	if _, err := f.svc.Book(context.Background(), f.patientID, in); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if len(f.slots.open(f.doctorID, "2026-09-01")) != 1 {
		t.Error("ledger should be untouched when the signature fails")
	}
	if _, total, _ := f.repo.ListByPatient(context.Background(), f.patientID, 10, 0); total != 0 {
		t.Error("no appointment should be recorded")
	}
}

func TestBook_SlotTakenOnce(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00")

	if _, err := f.svc.Book(context.Background(), f.patientID, signedBooking(f, "2026-09-01", "09:00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Book(context.Background(), uuid.New(), signedBooking(f, "2026-09-01", "09:00")); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable on the second booking, got %v", err)
	}
}

func TestBook_ValidatesInput(t *testing.T) {
	f := newFixture(t)

	cases := []BookInput{
		signedBooking(f, "01-09-2026", "09:00"),
		signedBooking(f, "2026-09-01", "9:00"),
		{DoctorID: f.doctorID, Date: "2026-09-01", Time: "09:00"},
	}
	for i, in := range cases {
		if _, err := f.svc.Book(context.Background(), f.patientID, in); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestCancel_RefundsAndReleasesSlot(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00")

	a, err := f.svc.Book(context.Background(), f.patientID, signedBooking(f, "2026-09-01", "09:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := f.svc.Cancel(context.Background(), f.patientID, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCancelled || got.PaymentStatus != PaymentRefunded {
		t.Errorf("expected cancelled/refunded, got %s/%s", got.Status, got.PaymentStatus)
	}
	if got.RefundID == nil {
		t.Error("expected a refund id")
	}

	refunds := f.gateway.RefundCalls()
	if len(refunds) != 1 || refunds[0].Amount != 50000 {
		t.Errorf("expected one refund of 50000 paise, got %+v", refunds)
	}
	if open := f.slots.open(f.doctorID, "2026-09-01"); len(open) != 1 || open[0] != "09:00" {
		t.Errorf("expected slot back in ledger, got %v", open)
	}
}

func TestCancel_ToleratesRefundFailure(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00")
	f.gateway.RefundShouldFail = true
	f.gateway.FailError = "gateway down"

	a, err := f.svc.Book(context.Background(), f.patientID, signedBooking(f, "2026-09-01", "09:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := f.svc.Cancel(context.Background(), f.patientID, a.ID)
	if err != nil {
		t.Fatalf("cancellation should survive a failed refund, got %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
	if got.PaymentStatus != PaymentPaid || got.RefundID != nil {
		t.Errorf("payment should stay paid with no refund id, got %s/%v", got.PaymentStatus, got.RefundID)
	}
}

func TestCancel_OnlyOwnBooked(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00")

	a, err := f.svc.Book(context.Background(), f.patientID, signedBooking(f, "2026-09-01", "09:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.Cancel(context.Background(), uuid.New(), a.ID); !errors.Is(err, ErrCannotCancel) {
		t.Fatalf("expected ErrCannotCancel for a stranger, got %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), f.patientID, a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), f.patientID, a.ID); !errors.Is(err, ErrCannotCancel) {
		t.Fatalf("expected ErrCannotCancel for a second cancel, got %v", err)
	}
}

func TestRequestReschedule(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00")

	a, err := f.svc.Book(context.Background(), f.patientID, signedBooking(f, "2026-09-01", "09:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sent := len(f.emails.Calls())

	got, err := f.svc.RequestReschedule(context.Background(), f.patientID, a.ID, "travelling that week")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.RescheduleRequested || got.RescheduleReason == nil || *got.RescheduleReason != "travelling that week" {
		t.Errorf("expected flagged request with reason, got %+v", got)
	}
	if got.Date != "2026-09-01" || got.Time != "09:00" {
		t.Error("requesting a reschedule must not move the appointment")
	}

	calls := f.emails.Calls()
	if len(calls) != sent+1 || calls[len(calls)-1].To != "rao@clinic.example" {
		t.Errorf("expected one email to the doctor, got %+v", calls[sent:])
	}
}

func TestRequestReschedule_RequiresReason(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00")

	a, err := f.svc.Book(context.Background(), f.patientID, signedBooking(f, "2026-09-01", "09:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.RequestReschedule(context.Background(), f.patientID, a.ID, "  "); err == nil {
		t.Fatal("expected an error for a blank reason")
	}
}

func TestApproveReschedule_MovesSlot(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00")
	f.slots.add(f.doctorID, "2026-09-02", "10:00")

	a, err := f.svc.Book(context.Background(), f.patientID, signedBooking(f, "2026-09-01", "09:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.RequestReschedule(context.Background(), f.patientID, a.ID, "conflict"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := f.svc.ApproveReschedule(context.Background(), f.doctorID, a.ID, "2026-09-02", "10:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Date != "2026-09-02" || got.Time != "10:00" {
		t.Errorf("expected move to 2026-09-02 10:00, got %s %s", got.Date, got.Time)
	}
	if got.Status != StatusBooked {
		t.Errorf("expected status to stay booked, got %s", got.Status)
	}
	if got.RescheduleRequested || got.RescheduleReason != nil {
		t.Error("expected the reschedule request to be cleared")
	}

	if open := f.slots.open(f.doctorID, "2026-09-02"); len(open) != 0 {
		t.Errorf("expected new slot taken, got %v", open)
	}
	if open := f.slots.open(f.doctorID, "2026-09-01"); len(open) != 1 || open[0] != "09:00" {
		t.Errorf("expected old slot released, got %v", open)
	}
}

func TestApproveReschedule_SameSlot(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00")

	a, err := f.svc.Book(context.Background(), f.patientID, signedBooking(f, "2026-09-01", "09:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.ApproveReschedule(context.Background(), f.doctorID, a.ID, "2026-09-01", "09:00"); !errors.Is(err, ErrSameSlot) {
		t.Fatalf("expected ErrSameSlot, got %v", err)
	}
}

func TestApproveReschedule_TargetUnavailable(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00")

	a, err := f.svc.Book(context.Background(), f.patientID, signedBooking(f, "2026-09-01", "09:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.ApproveReschedule(context.Background(), f.doctorID, a.ID, "2026-09-02", "10:00"); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestApproveReschedule_OnlyOwnAppointment(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00")
	f.slots.add(f.doctorID, "2026-09-02", "10:00")

	a, err := f.svc.Book(context.Background(), f.patientID, signedBooking(f, "2026-09-01", "09:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.ApproveReschedule(context.Background(), uuid.New(), a.ID, "2026-09-02", "10:00"); !errors.Is(err, ErrCannotReschedule) {
		t.Fatalf("expected ErrCannotReschedule, got %v", err)
	}
}

func TestComplete(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00")

	a, err := f.svc.Book(context.Background(), f.patientID, signedBooking(f, "2026-09-01", "09:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := f.svc.Complete(context.Background(), f.doctorID, a.ID, "follow up in two weeks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.Notes == nil || *got.Notes != "follow up in two weeks" {
		t.Errorf("expected notes recorded, got %v", got.Notes)
	}

	if _, err := f.svc.Complete(context.Background(), f.doctorID, a.ID, ""); !errors.Is(err, ErrCannotComplete) {
		t.Fatalf("expected ErrCannotComplete for a second completion, got %v", err)
	}
}

func TestComplete_OnlyOwnBooked(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00")

	a, err := f.svc.Book(context.Background(), f.patientID, signedBooking(f, "2026-09-01", "09:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Complete(context.Background(), uuid.New(), a.ID, ""); !errors.Is(err, ErrCannotComplete) {
		t.Fatalf("expected ErrCannotComplete for another doctor, got %v", err)
	}
}

func TestRevenueForDoctor(t *testing.T) {
	f := newFixture(t)
	f.slots.add(f.doctorID, "2026-09-01", "09:00", "09:30", "10:00")

	book := func(timeSlot string) *Appointment {
		t.Helper()
		a, err := f.svc.Book(context.Background(), uuid.New(), signedBooking(f, "2026-09-01", timeSlot))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return a
	}

	// Patients must exist in the directory for booking emails; use the
	// shared patient for one and anonymous ids for the rest.
	first, err := f.svc.Book(context.Background(), f.patientID, signedBooking(f, "2026-09-01", "09:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := book("09:30")
	third := book("10:00")

	if _, err := f.svc.Complete(context.Background(), f.doctorID, first.ID, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Complete(context.Background(), f.doctorID, second.ID, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = third // stays booked

	rev, err := f.svc.RevenueForDoctor(context.Background(), f.doctorID, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rev.ConfirmedRevenue != 1000 {
		t.Errorf("expected confirmed 1000, got %d", rev.ConfirmedRevenue)
	}
	if rev.PendingRevenue != 500 {
		t.Errorf("expected pending 500, got %d", rev.PendingRevenue)
	}
	if len(rev.Appointments) != 3 {
		t.Errorf("expected 3 appointments, got %d", len(rev.Appointments))
	}
}
