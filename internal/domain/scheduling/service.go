package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notifier receives appointment lifecycle events. Implementations are
// fire-and-forget: they record and dispatch on their own and never report
// failure back, so a notification problem cannot roll back a booking.
// Implemented by the notification service, wired in main.
type Notifier interface {
	AppointmentCreated(ctx context.Context, a *Appointment)
	AppointmentConfirmed(ctx context.Context, a *Appointment)
	// AppointmentCancelled notifies the counterpart of whoever cancelled.
	AppointmentCancelled(ctx context.Context, a *Appointment, byPatient bool)
	AppointmentReminder(ctx context.Context, a *Appointment)
}

type Service struct {
	slots    SlotRepository
	appts    AppointmentRepository
	notifier Notifier
}

// NewService constructs the scheduling service. notifier may be nil, which
// disables lifecycle notifications.
func NewService(slots SlotRepository, appts AppointmentRepository, notifier Notifier) *Service {
	return &Service{slots: slots, appts: appts, notifier: notifier}
}

// -- Weekly slots --

func (s *Service) CreateSlot(ctx context.Context, w *WeeklySlot) error {
	if err := w.Validate(); err != nil {
		return err
	}
	w.Active = true
	return s.slots.Create(ctx, w)
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*WeeklySlot, error) {
	return s.slots.GetByID(ctx, id)
}

func (s *Service) UpdateSlot(ctx context.Context, w *WeeklySlot) error {
	if err := w.Validate(); err != nil {
		return err
	}
	return s.slots.Update(ctx, w)
}

func (s *Service) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	return s.slots.Delete(ctx, id)
}

func (s *Service) ListSlotsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*WeeklySlot, error) {
	return s.slots.ListByDoctor(ctx, doctorID)
}

// -- Appointments --

// CreateAppointment validates the booking and stores it. The same-slot
// pre-check gives a friendly error; the unique constraint catches the race
// the pre-check cannot, and its violation surfaces as the same ErrSlotTaken.
func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	if err := a.Validate(); err != nil {
		return err
	}

	taken, err := s.appts.ExistsAt(ctx, a.DoctorID, a.Date, a.Time, uuid.Nil)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlotTaken
	}

	if err := s.appts.Create(ctx, a); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.AppointmentCreated(ctx, a)
	}
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appts.GetByID(ctx, id)
}

// UpdateAppointment re-runs the conflict guard, excluding the record itself,
// and checks the status transition table.
func (s *Service) UpdateAppointment(ctx context.Context, a *Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	existing, err := s.appts.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if a.Status != existing.Status && !CanTransition(existing.Status, a.Status) {
		return fmt.Errorf("cannot move appointment from %q to %q", existing.Status, a.Status)
	}

	taken, err := s.appts.ExistsAt(ctx, a.DoctorID, a.Date, a.Time, a.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlotTaken
	}
	return s.appts.Update(ctx, a)
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.appts.Delete(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.List(ctx, f, limit, offset)
}

// Confirm moves the appointment to confirmed and notifies both parties.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, StatusConfirmed) {
		return nil, fmt.Errorf("cannot move appointment from %q to %q", a.Status, StatusConfirmed)
	}
	a.Status = StatusConfirmed
	if err := s.appts.Update(ctx, a); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.AppointmentConfirmed(ctx, a)
	}
	return a, nil
}

// Cancel moves the appointment to cancelled and notifies the counterpart of
// whoever cancelled. A patient cancellation also runs the slot-availability
// hook.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, byPatient bool) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, StatusCancelled) {
		return nil, fmt.Errorf("cannot move appointment from %q to %q", a.Status, StatusCancelled)
	}
	a.Status = StatusCancelled
	if err := s.appts.Update(ctx, a); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.AppointmentCancelled(ctx, a, byPatient)
	}
	if byPatient {
		s.notifySlotAvailable(ctx, a)
	}
	return a, nil
}

// notifySlotAvailable is the extension point for re-offering a freed slot.
// There are no waiting-list semantics; this is intentionally a no-op.
func (s *Service) notifySlotAvailable(_ context.Context, _ *Appointment) {}

// RemindUpcoming sends a reminder for every pending or confirmed appointment
// scheduled for tomorrow. It satisfies the reminder sweeper's job contract.
func (s *Service) RemindUpcoming(ctx context.Context) (int, error) {
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour)
	appts, err := s.appts.ListForReminder(ctx, tomorrow)
	if err != nil {
		return 0, err
	}
	if s.notifier == nil {
		return 0, nil
	}
	for _, a := range appts {
		s.notifier.AppointmentReminder(ctx, a)
	}
	return len(appts), nil
}
