package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockSlotRepo struct {
	slots map[uuid.UUID]*WeeklySlot
}

func newMockSlotRepo() *mockSlotRepo {
	return &mockSlotRepo{slots: make(map[uuid.UUID]*WeeklySlot)}
}

func (m *mockSlotRepo) Create(_ context.Context, w *WeeklySlot) error {
	for _, existing := range m.slots {
		if existing.DoctorID == w.DoctorID && existing.Weekday == w.Weekday &&
			existing.StartTime == w.StartTime && existing.EndTime == w.EndTime {
			return ErrSlotOverlap
		}
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	cp := *w
	m.slots[w.ID] = &cp
	return nil
}

func (m *mockSlotRepo) GetByID(_ context.Context, id uuid.UUID) (*WeeklySlot, error) {
	w, ok := m.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *mockSlotRepo) Update(_ context.Context, w *WeeklySlot) error {
	if _, ok := m.slots[w.ID]; !ok {
		return ErrNotFound
	}
	cp := *w
	m.slots[w.ID] = &cp
	return nil
}

func (m *mockSlotRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.slots[id]; !ok {
		return ErrNotFound
	}
	delete(m.slots, id)
	return nil
}

func (m *mockSlotRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*WeeklySlot, error) {
	var out []*WeeklySlot
	for _, w := range m.slots {
		if w.DoctorID == doctorID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockApptRepo struct {
	appts      map[uuid.UUID]*Appointment
	raceCreate bool
}

func newMockApptRepo() *mockApptRepo {
	return &mockApptRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockApptRepo) Create(_ context.Context, a *Appointment) error {
	if m.raceCreate {
		m.raceCreate = false
		return ErrSlotTaken
	}
	for _, existing := range m.appts {
		if existing.DoctorID == a.DoctorID && existing.Date.Equal(a.Date) && existing.Time == a.Time {
			return ErrSlotTaken
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockApptRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockApptRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appts[a.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range m.appts {
		if id != a.ID && existing.DoctorID == a.DoctorID && existing.Date.Equal(a.Date) && existing.Time == a.Time {
			return ErrSlotTaken
		}
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockApptRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.appts[id]; !ok {
		return ErrNotFound
	}
	delete(m.appts, id)
	return nil
}

func (m *mockApptRepo) List(_ context.Context, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if f.PatientID != uuid.Nil && a.PatientID != f.PatientID {
			continue
		}
		if f.DoctorID != uuid.Nil && a.DoctorID != f.DoctorID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Date != nil && !a.Date.Equal(*f.Date) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockApptRepo) ExistsAt(_ context.Context, doctorID uuid.UUID, date time.Time, clock string, excludeID uuid.UUID) (bool, error) {
	for id, a := range m.appts {
		if id != excludeID && a.DoctorID == doctorID && a.Date.Equal(date) && a.Time == clock {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockApptRepo) ListForReminder(_ context.Context, date time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.Date.Equal(date) && (a.Status == StatusPending || a.Status == StatusConfirmed) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type notifierCall struct {
	event     string
	apptID    uuid.UUID
	byPatient bool
}

type mockNotifier struct {
	calls []notifierCall
}

func (m *mockNotifier) AppointmentCreated(_ context.Context, a *Appointment) {
	m.calls = append(m.calls, notifierCall{event: "created", apptID: a.ID})
}

func (m *mockNotifier) AppointmentConfirmed(_ context.Context, a *Appointment) {
	m.calls = append(m.calls, notifierCall{event: "confirmed", apptID: a.ID})
}

func (m *mockNotifier) AppointmentCancelled(_ context.Context, a *Appointment, byPatient bool) {
	m.calls = append(m.calls, notifierCall{event: "cancelled", apptID: a.ID, byPatient: byPatient})
}

func (m *mockNotifier) AppointmentReminder(_ context.Context, a *Appointment) {
	m.calls = append(m.calls, notifierCall{event: "reminder", apptID: a.ID})
}

func (m *mockNotifier) events() []string {
	var out []string
	for _, c := range m.calls {
		out = append(out, c.event)
	}
	return out
}

func newTestService() (*Service, *mockApptRepo, *mockNotifier) {
	appts := newMockApptRepo()
	n := &mockNotifier{}
	return NewService(newMockSlotRepo(), appts, n), appts, n
}

func sampleAppointment() *Appointment {
	return &Appointment{
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		Date:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Time:      "09:00",
		Reason:    "checkup",
	}
}

func TestCreateAppointmentDefaultsToPending(t *testing.T) {
	svc, _, n := newTestService()
	a := sampleAppointment()
	if err := svc.CreateAppointment(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	if a.Status != StatusPending {
		t.Errorf("status = %q, want pending", a.Status)
	}
	if got := n.events(); len(got) != 1 || got[0] != "created" {
		t.Errorf("notifier events = %v, want [created]", got)
	}
}

func TestCreateAppointmentRejectsTakenSlot(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	first := sampleAppointment()
	if err := svc.CreateAppointment(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := sampleAppointment()
	second.DoctorID = first.DoctorID
	second.Date = first.Date
	second.Time = first.Time
	if err := svc.CreateAppointment(ctx, second); !errors.Is(err, ErrSlotTaken) {
		t.Errorf("err = %v, want ErrSlotTaken", err)
	}
	if len(repo.appts) != 1 {
		t.Errorf("appointments = %d, want 1", len(repo.appts))
	}
}

func TestCreateAppointmentAllowsSameTimeOtherDoctor(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first := sampleAppointment()
	if err := svc.CreateAppointment(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := sampleAppointment()
	second.Date = first.Date
	second.Time = first.Time
	if err := svc.CreateAppointment(ctx, second); err != nil {
		t.Errorf("same time with another doctor should book: %v", err)
	}
}

func TestCreateAppointmentConstraintRaceSurfacesAsSlotTaken(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.raceCreate = true

	err := svc.CreateAppointment(context.Background(), sampleAppointment())
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("err = %v, want ErrSlotTaken from the constraint race", err)
	}
}

func TestUpdateAppointmentExcludesSelfFromConflictCheck(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	a := sampleAppointment()
	if err := svc.CreateAppointment(ctx, a); err != nil {
		t.Fatal(err)
	}
	a.Reason = "follow-up"
	a.Status = StatusPending
	if err := svc.UpdateAppointment(ctx, a); err != nil {
		t.Errorf("updating without moving the slot should pass: %v", err)
	}
}

func TestUpdateAppointmentRejectsMoveOntoTakenSlot(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first := sampleAppointment()
	if err := svc.CreateAppointment(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := sampleAppointment()
	second.DoctorID = first.DoctorID
	second.Date = first.Date
	second.Time = "10:00"
	if err := svc.CreateAppointment(ctx, second); err != nil {
		t.Fatal(err)
	}

	second.Time = first.Time
	if err := svc.UpdateAppointment(ctx, second); !errors.Is(err, ErrSlotTaken) {
		t.Errorf("err = %v, want ErrSlotTaken", err)
	}
}

func TestConfirmNotifiesBothPartiesPath(t *testing.T) {
	svc, _, n := newTestService()
	ctx := context.Background()

	a := sampleAppointment()
	if err := svc.CreateAppointment(ctx, a); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Confirm(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusConfirmed {
		t.Errorf("status = %q, want confirmed", got.Status)
	}
	if events := n.events(); len(events) != 2 || events[1] != "confirmed" {
		t.Errorf("notifier events = %v, want [created confirmed]", events)
	}
}

func TestCancelByPatientCarriesAttribution(t *testing.T) {
	svc, _, n := newTestService()
	ctx := context.Background()

	a := sampleAppointment()
	if err := svc.CreateAppointment(ctx, a); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Cancel(ctx, a.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %q, want cancelled", got.Status)
	}

	last := n.calls[len(n.calls)-1]
	if last.event != "cancelled" || !last.byPatient {
		t.Errorf("last call = %+v, want cancelled by patient", last)
	}
}

func TestCancelByStaffCarriesAttribution(t *testing.T) {
	svc, _, n := newTestService()
	ctx := context.Background()

	a := sampleAppointment()
	if err := svc.CreateAppointment(ctx, a); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Cancel(ctx, a.ID, false); err != nil {
		t.Fatal(err)
	}
	last := n.calls[len(n.calls)-1]
	if last.event != "cancelled" || last.byPatient {
		t.Errorf("last call = %+v, want cancelled by staff", last)
	}
}

func TestCancelledAppointmentKeepsRow(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	a := sampleAppointment()
	if err := svc.CreateAppointment(ctx, a); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Cancel(ctx, a.ID, true); err != nil {
		t.Fatal(err)
	}
	if _, ok := repo.appts[a.ID]; !ok {
		t.Error("cancellation must be a status change, not a deletion")
	}
}

func TestCancelledSlotStaysUnique(t *testing.T) {
	// Uniqueness over (doctor, date, time) holds regardless of status.
	svc, _, _ := newTestService()
	ctx := context.Background()

	first := sampleAppointment()
	if err := svc.CreateAppointment(ctx, first); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Cancel(ctx, first.ID, true); err != nil {
		t.Fatal(err)
	}

	second := sampleAppointment()
	second.DoctorID = first.DoctorID
	second.Date = first.Date
	second.Time = first.Time
	if err := svc.CreateAppointment(ctx, second); !errors.Is(err, ErrSlotTaken) {
		t.Errorf("err = %v, want ErrSlotTaken even against a cancelled booking", err)
	}
}

func TestRemindUpcomingSendsForTomorrow(t *testing.T) {
	svc, repo, n := newTestService()
	ctx := context.Background()

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour)
	later := tomorrow.AddDate(0, 0, 5)

	due := sampleAppointment()
	due.Date = tomorrow
	if err := svc.CreateAppointment(ctx, due); err != nil {
		t.Fatal(err)
	}
	cancelledTomorrow := sampleAppointment()
	cancelledTomorrow.Date = tomorrow
	cancelledTomorrow.Time = "11:00"
	if err := svc.CreateAppointment(ctx, cancelledTomorrow); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Cancel(ctx, cancelledTomorrow.ID, false); err != nil {
		t.Fatal(err)
	}
	farOff := sampleAppointment()
	farOff.Date = later
	if err := svc.CreateAppointment(ctx, farOff); err != nil {
		t.Fatal(err)
	}

	sent, err := svc.RemindUpcoming(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sent != 1 {
		t.Errorf("reminders = %d, want 1 (only tomorrow's live booking)", sent)
	}
	last := n.calls[len(n.calls)-1]
	if last.event != "reminder" || last.apptID != due.ID {
		t.Errorf("last call = %+v, want reminder for %s", last, due.ID)
	}
	_ = repo
}

func TestCreateSlotValidates(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	doctorID := uuid.New()

	tests := []struct {
		name    string
		slot    WeeklySlot
		wantErr bool
	}{
		{"valid", WeeklySlot{DoctorID: doctorID, Weekday: 1, StartTime: "08:00", EndTime: "12:00"}, false},
		{"bad weekday", WeeklySlot{DoctorID: doctorID, Weekday: 7, StartTime: "08:00", EndTime: "12:00"}, true},
		{"reversed range", WeeklySlot{DoctorID: doctorID, Weekday: 2, StartTime: "12:00", EndTime: "08:00"}, true},
		{"empty range", WeeklySlot{DoctorID: doctorID, Weekday: 2, StartTime: "08:00", EndTime: "08:00"}, true},
		{"bad clock", WeeklySlot{DoctorID: doctorID, Weekday: 2, StartTime: "8am", EndTime: "12:00"}, true},
		{"missing doctor", WeeklySlot{Weekday: 2, StartTime: "08:00", EndTime: "12:00"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := tt.slot
			err := svc.CreateSlot(ctx, &slot)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateSlotRejectsDuplicate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	doctorID := uuid.New()

	w := WeeklySlot{DoctorID: doctorID, Weekday: 1, StartTime: "08:00", EndTime: "12:00"}
	if err := svc.CreateSlot(ctx, &w); err != nil {
		t.Fatal(err)
	}
	dup := WeeklySlot{DoctorID: doctorID, Weekday: 1, StartTime: "08:00", EndTime: "12:00"}
	if err := svc.CreateSlot(ctx, &dup); !errors.Is(err, ErrSlotOverlap) {
		t.Errorf("err = %v, want ErrSlotOverlap", err)
	}
}
