package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SlotRepository interface {
	Create(ctx context.Context, w *WeeklySlot) error
	GetByID(ctx context.Context, id uuid.UUID) (*WeeklySlot, error)
	Update(ctx context.Context, w *WeeklySlot) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*WeeklySlot, error)
}

// AppointmentFilter narrows appointment listings. Zero values mean no filter.
type AppointmentFilter struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    string
	Date      *time.Time
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error)

	// ExistsAt reports whether the doctor already holds an appointment at the
	// date and time, skipping the row identified by excludeID. Advisory only;
	// the storage unique constraint is the source of truth.
	ExistsAt(ctx context.Context, doctorID uuid.UUID, date time.Time, clock string, excludeID uuid.UUID) (bool, error)

	// ListForReminder returns pending and confirmed appointments on the date.
	ListForReminder(ctx context.Context, date time.Time) ([]*Appointment, error)
}
