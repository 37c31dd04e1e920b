// Package scheduling implements weekly doctor schedules and appointments,
// including the one-slot-per-doctor-per-datetime conflict guard and the
// appointment status lifecycle.
package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrSlotTaken   = errors.New("the doctor already has an appointment at this date and time")
	ErrSlotOverlap = errors.New("the doctor already has this weekly slot")
)

var allStatuses = []string{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow}

// allowedTransitions is deliberately permissive: any status may move to any
// other. Kept as an explicit table so tightening the lifecycle is a data
// change, not a code change.
var allowedTransitions = map[string][]string{
	StatusPending:   allStatuses,
	StatusConfirmed: allStatuses,
	StatusCompleted: allStatuses,
	StatusCancelled: allStatuses,
	StatusNoShow:    allStatuses,
}

// ValidStatus reports whether status is a known appointment status.
func ValidStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

// CanTransition reports whether an appointment may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// WeeklySlot is a recurring availability window for a doctor. Weekday follows
// time.Weekday numbering (0 = Sunday). Times are "HH:MM" strings.
type WeeklySlot struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Weekday   int       `db:"weekday" json:"weekday"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Validate checks the slot's weekday and time range.
func (w *WeeklySlot) Validate() error {
	if w.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if w.Weekday < 0 || w.Weekday > 6 {
		return fmt.Errorf("weekday must be between 0 (Sunday) and 6 (Saturday)")
	}
	start, err := ParseClock(w.StartTime)
	if err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	end, err := ParseClock(w.EndTime)
	if err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	if !start.Before(end) {
		return fmt.Errorf("start_time must be before end_time")
	}
	return nil
}

// Appointment is a booking of a patient with a doctor at a date and time.
// The (doctor, date, time) triple is unique regardless of status.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date      time.Time `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
	Status    string    `db:"status" json:"status"`
	Reason    string    `db:"reason" json:"reason"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks the appointment's references, date and time.
func (a *Appointment) Validate() error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if a.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if _, err := ParseClock(a.Time); err != nil {
		return fmt.Errorf("time: %w", err)
	}
	if a.Status != "" && !ValidStatus(a.Status) {
		return fmt.Errorf("unknown status %q", a.Status)
	}
	return nil
}

// ParseClock parses an "HH:MM" wall-clock string.
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("must be HH:MM")
	}
	return t, nil
}
