// Package notification implements per-account notification records and their
// fire-and-forget dispatch to external channels.
package notification

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Notification types. These double as the outbound template IDs.
const (
	TypeAppointmentCreated   = "appointment-created"
	TypeAppointmentConfirmed = "appointment-confirmed"
	TypeAppointmentCancelled = "appointment-cancelled"
	TypeAppointmentReminder  = "appointment-reminder"
)

// Delivery states.
const (
	DeliveryPending = "pending"
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
)

// Related entity kinds. A (kind, id) pair replaces a polymorphic reference;
// consumers switch on the kind.
const (
	RelatedAppointment = "appointment"
)

var ErrNotFound = errors.New("notification not found")

// Notification is a message addressed to exactly one account. Every read and
// mutation is scoped by that account; no operation crosses owners.
type Notification struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	AccountID   uuid.UUID  `db:"account_id" json:"account_id"`
	Type        string     `db:"type" json:"type"`
	Title       string     `db:"title" json:"title"`
	Body        string     `db:"body" json:"body"`
	Read        bool       `db:"read" json:"read"`
	Delivery    string     `db:"delivery" json:"delivery"`
	RelatedKind string     `db:"related_kind" json:"related_kind,omitempty"`
	RelatedID   *uuid.UUID `db:"related_id" json:"related_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	SentAt      *time.Time `db:"sent_at" json:"sent_at,omitempty"`
}
