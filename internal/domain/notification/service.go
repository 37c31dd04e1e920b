package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/scheduling"
	"github.com/clinic/clinic/internal/platform/notify"
)

// Party is an appointment participant resolved to its account and contact
// details.
type Party struct {
	AccountID uuid.UUID
	Name      string
	Email     string
	Phone     string
}

// PartyResolver resolves appointment profile references to parties.
// Implemented over the identity and account services, wired in main.
type PartyResolver interface {
	PatientParty(ctx context.Context, patientProfileID uuid.UUID) (Party, error)
	DoctorParty(ctx context.Context, practitionerProfileID uuid.UUID) (Party, error)
}

type Service struct {
	repo       Repository
	parties    PartyResolver
	templates  *notify.TemplateEngine
	dispatcher *notify.Dispatcher
	logger     zerolog.Logger
}

func NewService(repo Repository, parties PartyResolver, templates *notify.TemplateEngine, dispatcher *notify.Dispatcher, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		parties:    parties,
		templates:  templates,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// -- Account-scoped access --

func (s *Service) List(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	return s.repo.ListByAccount(ctx, accountID, limit, offset)
}

func (s *Service) ListUnread(ctx context.Context, accountID uuid.UUID) ([]*Notification, error) {
	return s.repo.ListUnread(ctx, accountID)
}

// ListRecent returns the account's ten most recent notifications.
func (s *Service) ListRecent(ctx context.Context, accountID uuid.UUID) ([]*Notification, error) {
	return s.repo.ListRecent(ctx, accountID, 10)
}

func (s *Service) MarkRead(ctx context.Context, accountID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, accountID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, accountID uuid.UUID) (int, error) {
	return s.repo.MarkAllRead(ctx, accountID)
}

func (s *Service) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	return s.repo.Delete(ctx, accountID, id)
}

// -- Appointment lifecycle events (scheduling.Notifier) --

func (s *Service) AppointmentCreated(ctx context.Context, a *scheduling.Appointment) {
	patient, doctor, ok := s.resolveParties(ctx, a)
	if !ok {
		return
	}
	s.deliver(ctx, patient, TypeAppointmentCreated, a, messageData(patient, doctor, a))
}

func (s *Service) AppointmentConfirmed(ctx context.Context, a *scheduling.Appointment) {
	patient, doctor, ok := s.resolveParties(ctx, a)
	if !ok {
		return
	}
	s.deliver(ctx, patient, TypeAppointmentConfirmed, a, messageData(patient, doctor, a))
	s.deliver(ctx, doctor, TypeAppointmentConfirmed, a, messageData(doctor, doctor, a))
}

func (s *Service) AppointmentCancelled(ctx context.Context, a *scheduling.Appointment, byPatient bool) {
	patient, doctor, ok := s.resolveParties(ctx, a)
	if !ok {
		return
	}
	if byPatient {
		s.deliver(ctx, doctor, TypeAppointmentCancelled, a, messageData(doctor, doctor, a))
	} else {
		s.deliver(ctx, patient, TypeAppointmentCancelled, a, messageData(patient, doctor, a))
	}
}

func (s *Service) AppointmentReminder(ctx context.Context, a *scheduling.Appointment) {
	patient, doctor, ok := s.resolveParties(ctx, a)
	if !ok {
		return
	}
	s.deliver(ctx, patient, TypeAppointmentReminder, a, messageData(patient, doctor, a))
	s.deliver(ctx, doctor, TypeAppointmentReminder, a, messageData(doctor, doctor, a))
}

func (s *Service) resolveParties(ctx context.Context, a *scheduling.Appointment) (patient, doctor Party, ok bool) {
	patient, err := s.parties.PatientParty(ctx, a.PatientID)
	if err != nil {
		s.logger.Error().Err(err).Str("appointment_id", a.ID.String()).Msg("resolve patient party")
		return Party{}, Party{}, false
	}
	doctor, err = s.parties.DoctorParty(ctx, a.DoctorID)
	if err != nil {
		s.logger.Error().Err(err).Str("appointment_id", a.ID.String()).Msg("resolve doctor party")
		return Party{}, Party{}, false
	}
	return patient, doctor, true
}

func messageData(recipient, doctor Party, a *scheduling.Appointment) map[string]string {
	return map[string]string{
		"name":   recipient.Name,
		"doctor": doctor.Name,
		"date":   a.Date.Format("2006-01-02"),
		"time":   a.Time,
	}
}

// deliver records the notification, then attempts external dispatch. Dispatch
// failure is recorded on the row and never surfaces to the caller.
func (s *Service) deliver(ctx context.Context, to Party, typ string, a *scheduling.Appointment, data map[string]string) {
	title, body, err := s.templates.Render(typ, data)
	if err != nil {
		s.logger.Error().Err(err).Str("type", typ).Msg("render notification")
		return
	}

	apptID := a.ID
	n := &Notification{
		AccountID:   to.AccountID,
		Type:        typ,
		Title:       title,
		Body:        body,
		Delivery:    DeliveryPending,
		RelatedKind: RelatedAppointment,
		RelatedID:   &apptID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error().Err(err).Str("type", typ).Msg("store notification")
		return
	}

	recipient := notify.Recipient{Name: to.Name, Email: to.Email, Phone: to.Phone}
	results, err := s.dispatcher.Dispatch(ctx, recipient, typ, data)
	// A channel can fail while the dispatch as a whole succeeds; keep a trace
	// of every failed leg either way.
	for _, res := range results {
		if res.Err != nil {
			s.logger.Warn().Err(res.Err).
				Str("notification_id", n.ID.String()).
				Str("channel", res.Channel).
				Msg("channel delivery failed")
		}
	}
	if err != nil {
		if err := s.repo.SetDelivery(ctx, n.ID, DeliveryFailed, nil); err != nil {
			s.logger.Error().Err(err).Str("notification_id", n.ID.String()).Msg("record failed delivery")
		}
		return
	}
	now := time.Now().UTC()
	if err := s.repo.SetDelivery(ctx, n.ID, DeliverySent, &now); err != nil {
		s.logger.Error().Err(err).Str("notification_id", n.ID.String()).Msg("record sent delivery")
	}
}
