package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	specialties   SpecialtyRepository
	practitioners PractitionerRepository
	patients      PatientRepository
}

func NewService(specialties SpecialtyRepository, practitioners PractitionerRepository, patients PatientRepository) *Service {
	return &Service{specialties: specialties, practitioners: practitioners, patients: patients}
}

// -- Specialty --

func (s *Service) CreateSpecialty(ctx context.Context, sp *Specialty) error {
	if sp.Name == "" {
		return fmt.Errorf("name is required")
	}
	if sp.Category == "" {
		sp.Category = CategoryMedical
	}
	if !ValidCategory(sp.Category) {
		return fmt.Errorf("unknown category %q", sp.Category)
	}
	sp.Active = true
	return s.specialties.Create(ctx, sp)
}

func (s *Service) GetSpecialty(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	return s.specialties.GetByID(ctx, id)
}

func (s *Service) UpdateSpecialty(ctx context.Context, sp *Specialty) error {
	if sp.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !ValidCategory(sp.Category) {
		return fmt.Errorf("unknown category %q", sp.Category)
	}
	return s.specialties.Update(ctx, sp)
}

func (s *Service) DeleteSpecialty(ctx context.Context, id uuid.UUID) error {
	return s.specialties.Delete(ctx, id)
}

func (s *Service) ListSpecialties(ctx context.Context, limit, offset int) ([]*Specialty, int, error) {
	return s.specialties.List(ctx, limit, offset)
}

func (s *Service) ListMedicalSpecialties(ctx context.Context) ([]*Specialty, error) {
	return s.specialties.ListByCategory(ctx, CategoryMedical)
}

func (s *Service) ListNursingSpecialties(ctx context.Context) ([]*Specialty, error) {
	return s.specialties.ListByCategory(ctx, CategoryNursing)
}

func (s *Service) ListActiveSpecialties(ctx context.Context) ([]*Specialty, error) {
	return s.specialties.ListActive(ctx)
}

// -- Practitioner --

// CreatePractitioner validates the profile and stores it. Doctors must carry
// a specialty, either a catalog reference or the free-text override; nurses
// may omit both.
func (s *Service) CreatePractitioner(ctx context.Context, p *Practitioner) error {
	if p.AccountID == uuid.Nil {
		return fmt.Errorf("account_id is required")
	}
	if p.Kind != KindDoctor && p.Kind != KindNurse {
		return fmt.Errorf("kind must be %q or %q", KindDoctor, KindNurse)
	}
	if p.Kind == KindDoctor && p.SpecialtyID == nil && p.SpecialtyOther == "" {
		return fmt.Errorf("a doctor profile requires a specialty or a specialty description")
	}
	if p.SpecialtyID != nil {
		if _, err := s.specialties.GetByID(ctx, *p.SpecialtyID); err != nil {
			return fmt.Errorf("specialty: %w", err)
		}
	}
	p.Active = true
	return s.practitioners.Create(ctx, p)
}

func (s *Service) GetPractitioner(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	return s.practitioners.GetByID(ctx, id)
}

func (s *Service) GetPractitionerByAccount(ctx context.Context, accountID uuid.UUID) (*Practitioner, error) {
	return s.practitioners.GetByAccount(ctx, accountID)
}

func (s *Service) UpdatePractitioner(ctx context.Context, p *Practitioner) error {
	if p.Kind == KindDoctor && p.SpecialtyID == nil && p.SpecialtyOther == "" {
		return fmt.Errorf("a doctor profile requires a specialty or a specialty description")
	}
	return s.practitioners.Update(ctx, p)
}

func (s *Service) DeletePractitioner(ctx context.Context, id uuid.UUID) error {
	return s.practitioners.Delete(ctx, id)
}

func (s *Service) ListPractitioners(ctx context.Context, kind string, limit, offset int) ([]*Practitioner, int, error) {
	if kind != "" && kind != KindDoctor && kind != KindNurse {
		return nil, 0, fmt.Errorf("unknown practitioner kind %q", kind)
	}
	return s.practitioners.List(ctx, kind, limit, offset)
}

func (s *Service) ListPublicDoctors(ctx context.Context) ([]*DoctorSummary, error) {
	return s.practitioners.ListPublicDoctors(ctx)
}

// -- Patient --

// CreatePatientProfile creates an empty patient profile for the account.
// Registration calls this through the account service; an already existing
// profile is not an error.
func (s *Service) CreatePatientProfile(ctx context.Context, accountID uuid.UUID) error {
	err := s.patients.Create(ctx, &Patient{AccountID: accountID})
	if errors.Is(err, ErrProfileExists) {
		return nil
	}
	return err
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByAccount(ctx context.Context, accountID uuid.UUID) (*Patient, error) {
	return s.patients.GetByAccount(ctx, accountID)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}
