package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ProfileCreator creates the profile record that accompanies a new account.
// Implemented by the identity service and wired in main.
type ProfileCreator interface {
	CreatePatientProfile(ctx context.Context, accountID uuid.UUID) error
}

// TxRunner executes fn within a database transaction. The default runner
// executes fn directly.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo     Repository
	profiles ProfileCreator
	runTx    TxRunner
}

// NewService constructs the account service. profiles may be nil, in which
// case patient registration creates no profile.
func NewService(repo Repository, profiles ProfileCreator) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		},
	}
}

// WithTxRunner makes registration run its account and profile writes inside
// a single transaction.
func (s *Service) WithTxRunner(run TxRunner) *Service {
	s.runTx = run
	return s
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Handle    string `json:"handle"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Superuser bool   `json:"superuser"`
}

// UpdateInput carries mutable account fields. Nil pointers leave the flag
// unchanged; empty strings leave the text field unchanged.
type UpdateInput struct {
	Handle    string `json:"handle"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Superuser *bool  `json:"superuser"`
	Active    *bool  `json:"active"`
}

// Register creates an account, hashes the credential, creates the patient
// profile for patient accounts, and re-checks the fallback admin invariant.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	if in.Handle == "" {
		return nil, fmt.Errorf("handle is required")
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if in.Role == "" {
		in.Role = RolePatient
	}
	if !ValidRole(in.Role) {
		return nil, fmt.Errorf("unknown role %q", in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a := &Account{
		Handle:       in.Handle,
		PasswordHash: string(hash),
		Role:         in.Role,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Phone:        in.Phone,
		Superuser:    in.Superuser,
		Active:       true,
	}
	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}
		if a.Role == RolePatient && s.profiles != nil {
			if err := s.profiles.CreatePatientProfile(ctx, a.ID); err != nil {
				return fmt.Errorf("create patient profile: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.afterSave(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByHandle(ctx context.Context, handle string) (*Account, error) {
	return s.repo.GetByHandle(ctx, handle)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Account, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Update applies the given fields and re-checks the fallback admin invariant.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Account, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Handle != "" {
		a.Handle = in.Handle
	}
	if in.Role != "" {
		if !ValidRole(in.Role) {
			return nil, fmt.Errorf("unknown role %q", in.Role)
		}
		a.Role = in.Role
	}
	if in.FirstName != "" {
		a.FirstName = in.FirstName
	}
	if in.LastName != "" {
		a.LastName = in.LastName
	}
	if in.Email != "" {
		a.Email = in.Email
	}
	if in.Phone != "" {
		a.Phone = in.Phone
	}
	if in.Superuser != nil {
		a.Superuser = *in.Superuser
	}
	if in.Active != nil {
		a.Active = *in.Active
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	if err := s.afterSave(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes the account and re-checks the fallback admin invariant.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.EnsureFallbackAdmin(ctx)
}

// ChangePassword verifies the current credential and sets a new one.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	if len(next) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(current)) != nil {
		return ErrBadPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a.PasswordHash = string(hash)
	return s.repo.Update(ctx, a)
}

// afterSave runs the invariant steps that follow any account save: a newly
// privileged non-fallback account evicts the fallback, then the ensure check
// runs.
func (s *Service) afterSave(ctx context.Context, saved *Account) error {
	if saved.Superuser && !saved.IsFallback() {
		if err := s.repo.DeleteByHandle(ctx, FallbackAdminHandle, saved.ID); err != nil {
			return err
		}
	}
	return s.EnsureFallbackAdmin(ctx)
}

// EnsureFallbackAdmin enforces the fallback admin invariant: the generic
// admin account exists if and only if no other privileged account exists.
// Called synchronously after every account mutation; also called best-effort
// at startup, where the caller swallows the error.
func (s *Service) EnsureFallbackAdmin(ctx context.Context) error {
	others, err := s.repo.CountPrivileged(ctx, FallbackAdminHandle)
	if err != nil {
		return fmt.Errorf("count privileged accounts: %w", err)
	}

	if others > 0 {
		return s.repo.DeleteByHandle(ctx, FallbackAdminHandle, uuid.Nil)
	}

	existing, err := s.repo.GetByHandle(ctx, FallbackAdminHandle)
	if err == nil {
		// Present but possibly demoted. Mark it privileged again; the
		// credential is never touched after creation.
		if !existing.Superuser || existing.Role != RoleAdmin {
			existing.Superuser = true
			existing.Role = RoleAdmin
			return s.repo.Update(ctx, existing)
		}
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(FallbackAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash fallback password: %w", err)
	}
	a := &Account{
		Handle:       FallbackAdminHandle,
		PasswordHash: string(hash),
		Role:         RoleAdmin,
		Superuser:    true,
		Active:       true,
	}
	err = s.repo.Create(ctx, a)
	if errors.Is(err, ErrHandleTaken) {
		// Lost a creation race; the winner satisfied the invariant.
		return nil
	}
	return err
}
