package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

// -- Specialty --

type specialtyRepoPG struct {
	pool *pgxpool.Pool
}

func NewSpecialtyRepo(pool *pgxpool.Pool) SpecialtyRepository {
	return &specialtyRepoPG{pool: pool}
}

func (r *specialtyRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const specialtyCols = `id, name, description, category, active, created_at`

func (r *specialtyRepoPG) Create(ctx context.Context, s *Specialty) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO specialty (id, name, description, category, active)
		VALUES ($1,$2,$3,$4,$5)`,
		s.ID, s.Name, s.Description, s.Category, s.Active,
	)
	if uniqueViolation(err) {
		return ErrSpecialtyTaken
	}
	return err
}

func (r *specialtyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	var s Specialty
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+specialtyCols+` FROM specialty WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Description, &s.Category, &s.Active, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *specialtyRepoPG) Update(ctx context.Context, s *Specialty) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE specialty SET name=$2, description=$3, category=$4, active=$5
		WHERE id = $1`,
		s.ID, s.Name, s.Description, s.Category, s.Active,
	)
	if uniqueViolation(err) {
		return ErrSpecialtyTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *specialtyRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM specialty WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *specialtyRepoPG) List(ctx context.Context, limit, offset int) ([]*Specialty, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM specialty`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+specialtyCols+` FROM specialty ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	list, err := collectSpecialties(rows)
	return list, total, err
}

func (r *specialtyRepoPG) ListByCategory(ctx context.Context, category string) ([]*Specialty, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+specialtyCols+` FROM specialty
		 WHERE active AND (category = $1 OR category = $2) ORDER BY name`,
		category, CategoryBoth)
	if err != nil {
		return nil, err
	}
	return collectSpecialties(rows)
}

func (r *specialtyRepoPG) ListActive(ctx context.Context) ([]*Specialty, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+specialtyCols+` FROM specialty WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectSpecialties(rows)
}

func collectSpecialties(rows pgx.Rows) ([]*Specialty, error) {
	defer rows.Close()
	var list []*Specialty
	for rows.Next() {
		var s Specialty
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Category, &s.Active, &s.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// -- Practitioner --

type practitionerRepoPG struct {
	pool *pgxpool.Pool
}

func NewPractitionerRepo(pool *pgxpool.Pool) PractitionerRepository {
	return &practitionerRepoPG{pool: pool}
}

func (r *practitionerRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const practitionerCols = `id, account_id, kind, specialty_id, specialty_other,
	license_number, bio, active, created_at, updated_at`

func (r *practitionerRepoPG) Create(ctx context.Context, p *Practitioner) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO practitioner (id, account_id, kind, specialty_id, specialty_other, license_number, bio, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.AccountID, p.Kind, p.SpecialtyID, p.SpecialtyOther, p.LicenseNumber, p.Bio, p.Active,
	)
	if uniqueViolation(err) {
		return ErrProfileExists
	}
	return err
}

func (r *practitionerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	return scanPractitioner(r.conn(ctx).QueryRow(ctx,
		`SELECT `+practitionerCols+` FROM practitioner WHERE id = $1`, id))
}

func (r *practitionerRepoPG) GetByAccount(ctx context.Context, accountID uuid.UUID) (*Practitioner, error) {
	return scanPractitioner(r.conn(ctx).QueryRow(ctx,
		`SELECT `+practitionerCols+` FROM practitioner WHERE account_id = $1`, accountID))
}

func (r *practitionerRepoPG) Update(ctx context.Context, p *Practitioner) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE practitioner SET
			kind=$2, specialty_id=$3, specialty_other=$4, license_number=$5,
			bio=$6, active=$7, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Kind, p.SpecialtyID, p.SpecialtyOther, p.LicenseNumber, p.Bio, p.Active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *practitionerRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM practitioner WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *practitionerRepoPG) List(ctx context.Context, kind string, limit, offset int) ([]*Practitioner, int, error) {
	where := ``
	args := []interface{}{}
	if kind != "" {
		where = `WHERE kind = $3`
		args = append(args, kind)
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM practitioner`
	if kind != "" {
		countSQL += ` WHERE kind = $1`
		if err := r.conn(ctx).QueryRow(ctx, countSQL, kind).Scan(&total); err != nil {
			return nil, 0, err
		}
	} else {
		if err := r.conn(ctx).QueryRow(ctx, countSQL).Scan(&total); err != nil {
			return nil, 0, err
		}
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+practitionerCols+` FROM practitioner `+where+` ORDER BY created_at LIMIT $1 OFFSET $2`,
		append([]interface{}{limit, offset}, args...)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []*Practitioner
	for rows.Next() {
		var p Practitioner
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Kind, &p.SpecialtyID, &p.SpecialtyOther,
			&p.LicenseNumber, &p.Bio, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, &p)
	}
	return list, total, rows.Err()
}

func (r *practitionerRepoPG) ListPublicDoctors(ctx context.Context) ([]*DoctorSummary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, a.first_name, a.last_name, COALESCE(s.name, p.specialty_other)
		FROM practitioner p
		JOIN account a ON a.id = p.account_id
		LEFT JOIN specialty s ON s.id = p.specialty_id
		WHERE p.kind = $1 AND p.active AND a.active
		ORDER BY a.last_name, a.first_name`, KindDoctor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*DoctorSummary
	for rows.Next() {
		var d DoctorSummary
		if err := rows.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Specialty); err != nil {
			return nil, err
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}

func scanPractitioner(row pgx.Row) (*Practitioner, error) {
	var p Practitioner
	err := row.Scan(&p.ID, &p.AccountID, &p.Kind, &p.SpecialtyID, &p.SpecialtyOther,
		&p.LicenseNumber, &p.Bio, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// -- Patient --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const patientCols = `id, account_id, birth_date, blood_type, allergies,
	emergency_contact_name, emergency_contact_phone, created_at, updated_at`

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, account_id, birth_date, blood_type, allergies, emergency_contact_name, emergency_contact_phone)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.AccountID, p.BirthDate, p.BloodType, p.Allergies, p.EmergencyContactName, p.EmergencyContactPhone,
	)
	if uniqueViolation(err) {
		return ErrProfileExists
	}
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByAccount(ctx context.Context, accountID uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE account_id = $1`, accountID))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET
			birth_date=$2, blood_type=$3, allergies=$4,
			emergency_contact_name=$5, emergency_contact_phone=$6, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.BirthDate, p.BloodType, p.Allergies, p.EmergencyContactName, p.EmergencyContactPhone,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.AccountID, &p.BirthDate, &p.BloodType, &p.Allergies,
			&p.EmergencyContactName, &p.EmergencyContactPhone, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, &p)
	}
	return list, total, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.AccountID, &p.BirthDate, &p.BloodType, &p.Allergies,
		&p.EmergencyContactName, &p.EmergencyContactPhone, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
