package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/converter-service/internal/domain"
)

// LicenseRepository defines persistence access for verified licenses.
type LicenseRepository interface {
	Create(ctx context.Context, license *domain.License) error
	Update(ctx context.Context, license *domain.License) error
	GetByProviderLicenseID(ctx context.Context, providerLicenseID string) (*domain.License, error)
	GetActiveByEmail(ctx context.Context, email string) ([]*domain.License, error)
	ListByStatus(ctx context.Context, status domain.LicenseStatus, limit, offset int) ([]*domain.License, error)
}

type licenseRepository struct {
	pool *pgxpool.Pool
}

// NewLicenseRepository returns a Postgres-backed implementation.
func NewLicenseRepository(pool *pgxpool.Pool) LicenseRepository {
	return &licenseRepository{pool: pool}
}

func (r *licenseRepository) Create(ctx context.Context, license *domain.License) error {
	const query = `
        INSERT INTO licenses (user_email, provider_license_id, key_hash, key_last4, plan, status, provider, current_period_end, last_verified_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		license.UserEmail,
		license.ProviderLicenseID,
		license.KeyHash,
		license.KeyLast4,
		license.Plan,
		license.Status,
		license.Provider,
		license.CurrentPeriodEnd,
		license.LastVerifiedAt,
	).Scan(&license.ID, &license.CreatedAt, &license.UpdatedAt)
}

func (r *licenseRepository) Update(ctx context.Context, license *domain.License) error {
	const query = `
        UPDATE licenses SET user_email=$1, plan=$2, status=$3, current_period_end=$4, last_verified_at=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		license.UserEmail,
		license.Plan,
		license.Status,
		license.CurrentPeriodEnd,
		license.LastVerifiedAt,
		license.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *licenseRepository) GetByProviderLicenseID(ctx context.Context, providerLicenseID string) (*domain.License, error) {
	const query = `
        SELECT id, user_email, provider_license_id, key_hash, key_last4, plan, status, provider, current_period_end, last_verified_at, created_at, updated_at
        FROM licenses WHERE provider_license_id=$1`

	var license domain.License
	if err := r.pool.QueryRow(ctx, query, providerLicenseID).Scan(
		&license.ID,
		&license.UserEmail,
		&license.ProviderLicenseID,
		&license.KeyHash,
		&license.KeyLast4,
		&license.Plan,
		&license.Status,
		&license.Provider,
		&license.CurrentPeriodEnd,
		&license.LastVerifiedAt,
		&license.CreatedAt,
		&license.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &license, nil
}

func (r *licenseRepository) GetActiveByEmail(ctx context.Context, email string) ([]*domain.License, error) {
	const query = `
        SELECT id, user_email, provider_license_id, key_hash, key_last4, plan, status, provider, current_period_end, last_verified_at, created_at, updated_at
        FROM licenses WHERE user_email=$1 AND status=$2
        ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, email, domain.LicenseStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLicenses(rows)
}

func (r *licenseRepository) ListByStatus(ctx context.Context, status domain.LicenseStatus, limit, offset int) ([]*domain.License, error) {
	const query = `
        SELECT id, user_email, provider_license_id, key_hash, key_last4, plan, status, provider, current_period_end, last_verified_at, created_at, updated_at
        FROM licenses WHERE status=$1
        ORDER BY created_at ASC
        LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLicenses(rows)
}

func scanLicenses(rows pgx.Rows) ([]*domain.License, error) {
	licenses := make([]*domain.License, 0)
	for rows.Next() {
		var license domain.License
		if err := rows.Scan(
			&license.ID,
			&license.UserEmail,
			&license.ProviderLicenseID,
			&license.KeyHash,
			&license.KeyLast4,
			&license.Plan,
			&license.Status,
			&license.Provider,
			&license.CurrentPeriodEnd,
			&license.LastVerifiedAt,
			&license.CreatedAt,
			&license.UpdatedAt,
		); err != nil {
			return nil, err
		}
		licenses = append(licenses, &license)
	}
	return licenses, rows.Err()
}
