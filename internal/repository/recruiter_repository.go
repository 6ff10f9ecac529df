package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/hirelens/internal/model"
)

// RecruiterRepository handles recruiter data access.
type RecruiterRepository struct {
	pool *pgxpool.Pool
}

// NewRecruiterRepository creates a new RecruiterRepository.
func NewRecruiterRepository(pool *pgxpool.Pool) *RecruiterRepository {
	return &RecruiterRepository{pool: pool}
}

// GetByID retrieves a recruiter by ID.
func (r *RecruiterRepository) GetByID(ctx context.Context, id int) (*model.Recruiter, error) {
	rec := &model.Recruiter{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, full_name, password_hash, created_at, updated_at
		 FROM recruiters WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.Email, &rec.FullName, &rec.PasswordHash, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByEmail retrieves a recruiter by their unique email.
func (r *RecruiterRepository) GetByEmail(ctx context.Context, email string) (*model.Recruiter, error) {
	rec := &model.Recruiter{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, full_name, password_hash, created_at, updated_at
		 FROM recruiters WHERE email = $1`, email,
	).Scan(&rec.ID, &rec.Email, &rec.FullName, &rec.PasswordHash, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Create inserts a new recruiter and returns its ID.
func (r *RecruiterRepository) Create(ctx context.Context, rec *model.Recruiter) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO recruiters (email, full_name, password_hash)
		 VALUES ($1, $2, $3) RETURNING id`,
		rec.Email, rec.FullName, rec.PasswordHash,
	).Scan(&id)
	return id, err
}
