package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/hirelens/internal/model"
)

var ErrDuplicateEmail = errors.New("account with this email already exists")

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CandidateRepository handles candidate data access.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

// GetByID retrieves a candidate by ID.
func (r *CandidateRepository) GetByID(ctx context.Context, id int) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, full_name, password_hash, experience_years, created_at, updated_at
		 FROM candidates WHERE id = $1`, id,
	).Scan(&c.ID, &c.Email, &c.FullName, &c.PasswordHash, &c.ExperienceYears, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByEmail retrieves a candidate by their unique email.
func (r *CandidateRepository) GetByEmail(ctx context.Context, email string) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, full_name, password_hash, experience_years, created_at, updated_at
		 FROM candidates WHERE email = $1`, email,
	).Scan(&c.ID, &c.Email, &c.FullName, &c.PasswordHash, &c.ExperienceYears, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new candidate and returns its ID.
func (r *CandidateRepository) Create(ctx context.Context, c *model.Candidate) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO candidates (email, full_name, password_hash, experience_years)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		c.Email, c.FullName, c.PasswordHash, c.ExperienceYears,
	).Scan(&id)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, err
	}
	return id, nil
}

// GetSkills retrieves a candidate's self-declared skills.
func (r *CandidateRepository) GetSkills(ctx context.Context, candidateID int) ([]model.CandidateSkill, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT candidate_id, skill_name, proficiency
		 FROM candidate_skills WHERE candidate_id = $1 ORDER BY skill_name`, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []model.CandidateSkill
	for rows.Next() {
		var s model.CandidateSkill
		if err := rows.Scan(&s.CandidateID, &s.SkillName, &s.Proficiency); err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

// ReplaceSkills overwrites a candidate's skill ratings in one transaction.
func (r *CandidateRepository) ReplaceSkills(ctx context.Context, candidateID int, skills []model.CandidateSkill) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM candidate_skills WHERE candidate_id = $1`, candidateID); err != nil {
		return err
	}
	for _, s := range skills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO candidate_skills (candidate_id, skill_name, proficiency) VALUES ($1, $2, $3)`,
			candidateID, s.SkillName, s.Proficiency); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// IsNotFound reports whether err is a no-rows lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// ListPaginated retrieves candidates newest first with a total count.
func (r *CandidateRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Candidate, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, email, full_name, password_hash, experience_years, created_at, updated_at
		 FROM candidates ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Candidate
	for rows.Next() {
		var c model.Candidate
		if err := rows.Scan(&c.ID, &c.Email, &c.FullName, &c.PasswordHash, &c.ExperienceYears, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Update modifies a candidate's profile fields.
func (r *CandidateRepository) Update(ctx context.Context, c *model.Candidate) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE candidates SET email = $1, full_name = $2, experience_years = $3, updated_at = NOW()
		 WHERE id = $4`,
		c.Email, c.FullName, c.ExperienceYears, c.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdatePassword replaces a candidate's password hash.
func (r *CandidateRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE candidates SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	return err
}

// Delete removes a candidate. Skills and attempts cascade.
func (r *CandidateRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
