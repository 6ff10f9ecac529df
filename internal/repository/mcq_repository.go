package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirelens/hirelens/internal/model"
)

// MCQRepository handles question bank data access.
type MCQRepository struct {
	pool *pgxpool.Pool
}

// NewMCQRepository creates a new MCQRepository.
func NewMCQRepository(pool *pgxpool.Pool) *MCQRepository {
	return &MCQRepository{pool: pool}
}

// ListBySkill retrieves up to limit questions for a skill at a band.
func (r *MCQRepository) ListBySkill(ctx context.Context, skill string, band model.DifficultyBand, limit int) ([]model.MCQ, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, skill, band, question_text, options, correct_answer, source, created_at
		 FROM mcqs WHERE skill = $1 AND band = $2
		 ORDER BY random() LIMIT $3`, skill, band, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MCQ
	for rows.Next() {
		var m model.MCQ
		if err := rows.Scan(&m.ID, &m.Skill, &m.Band, &m.QuestionText, &m.Options, &m.CorrectAnswer, &m.Source, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertBatch stores generated questions and returns their assigned IDs
// in input order.
func (r *MCQRepository) InsertBatch(ctx context.Context, mcqs []model.MCQ) ([]int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]int, 0, len(mcqs))
	for _, m := range mcqs {
		var id int
		err := tx.QueryRow(ctx,
			`INSERT INTO mcqs (skill, band, question_text, options, correct_answer, source)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			m.Skill, m.Band, m.QuestionText, m.Options, m.CorrectAnswer, m.Source,
		).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetByID retrieves one question.
func (r *MCQRepository) GetByID(ctx context.Context, id int) (*model.MCQ, error) {
	m := &model.MCQ{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, skill, band, question_text, options, correct_answer, source, created_at
		 FROM mcqs WHERE id = $1`, id,
	).Scan(&m.ID, &m.Skill, &m.Band, &m.QuestionText, &m.Options, &m.CorrectAnswer, &m.Source, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListPaginated retrieves questions filtered by skill and band when
// provided, newest first.
func (r *MCQRepository) ListPaginated(ctx context.Context, skill string, band model.DifficultyBand, limit, offset int) ([]model.MCQ, int, error) {
	where := `WHERE ($1 = '' OR skill = $1) AND ($2 = '' OR band = $2)`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM mcqs `+where, skill, string(band)).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, skill, band, question_text, options, correct_answer, source, created_at
		 FROM mcqs `+where+` ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`,
		skill, string(band), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.MCQ
	for rows.Next() {
		var m model.MCQ
		if err := rows.Scan(&m.ID, &m.Skill, &m.Band, &m.QuestionText, &m.Options, &m.CorrectAnswer, &m.Source, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// Update modifies an existing question.
func (r *MCQRepository) Update(ctx context.Context, m *model.MCQ) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE mcqs SET skill = $1, band = $2, question_text = $3, options = $4, correct_answer = $5
		 WHERE id = $6`,
		m.Skill, m.Band, m.QuestionText, m.Options, m.CorrectAnswer, m.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a question from the bank.
func (r *MCQRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM mcqs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountBySkillBand returns how many questions the bank holds for each
// band of a skill.
func (r *MCQRepository) CountBySkillBand(ctx context.Context, skill string) (map[model.DifficultyBand]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT band, COUNT(*) FROM mcqs WHERE skill = $1 GROUP BY band`, skill)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.DifficultyBand]int, len(model.BandOrder))
	for rows.Next() {
		var band model.DifficultyBand
		var n int
		if err := rows.Scan(&band, &n); err != nil {
			return nil, err
		}
		counts[band] = n
	}
	return counts, rows.Err()
}
