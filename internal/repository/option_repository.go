package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/zhakasov-bm/lms-backend/internal/model"
)

const optionColumns = `id, question_id, text, is_correct, rank, created_at, updated_at`

func scanOption(row pgx.Row) (*model.Option, error) {
	o := &model.Option{}
	err := row.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect, &o.Rank, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

// ListOptionIDs returns the ids of a question's options.
func (r *pgQueries) ListOptionIDs(ctx context.Context, questionID int64) ([]int64, error) {
	return r.listIDs(ctx, `SELECT id FROM quiz_options WHERE question_id = $1 ORDER BY rank`, questionID)
}

// GetOption retrieves an option by ID.
func (r *pgQueries) GetOption(ctx context.Context, id int64) (*model.Option, error) {
	return scanOption(r.db.QueryRow(ctx,
		`SELECT `+optionColumns+` FROM quiz_options WHERE id = $1`, id))
}

// InsertOption appends an option after the current last rank of its question.
func (r *pgQueries) InsertOption(ctx context.Context, o *model.Option) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO quiz_options (question_id, text, is_correct, rank)
		 SELECT $1, $2, $3, COALESCE(MAX(rank), 0) + 1
		 FROM quiz_options WHERE question_id = $1
		 RETURNING id, rank, created_at, updated_at`,
		o.QuestionID, o.Text, o.IsCorrect,
	).Scan(&o.ID, &o.Rank, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert option: %w", err)
	}
	return nil
}

// UpdateOption applies a partial update.
func (r *pgQueries) UpdateOption(ctx context.Context, id int64, patch model.OptionPatch) (*model.Option, error) {
	return scanOption(r.db.QueryRow(ctx,
		`UPDATE quiz_options SET
			text       = COALESCE($2, text),
			is_correct = COALESCE($3, is_correct),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+optionColumns,
		id, patch.Text, patch.IsCorrect))
}

// DeleteOption removes an option.
func (r *pgQueries) DeleteOption(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quiz_options WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete option: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOptionRanks bulk-updates option ranks of one question.
func (r *pgQueries) SetOptionRanks(ctx context.Context, questionID int64, items []model.RankItem) error {
	ids, ranks := splitRanks(items)
	_, err := r.db.Exec(ctx,
		`UPDATE quiz_options AS o
		 SET rank = t.rank, updated_at = NOW()
		 FROM UNNEST($2::bigint[], $3::int[]) AS t(id, rank)
		 WHERE o.id = t.id AND o.question_id = $1`,
		questionID, ids, ranks)
	if err != nil {
		return fmt.Errorf("update option ranks: %w", err)
	}
	return nil
}

// RenumberOptions closes rank gaps left by a delete.
func (r *pgQueries) RenumberOptions(ctx context.Context, questionID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE quiz_options AS o
		 SET rank = n.new_rank
		 FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY rank, id) AS new_rank
			FROM quiz_options WHERE question_id = $1
		 ) AS n
		 WHERE o.id = n.id AND o.rank <> n.new_rank`, questionID)
	if err != nil {
		return fmt.Errorf("renumber options: %w", err)
	}
	return nil
}
