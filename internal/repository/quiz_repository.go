package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/zhakasov-bm/lms-backend/internal/model"
)

const quizColumns = `id, module_id, title, is_published, time_limit_sec, attempt_limit, passing_score, created_at, updated_at`

func scanQuiz(row pgx.Row) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := row.Scan(&q.ID, &q.ModuleID, &q.Title, &q.IsPublished,
		&q.TimeLimitSec, &q.AttemptLimit, &q.PassingScore, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return q, nil
}

// GetQuiz retrieves a quiz by ID.
func (r *pgQueries) GetQuiz(ctx context.Context, id int64) (*model.Quiz, error) {
	return scanQuiz(r.db.QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id))
}

// LockQuiz retrieves a quiz and locks its row for the rest of the transaction.
func (r *pgQueries) LockQuiz(ctx context.Context, id int64) (*model.Quiz, error) {
	return scanQuiz(r.db.QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE id = $1 FOR UPDATE`, id))
}

// GetQuizByModule retrieves the quiz attached to a module.
func (r *pgQueries) GetQuizByModule(ctx context.Context, moduleID int64) (*model.Quiz, error) {
	return scanQuiz(r.db.QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE module_id = $1`, moduleID))
}

// InsertQuizOrFetch inserts the module's quiz; when another request created
// it first, the existing row is returned instead.
func (r *pgQueries) InsertQuizOrFetch(ctx context.Context, moduleID int64, title string) (*model.Quiz, error) {
	q, err := scanQuiz(r.db.QueryRow(ctx,
		`INSERT INTO quizzes (module_id, title)
		 VALUES ($1, $2)
		 ON CONFLICT (module_id) DO NOTHING
		 RETURNING `+quizColumns, moduleID, title))
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("insert quiz: %w", err)
	}
	return r.GetQuizByModule(ctx, moduleID)
}

// UpdateQuiz applies a partial settings update.
func (r *pgQueries) UpdateQuiz(ctx context.Context, id int64, patch model.QuizPatch) (*model.Quiz, error) {
	return scanQuiz(r.db.QueryRow(ctx,
		`UPDATE quizzes SET
			title          = COALESCE($2, title),
			time_limit_sec = COALESCE($3, time_limit_sec),
			attempt_limit  = COALESCE($4, attempt_limit),
			passing_score  = COALESCE($5, passing_score),
			updated_at     = NOW()
		 WHERE id = $1
		 RETURNING `+quizColumns,
		id, patch.Title, patch.TimeLimitSec, patch.AttemptLimit, patch.PassingScore))
}

// SetQuizPublished updates the publication flag.
func (r *pgQueries) SetQuizPublished(ctx context.Context, id int64, published bool) (*model.Quiz, error) {
	return scanQuiz(r.db.QueryRow(ctx,
		`UPDATE quizzes SET is_published = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+quizColumns, id, published))
}
