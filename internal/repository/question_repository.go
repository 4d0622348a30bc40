package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/zhakasov-bm/lms-backend/internal/model"
)

const questionColumns = `id, quiz_id, type, text, points, rank, created_at, updated_at`

func scanQuestion(row pgx.Row) (*model.Question, error) {
	q := &model.Question{}
	err := row.Scan(&q.ID, &q.QuizID, &q.Type, &q.Text, &q.Points, &q.Rank, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return q, nil
}

// ListQuestions returns a quiz's questions in rank order with their options attached.
func (r *pgQueries) ListQuestions(ctx context.Context, quizID int64) ([]model.Question, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+questionColumns+` FROM quiz_questions WHERE quiz_id = $1 ORDER BY rank`, quizID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	index := make(map[int64]int)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		index[q.ID] = len(questions)
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return questions, nil
	}

	ids := make([]int64, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	optRows, err := r.db.Query(ctx,
		`SELECT `+optionColumns+` FROM quiz_options
		 WHERE question_id = ANY($1)
		 ORDER BY question_id, rank`, ids)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		o, err := scanOption(optRows)
		if err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		i := index[o.QuestionID]
		questions[i].Options = append(questions[i].Options, *o)
	}
	return questions, optRows.Err()
}

// ListQuestionIDs returns the ids of a quiz's questions.
func (r *pgQueries) ListQuestionIDs(ctx context.Context, quizID int64) ([]int64, error) {
	return r.listIDs(ctx, `SELECT id FROM quiz_questions WHERE quiz_id = $1 ORDER BY rank`, quizID)
}

// GetQuestion retrieves a question by ID without its options.
func (r *pgQueries) GetQuestion(ctx context.Context, id int64) (*model.Question, error) {
	return scanQuestion(r.db.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM quiz_questions WHERE id = $1`, id))
}

// LockQuestion retrieves a question and locks its row.
func (r *pgQueries) LockQuestion(ctx context.Context, id int64) (*model.Question, error) {
	return scanQuestion(r.db.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM quiz_questions WHERE id = $1 FOR UPDATE`, id))
}

// InsertQuestion appends a question after the current last rank of its quiz.
// Callers serialize concurrent appends by locking the quiz row first.
func (r *pgQueries) InsertQuestion(ctx context.Context, q *model.Question) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO quiz_questions (quiz_id, type, text, points, rank)
		 SELECT $1, $2, $3, $4, COALESCE(MAX(rank), 0) + 1
		 FROM quiz_questions WHERE quiz_id = $1
		 RETURNING id, rank, created_at, updated_at`,
		q.QuizID, q.Type, q.Text, q.Points,
	).Scan(&q.ID, &q.Rank, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

// UpdateQuestion applies a partial update.
func (r *pgQueries) UpdateQuestion(ctx context.Context, id int64, patch model.QuestionPatch) (*model.Question, error) {
	var qType *string
	if patch.Type != nil {
		s := string(*patch.Type)
		qType = &s
	}
	return scanQuestion(r.db.QueryRow(ctx,
		`UPDATE quiz_questions SET
			type       = COALESCE($2, type),
			text       = COALESCE($3, text),
			points     = COALESCE($4, points),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+questionColumns,
		id, qType, patch.Text, patch.Points))
}

// DeleteQuestion removes a question; its options and answers cascade.
func (r *pgQueries) DeleteQuestion(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quiz_questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetQuestionRanks bulk-updates ranks in one statement. The rank unique
// constraint is deferred so intermediate duplicates are allowed.
func (r *pgQueries) SetQuestionRanks(ctx context.Context, quizID int64, items []model.RankItem) error {
	ids, ranks := splitRanks(items)
	_, err := r.db.Exec(ctx,
		`UPDATE quiz_questions AS q
		 SET rank = t.rank, updated_at = NOW()
		 FROM UNNEST($2::bigint[], $3::int[]) AS t(id, rank)
		 WHERE q.id = t.id AND q.quiz_id = $1`,
		quizID, ids, ranks)
	if err != nil {
		return fmt.Errorf("update question ranks: %w", err)
	}
	return nil
}

// RenumberQuestions closes rank gaps left by a delete.
func (r *pgQueries) RenumberQuestions(ctx context.Context, quizID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE quiz_questions AS q
		 SET rank = n.new_rank
		 FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY rank, id) AS new_rank
			FROM quiz_questions WHERE quiz_id = $1
		 ) AS n
		 WHERE q.id = n.id AND q.rank <> n.new_rank`, quizID)
	if err != nil {
		return fmt.Errorf("renumber questions: %w", err)
	}
	return nil
}

func (r *pgQueries) listIDs(ctx context.Context, sql string, args ...any) ([]int64, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect ids: %w", err)
	}
	return ids, nil
}
