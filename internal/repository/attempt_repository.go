package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/zhakasov-bm/lms-backend/internal/model"
)

const attemptColumns = `id, quiz_id, user_id, status, started_at, submitted_at, score, max_score`

func scanAttempt(row pgx.Row) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := row.Scan(&a.ID, &a.QuizID, &a.UserID, &a.Status, &a.StartedAt, &a.SubmittedAt, &a.Score, &a.MaxScore)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// GetAttempt retrieves an attempt by ID.
func (r *pgQueries) GetAttempt(ctx context.Context, id int64) (*model.Attempt, error) {
	return scanAttempt(r.db.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts WHERE id = $1`, id))
}

// LockAttempt retrieves an attempt and locks its row.
func (r *pgQueries) LockAttempt(ctx context.Context, id int64) (*model.Attempt, error) {
	return scanAttempt(r.db.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts WHERE id = $1 FOR UPDATE`, id))
}

// FindAttempt retrieves the attempt of a user for a quiz.
func (r *pgQueries) FindAttempt(ctx context.Context, quizID, userID int64) (*model.Attempt, error) {
	return scanAttempt(r.db.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts WHERE quiz_id = $1 AND user_id = $2`,
		quizID, userID))
}

// InsertAttempt creates a new in-progress attempt.
func (r *pgQueries) InsertAttempt(ctx context.Context, quizID, userID int64, startedAt time.Time) (*model.Attempt, error) {
	a, err := scanAttempt(r.db.QueryRow(ctx,
		`INSERT INTO quiz_attempts (quiz_id, user_id, status, started_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+attemptColumns,
		quizID, userID, model.AttemptStatusInProgress, startedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	return a, nil
}

// ResetAttempt puts a submitted attempt back in progress with a fresh start time.
func (r *pgQueries) ResetAttempt(ctx context.Context, id int64, startedAt time.Time) (*model.Attempt, error) {
	return scanAttempt(r.db.QueryRow(ctx,
		`UPDATE quiz_attempts
		 SET status = $2, started_at = $3, submitted_at = NULL, score = 0, max_score = 0
		 WHERE id = $1
		 RETURNING `+attemptColumns,
		id, model.AttemptStatusInProgress, startedAt))
}

// CompleteAttempt marks an attempt as submitted with its final score.
func (r *pgQueries) CompleteAttempt(ctx context.Context, id int64, score, maxScore int, submittedAt time.Time) (*model.Attempt, error) {
	return scanAttempt(r.db.QueryRow(ctx,
		`UPDATE quiz_attempts
		 SET status = $2, submitted_at = $3, score = $4, max_score = $5
		 WHERE id = $1
		 RETURNING `+attemptColumns,
		id, model.AttemptStatusSubmitted, submittedAt, score, maxScore))
}

// ListAttempts returns a page of a quiz's attempts, most recent first, and the total count.
func (r *pgQueries) ListAttempts(ctx context.Context, quizID int64, limit, offset int) ([]model.Attempt, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_attempts WHERE quiz_id = $1`, quizID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count attempts: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts
		 WHERE quiz_id = $1
		 ORDER BY started_at DESC, id DESC
		 LIMIT $2 OFFSET $3`, quizID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]model.Attempt, 0, limit)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, *a)
	}
	return attempts, total, rows.Err()
}

// MaxSubmittedScore returns the best score among a user's submitted attempts, 0 if none.
func (r *pgQueries) MaxSubmittedScore(ctx context.Context, quizID, userID int64) (int, error) {
	var best int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(score), 0) FROM quiz_attempts
		 WHERE quiz_id = $1 AND user_id = $2 AND status = $3`,
		quizID, userID, model.AttemptStatusSubmitted,
	).Scan(&best)
	if err != nil {
		return 0, fmt.Errorf("max score: %w", err)
	}
	return best, nil
}

// DeleteAnswers removes every answer of an attempt; option links cascade.
func (r *pgQueries) DeleteAnswers(ctx context.Context, attemptID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM attempt_answers WHERE attempt_id = $1`, attemptID); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	return nil
}

// InsertAnswer stores one answer record and links its selected options.
func (r *pgQueries) InsertAnswer(ctx context.Context, attemptID, questionID int64, optionIDs []int64) (*model.AnswerRecord, error) {
	rec := &model.AnswerRecord{AttemptID: attemptID, QuestionID: questionID, OptionIDs: optionIDs}
	err := r.db.QueryRow(ctx,
		`INSERT INTO attempt_answers (attempt_id, question_id) VALUES ($1, $2) RETURNING id`,
		attemptID, questionID,
	).Scan(&rec.ID)
	if err != nil {
		return nil, fmt.Errorf("insert answer: %w", err)
	}
	if len(optionIDs) == 0 {
		return rec, nil
	}

	_, err = r.db.CopyFrom(ctx,
		pgx.Identifier{"attempt_answer_options"},
		[]string{"answer_id", "option_id"},
		pgx.CopyFromSlice(len(optionIDs), func(i int) ([]any, error) {
			return []any{rec.ID, optionIDs[i]}, nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("link answer options: %w", err)
	}
	return rec, nil
}

// ListAnswers returns the answer records of an attempt with their option ids.
func (r *pgQueries) ListAnswers(ctx context.Context, attemptID int64) ([]model.AnswerRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT a.id, a.attempt_id, a.question_id,
		        COALESCE(ARRAY_AGG(ao.option_id ORDER BY ao.option_id) FILTER (WHERE ao.option_id IS NOT NULL), '{}')
		 FROM attempt_answers a
		 LEFT JOIN attempt_answer_options ao ON ao.answer_id = a.id
		 WHERE a.attempt_id = $1
		 GROUP BY a.id
		 ORDER BY a.id`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var records []model.AnswerRecord
	for rows.Next() {
		var rec model.AnswerRecord
		if err := rows.Scan(&rec.ID, &rec.AttemptID, &rec.QuestionID, &rec.OptionIDs); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
