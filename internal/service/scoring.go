package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/zhakasov-bm/lms-backend/internal/model"
	"github.com/zhakasov-bm/lms-backend/internal/repository"
)

// QuestionGrade is the graded outcome of one question.
type QuestionGrade struct {
	QuestionID int64
	// Selected holds the distinct submitted option ids in ascending order.
	Selected []int64
	Correct  bool
	Points   int
}

// Grade is the graded outcome of a whole submission.
type Grade struct {
	Questions []QuestionGrade
	Score     int
	MaxScore  int
}

// GradeSubmission scores answers against the quiz questions (with options).
// A question earns its points only when the selected set equals the correct
// set exactly; anything else, including no answer, earns zero. Answers to
// questions outside the quiz are ignored. When a question is answered more
// than once the last entry wins, and an option id in a winning entry that
// does not belong to its question rejects the whole submission.
func GradeSubmission(questions []model.Question, answers []model.AnswerInput) (*Grade, error) {
	if len(questions) == 0 {
		return nil, ErrQuizEmpty
	}

	byID := make(map[int64]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	latest := make(map[int64][]int64, len(answers))
	for _, ans := range answers {
		if _, ok := byID[ans.QuestionID]; !ok {
			continue
		}
		latest[ans.QuestionID] = ans.SelectedOptionIDs
	}

	selections := make(map[int64][]int64, len(latest))
	for i := range questions {
		qu := &questions[i]
		ids, ok := latest[qu.ID]
		if !ok {
			continue
		}
		for _, optID := range ids {
			if !hasOption(qu, optID) {
				return nil, fmt.Errorf("%w: option %d, question %d", ErrInvalidOption, optID, qu.ID)
			}
		}
		selections[qu.ID] = distinctSorted(ids)
	}

	grade := &Grade{Questions: make([]QuestionGrade, 0, len(questions))}
	for _, qu := range questions {
		selected := selections[qu.ID]
		correct := slices.Equal(selected, correctOptions(qu))

		qg := QuestionGrade{QuestionID: qu.ID, Selected: selected, Correct: correct}
		if correct {
			qg.Points = qu.Points
			grade.Score += qu.Points
		}
		grade.MaxScore += qu.Points
		grade.Questions = append(grade.Questions, qg)
	}
	return grade, nil
}

func hasOption(qu *model.Question, optionID int64) bool {
	for _, o := range qu.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

func correctOptions(qu model.Question) []int64 {
	var ids []int64
	for _, o := range qu.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	slices.Sort(ids)
	return ids
}

func distinctSorted(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// persistGrade replaces the attempt's answers with the graded selections and
// marks it submitted. It must run inside the caller's transaction.
func persistGrade(ctx context.Context, q repository.Queries, attemptID int64, grade *Grade, at time.Time) (*model.Attempt, error) {
	if err := q.DeleteAnswers(ctx, attemptID); err != nil {
		return nil, err
	}
	for _, qg := range grade.Questions {
		if _, err := q.InsertAnswer(ctx, attemptID, qg.QuestionID, qg.Selected); err != nil {
			return nil, err
		}
	}

	attempt, err := q.CompleteAttempt(ctx, attemptID, grade.Score, grade.MaxScore, at)
	if err != nil {
		return nil, fmt.Errorf("complete attempt: %w", err)
	}
	return attempt, nil
}
