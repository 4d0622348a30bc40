package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhakasov-bm/lms-backend/internal/model"
)

func TestValidateRanks(t *testing.T) {
	siblings := []int64{10, 20, 30}

	tests := []struct {
		name    string
		items   []model.RankItem
		wantErr bool
	}{
		{
			name:  "permutation",
			items: []model.RankItem{{ID: 10, Rank: 3}, {ID: 20, Rank: 1}, {ID: 30, Rank: 2}},
		},
		{
			name:    "missing sibling",
			items:   []model.RankItem{{ID: 10, Rank: 1}, {ID: 20, Rank: 2}},
			wantErr: true,
		},
		{
			name:    "foreign id",
			items:   []model.RankItem{{ID: 10, Rank: 1}, {ID: 20, Rank: 2}, {ID: 99, Rank: 3}},
			wantErr: true,
		},
		{
			name:    "duplicate id",
			items:   []model.RankItem{{ID: 10, Rank: 1}, {ID: 10, Rank: 2}, {ID: 30, Rank: 3}},
			wantErr: true,
		},
		{
			name:    "duplicate rank",
			items:   []model.RankItem{{ID: 10, Rank: 1}, {ID: 20, Rank: 1}, {ID: 30, Rank: 3}},
			wantErr: true,
		},
		{
			name:    "rank out of range",
			items:   []model.RankItem{{ID: 10, Rank: 0}, {ID: 20, Rank: 1}, {ID: 30, Rank: 2}},
			wantErr: true,
		},
		{
			name:    "rank gap",
			items:   []model.RankItem{{ID: 10, Rank: 1}, {ID: 20, Rank: 2}, {ID: 30, Rank: 4}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRanks(siblings, tt.items)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidReorder)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateRanks_EmptySet(t *testing.T) {
	assert.NoError(t, ValidateRanks(nil, nil))
	assert.ErrorIs(t, ValidateRanks(nil, []model.RankItem{{ID: 1, Rank: 1}}), ErrInvalidReorder)
}

func TestSortByRank(t *testing.T) {
	in := []model.RankItem{{ID: 1, Rank: 3}, {ID: 2, Rank: 1}, {ID: 3, Rank: 2}}
	out := SortByRank(in)

	assert.Equal(t, []model.RankItem{{ID: 2, Rank: 1}, {ID: 3, Rank: 2}, {ID: 1, Rank: 3}}, out)
	assert.Equal(t, 3, in[0].Rank, "input is not modified")
}

func TestReorderQuestions_ReadBack(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sq := env.seedQuiz(t, 3)

	items := []model.RankItem{
		{ID: sq.questions[0], Rank: 3},
		{ID: sq.questions[1], Rank: 1},
		{ID: sq.questions[2], Rank: 2},
	}
	require.NoError(t, env.ordering.ReorderQuestions(ctx, sq.quiz.ID, items))

	view, err := env.quizzes.GetStaffView(ctx, testModuleID)
	require.NoError(t, err)
	require.Len(t, view.Questions, 3)
	assert.Equal(t, sq.questions[1], view.Questions[0].ID)
	assert.Equal(t, sq.questions[2], view.Questions[1].ID)
	assert.Equal(t, sq.questions[0], view.Questions[2].ID)
	for i, q := range view.Questions {
		assert.Equal(t, i+1, q.Rank)
	}
	assert.Contains(t, env.cache.invalidated, sq.quiz.ID)
}

func TestReorderQuestions_InvalidLeavesRanksUnchanged(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sq := env.seedQuiz(t, 3)

	items := []model.RankItem{
		{ID: sq.questions[0], Rank: 2},
		{ID: sq.questions[1], Rank: 2},
		{ID: sq.questions[2], Rank: 1},
	}
	err := env.ordering.ReorderQuestions(ctx, sq.quiz.ID, items)
	require.ErrorIs(t, err, ErrInvalidReorder)

	ids, err := env.store.ListQuestionIDs(ctx, sq.quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, sq.questions, ids)
}

func TestReorderQuestions_UnknownQuiz(t *testing.T) {
	env := newTestEnv(t)
	err := env.ordering.ReorderQuestions(context.Background(), 404, nil)
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestReorderOptions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sq := env.seedQuiz(t, 1)

	items := []model.RankItem{
		{ID: sq.correct[0], Rank: 2},
		{ID: sq.wrong[0], Rank: 1},
	}
	require.NoError(t, env.ordering.ReorderOptions(ctx, sq.questions[0], items))

	ids, err := env.store.ListOptionIDs(ctx, sq.questions[0])
	require.NoError(t, err)
	assert.Equal(t, []int64{sq.wrong[0], sq.correct[0]}, ids)

	err = env.ordering.ReorderOptions(ctx, sq.questions[0], items[:1])
	assert.ErrorIs(t, err, ErrInvalidReorder)

	err = env.ordering.ReorderOptions(ctx, 404, items)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}
