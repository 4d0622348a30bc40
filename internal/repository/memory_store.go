package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/zhakasov-bm/lms-backend/internal/model"
)

// MemoryStore is an in-process Store used by tests and by STORE_DRIVER=memory.
// A transaction works on a copy of the whole state which replaces the
// committed state only when fn succeeds. One transaction runs at a time.
type MemoryStore struct {
	*memQueries
	mu    sync.Mutex
	state *memState
}

type memState struct {
	seq       int64
	modules   map[int64]struct{}
	quizzes   map[int64]model.Quiz
	questions map[int64]model.Question
	options   map[int64]model.Option
	attempts  map[int64]model.Attempt
	answers   map[int64]model.AnswerRecord
}

func newMemState() *memState {
	return &memState{
		modules:   make(map[int64]struct{}),
		quizzes:   make(map[int64]model.Quiz),
		questions: make(map[int64]model.Question),
		options:   make(map[int64]model.Option),
		attempts:  make(map[int64]model.Attempt),
		answers:   make(map[int64]model.AnswerRecord),
	}
}

func (st *memState) clone() *memState {
	return &memState{
		seq:       st.seq,
		modules:   cloneMap(st.modules),
		quizzes:   cloneMap(st.quizzes),
		questions: cloneMap(st.questions),
		options:   cloneMap(st.options),
		attempts:  cloneMap(st.attempts),
		answers:   cloneMap(st.answers),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (st *memState) nextID() int64 {
	st.seq++
	return st.seq
}

// NewMemoryStore creates an empty MemoryStore with the given course modules.
func NewMemoryStore(moduleIDs ...int64) *MemoryStore {
	s := &MemoryStore{state: newMemState()}
	s.memQueries = &memQueries{store: s}
	for _, id := range moduleIDs {
		s.state.modules[id] = struct{}{}
	}
	return s
}

// RegisterModule makes a course module known to the store.
func (s *MemoryStore) RegisterModule(moduleID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.modules[moduleID] = struct{}{}
}

// Transaction runs fn against a private copy of the state and commits it on success.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(q Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := s.state.clone()
	if err := fn(&memQueries{store: s, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = tx
	return nil
}

// memQueries implements Queries. Outside a transaction (tx == nil) every call
// takes the store mutex for its own duration.
type memQueries struct {
	store *MemoryStore
	tx    *memState
}

func (q *memQueries) enter() (*memState, func()) {
	if q.tx != nil {
		return q.tx, func() {}
	}
	q.store.mu.Lock()
	return q.store.state, q.store.mu.Unlock
}

func now() time.Time {
	return time.Now().UTC()
}

func (q *memQueries) ModuleExists(_ context.Context, moduleID int64) (bool, error) {
	st, done := q.enter()
	defer done()
	_, ok := st.modules[moduleID]
	return ok, nil
}

// ─── Quizzes ──────────────────────────────────────────────────────────

func (q *memQueries) GetQuiz(_ context.Context, id int64) (*model.Quiz, error) {
	st, done := q.enter()
	defer done()
	quiz, ok := st.quizzes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &quiz, nil
}

func (q *memQueries) LockQuiz(ctx context.Context, id int64) (*model.Quiz, error) {
	return q.GetQuiz(ctx, id)
}

func (q *memQueries) GetQuizByModule(_ context.Context, moduleID int64) (*model.Quiz, error) {
	st, done := q.enter()
	defer done()
	return st.quizByModule(moduleID)
}

func (st *memState) quizByModule(moduleID int64) (*model.Quiz, error) {
	for _, quiz := range st.quizzes {
		if quiz.ModuleID == moduleID {
			return &quiz, nil
		}
	}
	return nil, ErrNotFound
}

func (q *memQueries) InsertQuizOrFetch(_ context.Context, moduleID int64, title string) (*model.Quiz, error) {
	st, done := q.enter()
	defer done()
	if existing, err := st.quizByModule(moduleID); err == nil {
		return existing, nil
	}
	ts := now()
	quiz := model.Quiz{ID: st.nextID(), ModuleID: moduleID, Title: title, CreatedAt: ts, UpdatedAt: ts}
	st.quizzes[quiz.ID] = quiz
	return &quiz, nil
}

func (q *memQueries) UpdateQuiz(_ context.Context, id int64, patch model.QuizPatch) (*model.Quiz, error) {
	st, done := q.enter()
	defer done()
	quiz, ok := st.quizzes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Title != nil {
		quiz.Title = *patch.Title
	}
	if patch.TimeLimitSec != nil {
		quiz.TimeLimitSec = intPtr(*patch.TimeLimitSec)
	}
	if patch.AttemptLimit != nil {
		quiz.AttemptLimit = intPtr(*patch.AttemptLimit)
	}
	if patch.PassingScore != nil {
		quiz.PassingScore = intPtr(*patch.PassingScore)
	}
	quiz.UpdatedAt = now()
	st.quizzes[id] = quiz
	return &quiz, nil
}

func (q *memQueries) SetQuizPublished(_ context.Context, id int64, published bool) (*model.Quiz, error) {
	st, done := q.enter()
	defer done()
	quiz, ok := st.quizzes[id]
	if !ok {
		return nil, ErrNotFound
	}
	quiz.IsPublished = published
	quiz.UpdatedAt = now()
	st.quizzes[id] = quiz
	return &quiz, nil
}

func intPtr(v int) *int { return &v }

// ─── Questions ────────────────────────────────────────────────────────

func (st *memState) questionsOf(quizID int64) []model.Question {
	var out []model.Question
	for _, qu := range st.questions {
		if qu.QuizID == quizID {
			out = append(out, qu)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (st *memState) optionsOf(questionID int64) []model.Option {
	var out []model.Option
	for _, o := range st.options {
		if o.QuestionID == questionID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (q *memQueries) ListQuestions(_ context.Context, quizID int64) ([]model.Question, error) {
	st, done := q.enter()
	defer done()
	questions := st.questionsOf(quizID)
	for i := range questions {
		questions[i].Options = st.optionsOf(questions[i].ID)
	}
	return questions, nil
}

func (q *memQueries) ListQuestionIDs(_ context.Context, quizID int64) ([]int64, error) {
	st, done := q.enter()
	defer done()
	var ids []int64
	for _, qu := range st.questionsOf(quizID) {
		ids = append(ids, qu.ID)
	}
	return ids, nil
}

func (q *memQueries) GetQuestion(_ context.Context, id int64) (*model.Question, error) {
	st, done := q.enter()
	defer done()
	qu, ok := st.questions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &qu, nil
}

func (q *memQueries) LockQuestion(ctx context.Context, id int64) (*model.Question, error) {
	return q.GetQuestion(ctx, id)
}

func (q *memQueries) InsertQuestion(_ context.Context, qu *model.Question) error {
	st, done := q.enter()
	defer done()
	maxRank := 0
	for _, other := range st.questionsOf(qu.QuizID) {
		maxRank = max(maxRank, other.Rank)
	}
	ts := now()
	qu.ID = st.nextID()
	qu.Rank = maxRank + 1
	qu.CreatedAt, qu.UpdatedAt = ts, ts
	stored := *qu
	stored.Options = nil
	st.questions[qu.ID] = stored
	return nil
}

func (q *memQueries) UpdateQuestion(_ context.Context, id int64, patch model.QuestionPatch) (*model.Question, error) {
	st, done := q.enter()
	defer done()
	qu, ok := st.questions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Type != nil {
		qu.Type = *patch.Type
	}
	if patch.Text != nil {
		qu.Text = *patch.Text
	}
	if patch.Points != nil {
		qu.Points = *patch.Points
	}
	qu.UpdatedAt = now()
	st.questions[id] = qu
	return &qu, nil
}

func (q *memQueries) DeleteQuestion(_ context.Context, id int64) error {
	st, done := q.enter()
	defer done()
	if _, ok := st.questions[id]; !ok {
		return ErrNotFound
	}
	delete(st.questions, id)
	for oid, o := range st.options {
		if o.QuestionID == id {
			st.deleteOption(oid)
		}
	}
	for aid, a := range st.answers {
		if a.QuestionID == id {
			delete(st.answers, aid)
		}
	}
	return nil
}

func (q *memQueries) SetQuestionRanks(_ context.Context, quizID int64, items []model.RankItem) error {
	st, done := q.enter()
	defer done()
	for _, it := range items {
		qu, ok := st.questions[it.ID]
		if !ok || qu.QuizID != quizID {
			continue
		}
		qu.Rank = it.Rank
		qu.UpdatedAt = now()
		st.questions[it.ID] = qu
	}
	return nil
}

func (q *memQueries) RenumberQuestions(_ context.Context, quizID int64) error {
	st, done := q.enter()
	defer done()
	for i, qu := range st.questionsOf(quizID) {
		qu.Rank = i + 1
		st.questions[qu.ID] = qu
	}
	return nil
}

// ─── Options ──────────────────────────────────────────────────────────

func (q *memQueries) ListOptionIDs(_ context.Context, questionID int64) ([]int64, error) {
	st, done := q.enter()
	defer done()
	var ids []int64
	for _, o := range st.optionsOf(questionID) {
		ids = append(ids, o.ID)
	}
	return ids, nil
}

func (q *memQueries) GetOption(_ context.Context, id int64) (*model.Option, error) {
	st, done := q.enter()
	defer done()
	o, ok := st.options[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (q *memQueries) InsertOption(_ context.Context, o *model.Option) error {
	st, done := q.enter()
	defer done()
	maxRank := 0
	for _, other := range st.optionsOf(o.QuestionID) {
		maxRank = max(maxRank, other.Rank)
	}
	ts := now()
	o.ID = st.nextID()
	o.Rank = maxRank + 1
	o.CreatedAt, o.UpdatedAt = ts, ts
	st.options[o.ID] = *o
	return nil
}

func (q *memQueries) UpdateOption(_ context.Context, id int64, patch model.OptionPatch) (*model.Option, error) {
	st, done := q.enter()
	defer done()
	o, ok := st.options[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Text != nil {
		o.Text = *patch.Text
	}
	if patch.IsCorrect != nil {
		o.IsCorrect = *patch.IsCorrect
	}
	o.UpdatedAt = now()
	st.options[id] = o
	return &o, nil
}

func (q *memQueries) DeleteOption(_ context.Context, id int64) error {
	st, done := q.enter()
	defer done()
	if _, ok := st.options[id]; !ok {
		return ErrNotFound
	}
	st.deleteOption(id)
	return nil
}

// deleteOption removes an option and unlinks it from stored answers.
func (st *memState) deleteOption(id int64) {
	delete(st.options, id)
	for aid, a := range st.answers {
		if slices.Contains(a.OptionIDs, id) {
			a.OptionIDs = slices.DeleteFunc(slices.Clone(a.OptionIDs), func(v int64) bool { return v == id })
			st.answers[aid] = a
		}
	}
}

func (q *memQueries) SetOptionRanks(_ context.Context, questionID int64, items []model.RankItem) error {
	st, done := q.enter()
	defer done()
	for _, it := range items {
		o, ok := st.options[it.ID]
		if !ok || o.QuestionID != questionID {
			continue
		}
		o.Rank = it.Rank
		o.UpdatedAt = now()
		st.options[it.ID] = o
	}
	return nil
}

func (q *memQueries) RenumberOptions(_ context.Context, questionID int64) error {
	st, done := q.enter()
	defer done()
	for i, o := range st.optionsOf(questionID) {
		o.Rank = i + 1
		st.options[o.ID] = o
	}
	return nil
}

// ─── Attempts ─────────────────────────────────────────────────────────

func (q *memQueries) GetAttempt(_ context.Context, id int64) (*model.Attempt, error) {
	st, done := q.enter()
	defer done()
	a, ok := st.attempts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (q *memQueries) LockAttempt(ctx context.Context, id int64) (*model.Attempt, error) {
	return q.GetAttempt(ctx, id)
}

func (q *memQueries) FindAttempt(_ context.Context, quizID, userID int64) (*model.Attempt, error) {
	st, done := q.enter()
	defer done()
	return st.findAttempt(quizID, userID)
}

func (st *memState) findAttempt(quizID, userID int64) (*model.Attempt, error) {
	for _, a := range st.attempts {
		if a.QuizID == quizID && a.UserID == userID {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (q *memQueries) InsertAttempt(_ context.Context, quizID, userID int64, startedAt time.Time) (*model.Attempt, error) {
	st, done := q.enter()
	defer done()
	if _, err := st.findAttempt(quizID, userID); err == nil {
		return nil, ErrConflict
	}
	a := model.Attempt{
		ID:        st.nextID(),
		QuizID:    quizID,
		UserID:    userID,
		Status:    model.AttemptStatusInProgress,
		StartedAt: startedAt,
	}
	st.attempts[a.ID] = a
	return &a, nil
}

func (q *memQueries) ResetAttempt(_ context.Context, id int64, startedAt time.Time) (*model.Attempt, error) {
	st, done := q.enter()
	defer done()
	a, ok := st.attempts[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Status = model.AttemptStatusInProgress
	a.StartedAt = startedAt
	a.SubmittedAt = nil
	a.Score, a.MaxScore = 0, 0
	st.attempts[id] = a
	return &a, nil
}

func (q *memQueries) CompleteAttempt(_ context.Context, id int64, score, maxScore int, submittedAt time.Time) (*model.Attempt, error) {
	st, done := q.enter()
	defer done()
	a, ok := st.attempts[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Status = model.AttemptStatusSubmitted
	a.SubmittedAt = &submittedAt
	a.Score, a.MaxScore = score, maxScore
	st.attempts[id] = a
	return &a, nil
}

func (q *memQueries) ListAttempts(_ context.Context, quizID int64, limit, offset int) ([]model.Attempt, int, error) {
	st, done := q.enter()
	defer done()
	var all []model.Attempt
	for _, a := range st.attempts {
		if a.QuizID == quizID {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartedAt.Equal(all[j].StartedAt) {
			return all[i].StartedAt.After(all[j].StartedAt)
		}
		return all[i].ID > all[j].ID
	})
	total := len(all)
	if offset >= total {
		return []model.Attempt{}, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (q *memQueries) MaxSubmittedScore(_ context.Context, quizID, userID int64) (int, error) {
	st, done := q.enter()
	defer done()
	best := 0
	for _, a := range st.attempts {
		if a.QuizID == quizID && a.UserID == userID && a.Status == model.AttemptStatusSubmitted {
			best = max(best, a.Score)
		}
	}
	return best, nil
}

// ─── Answers ──────────────────────────────────────────────────────────

func (q *memQueries) DeleteAnswers(_ context.Context, attemptID int64) error {
	st, done := q.enter()
	defer done()
	for id, a := range st.answers {
		if a.AttemptID == attemptID {
			delete(st.answers, id)
		}
	}
	return nil
}

func (q *memQueries) InsertAnswer(_ context.Context, attemptID, questionID int64, optionIDs []int64) (*model.AnswerRecord, error) {
	st, done := q.enter()
	defer done()
	for _, a := range st.answers {
		if a.AttemptID == attemptID && a.QuestionID == questionID {
			return nil, ErrConflict
		}
	}
	rec := model.AnswerRecord{
		ID:         st.nextID(),
		AttemptID:  attemptID,
		QuestionID: questionID,
		OptionIDs:  slices.Clone(optionIDs),
	}
	st.answers[rec.ID] = rec
	return &rec, nil
}

func (q *memQueries) ListAnswers(_ context.Context, attemptID int64) ([]model.AnswerRecord, error) {
	st, done := q.enter()
	defer done()
	var out []model.AnswerRecord
	for _, a := range st.answers {
		if a.AttemptID == attemptID {
			a.OptionIDs = slices.Sorted(slices.Values(a.OptionIDs))
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
