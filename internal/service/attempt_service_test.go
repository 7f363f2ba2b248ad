package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rajisurvase/village-orbit-api/internal/model"
	"github.com/rs/zerolog"
)

// --- fakes ---

type fakeAttemptStore struct {
	attempts map[uuid.UUID]*model.ExamAttempt

	createErr       error
	finalized       []uuid.UUID
	checkpoints     map[uuid.UUID]int
	beginCalls      int
	inProgressCalls int
	// hiddenFromList simulates a row landing between the prior-attempts
	// query and the insert, i.e. a lost concurrent create.
	hiddenFromList map[uuid.UUID]bool
	// now stands in for the database's NOW() so checkpoint math can be
	// driven by a pinned clock.
	now func() time.Time
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{
		attempts:       make(map[uuid.UUID]*model.ExamAttempt),
		checkpoints:    make(map[uuid.UUID]int),
		hiddenFromList: make(map[uuid.UUID]bool),
		now:            time.Now,
	}
}

func (f *fakeAttemptStore) GetByID(_ context.Context, id uuid.UUID) (*model.ExamAttempt, error) {
	a, ok := f.attempts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAttemptStore) GetLatestByExamAndStudent(_ context.Context, examID uuid.UUID, studentID int) (*model.ExamAttempt, error) {
	var latest *model.ExamAttempt
	for _, a := range f.attempts {
		if a.ExamID == examID && a.StudentID == studentID {
			if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
				latest = a
			}
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeAttemptStore) ListByExamAndStudent(_ context.Context, examID uuid.UUID, studentID int) ([]model.ExamAttempt, error) {
	var out []model.ExamAttempt
	for _, a := range f.attempts {
		if a.ExamID == examID && a.StudentID == studentID && !f.hiddenFromList[a.ID] {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAttemptStore) ListByStudent(_ context.Context, studentID int) ([]model.ExamAttempt, error) {
	var out []model.ExamAttempt
	for _, a := range f.attempts {
		if a.StudentID == studentID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAttemptStore) Create(_ context.Context, a *model.ExamAttempt) error {
	if f.createErr != nil {
		return f.createErr
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.TimeCheckpointAt = a.CreatedAt
	cp := *a
	f.attempts[a.ID] = &cp
	return nil
}

func (f *fakeAttemptStore) BeginAttempt(_ context.Context, id uuid.UUID, snapshotURL string) (bool, error) {
	f.beginCalls++
	a, ok := f.attempts[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if a.Status != model.AttemptStatusNotStarted {
		return false, nil
	}
	now := time.Now()
	a.Status = model.AttemptStatusInProgress
	a.IntegrityPledgeAccepted = true
	a.StartSnapshotURL = &snapshotURL
	a.StartedAt = &now
	a.TimeCheckpointAt = now
	return true, nil
}

func (f *fakeAttemptStore) MarkInProgress(_ context.Context, id uuid.UUID) error {
	f.inProgressCalls++
	a, ok := f.attempts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if a.Status == model.AttemptStatusNotStarted {
		a.Status = model.AttemptStatusInProgress
		a.TimeCheckpointAt = time.Now()
	}
	return nil
}

func (f *fakeAttemptStore) Checkpoint(_ context.Context, id uuid.UUID, remainingSeconds int) error {
	a, ok := f.attempts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	// Mirrors the SQL: charge elapsed wall clock first, then clamp to the
	// client's claim.
	now := f.now()
	derived := a.RemainingSeconds - int(now.Sub(a.TimeCheckpointAt).Seconds())
	if derived < 0 {
		derived = 0
	}
	if remainingSeconds < derived {
		derived = remainingSeconds
	}
	a.RemainingSeconds = derived
	a.TimeCheckpointAt = now
	f.checkpoints[id] = remainingSeconds
	return nil
}

func (f *fakeAttemptStore) FinalizeSubmission(_ context.Context, id uuid.UUID, res model.AttemptResult) (bool, error) {
	a, ok := f.attempts[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if a.Status != model.AttemptStatusInProgress {
		return false, nil
	}
	a.Status = model.AttemptStatusSubmitted
	a.Score = &res.Score
	a.CorrectAnswers = &res.CorrectAnswers
	a.WrongAnswers = &res.WrongAnswers
	a.Unanswered = &res.Unanswered
	f.finalized = append(f.finalized, id)
	return true, nil
}

type fakeExamSource struct {
	exams     map[uuid.UUID]*model.Exam
	questions map[uuid.UUID][]model.Question
}

func (f *fakeExamSource) GetExam(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	e, ok := f.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return e, nil
}

func (f *fakeExamSource) QuestionIDs(_ context.Context, examID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, q := range f.questions[examID] {
		ids = append(ids, q.ID)
	}
	return ids, nil
}

func (f *fakeExamSource) QuestionsByIDs(_ context.Context, examID uuid.UUID, ids []uuid.UUID) ([]model.Question, error) {
	byID := make(map[uuid.UUID]model.Question)
	for _, q := range f.questions[examID] {
		byID[q.ID] = q
	}
	var out []model.Question
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

type fakeAnswerHub struct {
	persisted  map[uuid.UUID][]model.ExamAnswer
	hot        map[uuid.UUID]map[string]string
	drained    []uuid.UUID
	cleared    []uuid.UUID
	selections []model.SaveAnswerRequest
}

func newFakeAnswerHub() *fakeAnswerHub {
	return &fakeAnswerHub{
		persisted: make(map[uuid.UUID][]model.ExamAnswer),
		hot:       make(map[uuid.UUID]map[string]string),
	}
}

func (f *fakeAnswerHub) Select(_ context.Context, attempt *model.ExamAttempt, req *model.SaveAnswerRequest) error {
	if attempt.Status != model.AttemptStatusInProgress {
		return ErrAttemptNotActive
	}
	f.selections = append(f.selections, *req)
	return nil
}

func (f *fakeAnswerHub) DrainPending(_ context.Context, attemptID uuid.UUID) error {
	f.drained = append(f.drained, attemptID)
	return nil
}

func (f *fakeAnswerHub) Hydrate(_ context.Context, attemptID uuid.UUID) (map[string]string, error) {
	m := f.hot[attemptID]
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

func (f *fakeAnswerHub) ListPersisted(_ context.Context, attemptID uuid.UUID) ([]model.ExamAnswer, error) {
	return f.persisted[attemptID], nil
}

func (f *fakeAnswerHub) ClearHot(_ context.Context, attemptID uuid.UUID) {
	f.cleared = append(f.cleared, attemptID)
}

type fakeSnapshotSaver struct {
	saved []string
	url   string
	err   error
}

func (f *fakeSnapshotSaver) SaveSnapshot(dataURL string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, dataURL)
	return f.url, nil
}

// --- fixtures ---

func testQuestions(examID uuid.UUID, n int) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = model.Question{ID: uuid.New(), ExamID: examID, CorrectOption: "A"}
	}
	return out
}

type harness struct {
	svc       *AttemptService
	store     *fakeAttemptStore
	exams     *fakeExamSource
	answers   *fakeAnswerHub
	snapshots *fakeSnapshotSaver
	exam      *model.Exam
	student   *model.Student
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	examID := uuid.New()
	exam := &model.Exam{
		ID:              examID,
		Title:           "Science Quarterly",
		Status:          model.ExamStatusActive,
		TotalQuestions:  5,
		DurationMinutes: 30,
		PassMarks:       40,
	}
	exams := &fakeExamSource{
		exams:     map[uuid.UUID]*model.Exam{examID: exam},
		questions: map[uuid.UUID][]model.Question{examID: testQuestions(examID, 5)},
	}
	store := newFakeAttemptStore()
	answers := newFakeAnswerHub()
	snapshots := &fakeSnapshotSaver{url: "/uploads/test.jpg"}

	svc := NewAttemptService(store, exams, answers, snapshots, zerolog.Nop())
	return &harness{
		svc:       svc,
		store:     store,
		exams:     exams,
		answers:   answers,
		snapshots: snapshots,
		exam:      exam,
		student:   &model.Student{ID: 7, Name: "Asha"},
	}
}

// --- tests ---

func TestStartCreatesAttempt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	attempt, resumed, err := h.svc.StartOrResume(ctx, h.exam.ID, h.student)
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}
	if resumed {
		t.Error("fresh start reported as resumed")
	}
	if attempt.Status != model.AttemptStatusNotStarted {
		t.Errorf("status = %s, want NOT_STARTED", attempt.Status)
	}
	if attempt.RemainingSeconds != 30*60 {
		t.Errorf("remaining = %d, want %d", attempt.RemainingSeconds, 30*60)
	}
	if len(attempt.QuestionOrder) != h.exam.TotalQuestions {
		t.Errorf("question order size = %d, want %d", len(attempt.QuestionOrder), h.exam.TotalQuestions)
	}
	seen := make(map[uuid.UUID]bool)
	for _, id := range attempt.QuestionOrder {
		if seen[id] {
			t.Errorf("question %s appears twice in order", id)
		}
		seen[id] = true
	}
}

func TestStartResumesActiveAttempt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, _, err := h.svc.StartOrResume(ctx, h.exam.ID, h.student)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}

	second, resumed, err := h.svc.StartOrResume(ctx, h.exam.ID, h.student)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !resumed {
		t.Error("second call should resume, not create")
	}
	if second.ID != first.ID {
		t.Errorf("resumed attempt %s, want %s", second.ID, first.ID)
	}
	if len(second.QuestionOrder) != len(first.QuestionOrder) {
		t.Fatal("resumed attempt has different question count")
	}
	for i := range first.QuestionOrder {
		if second.QuestionOrder[i] != first.QuestionOrder[i] {
			t.Fatal("resumed attempt has different question order")
		}
	}
	if len(h.store.attempts) != 1 {
		t.Errorf("store holds %d attempts, want 1", len(h.store.attempts))
	}
}

func TestStartConcurrentCreateRecovers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// The winner's row lands after our prior-attempts query but before our
	// insert, so the list sees nothing and the insert comes back empty.
	winner := &model.ExamAttempt{
		ID:        uuid.New(),
		ExamID:    h.exam.ID,
		StudentID: h.student.ID,
		Status:    model.AttemptStatusNotStarted,
		CreatedAt: time.Now(),
	}
	h.store.attempts[winner.ID] = winner
	h.store.hiddenFromList[winner.ID] = true
	h.store.createErr = pgx.ErrNoRows

	got, resumed, err := h.svc.StartOrResume(ctx, h.exam.ID, h.student)
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}
	if !resumed {
		t.Error("lost create race should resolve as a resume")
	}
	if got.ID != winner.ID {
		t.Errorf("got attempt %s, want the race winner %s", got.ID, winner.ID)
	}
}

func TestStartBlockedBySubmitted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	submitted := &model.ExamAttempt{
		ID:        uuid.New(),
		ExamID:    h.exam.ID,
		StudentID: h.student.ID,
		Status:    model.AttemptStatusSubmitted,
		CreatedAt: time.Now(),
	}
	h.store.attempts[submitted.ID] = submitted

	_, _, err := h.svc.StartOrResume(ctx, h.exam.ID, h.student)
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("err = %v, want ErrAlreadySubmitted", err)
	}

	// An admin reset lets a new attempt through.
	submitted.CanReattempt = true
	attempt, resumed, err := h.svc.StartOrResume(ctx, h.exam.ID, h.student)
	if err != nil {
		t.Fatalf("after reset: %v", err)
	}
	if resumed {
		t.Error("fresh attempt after reset reported as resumed")
	}
	if attempt.ID == submitted.ID {
		t.Error("reset should create a new row, not reuse the submitted one")
	}
}

func TestStartIneligibleStandard(t *testing.T) {
	h := newHarness(t)
	from, to := "5th", "8th"
	h.exam.FromStandard = &from
	h.exam.ToStandard = &to

	_, _, err := h.svc.StartOrResume(context.Background(), h.exam.ID, h.student)
	if !errors.Is(err, ErrNotEligible) {
		t.Fatalf("err = %v, want ErrNotEligible (nil standard fails closed)", err)
	}
}

func TestStartOutsideWindow(t *testing.T) {
	h := newHarness(t)
	past := time.Now().Add(-time.Hour)
	h.exam.EndsAt = &past

	_, _, err := h.svc.StartOrResume(context.Background(), h.exam.ID, h.student)
	if !errors.Is(err, ErrExamWindowClosed) {
		t.Fatalf("err = %v, want ErrExamWindowClosed", err)
	}
}

func TestStartNotEnoughQuestions(t *testing.T) {
	h := newHarness(t)
	h.exam.TotalQuestions = 50

	_, _, err := h.svc.StartOrResume(context.Background(), h.exam.ID, h.student)
	if !errors.Is(err, ErrNotEnoughQuestions) {
		t.Fatalf("err = %v, want ErrNotEnoughQuestions", err)
	}
}

func TestCompleteIntegrity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	attempt, _, err := h.svc.StartOrResume(ctx, h.exam.ID, h.student)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Pledge must be accepted.
	_, err = h.svc.CompleteIntegrity(ctx, attempt.ID, h.student.ID, &model.CompleteIntegrityRequest{})
	if !errors.Is(err, ErrPledgeRequired) {
		t.Fatalf("err = %v, want ErrPledgeRequired", err)
	}

	// Snapshot must be present.
	_, err = h.svc.CompleteIntegrity(ctx, attempt.ID, h.student.ID, &model.CompleteIntegrityRequest{PledgeAccepted: true})
	if !errors.Is(err, ErrSnapshotRequired) {
		t.Fatalf("err = %v, want ErrSnapshotRequired", err)
	}

	got, err := h.svc.CompleteIntegrity(ctx, attempt.ID, h.student.ID, &model.CompleteIntegrityRequest{
		PledgeAccepted: true,
		Snapshot:       "data:image/jpeg;base64,xxxx",
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Status != model.AttemptStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", got.Status)
	}
	if !got.IntegrityPledgeAccepted {
		t.Error("pledge flag not persisted")
	}
	if got.StartSnapshotURL == nil || *got.StartSnapshotURL != "/uploads/test.jpg" {
		t.Error("snapshot URL not persisted")
	}
	if len(h.snapshots.saved) != 1 {
		t.Errorf("saved %d snapshots, want 1", len(h.snapshots.saved))
	}
}

func TestCompleteIntegrityResumptionShortcut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	attempt, _, _ := h.svc.StartOrResume(ctx, h.exam.ID, h.student)
	if _, err := h.svc.CompleteIntegrity(ctx, attempt.ID, h.student.ID, &model.CompleteIntegrityRequest{
		PledgeAccepted: true,
		Snapshot:       "data:image/jpeg;base64,xxxx",
	}); err != nil {
		t.Fatalf("first gate: %v", err)
	}

	// Resuming with an accepted pledge skips re-capture entirely, even with
	// an empty request body.
	got, err := h.svc.CompleteIntegrity(ctx, attempt.ID, h.student.ID, &model.CompleteIntegrityRequest{})
	if err != nil {
		t.Fatalf("resume gate: %v", err)
	}
	if got.Status != model.AttemptStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", got.Status)
	}
	if len(h.snapshots.saved) != 1 {
		t.Errorf("saved %d snapshots after resume, want 1 (no re-capture)", len(h.snapshots.saved))
	}
}

func TestCompleteIntegrityWrongStudent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	attempt, _, _ := h.svc.StartOrResume(ctx, h.exam.ID, h.student)
	_, err := h.svc.CompleteIntegrity(ctx, attempt.ID, 9999, &model.CompleteIntegrityRequest{PledgeAccepted: true, Snapshot: "x"})
	if !errors.Is(err, ErrAttemptForbidden) {
		t.Fatalf("err = %v, want ErrAttemptForbidden", err)
	}
}

func beginAttempt(t *testing.T, h *harness) *model.ExamAttempt {
	t.Helper()
	ctx := context.Background()
	attempt, _, err := h.svc.StartOrResume(ctx, h.exam.ID, h.student)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	got, err := h.svc.CompleteIntegrity(ctx, attempt.ID, h.student.ID, &model.CompleteIntegrityRequest{
		PledgeAccepted: true,
		Snapshot:       "data:image/jpeg;base64,xxxx",
	})
	if err != nil {
		t.Fatalf("integrity gate: %v", err)
	}
	return got
}

func TestSubmitScoresAndFinalizes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	attempt := beginAttempt(t, h)

	// 3 correct, 1 wrong, 1 unanswered out of 5.
	h.answers.persisted[attempt.ID] = []model.ExamAnswer{
		{IsCorrect: true}, {IsCorrect: true}, {IsCorrect: true}, {IsCorrect: false},
	}

	got, err := h.svc.Submit(ctx, attempt.ID, h.student.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Status != model.AttemptStatusSubmitted {
		t.Fatalf("status = %s, want SUBMITTED", got.Status)
	}
	if got.Score == nil || *got.Score != 60 {
		t.Errorf("score = %v, want 60", got.Score)
	}
	if got.Unanswered == nil || *got.Unanswered != 1 {
		t.Errorf("unanswered = %v, want 1", got.Unanswered)
	}

	// Pending writes drained before scoring, hot copy cleared after.
	if len(h.answers.drained) != 1 || h.answers.drained[0] != attempt.ID {
		t.Errorf("drained = %v, want [%s]", h.answers.drained, attempt.ID)
	}
	if len(h.answers.cleared) != 1 {
		t.Errorf("cleared %d hot copies, want 1", len(h.answers.cleared))
	}
}

func TestSubmitIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	attempt := beginAttempt(t, h)

	h.answers.persisted[attempt.ID] = []model.ExamAnswer{{IsCorrect: true}}

	first, err := h.svc.Submit(ctx, attempt.ID, h.student.ID)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// A duplicate trigger (user click racing the sweeper) returns the stored
	// result without re-finalizing.
	second, err := h.svc.Submit(ctx, attempt.ID, 0)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if *second.Score != *first.Score {
		t.Errorf("second submit score %d, want %d", *second.Score, *first.Score)
	}
	if len(h.store.finalized) != 1 {
		t.Errorf("finalized %d times, want exactly 1", len(h.store.finalized))
	}
}

func TestSubmitRequiresInProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	attempt, _, _ := h.svc.StartOrResume(ctx, h.exam.ID, h.student)
	_, err := h.svc.Submit(ctx, attempt.ID, h.student.ID)
	if !errors.Is(err, ErrAttemptNotActive) {
		t.Fatalf("err = %v, want ErrAttemptNotActive", err)
	}
}

func TestSubmitExpiredAutoSubmits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	attempt := beginAttempt(t, h)

	h.svc.SubmitExpired(ctx, []uuid.UUID{attempt.ID})

	got, _ := h.store.GetByID(ctx, attempt.ID)
	if got.Status != model.AttemptStatusSubmitted {
		t.Errorf("status after sweep = %s, want SUBMITTED", got.Status)
	}
	if got.Score == nil || *got.Score != 0 {
		t.Errorf("score = %v, want 0 (no answers persisted)", got.Score)
	}
	if got.Unanswered == nil || *got.Unanswered != h.exam.TotalQuestions {
		t.Errorf("unanswered = %v, want %d", got.Unanswered, h.exam.TotalQuestions)
	}
}

func TestStateHydration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	attempt := beginAttempt(t, h)

	q0 := attempt.QuestionOrder[0].String()
	q1 := attempt.QuestionOrder[1].String()
	h.answers.hot[attempt.ID] = map[string]string{q0: "A", q1: "C"}

	// Pin the clock 40s after the checkpoint.
	stored := h.store.attempts[attempt.ID]
	h.svc.now = func() time.Time { return stored.TimeCheckpointAt.Add(40 * time.Second) }

	state, err := h.svc.State(ctx, attempt.ID, h.student.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(state.Answers) != 2 {
		t.Errorf("hydrated %d answers, want 2", len(state.Answers))
	}
	want := attempt.RemainingSeconds - 40
	if state.RemainingSeconds != want {
		t.Errorf("remaining = %d, want %d (derived from checkpoint)", state.RemainingSeconds, want)
	}
	if state.CursorQuestionID == nil || *state.CursorQuestionID != attempt.QuestionOrder[2] {
		t.Errorf("cursor = %v, want first unanswered %s", state.CursorQuestionID, attempt.QuestionOrder[2])
	}
}

func TestStateRemainingNeverNegative(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	attempt := beginAttempt(t, h)

	stored := h.store.attempts[attempt.ID]
	h.svc.now = func() time.Time { return stored.TimeCheckpointAt.Add(100 * time.Hour) }

	state, err := h.svc.State(ctx, attempt.ID, h.student.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.RemainingSeconds != 0 {
		t.Errorf("remaining = %d, want 0 for an expired attempt", state.RemainingSeconds)
	}
}

func TestCheckpointRequiresInProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	attempt, _, _ := h.svc.StartOrResume(ctx, h.exam.ID, h.student)
	if err := h.svc.Checkpoint(ctx, attempt.ID, h.student.ID, 100); !errors.Is(err, ErrAttemptNotActive) {
		t.Fatalf("err = %v, want ErrAttemptNotActive", err)
	}

	got := beginAttempt(t, h)
	if err := h.svc.Checkpoint(ctx, got.ID, h.student.ID, 100); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if h.store.checkpoints[got.ID] != 100 {
		t.Errorf("checkpoint = %d, want 100", h.store.checkpoints[got.ID])
	}
}

func TestCheckpointChargesWallClock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	attempt := beginAttempt(t, h)

	clock := h.store.attempts[attempt.ID].TimeCheckpointAt
	h.store.now = func() time.Time { return clock }

	// A client claiming only one second spent per two seconds of wall
	// clock must still be charged the full elapsed time.
	for i := 0; i < 3; i++ {
		clock = clock.Add(2 * time.Second)
		claimed := h.store.attempts[attempt.ID].RemainingSeconds - 1
		if err := h.svc.Checkpoint(ctx, attempt.ID, h.student.ID, claimed); err != nil {
			t.Fatalf("checkpoint: %v", err)
		}
	}

	// 30 minutes minus the 6 elapsed seconds, not minus the 3 claimed.
	if got := h.store.attempts[attempt.ID].RemainingSeconds; got != 1794 {
		t.Errorf("remaining = %d, want 1794", got)
	}
}

func TestResultOnlyAfterSubmission(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	attempt := beginAttempt(t, h)

	if _, _, err := h.svc.Result(ctx, attempt.ID, h.student.ID); !errors.Is(err, ErrAttemptNotSubmitted) {
		t.Fatalf("err = %v, want ErrAttemptNotSubmitted", err)
	}

	h.answers.persisted[attempt.ID] = []model.ExamAnswer{{IsCorrect: true, SelectedOption: "A"}}
	if _, err := h.svc.Submit(ctx, attempt.ID, h.student.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	got, answers, err := h.svc.Result(ctx, attempt.ID, h.student.ID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if got.Status != model.AttemptStatusSubmitted {
		t.Errorf("status = %s, want SUBMITTED", got.Status)
	}
	if len(answers) != 1 {
		t.Errorf("got %d answers, want 1", len(answers))
	}
}

func TestPaperFollowsQuestionOrder(t *testing.T) {
	h := newHarness(t)
	h.exam.ShuffleQuestions = true
	ctx := context.Background()
	attempt := beginAttempt(t, h)

	paper, err := h.svc.Paper(ctx, attempt.ID, h.student.ID)
	if err != nil {
		t.Fatalf("paper: %v", err)
	}
	if len(paper) != len(attempt.QuestionOrder) {
		t.Fatalf("paper has %d questions, want %d", len(paper), len(attempt.QuestionOrder))
	}
	for i, q := range paper {
		if q.ID != attempt.QuestionOrder[i] {
			t.Fatalf("paper[%d] = %s, want %s (must follow the fixed order)", i, q.ID, attempt.QuestionOrder[i])
		}
	}
}
