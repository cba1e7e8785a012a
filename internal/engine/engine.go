package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"civic-quiz-engine/internal/domain"
	"civic-quiz-engine/internal/modes"
)

// ProgressStore persists session snapshots keyed by the composite progress
// key. Implementations must treat saves as idempotent overwrites; call sites
// here never let a store failure abort the quiz flow.
type ProgressStore interface {
	SaveProgress(ctx context.Context, key domain.ProgressKey, snap domain.Snapshot) error
	LoadProgress(ctx context.Context, key domain.ProgressKey) (domain.Snapshot, error)
	ClearProgress(ctx context.Context, key domain.ProgressKey) error
}

// QuestionSource loads topic content (from cache/backing store).
type QuestionSource interface {
	GetTopic(ctx context.Context, topicID string) (domain.Topic, error)
}

// Config wires one engine instance. Topic, Mode and Registry are required;
// everything else has a sensible zero value.
type Config struct {
	Topic    domain.Topic
	Mode     string
	Registry *modes.Registry
	Progress ProgressStore // nil disables persistence
	Settings domain.SettingsPatch

	UserID           string
	GuestToken       string
	SessionID        string // generated when empty
	ResumedAttemptID string // reuse a prior attempt id instead of minting one

	OnComplete func(domain.Results)
	OnRestore  func(domain.Snapshot)
	// OnAutoSubmit fires after the countdown submits an empty answer, so
	// callers driven by external clients can mirror the state change out.
	OnAutoSubmit func(domain.Answer)

	Clock        func() time.Time // test hook; defaults to time.Now
	TickInterval time.Duration    // test hook; defaults to one second
	AutoAdvance  *bool            // defaults to true
}

// Engine owns the canonical session state and orchestrates everything around
// the pure reducer: mode hooks, the countdown, persistence, and completion.
type Engine struct {
	mu       sync.Mutex
	session  domain.Session
	topic    domain.Topic
	mode     modes.GameMode
	store    ProgressStore
	key      domain.ProgressKey
	settings domain.Settings

	clock        func() time.Time
	tickInterval time.Duration
	autoAdvance  bool
	timeLimit    *int

	questionStartedAt time.Time
	hintShown         map[int]bool

	tmr            *ticker
	started        bool
	completedFired bool
	results        *domain.Results

	onComplete   func(domain.Results)
	onRestore    func(domain.Snapshot)
	onAutoSubmit func(domain.Answer)
}

var _ modes.Actions = (*Engine)(nil)

// New validates the configuration and builds an unstarted engine. An
// unregistered mode id or an empty question list fails here, before any
// session state exists.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Topic.Questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	registry := cfg.Registry
	if registry == nil {
		registry = modes.Default()
	}
	mode, err := registry.Resolve(cfg.Mode)
	if err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	autoAdvance := true
	if cfg.AutoAdvance != nil {
		autoAdvance = *cfg.AutoAdvance
	}

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	attemptID := cfg.ResumedAttemptID
	if attemptID == "" {
		attemptID = uuid.NewString()
	}

	settings := mode.DefaultSettings().Apply(cfg.Settings)

	var limit *int
	if tl, ok := mode.(modes.TimeLimiter); ok {
		limit = tl.TimeLimit(settings)
	} else {
		limit = modes.TimeLimitFromSettings(settings)
	}

	e := &Engine{
		session: domain.Session{
			SessionID:    sessionID,
			AttemptID:    attemptID,
			TopicID:      cfg.Topic.ID,
			Mode:         mode.Name(),
			Phase:        domain.PhaseLoading,
			ModeSettings: settings,
			Loading:      true,
		},
		topic: cfg.Topic,
		mode:  mode,
		store: cfg.Progress,
		key: domain.ProgressKey{
			UserID:     cfg.UserID,
			GuestToken: cfg.GuestToken,
			SessionID:  sessionID,
			TopicID:    cfg.Topic.ID,
			Mode:       mode.Name(),
		},
		settings:     settings,
		clock:        clock,
		tickInterval: tick,
		autoAdvance:  autoAdvance,
		timeLimit:    limit,
		hintShown:    make(map[int]bool),
		onComplete:   cfg.OnComplete,
		onRestore:    cfg.OnRestore,
		onAutoSubmit: cfg.OnAutoSubmit,
	}
	return e, nil
}

// Start runs initialization: restore any persisted snapshot for the composite
// key, seed mode state, fire the mode-start hook, then move to in_progress
// and start the countdown.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("engine already started")
	}

	var restored *domain.Snapshot
	if e.store != nil {
		if snap, err := e.store.LoadProgress(ctx, e.key); err == nil &&
			snap.TopicID == e.topic.ID && snap.Mode == e.mode.Name() {
			restored = &snap
		}
	}

	var initial any
	if init, ok := e.mode.(modes.Initializer); ok {
		initial = init.InitialState()
	}
	e.dispatchLocked(Action{Type: ActionInitialize, ModeState: initial})
	if restored != nil {
		e.dispatchLocked(Action{Type: ActionRestoreProgress, Snapshot: restored})
	}
	e.mu.Unlock()

	if restored != nil && e.onRestore != nil {
		e.onRestore(*restored)
	}

	if starter, ok := e.mode.(modes.ModeStarter); ok {
		if err := e.runHook(ctx, "mode start", func(hctx context.Context) error {
			return starter.OnModeStart(hctx, e.ModeContext())
		}); err != nil {
			return err
		}
	}

	e.mu.Lock()
	e.dispatchLocked(Action{Type: ActionStartQuiz, At: e.clock()})
	e.questionStartedAt = e.clock()
	if e.timeLimit != nil && e.session.TimeRemaining == nil {
		e.dispatchLocked(Action{Type: ActionTimerTick, Remaining: *e.timeLimit})
	}
	e.started = true
	e.mu.Unlock()

	if e.timeLimit != nil {
		e.tmr = startTicker(e.tickInterval, func() { e.tick(context.Background()) })
	}

	return e.fireQuestionStart(ctx)
}

// Submit runs the answer protocol for the current question: elapsed time is
// computed, the mode's validator may annotate or veto, the reducer records,
// persistence happens fire-and-forget, and the question-complete hook runs.
// The returned bool reports whether the answer was accepted.
func (e *Engine) Submit(ctx context.Context, value string) (domain.Answer, bool, error) {
	e.mu.Lock()
	if err := e.activeLocked(); err != nil {
		e.mu.Unlock()
		return domain.Answer{}, false, err
	}
	index := e.session.CurrentQuestionIndex
	if _, ok := e.session.AnswerAt(index); ok {
		e.mu.Unlock()
		return domain.Answer{}, false, domain.ErrAlreadyAnswered
	}
	question := e.topic.Questions[index]
	provisional := domain.Answer{
		QuestionIndex:    index,
		Value:            value,
		Correct:          value != "" && value == question.CorrectOptionID,
		TimeSpentSeconds: int(e.clock().Sub(e.questionStartedAt).Seconds()),
		HintUsed:         e.hintShown[index],
	}
	e.mu.Unlock()

	answer := provisional
	if validator, ok := e.mode.(modes.AnswerValidator); ok {
		accepted := false
		err := e.runHook(ctx, "answer submit", func(hctx context.Context) error {
			var hookErr error
			answer, accepted, hookErr = validator.OnAnswerSubmit(hctx, provisional, e.ModeContext())
			return hookErr
		})
		if err != nil {
			return domain.Answer{}, false, err
		}
		if !accepted {
			// Veto: normal control flow, no state mutation, no persistence write.
			return answer, false, nil
		}
		answer.QuestionIndex = index
	}

	e.mu.Lock()
	if _, ok := e.session.AnswerAt(index); ok {
		// A timer auto-submit won the race while the validator was running.
		e.mu.Unlock()
		return domain.Answer{}, false, domain.ErrAlreadyAnswered
	}
	e.dispatchLocked(Action{Type: ActionAnswerQuestion, Answer: answer})
	answered := len(e.session.Answers)
	e.mu.Unlock()

	if completer, ok := e.mode.(modes.QuestionCompleter); ok {
		if err := e.runHook(ctx, "question complete", func(hctx context.Context) error {
			return completer.OnQuestionComplete(hctx, answer, e.ModeContext())
		}); err != nil {
			return answer, true, err
		}
	}

	if answered == len(e.topic.Questions) {
		// No snapshot write here: completion clears persisted progress.
		return answer, true, e.complete(ctx)
	}

	var err error
	if e.autoAdvance {
		err = e.Next()
	}

	// Mirror the post-answer state fire-and-forget; a failure costs
	// durability for this write, never quiz progress.
	e.mu.Lock()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.persistAsync(snap)

	return answer, true, err
}

// Skip submits an empty answer when the mode allows skipping.
func (e *Engine) Skip(ctx context.Context) (domain.Answer, bool, error) {
	if !e.settings.AllowSkip {
		return domain.Answer{}, false, domain.ErrSkipNotAllowed
	}
	return e.Submit(ctx, "")
}

// ShowHint reveals the current question's hint when the mode allows hints.
// Hint usage is remembered so scoring policies can reward or ignore it.
func (e *Engine) ShowHint() (string, bool) {
	e.mu.Lock()
	if !e.settings.ShowHints || e.session.Phase != domain.PhaseInProgress {
		e.mu.Unlock()
		return "", false
	}
	index := e.session.CurrentQuestionIndex
	hint := e.topic.Questions[index].Hint
	if hint == "" {
		e.mu.Unlock()
		return "", false
	}
	firstUse := !e.hintShown[index]
	e.hintShown[index] = true
	if firstUse {
		if reducer, ok := e.mode.(modes.StateReducer); ok {
			next := reducer.ReduceModeState(e.session.ModeState, modes.Action{Type: "HINT_USED"})
			e.dispatchLocked(Action{Type: ActionUpdateModeState, ModeState: next})
		}
	}
	e.mu.Unlock()
	return hint, true
}

// Next advances to the next reachable question. The clamp keeps navigation
// within [0, first unanswered question].
func (e *Engine) Next() error {
	return e.navigate(Action{Type: ActionNextQuestion})
}

// Previous steps back one question.
func (e *Engine) Previous() error {
	return e.navigate(Action{Type: ActionPreviousQuestion})
}

// GoTo jumps to an already-reachable question index.
func (e *Engine) GoTo(index int) error {
	return e.navigate(Action{Type: ActionGoToQuestion, Index: index})
}

func (e *Engine) navigate(a Action) error {
	e.mu.Lock()
	if err := e.activeLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	before := e.session.CurrentQuestionIndex
	e.dispatchLocked(a)
	moved := e.session.CurrentQuestionIndex != before
	if moved {
		e.questionStartedAt = e.clock()
		if e.timeLimit != nil {
			e.dispatchLocked(Action{Type: ActionTimerTick, Remaining: *e.timeLimit})
		}
	}
	e.mu.Unlock()

	if moved {
		return e.fireQuestionStart(context.Background())
	}
	return nil
}

// tick is driven once per interval by the countdown goroutine. It is never
// blocked by pending hooks; the already-answered guard in Submit absorbs the
// race between a slow validator and the countdown hitting zero.
func (e *Engine) tick(ctx context.Context) {
	e.mu.Lock()
	if !e.started || e.session.Phase != domain.PhaseInProgress ||
		e.session.Paused || e.session.TimeRemaining == nil {
		e.mu.Unlock()
		return
	}
	remaining := *e.session.TimeRemaining - 1
	e.dispatchLocked(Action{Type: ActionTimerTick, Remaining: remaining})
	index := e.session.CurrentQuestionIndex
	_, answered := e.session.AnswerAt(index)
	e.mu.Unlock()

	if remaining <= 0 && !answered {
		// Timeout: auto-submit a skip, scored as an ordinary incorrect answer.
		answer, accepted, err := e.Submit(ctx, "")
		if err != nil && err != domain.ErrAlreadyAnswered {
			log.Printf("quiz %s: auto-submit after timeout: %v", e.session.SessionID, err)
		}
		if accepted && e.onAutoSubmit != nil {
			e.onAutoSubmit(answer)
		}
	}
}

// complete assembles the results, lets the mode attach its summary, flips the
// session to completed exactly once, clears persisted progress and notifies
// the caller.
func (e *Engine) complete(ctx context.Context) error {
	e.mu.Lock()
	if e.completedFired {
		e.mu.Unlock()
		return nil
	}
	results := e.assembleResultsLocked()
	e.mu.Unlock()

	if completer, ok := e.mode.(modes.ModeCompleter); ok {
		if err := e.runHook(ctx, "mode complete", func(hctx context.Context) error {
			return completer.OnModeComplete(hctx, &results, e.ModeContext())
		}); err != nil {
			return err
		}
	}

	e.mu.Lock()
	if e.completedFired {
		e.mu.Unlock()
		return nil
	}
	e.completedFired = true
	e.dispatchLocked(Action{Type: ActionCompleteQuiz, FinalScore: results.Score})
	e.results = &results
	e.mu.Unlock()

	if e.tmr != nil {
		e.tmr.Stop()
	}
	if e.store != nil {
		if err := e.store.ClearProgress(ctx, e.key); err != nil {
			log.Printf("quiz %s: clear progress: %v", e.session.SessionID, err)
		}
	}
	if e.onComplete != nil {
		e.onComplete(results)
	}
	return nil
}

func (e *Engine) assembleResultsLocked() domain.Results {
	total := len(e.topic.Questions)
	correct := e.session.CorrectCount()
	score := 0
	if scorer, ok := e.mode.(modes.Scorer); ok {
		score = scorer.CalculateScore(e.session.Answers, e.topic.Questions)
	} else {
		score = modes.PercentScore(e.session.Answers, e.topic.Questions)
	}

	spent := 0
	breakdown := make([]domain.QuestionResult, 0, total)
	for i, q := range e.topic.Questions {
		item := domain.QuestionResult{Question: q}
		if a, ok := e.session.AnswerAt(i); ok {
			item.UserAnswer = a.Value
			item.IsCorrect = a.Correct
			spent += a.TimeSpentSeconds
		}
		breakdown = append(breakdown, item)
	}

	return domain.Results{
		TotalQuestions:   total,
		CorrectAnswers:   correct,
		IncorrectAnswers: total - correct,
		Score:            score,
		TimeTaken:        int(e.clock().Sub(e.session.StartedAt).Seconds()),
		TimeSpentSeconds: spent,
		Questions:        breakdown,
	}
}

// UpdateModeState replaces the opaque mode-owned state.
func (e *Engine) UpdateModeState(state any) {
	e.mu.Lock()
	e.dispatchLocked(Action{Type: ActionUpdateModeState, ModeState: state})
	e.mu.Unlock()
}

// UpdateMetadata applies a mutation to the game metadata bag.
func (e *Engine) UpdateMetadata(update func(*domain.Metadata)) {
	e.mu.Lock()
	e.dispatchLocked(Action{Type: ActionUpdateGameMetadata, UpdateMetadata: update})
	e.mu.Unlock()
}

// ShowModal sets the active modal id.
func (e *Engine) ShowModal(id string) {
	e.mu.Lock()
	e.dispatchLocked(Action{Type: ActionShowModal, Modal: id})
	e.mu.Unlock()
}

// HideModal clears the active modal.
func (e *Engine) HideModal() {
	e.mu.Lock()
	e.dispatchLocked(Action{Type: ActionHideModal})
	e.mu.Unlock()
}

// Pause suspends the countdown without leaving in_progress.
func (e *Engine) Pause() {
	e.mu.Lock()
	e.dispatchLocked(Action{Type: ActionSetPaused, Paused: true})
	e.mu.Unlock()
}

// Resume re-enables the countdown.
func (e *Engine) Resume() {
	e.mu.Lock()
	e.dispatchLocked(Action{Type: ActionSetPaused, Paused: false})
	e.mu.Unlock()
}

// SaveProgress writes the current snapshot synchronously; the facade variant
// for modes that want an explicit checkpoint.
func (e *Engine) SaveProgress(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	e.mu.Lock()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	return e.store.SaveProgress(ctx, e.key, snap)
}

// ClearProgress removes any persisted snapshot for this session.
func (e *Engine) ClearProgress(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	return e.store.ClearProgress(ctx, e.key)
}

// Reload rebuilds the session from scratch after a fatal hook error. It is
// the single recovery action the error state offers.
func (e *Engine) Reload(ctx context.Context) error {
	// Outside the lock: an in-flight tick may be waiting on it.
	if e.tmr != nil {
		e.tmr.StopWait()
	}
	e.mu.Lock()
	e.tmr = nil
	e.session = domain.Session{
		SessionID:    e.session.SessionID,
		AttemptID:    e.session.AttemptID,
		TopicID:      e.topic.ID,
		Mode:         e.mode.Name(),
		Phase:        domain.PhaseLoading,
		ModeSettings: e.settings,
		Loading:      true,
	}
	e.hintShown = make(map[int]bool)
	e.started = false
	e.completedFired = false
	e.results = nil
	e.mu.Unlock()
	return e.Start(ctx)
}

// Close tears the countdown down and waits for any in-flight tick, so a
// dangling tick never submits into a dead session or fires callbacks after
// the caller has released its resources. Idempotent.
func (e *Engine) Close() {
	if e.tmr != nil {
		e.tmr.StopWait()
	}
}

// Session returns a copy of the canonical state.
func (e *Engine) Session() domain.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Results returns the final results once the session has completed.
func (e *Engine) Results() (domain.Results, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.results == nil {
		return domain.Results{}, false
	}
	return *e.results, true
}

// Resumed reports whether the session was rehydrated from a snapshot.
func (e *Engine) Resumed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Restored
}

// Mode exposes the resolved game mode for capability checks by the transport.
func (e *Engine) Mode() modes.GameMode { return e.mode }

// Key returns the composite progress key.
func (e *Engine) Key() domain.ProgressKey { return e.key }

// Topic returns the topic driving this session.
func (e *Engine) Topic() domain.Topic { return e.topic }

// ModeContext builds the read view + actions facade handed to mode hooks.
func (e *Engine) ModeContext() *modes.Context {
	return &modes.Context{
		Session: e.Session(),
		Topic:   e.topic,
		Key:     e.key,
		Actions: e,
	}
}

func (e *Engine) fireQuestionStart(ctx context.Context) error {
	if starter, ok := e.mode.(modes.QuestionStarter); ok {
		return e.runHook(ctx, "question start", func(hctx context.Context) error {
			return starter.OnQuestionStart(hctx, e.ModeContext())
		})
	}
	return nil
}

// runHook shields the engine from misbehaving mode hooks: a panic or error is
// converted into the session's error state instead of a silent stall.
func (e *Engine) runHook(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s hook panicked: %v", name, r)
		}
		if err != nil {
			e.setError(err)
		}
	}()
	return fn(ctx)
}

func (e *Engine) setError(err error) {
	e.mu.Lock()
	e.dispatchLocked(Action{Type: ActionSetError, Err: err.Error()})
	e.mu.Unlock()
}

func (e *Engine) activeLocked() error {
	switch e.session.Phase {
	case domain.PhaseInProgress:
		return nil
	case domain.PhaseCompleted:
		return domain.ErrSessionCompleted
	default:
		return domain.ErrQuizNotActive
	}
}

func (e *Engine) dispatchLocked(a Action) {
	e.session = reduce(e.session, e.topic.Questions, a)
}

// persistAsync mirrors state to the progress store without blocking the quiz
// flow; failures cost durability for that write, nothing else.
func (e *Engine) persistAsync(snap domain.Snapshot) {
	if e.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.store.SaveProgress(ctx, e.key, snap); err != nil {
			log.Printf("quiz %s: save progress: %v", snap.AttemptID, err)
		}
	}()
}

func (e *Engine) snapshotLocked() domain.Snapshot {
	answers := make(map[string]string, len(e.session.Answers))
	times := make(map[string]int, len(e.session.Answers))
	categories := make(map[string]int)
	for _, a := range e.session.Answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= len(e.topic.Questions) {
			continue
		}
		q := e.topic.Questions[a.QuestionIndex]
		answers[q.ID] = a.Value
		times[q.ID] = a.TimeSpentSeconds
		if a.Correct && q.Category != "" {
			categories[q.Category]++
		}
	}
	snap := domain.Snapshot{
		TopicID:              e.topic.ID,
		Mode:                 e.mode.Name(),
		AttemptID:            e.session.AttemptID,
		CurrentQuestionIndex: e.session.CurrentQuestionIndex,
		Answers:              answers,
		Score:                e.session.Score,
		CorrectAnswers:       e.session.CorrectCount(),
		Streak:               e.session.Streak,
		MaxStreak:            e.session.MaxStreak,
		TimeRemaining:        e.session.TimeRemaining,
		StartTime:            e.session.StartedAt,
		QuestionTimes:        times,
		IsCompleted:          e.session.IsCompleted,
		ShowResults:          e.session.ShowResults,
		ModeState:            e.session.ModeState,
		GameMetadata:         e.session.GameMetadata,
		SavedAt:              e.clock(),
	}
	if len(categories) > 0 {
		snap.CategoryScores = categories
	}
	return snap
}
