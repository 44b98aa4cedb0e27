package contextmgr

import (
	"sync"

	"contextwindow/pkg/logx"
)

// Store is the Persistence Port: load/store an EditLog keyed by task id.
// load must never fail its own caller for a missing or corrupt record — it
// degrades to an empty log. store is best-effort; the Manager logs and
// swallows any error it returns.
type Store interface {
	Load(taskID string) (*EditLog, error)
	Store(taskID string, log *EditLog) error
}

// Clock returns the current wall-clock instant in milliseconds since epoch.
// Monotonicity is not required, only a consistent ordering within one call.
type Clock func() int64

// MetricsRecorder receives observability signals from a Manager. A nil
// Recorder is valid: every call site on Manager checks for nil before
// invoking it, so metrics are strictly additive and never affect behavior.
type MetricsRecorder interface {
	ObserveProcess(elided, truncated bool, tokensUsed int)
	ObserveRollback()
}

// Config tunes a Manager's budget arithmetic and eviction aggressiveness.
type Config struct {
	// ReservedResponseTokens is subtracted from the model's effective_max
	// before comparing against the previous request's token count.
	ReservedResponseTokens int
	// TokenBuffer is an additional safety margin subtracted alongside
	// ReservedResponseTokens.
	TokenBuffer int
	// TruncationFraction is φ, the fraction of the evictable tail removed on
	// a truncation. Zero means "use the default" (0.5).
	TruncationFraction float64
}

// Manager is the C8 Manager Facade: it orchestrates the Persistence Port,
// Duplicate Elider, Edit Applier, Budget Oracle, and Truncator into the
// single process operation a caller needs per turn, plus updateModel and
// rollbackAtTimestamp for the two other externally visible state changes.
//
// A Manager is single-threaded from its own perspective per the spec's
// concurrency model, but serializes its own operations with an internal
// mutex as a defensive measure against accidental concurrent use for the
// same task id.
type Manager struct {
	taskID    string
	store     Store
	tokenizer Tokenizer
	notices   NoticeFormatter
	clock     Clock
	cfg       Config
	metrics   MetricsRecorder
	log       *logx.Logger

	mu            sync.Mutex
	loaded        bool
	liveLog       *EditLog
	model         *ModelDescriptor
	warnedNoModel bool
}

// NewManager constructs a Manager for taskID. The edit log is lazily loaded
// from store on the first Process or RollbackAtTimestamp call; UpdateModel
// does not touch the edit log.
func NewManager(taskID string, store Store, tokenizer Tokenizer, cfg Config, opts ...Option) *Manager {
	m := &Manager{
		taskID:    taskID,
		store:     store,
		tokenizer: tokenizer,
		notices:   DefaultNotices{},
		clock:     defaultClock,
		cfg:       cfg,
		log:       logx.NewLogger("contextmgr"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Option customizes a Manager at construction time.
type Option func(*Manager)

// WithNoticeFormatter overrides the default (unlocalized) NoticeFormatter.
func WithNoticeFormatter(n NoticeFormatter) Option {
	return func(m *Manager) { m.notices = n }
}

// WithClock overrides the default wall-clock Clock, primarily for tests.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger overrides the default logger.
func WithLogger(l *logx.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithMetrics attaches a MetricsRecorder. A nil recorder (the default) is inert.
func WithMetrics(r MetricsRecorder) Option {
	return func(m *Manager) { m.metrics = r }
}

func defaultClock() int64 {
	return nowMillis()
}

// ProcessResult is the outcome of a single Manager.Process call.
type ProcessResult struct {
	PreparedHistory History
	Log             *EditLog
	TokensUsed      int
	WasTruncated    bool
}

// Process runs one full preparation cycle: duplicate elision, edit
// application, budget check, and (if the previous request overflowed)
// truncation. It always returns a valid, submittable prepared history — at
// worst the raw history unchanged — and never propagates a persistence or
// application error to the caller.
func (m *Manager) Process(raw History, prevRequestTokens int) ProcessResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureLoaded()
	now := m.clock()

	// Step 1: candidate log via duplicate elision, seeded by the live log.
	candidate, newlyAdded := planDuplicateElision(raw, m.liveLog, m.notices, now)
	elided := !newlyAdded.IsEmpty()

	// Step 2: H1 = apply(raw, live_log); H2 = apply(H1, newly-added edits only).
	h1 := Apply(raw, m.liveLog, m.notices, m.log)
	h2 := Apply(h1, newlyAdded, m.notices, m.log)

	// Step 3: budget.
	if m.model == nil && !m.warnedNoModel {
		m.log.Warn("no model descriptor set for task %s, assuming default context window", m.taskID)
		m.warnedNoModel = true
	}
	budget := ComputeBudget(m.model)
	effectiveBudget := budget.EffectiveMax - m.cfg.ReservedResponseTokens - m.cfg.TokenBuffer
	if effectiveBudget <= 0 {
		m.log.Error("effective budget for task %s is non-positive (%d); returning raw history untouched", m.taskID, effectiveBudget)
		tokensUsed := EstimateTokens(raw, m.tokenizer)
		m.recordProcess(false, false, tokensUsed)
		return ProcessResult{PreparedHistory: raw, Log: m.liveLog, TokensUsed: tokensUsed, WasTruncated: false}
	}

	// Step 4: truncation, triggered by the previous request's measured tokens.
	hTruncated, lFinal, wasTruncated := Truncate(h2, candidate, effectiveBudget, prevRequestTokens, m.cfg.TruncationFraction, now, m.log)

	// Truncate only records the add_truncation_notice edit in lFinal; it
	// never writes the notice text into the returned history. Run the
	// Applier once more so the notice (and any edit ShiftIndices re-keyed)
	// actually lands in the prepared history, per the C6->C5->C7->C5 flow.
	hFinal := Apply(hTruncated, lFinal, m.notices, m.log)

	// Step 5: measure the final prepared history.
	tokensUsed := EstimateTokens(hFinal, m.tokenizer)

	// Step 6: persist iff the log actually changed.
	if !lFinal.Equal(m.liveLog) {
		m.liveLog = lFinal
		if err := m.store.Store(m.taskID, m.liveLog); err != nil {
			m.log.Warn("failed to persist edit log for task %s: %v", m.taskID, err)
		}
	}

	m.recordProcess(elided, wasTruncated, tokensUsed)

	return ProcessResult{PreparedHistory: hFinal, Log: m.liveLog, TokensUsed: tokensUsed, WasTruncated: wasTruncated}
}

// UpdateModel replaces the Manager's ModelDescriptor iff it differs
// structurally from the current one.
func (m *Manager) UpdateModel(desc *ModelDescriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.model.Equal(desc) {
		return
	}
	m.model = desc
	m.warnedNoModel = false
	m.log.Info("model descriptor updated for task %s: %+v", m.taskID, desc)
}

// RollbackAtTimestamp removes every edit with timestamp > t from the live
// log, persisting only if the log actually changed.
func (m *Manager) RollbackAtTimestamp(t int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureLoaded()

	before := m.liveLog.Clone()
	m.liveLog.RollbackAtTimestamp(t)

	if !m.liveLog.Equal(before) {
		if err := m.store.Store(m.taskID, m.liveLog); err != nil {
			m.log.Warn("failed to persist edit log for task %s after rollback: %v", m.taskID, err)
		}
		if m.metrics != nil {
			m.metrics.ObserveRollback()
		}
	}
}

func (m *Manager) ensureLoaded() {
	if m.loaded {
		return
	}
	log, err := m.store.Load(m.taskID)
	if err != nil {
		m.log.Warn("failed to load edit log for task %s: %v", m.taskID, err)
	}
	if log == nil {
		log = NewEditLog()
	}
	m.liveLog = log
	m.loaded = true
}

func (m *Manager) recordProcess(elided, truncated bool, tokensUsed int) {
	if m.metrics != nil {
		m.metrics.ObserveProcess(elided, truncated, tokensUsed)
	}
}
