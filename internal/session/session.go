// Package session holds the state a front end keeps between generations:
// the current cycle, recent history and the last error, with guards that
// stop the same operation from running twice at once.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dyluth/quartet/internal/logger"
	"github.com/dyluth/quartet/pkg/lesson"
	"github.com/google/uuid"
)

var (
	// ErrBusy is returned when the same operation is already in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrNoCurrentCycle is returned when a stage is regenerated before any
	// cycle exists.
	ErrNoCurrentCycle = errors.New("no current cycle")
	// ErrArchive wraps a failed archive write. The in-memory state is
	// updated regardless.
	ErrArchive = errors.New("archive write failed")
)

// DefaultHistorySize bounds the in-memory history.
const DefaultHistorySize = 20

// Generator produces cycles and stages.
type Generator interface {
	GenerateCycle() *lesson.Cycle
	RegenerateStage(role string) (*lesson.Stage, error)
}

// Archive persists cycles. *lesson.Client implements it.
type Archive interface {
	SaveCycle(ctx context.Context, cycle *lesson.Cycle) error
	GetCycle(ctx context.Context, cycleID string) (*lesson.Cycle, error)
	ReplaceStage(ctx context.Context, cycleID string, stage *lesson.Stage) error
	SetCurrent(ctx context.Context, cycleID string) error
	GetCurrent(ctx context.Context) (string, error)
	Trim(ctx context.Context, max int) (int, error)
}

// Options configures a Session. Every field is optional.
type Options struct {
	Archive     Archive
	MaxArchived int // 0 keeps every archived cycle
	HistorySize int
	Logger      *logger.Logger
}

// Session is safe for concurrent use.
type Session struct {
	id      string
	gen     Generator
	archive Archive
	opts    Options
	log     *logger.Logger

	mu       sync.Mutex
	current  *lesson.Cycle
	history  []*lesson.Cycle
	count    int
	lastErr  string
	inFlight map[string]bool
}

// New returns a Session with a fresh id.
func New(gen Generator, opts Options) *Session {
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		gen:      gen,
		archive:  opts.Archive,
		opts:     opts,
		log:      logger.OrNop(opts.Logger).With("session", id),
		inFlight: make(map[string]bool),
	}
}

// ID returns the session's UUID, stamped into every cycle it generates.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) acquire(op string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[op] {
		return false
	}
	s.inFlight[op] = true
	return true
}

func (s *Session) release(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, op)
}

// Generate produces a new cycle and makes it current. When archiving fails
// the cycle is still returned, together with an error wrapping ErrArchive.
func (s *Session) Generate(ctx context.Context) (*lesson.Cycle, error) {
	if !s.acquire("generate") {
		return nil, ErrBusy
	}
	defer s.release("generate")

	cycle := s.gen.GenerateCycle()
	cycle.Metadata.Session = s.id

	s.mu.Lock()
	s.current = cycle
	s.history = append([]*lesson.Cycle{cycle}, s.history...)
	if len(s.history) > s.opts.HistorySize {
		s.history = s.history[:s.opts.HistorySize]
	}
	s.count++
	s.lastErr = ""
	s.mu.Unlock()

	s.log.Info("cycle ready", "id", cycle.ID, "context", cycle.ContextName(), "fallback", cycle.Metadata.Fallback)

	if err := s.persist(ctx, cycle); err != nil {
		return cycle, s.fail(fmt.Errorf("%w: %w", ErrArchive, err))
	}
	return cycle, nil
}

func (s *Session) persist(ctx context.Context, cycle *lesson.Cycle) error {
	if s.archive == nil {
		return nil
	}
	if err := s.archive.SaveCycle(ctx, cycle); err != nil {
		return err
	}
	if err := s.archive.SetCurrent(ctx, cycle.ID); err != nil {
		return err
	}
	removed, err := s.archive.Trim(ctx, s.opts.MaxArchived)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.log.Debug("trimmed archive", "removed", removed)
	}
	return nil
}

// Regenerate replaces one role's stage in the current cycle. Regenerations
// of different roles may run concurrently; the same role may not.
func (s *Session) Regenerate(ctx context.Context, role string) (*lesson.Stage, error) {
	r, err := lesson.ParseRole(role)
	if err != nil {
		return nil, s.fail(err)
	}
	op := "regenerate:" + r.Key()
	if !s.acquire(op) {
		return nil, ErrBusy
	}
	defer s.release(op)

	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if current == nil {
		return nil, s.fail(ErrNoCurrentCycle)
	}

	stage, err := s.gen.RegenerateStage(r.Key())
	if err != nil {
		return nil, s.fail(fmt.Errorf("failed to regenerate %s: %w", r.DisplayName(), err))
	}

	s.mu.Lock()
	if s.current != current {
		s.mu.Unlock()
		return nil, s.fail(errors.New("current cycle changed during regeneration"))
	}
	err = current.ReplaceStage(stage)
	if err == nil {
		s.lastErr = ""
	}
	s.mu.Unlock()
	if err != nil {
		return nil, s.fail(err)
	}

	s.log.Info("stage replaced", "cycle", current.ID, "role", r.Key())

	if s.archive != nil {
		if err := s.archive.ReplaceStage(ctx, current.ID, stage); err != nil {
			return stage, s.fail(fmt.Errorf("%w: %w", ErrArchive, err))
		}
	}
	return stage, nil
}

// Hydrate loads the archive's current cycle into the session. A missing
// archive or an archive with no current cycle is not an error.
func (s *Session) Hydrate(ctx context.Context) error {
	if s.archive == nil {
		return nil
	}
	id, err := s.archive.GetCurrent(ctx)
	if lesson.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return s.fail(err)
	}
	cycle, err := s.archive.GetCycle(ctx, id)
	if lesson.IsNotFound(err) {
		s.log.Warn("current cycle missing from archive", "id", id)
		return nil
	}
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.current = cycle
	s.history = []*lesson.Cycle{cycle}
	s.mu.Unlock()
	s.log.Debug("session hydrated", "id", id)
	return nil
}

// Current returns the current cycle, or nil.
func (s *Session) Current() *lesson.Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// History returns recent cycles, newest first.
func (s *Session) History() []*lesson.Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*lesson.Cycle(nil), s.history...)
}

// Count is the number of cycles generated by this session.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// LastError is the message of the most recent failure, cleared by the next
// success.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Reset forgets the current cycle, history, count and last error.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.history = nil
	s.count = 0
	s.lastErr = ""
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.log.Warn("session operation failed", "error", err)
	return err
}
