package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"alcyxob/workout-tracker/internal/domain"

	log "github.com/sirupsen/logrus"
)

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("calendar session closed")

// noticeBuffer bounds undelivered notices; older ones are dropped first.
const noticeBuffer = 16

// Notice reports a failure the user should know about. Local state is kept.
type Notice struct {
	Op  string // "persist" or "refetch"
	Err error
	At  time.Time
}

func (n Notice) Error() string {
	return fmt.Sprintf("%s: %v", n.Op, n.Err)
}

type pendingWrite struct {
	snapshot domain.CalendarData
	mutation *Mutation
}

// Session keeps the local copy of a user's calendar in sync with a Store.
//
// Local mutations are applied immediately and queued for persistence in order.
// Remote change signals land on an invalidation channel consumed by a single
// refetch task; a refetch replaces the local copy (last refetch wins) but never
// drops a queued write.
type Session struct {
	store   Store
	mstore  MutationStore // nil when the store only persists whole aggregates
	baseCtx context.Context

	mu   sync.Mutex
	data domain.CalendarData

	invalidations chan struct{}
	changes       chan struct{}
	notices       chan Notice

	queueMu sync.Mutex
	queue   []pendingWrite
	wake    chan struct{}
	closing bool

	stopRefetch context.CancelFunc
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// NewSession subscribes to store, loads the calendar and starts the refetch and
// persist tasks. Close must be called when the session is no longer needed.
func NewSession(ctx context.Context, store Store) (*Session, error) {
	s := &Session{
		store:         store,
		baseCtx:       context.WithoutCancel(ctx),
		invalidations: make(chan struct{}, 1),
		changes:       make(chan struct{}, 1),
		notices:       make(chan Notice, noticeBuffer),
		wake:          make(chan struct{}, 1),
	}
	if ms, ok := store.(MutationStore); ok {
		s.mstore = ms
	}

	// subscribe before the first fetch so no change falls in between
	if err := store.Subscribe(s.Invalidate); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	data, err := store.Fetch(ctx)
	if err != nil {
		store.Unsubscribe()
		return nil, fmt.Errorf("initial fetch: %w", err)
	}
	s.data = domain.Normalize(data)

	refetchCtx, cancel := context.WithCancel(s.baseCtx)
	s.stopRefetch = cancel
	s.wg.Add(2)
	go s.refetchLoop(refetchCtx)
	go s.persistLoop()
	return s, nil
}

// Calendar returns a copy of the current local calendar.
func (s *Session) Calendar() domain.CalendarData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Changes signals, coalesced, that the local calendar was replaced or mutated.
// It is closed by Close.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

// Notices delivers persist and refetch failures. It is closed by Close.
func (s *Session) Notices() <-chan Notice {
	return s.notices
}

// Invalidate marks the local copy stale. Pending invalidations coalesce into a
// single refetch. Safe to call from any goroutine, including store callbacks.
func (s *Session) Invalidate() {
	select {
	case s.invalidations <- struct{}{}:
	default:
	}
}

// Schedule adds planID to dateKey and queues the change for persistence.
// It reports whether the local calendar changed; a closed session changes nothing.
func (s *Session) Schedule(planID, dateKey string) bool {
	changed, _ := s.mutate(Mutation{Op: OpSchedule, PlanID: planID, DateKey: dateKey})
	return changed
}

// Unschedule removes planID from dateKey.
func (s *Session) Unschedule(planID, dateKey string) bool {
	changed, _ := s.mutate(Mutation{Op: OpUnschedule, PlanID: planID, DateKey: dateKey})
	return changed
}

// SavePlan adds or edits a plan in place.
func (s *Session) SavePlan(plan domain.WorkoutPlan) error {
	plan = plan.Clone()
	_, err := s.mutate(Mutation{Op: OpSavePlan, PlanID: plan.ID, Plan: &plan})
	return err
}

// DeletePlan removes a plan and its schedule references. Deleting an unknown
// plan is a no-op.
func (s *Session) DeletePlan(planID string) error {
	_, err := s.mutate(Mutation{Op: OpDeletePlan, PlanID: planID})
	return err
}

// mutate applies m locally and queues it, both under queueMu, so a closed
// session is left untouched and the queue keeps the order changes were applied in.
func (s *Session) mutate(m Mutation) (bool, error) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if s.closing {
		return false, ErrSessionClosed
	}

	s.mu.Lock()
	before := s.data
	after := m.Apply(before)
	if !m.changes(before, after) {
		s.mu.Unlock()
		return false, nil
	}
	s.data = after
	snapshot := after.Clone()
	s.mu.Unlock()

	s.queue = append(s.queue, pendingWrite{snapshot: snapshot, mutation: &m})
	// signalled under queueMu so Close cannot close changes in between
	s.signalChange()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true, nil
}

func (s *Session) persistLoop() {
	defer s.wg.Done()
	for {
		s.queueMu.Lock()
		if len(s.queue) == 0 {
			closing := s.closing
			s.queueMu.Unlock()
			if closing {
				return
			}
			<-s.wake
			continue
		}
		w := s.queue[0]
		s.queue = s.queue[1:]
		s.queueMu.Unlock()

		if err := s.write(w); err != nil {
			log.Errorf("calendar session: persist: %s", err)
			s.notify(Notice{Op: "persist", Err: err, At: time.Now()})
		}
	}
}

func (s *Session) write(w pendingWrite) error {
	if w.mutation != nil && s.mstore != nil {
		return s.mstore.ApplyMutation(s.baseCtx, *w.mutation)
	}
	return s.store.Persist(s.baseCtx, w.snapshot)
}

func (s *Session) refetchLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.invalidations:
		}

		data, err := s.store.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warnf("calendar session: refetch: %s", err)
			s.notify(Notice{Op: "refetch", Err: err, At: time.Now()})
			continue
		}

		s.mu.Lock()
		s.data = domain.Normalize(data)
		s.mu.Unlock()
		s.signalChange()
	}
}

func (s *Session) notify(n Notice) {
	for {
		select {
		case s.notices <- n:
			return
		default:
		}
		// full: drop the oldest undelivered notice
		select {
		case <-s.notices:
		default:
		}
	}
}

func (s *Session) signalChange() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Close unsubscribes, stops the refetch task and waits for queued writes to be
// persisted. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.store.Unsubscribe()
		s.stopRefetch()

		s.queueMu.Lock()
		s.closing = true
		s.queueMu.Unlock()
		select {
		case s.wake <- struct{}{}:
		default:
		}

		s.wg.Wait()
		close(s.notices)
		close(s.changes)
	})
}
