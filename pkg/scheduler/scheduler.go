// Package scheduler owns the three ordered sources described in spec
// §4.7: the per-actor command queue, the timer min-heap, and the
// heart-beat wheel, serialized through a single writer per universe.
package scheduler

import (
	"container/heap"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/mudforge/pkg/combat"
	"github.com/cuemby/mudforge/pkg/hostapi"
	"github.com/cuemby/mudforge/pkg/log"
	"github.com/cuemby/mudforge/pkg/metrics"
	"github.com/cuemby/mudforge/pkg/muderrs"
	"github.com/cuemby/mudforge/pkg/mutation"
	"github.com/cuemby/mudforge/pkg/rng"
	"github.com/cuemby/mudforge/pkg/router"
	"github.com/cuemby/mudforge/pkg/sandbox"
)

// tickInterval governs how often the loop wakes to drain queued commands
// and re-check pending timers/heart-beats for readiness; a submitted
// command waits for the next tick.
const tickInterval = 50 * time.Millisecond

// heartBeatMinInterval is the floor from spec §4.5's set_heart_beat.
const heartBeatMinInterval = 500 * time.Millisecond

// Command is one admitted line of input, already attributed to an
// actor and universe by the SessionGateway.
type Command struct {
	ActorID    string
	Text       string
	ArrivalSeq int64
}

// CommandResolver maps one admitted command to the script source and
// dispatch target that must run for it — a built-in verb handler or a
// user-defined class handler reached through the Action Table. mudforge
// only depends on this interface; the concrete command grammar is an
// out-of-scope transport/content concern that implementations supply.
type CommandResolver interface {
	Resolve(universe, actorID, text string) (source, objectID, verb string, err error)
}

// Committer proposes one committed unit of work through the Consensus
// Layer and reports leadership, letting the scheduler stay ignorant of
// Raft specifics.
type Committer interface {
	IsLeader() bool
	Commit(universe, actorID, text string, seq, nowMS, rngSeed int64, intents []mutation.Intent, messages router.Batch) error
}

type timerItem struct {
	id       string
	objectID string
	method   string
	fireAt   int64
	args     []any
	seq      int64
	index    int
}

type timerHeap []*timerItem

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].fireAt != h[j].fireAt {
		return h[i].fireAt < h[j].fireAt
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *timerHeap) Push(x any) {
	item := x.(*timerItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

type heartBeat struct {
	objectID   string
	intervalMS int64
	nextFireAt int64
}

// Scheduler is the single-writer execution loop for one universe.
type Scheduler struct {
	universe  string
	resolver  CommandResolver
	committer Committer
	sandbox   *sandbox.Sandbox
	host      *hostapi.API
	router    *router.Router
	combat    *combat.Engine
	logger    zerolog.Logger

	mu         sync.Mutex
	commands   chan Command
	arrivalSeq int64
	timers     timerHeap
	timerByID  map[string]*timerItem
	heartbeats map[string]*heartBeat

	clock  func() int64
	stopCh chan struct{}
}

// New creates a Scheduler for one universe. clock defaults to the
// system wall clock in milliseconds; tests may override it.
func New(universe string, resolver CommandResolver, committer Committer, sb *sandbox.Sandbox, host *hostapi.API, rtr *router.Router) *Scheduler {
	return &Scheduler{
		universe:   universe,
		resolver:   resolver,
		committer:  committer,
		sandbox:    sb,
		host:       host,
		router:     rtr,
		logger:     log.WithComponent("scheduler").With().Str("universe", universe).Logger(),
		commands:   make(chan Command, 256),
		timerByID:  make(map[string]*timerItem),
		heartbeats: make(map[string]*heartBeat),
		clock:      func() int64 { return time.Now().UnixMilli() },
		stopCh:     make(chan struct{}),
	}
}

// SetCombatEngine attaches the fallback combat resolver a living's
// heart-beat runs when it has no scripted heart_beat handler of its own,
// per spec §4.9's combat loop.
func (s *Scheduler) SetCombatEngine(e *combat.Engine) {
	s.combat = e
}

// Start begins the execution loop on its own goroutine. Different
// universes run on independent Schedulers, per spec §4.7/§5.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop halts the execution loop.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

// Submit admits a command into the queue, preserving per-actor arrival
// order; cross-actor order is the global arrival sequence.
func (s *Scheduler) Submit(actorID, text string) {
	s.mu.Lock()
	s.arrivalSeq++
	seq := s.arrivalSeq
	s.mu.Unlock()
	s.commands <- Command{ActorID: actorID, Text: text, ArrivalSeq: seq}
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	s.logger.Info().Msg("scheduler started")

	for {
		select {
		case <-s.stopCh:
			s.logger.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			for s.stepOnce() {
			}
			s.reportQueueDepth()
		}
	}
}

// stepOnce pops and executes the single highest-priority ready item —
// a command, else a due timer, else a due heart-beat — per spec §4.7's
// tie-break order. Returns false once nothing is ready.
func (s *Scheduler) stepOnce() bool {
	select {
	case cmd := <-s.commands:
		s.runCommand(cmd)
		return true
	default:
	}

	if item, ok := s.popDueTimer(); ok {
		s.runTimer(item)
		return true
	}

	if hb, ok := s.popDueHeartbeat(); ok {
		s.runHeartbeat(hb)
		return true
	}

	return false
}

func (s *Scheduler) reportQueueDepth() {
	s.mu.Lock()
	depth := len(s.timers) + len(s.heartbeats)
	s.mu.Unlock()
	metrics.SchedulerQueueDepth.WithLabelValues(s.universe, "timers_and_heartbeats").Set(float64(depth))
	metrics.SchedulerQueueDepth.WithLabelValues(s.universe, "commands").Set(float64(len(s.commands)))
}

func (s *Scheduler) runCommand(cmd Command) {
	if !s.committer.IsLeader() {
		return
	}
	source, objectID, verb, err := s.resolver.Resolve(s.universe, cmd.ActorID, cmd.Text)
	if err != nil {
		s.logger.Warn().Err(err).Str("actor_id", cmd.ActorID).Msg("command resolution failed")
		metrics.CommandsProcessed.WithLabelValues(s.universe, "resolve_error").Inc()
		return
	}
	execCtx := sandbox.ExecContext{ActorID: cmd.ActorID, UniverseID: s.universe, ObjectID: objectID, Verb: verb, CommandSeq: cmd.ArrivalSeq}
	s.execute(source, execCtx, cmd.ActorID, cmd.Text, cmd.ArrivalSeq)
}

func (s *Scheduler) runTimer(item *timerItem) {
	if !s.committer.IsLeader() {
		return
	}
	source, _, _, err := s.resolver.Resolve(s.universe, "", item.objectID+"."+item.method)
	if err != nil {
		s.logger.Warn().Err(err).Str("object_id", item.objectID).Msg("timer handler not found, dropped")
		return
	}
	execCtx := sandbox.ExecContext{UniverseID: s.universe, ObjectID: item.objectID, Verb: item.method, CommandSeq: item.seq}
	s.execute(source, execCtx, "", item.method, item.seq)
}

func (s *Scheduler) runHeartbeat(hb *heartBeat) {
	if !s.committer.IsLeader() {
		return
	}
	source, _, _, err := s.resolver.Resolve(s.universe, "", hb.objectID+".heart_beat")
	if err != nil {
		// No scripted heart_beat handler. A living with no handler still
		// falls through to the built-in combat loop (spec §4.9) as long as
		// the object itself is still there; only a genuinely deleted
		// object drops its heart-beat.
		if s.combat != nil {
			if obj, gerr := s.host.Graph.Get(hb.objectID); gerr == nil && obj != nil {
				s.runCombatHeartbeat(hb.objectID)
				return
			}
		}
		s.mu.Lock()
		delete(s.heartbeats, hb.objectID)
		s.mu.Unlock()
		return
	}
	execCtx := sandbox.ExecContext{UniverseID: s.universe, ObjectID: hb.objectID, Verb: "heart_beat"}
	s.execute(source, execCtx, "", "heart_beat", 0)
}

// runCombatHeartbeat drives one living's built-in combat tick and commits
// its result through the same Committer/Router pipeline execute uses, so
// followers replay the exact health/metadata changes the leader applied.
func (s *Scheduler) runCombatHeartbeat(objectID string) {
	s.mu.Lock()
	s.arrivalSeq++
	seq := s.arrivalSeq
	s.mu.Unlock()

	r := rng.Seed(s.universe, seq, objectID)
	msgs, updates, ok, err := s.combat.Tick(r, objectID)
	if err != nil {
		s.logger.Warn().Err(err).Str("object_id", objectID).Msg("combat heart-beat failed")
		return
	}
	if !ok {
		return
	}

	intents := make([]mutation.Intent, 0, len(updates))
	for _, u := range updates {
		intents = append(intents, mutation.Intent{Kind: mutation.KindUpdate, Payload: map[string]interface{}{"id": u.ObjectID, "changes": u.Changes}})
	}
	batch := router.Batch{Universe: s.universe, Messages: msgs}

	nowMS := s.clock()
	commitTimer := metrics.NewTimer()
	err = s.committer.Commit(s.universe, "", "heart_beat", seq, nowMS, 0, intents, batch)
	commitTimer.ObserveDuration(metrics.RaftCommitDuration)
	if err != nil {
		s.logger.Error().Err(err).Msg("combat heart-beat commit failed")
		return
	}
	s.router.Flush(batch)
}

// execute runs one sandboxed script to completion and, on success,
// commits its staged mutations and flushes its staged messages. Any
// error — script exception, resource limit, permission denial —
// discards the whole execution; nothing it touched is ever applied.
func (s *Scheduler) execute(source string, execCtx sandbox.ExecContext, actorID, text string, seq int64) {
	timer := metrics.NewTimer()
	result, err := s.sandbox.Run(source, s.host, execCtx)
	if err != nil {
		metrics.SandboxAborts.WithLabelValues(abortKind(err)).Inc()
		metrics.SandboxExecutions.WithLabelValues("aborted").Inc()
		metrics.CommandsProcessed.WithLabelValues(s.universe, "aborted").Inc()
		s.logger.Info().Err(err).Str("object_id", execCtx.ObjectID).Msg("execution aborted")
		return
	}
	timer.ObserveDuration(metrics.SandboxExecutionDuration)
	metrics.SandboxExecutions.WithLabelValues("ok").Inc()
	_ = result

	collector := s.host.LastCollector()
	if collector == nil || collector.Aborted() {
		return
	}

	nowMS := s.clock()
	commitTimer := metrics.NewTimer()
	err = s.committer.Commit(s.universe, actorID, text, seq, nowMS, 0, collector.Intents(), collector.MessageBatch())
	commitTimer.ObserveDuration(metrics.RaftCommitDuration)
	if err != nil {
		s.logger.Error().Err(err).Msg("commit failed")
		metrics.CommandsProcessed.WithLabelValues(s.universe, "commit_failed").Inc()
		return
	}
	metrics.CommandsProcessed.WithLabelValues(s.universe, "ok").Inc()
	s.router.Flush(collector.MessageBatch())
}

func abortKind(err error) string {
	if re, ok := err.(*muderrs.ResourceExceeded); ok {
		return string(re.Kind)
	}
	return "script_error"
}

// --- Timer heap ---

// SetCallOut implements hostapi.TimerSink: schedules a one-shot fire
// at now + delay, bound to this_object.
func (s *Scheduler) SetCallOut(universe, objectID, method string, delaySeconds float64, args []any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.arrivalSeq++
	item := &timerItem{
		id:       id,
		objectID: objectID,
		method:   method,
		fireAt:   s.clock() + int64(delaySeconds*1000),
		args:     args,
		seq:      s.arrivalSeq,
	}
	heap.Push(&s.timers, item)
	s.timerByID[id] = item
	return id, nil
}

// RemoveCallOut implements hostapi.TimerSink.
func (s *Scheduler) RemoveCallOut(universe, timerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.timerByID[timerID]
	if !ok {
		return false
	}
	heap.Remove(&s.timers, item.index)
	delete(s.timerByID, timerID)
	return true
}

// FindCallOut implements hostapi.TimerSink.
func (s *Scheduler) FindCallOut(universe, objectID, method string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	for _, item := range s.timers {
		if item.objectID == objectID && item.method == method {
			return float64(item.fireAt-now) / 1000.0, true
		}
	}
	return 0, false
}

func (s *Scheduler) popDueTimer() (*timerItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil, false
	}
	top := s.timers[0]
	if top.fireAt > s.clock() {
		return nil, false
	}
	heap.Pop(&s.timers)
	delete(s.timerByID, top.id)
	return top, true
}

// --- Heart-beat wheel ---

// SetHeartBeat implements hostapi.TimerSink. intervalMS of 0 disables
// the heart-beat; values below heartBeatMinInterval are clamped up.
func (s *Scheduler) SetHeartBeat(universe, objectID string, intervalMS int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if intervalMS == 0 {
		delete(s.heartbeats, objectID)
		return
	}
	if intervalMS < heartBeatMinInterval.Milliseconds() {
		intervalMS = heartBeatMinInterval.Milliseconds()
	}
	s.heartbeats[objectID] = &heartBeat{
		objectID:   objectID,
		intervalMS: intervalMS,
		nextFireAt: s.clock() + intervalMS,
	}
}

func (s *Scheduler) popDueHeartbeat() (*heartBeat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	for id, hb := range s.heartbeats {
		if hb.nextFireAt <= now {
			hb.nextFireAt = now + hb.intervalMS
			_ = id
			return hb, true
		}
	}
	return nil, false
}
