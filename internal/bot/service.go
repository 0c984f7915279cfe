// Package bot implements the session orchestrator: it owns the lifecycle of
// every managed AFK connection, reacts to connection events, enforces
// persistent-mode stop protection and drives the reconnect policy.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"afkbot/internal/conn"
	"afkbot/internal/store"
)

// Orchestrator error taxonomy. Repository and broadcast failures are
// best-effort and never surface here.
var (
	ErrConfigNotFound = errors.New("bot configuration not found")
	ErrNotRunning     = errors.New("bot is not running")
	ErrStopBlocked    = errors.New("stop blocked by persistent mode")
)

// Broadcaster fans lifecycle notifications out to attached observers.
// Implemented by the realtime server; a nil broadcaster is allowed.
type Broadcaster interface {
	BotStatus(configID int, stats *store.BotStats)
	BotLog(entry *store.LogEntry)
	BotError(configID int, message string)
}

// Service manages all bot sessions. One instance owns the full id→session
// map; sessions never touch each other's state.
type Service struct {
	store store.Store
	dial  conn.Dialer

	mu       sync.Mutex
	sessions map[int]*session
	pending  map[int]*time.Timer // scheduled restarts, keyed by config id
	locks    map[int]*sync.Mutex // serializes start/stop per config id
	bc       Broadcaster

	rngMu sync.Mutex
	rng   *rand.Rand

	wg sync.WaitGroup

	// Timing knobs, fixed in production and shrunk by tests.
	respawnDelay    time.Duration
	kickedDelay     time.Duration
	erroredDelay    time.Duration
	restartDelay    time.Duration
	reconnectBase   time.Duration
	reconnectStep   time.Duration
	reconnectMax    time.Duration
	reconnectFlat   time.Duration
	sampleEvery     time.Duration
	moveEvery       time.Duration // 0 means use the config's interval
	chatDelayMin    time.Duration
	chatDelayJitter time.Duration
}

// session is the transient runtime state for one live connection attempt.
type session struct {
	client    conn.Client
	startedAt time.Time
	cancel    context.CancelFunc
}

// New creates an orchestrator on top of the given repository and dialer.
func New(st store.Store, dialer conn.Dialer) *Service {
	return &Service{
		store:    st,
		dial:     dialer,
		sessions: make(map[int]*session),
		pending:  make(map[int]*time.Timer),
		locks:    make(map[int]*sync.Mutex),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),

		respawnDelay:    2 * time.Second,
		kickedDelay:     10 * time.Second,
		erroredDelay:    8 * time.Second,
		restartDelay:    2 * time.Second,
		reconnectBase:   5 * time.Second,
		reconnectStep:   2 * time.Second,
		reconnectMax:    30 * time.Second,
		reconnectFlat:   5 * time.Second,
		sampleEvery:     30 * time.Second,
		chatDelayMin:    time.Second,
		chatDelayJitter: 2 * time.Second,
	}
}

// SetBroadcaster attaches the observer fan-out. Call once during wiring,
// before any session is started.
func (s *Service) SetBroadcaster(bc Broadcaster) {
	s.mu.Lock()
	s.bc = bc
	s.mu.Unlock()
}

// Start connects the session for the given config id. Any existing live
// connection for the id is torn down first, so at most one connection per
// id ever exists. A dial failure is reported to the caller and is not
// retried here; only a live connection's later failure triggers the
// reconnect policy.
func (s *Service) Start(id int) error {
	lock := s.idLock(id)
	lock.Lock()
	defer lock.Unlock()

	// An internal restart is not a user stop: tear down unconditionally.
	s.teardown(id, "Restarting AFK bot")

	cfg, err := s.store.GetConfig(id)
	if err != nil {
		return fmt.Errorf("session %d: %w", id, ErrConfigNotFound)
	}

	s.addLog(id, store.LogInfo, fmt.Sprintf("Connecting to %s:%d...", cfg.ServerIP, cfg.ServerPort))

	client, err := s.dial.Dial(context.Background(), conn.Options{
		Host:          cfg.ServerIP,
		Port:          cfg.ServerPort,
		Username:      cfg.Username,
		Authenticated: cfg.AccountType == store.AccountAuthenticated,
	})
	if err != nil {
		s.addLog(id, store.LogError, "Failed to start bot: "+err.Error())
		s.setStatus(id, store.StatusError)
		return fmt.Errorf("session %d: dial: %w", id, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.sessions[id] = &session{client: client, startedAt: time.Now(), cancel: cancel}
	s.mu.Unlock()

	active := true
	if _, err := s.store.UpdateConfig(id, store.ConfigUpdate{IsActive: &active}); err != nil {
		log.Printf("session %d: mark active: %v", id, err)
	}

	// Reconnections carry over across restarts; uptime starts fresh.
	connecting := store.StatusConnecting
	uptime := 0
	s.updateStats(id, store.StatsUpdate{Status: &connecting, Uptime: &uptime})

	s.wg.Add(1)
	go s.react(ctx, id, cfg, client)
	return nil
}

// Stop disconnects the session. Without forced, a persistent-mode session
// refuses to stop and nothing is torn down. Any pending scheduled reconnect
// is cancelled either way, so a stopped session cannot come back on its own.
func (s *Service) Stop(id int, forced bool) error {
	lock := s.idLock(id)
	lock.Lock()
	defer lock.Unlock()

	cfg, _ := s.store.GetConfig(id)

	s.mu.Lock()
	sess := s.sessions[id]
	s.mu.Unlock()

	if sess == nil {
		s.cancelPending(id)
		return fmt.Errorf("session %d: %w", id, ErrNotRunning)
	}

	if cfg != nil && cfg.PersistentMode && !forced {
		s.addLog(id, store.LogWarn, "Stop request blocked - bot is in persistent mode. Use force stop to override.")
		return fmt.Errorf("session %d: %w", id, ErrStopBlocked)
	}

	reason := "Stopping AFK bot"
	if forced {
		reason = "Force stopping AFK bot (persistent mode overridden)"
	}
	s.teardown(id, reason)

	active := false
	if _, err := s.store.UpdateConfig(id, store.ConfigUpdate{IsActive: &active}); err != nil {
		log.Printf("session %d: mark inactive: %v", id, err)
	}
	s.setStatus(id, store.StatusOffline)
	s.addLog(id, store.LogInfo, reason)
	return nil
}

// Restart force-stops the session and starts it again after a short delay.
func (s *Service) Restart(id int) error {
	if _, err := s.store.GetConfig(id); err != nil {
		return fmt.Errorf("session %d: %w", id, ErrConfigNotFound)
	}
	if err := s.Stop(id, true); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	s.scheduleStart(id, s.restartDelay)
	return nil
}

// SendChat sends a chat line through a running session and logs it.
func (s *Service) SendChat(id int, text string) error {
	s.mu.Lock()
	sess := s.sessions[id]
	s.mu.Unlock()

	if sess == nil {
		return fmt.Errorf("session %d: %w", id, ErrNotRunning)
	}
	if err := sess.client.SendChat(text); err != nil {
		return fmt.Errorf("session %d: send chat: %w", id, err)
	}
	s.addLog(id, store.LogChat, fmt.Sprintf("<%s> %s", sess.client.Username(), text))
	return nil
}

// SessionStatus is a point-in-time view of one session.
type SessionStatus struct {
	Running   bool            `json:"running"`
	Connected bool            `json:"connected"`
	Stats     *store.BotStats `json:"stats"`
}

// ConfigStatus pairs a stored config with its live status.
type ConfigStatus struct {
	Config *store.BotConfig `json:"config"`
	Status SessionStatus    `json:"status"`
}

// Status reports whether a session is running and its persisted stats.
// Pure read, no side effects.
func (s *Service) Status(id int) SessionStatus {
	s.mu.Lock()
	sess := s.sessions[id]
	s.mu.Unlock()

	stats, _ := s.store.GetStats(id)
	status := SessionStatus{Stats: stats}
	if sess != nil {
		status.Running = true
		status.Connected = sess.client.Connected()
	}
	return status
}

// AllStatuses returns the status of every known config, ordered by id.
func (s *Service) AllStatuses() []ConfigStatus {
	configs := s.store.ListConfigs()
	sort.Slice(configs, func(i, j int) bool { return configs[i].ID < configs[j].ID })

	result := make([]ConfigStatus, 0, len(configs))
	for _, cfg := range configs {
		result = append(result, ConfigStatus{Config: cfg, Status: s.Status(cfg.ID)})
	}
	return result
}

// Shutdown force-stops every session and cancels all pending restarts.
func (s *Service) Shutdown() {
	s.mu.Lock()
	ids := make([]int, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.Stop(id, true); err != nil && !errors.Is(err, ErrNotRunning) {
			log.Printf("session %d: shutdown stop: %v", id, err)
		}
	}
	s.wg.Wait()
}

// cleanup drops the session's runtime state and cancels its goroutines and
// any pending restart timer. Safe to call when nothing is set.
func (s *Service) cleanup(id int) {
	s.mu.Lock()
	sess := s.sessions[id]
	delete(s.sessions, id)
	if t, ok := s.pending[id]; ok {
		t.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if sess != nil {
		sess.cancel()
	}
}

// teardown is cleanup plus disconnecting the live client, in that order so
// the disconnect's ended event is never handled as a real disconnect.
func (s *Service) teardown(id int, reason string) {
	s.mu.Lock()
	sess := s.sessions[id]
	s.mu.Unlock()

	s.cleanup(id)
	if sess != nil {
		if err := sess.client.Disconnect(reason); err != nil {
			log.Printf("session %d: disconnect: %v", id, err)
		}
	}
}

// scheduleStart arms a restart timer for the id, replacing any already
// pending one.
func (s *Service) scheduleStart(id int, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.pending[id]; ok {
		t.Stop()
	}
	s.pending[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		if err := s.Start(id); err != nil {
			log.Printf("session %d: scheduled start: %v", id, err)
		}
	})
}

// idLock returns the mutex serializing lifecycle transitions for one id.
// Different ids never share a lock, so sessions cannot block one another.
func (s *Service) idLock(id int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// scheduleReconnect arms a restart only while the given client is still the
// session's current one; a concurrent stop or restart wins otherwise.
func (s *Service) scheduleReconnect(id int, client conn.Client, delay time.Duration) {
	lock := s.idLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	sess := s.sessions[id]
	s.mu.Unlock()
	if sess == nil || sess.client != client {
		return
	}
	s.scheduleStart(id, delay)
}

func (s *Service) cancelPending(id int) {
	s.mu.Lock()
	if t, ok := s.pending[id]; ok {
		t.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()
}

// reconnectDelay implements the sole backoff rule: persistent sessions back
// off linearly with the reconnection count up to a cap, everything else
// retries at a flat delay. Attempt count is never bounded.
func (s *Service) reconnectDelay(persistent bool, reconnections int) time.Duration {
	if !persistent {
		return s.reconnectFlat
	}
	delay := s.reconnectBase + time.Duration(reconnections)*s.reconnectStep
	if delay > s.reconnectMax {
		delay = s.reconnectMax
	}
	return delay
}

func (s *Service) broadcaster() Broadcaster {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bc
}

// addLog appends a log entry and broadcasts it. Best effort.
func (s *Service) addLog(id int, category store.LogCategory, message string) {
	entry := s.store.AppendLog(id, category, message)
	if bc := s.broadcaster(); bc != nil && entry != nil {
		bc.BotLog(entry)
	}
}

// updateStats upserts the stats record and broadcasts the result.
func (s *Service) updateStats(id int, u store.StatsUpdate) *store.BotStats {
	stats := s.store.UpsertStats(id, u)
	if bc := s.broadcaster(); bc != nil && stats != nil {
		bc.BotStatus(id, stats)
	}
	return stats
}

func (s *Service) setStatus(id int, status store.Status) {
	s.updateStats(id, store.StatsUpdate{Status: &status})
}

func (s *Service) randIntn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *Service) randFloat() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}
