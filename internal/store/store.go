package store

import (
	"errors"
	"sync"
	"time"
)

const (
	maxLogsPerConfig = 100
	defaultLogLimit  = 50

	minMovementInterval = 5
	maxMovementInterval = 120
)

// ErrNotFound is returned when a config id is unknown.
var ErrNotFound = errors.New("config not found")

// Store is the session repository: config CRUD, bounded per-session logs and
// one stats record per session. Implementations must be safe for concurrent
// use by many session workflows.
type Store interface {
	GetConfig(id int) (*BotConfig, error)
	ListConfigs() []*BotConfig
	CreateConfig(p ConfigParams) *BotConfig
	UpdateConfig(id int, u ConfigUpdate) (*BotConfig, error)
	DeleteConfig(id int) error

	AppendLog(configID int, category LogCategory, message string) *LogEntry
	ListLogs(configID, limit int) []*LogEntry
	ClearLogs(configID int)

	GetStats(configID int) (*BotStats, bool)
	UpsertStats(configID int, u StatsUpdate) *BotStats
}

// MemStore is the in-memory reference implementation of Store.
// Durability is an external concern.
type MemStore struct {
	mu       sync.RWMutex
	configs  map[int]*BotConfig
	logs     map[int][]*LogEntry
	stats    map[int]*BotStats
	configID int
	logID    int
	statsID  int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		configs: make(map[int]*BotConfig),
		logs:    make(map[int][]*LogEntry),
		stats:   make(map[int]*BotStats),
	}
}

func clampInterval(seconds int) int {
	if seconds < minMovementInterval {
		return minMovementInterval
	}
	if seconds > maxMovementInterval {
		return maxMovementInterval
	}
	return seconds
}

func (m *MemStore) GetConfig(id int) (*BotConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, ok := m.configs[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *cfg
	return &c, nil
}

func (m *MemStore) ListConfigs() []*BotConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*BotConfig, 0, len(m.configs))
	for _, cfg := range m.configs {
		c := *cfg
		result = append(result, &c)
	}
	return result
}

func (m *MemStore) CreateConfig(p ConfigParams) *BotConfig {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configID++
	cfg := &BotConfig{
		ID:                  m.configID,
		Name:                p.Name,
		ServerIP:            p.ServerIP,
		ServerPort:          p.ServerPort,
		Username:            p.Username,
		AccountType:         p.AccountType,
		MovementPattern:     p.MovementPattern,
		MovementInterval:    p.MovementInterval,
		AutoReconnect:       true,
		ChatResponse:        p.ChatResponse,
		AutoStart:           p.AutoStart,
		PersistentMode:      true,
		AllowAutoDisconnect: p.AllowAutoDisconnect,
		CreatedAt:           time.Now().UTC(),
	}

	// Defaults matching the dashboard's quick-config form.
	if cfg.ServerPort == 0 {
		cfg.ServerPort = 25565
	}
	if cfg.AccountType == "" {
		cfg.AccountType = AccountOffline
	}
	if cfg.MovementPattern == "" {
		cfg.MovementPattern = MoveCircular
	}
	if cfg.MovementInterval == 0 {
		cfg.MovementInterval = 30
	}
	cfg.MovementInterval = clampInterval(cfg.MovementInterval)
	if p.AutoReconnect != nil {
		cfg.AutoReconnect = *p.AutoReconnect
	}
	if p.PersistentMode != nil {
		cfg.PersistentMode = *p.PersistentMode
	}

	m.configs[cfg.ID] = cfg
	c := *cfg
	return &c
}

func (m *MemStore) UpdateConfig(id int, u ConfigUpdate) (*BotConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, ok := m.configs[id]
	if !ok {
		return nil, ErrNotFound
	}

	if u.Name != nil {
		cfg.Name = *u.Name
	}
	if u.ServerIP != nil {
		cfg.ServerIP = *u.ServerIP
	}
	if u.ServerPort != nil {
		cfg.ServerPort = *u.ServerPort
	}
	if u.Username != nil {
		cfg.Username = *u.Username
	}
	if u.AccountType != nil {
		cfg.AccountType = *u.AccountType
	}
	if u.MovementPattern != nil {
		cfg.MovementPattern = *u.MovementPattern
	}
	if u.MovementInterval != nil {
		cfg.MovementInterval = clampInterval(*u.MovementInterval)
	}
	if u.AutoReconnect != nil {
		cfg.AutoReconnect = *u.AutoReconnect
	}
	if u.ChatResponse != nil {
		cfg.ChatResponse = *u.ChatResponse
	}
	if u.AutoStart != nil {
		cfg.AutoStart = *u.AutoStart
	}
	if u.IsActive != nil {
		cfg.IsActive = *u.IsActive
	}
	if u.PersistentMode != nil {
		cfg.PersistentMode = *u.PersistentMode
	}
	if u.AllowAutoDisconnect != nil {
		cfg.AllowAutoDisconnect = *u.AllowAutoDisconnect
	}

	c := *cfg
	return &c, nil
}

func (m *MemStore) DeleteConfig(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.configs[id]; !ok {
		return ErrNotFound
	}
	delete(m.configs, id)
	delete(m.logs, id)
	delete(m.stats, id)
	return nil
}

func (m *MemStore) AppendLog(configID int, category LogCategory, message string) *LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logID++
	entry := &LogEntry{
		ID:        m.logID,
		ConfigID:  configID,
		Category:  category,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	logs := append(m.logs[configID], entry)
	if len(logs) > maxLogsPerConfig {
		logs = logs[len(logs)-maxLogsPerConfig:]
	}
	m.logs[configID] = logs

	e := *entry
	return &e
}

// ListLogs returns up to limit entries, newest first. A non-positive limit
// means the default of 50.
func (m *MemStore) ListLogs(configID, limit int) []*LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = defaultLogLimit
	}
	logs := m.logs[configID]
	if len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}

	result := make([]*LogEntry, len(logs))
	for i, entry := range logs {
		e := *entry
		result[len(logs)-1-i] = &e
	}
	return result
}

func (m *MemStore) ClearLogs(configID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.logs, configID)
}

func (m *MemStore) GetStats(configID int) (*BotStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats, ok := m.stats[configID]
	if !ok {
		return nil, false
	}
	s := *stats
	return &s, true
}

func (m *MemStore) UpsertStats(configID int, u StatsUpdate) *BotStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.stats[configID]
	if !ok {
		m.statsID++
		stats = &BotStats{
			ID:       m.statsID,
			ConfigID: configID,
			Status:   StatusOffline,
		}
		m.stats[configID] = stats
	}

	if u.Status != nil {
		stats.Status = *u.Status
	}
	if u.Uptime != nil {
		stats.Uptime = *u.Uptime
	}
	if u.ServerPing != nil {
		stats.ServerPing = *u.ServerPing
	}
	if u.Reconnections != nil {
		stats.Reconnections = *u.Reconnections
	}
	if u.LastPing != nil {
		stats.LastPing = *u.LastPing
	}
	stats.UpdatedAt = time.Now().UTC()

	s := *stats
	return &s
}
