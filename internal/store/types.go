package store

import "time"

// Status is the lifecycle status of a bot session as seen by observers.
type Status string

const (
	StatusOffline    Status = "offline"
	StatusConnecting Status = "connecting"
	StatusOnline     Status = "online"
	StatusError      Status = "error"
)

// AccountType selects how the bot authenticates with the server.
type AccountType string

const (
	AccountOffline       AccountType = "offline"
	AccountAuthenticated AccountType = "authenticated"
)

// MovementPattern selects the anti-AFK movement behavior.
type MovementPattern string

const (
	MoveCircular   MovementPattern = "circular"
	MoveRandom     MovementPattern = "random"
	MoveStationary MovementPattern = "stationary"
	MoveCustom     MovementPattern = "custom"
)

// LogCategory classifies a log entry.
type LogCategory string

const (
	LogInfo  LogCategory = "INFO"
	LogMove  LogCategory = "MOVE"
	LogChat  LogCategory = "CHAT"
	LogPing  LogCategory = "PING"
	LogError LogCategory = "ERROR"
	LogWarn  LogCategory = "WARN"
)

// BotConfig holds the stored configuration for one managed bot session.
type BotConfig struct {
	ID                  int             `json:"id"`
	Name                string          `json:"name"`
	ServerIP            string          `json:"serverIP"`
	ServerPort          int             `json:"serverPort"`
	Username            string          `json:"username"`
	AccountType         AccountType     `json:"accountType"`
	MovementPattern     MovementPattern `json:"movementPattern"`
	MovementInterval    int             `json:"movementInterval"` // seconds, clamped to [5,120]
	AutoReconnect       bool            `json:"autoReconnect"`
	ChatResponse        bool            `json:"chatResponse"`
	AutoStart           bool            `json:"autoStart"`
	IsActive            bool            `json:"isActive"`
	PersistentMode      bool            `json:"persistentMode"`
	AllowAutoDisconnect bool            `json:"allowAutoDisconnect"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// ConfigParams is the caller-supplied part of a new config. Zero values for
// port, account type, movement pattern and interval get defaults on create.
type ConfigParams struct {
	Name                string          `json:"name"`
	ServerIP            string          `json:"serverIP"`
	ServerPort          int             `json:"serverPort"`
	Username            string          `json:"username"`
	AccountType         AccountType     `json:"accountType"`
	MovementPattern     MovementPattern `json:"movementPattern"`
	MovementInterval    int             `json:"movementInterval"`
	AutoReconnect       *bool           `json:"autoReconnect"`
	ChatResponse        bool            `json:"chatResponse"`
	AutoStart           bool            `json:"autoStart"`
	PersistentMode      *bool           `json:"persistentMode"`
	AllowAutoDisconnect bool            `json:"allowAutoDisconnect"`
}

// ConfigUpdate is a partial update; nil fields are left unchanged.
type ConfigUpdate struct {
	Name                *string          `json:"name"`
	ServerIP            *string          `json:"serverIP"`
	ServerPort          *int             `json:"serverPort"`
	Username            *string          `json:"username"`
	AccountType         *AccountType     `json:"accountType"`
	MovementPattern     *MovementPattern `json:"movementPattern"`
	MovementInterval    *int             `json:"movementInterval"`
	AutoReconnect       *bool            `json:"autoReconnect"`
	ChatResponse        *bool            `json:"chatResponse"`
	AutoStart           *bool            `json:"autoStart"`
	IsActive            *bool            `json:"isActive"`
	PersistentMode      *bool            `json:"persistentMode"`
	AllowAutoDisconnect *bool            `json:"allowAutoDisconnect"`
}

// LogEntry is one line of a session's activity log.
type LogEntry struct {
	ID        int         `json:"id"`
	ConfigID  int         `json:"configId"`
	Category  LogCategory `json:"category"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// BotStats is the current statistics record for a session.
type BotStats struct {
	ID            int       `json:"id"`
	ConfigID      int       `json:"configId"`
	Status        Status    `json:"status"`
	Uptime        int       `json:"uptime"` // seconds of the current connection
	ServerPing    int       `json:"serverPing"`
	Reconnections int       `json:"reconnections"`
	LastPing      time.Time `json:"lastPing"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// StatsUpdate is a partial stats upsert; nil fields keep their current value.
type StatsUpdate struct {
	Status        *Status
	Uptime        *int
	ServerPing    *int
	Reconnections *int
	LastPing      *time.Time
}
