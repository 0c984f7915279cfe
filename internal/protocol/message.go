package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a server-originated message with the current timestamp.
func NewMessage(msgType string, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{
		Type:      msgType,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Server → Client message types.
const (
	TypeBotStatus = "bot.status"
	TypeBotLog    = "bot.log"
	TypeBotError  = "bot.error"
	TypeError     = "error"
)

// Client → Server message types.
const (
	TypeBotStart   = "bot.start"
	TypeBotStop    = "bot.stop"
	TypeBotRestart = "bot.restart"
	TypeBotChat    = "bot.chat"
)

// Error codes.
const (
	ErrConfigNotFound = "CONFIG_NOT_FOUND"
	ErrBotNotRunning  = "BOT_NOT_RUNNING"
	ErrStopBlocked    = "STOP_BLOCKED"
	ErrStartFailed    = "START_FAILED"
	ErrInvalidMessage = "INVALID_MESSAGE"
)

// Server → Client payloads.

type BotStatusPayload struct {
	ConfigID      int    `json:"configId"`
	Status        string `json:"status"`
	Uptime        int    `json:"uptime"`
	ServerPing    int    `json:"serverPing"`
	Reconnections int    `json:"reconnections"`
}

type BotLogPayload struct {
	ConfigID  int    `json:"configId"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type BotErrorPayload struct {
	ConfigID int    `json:"configId"`
	Error    string `json:"error"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Client → Server payloads.

type BotStartPayload struct {
	ConfigID int `json:"configId"`
}

type BotStopPayload struct {
	ConfigID int  `json:"configId"`
	Forced   bool `json:"forced"`
}

type BotRestartPayload struct {
	ConfigID int `json:"configId"`
}

type BotChatPayload struct {
	ConfigID int    `json:"configId"`
	Message  string `json:"message"`
}
