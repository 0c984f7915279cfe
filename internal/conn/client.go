// Package conn defines the boundary to the game-protocol client: the Client
// capability handle, its event stream, and a Dialer for creating connections.
// The wire protocol itself lives behind this boundary and is not implemented
// here; the package ships a simulated client for local use and tests.
package conn

import "context"

// Direction is a movement control channel on the client.
type Direction string

const (
	Forward Direction = "forward"
	Back    Direction = "back"
	Left    Direction = "left"
	Right   Direction = "right"
	Jump    Direction = "jump"
)

// Position is the bot's location in the world.
type Position struct {
	X, Y, Z float64
}

// EventType identifies a lifecycle event emitted by a connection.
type EventType string

const (
	EventConnected EventType = "connected"
	EventSpawned   EventType = "spawned"
	EventChat      EventType = "chat"
	EventHealth    EventType = "health"
	EventDied      EventType = "died"
	EventKicked    EventType = "kicked"
	EventErrored   EventType = "errored"
	EventEnded     EventType = "ended"
)

// Event is one lifecycle notification. Only the fields relevant to the
// event type are set.
type Event struct {
	Type   EventType
	Pos    Position // spawned
	From   string   // chat
	Text   string   // chat
	Health float64  // health
	Reason string   // kicked
	Err    error    // errored
}

// Options configures one connection attempt.
type Options struct {
	Host          string
	Port          int
	Username      string
	Authenticated bool
}

// Client is a live connection to a remote server. Events are delivered in
// the order they occur; the channel is closed after the ended event.
type Client interface {
	Events() <-chan Event

	Disconnect(reason string) error
	SetMoving(dir Direction, on bool) error
	Face(yaw, pitch float64) error
	SendChat(text string) error
	Respawn() error

	Position() Position
	Yaw() float64
	Health() float64
	Ping() int
	Connected() bool
	Username() string
}

// Dialer creates connections. Dial returns once the connection attempt has
// been initiated; success or failure of the handshake arrives as events.
type Dialer interface {
	Dial(ctx context.Context, opts Options) (Client, error)
}
