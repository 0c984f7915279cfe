package conn

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

const simEventBuf = 16

// SimDialer creates simulated in-process connections. It lets the server and
// dashboard run end to end without a real game server on the other side.
type SimDialer struct {
	// ConnectDelay is the simulated handshake time before the connected
	// event fires. Zero means 50ms.
	ConnectDelay time.Duration
}

// NewSimDialer returns a dialer with default timings.
func NewSimDialer() *SimDialer {
	return &SimDialer{}
}

func (d *SimDialer) Dial(ctx context.Context, opts Options) (Client, error) {
	delay := d.ConnectDelay
	if delay == 0 {
		delay = 50 * time.Millisecond
	}

	c := &simClient{
		username: opts.Username,
		events:   make(chan Event, simEventBuf),
		pos:      Position{X: 0.5, Y: 64, Z: 0.5},
		health:   20,
		ping:     20 + rand.Intn(40),
	}

	go func() {
		select {
		case <-ctx.Done():
			c.Disconnect("dial cancelled")
			return
		case <-time.After(delay):
		}
		c.mu.Lock()
		c.connected = true
		c.mu.Unlock()
		c.emit(Event{Type: EventConnected})
		c.emit(Event{Type: EventSpawned, Pos: c.Position()})
	}()

	return c, nil
}

type simClient struct {
	username string
	events   chan Event

	mu        sync.Mutex
	pos       Position
	yaw       float64
	health    float64
	ping      int
	connected bool
	closed    bool
}

func (c *simClient) Events() <-chan Event { return c.events }

func (c *simClient) emit(ev Event) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	select {
	case c.events <- ev:
	default:
		// Event buffer full, drop.
	}
}

func (c *simClient) Disconnect(reason string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	c.mu.Unlock()

	c.events <- Event{Type: EventEnded}
	close(c.events)
	return nil
}

func (c *simClient) SetMoving(dir Direction, on bool) error {
	if !on || dir == Jump {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Advance roughly half a block in the direction of travel.
	heading := c.yaw
	switch dir {
	case Back:
		heading += math.Pi
	case Left:
		heading += math.Pi / 2
	case Right:
		heading -= math.Pi / 2
	}
	c.pos.X += math.Cos(heading) * 0.5
	c.pos.Z += math.Sin(heading) * 0.5
	return nil
}

func (c *simClient) Face(yaw, pitch float64) error {
	c.mu.Lock()
	c.yaw = yaw
	c.mu.Unlock()
	return nil
}

func (c *simClient) SendChat(text string) error { return nil }

func (c *simClient) Respawn() error {
	c.mu.Lock()
	c.health = 20
	c.mu.Unlock()
	return nil
}

func (c *simClient) Position() Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

func (c *simClient) Yaw() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.yaw
}

func (c *simClient) Health() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health
}

func (c *simClient) Ping() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Jitter around the baseline so the dashboard has something to plot.
	return c.ping + rand.Intn(10)
}

func (c *simClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *simClient) Username() string { return c.username }
