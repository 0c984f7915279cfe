package realtime

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"afkbot/internal/bot"
	"afkbot/internal/protocol"
	"afkbot/internal/store"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pingInterval  = 30 * time.Second
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow localhost origins for dev.
	},
}

// Server manages the dashboard WebSocket connections and routes control
// messages to the orchestrator. It is also the orchestrator's event
// broadcaster: every status, log and error notification fans out to all
// connected clients.
type Server struct {
	bots      *bot.Service
	store     store.Store
	staticDir string

	clients   map[*client]bool
	clientsMu sync.RWMutex
}

type client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// New creates a new realtime server. Attach it to the orchestrator with
// bot.Service.SetBroadcaster.
func New(bots *bot.Service, st store.Store, staticDir string) *Server {
	return &Server{
		bots:      bots,
		store:     st,
		staticDir: staticDir,
		clients:   make(map[*client]bool),
	}
}

// Handler returns an http.Handler with all routes configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint.
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API endpoints.
	mux.HandleFunc("GET /api/configs", s.handleListConfigs)
	mux.HandleFunc("POST /api/configs", s.handleCreateConfig)
	mux.HandleFunc("GET /api/configs/{id}", s.handleGetConfig)
	mux.HandleFunc("PUT /api/configs/{id}", s.handleUpdateConfig)
	mux.HandleFunc("DELETE /api/configs/{id}", s.handleDeleteConfig)

	mux.HandleFunc("POST /api/configs/{id}/start", s.handleStartBot)
	mux.HandleFunc("POST /api/configs/{id}/stop", s.handleStopBot)
	mux.HandleFunc("POST /api/configs/{id}/restart", s.handleRestartBot)

	mux.HandleFunc("GET /api/configs/{id}/status", s.handleGetStatus)
	mux.HandleFunc("GET /api/status", s.handleAllStatuses)

	mux.HandleFunc("GET /api/configs/{id}/logs", s.handleGetLogs)
	mux.HandleFunc("DELETE /api/configs/{id}/logs", s.handleClearLogs)
	mux.HandleFunc("GET /api/configs/{id}/stats", s.handleGetStats)

	// Static file serving.
	if s.staticDir != "" {
		fileServer := http.FileServer(http.Dir(s.staticDir))
		mux.Handle("/", fileServer)
	}

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleWebSocket upgrades an HTTP connection to WebSocket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	c := &client{
		id:     uuid.New().String(),
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	s.clientsMu.Lock()
	s.clients[c] = true
	s.clientsMu.Unlock()

	// Send the current state of every session to the new client.
	s.sendCurrentStatuses(c)

	go c.writePump()
	go c.readPump()
}

// sendCurrentStatuses pushes one bot.status message per known config so a
// fresh dashboard starts from the live state.
func (s *Server) sendCurrentStatuses(c *client) {
	for _, cs := range s.bots.AllStatuses() {
		stats := cs.Status.Stats
		if stats == nil {
			stats = &store.BotStats{ConfigID: cs.Config.ID, Status: store.StatusOffline}
		}
		msg, err := protocol.NewMessage(protocol.TypeBotStatus, statusPayload(cs.Config.ID, stats))
		if err != nil {
			continue
		}
		data, _ := json.Marshal(msg)
		select {
		case c.send <- data:
		default:
		}
	}
}

// readPump reads messages from the WebSocket connection.
func (c *client) readPump() {
	defer func() {
		c.server.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error (client %s): %v", c.id, err)
			}
			return
		}

		c.server.handleMessage(c, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// removeClient cleans up a disconnected client.
func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.clientsMu.Unlock()
}

// handleMessage processes a validated client message.
func (s *Server) handleMessage(c *client, raw []byte) {
	msg, err := protocol.ValidateClientMessage(raw)
	if err != nil {
		s.sendError(c, protocol.ErrInvalidMessage, err.Error())
		return
	}

	switch msg.Type {
	case protocol.TypeBotStart:
		var payload protocol.BotStartPayload
		json.Unmarshal(msg.Payload, &payload)
		if err := s.bots.Start(payload.ConfigID); err != nil {
			s.sendError(c, errorCode(err), err.Error())
		}

	case protocol.TypeBotStop:
		var payload protocol.BotStopPayload
		json.Unmarshal(msg.Payload, &payload)
		if err := s.bots.Stop(payload.ConfigID, payload.Forced); err != nil {
			s.sendError(c, errorCode(err), err.Error())
		}

	case protocol.TypeBotRestart:
		var payload protocol.BotRestartPayload
		json.Unmarshal(msg.Payload, &payload)
		if err := s.bots.Restart(payload.ConfigID); err != nil {
			s.sendError(c, errorCode(err), err.Error())
		}

	case protocol.TypeBotChat:
		var payload protocol.BotChatPayload
		json.Unmarshal(msg.Payload, &payload)
		if err := s.bots.SendChat(payload.ConfigID, payload.Message); err != nil {
			s.sendError(c, errorCode(err), err.Error())
		}
	}
}

// errorCode maps orchestrator errors to protocol error codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, bot.ErrConfigNotFound):
		return protocol.ErrConfigNotFound
	case errors.Is(err, bot.ErrStopBlocked):
		return protocol.ErrStopBlocked
	case errors.Is(err, bot.ErrNotRunning):
		return protocol.ErrBotNotRunning
	default:
		return protocol.ErrStartFailed
	}
}

func statusPayload(configID int, stats *store.BotStats) protocol.BotStatusPayload {
	return protocol.BotStatusPayload{
		ConfigID:      configID,
		Status:        string(stats.Status),
		Uptime:        stats.Uptime,
		ServerPing:    stats.ServerPing,
		Reconnections: stats.Reconnections,
	}
}

// BotStatus broadcasts a stats update. Part of bot.Broadcaster.
func (s *Server) BotStatus(configID int, stats *store.BotStats) {
	msg, err := protocol.NewMessage(protocol.TypeBotStatus, statusPayload(configID, stats))
	if err != nil {
		return
	}
	s.broadcast(msg)
}

// BotLog broadcasts a log entry. Part of bot.Broadcaster.
func (s *Server) BotLog(entry *store.LogEntry) {
	msg, err := protocol.NewMessage(protocol.TypeBotLog, protocol.BotLogPayload{
		ConfigID:  entry.ConfigID,
		Category:  string(entry.Category),
		Message:   entry.Message,
		Timestamp: entry.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}
	s.broadcast(msg)
}

// BotError broadcasts a distinct error event. Part of bot.Broadcaster.
func (s *Server) BotError(configID int, message string) {
	msg, err := protocol.NewMessage(protocol.TypeBotError, protocol.BotErrorPayload{
		ConfigID: configID,
		Error:    message,
	})
	if err != nil {
		return
	}
	s.broadcast(msg)
}

// broadcast serializes a message once and sends it to all connected
// clients, skipping any whose buffer is full.
func (s *Server) broadcast(msg *protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full, skip.
		}
	}
}

func (s *Server) sendError(c *client, code, message string) {
	msg, _ := protocol.NewErrorMessage(code, message)
	data, _ := json.Marshal(msg)
	select {
	case c.send <- data:
	default:
	}
}
