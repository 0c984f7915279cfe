package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"afkbot/internal/conn"
	"afkbot/internal/store"
)

// chatReplies are the canned auto-responses sent when a third party
// mentions the bot's name in chat.
var chatReplies = []string{
	"Hi there! I'm an AFK bot.",
	"Hello! I'm keeping this server alive.",
	"Hey! Just doing my AFK thing.",
	"Hi! I'm a friendly AFK bot.",
}

// react consumes the connection's event stream for one session. Events are
// handled strictly in emission order, so per-session state transitions never
// reorder. The loop exits when the session context is cancelled or the
// stream ends.
func (s *Service) react(ctx context.Context, id int, cfg *store.BotConfig, client conn.Client) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-client.Events():
			if !ok {
				return
			}
			select {
			case <-ctx.Done():
				// Torn down while the event was in flight.
				return
			default:
			}
			s.handleEvent(ctx, id, cfg, client, ev)
			if ev.Type == conn.EventEnded {
				return
			}
		}
	}
}

func (s *Service) handleEvent(ctx context.Context, id int, cfg *store.BotConfig, client conn.Client, ev conn.Event) {
	switch ev.Type {
	case conn.EventConnected:
		s.handleConnected(ctx, id, cfg, client)
	case conn.EventSpawned:
		s.addLog(id, store.LogInfo, fmt.Sprintf("Bot spawned at position (%.1f, %.1f, %.1f)", ev.Pos.X, ev.Pos.Y, ev.Pos.Z))
	case conn.EventChat:
		s.handleChat(id, cfg, client, ev)
	case conn.EventHealth:
		if ev.Health < 20 {
			s.addLog(id, store.LogWarn, fmt.Sprintf("Health is low: %.0f/20", ev.Health))
		}
	case conn.EventDied:
		s.handleDied(id, client)
	case conn.EventKicked:
		s.handleKicked(id, cfg, client, ev.Reason)
	case conn.EventErrored:
		s.handleErrored(id, cfg, client, ev.Err)
	case conn.EventEnded:
		s.handleEnded(id, cfg, client)
	}
}

func (s *Service) handleConnected(ctx context.Context, id int, cfg *store.BotConfig, client conn.Client) {
	s.addLog(id, store.LogInfo, fmt.Sprintf("Successfully connected to %s:%d", cfg.ServerIP, cfg.ServerPort))
	s.setStatus(id, store.StatusOnline)

	s.wg.Add(2)
	go s.runMovement(ctx, id, cfg, client)
	go s.runSampler(ctx, id, client)
}

func (s *Service) handleChat(id int, cfg *store.BotConfig, client conn.Client, ev conn.Event) {
	if ev.From == client.Username() {
		return
	}

	s.addLog(id, store.LogChat, fmt.Sprintf("<%s> %s", ev.From, ev.Text))

	if !cfg.ChatResponse {
		return
	}
	if !strings.Contains(strings.ToLower(ev.Text), strings.ToLower(client.Username())) {
		return
	}

	reply := chatReplies[s.randIntn(len(chatReplies))]
	delay := s.chatDelayMin + time.Duration(s.randFloat()*float64(s.chatDelayJitter))
	time.AfterFunc(delay, func() {
		if client.Connected() {
			if err := client.SendChat(reply); err == nil {
				s.addLog(id, store.LogChat, "Auto-responded: "+reply)
			}
		}
	})
}

func (s *Service) handleDied(id int, client conn.Client) {
	s.addLog(id, store.LogError, "Bot died! Attempting to respawn...")
	time.AfterFunc(s.respawnDelay, func() {
		if client.Connected() {
			_ = client.Respawn()
		}
	})
}

func (s *Service) handleKicked(id int, cfg *store.BotConfig, client conn.Client, reason string) {
	s.addLog(id, store.LogError, "Kicked from server: "+reason)
	s.setStatus(id, store.StatusError)

	if cfg.PersistentMode || cfg.AutoReconnect {
		s.addLog(id, store.LogInfo, "Persistent mode enabled - attempting to reconnect after kick...")
		s.scheduleReconnect(id, client, s.kickedDelay)
	}
}

func (s *Service) handleErrored(id int, cfg *store.BotConfig, client conn.Client, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	s.addLog(id, store.LogError, "Bot error: "+msg)
	s.setStatus(id, store.StatusError)

	if bc := s.broadcaster(); bc != nil {
		bc.BotError(id, msg)
	}

	if cfg.PersistentMode || cfg.AutoReconnect {
		s.addLog(id, store.LogInfo, "Persistent mode enabled - reconnecting after error...")
		s.scheduleReconnect(id, client, s.erroredDelay)
	}
}

func (s *Service) handleEnded(id int, cfg *store.BotConfig, client conn.Client) {
	lock := s.idLock(id)
	lock.Lock()
	defer lock.Unlock()

	// Ignore the ended event of a client that has already been replaced or
	// torn down; only the current client may drive the reconnect decision.
	s.mu.Lock()
	sess := s.sessions[id]
	s.mu.Unlock()
	if sess == nil || sess.client != client {
		return
	}

	s.addLog(id, store.LogWarn, "Connection ended")
	s.setStatus(id, store.StatusOffline)
	s.cleanup(id)

	if !cfg.PersistentMode && !cfg.AutoReconnect {
		return
	}

	count := 0
	if stats, ok := s.store.GetStats(id); ok {
		count = stats.Reconnections
	}
	count++

	s.addLog(id, store.LogInfo, fmt.Sprintf("Persistent mode: Reconnection attempt #%d", count))
	connecting := store.StatusConnecting
	s.updateStats(id, store.StatsUpdate{Status: &connecting, Reconnections: &count})

	s.scheduleStart(id, s.reconnectDelay(cfg.PersistentMode, count))
}
