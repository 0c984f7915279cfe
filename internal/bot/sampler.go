package bot

import (
	"context"
	"fmt"
	"time"

	"afkbot/internal/conn"
	"afkbot/internal/store"
)

// runSampler periodically persists and broadcasts uptime and ping for one
// session until the session context is cancelled.
func (s *Service) runSampler(ctx context.Context, id int, client conn.Client) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sampleEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			sess := s.sessions[id]
			s.mu.Unlock()
			if sess == nil || sess.client != client {
				return
			}

			uptime := int(time.Since(sess.startedAt).Seconds())
			ping := client.Ping()
			now := time.Now().UTC()
			s.updateStats(id, store.StatsUpdate{Uptime: &uptime, ServerPing: &ping, LastPing: &now})

			if ping > 0 {
				s.addLog(id, store.LogPing, fmt.Sprintf("Server ping: %dms", ping))
			}
		}
	}
}
