package bot

import (
	"context"
	"fmt"
	"math"
	"time"

	"afkbot/internal/conn"
	"afkbot/internal/store"
)

// runMovement fires one movement tick per configured interval until the
// session context is cancelled. Movement errors are logged and never stop
// the scheduler or the session.
func (s *Service) runMovement(ctx context.Context, id int, cfg *store.BotConfig, client conn.Client) {
	defer s.wg.Done()

	every := time.Duration(cfg.MovementInterval) * time.Second
	if s.moveEvery > 0 {
		every = s.moveEvery
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.moveTick(cfg.MovementPattern, client); err != nil {
				s.addLog(id, store.LogError, "Movement error: "+err.Error())
				continue
			}
			pos := client.Position()
			s.addLog(id, store.LogMove, fmt.Sprintf("Position: X=%.1f, Y=%.1f, Z=%.1f", pos.X, pos.Y, pos.Z))
		}
	}
}

func (s *Service) moveTick(pattern store.MovementPattern, client conn.Client) error {
	switch pattern {
	case store.MoveRandom:
		return s.randomMove(client)
	case store.MoveStationary:
		return s.stationaryMove(client)
	default:
		// custom and unknown patterns fall back to circular
		return s.circularMove(client)
	}
}

// circularMove walks a point on a 2-block circle around the bot, with the
// phase derived from wall-clock time.
func (s *Service) circularMove(client conn.Client) error {
	const radius = 2.0

	angle := math.Mod(float64(time.Now().UnixMilli())/1000, 2*math.Pi)
	pos := client.Position()
	targetX := math.Floor(pos.X) + math.Cos(angle)*radius
	targetZ := math.Floor(pos.Z) + math.Sin(angle)*radius

	if err := client.Face(math.Atan2(targetZ-pos.Z, targetX-pos.X), 0); err != nil {
		return err
	}
	if err := client.SetMoving(conn.Forward, true); err != nil {
		return err
	}
	time.AfterFunc(500*time.Millisecond, func() {
		_ = client.SetMoving(conn.Forward, false)
	})
	return nil
}

func (s *Service) randomMove(client conn.Client) error {
	dirs := [...]conn.Direction{conn.Forward, conn.Back, conn.Left, conn.Right}
	dir := dirs[s.randIntn(len(dirs))]
	duration := time.Duration(200+s.randFloat()*800) * time.Millisecond

	if err := client.SetMoving(dir, true); err != nil {
		return err
	}
	if err := client.Face(s.randFloat()*2*math.Pi, 0); err != nil {
		return err
	}
	time.AfterFunc(duration, func() {
		_ = client.SetMoving(dir, false)
	})
	return nil
}

// stationaryMove only nudges the facing direction, with an occasional jump.
func (s *Service) stationaryMove(client conn.Client) error {
	yaw := math.Mod(client.Yaw()+(s.randFloat()-0.5)*0.5, 2*math.Pi)
	if err := client.Face(yaw, 0); err != nil {
		return err
	}

	if s.randFloat() < 0.1 {
		if err := client.SetMoving(conn.Jump, true); err != nil {
			return err
		}
		time.AfterFunc(100*time.Millisecond, func() {
			_ = client.SetMoving(conn.Jump, false)
		})
	}
	return nil
}
