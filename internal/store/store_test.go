package store

import (
	"fmt"
	"testing"
)

func TestCreateConfigDefaults(t *testing.T) {
	m := NewMemStore()
	cfg := m.CreateConfig(ConfigParams{Name: "afk-1", ServerIP: "play.example.com", Username: "Bot1"})

	if cfg.ID != 1 {
		t.Errorf("expected id 1, got %d", cfg.ID)
	}
	if cfg.ServerPort != 25565 {
		t.Errorf("expected default port 25565, got %d", cfg.ServerPort)
	}
	if cfg.AccountType != AccountOffline {
		t.Errorf("expected offline account, got %s", cfg.AccountType)
	}
	if cfg.MovementPattern != MoveCircular {
		t.Errorf("expected circular pattern, got %s", cfg.MovementPattern)
	}
	if cfg.MovementInterval != 30 {
		t.Errorf("expected default interval 30, got %d", cfg.MovementInterval)
	}
	if !cfg.AutoReconnect || !cfg.PersistentMode {
		t.Error("expected autoReconnect and persistentMode to default to true")
	}
	if cfg.IsActive {
		t.Error("expected new config to be inactive")
	}
}

func TestCreateConfigIntervalClamp(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{1, 5},
		{5, 5},
		{30, 30},
		{120, 120},
		{600, 120},
	}

	for _, tc := range cases {
		m := NewMemStore()
		cfg := m.CreateConfig(ConfigParams{ServerIP: "s", Username: "u", MovementInterval: tc.in})
		if cfg.MovementInterval != tc.want {
			t.Errorf("interval %d: expected clamp to %d, got %d", tc.in, tc.want, cfg.MovementInterval)
		}
	}
}

func TestUpdateConfigPartial(t *testing.T) {
	m := NewMemStore()
	cfg := m.CreateConfig(ConfigParams{Name: "afk-1", ServerIP: "a", Username: "u"})

	ip := "b"
	interval := 300
	updated, err := m.UpdateConfig(cfg.ID, ConfigUpdate{ServerIP: &ip, MovementInterval: &interval})
	if err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}
	if updated.ServerIP != "b" {
		t.Errorf("expected server ip b, got %s", updated.ServerIP)
	}
	if updated.MovementInterval != 120 {
		t.Errorf("expected interval clamped to 120, got %d", updated.MovementInterval)
	}
	if updated.Name != "afk-1" {
		t.Errorf("expected untouched name, got %s", updated.Name)
	}
}

func TestUpdateConfigNotFound(t *testing.T) {
	m := NewMemStore()
	if _, err := m.UpdateConfig(42, ConfigUpdate{}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteConfigCascades(t *testing.T) {
	m := NewMemStore()
	cfg := m.CreateConfig(ConfigParams{ServerIP: "a", Username: "u"})
	m.AppendLog(cfg.ID, LogInfo, "hello")
	m.UpsertStats(cfg.ID, StatsUpdate{})

	if err := m.DeleteConfig(cfg.ID); err != nil {
		t.Fatalf("DeleteConfig failed: %v", err)
	}
	if _, err := m.GetConfig(cfg.ID); err != ErrNotFound {
		t.Errorf("expected config gone, got %v", err)
	}
	if logs := m.ListLogs(cfg.ID, 0); len(logs) != 0 {
		t.Errorf("expected logs gone, got %d", len(logs))
	}
	if _, ok := m.GetStats(cfg.ID); ok {
		t.Error("expected stats gone")
	}
}

func TestListLogsOrderAndLimit(t *testing.T) {
	m := NewMemStore()
	for i := 0; i < 10; i++ {
		m.AppendLog(1, LogInfo, fmt.Sprintf("msg-%d", i))
	}

	logs := m.ListLogs(1, 3)
	if len(logs) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(logs))
	}
	// Newest first.
	for i, want := range []string{"msg-9", "msg-8", "msg-7"} {
		if logs[i].Message != want {
			t.Errorf("log %d: expected %s, got %s", i, want, logs[i].Message)
		}
	}
}

func TestListLogsDefaultLimit(t *testing.T) {
	m := NewMemStore()
	for i := 0; i < 80; i++ {
		m.AppendLog(1, LogInfo, fmt.Sprintf("msg-%d", i))
	}

	logs := m.ListLogs(1, 0)
	if len(logs) != 50 {
		t.Fatalf("expected default limit of 50, got %d", len(logs))
	}
	if logs[0].Message != "msg-79" {
		t.Errorf("expected newest entry first, got %s", logs[0].Message)
	}
}

func TestAppendLogEviction(t *testing.T) {
	m := NewMemStore()
	for i := 0; i < 101; i++ {
		m.AppendLog(1, LogInfo, fmt.Sprintf("msg-%d", i))
	}

	logs := m.ListLogs(1, 200)
	if len(logs) != 100 {
		t.Fatalf("expected 100 retained logs, got %d", len(logs))
	}
	if logs[len(logs)-1].Message != "msg-1" {
		t.Errorf("expected oldest entry evicted, oldest kept is %s", logs[len(logs)-1].Message)
	}
	if logs[0].Message != "msg-100" {
		t.Errorf("expected newest entry kept, got %s", logs[0].Message)
	}
}

func TestClearLogs(t *testing.T) {
	m := NewMemStore()
	m.AppendLog(1, LogInfo, "a")
	m.ClearLogs(1)
	if logs := m.ListLogs(1, 0); len(logs) != 0 {
		t.Errorf("expected no logs after clear, got %d", len(logs))
	}
}

func TestUpsertStatsPartial(t *testing.T) {
	m := NewMemStore()

	status := StatusOnline
	uptime := 60
	first := m.UpsertStats(1, StatsUpdate{Status: &status, Uptime: &uptime})
	if first.Status != StatusOnline || first.Uptime != 60 {
		t.Fatalf("unexpected stats after first upsert: %+v", first)
	}
	if first.Reconnections != 0 {
		t.Errorf("expected 0 reconnections, got %d", first.Reconnections)
	}

	ping := 42
	second := m.UpsertStats(1, StatsUpdate{ServerPing: &ping})
	if second.Status != StatusOnline || second.Uptime != 60 {
		t.Errorf("expected untouched fields to persist, got %+v", second)
	}
	if second.ServerPing != 42 {
		t.Errorf("expected ping 42, got %d", second.ServerPing)
	}
}

func TestUpsertStatsCreatesOfflineRecord(t *testing.T) {
	m := NewMemStore()
	stats := m.UpsertStats(7, StatsUpdate{})
	if stats.Status != StatusOffline {
		t.Errorf("expected new record to default to offline, got %s", stats.Status)
	}
	if stats.ConfigID != 7 {
		t.Errorf("expected config id 7, got %d", stats.ConfigID)
	}
}
