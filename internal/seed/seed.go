package seed

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"afkbot/internal/store"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 500 * time.Millisecond

// Result summarizes one application of a seed file to the store.
type Result struct {
	Created int
	Updated int
	// AutoStart lists config ids that were newly created with autoStart
	// enabled. Existing configs are never restarted by a reload.
	AutoStart []int
}

// Load parses a JSON seed file: an array of config params.
func Load(path string) ([]store.ConfigParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var entries []store.ConfigParams
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	for i, e := range entries {
		if e.ServerIP == "" || e.Username == "" {
			return nil, fmt.Errorf("seed entry %d: serverIP and username are required", i)
		}
	}
	return entries, nil
}

// Apply upserts seed entries into the store, matching existing configs by
// name. Entries without a name are always created.
func Apply(st store.Store, entries []store.ConfigParams) Result {
	byName := make(map[string]*store.BotConfig)
	for _, cfg := range st.ListConfigs() {
		if cfg.Name != "" {
			byName[cfg.Name] = cfg
		}
	}

	var res Result
	for _, e := range entries {
		if existing, ok := byName[e.Name]; ok && e.Name != "" {
			st.UpdateConfig(existing.ID, updateFromParams(e))
			res.Updated++
			continue
		}

		cfg := st.CreateConfig(e)
		res.Created++
		if cfg.AutoStart {
			res.AutoStart = append(res.AutoStart, cfg.ID)
		}
	}
	return res
}

func updateFromParams(p store.ConfigParams) store.ConfigUpdate {
	u := store.ConfigUpdate{
		ServerIP:      &p.ServerIP,
		Username:      &p.Username,
		AutoReconnect: p.AutoReconnect,
		ChatResponse:  &p.ChatResponse,
		AutoStart:     &p.AutoStart,

		PersistentMode:      p.PersistentMode,
		AllowAutoDisconnect: &p.AllowAutoDisconnect,
	}
	if p.ServerPort != 0 {
		u.ServerPort = &p.ServerPort
	}
	if p.AccountType != "" {
		u.AccountType = &p.AccountType
	}
	if p.MovementPattern != "" {
		u.MovementPattern = &p.MovementPattern
	}
	if p.MovementInterval != 0 {
		u.MovementInterval = &p.MovementInterval
	}
	return u
}

// Watcher reloads a seed file whenever it changes on disk.
type Watcher struct {
	path      string
	store     store.Store
	callback  func(Result)
	fsWatcher *fsnotify.Watcher
	cancel    chan struct{}
}

// Watch loads and applies the seed file, then keeps watching it for
// changes. The callback runs after each successful apply, including the
// initial one.
func Watch(path string, st store.Store, callback func(Result)) (*Watcher, error) {
	entries, err := Load(path)
	if err != nil {
		return nil, err
	}

	fsW, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the parent directory so editor save-via-rename still fires.
	if err := fsW.Add(filepath.Dir(path)); err != nil {
		fsW.Close()
		return nil, err
	}

	w := &Watcher{
		path:      path,
		store:     st,
		callback:  callback,
		fsWatcher: fsW,
		cancel:    make(chan struct{}),
	}

	res := Apply(st, entries)
	if callback != nil {
		callback(res)
	}

	go w.watchLoop()
	return w, nil
}

// Close stops watching the seed file.
func (w *Watcher) Close() {
	close(w.cancel)
	w.fsWatcher.Close()
}

// watchLoop processes fsnotify events with debouncing.
func (w *Watcher) watchLoop() {
	var timer *time.Timer

	for {
		select {
		case <-w.cancel:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			// Debounce: reset timer on each event.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceInterval, w.reload)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Printf("seed watcher error: %v", err)
		}
	}
}

// reload re-reads the seed file and applies it. A broken file is logged
// and skipped; the previous state stays in effect.
func (w *Watcher) reload() {
	entries, err := Load(w.path)
	if err != nil {
		log.Printf("seed reload skipped: %v", err)
		return
	}

	res := Apply(w.store, entries)
	log.Printf("seed reloaded: %d created, %d updated", res.Created, res.Updated)
	if w.callback != nil {
		w.callback(res)
	}
}
