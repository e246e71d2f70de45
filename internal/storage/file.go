package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "petfeeder/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.schedule.json (snapshot, rewritten atomically on save)
//   - <prefix>.feeds.jsonl   (append-only JSON Lines audit)
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	schedulePath string
	feedsFile    *os.File
}

type scheduleSnapshot struct {
	Day    int `json:"feed_day"`
	Hour   int `json:"feed_hour"`
	Minute int `json:"feed_minute"`
}

type feedLine struct {
	At        string `json:"at"`
	Kind      string `json:"kind"`
	TimeKnown bool   `json:"time_known"`
	Text      string `json:"text"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	ff, err := os.OpenFile(prefix+".feeds.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	return &fileStore{
		log:          log,
		schedulePath: prefix + ".schedule.json",
		feedsFile:    ff,
	}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feedsFile != nil {
		err := s.feedsFile.Close()
		s.feedsFile = nil
		return err
	}
	return nil
}

func (s *fileStore) LoadSchedule(ctx context.Context) (Schedule, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.schedulePath)
	if errors.Is(err, os.ErrNotExist) {
		return UnsetSchedule(), nil
	}
	if err != nil {
		return UnsetSchedule(), err
	}
	snap := scheduleSnapshot{Day: Unset, Hour: Unset, Minute: Unset}
	if err := json.Unmarshal(b, &snap); err != nil {
		// A torn or corrupted snapshot degrades to "no schedule".
		s.log.Warn("schedule snapshot unreadable; treating as unset",
			logx.String("path", s.schedulePath), logx.Err(err))
		return UnsetSchedule(), nil
	}
	return sanitize(Schedule{Day: snap.Day, Hour: snap.Hour, Minute: snap.Minute}), nil
}

func (s *fileStore) SaveSchedule(ctx context.Context, sch Schedule) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(scheduleSnapshot{Day: sch.Day, Hour: sch.Hour, Minute: sch.Minute})
	if err != nil {
		return err
	}
	// Write-then-rename so a power cut mid-save never leaves a torn file.
	tmp := s.schedulePath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.schedulePath)
}

func (s *fileStore) AppendFeed(ctx context.Context, r FeedRecord) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.feedsFile == nil {
		return ErrDisabled
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	b, err := json.Marshal(feedLine{
		At:        r.At.Format(time.RFC3339Nano),
		Kind:      r.Kind,
		TimeKnown: r.TimeKnown,
		Text:      r.Text,
	})
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = s.feedsFile.Write(b)
	return err
}
