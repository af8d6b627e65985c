// Package download hands a fetched book file to a consumer through a
// uniquely named temporary file that is always removed afterwards, no matter
// how the consumer exits. Long sessions must not accumulate spooled files.
package download

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager spools download payloads under dir. Grace delays removal slightly
// so a consumer that opened the file asynchronously can finish reading it.
type Manager struct {
	dir   string
	grace time.Duration
	log   zerolog.Logger

	created  int64
	released int64
}

func NewManager(dir string, grace time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		dir:   dir,
		grace: grace,
		log:   log.With().Str("component", "download").Logger(),
	}
}

// Deliver writes data to a temporary file, invokes consume with its path,
// and removes the file on every exit path, including a panicking consumer.
func (m *Manager) Deliver(data []byte, name string, consume func(path string) error) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create spool directory: %w", err)
	}

	path := filepath.Join(m.dir, uuid.NewString()+"-"+sanitize(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to spool download: %w", err)
	}
	atomic.AddInt64(&m.created, 1)
	m.log.Debug().Str("path", path).Int("bytes", len(data)).Msg("spooled")

	defer func() {
		if m.grace > 0 {
			time.Sleep(m.grace)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.log.Warn().Err(err).Str("path", path).Msg("failed to remove spooled file")
		}
		atomic.AddInt64(&m.released, 1)
	}()

	return consume(path)
}

// Created reports how many files have been spooled.
func (m *Manager) Created() int64 { return atomic.LoadInt64(&m.created) }

// Released reports how many spooled files have been cleaned up.
func (m *Manager) Released() int64 { return atomic.LoadInt64(&m.released) }

// SaveTo returns a consumer that copies the spooled file to dst.
func SaveTo(dst string) func(path string) error {
	return func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read spooled file: %w", err)
		}
		if dir := filepath.Dir(dst); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create destination directory: %w", err)
			}
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dst, err)
		}
		return nil
	}
}

func sanitize(name string) string {
	if name == "" {
		return "book"
	}
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
