package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cho-y-j/able-sub001/internal/logger"
)

const recordVersion = "1.0"

// Store persists session records as one JSON file per session under a state
// directory. Writes go through a temp file and an atomic rename, with the
// previous record kept as a backup.
type Store struct {
	mu       sync.Mutex
	stateDir string
	log      *logger.Logger
}

// NewStore creates the state directory if needed.
func NewStore(stateDir string, log *logger.Logger) (*Store, error) {
	if stateDir == "" {
		stateDir = "state"
	}
	if log == nil {
		log = logger.NewDiscard()
	}
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", stateDir, err)
	}
	return &Store{stateDir: stateDir, log: log}, nil
}

func (s *Store) recordPath(sessionID string) string {
	return filepath.Join(s.stateDir, fmt.Sprintf("session_%s.json", sessionID))
}

// Save writes one session record durably.
func (s *Store) Save(record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.Version = recordVersion
	record.LastUpdated = time.Now()

	recordFile := s.recordPath(record.Session.ID)
	backupFile := recordFile + ".bak"

	if _, err := os.Stat(recordFile); err == nil {
		if err := copyFile(recordFile, backupFile); err != nil {
			s.log.Warning("failed to back up session record: %v", err)
		}
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	tempFile := recordFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp session file: %w", err)
	}
	if err := os.Rename(tempFile, recordFile); err != nil {
		return fmt.Errorf("failed to move session file: %w", err)
	}
	return nil
}

// Load reads one session record by id.
func (s *Store) Load(sessionID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.recordPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session %s not found", sessionID)
		}
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse session record: %w", err)
	}
	return &record, nil
}

// FindActiveByUser returns the first non-terminal session for a user, or nil.
// The check backs the double-dispatch guard: one running invocation per
// session at most.
func (s *Store) FindActiveByUser(userID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.stateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list state directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "session_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.stateDir, name))
		if err != nil {
			continue
		}
		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			s.log.Warning("skipping unreadable session record %s: %v", name, err)
			continue
		}
		if record.Session.UserID == userID && !record.Session.Terminal() {
			return &record, nil
		}
	}
	return nil, nil
}

// Delete removes a session record and its backup.
func (s *Store) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordFile := s.recordPath(sessionID)
	if err := os.Remove(recordFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session record: %w", err)
	}
	_ = os.Remove(recordFile + ".bak")
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
