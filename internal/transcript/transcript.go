// Package transcript persists the per-user conversation. Message content
// is mutable post-hoc in exactly one way: flipping an embedded action's
// handled flag after a successful dispatch, via RewriteContent.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one transcript entry.
type Message struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"` // RoleUser or RoleAssistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Log is the conversation store: an in-memory index over an append-only
// JSONL file, rebuilt on open. Safe for concurrent use.
type Log struct {
	path string

	mu     sync.RWMutex
	byUser map[int64][]Message
}

// Open loads the transcript at path, creating it if needed. Unreadable
// lines are skipped rather than failing the whole load.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure transcript dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer func() { _ = f.Close() }()

	l := &Log{path: path, byUser: make(map[int64][]Message)}
	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 10*1024*1024)
	for s.Scan() {
		line := s.Bytes()
		if len(line) == 0 {
			continue
		}
		var m Message
		if err := json.Unmarshal(line, &m); err != nil {
			continue
		}
		l.byUser[m.UserID] = append(l.byUser[m.UserID], m)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	return l, nil
}

// Append records a new message and returns it with its generated ID.
func (l *Log) Append(userID int64, role, content string) (Message, error) {
	m := Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.appendFile(m); err != nil {
		return Message{}, err
	}
	l.byUser[userID] = append(l.byUser[userID], m)
	return m, nil
}

// Messages returns the user's transcript in chronological order. The slice
// is a copy.
func (l *Log) Messages(userID int64) []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Message(nil), l.byUser[userID]...)
}

// Get returns one message by ID.
func (l *Log) Get(userID int64, messageID string) (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, m := range l.byUser[userID] {
		if m.ID == messageID {
			return m, true
		}
	}
	return Message{}, false
}

// Reset drops a user's conversation from memory and from the file.
func (l *Log) Reset(userID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.byUser, userID)
	return l.rewriteFile()
}

// RewriteContent replaces the stored content of one message, in memory and
// on disk. This is the completion-rewrite path; nothing else may edit a
// persisted message.
func (l *Log) RewriteContent(userID int64, messageID, content string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	msgs := l.byUser[userID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			msgs[i].Content = content
			return l.rewriteFile()
		}
	}
	return fmt.Errorf("message %s not found for user %d", messageID, userID)
}

func (l *Log) appendFile(m Message) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open append: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := json.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return nil
}

func (l *Log) rewriteFile() error {
	f, err := os.OpenFile(l.path, os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open rewrite: %w", err)
	}
	defer func() { _ = f.Close() }()
	enc := json.NewEncoder(f)
	for _, msgs := range l.byUser {
		for _, m := range msgs {
			if err := enc.Encode(m); err != nil {
				return fmt.Errorf("encode message: %w", err)
			}
		}
	}
	return nil
}
