// Package chatsession persists conversation history: one append-only
// JSON file per session, committed turn-by-turn so a crash mid-turn
// never loses earlier history. A sibling .lock file is acquired
// (non-blocking) when a session is created or resumed and held until the
// session is closed, so a second CLIO process opening the same session
// aborts with a clear in-use error instead of interleaving writes.
package chatsession

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clio-cli/clio/internal/lock"
	"github.com/clio-cli/clio/internal/util"
)

// Role identifies who authored a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one turn's worth of content.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TodoItem is one entry on the session's task list, managed by "/todo".
type TodoItem struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Session is the full persisted conversation plus the session-scoped
// state that travels with it: the response style, the file the user is
// currently working on, and the context files attached to every turn.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`

	Style        string     `json:"style,omitempty"`
	CurrentFile  string     `json:"current_file,omitempty"`
	ContextFiles []string   `json:"context_files,omitempty"`
	Todos        []TodoItem `json:"todos,omitempty"`

	// release drops the session's lifetime lock; set by Store.New and
	// Store.Load, invoked by Close.
	release func()
}

// Close releases the session's lock so another process (or a later
// "/session switch" back) can open it. Safe to call more than once and
// on a session that never held a lock.
func (s *Session) Close() {
	if s == nil || s.release == nil {
		return
	}
	s.release()
	s.release = nil
}

// Store manages session files under root/.clio/sessions/<id>.json.
type Store struct {
	root string
}

// NewStore builds a Store rooted at root (typically the user's home
// directory).
func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) dir() string {
	return filepath.Join(s.root, ".clio", "sessions")
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir(), id+".json")
}

func (s *Store) lockPath(id string) string {
	return filepath.Join(s.dir(), id+".lock")
}

// acquire creates the sessions directory if needed and takes the
// session's lifetime lock without blocking. The directory must exist
// before the lock file can be opened on a fresh install.
func (s *Store) acquire(id string) (func(), error) {
	if err := os.MkdirAll(s.dir(), 0755); err != nil {
		return nil, fmt.Errorf("creating sessions directory: %w", err)
	}
	release, err := lock.FlockTryAcquire(s.lockPath(id))
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, fmt.Errorf("session %s is in use by another clio process", id)
		}
		return nil, fmt.Errorf("acquiring session lock: %w", err)
	}
	return release, nil
}

// New creates a fresh session with a random ID, holding its lock until
// Close.
func (s *Store) New() (*Session, error) {
	id := uuid.NewString()
	release, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Session{ID: id, CreatedAt: now, UpdatedAt: now, release: release}, nil
}

// Load opens an existing session by ID, holding its lock until Close.
// A session already open in another CLIO process returns a clear in-use
// error instead of blocking.
func (s *Store) Load(id string) (*Session, error) {
	release, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	sess, err := s.Peek(id)
	if err != nil {
		release()
		return nil, err
	}
	sess.release = release
	return sess, nil
}

// Peek loads a session file without touching its lock, for read-only
// inspection (List, "/session list" previews). A peeked session must not
// be committed while another process holds its lock.
func (s *Store) Peek(id string) (*Session, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", id, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", id, err)
	}
	return &sess, nil
}

// CommitTurn appends one or more messages to the session and writes the
// whole file atomically. The session's lifetime lock already excludes
// other processes, and the temp-file-then-rename write means readers
// only ever see the file before or after the whole commit, never
// mid-write.
func (s *Store) CommitTurn(sess *Session, messages ...Message) error {
	sess.Messages = append(sess.Messages, messages...)
	sess.UpdatedAt = time.Now().UTC()
	return util.EnsureDirAndWriteJSON(s.path(sess.ID), sess)
}

// SaveState persists the session's non-message state (style, current
// file, context files, todos) without appending any messages.
func (s *Store) SaveState(sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()
	return util.EnsureDirAndWriteJSON(s.path(sess.ID), sess)
}

// SessionSummary is the metadata shown by "/session list".
type SessionSummary struct {
	ID        string
	UpdatedAt time.Time
	Preview   string // first user message, truncated
}

// List returns a summary of every stored session, most recently updated
// first.
func (s *Store) List() ([]SessionSummary, error) {
	entries, err := os.ReadDir(s.dir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	var summaries []SessionSummary
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		id := e.Name()[:len(e.Name())-len(".json")]
		// Peek, not Load: listing must not touch session locks, or every
		// session currently open elsewhere would vanish from the list.
		sess, err := s.Peek(id)
		if err != nil {
			continue // skip unreadable/corrupt session files rather than failing the whole list
		}
		summaries = append(summaries, SessionSummary{
			ID:        sess.ID,
			UpdatedAt: sess.UpdatedAt,
			Preview:   preview(sess),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

func preview(sess *Session) string {
	for _, m := range sess.Messages {
		if m.Role == RoleUser {
			if len(m.Content) > 60 {
				return m.Content[:60] + "…"
			}
			return m.Content
		}
	}
	return "(empty session)"
}
