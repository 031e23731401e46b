package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/soaringjerry/Nuvio/internal/models"
)

// Snapshot is the on-disk layout of a MemoryStore. Record maps are keyed by user ID.
type Snapshot struct {
	Users       []models.User                         `json:"users"`
	Moods       map[string][]models.MoodEntry         `json:"moods"`
	Chat        map[string][]models.ChatMessage       `json:"chat"`
	Assessments map[string][]models.AssessmentSession `json:"assessments"`
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		Users:       []models.User{},
		Moods:       map[string][]models.MoodEntry{},
		Chat:        map[string][]models.ChatMessage{},
		Assessments: map[string][]models.AssessmentSession{},
	}
}

// MemoryStore keeps everything in memory and, when created with a path, rewrites a
// JSON snapshot after every mutation.
type MemoryStore struct {
	mu   sync.RWMutex
	path string
	data *Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newSnapshot()}
}

// NewMemoryStoreFromPath loads the snapshot at path, starting empty when the file
// does not exist yet. Writes are persisted back to path.
func NewMemoryStoreFromPath(path string) (*MemoryStore, error) {
	s := &MemoryStore{path: path, data: newSnapshot()}
	if path == "" {
		return s, nil
	}
	snap, err := LoadSnapshot(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	s.data = snap
	return s, nil
}

// LoadSnapshot reads a snapshot file. A missing file yields an error wrapping os.ErrNotExist.
func LoadSnapshot(path string) (*Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap := newSnapshot()
	if err := json.Unmarshal(b, snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if snap.Moods == nil {
		snap.Moods = map[string][]models.MoodEntry{}
	}
	if snap.Chat == nil {
		snap.Chat = map[string][]models.ChatMessage{}
	}
	if snap.Assessments == nil {
		snap.Assessments = map[string][]models.AssessmentSession{}
	}
	return snap, nil
}

// Snapshot returns a deep copy of the current state.
func (s *MemoryStore) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := newSnapshot()
	out.Users = append(out.Users, s.data.Users...)
	for uid, ms := range s.data.Moods {
		out.Moods[uid] = append([]models.MoodEntry(nil), ms...)
	}
	for uid, cs := range s.data.Chat {
		out.Chat[uid] = cloneMessages(cs)
	}
	for uid, as := range s.data.Assessments {
		out.Assessments[uid] = cloneSessions(as)
	}
	return out
}

// persistLocked writes the snapshot atomically. Caller holds the write lock and undoes
// its change when this fails, so memory never runs ahead of the file.
func (s *MemoryStore) persistLocked() error {
	if s.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func (s *MemoryStore) AddUser(_ context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.Users {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	u.PassHash = append([]byte(nil), u.PassHash...)
	prev := s.data.Users
	s.data.Users = append(s.data.Users, u)
	if err := s.persistLocked(); err != nil {
		s.data.Users = prev
		return err
	}
	return nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.data.Users {
		if u.Email == email {
			out := u
			out.PassHash = append([]byte(nil), u.PassHash...)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) AddMood(_ context.Context, userID string, m models.MoodEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.data.Moods[userID]
	s.data.Moods[userID] = append(prev, m)
	if err := s.persistLocked(); err != nil {
		if had {
			s.data.Moods[userID] = prev
		} else {
			delete(s.data.Moods, userID)
		}
		return err
	}
	return nil
}

func (s *MemoryStore) DeleteMood(_ context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	moods := s.data.Moods[userID]
	for i, m := range moods {
		if m.ID != id {
			continue
		}
		s.data.Moods[userID] = append(moods[:i:i], moods[i+1:]...)
		if err := s.persistLocked(); err != nil {
			s.data.Moods[userID] = moods
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *MemoryStore) ListMoods(_ context.Context, userID string) ([]models.MoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MoodEntry{}, s.data.Moods[userID]...), nil
}

func (s *MemoryStore) AddChatMessage(_ context.Context, userID string, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.data.Chat[userID]
	s.data.Chat[userID] = append(prev, cloneMessages([]models.ChatMessage{msg})...)
	if err := s.persistLocked(); err != nil {
		if had {
			s.data.Chat[userID] = prev
		} else {
			delete(s.data.Chat, userID)
		}
		return err
	}
	return nil
}

func (s *MemoryStore) ListChatMessages(_ context.Context, userID string) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMessages(s.data.Chat[userID]), nil
}

func (s *MemoryStore) ClearChat(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.data.Chat[userID]
	if !ok {
		return nil
	}
	delete(s.data.Chat, userID)
	if err := s.persistLocked(); err != nil {
		s.data.Chat[userID] = prev
		return err
	}
	return nil
}

func (s *MemoryStore) AddAssessment(_ context.Context, userID string, a models.AssessmentSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.data.Assessments[userID]
	s.data.Assessments[userID] = append(prev, cloneSessions([]models.AssessmentSession{a})...)
	if err := s.persistLocked(); err != nil {
		if had {
			s.data.Assessments[userID] = prev
		} else {
			delete(s.data.Assessments, userID)
		}
		return err
	}
	return nil
}

func (s *MemoryStore) ListAssessments(_ context.Context, userID string) ([]models.AssessmentSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSessions(s.data.Assessments[userID]), nil
}

func cloneMessages(in []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(in))
	for _, m := range in {
		if m.Sentiment != nil {
			sv := *m.Sentiment
			m.Sentiment = &sv
		}
		out = append(out, m)
	}
	return out
}

func cloneSessions(in []models.AssessmentSession) []models.AssessmentSession {
	out := make([]models.AssessmentSession, 0, len(in))
	for _, a := range in {
		a.Responses = append([]models.Response(nil), a.Responses...)
		if a.CompletedAt != nil {
			t := *a.CompletedAt
			a.CompletedAt = &t
		}
		if a.Result != nil {
			r := *a.Result
			a.Result = &r
		}
		out = append(out, a)
	}
	return out
}
