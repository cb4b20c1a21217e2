package knowledge

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/documents"
)

var _ documents.Store = (*MemoryStore)(nil)

type clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// MemoryStore keeps one session's documents in insertion order. Lookups are a
// linear scan.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  []documents.Document
	clock clock
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clock: systemClock{}}
}

// WithClock replaces the time source.
func (s *MemoryStore) WithClock(c clock) *MemoryStore {
	s.clock = c
	return s
}

func (s *MemoryStore) Add(_ context.Context, in documents.NewDocument) (string, error) {
	now := s.clock.Now()
	doc := documents.Document{
		ID:           documentID(in.FileName, now),
		FileName:     in.FileName,
		Type:         in.Type,
		ClientName:   in.ClientName,
		AllowedRoles: slices.Clone(in.AllowedRoles),
		UploadedBy:   in.UploadedBy,
		CreatedAt:    now,
		Content:      excerpt(in.Content, documents.ExcerptLength),
	}

	s.mu.Lock()
	s.docs = append(s.docs, doc)
	s.mu.Unlock()
	return doc.ID, nil
}

func (s *MemoryStore) Search(_ context.Context, q documents.Query) ([]documents.Document, error) {
	needle := strings.ToLower(q.Text)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []documents.Document
	for _, d := range s.docs {
		if !d.VisibleTo(q.Role) {
			continue
		}
		if q.Client != "" && d.ClientName != q.Client {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(d.FileName), needle) &&
			!strings.Contains(strings.ToLower(d.Content), needle) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// documentID derives a short id from the file name and creation time.
func documentID(name string, at time.Time) string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(name+at.Format(time.RFC3339Nano)))
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}

// excerpt keeps the first n characters of s.
func excerpt(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
