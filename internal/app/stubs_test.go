package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Prasanna018/code-collab-backend/internal/domain"
)

// stubStore is an in-memory domain.SessionStore that records calls.
type stubStore struct {
	mu sync.Mutex

	sessions map[string]domain.Session

	codeWrites     []string // text of every UpdateCode call, in order
	languageWrites []string
	expiredCutoffs []time.Time
	expiredResult  int64

	failUpdateCode bool
}

func newStubStore() *stubStore {
	return &stubStore{sessions: make(map[string]domain.Session)}
}

func (s *stubStore) Create(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *stubStore) Get(_ context.Context, id string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *stubStore) UpdateCode(_ context.Context, id, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdateCode {
		return errors.New("store unavailable")
	}
	s.codeWrites = append(s.codeWrites, code)
	if session, ok := s.sessions[id]; ok {
		session.Code = code
		s.sessions[id] = session
	}
	return nil
}

func (s *stubStore) UpdateLanguage(_ context.Context, id, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.languageWrites = append(s.languageWrites, language)
	if session, ok := s.sessions[id]; ok {
		session.Language = language
		s.sessions[id] = session
	}
	return nil
}

func (s *stubStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *stubStore) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiredCutoffs = append(s.expiredCutoffs, before)
	return s.expiredResult, nil
}

func (s *stubStore) codeWriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codeWrites)
}

func (s *stubStore) lastCodeWrite() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codeWrites) == 0 {
		return ""
	}
	return s.codeWrites[len(s.codeWrites)-1]
}

func (s *stubStore) expiredCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiredCutoffs)
}

// stubPresence records presence mutations and can be made to fail.
type stubPresence struct {
	mu      sync.Mutex
	members map[string]map[string]struct{}
	fail    bool
}

func newStubPresence() *stubPresence {
	return &stubPresence{members: make(map[string]map[string]struct{})}
}

func (p *stubPresence) Add(_ context.Context, sessionID, participantID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("presence unavailable")
	}
	if p.members[sessionID] == nil {
		p.members[sessionID] = make(map[string]struct{})
	}
	p.members[sessionID][participantID] = struct{}{}
	return nil
}

func (p *stubPresence) Remove(_ context.Context, sessionID, participantID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("presence unavailable")
	}
	delete(p.members[sessionID], participantID)
	return nil
}

func (p *stubPresence) Clear(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("presence unavailable")
	}
	delete(p.members, sessionID)
	return nil
}

func (p *stubPresence) count(sessionID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.members[sessionID])
}
