package telegram

import "sync"

// Step is where a chat is in a multi-message flow.
type Step int

const (
	StepNone Step = iota
	StepAwaitURL
	StepAwaitBulk
	StepCustomURL
	StepCustomAlias
)

// Session is the conversation state of one chat.
type Session struct {
	Step Step
	// URL holds the already validated target while the custom flow waits for an alias.
	URL string
}

// SessionStore keeps conversation state per chat id. It is in-memory only,
// so a restart drops every pending flow.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]Session)}
}

// Get returns the chat's session, or the zero Session when none is pending.
func (s *SessionStore) Get(chatID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions[chatID]
}

func (s *SessionStore) Set(chatID int64, session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.Step == StepNone {
		delete(s.sessions, chatID)

		return
	}

	s.sessions[chatID] = session
}

func (s *SessionStore) Clear(chatID int64) {
	s.Set(chatID, Session{})
}
