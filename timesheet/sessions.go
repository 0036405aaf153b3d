package timesheet

import (
	"sync"
	"time"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// SESSIONS - One open sheet per user
// =============================================================================

// Sessions keeps each user's currently displayed sheet in memory between
// requests. A user has at most one sheet; opening another week discards the
// previous one together with any unsaved edits.
type Sessions struct {
	mu    sync.Mutex
	users map[generic.UserID]*session
}

type session struct {
	mu      sync.Mutex
	sheet   *Sheet
	touched time.Time
}

func NewSessions() *Sessions {
	return &Sessions{users: make(map[generic.UserID]*session)}
}

// lock returns the user's session with its lock held.
func (s *Sessions) lock(user generic.UserID) *session {
	s.mu.Lock()
	sess, ok := s.users[user]
	if !ok {
		sess = &session{}
		s.users[user] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	sess.touched = time.Now()
	return sess
}

// Discard drops the user's sheet, if any.
func (s *Sessions) Discard(user generic.UserID) {
	sess := s.lock(user)
	sess.sheet = nil
	sess.mu.Unlock()
}

// DiscardWeek drops the user's sheet only if it shows the given week.
func (s *Sessions) DiscardWeek(user generic.UserID, week generic.Week) {
	sess := s.lock(user)
	if sess.sheet != nil && sess.sheet.Week.Start.Equal(week.Start) {
		sess.sheet = nil
	}
	sess.mu.Unlock()
}

// Open reports whether the user currently has the week open.
func (s *Sessions) Open(user generic.UserID, week generic.Week) bool {
	sess := s.lock(user)
	defer sess.mu.Unlock()
	return sess.sheet != nil && sess.sheet.Week.Start.Equal(week.Start)
}

// EvictIdle drops every sheet last used before cutoff and returns how many
// were dropped. Their unsaved edits are lost.
func (s *Sessions) EvictIdle(cutoff time.Time) int {
	n := 0
	for _, sess := range s.all() {
		sess.mu.Lock()
		if sess.sheet != nil && sess.touched.Before(cutoff) {
			sess.sheet = nil
			n++
		}
		sess.mu.Unlock()
	}
	return n
}

// Clear drops every open sheet.
func (s *Sessions) Clear() {
	for _, sess := range s.all() {
		sess.mu.Lock()
		sess.sheet = nil
		sess.mu.Unlock()
	}
}

func (s *Sessions) all() []*session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*session, 0, len(s.users))
	for _, sess := range s.users {
		out = append(out, sess)
	}
	return out
}

// Len is the number of users with an open sheet.
func (s *Sessions) Len() int {
	n := 0
	for _, sess := range s.all() {
		sess.mu.Lock()
		if sess.sheet != nil {
			n++
		}
		sess.mu.Unlock()
	}
	return n
}
