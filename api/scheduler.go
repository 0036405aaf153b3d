/*
scheduler.go - Idle timesheet session sweeper

PURPOSE:
  Open timesheets live in memory between requests. An employee who opens
  a week and walks away would otherwise pin that sheet forever. The
  sweeper periodically drops sheets that have not been touched for the
  idle timeout; their unsaved edits are lost, stored drafts are not.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Each tick evicts sheets last used before now - IdleTimeout
  - Start/Stop are idempotent and safe to call from shutdown paths

CONFIGURATION:
  - CheckInterval: How often to sweep (config: sessions.sweep_interval)
  - IdleTimeout:   How long a sheet may sit unused (config: sessions.idle_timeout)

USAGE:
  sweeper := NewSessionSweeper(svc.Sessions(), log)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - timesheet/sessions.go: EvictIdle
  - cmd/server/main.go: Wiring
*/
package api

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/timesheet-engine/timesheet"
)

// SessionSweeper evicts idle sheets on a timer.
type SessionSweeper struct {
	Sessions      *timesheet.Sessions
	CheckInterval time.Duration
	IdleTimeout   time.Duration

	log    zerolog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSessionSweeper creates a sweeper with a 10 minute interval and an
// 8 hour idle timeout.
func NewSessionSweeper(sessions *timesheet.Sessions, log zerolog.Logger) *SessionSweeper {
	return &SessionSweeper{
		Sessions:      sessions,
		CheckInterval: 10 * time.Minute,
		IdleTimeout:   8 * time.Hour,
		log:           log.With().Str("component", "sweeper").Logger(),
	}
}

// Start begins sweeping.
func (s *SessionSweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run(s.ticker, s.stop)

	s.log.Info().
		Dur("interval", s.CheckInterval).
		Dur("idle_timeout", s.IdleTimeout).
		Msg("session sweeper started")
}

// Stop stops the sweeper and waits for an in-flight sweep to finish.
func (s *SessionSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.log.Info().Msg("session sweeper stopped")
}

func (s *SessionSweeper) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-ticker.C:
			s.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow sweeps immediately and returns how many sheets were dropped.
func (s *SessionSweeper) RunNow() int {
	n := s.Sessions.EvictIdle(time.Now().Add(-s.IdleTimeout))
	if n > 0 {
		s.log.Info().Int("evicted", n).Msg("idle timesheets evicted")
	}
	return n
}
