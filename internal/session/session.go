// Package session tracks the files a client uploads for stamping.
//
// Types:
//   - Session: uploaded documents and seal images, the latest output, and
//     whether a stamp job is running.
//   - SessionManager: all live sessions.
//   - Sweeper: removes expired sessions and their files. It is started and
//     stopped explicitly by the server.
package session

import (
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"go-stamppdf/internal/utils"
)

type Session struct {
	ID         string
	Files      []string
	OutputFile string
	CreatedAt  time.Time
	busy       bool
	Mutex      sync.Mutex
}

type SessionManager struct {
	Sessions map[string]*Session
	Mutex    sync.RWMutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		Sessions: make(map[string]*Session),
	}
}

func (sm *SessionManager) CreateSession() *Session {
	sm.Mutex.Lock()
	defer sm.Mutex.Unlock()

	session := &Session{
		ID:        utils.GenerateUUID(),
		Files:     []string{},
		CreatedAt: time.Now(),
	}
	sm.Sessions[session.ID] = session
	return session
}

func (sm *SessionManager) GetSession(id string) (*Session, bool) {
	sm.Mutex.RLock()
	defer sm.Mutex.RUnlock()
	session, exists := sm.Sessions[id]
	return session, exists
}

func (sm *SessionManager) DeleteSession(id string) {
	sm.Mutex.Lock()
	defer sm.Mutex.Unlock()
	delete(sm.Sessions, id)
}

// Expire removes sessions created more than ttl before now, deleting their
// files, and returns how many were removed.
func (sm *SessionManager) Expire(ttl time.Duration, now time.Time) int {
	sm.Mutex.Lock()
	var expired []*Session
	for id, s := range sm.Sessions {
		if now.Sub(s.CreatedAt) > ttl {
			expired = append(expired, s)
			delete(sm.Sessions, id)
		}
	}
	sm.Mutex.Unlock()

	for _, s := range expired {
		s.Cleanup()
	}
	return len(expired)
}

// CleanupAll removes every session and its files.
func (sm *SessionManager) CleanupAll() {
	sm.Mutex.Lock()
	all := sm.Sessions
	sm.Sessions = make(map[string]*Session)
	sm.Mutex.Unlock()

	for _, s := range all {
		s.Cleanup()
	}
}

func (s *Session) AddFile(filepath string) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.Files = append(s.Files, filepath)
}

func (s *Session) GetFiles() []string {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	return slices.Clone(s.Files)
}

func (s *Session) HasFile(filepath string) bool {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	return slices.Contains(s.Files, filepath)
}

// TryStart marks the session busy. It returns false if a job is already
// running.
func (s *Session) TryStart() bool {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

// Finish clears the busy flag. On success the new output replaces the
// previous one, which is deleted.
func (s *Session) Finish(output string) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.busy = false
	if output == "" {
		return
	}
	if s.OutputFile != "" && s.OutputFile != output {
		os.Remove(s.OutputFile)
	}
	s.OutputFile = output
}

func (s *Session) Output() string {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	return s.OutputFile
}

func (s *Session) Cleanup() {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	for _, file := range s.Files {
		os.Remove(file)
	}
	if s.OutputFile != "" {
		os.Remove(s.OutputFile)
	}
}

// Sweeper periodically expires sessions older than its TTL.
type Sweeper struct {
	sm       *SessionManager
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewSweeper(sm *SessionManager, ttl, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		sm:       sm,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop in a new goroutine.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case now := <-ticker.C:
				if n := s.sm.Expire(s.ttl, now); n > 0 {
					s.logger.Info("expired sessions removed", "count", n)
				}
			}
		}
	}()
}

// Stop ends the sweep loop and waits for it to exit. Stop must only be
// called after Start.
func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}
