package engagement

import "sync"

// PlayerLocks serializes mutations per player. Entries are reference
// counted and dropped once no goroutine holds or waits on them.
type PlayerLocks struct {
	mu    sync.Mutex
	locks map[string]*playerLock
}

type playerLock struct {
	mu   sync.Mutex
	refs int
}

// NewPlayerLocks creates an empty lock table.
func NewPlayerLocks() *PlayerLocks {
	return &PlayerLocks{locks: make(map[string]*playerLock)}
}

// Lock blocks until playerID's lock is held and returns its release func.
func (l *PlayerLocks) Lock(playerID string) (unlock func()) {
	l.mu.Lock()
	pl, ok := l.locks[playerID]
	if !ok {
		pl = &playerLock{}
		l.locks[playerID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			pl.mu.Unlock()
			l.mu.Lock()
			pl.refs--
			if pl.refs == 0 {
				delete(l.locks, playerID)
			}
			l.mu.Unlock()
		})
	}
}

// Len returns the number of players with a held or awaited lock.
func (l *PlayerLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
