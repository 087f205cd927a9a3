package session

import "sync"

// PhoneLocks serializes message processing per phone so two webhook
// deliveries for the same customer cannot interleave state transitions.
// Different phones proceed concurrently.
type PhoneLocks struct {
	mu    sync.Mutex
	locks map[string]*phoneLock
}

type phoneLock struct {
	mu   sync.Mutex
	refs int
}

// NewPhoneLocks creates an empty lock table.
func NewPhoneLocks() *PhoneLocks {
	return &PhoneLocks{locks: map[string]*phoneLock{}}
}

// Lock acquires the mutex for the phone, creating it on first use.
func (p *PhoneLocks) Lock(phone string) {
	p.mu.Lock()
	l, ok := p.locks[phone]
	if !ok {
		l = &phoneLock{}
		p.locks[phone] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
}

// Unlock releases the mutex for the phone, dropping the entry once nobody
// holds or waits on it.
func (p *PhoneLocks) Unlock(phone string) {
	p.mu.Lock()
	l, ok := p.locks[phone]
	if ok {
		l.refs--
		if l.refs == 0 {
			delete(p.locks, phone)
		}
	}
	p.mu.Unlock()

	if ok {
		l.mu.Unlock()
	}
}
