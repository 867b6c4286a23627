package lifecycle

import "sync"

// orderLocks serializes commit+publish per order inside this process so
// events reach a room in commit order. Entries are dropped when unused.
type orderLocks struct {
	mu    sync.Mutex
	locks map[uint]*orderLock
}

type orderLock struct {
	sync.Mutex
	refs int
}

func (l *orderLocks) lock(orderID uint) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[uint]*orderLock)
	}
	ol, ok := l.locks[orderID]
	if !ok {
		ol = &orderLock{}
		l.locks[orderID] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.Lock()
	return func() {
		ol.Unlock()
		l.mu.Lock()
		ol.refs--
		if ol.refs == 0 {
			delete(l.locks, orderID)
		}
		l.mu.Unlock()
	}
}

func (l *orderLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
