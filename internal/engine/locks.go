package engine

import "sync"

// entityLocks hands out one mutex per entity id so compound
// read-modify-write sequences on the same poll, question, photo or live
// event are atomic. Different entities proceed fully in parallel.
type entityLocks struct {
	locks sync.Map // map[string]*sync.Mutex
}

func newEntityLocks() *entityLocks {
	return &entityLocks{}
}

func (l *entityLocks) get(entityID string) *sync.Mutex {
	lock, _ := l.locks.LoadOrStore(entityID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
