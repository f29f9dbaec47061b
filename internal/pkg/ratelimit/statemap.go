package ratelimit

import (
	"sync"
	"sync/atomic"
)

// entry хранит состояние одного ключа под собственным mutex.
// evicted выставляется под mu перед удалением из карты: вызов, успевший
// получить указатель на удалённую запись, увидит флаг и повторит поиск.
type entry[S any] struct {
	mu      sync.Mutex
	evicted bool
	state   S
}

// stateMap — типизированная обёртка над sync.Map: ключ → *entry[S].
// Значения создаются лениво через create и подсчитываются атомарно.
type stateMap[S any] struct {
	entries sync.Map
	create  func() S
	size    atomic.Int64
}

func newStateMap[S any](create func() S) *stateMap[S] {
	return &stateMap[S]{create: create}
}

func (m *stateMap[S]) load(k Key) *entry[S] {
	if v, ok := m.entries.Load(k); ok {
		return v.(*entry[S])
	}
	v, loaded := m.entries.LoadOrStore(k, &entry[S]{state: m.create()})
	if !loaded {
		m.size.Add(1)
	}
	return v.(*entry[S])
}

// update выполняет fn над состоянием ключа атомарно относительно других
// вызовов с тем же ключом, Sweep и Reset.
func (m *stateMap[S]) update(k Key, fn func(s *S) bool) bool {
	for {
		e := m.load(k)
		e.mu.Lock()
		if e.evicted {
			e.mu.Unlock()
			continue
		}
		ok := fn(&e.state)
		e.mu.Unlock()
		return ok
	}
}

// removeIf удаляет записи, для которых idle вернул true.
func (m *stateMap[S]) removeIf(idle func(s *S) bool) int {
	removed := 0
	m.entries.Range(func(k, v any) bool {
		e := v.(*entry[S])
		e.mu.Lock()
		if !e.evicted && idle(&e.state) {
			e.evicted = true
			if m.entries.CompareAndDelete(k, e) {
				m.size.Add(-1)
				removed++
			}
		}
		e.mu.Unlock()
		return true
	})
	return removed
}

// clear удаляет все записи.
func (m *stateMap[S]) clear() {
	m.removeIf(func(*S) bool { return true })
}

// count возвращает число ключей. Range может обойти больше или меньше записей.
func (m *stateMap[S]) count() int {
	return int(m.size.Load())
}
