// Package keylock - мьютексы по строковому ключу (например, по имени автора).
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyLock сериализует работу с одним ключом, не блокируя остальные.
// Записи удаляются, когда ключ больше никто не держит и не ждет.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

// Lock захватывает ключ и возвращает функцию освобождения.
func (k *KeyLock) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

// Len - количество ключей, которые сейчас удерживаются или ожидаются.
func (k *KeyLock) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
