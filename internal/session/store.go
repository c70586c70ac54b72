// Package session содержит хранилище игровых сессий. По требованию
// архитектуры хранилище — явный коллаборатор с операциями create/get/delete,
// а не глобальная map процесса.
package session

import (
	"errors"
	"sync"

	"escape-server/internal/game"
)

// ErrNotFound возвращается, когда сессия не существует или уже удалена.
var ErrNotFound = errors.New("session not found")

// Store определяет жизненный цикл игровых сессий. Реализации могут быть
// in-memory (это пакет) или распределенными.
type Store interface {
	// Put регистрирует сессию. Прежняя активная сессия того же
	// пользователя вытесняется.
	Put(s *game.Session) error

	// Get возвращает сессию по идентификатору.
	Get(id string) (*game.Session, error)

	// GetByUser возвращает активную сессию пользователя.
	GetByUser(userID string) (*game.Session, error)

	// Delete удаляет сессию. Удаление несуществующей сессии не ошибка.
	Delete(id string)
}

// memoryStore — потокобезопасное in-memory хранилище. Состояние теряется
// при рестарте процесса; прогресс переживает рестарт только в виде
// GameRecord в репозитории.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
	byUser   map[string]string // userID -> sessionID
}

// NewMemoryStore создает пустое in-memory хранилище сессий.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[string]*game.Session),
		byUser:   make(map[string]string),
	}
}

func (m *memoryStore) Put(s *game.Session) error {
	if s == nil || s.ID() == "" {
		return errors.New("session must have an id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.byUser[s.UserID()]; ok && old != s.ID() {
		delete(m.sessions, old)
	}
	m.sessions[s.ID()] = s
	if s.UserID() != "" {
		m.byUser[s.UserID()] = s.ID()
	}
	return nil
}

func (m *memoryStore) Get(id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memoryStore) GetByUser(userID string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.byUser[userID]; ok {
		if s, ok := m.sessions[id]; ok {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		if cur, ok := m.byUser[s.UserID()]; ok && cur == id {
			delete(m.byUser, s.UserID())
		}
	}
}
