package kv

import (
	"errors"
	"sync"
)

// ErrNotFound indica que la clave no existe en el almacén.
var ErrNotFound = errors.New("key not found")

// Store es un almacén clave-valor persistente, el análogo del
// localStorage del navegador. Las implementaciones deben ser seguras
// para uso concurrente.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

type memoryStore struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryStore crea un almacén en memoria, útil para tests.
func NewMemoryStore() Store {
	return &memoryStore{items: make(map[string]string)}
}

func (s *memoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *memoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *memoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}
