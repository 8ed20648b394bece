package userstore

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goGuard/binding"
)

type mapStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMapStore() *mapStore { return &mapStore{m: map[string]string{}} }

func (s *mapStore) Set(_ context.Context, k, v string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[k] = v
	return nil
}

func (s *mapStore) Get(_ context.Context, k string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[k]
	if !ok {
		return "", binding.ErrMiss
	}
	return v, nil
}

func (s *mapStore) Touch(_ context.Context, k string, _ time.Duration) error {
	_, err := s.Get(context.Background(), k)
	return err
}

func (s *mapStore) Delete(_ context.Context, k string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, k)
	return nil
}
