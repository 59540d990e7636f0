package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/barbot/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps everything in process memory. WithinTx
// serialises callers but cannot undo writes made before fn fails.
type InMemoryRepositoryManager struct {
	mu    sync.Mutex
	users *users.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *InMemoryRepositoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, users users.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m.users)
}

func (m *InMemoryRepositoryManager) Ping(ctx context.Context) error { return ctx.Err() }

func (m *InMemoryRepositoryManager) Close() error { return nil }
