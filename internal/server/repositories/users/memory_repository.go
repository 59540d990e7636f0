package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/barbot/internal/common"
	"github.com/dmitrijs2005/barbot/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. All state sits behind
// one mutex, so Insert's uniqueness check and write are atomic.
type MemoryRepository struct {
	mu         sync.RWMutex
	ordered    []*models.User
	byUsername map[string]*models.User
	byEmail    map[string]*models.User
	now        func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byUsername: make(map[string]*models.User),
		byEmail:    make(map[string]*models.User),
		now:        time.Now,
	}
}

func clone(u *models.User) *models.User {
	c := *u
	return &c
}

func (r *MemoryRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byUsername[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if username != "" {
		if _, ok := r.byUsername[username]; ok {
			return true, nil
		}
	}
	if email != "" {
		if _, ok := r.byEmail[email]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[u.Username]; ok {
		return nil, ErrUsernameTaken
	}
	if _, ok := r.byEmail[u.Email]; ok {
		return nil, ErrEmailTaken
	}

	stored := clone(u)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = r.now().UTC().Truncate(time.Second)

	r.ordered = append(r.ordered, stored)
	r.byUsername[stored.Username] = stored
	r.byEmail[stored.Email] = stored

	return clone(stored), nil
}

func (r *MemoryRepository) List(ctx context.Context, offset, limit int) ([]*models.User, error) {
	offset, limit = normalizePage(offset, limit)

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.User, 0)
	for i := offset; i < len(r.ordered) && len(out) < limit; i++ {
		out = append(out, clone(r.ordered[i]))
	}
	return out, nil
}

func (r *MemoryRepository) SetDisabled(ctx context.Context, username string, disabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byUsername[username]
	if !ok {
		return common.ErrorNotFound
	}
	u.Disabled = disabled
	return nil
}
