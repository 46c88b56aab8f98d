// Package repotest provides an in-memory UserRepository for tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"userapi/internal/models"
	"userapi/internal/repository"
)

// MemoryUsers is a concurrency-safe in-memory repository.UserRepository with
// the same uniqueness and id semantics as the SQL store.
type MemoryUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]models.User

	// Err, when set, is returned by every call.
	Err error
}

var _ repository.UserRepository = (*MemoryUsers)(nil)

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{nextID: 1, users: make(map[int64]models.User)}
}

func (m *MemoryUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	if m.conflicts(user) {
		return repository.ErrDuplicate
	}

	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	m.nextID++
	m.users[user.ID] = *user

	return nil
}

func (m *MemoryUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.ID == id })
}

func (m *MemoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.Email == email })
}

func (m *MemoryUsers) FindByUsernameOrEmail(_ context.Context, username, email string) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.Username == username || u.Email == email })
}

func (m *MemoryUsers) List(_ context.Context, offset, limit int) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	users := m.sorted()
	result := make([]*models.User, 0)
	for i := offset; i < len(users) && len(result) < limit; i++ {
		u := users[i]
		result = append(result, &u)
	}

	return result, nil
}

func (m *MemoryUsers) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	stored, ok := m.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if m.conflicts(user) {
		return repository.ErrDuplicate
	}

	stored.Username = user.Username
	stored.Email = user.Email
	stored.PasswordHash = user.PasswordHash
	m.users[user.ID] = stored

	return nil
}

func (m *MemoryUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)

	return nil
}

func (m *MemoryUsers) find(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.sorted() {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MemoryUsers) conflicts(user *models.User) bool {
	for id, u := range m.users {
		if id != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return true
		}
	}
	return false
}

func (m *MemoryUsers) sorted() []models.User {
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}
