package in_memory

import (
	"context"
	"sync"

	"github.com/fathomhq/fathom/internal/model"
	"github.com/google/uuid"
)

type UserStorage struct {
	mu    sync.RWMutex
	users map[uuid.UUID]model.User
}

func NewUserStorage() *UserStorage {
	return &UserStorage{
		users: make(map[uuid.UUID]model.User),
	}
}

func (u *UserStorage) CreateUser(_ context.Context) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	user := model.User{UserID: uuid.New()}
	u.users[user.UserID] = user
	return user, nil
}

func (u *UserStorage) GetUser(_ context.Context, userID uuid.UUID) (model.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	user, ok := u.users[userID]
	if !ok {
		return model.User{}, model.ErrUserDoesNotExist
	}
	return user, nil
}

func (u *UserStorage) DeleteUser(_ context.Context, userID uuid.UUID) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.users[userID]; !ok {
		return model.ErrUserDoesNotExist
	}
	delete(u.users, userID)
	return nil
}
