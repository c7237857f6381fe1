package key_value

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fathomhq/fathom/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type userInternal struct {
	UserID string `json:"user_id"`
}

type UserStorage struct {
	rdb *redis.Client
}

func NewUserStorage(rdb *redis.Client) *UserStorage {
	return &UserStorage{
		rdb: rdb,
	}
}

func (u *UserStorage) CreateUser(ctx context.Context) (model.User, error) {
	userID := uuid.New()
	userInt := userInternal{
		UserID: userID.String(),
	}
	userJSON, err := json.Marshal(userInt)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to marshal internal user: %w", err)
	}
	if err = u.rdb.Set(ctx, getUserIDKey(userID), userJSON, 0).Err(); err != nil {
		return model.User{}, fmt.Errorf("failed to save user %s: %w", userID, err)
	}
	return model.User{UserID: userID}, nil
}

func (u *UserStorage) GetUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	userRaw, err := u.rdb.Get(ctx, getUserIDKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.User{}, model.ErrUserDoesNotExist
		}
		return model.User{}, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	var userInt userInternal
	if err = json.Unmarshal([]byte(userRaw), &userInt); err != nil {
		return model.User{}, fmt.Errorf("failed to unmarshal user %s: %w", userID, err)
	}
	return model.User{UserID: userID}, nil
}

func (u *UserStorage) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	deleted, err := u.rdb.Del(ctx, getUserIDKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", userID, err)
	}
	if deleted == 0 {
		return model.ErrUserDoesNotExist
	}
	return nil
}

func getUserIDKey(id uuid.UUID) string {
	return fmt.Sprintf("user_%v", id.String())
}
