package usecase

import (
	"context"
	"fmt"

	"github.com/fathomhq/fathom/internal/model"
	"github.com/google/uuid"
)

type UserStorage interface {
	CreateUser(ctx context.Context) (model.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (model.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type UserUsecaseDeps struct {
	UserStorage  UserStorage
	MacroStorage MacroStorage
}

type UserUsecase struct {
	UserUsecaseDeps
}

func NewUserUsecase(deps UserUsecaseDeps) *UserUsecase {
	return &UserUsecase{
		UserUsecaseDeps: deps,
	}
}

func (u *UserUsecase) CreateUser(ctx context.Context) (model.User, error) {
	return u.UserStorage.CreateUser(ctx)
}

func (u *UserUsecase) GetUser(ctx context.Context, userID uuid.UUID) (model.User, error) {
	return u.UserStorage.GetUser(ctx, userID)
}

// DeleteUser removes the user and cascades deletion of their macros.
func (u *UserUsecase) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := u.UserStorage.GetUser(ctx, userID); err != nil {
		return err
	}
	if err := u.MacroStorage.DeleteUserMacros(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user macros: %w", err)
	}
	return u.UserStorage.DeleteUser(ctx, userID)
}
