package service

import (
	"context"
	"fmt"
	"strings"

	"propelize/internal/apperr"
	"propelize/internal/model"
	"propelize/internal/repository"
	"propelize/internal/utils"
)

const MsgNotYourAccount = "access denied: insufficient permissions"

// UserService manages user records on behalf of an authenticated actor
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, actor *model.User, id int) (*model.User, error)
	UpdateUser(ctx context.Context, actor *model.User, id int, req model.UpdateUserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, id int) error
}

type userService struct {
	repo   repository.UserRepository
	hasher *utils.PasswordHasher
}

// NewUserService creates a new UserService
func NewUserService(repo repository.UserRepository, hasher *utils.PasswordHasher) UserService {
	return &userService{repo: repo, hasher: hasher}
}

// canManage reports whether actor may read or modify the user with the given id.
func canManage(actor *model.User, id int) bool {
	return actor.Role == model.RoleAdmin || actor.ID == id
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) GetUser(ctx context.Context, actor *model.User, id int) (*model.User, error) {
	if !canManage(actor, id) {
		return nil, apperr.Forbidden(MsgNotYourAccount)
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound(MsgUserNotFound)
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor *model.User, id int, req model.UpdateUserRequest) (*model.User, error) {
	if !canManage(actor, id) {
		return nil, apperr.Forbidden(MsgNotYourAccount)
	}
	// Only admins may change roles, including their own.
	if req.Role != nil && actor.Role != model.RoleAdmin {
		return nil, apperr.Forbidden(MsgNotYourAccount)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for update: %w", err)
	}
	if existing == nil {
		return nil, apperr.NotFound(MsgUserNotFound)
	}

	var fields model.UserUpdate
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		fields.Name = &name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != existing.Email {
			other, err := s.repo.FindByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email availability: %w", err)
			}
			if other != nil && other.ID != id {
				return nil, apperr.Conflict(MsgEmailTaken)
			}
		}
		fields.Email = &email
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		fields.PasswordHash = &hash
	}
	if req.Role != nil {
		role := *req.Role
		fields.Role = &role
	}
	if fields.IsEmpty() {
		return existing, nil
	}

	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Deleted between the lookup and the write.
		return nil, apperr.NotFound(MsgUserNotFound)
	}
	return updated, nil
}

func (s *userService) DeleteUser(ctx context.Context, id int) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return apperr.NotFound(MsgUserNotFound)
	}
	return nil
}
