package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"cybernauts/backend/internal/cache"
	"cybernauts/backend/internal/domain"
	"cybernauts/backend/internal/events"
	"cybernauts/backend/internal/graph"
	"cybernauts/backend/internal/store"
	apperrors "cybernauts/backend/pkg/errors"
)

// CreateUserInput holds the fields of a new user
type CreateUserInput struct {
	Username string
	Age      int
	Hobbies  []string
	Position *domain.Position // nil assigns a layout position
}

// UpdateUserInput holds the optional fields of an update
type UpdateUserInput = domain.UserPatch

// ListParams selects a page of users
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

// UsersPage is one page of users
type UsersPage struct {
	Users      []domain.User     `json:"users"`
	Pagination domain.Pagination `json:"pagination"`
}

// Create stores a new user with no friends
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return domain.User{}, apperrors.NewInvalidOperation("create", "username is required")
	}
	if in.Age < 0 {
		return domain.User{}, apperrors.NewInvalidOperation("create", "age must be non-negative")
	}

	user := domain.User{
		ID:        s.newID(),
		Username:  username,
		Age:       in.Age,
		Hobbies:   domain.NormalizeHobbies(in.Hobbies),
		Friends:   []string{},
		CreatedAt: s.clock(),
	}
	if in.Position != nil {
		pos := *in.Position
		user.Position = &pos
	} else {
		pos := s.nextPosition(ctx)
		user.Position = &pos
	}

	if err := s.store.Insert(ctx, user); err != nil {
		return domain.User{}, s.storeErr("insert", err, user.ID)
	}

	s.logger.Info("Created user",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
	)
	s.afterMutation(ctx, events.ChannelUserCreated, user.ID)
	return user, nil
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, s.storeErr("find", err, id)
	}
	return u, nil
}

// List returns a page of users, optionally filtered by a username substring
func (s *UserService) List(ctx context.Context, p ListParams) (UsersPage, error) {
	page, limit := graph.NormalizePage(p.Page, p.Limit, DefaultUsersLimit, MaxUsersLimit)
	search := strings.TrimSpace(p.Search)
	key := fmt.Sprintf("users:list:%d:%d:%s", page, limit, url.QueryEscape(search))

	var cached UsersPage
	if found, _ := cache.GetJSON(ctx, s.cache, key, &cached); found {
		return cached, nil
	}

	users, total, err := s.store.List(ctx, store.ListOptions{
		Skip:   graph.Skip(page, limit),
		Limit:  limit,
		Search: search,
	})
	if err != nil {
		return UsersPage{}, s.storeErr("list", err)
	}

	result := UsersPage{
		Users:      users,
		Pagination: graph.BuildPagination(page, limit, len(users), total),
	}
	s.remember(ctx, key, result)
	return result, nil
}

// ListAll returns every user ordered by creation time
func (s *UserService) ListAll(ctx context.Context) ([]domain.User, error) {
	const key = "users:all"

	var cached []domain.User
	if found, _ := cache.GetJSON(ctx, s.cache, key, &cached); found {
		return cached, nil
	}

	users, err := s.store.All(ctx)
	if err != nil {
		return nil, s.storeErr("all", err)
	}
	s.remember(ctx, key, users)
	return users, nil
}

// Update applies a patch. Friends cannot be changed here.
func (s *UserService) Update(ctx context.Context, id string, patch UpdateUserInput) (domain.User, error) {
	if patch.Username != nil && strings.TrimSpace(*patch.Username) == "" {
		return domain.User{}, apperrors.NewInvalidOperation("update", "username cannot be empty")
	}
	if patch.Age != nil && *patch.Age < 0 {
		return domain.User{}, apperrors.NewInvalidOperation("update", "age must be non-negative")
	}

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, s.storeErr("find", err, id)
	}

	patch.Apply(&user)
	if err := s.store.Update(ctx, user); err != nil {
		return domain.User{}, s.storeErr("update", err, id)
	}

	s.logger.Info("Updated user", zap.String("user_id", id))
	s.afterMutation(ctx, events.ChannelUserUpdated, id)
	return user, nil
}

// UpdatePosition stores the layout position the frontend dragged a node to
func (s *UserService) UpdatePosition(ctx context.Context, id string, pos domain.Position) (domain.User, error) {
	return s.Update(ctx, id, UpdateUserInput{Position: &pos})
}

// Delete removes a user that has no friends left
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return s.storeErr("find", err, id)
	}
	if len(user.Friends) > 0 {
		return apperrors.NewUserHasFriends(id, len(user.Friends))
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return s.storeErr("delete", err, id)
	}

	s.logger.Info("Deleted user", zap.String("user_id", id))
	s.afterMutation(ctx, events.ChannelUserDeleted, id)
	return nil
}

// nextPosition asks the layout for the slot after the current last user
func (s *UserService) nextPosition(ctx context.Context) domain.Position {
	index := 0
	if _, grid := s.positions.(*graph.GridPositions); grid {
		if n, err := s.store.Count(ctx); err == nil {
			index = int(n)
		}
	}
	return s.positions.Position(index)
}
