package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cybernauts/backend/internal/domain"
	"cybernauts/backend/internal/events"
	apperrors "cybernauts/backend/pkg/errors"
)

// Link makes two users friends. Linking existing friends changes nothing.
//
// Both records are read, modified and written back without a version
// check, so two concurrent links touching the same user can lose one write.
func (s *UserService) Link(ctx context.Context, id, friendID string) error {
	if friendID == "" {
		return apperrors.NewInvalidOperation("link", "friendId is required")
	}
	if id == friendID {
		return apperrors.NewInvalidOperation("link", "Users cannot link to themselves.")
	}

	user, friend, err := s.loadPair(ctx, id, friendID)
	if err != nil {
		return err
	}

	userChanged := user.AddFriend(friendID)
	friendChanged := friend.AddFriend(id)
	if err := s.savePair(ctx, events.ChannelUsersLinked, user, userChanged, friend, friendChanged); err != nil {
		return err
	}
	if !userChanged && !friendChanged {
		return nil
	}

	s.logger.Info("Linked users",
		zap.String("user_id", id),
		zap.String("friend_id", friendID),
	)
	s.afterMutation(ctx, events.ChannelUsersLinked, id, friendID)
	return nil
}

// Unlink removes the friendship between two users in both directions.
// Unlinking users that are not friends changes nothing.
func (s *UserService) Unlink(ctx context.Context, id, friendID string) error {
	if friendID == "" {
		return apperrors.NewInvalidOperation("unlink", "friendId is required")
	}

	user, friend, err := s.loadPair(ctx, id, friendID)
	if err != nil {
		return err
	}

	userChanged := user.RemoveFriend(friendID)
	friendChanged := friend.RemoveFriend(id)
	if err := s.savePair(ctx, events.ChannelUsersUnlinked, user, userChanged, friend, friendChanged); err != nil {
		return err
	}
	if !userChanged && !friendChanged {
		return nil
	}

	s.logger.Info("Unlinked users",
		zap.String("user_id", id),
		zap.String("friend_id", friendID),
	)
	s.afterMutation(ctx, events.ChannelUsersUnlinked, id, friendID)
	return nil
}

// loadPair fetches both users concurrently
func (s *UserService) loadPair(ctx context.Context, id, friendID string) (domain.User, domain.User, error) {
	var user, friend domain.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.store.FindByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		friend, err = s.store.FindByID(gctx, friendID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.User{}, domain.User{}, s.storeErr("find", err, id, friendID)
	}
	return user, friend, nil
}

// savePair writes the changed records. If the second write fails after the
// first landed, cached views are still invalidated before returning.
func (s *UserService) savePair(ctx context.Context, channel string, user domain.User, userChanged bool, friend domain.User, friendChanged bool) error {
	if userChanged {
		if err := s.store.Update(ctx, user); err != nil {
			return s.storeErr("update", err, user.ID, friend.ID)
		}
	}
	if friendChanged {
		if err := s.store.Update(ctx, friend); err != nil {
			if userChanged {
				s.logger.Warn("Friendship partially written",
					zap.String("channel", channel),
					zap.String("user_id", user.ID),
					zap.String("friend_id", friend.ID),
					zap.Error(err),
				)
				s.afterMutation(ctx, channel, user.ID, friend.ID)
			}
			return s.storeErr("update", err, user.ID, friend.ID)
		}
	}
	return nil
}
