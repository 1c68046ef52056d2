package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cybernauts/backend/internal/domain"
)

func testUser(id, username string, created time.Time) domain.User {
	return domain.User{
		ID:        id,
		Username:  username,
		Age:       30,
		Hobbies:   []string{"chess", "hiking"},
		Friends:   []string{},
		Position:  &domain.Position{X: 10, Y: 20},
		CreatedAt: created,
	}
}

// runStoreContract exercises the behaviour every backend must share.
// The store must be empty when it is called.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("insert and find", func(t *testing.T) {
		u := testUser("c-1", "alice", base)
		require.NoError(t, s.Insert(ctx, u))

		got, err := s.FindByID(ctx, "c-1")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, 30, got.Age)
		assert.Equal(t, []string{"chess", "hiking"}, got.Hobbies)
		assert.Empty(t, got.Friends)
		require.NotNil(t, got.Position)
		assert.Equal(t, domain.Position{X: 10, Y: 20}, *got.Position)
		assert.True(t, got.CreatedAt.Equal(base))
	})

	t.Run("find missing", func(t *testing.T) {
		_, err := s.FindByID(ctx, "does-not-exist")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate insert fails", func(t *testing.T) {
		assert.Error(t, s.Insert(ctx, testUser("c-1", "again", base)))
	})

	t.Run("update replaces record", func(t *testing.T) {
		u, err := s.FindByID(ctx, "c-1")
		require.NoError(t, err)
		u.Username = "alice2"
		u.Friends = []string{"c-2"}
		require.NoError(t, s.Update(ctx, u))

		got, err := s.FindByID(ctx, "c-1")
		require.NoError(t, err)
		assert.Equal(t, "alice2", got.Username)
		assert.Equal(t, []string{"c-2"}, got.Friends)
	})

	t.Run("update missing", func(t *testing.T) {
		err := s.Update(ctx, testUser("ghost", "ghost", base))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list orders by creation then id", func(t *testing.T) {
		require.NoError(t, s.Insert(ctx, testUser("c-3", "carol", base.Add(2*time.Hour))))
		require.NoError(t, s.Insert(ctx, testUser("c-2", "bob", base.Add(time.Hour))))
		require.NoError(t, s.Insert(ctx, testUser("c-0", "dave", base)))

		users, total, err := s.List(ctx, ListOptions{Skip: 0, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		ids := make([]string, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		assert.Equal(t, []string{"c-0", "c-1", "c-2", "c-3"}, ids)
	})

	t.Run("list pages", func(t *testing.T) {
		users, total, err := s.List(ctx, ListOptions{Skip: 2, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, users, 1)
		assert.Equal(t, "c-2", users[0].ID)

		users, total, err = s.List(ctx, ListOptions{Skip: 10, Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Empty(t, users)
	})

	t.Run("list search is case insensitive substring", func(t *testing.T) {
		users, total, err := s.List(ctx, ListOptions{Limit: 10, Search: "ALI"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, users, 1)
		assert.Equal(t, "c-1", users[0].ID)
	})

	t.Run("find by ids skips unknown", func(t *testing.T) {
		users, err := s.FindByIDs(ctx, []string{"c-2", "nope", "c-3"})
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("all and count", func(t *testing.T) {
		all, err := s.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 4)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "c-0"))
		assert.ErrorIs(t, s.Delete(ctx, "c-0"), ErrNotFound)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("origin position is kept and absence round-trips", func(t *testing.T) {
		u := testUser("c-9", "origin", base.Add(3*time.Hour))
		u.Position = &domain.Position{}
		require.NoError(t, s.Insert(ctx, u))

		got, err := s.FindByID(ctx, "c-9")
		require.NoError(t, err)
		require.NotNil(t, got.Position)
		assert.Equal(t, domain.Position{}, *got.Position)

		got.Position = nil
		require.NoError(t, s.Update(ctx, got))
		got, err = s.FindByID(ctx, "c-9")
		require.NoError(t, err)
		assert.Nil(t, got.Position)

		require.NoError(t, s.Delete(ctx, "c-9"))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})

	if tr, ok := s.(Truncater); ok {
		t.Run("delete all", func(t *testing.T) {
			n, err := tr.DeleteAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)

			count, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}
