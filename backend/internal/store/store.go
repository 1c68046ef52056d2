// Package store persists user records. Every backend keeps the same
// contract: records are documents keyed by user id, friend sets live on the
// record itself and no operation spans more than one record.
package store

import (
	"context"
	"errors"
	"sort"
	"strings"

	"cybernauts/backend/internal/domain"
)

// ErrNotFound is returned when a record with the requested id does not exist
var ErrNotFound = errors.New("user not found in store")

// ListOptions selects one page of users
type ListOptions struct {
	Skip   int
	Limit  int
	Search string // case-insensitive substring of username; empty matches all
}

// Store is the document store holding user records
type Store interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
	// FindByIDs returns the records that exist; unknown ids are omitted.
	FindByIDs(ctx context.Context, ids []string) ([]domain.User, error)
	// List returns one page ordered by creation time then id, plus the total
	// number of records matching the search.
	List(ctx context.Context, opts ListOptions) ([]domain.User, int64, error)
	All(ctx context.Context) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
	Insert(ctx context.Context, user domain.User) error
	// Update replaces the whole record. It returns ErrNotFound if missing.
	Update(ctx context.Context, user domain.User) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Truncater is implemented by stores that can drop every record (seeding, tests)
type Truncater interface {
	DeleteAll(ctx context.Context) (int64, error)
}

// sortUsers orders records the way List promises: createdAt, then id
func sortUsers(users []domain.User) {
	sort.SliceStable(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
}

func matchesSearch(u domain.User, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u.Username), strings.ToLower(search))
}

// pageOf filters, sorts and slices users in memory. Used by backends whose
// query model has no offset pagination.
func pageOf(users []domain.User, opts ListOptions) ([]domain.User, int64) {
	matched := make([]domain.User, 0, len(users))
	for _, u := range users {
		if matchesSearch(u, opts.Search) {
			matched = append(matched, u)
		}
	}
	sortUsers(matched)

	total := int64(len(matched))
	start := opts.Skip
	if start < 0 {
		start = 0
	}
	if start >= len(matched) {
		return []domain.User{}, total
	}
	end := len(matched)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	return matched[start:end], total
}
