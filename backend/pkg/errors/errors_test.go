package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf_FindsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("link failed: %w", NewUserNotFound("a", "b"))

	assert.Equal(t, ErrorTypeNotFound, TypeOf(err))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
}

func TestTypeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("boom")))
	assert.False(t, IsErrorType(nil, ErrorTypeNotFound))
}

func TestNewUserNotFound_Message(t *testing.T) {
	assert.Equal(t, "[not_found] User not found", NewUserNotFound("a").Error())
	assert.Equal(t, "[not_found] One or both users not found.", NewUserNotFound("a", "b").Error())
}

func TestNewUserHasFriends(t *testing.T) {
	err := NewUserHasFriends("a", 2)

	assert.True(t, IsConflict(err))
	assert.Equal(t, 2, err.FriendCount)
	assert.Contains(t, err.Error(), "User cannot be deleted while they have friends")
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewUnavailable("cache", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsErrorType(err, ErrorTypeUnavailable))
}

func TestInvalidOperation(t *testing.T) {
	err := NewInvalidOperation("link", "Users cannot link to themselves.")

	assert.True(t, IsInvalidOperation(err))
	assert.Equal(t, "link", err.Operation)
}

func TestMessageOf(t *testing.T) {
	wrapped := fmt.Errorf("link: %w", NewInvalidOperation("link", "Users cannot link to themselves."))
	assert.Equal(t, "Users cannot link to themselves.", MessageOf(wrapped))
	assert.Equal(t, "plain", MessageOf(stderrors.New("plain")))
}
