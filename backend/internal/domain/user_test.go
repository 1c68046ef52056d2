package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHobbies(t *testing.T) {
	got := NormalizeHobbies([]string{"  Coding ", "MUSIC", "", "   ", "music"})
	assert.Equal(t, []string{"coding", "music", "music"}, got)
}

func TestAddRemoveFriend(t *testing.T) {
	u := User{ID: "a"}

	assert.True(t, u.AddFriend("b"))
	assert.False(t, u.AddFriend("b"))
	assert.Equal(t, []string{"b"}, u.Friends)

	assert.True(t, u.RemoveFriend("b"))
	assert.False(t, u.RemoveFriend("b"))
	assert.Empty(t, u.Friends)
}

func TestRemoveFriend_DropsDuplicates(t *testing.T) {
	u := User{ID: "a", Friends: []string{"b", "c", "b"}}

	assert.True(t, u.RemoveFriend("b"))
	assert.Equal(t, []string{"c"}, u.Friends)
}

func TestClone_DoesNotAlias(t *testing.T) {
	u := User{ID: "a", Hobbies: []string{"art"}, Friends: []string{"b"}, Position: &Position{X: 1, Y: 2}}
	c := u.Clone()
	c.Hobbies[0] = "chess"
	c.Friends[0] = "z"
	c.Position.X = 9

	assert.Equal(t, "art", u.Hobbies[0])
	assert.Equal(t, "b", u.Friends[0])
	assert.Equal(t, 1.0, u.Position.X)
	assert.Nil(t, User{ID: "b"}.Clone().Position)
}

func TestUserPatch_Apply(t *testing.T) {
	u := User{ID: "a", Username: "Alice", Age: 30, Hobbies: []string{"art"}}
	name := "  Alicia "
	age := 31

	UserPatch{Username: &name, Age: &age, Hobbies: []string{" Chess"}}.Apply(&u)

	assert.Equal(t, "Alicia", u.Username)
	assert.Equal(t, 31, u.Age)
	assert.Equal(t, []string{"chess"}, u.Hobbies)

	UserPatch{}.Apply(&u)
	assert.Equal(t, []string{"chess"}, u.Hobbies, "nil hobbies leave the set unchanged")
}

func TestUserPatch_ApplyOriginPosition(t *testing.T) {
	u := User{ID: "a", Position: &Position{X: 40, Y: 50}}
	origin := Position{}

	UserPatch{Position: &origin}.Apply(&u)

	if assert.NotNil(t, u.Position, "the origin is a stored position") {
		assert.Equal(t, Position{}, *u.Position)
	}
	origin.X = 3
	assert.Equal(t, 0.0, u.Position.X, "patch value is copied")
}
