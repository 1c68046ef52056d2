package domain

import (
	"strings"
	"time"
)

// Position is a persisted 2-D layout coordinate for the graph view
type Position struct {
	X float64 `json:"x" bson:"x" dynamodbav:"x"`
	Y float64 `json:"y" bson:"y" dynamodbav:"y"`
}

// User is a single record in the user store. A nil Position means the
// record has no stored layout coordinate.
type User struct {
	ID        string    `json:"id" bson:"_id" dynamodbav:"id"`
	Username  string    `json:"username" bson:"username" dynamodbav:"username"`
	Age       int       `json:"age" bson:"age" dynamodbav:"age"`
	Hobbies   []string  `json:"hobbies" bson:"hobbies" dynamodbav:"hobbies"`
	Friends   []string  `json:"friends" bson:"friends" dynamodbav:"friends"`
	Position  *Position `json:"position" bson:"position,omitempty" dynamodbav:"position,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" dynamodbav:"createdAt"`
}

// HasFriend reports whether id is in the user's friend set
func (u *User) HasFriend(id string) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// AddFriend adds id to the friend set. It returns false if already present.
func (u *User) AddFriend(id string) bool {
	if u.HasFriend(id) {
		return false
	}
	u.Friends = append(u.Friends, id)
	return true
}

// RemoveFriend drops every occurrence of id from the friend set.
// It returns false if id was not present.
func (u *User) RemoveFriend(id string) bool {
	kept := u.Friends[:0]
	removed := false
	for _, f := range u.Friends {
		if f == id {
			removed = true
			continue
		}
		kept = append(kept, f)
	}
	u.Friends = kept
	return removed
}

// Clone returns a deep copy so callers cannot alias stored slices
func (u User) Clone() User {
	c := u
	c.Hobbies = append([]string(nil), u.Hobbies...)
	c.Friends = append([]string(nil), u.Friends...)
	if u.Position != nil {
		pos := *u.Position
		c.Position = &pos
	}
	return c
}

// NormalizeHobbies lower-cases and trims each hobby. Empty entries are dropped;
// duplicates are kept as written.
func NormalizeHobbies(hobbies []string) []string {
	out := make([]string, 0, len(hobbies))
	for _, h := range hobbies {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		out = append(out, h)
	}
	return out
}

// UserPatch carries the optional fields of an update. Nil means unchanged.
type UserPatch struct {
	Username *string
	Age      *int
	Hobbies  []string // nil means unchanged, empty slice clears
	Position *Position
}

// Apply writes the set fields of the patch onto u
func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = strings.TrimSpace(*p.Username)
	}
	if p.Age != nil {
		u.Age = *p.Age
	}
	if p.Hobbies != nil {
		u.Hobbies = NormalizeHobbies(p.Hobbies)
	}
	if p.Position != nil {
		pos := *p.Position
		u.Position = &pos
	}
}
