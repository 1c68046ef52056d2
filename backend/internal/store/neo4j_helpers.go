package store

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"cybernauts/backend/internal/domain"
)

// ============================================================================
// Record Helpers
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getIntFromRecord(record *neo4j.Record, key string) int {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return int(i)
	}
	if i, ok := val.(int); ok {
		return i
	}
	return 0
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	return 0
}

func getFloat64FromRecord(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0.0
	}
	if f, ok := val.(float64); ok {
		return f
	}
	if i, ok := val.(int64); ok {
		return float64(i)
	}
	return 0.0
}

// getPositionFromRecord returns nil unless both coordinates are present
func getPositionFromRecord(record *neo4j.Record, xKey, yKey string) *domain.Position {
	x, okX := record.Get(xKey)
	y, okY := record.Get(yKey)
	if !okX || !okY || x == nil || y == nil {
		return nil
	}
	return &domain.Position{
		X: getFloat64FromRecord(record, xKey),
		Y: getFloat64FromRecord(record, yKey),
	}
}

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	if slice, ok := val.([]interface{}); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}

func getTimeFromRecord(record *neo4j.Record, key string) time.Time {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return time.Time{}
	}
	switch t := val.(type) {
	case time.Time:
		return t.UTC()
	case neo4j.LocalDateTime:
		return t.Time().UTC()
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// userProjection is the RETURN clause shared by every read query
const userProjection = `
		u.id AS id,
		u.username AS username,
		u.age AS age,
		u.hobbies AS hobbies,
		u.friends AS friends,
		u.x AS x,
		u.y AS y,
		u.created_at AS created_at`

func userFromRecord(record *neo4j.Record) domain.User {
	return domain.User{
		ID:        getStringFromRecord(record, "id"),
		Username:  getStringFromRecord(record, "username"),
		Age:       getIntFromRecord(record, "age"),
		Hobbies:   getStringSliceFromRecord(record, "hobbies"),
		Friends:   getStringSliceFromRecord(record, "friends"),
		Position:  getPositionFromRecord(record, "x", "y"),
		CreatedAt: getTimeFromRecord(record, "created_at"),
	}
}

func userParams(u domain.User) map[string]interface{} {
	hobbies := u.Hobbies
	if hobbies == nil {
		hobbies = []string{}
	}
	friends := u.Friends
	if friends == nil {
		friends = []string{}
	}
	// Null coordinates remove the properties, so an absent position stays absent
	var x, y interface{}
	if u.Position != nil {
		x, y = u.Position.X, u.Position.Y
	}
	return map[string]interface{}{
		"id":         u.ID,
		"username":   u.Username,
		"age":        int64(u.Age),
		"hobbies":    hobbies,
		"friends":    friends,
		"x":          x,
		"y":          y,
		"created_at": u.CreatedAt.UTC(),
	}
}
