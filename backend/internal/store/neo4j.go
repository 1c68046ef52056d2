package store

import (
	"context"
	"fmt"
	"math"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"cybernauts/backend/internal/domain"
	"cybernauts/backend/pkg/logger"
)

// Neo4jStore keeps each user as a (:User) node. Friend ids stay a list
// property on the node so the record shape matches the other backends.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewNeo4jStore creates a store on top of an existing driver
func NewNeo4jStore(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return &Neo4jStore{
		driver:   driver,
		database: database,
		logger:   logger.Get(),
	}
}

// ConnectNeo4j opens a driver and verifies connectivity
func ConnectNeo4j(ctx context.Context, uri, user, password, database string) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}
	return NewNeo4jStore(driver, database), nil
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

// EnsureSchema creates the unique id constraint and the ordering index
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	queries := []string{
		"CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
		"CREATE INDEX user_created_at IF NOT EXISTS FOR (u:User) ON (u.created_at)",
	}
	for _, q := range queries {
		if _, err := session.Run(ctx, q, nil); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	s.logger.Debug("Neo4j schema ensured")
	return nil
}

func (s *Neo4jStore) FindByID(ctx context.Context, id string) (domain.User, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	query := `MATCH (u:User {id: $id}) RETURN` + userProjection
	result, err := session.Run(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to execute query: %w", err)
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return domain.User{}, fmt.Errorf("failed to fetch record: %w", err)
		}
		return domain.User{}, ErrNotFound
	}
	return userFromRecord(result.Record()), nil
}

func (s *Neo4jStore) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	query := `MATCH (u:User) WHERE u.id IN $ids RETURN` + userProjection
	return s.collect(ctx, query, map[string]interface{}{"ids": ids})
}

func (s *Neo4jStore) List(ctx context.Context, opts ListOptions) ([]domain.User, int64, error) {
	limit := int64(opts.Limit)
	if limit <= 0 {
		limit = math.MaxInt32
	}
	params := map[string]interface{}{
		"search": opts.Search,
		"skip":   int64(opts.Skip),
		"limit":  limit,
	}
	where := `WHERE $search = '' OR toLower(u.username) CONTAINS toLower($search)`

	users, err := s.collect(ctx, `
		MATCH (u:User) `+where+`
		RETURN`+userProjection+`
		ORDER BY u.created_at, u.id
		SKIP $skip LIMIT $limit`, params)
	if err != nil {
		return nil, 0, err
	}

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)
	result, err := session.Run(ctx, `MATCH (u:User) `+where+` RETURN count(u) AS total`, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return users, getInt64FromRecord(record, "total"), nil
}

func (s *Neo4jStore) All(ctx context.Context) ([]domain.User, error) {
	return s.collect(ctx, `MATCH (u:User) RETURN`+userProjection+` ORDER BY u.created_at, u.id`, nil)
}

func (s *Neo4jStore) Count(ctx context.Context) (int64, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `MATCH (u:User) RETURN count(u) AS total`, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return getInt64FromRecord(record, "total"), nil
}

func (s *Neo4jStore) Insert(ctx context.Context, user domain.User) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `
		CREATE (u:User {
			id: $id,
			username: $username,
			age: $age,
			hobbies: $hobbies,
			friends: $friends,
			x: $x,
			y: $y,
			created_at: $created_at
		})`
	if _, err := session.Run(ctx, query, userParams(user)); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Debug("Created user node", zap.String("user_id", user.ID))
	return nil
}

func (s *Neo4jStore) Update(ctx context.Context, user domain.User) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $id})
		SET u.username = $username,
			u.age = $age,
			u.hobbies = $hobbies,
			u.friends = $friends,
			u.x = $x,
			u.y = $y
		RETURN u.id AS id`
	result, err := session.Run(ctx, query, userParams(user))
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return ErrNotFound
	}
	return nil
}

func (s *Neo4jStore) Delete(ctx context.Context, id string) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $id})
		WITH u, u.id AS id
		DETACH DELETE u
		RETURN id`
	result, err := session.Run(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every (:User) node
func (s *Neo4jStore) DeleteAll(ctx context.Context) (int64, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `MATCH (u:User) DETACH DELETE u RETURN count(u) AS deleted`, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to delete users: %w", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete users: %w", err)
	}
	return getInt64FromRecord(record, "deleted"), nil
}

func (s *Neo4jStore) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jStore) collect(ctx context.Context, query string, params map[string]interface{}) ([]domain.User, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	users := []domain.User{}
	for result.Next(ctx) {
		users = append(users, userFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}
	return users, nil
}
