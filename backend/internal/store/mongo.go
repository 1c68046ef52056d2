package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"cybernauts/backend/internal/domain"
	"cybernauts/backend/pkg/logger"
)

const usersCollection = "users"

// MongoStore keeps users as documents in the "users" collection, keyed by _id
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
	logger *zap.Logger
}

// ConnectMongo dials the server, pings it and returns a store bound to database
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return NewMongoStore(client, database), nil
}

// NewMongoStore creates a store on top of an existing client
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		users:  client.Database(database).Collection(usersCollection),
		logger: logger.Get(),
	}
}

// EnsureIndexes creates the ordering and search indexes
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "username", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	s.logger.Debug("MongoDB indexes ensured", zap.String("collection", usersCollection))
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}

func (s *MongoStore) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

func (s *MongoStore) List(ctx context.Context, opts ListOptions) ([]domain.User, int64, error) {
	filter := searchFilter(opts.Search)

	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(opts.Skip))
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	users, err := s.find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.users.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return users, total, nil
}

func (s *MongoStore) All(ctx context.Context) ([]domain.User, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (s *MongoStore) Insert(ctx context.Context, user domain.User) error {
	if _, err := s.users.InsertOne(ctx, withEmptySlices(user)); err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	s.logger.Debug("Inserted user document", zap.String("user_id", user.ID))
	return nil
}

func (s *MongoStore) Update(ctx context.Context, user domain.User) error {
	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, withEmptySlices(user))
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll empties the collection
func (s *MongoStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.users.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to delete users: %w", err)
	}
	s.logger.Info("Deleted all user documents", zap.Int64("count", res.DeletedCount))
	return res.DeletedCount, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	s.logger.Info("Closed MongoDB connection")
	return nil
}

func (s *MongoStore) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]domain.User, error) {
	cursor, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []domain.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// searchFilter matches usernames containing search, case-insensitively.
// The term is quoted so user input is never interpreted as a pattern.
func searchFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}
	return bson.M{"username": bson.M{
		"$regex":   regexp.QuoteMeta(search),
		"$options": "i",
	}}
}

// withEmptySlices stores [] rather than null for empty friend/hobby sets
func withEmptySlices(u domain.User) domain.User {
	if u.Hobbies == nil {
		u.Hobbies = []string{}
	}
	if u.Friends == nil {
		u.Friends = []string{}
	}
	return u
}
