package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cybernauts/backend/pkg/config"
	"cybernauts/backend/pkg/logger"
)

// Open connects the backend selected by cfg.StoreBackend and prepares its schema
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	log := logger.Get()

	switch cfg.StoreBackend {
	case config.StoreMemory:
		log.Warn("Using in-memory user store; data is lost on restart")
		return NewMemoryStore(), nil

	case config.StoreNeo4j:
		s, err := ConnectNeo4j(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		log.Info("Connected to Neo4j", zap.String("uri", cfg.Neo4jURI))
		return s, nil

	case config.StoreMongo:
		s, err := ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		log.Info("Connected to MongoDB", zap.String("database", cfg.MongoDatabase))
		return s, nil

	case config.StoreDynamoDB:
		s, err := ConnectDynamo(ctx, cfg.AWSRegion, cfg.DynamoEndpoint, cfg.DynamoTable)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureTable(ctx); err != nil {
			return nil, err
		}
		log.Info("Using DynamoDB user store",
			zap.String("table", cfg.DynamoTable),
			zap.String("region", cfg.AWSRegion),
		)
		return s, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
