package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"cybernauts/backend/internal/domain"
	"cybernauts/backend/pkg/logger"
)

func TestMongoStore_CloseLogsThroughStoreLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := logger.Logger
	logger.Logger = zap.New(core)
	t.Cleanup(func() { logger.Logger = prev })

	// The client connects lazily, so no server is needed
	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://127.0.0.1:1"))
	require.NoError(t, err)

	s := NewMongoStore(client, "cybernauts_unit")
	require.NoError(t, s.Close(ctx))

	assert.Equal(t, 1, logs.FilterMessage("Closed MongoDB connection").Len())
}

func TestSearchFilter_QuotesInput(t *testing.T) {
	assert.Equal(t, bson.M{}, searchFilter(""))

	f := searchFilter("a.b*")
	cond := f["username"].(bson.M)
	assert.Equal(t, `a\.b\*`, cond["$regex"])
	assert.Equal(t, "i", cond["$options"])
}

func TestWithEmptySlices(t *testing.T) {
	u := withEmptySlices(domain.User{ID: "a"})
	assert.NotNil(t, u.Hobbies)
	assert.NotNil(t, u.Friends)
	assert.Nil(t, u.Position)
}
