//go:build integration

package kv_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"lading/internal/kv"
	"lading/pkg/platform/sentinel"
	"lading/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *kv.Redis
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = kv.NewRedis(s.redis.Client, "lading:")
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestSetGetDelete() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "identity:exporter", `{"address":"ADDR1"}`))

	got, err := s.store.Get(ctx, "identity:exporter")
	s.Require().NoError(err)
	s.Equal(`{"address":"ADDR1"}`, got)

	s.Require().NoError(s.store.Delete(ctx, "identity:exporter"))

	_, err = s.store.Get(ctx, "identity:exporter")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestGetMissingKeyIsNotFound() {
	_, err := s.store.Get(context.Background(), "identity:never-set")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestDeleteMissingKeyIsNoOp() {
	s.NoError(s.store.Delete(context.Background(), "identity:never-set"))
}

func (s *RedisStoreSuite) TestKeysFiltersByPrefix() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "identity:exporter", "a"))
	s.Require().NoError(s.store.Set(ctx, "identity:carrier", "b"))
	s.Require().NoError(s.store.Set(ctx, "label:ADDR1", "Exporter"))

	keys, err := s.store.Keys(ctx, "identity:")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"identity:exporter", "identity:carrier"}, keys)
}

func (s *RedisStoreSuite) TestKeysIsolatedByStorePrefix() {
	ctx := context.Background()

	other := kv.NewRedis(s.redis.Client, "other:")
	s.Require().NoError(other.Set(ctx, "identity:exporter", "x"))
	s.Require().NoError(s.store.Set(ctx, "identity:exporter", "y"))

	keys, err := s.store.Keys(ctx, "identity:")
	s.Require().NoError(err)
	s.Equal([]string{"identity:exporter"}, keys)

	got, err := s.store.Get(ctx, "identity:exporter")
	s.Require().NoError(err)
	s.Equal("y", got)
}

func (s *RedisStoreSuite) TestOverwriteIsLastWriteWins() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "session:active", "exporter"))
	s.Require().NoError(s.store.Set(ctx, "session:active", "carrier"))

	got, err := s.store.Get(ctx, "session:active")
	s.Require().NoError(err)
	s.Equal("carrier", got)
}
