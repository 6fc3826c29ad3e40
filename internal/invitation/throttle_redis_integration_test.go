//go:build integration

package invitation_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"ledgerdesk/internal/invitation"
	"ledgerdesk/pkg/testutil/containers"
)

type RedisThrottleSuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	throttle *invitation.RedisThrottle
}

func TestRedisThrottleSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisThrottleSuite))
}

func (s *RedisThrottleSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.throttle = invitation.NewRedisThrottle(s.redis.Client)
}

func (s *RedisThrottleSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisThrottleSuite) TestAllowsUntilLimit() {
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"

	for i := 0; i < 9; i++ {
		s.Require().NoError(s.throttle.RecordFailure(ctx, email))
	}
	allowed, err := s.throttle.Allow(ctx, email)
	s.Require().NoError(err)
	s.True(allowed)

	s.Require().NoError(s.throttle.RecordFailure(ctx, email))
	allowed, err = s.throttle.Allow(ctx, email)
	s.Require().NoError(err)
	s.False(allowed)
}

func (s *RedisThrottleSuite) TestCounterIsPerEmailAndCaseInsensitive() {
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		s.Require().NoError(s.throttle.RecordFailure(ctx, "Dana@Example.com"))
	}

	allowed, err := s.throttle.Allow(ctx, "dana@example.com")
	s.Require().NoError(err)
	s.False(allowed)

	allowed, err = s.throttle.Allow(ctx, "other@example.com")
	s.Require().NoError(err)
	s.True(allowed)
}

func (s *RedisThrottleSuite) TestResetClearsCounter() {
	ctx := context.Background()
	email := "dana@example.com"

	for i := 0; i < 10; i++ {
		s.Require().NoError(s.throttle.RecordFailure(ctx, email))
	}
	s.Require().NoError(s.throttle.Reset(ctx, email))

	allowed, err := s.throttle.Allow(ctx, email)
	s.Require().NoError(err)
	s.True(allowed)
}
