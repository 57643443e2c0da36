package caching

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	companyID := uuid.MustParse("6f1c1f5e-8d1e-4c57-9a4e-0d6b1c7f5e01")

	assert.Equal(t, "timetracker:employee:code:EMP-42", employeeCodeKey("EMP-42"))
	assert.Equal(t, "timetracker:summary:all:2024-01-01", summaryKey(nil, "2024-01-01"))
	assert.Equal(t, "timetracker:summary:6f1c1f5e-8d1e-4c57-9a4e-0d6b1c7f5e01:2024-01-01", summaryKey(&companyID, "2024-01-01"))
	assert.Equal(t, "timetracker:ratelimit:login:alice", rateLimitKey("login:alice"))
}

// unreachable returns a cache whose server never answers.
func unreachable(t *testing.T) CacheService {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	svc := NewRedisCacheService(client)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestIsRateLimited_FailsClosedWhenRedisIsDown(t *testing.T) {
	svc := unreachable(t)

	limited, err := svc.IsRateLimited(context.Background(), "login:alice", 5, time.Minute)
	require.Error(t, err)
	assert.True(t, limited)
}

func TestGetEmployeeByCode_PropagatesConnectionErrors(t *testing.T) {
	svc := unreachable(t)

	employee, err := svc.GetEmployeeByCode(context.Background(), "EMP-42")
	assert.Error(t, err)
	assert.Nil(t, employee)
}

func TestPing_Unreachable(t *testing.T) {
	svc := unreachable(t)
	assert.Error(t, svc.Ping(context.Background()))
}
