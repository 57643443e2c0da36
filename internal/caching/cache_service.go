package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"timetracker/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "timetracker"

type CacheService interface {
	// Employee lookup by issued code (QR scans)
	GetEmployeeByCode(ctx context.Context, code string) (*models.Employee, error)
	SetEmployeeByCode(ctx context.Context, employee *models.Employee, ttl time.Duration) error
	DeleteEmployeeByCode(ctx context.Context, code string) error

	// Attendance summaries for one day. A nil company means the global view.
	GetDailySummary(ctx context.Context, companyID *uuid.UUID, date string) ([]*models.AttendanceSummary, error)
	SetDailySummary(ctx context.Context, companyID *uuid.UUID, date string, summaries []*models.AttendanceSummary, ttl time.Duration) error
	InvalidateDailySummary(ctx context.Context, companyID uuid.UUID, date string) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error

	Ping(ctx context.Context) error
	Close() error
}

type redisCacheService struct {
	client *redis.Client
}

// NewRedisClient builds a client for addr. Scheme prefixes are stripped by config.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisCacheService(client *redis.Client) CacheService {
	return &redisCacheService{client: client}
}

func employeeCodeKey(code string) string {
	return fmt.Sprintf("%s:employee:code:%s", keyPrefix, code)
}

func summaryKey(companyID *uuid.UUID, date string) string {
	scope := "all"
	if companyID != nil {
		scope = companyID.String()
	}
	return fmt.Sprintf("%s:summary:%s:%s", keyPrefix, scope, date)
}

func rateLimitKey(key string) string {
	return fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
}

func (r *redisCacheService) GetEmployeeByCode(ctx context.Context, code string) (*models.Employee, error) {
	data, err := r.client.Get(ctx, employeeCodeKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var employee models.Employee
	if err := json.Unmarshal(data, &employee); err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *redisCacheService) SetEmployeeByCode(ctx context.Context, employee *models.Employee, ttl time.Duration) error {
	data, err := json.Marshal(employee)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, employeeCodeKey(employee.Code), data, ttl).Err()
}

func (r *redisCacheService) DeleteEmployeeByCode(ctx context.Context, code string) error {
	return r.client.Del(ctx, employeeCodeKey(code)).Err()
}

func (r *redisCacheService) GetDailySummary(ctx context.Context, companyID *uuid.UUID, date string) ([]*models.AttendanceSummary, error) {
	data, err := r.client.Get(ctx, summaryKey(companyID, date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var summaries []*models.AttendanceSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *redisCacheService) SetDailySummary(ctx context.Context, companyID *uuid.UUID, date string, summaries []*models.AttendanceSummary, ttl time.Duration) error {
	if summaries == nil {
		summaries = []*models.AttendanceSummary{}
	}
	data, err := json.Marshal(summaries)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, summaryKey(companyID, date), data, ttl).Err()
}

// InvalidateDailySummary drops the company's entry for date along with the global one.
func (r *redisCacheService) InvalidateDailySummary(ctx context.Context, companyID uuid.UUID, date string) error {
	return r.client.Del(ctx, summaryKey(&companyID, date), summaryKey(nil, date)).Err()
}

// IsRateLimited counts one hit against key and reports whether the limit is exceeded
// within the window started by the first hit.
func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := rateLimitKey(key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, cacheKey, window).Err(); err != nil {
			return false, err
		}
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) ResetRateLimit(ctx context.Context, key string) error {
	return r.client.Del(ctx, rateLimitKey(key)).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) Close() error {
	return r.client.Close()
}
