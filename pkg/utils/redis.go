package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"jobsnap/internal/config"
	"jobsnap/internal/logging"
	"jobsnap/pkg/models"
)

// RedisClient wraps the Redis client with crawl run-history management
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

// RunRecord is one persisted crawl outcome
type RunRecord struct {
	RunID       string              `json:"run_id"`
	CompanyName string              `json:"company_name"`
	Result      *models.CrawlResult `json:"result"`
	RecordedAt  time.Time           `json:"recorded_at"`
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(cfg *config.Config) *RedisClient {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		// Fallback to default configuration
		opts = &redis.Options{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		}
	}

	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	opts.DB = cfg.Redis.DB
	opts.DialTimeout = cfg.Redis.Timeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	return &RedisClient{
		client: redis.NewClient(opts),
		ttl:    cfg.Redis.TTL,
		logger: logging.GetGlobalLogger(),
	}
}

// Ping tests the Redis connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// RecordRun stores a finished crawl result under the company's run history
func (r *RedisClient) RecordRun(ctx context.Context, result *models.CrawlResult) (string, error) {
	runID := GenerateRequestID()
	record := RunRecord{
		RunID:       runID,
		CompanyName: result.CompanyName,
		Result:      result,
		RecordedAt:  time.Now(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run record: %w", err)
	}

	key := r.runKey(result.CompanyName, runID)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store run record: %w", err)
	}

	r.logger.Debug("Recorded crawl run", map[string]interface{}{
		"company": result.CompanyName,
		"run_id":  runID,
	})

	return runID, nil
}

// GetRun fetches one stored run record
func (r *RedisClient) GetRun(ctx context.Context, company, runID string) (*RunRecord, error) {
	data, err := r.client.Get(ctx, r.runKey(company, runID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("run %s not found for company %s", runID, company)
		}
		return nil, fmt.Errorf("failed to get run record: %w", err)
	}

	var record RunRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}
	return &record, nil
}

// ListRuns returns the stored run history for a company, newest first
func (r *RedisClient) ListRuns(ctx context.Context, company string) ([]RunRecord, error) {
	pattern := r.runKey(company, "*")

	var records []RunRecord
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			continue
		}
		var record RunRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan run records: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].RecordedAt.After(records[j].RecordedAt)
	})
	return records, nil
}

func (r *RedisClient) runKey(company, runID string) string {
	return fmt.Sprintf("jobsnap:run:%s:%s", company, runID)
}
