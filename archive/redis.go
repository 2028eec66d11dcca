package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/itsneelabh/spendwise/core"
)

// Key layout:
//   spendwise:archive:lists:<userID>     sorted set, scored by SavedAt
//   spendwise:archive:purchases:<userID> sorted set, scored by PurchasedAt
// Members are the JSON-encoded records; newest-first reads are ZRevRange.
const (
	listIndexKey     = "spendwise:archive:lists:%s"
	purchaseIndexKey = "spendwise:archive:purchases:%s"
)

// RedisArchive is the Redis-backed Archive implementation.
type RedisArchive struct {
	client *redis.Client
	logger core.Logger
}

// RedisArchiveOptions configures the Redis archive
type RedisArchiveOptions struct {
	RedisURL string
	Logger   core.Logger
}

// NewRedisArchive connects to Redis and verifies the connection.
func NewRedisArchive(opts RedisArchiveOptions) (*RedisArchive, error) {
	if opts.Logger == nil {
		opts.Logger = &core.NoOpLogger{}
	}
	if opts.RedisURL == "" {
		return nil, fmt.Errorf("redis URL is required: %w", core.ErrInvalidConfiguration)
	}

	redisOpt, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", core.ErrInvalidConfiguration)
	}

	client := redis.NewClient(redisOpt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		opts.Logger.Error("Failed to connect to Redis archive", map[string]interface{}{
			"error": err,
		})
		return nil, fmt.Errorf("failed to connect to Redis: %w", core.ErrConnectionFailed)
	}

	opts.Logger.Info("Redis archive connected", nil)

	return &RedisArchive{
		client: client,
		logger: opts.Logger,
	}, nil
}

// SaveList archives a list. Empty lists are skipped.
func (a *RedisArchive) SaveList(ctx context.Context, userID, storeID string, items []ListEntry) (string, error) {
	if len(items) == 0 {
		return "", nil
	}

	record := PastList{
		ID:      uuid.New().String(),
		UserID:  userID,
		StoreID: storeID,
		Items:   items,
		SavedAt: time.Now(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", core.NewStateError("archive.SaveList", "archive", err)
	}

	key := fmt.Sprintf(listIndexKey, userID)
	err = a.client.ZAdd(ctx, key, &redis.Z{
		Score:  float64(record.SavedAt.UnixMilli()),
		Member: string(data),
	}).Err()
	if err != nil {
		a.logger.Error("Failed to archive shopping list", map[string]interface{}{
			"user_id": userID,
			"error":   err,
		})
		return "", core.NewStateError("archive.SaveList", "archive", core.ErrArchiveUnavailable)
	}

	return record.ID, nil
}

// FetchPastLists returns the archived lists newest first
func (a *RedisArchive) FetchPastLists(ctx context.Context, userID string) ([]PastList, error) {
	key := fmt.Sprintf(listIndexKey, userID)
	members, err := a.client.ZRevRange(ctx, key, 0, -1).Result()
	if err != nil {
		a.logger.Error("Failed to fetch past lists", map[string]interface{}{
			"user_id": userID,
			"error":   err,
		})
		return nil, core.NewStateError("archive.FetchPastLists", "archive", core.ErrArchiveUnavailable)
	}

	lists := make([]PastList, 0, len(members))
	for _, member := range members {
		var record PastList
		if err := json.Unmarshal([]byte(member), &record); err != nil {
			a.logger.Warn("Skipping corrupt past-list record", map[string]interface{}{
				"user_id": userID,
				"error":   err,
			})
			continue
		}
		lists = append(lists, record)
	}
	return lists, nil
}

// SavePurchase records a purchase
func (a *RedisArchive) SavePurchase(ctx context.Context, p Purchase) (string, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.PurchasedAt.IsZero() {
		p.PurchasedAt = time.Now()
	}

	data, err := json.Marshal(p)
	if err != nil {
		return "", core.NewStateError("archive.SavePurchase", "archive", err)
	}

	key := fmt.Sprintf(purchaseIndexKey, p.UserID)
	err = a.client.ZAdd(ctx, key, &redis.Z{
		Score:  float64(p.PurchasedAt.UnixMilli()),
		Member: string(data),
	}).Err()
	if err != nil {
		a.logger.Error("Failed to record purchase", map[string]interface{}{
			"user_id": p.UserID,
			"error":   err,
		})
		return "", core.NewStateError("archive.SavePurchase", "archive", core.ErrArchiveUnavailable)
	}

	return p.ID, nil
}

// FetchPurchases returns the purchase history newest first
func (a *RedisArchive) FetchPurchases(ctx context.Context, userID string) ([]Purchase, error) {
	key := fmt.Sprintf(purchaseIndexKey, userID)
	members, err := a.client.ZRevRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, core.NewStateError("archive.FetchPurchases", "archive", core.ErrArchiveUnavailable)
	}

	purchases := make([]Purchase, 0, len(members))
	for _, member := range members {
		var record Purchase
		if err := json.Unmarshal([]byte(member), &record); err != nil {
			a.logger.Warn("Skipping corrupt purchase record", map[string]interface{}{
				"user_id": userID,
				"error":   err,
			})
			continue
		}
		purchases = append(purchases, record)
	}
	return purchases, nil
}

// HealthCheck verifies the connection is alive
func (a *RedisArchive) HealthCheck(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (a *RedisArchive) Close() error {
	return a.client.Close()
}
