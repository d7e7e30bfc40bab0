package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tripcraft/internal/models/domain_models"
	"tripcraft/pkg/logger"
	"tripcraft/pkg/utils"
)

// SessionRepositoryInterface persists per-user planning state with a TTL.
// Missing or corrupted entries read as absent (nil, nil); only transport
// failures are returned as errors, wrapping utils.ErrSessionStore.
type SessionRepositoryInterface interface {
	SaveRequest(ctx context.Context, request *domain_models.TravelRequest) error
	GetRequest(ctx context.Context, userID int64) (*domain_models.TravelRequest, error)
	// ClearRequest drops the request together with its shown destinations,
	// alternatives counter and progress.
	ClearRequest(ctx context.Context, userID int64) error

	AddShownDestination(ctx context.Context, userID int64, destination string) error
	ShownDestinations(ctx context.Context, userID int64) ([]string, error)

	// IncrAlternatives counts one more alternative attempt and returns the
	// new total.
	IncrAlternatives(ctx context.Context, userID int64) (int, error)
	AlternativesUsed(ctx context.Context, userID int64) (int, error)

	SaveProgress(ctx context.Context, userID int64, progress domain_models.UserProgress) error
	GetProgress(ctx context.Context, userID int64) (*domain_models.UserProgress, error)

	Ping(ctx context.Context) error
}

func travelRequestKey(userID int64) string { return fmt.Sprintf("travel_request:%d", userID) }
func shownKey(userID int64) string         { return fmt.Sprintf("travel_shown:%d", userID) }
func progressKey(userID int64) string      { return fmt.Sprintf("user_progress:%d", userID) }
func alternativesKey(userID int64) string  { return fmt.Sprintf("travel_alternatives:%d", userID) }

// decodeRequest validates a stored payload. Any error means the entry is
// corrupted and should be discarded.
func decodeRequest(userID int64, data []byte) (*domain_models.TravelRequest, error) {
	var req domain_models.TravelRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	if !req.Category.Valid() {
		return nil, fmt.Errorf("unknown category %q", req.Category)
	}
	if req.UserID != userID {
		return nil, fmt.Errorf("payload belongs to user %d", req.UserID)
	}
	return &req, nil
}

func decodeProgress(data []byte) (*domain_models.UserProgress, error) {
	var p domain_models.UserProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if !p.Category.Valid() || p.CurrentQuestion < 0 {
		return nil, fmt.Errorf("invalid progress %+v", p)
	}
	return &p, nil
}

func storeError(op string, userID int64, err error) error {
	return fmt.Errorf("%w: %s for user %d: %v", utils.ErrSessionStore, op, userID, err)
}

type RedisSessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewRedisSessionRepository(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *RedisSessionRepository {
	if ttl <= 0 {
		ttl = domain_models.RequestTTL
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisSessionRepository{rdb: rdb, ttl: ttl, log: log.With("repository", "RedisSessionRepository")}
}

func (r *RedisSessionRepository) SaveRequest(ctx context.Context, request *domain_models.TravelRequest) error {
	data, err := json.Marshal(request)
	if err != nil {
		return storeError("encode request", request.UserID, err)
	}
	if err := r.rdb.Set(ctx, travelRequestKey(request.UserID), data, r.ttl).Err(); err != nil {
		r.log.Error("failed to save travel request", "user_id", request.UserID, "error", err.Error())
		return storeError("save request", request.UserID, err)
	}
	r.log.Debug("travel request saved", "user_id", request.UserID, "answers", request.Answers.Len())
	return nil
}

func (r *RedisSessionRepository) GetRequest(ctx context.Context, userID int64) (*domain_models.TravelRequest, error) {
	key := travelRequestKey(userID)
	data, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("failed to load travel request", "user_id", userID, "error", err.Error())
		return nil, storeError("get request", userID, err)
	}

	req, err := decodeRequest(userID, data)
	if err != nil {
		r.log.Error("dropping corrupted travel request", "user_id", userID, "error", err.Error())
		if delErr := r.rdb.Del(ctx, key).Err(); delErr != nil {
			r.log.Warn("failed to delete corrupted travel request", "user_id", userID, "error", delErr.Error())
		}
		return nil, nil
	}
	return req, nil
}

func (r *RedisSessionRepository) ClearRequest(ctx context.Context, userID int64) error {
	if err := r.rdb.Del(ctx, travelRequestKey(userID), shownKey(userID), alternativesKey(userID), progressKey(userID)).Err(); err != nil {
		r.log.Error("failed to clear travel request", "user_id", userID, "error", err.Error())
		return storeError("clear request", userID, err)
	}
	r.log.Debug("travel request cleared", "user_id", userID)
	return nil
}

func (r *RedisSessionRepository) AddShownDestination(ctx context.Context, userID int64, destination string) error {
	key := shownKey(userID)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, key, destination)
		p.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return storeError("add shown destination", userID, err)
	}
	return nil
}

func (r *RedisSessionRepository) ShownDestinations(ctx context.Context, userID int64) ([]string, error) {
	out, err := r.rdb.LRange(ctx, shownKey(userID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, storeError("list shown destinations", userID, err)
	}
	return out, nil
}

func (r *RedisSessionRepository) IncrAlternatives(ctx context.Context, userID int64) (int, error) {
	key := alternativesKey(userID)
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return 0, storeError("count alternative", userID, err)
	}
	return int(incr.Val()), nil
}

func (r *RedisSessionRepository) AlternativesUsed(ctx context.Context, userID int64) (int, error) {
	n, err := r.rdb.Get(ctx, alternativesKey(userID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			r.log.Error("dropping corrupted alternatives counter", "user_id", userID, "error", err.Error())
			_ = r.rdb.Del(ctx, alternativesKey(userID)).Err()
			return 0, nil
		}
		return 0, storeError("get alternatives counter", userID, err)
	}
	return n, nil
}

func (r *RedisSessionRepository) SaveProgress(ctx context.Context, userID int64, progress domain_models.UserProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return storeError("encode progress", userID, err)
	}
	if err := r.rdb.Set(ctx, progressKey(userID), data, r.ttl).Err(); err != nil {
		return storeError("save progress", userID, err)
	}
	return nil
}

func (r *RedisSessionRepository) GetProgress(ctx context.Context, userID int64) (*domain_models.UserProgress, error) {
	key := progressKey(userID)
	data, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get progress", userID, err)
	}
	p, err := decodeProgress(data)
	if err != nil {
		r.log.Error("dropping corrupted progress", "user_id", userID, "error", err.Error())
		_ = r.rdb.Del(ctx, key).Err()
		return nil, nil
	}
	return p, nil
}

func (r *RedisSessionRepository) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", utils.ErrSessionStore, err)
	}
	return nil
}
