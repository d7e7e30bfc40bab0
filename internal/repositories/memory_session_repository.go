package repositories

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"tripcraft/internal/models/domain_models"
	"tripcraft/pkg/logger"
	mem "tripcraft/pkg/memcache"
)

// MemorySessionRepository keeps sessions in process memory. Used when no
// Redis address is configured; state is lost on restart.
type MemorySessionRepository struct {
	store mem.TTLStore
	ttl   time.Duration
	log   *logger.Logger

	// guards read-modify-write of the shown list and alternatives counter
	mu sync.Mutex
}

func NewMemorySessionRepository(store mem.TTLStore, ttl time.Duration, log *logger.Logger) *MemorySessionRepository {
	if ttl <= 0 {
		ttl = domain_models.RequestTTL
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &MemorySessionRepository{store: store, ttl: ttl, log: log.With("repository", "MemorySessionRepository")}
}

func (r *MemorySessionRepository) SaveRequest(_ context.Context, request *domain_models.TravelRequest) error {
	data, err := json.Marshal(request)
	if err != nil {
		return storeError("encode request", request.UserID, err)
	}
	r.store.Set(travelRequestKey(request.UserID), data, r.ttl)
	return nil
}

func (r *MemorySessionRepository) GetRequest(_ context.Context, userID int64) (*domain_models.TravelRequest, error) {
	key := travelRequestKey(userID)
	data, ok := r.store.Get(key)
	if !ok {
		return nil, nil
	}
	req, err := decodeRequest(userID, data)
	if err != nil {
		r.log.Error("dropping corrupted travel request", "user_id", userID, "error", err.Error())
		r.store.Delete(key)
		return nil, nil
	}
	return req, nil
}

func (r *MemorySessionRepository) ClearRequest(_ context.Context, userID int64) error {
	r.store.Delete(travelRequestKey(userID), shownKey(userID), alternativesKey(userID), progressKey(userID))
	return nil
}

func (r *MemorySessionRepository) AddShownDestination(_ context.Context, userID int64, destination string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	shown := r.shown(userID)
	data, err := json.Marshal(append(shown, destination))
	if err != nil {
		return storeError("encode shown destinations", userID, err)
	}
	r.store.Set(shownKey(userID), data, r.ttl)
	return nil
}

func (r *MemorySessionRepository) ShownDestinations(_ context.Context, userID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shown(userID), nil
}

func (r *MemorySessionRepository) shown(userID int64) []string {
	data, ok := r.store.Get(shownKey(userID))
	if !ok {
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		r.store.Delete(shownKey(userID))
		return nil
	}
	return out
}

func (r *MemorySessionRepository) IncrAlternatives(_ context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.alternatives(userID) + 1
	r.store.Set(alternativesKey(userID), []byte(strconv.Itoa(n)), r.ttl)
	return n, nil
}

func (r *MemorySessionRepository) AlternativesUsed(_ context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alternatives(userID), nil
}

func (r *MemorySessionRepository) alternatives(userID int64) int {
	data, ok := r.store.Get(alternativesKey(userID))
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(string(data))
	if err != nil || n < 0 {
		r.store.Delete(alternativesKey(userID))
		return 0
	}
	return n
}

func (r *MemorySessionRepository) SaveProgress(_ context.Context, userID int64, progress domain_models.UserProgress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return storeError("encode progress", userID, err)
	}
	r.store.Set(progressKey(userID), data, r.ttl)
	return nil
}

func (r *MemorySessionRepository) GetProgress(_ context.Context, userID int64) (*domain_models.UserProgress, error) {
	data, ok := r.store.Get(progressKey(userID))
	if !ok {
		return nil, nil
	}
	p, err := decodeProgress(data)
	if err != nil {
		r.store.Delete(progressKey(userID))
		return nil, nil
	}
	return p, nil
}

func (r *MemorySessionRepository) Ping(context.Context) error { return nil }
