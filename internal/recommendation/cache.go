package recommendation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"bizmatch-workers/internal/catalog"
	"bizmatch-workers/internal/common/errors"
	"bizmatch-workers/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

// Cache stores ranked lists in Redis keyed by a fingerprint of the scoring
// inputs. A nil *Cache is valid and always misses.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCache(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

type fingerprintInput struct {
	CatalogVersion string             `json:"v"`
	Interests      []catalog.Category `json:"i"`
	Budget         float64            `json:"b"`
	Location       Location           `json:"l"`
	Experience     Experience         `json:"e"`
	Filters        Filters            `json:"f"`
	Limit          int                `json:"n"`
}

// Fingerprint identifies the inputs that affect the ranked output. Skills and
// goals are ignored and interest order does not matter.
func Fingerprint(catalogRevision string, p UserProfile, f Filters, limit int) string {
	seen := make(map[catalog.Category]struct{}, len(p.Interests))
	interests := make([]catalog.Category, 0, len(p.Interests))
	for _, c := range p.Interests {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		interests = append(interests, c)
	}
	sort.Slice(interests, func(i, j int) bool { return interests[i] < interests[j] })

	data, _ := json.Marshal(fingerprintInput{
		CatalogVersion: catalogRevision,
		Interests:      interests,
		Budget:         p.Budget,
		Location:       p.Location,
		Experience:     p.Experience,
		Filters:        f,
		Limit:          limit,
	})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached list for key. A miss is (nil, false, nil).
func (c *Cache) Get(ctx context.Context, key string) ([]Recommendation, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewCacheUnavailableError(err)
	}

	var recs []Recommendation
	if err := json.Unmarshal(val, &recs); err != nil {
		// Treat undecodable entries as a miss; the next Set overwrites them.
		return nil, false, nil
	}
	return recs, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, recs []Recommendation) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return errors.NewCacheUnavailableError(err)
	}
	return nil
}

// Recommend serves the filtered ranking from the cache, computing and storing
// it on a miss. Cache failures never fail the call: the list is still
// returned along with the first cache error so callers can log it.
func (c *Cache) Recommend(ctx context.Context, e *Engine, profile UserProfile, f Filters) ([]Recommendation, bool, error) {
	if c == nil {
		return e.RecommendWithFilters(profile, f), false, nil
	}

	key := Fingerprint(e.Catalog().Revision(), profile, f, 0)
	recs, hit, getErr := c.Get(ctx, key)
	switch {
	case getErr != nil:
		metrics.CacheRequests.WithLabelValues("error").Inc()
	case hit:
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		return recs, true, nil
	default:
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	}

	recs = e.RecommendWithFilters(profile, f)
	if err := c.Set(ctx, key, recs); err != nil && getErr == nil {
		return recs, false, err
	}
	return recs, false, getErr
}
