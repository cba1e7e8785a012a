package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"civic-quiz-engine/internal/domain"
)

// TopicLoader fetches topic content from a backing store (e.g., Postgres).
type TopicLoader interface {
	LoadTopic(ctx context.Context, topicID string) (domain.Topic, error)
}

// TopicRepository caches topic JSON in Redis (one value per topic) and falls
// back to the loader on cache miss. Singleflight keeps a stampede of sessions
// for the same topic down to one backing-store load.
type TopicRepository struct {
	client *redis.Client
	loader TopicLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewTopicRepository(client *redis.Client, loader TopicLoader, ttl time.Duration) *TopicRepository {
	return &TopicRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *TopicRepository) GetTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	if topic, ok := r.cached(ctx, topicID); ok {
		return topic, nil
	}

	result, err, _ := r.sf.Do(topicID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if topic, ok := r.cached(ctx, topicID); ok {
			return topic, nil
		}

		topic, err := r.loader.LoadTopic(ctx, topicID)
		if err != nil {
			return domain.Topic{}, err
		}

		data, err := json.Marshal(topic)
		if err != nil {
			return domain.Topic{}, fmt.Errorf("marshal topic: %w", err)
		}
		// best-effort cache fill
		_ = r.client.Set(ctx, r.key(topicID), data, r.ttlWithJitter()).Err()
		return topic, nil
	})
	if err != nil {
		return domain.Topic{}, err
	}
	return result.(domain.Topic), nil
}

func (r *TopicRepository) cached(ctx context.Context, topicID string) (domain.Topic, bool) {
	raw, err := r.client.Get(ctx, r.key(topicID)).Bytes()
	if err != nil {
		return domain.Topic{}, false
	}
	var topic domain.Topic
	if err := json.Unmarshal(raw, &topic); err != nil {
		return domain.Topic{}, false
	}
	return topic, true
}

func (r *TopicRepository) key(topicID string) string {
	return "quiz:topic:" + topicID
}

func (r *TopicRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
