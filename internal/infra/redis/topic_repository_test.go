package redis

import (
	"context"
	"testing"
	"time"

	"civic-quiz-engine/internal/domain"
)

type countingLoader struct {
	topics map[string]domain.Topic
	calls  int
}

func (l *countingLoader) LoadTopic(_ context.Context, topicID string) (domain.Topic, error) {
	l.calls++
	if topic, ok := l.topics[topicID]; ok {
		return topic, nil
	}
	return domain.Topic{}, domain.ErrTopicNotFound
}

func TestTopicRepositoryFillsCache(t *testing.T) {
	client, mr := newTestClient(t)
	loader := &countingLoader{topics: map[string]domain.Topic{
		"civics-101": {
			ID:    "civics-101",
			Title: "Civics Basics",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "Who signs bills into law?",
					Options: []domain.Option{
						{ID: "o1", Text: "The President"},
						{ID: "o2", Text: "The Chief Justice"},
					},
					CorrectOptionID: "o1",
				},
			},
		},
	}}
	repo := NewTopicRepository(client, loader, time.Minute)
	ctx := context.Background()

	topic, err := repo.GetTopic(ctx, "civics-101")
	if err != nil {
		t.Fatalf("get topic: %v", err)
	}
	if topic.Title != "Civics Basics" || len(topic.Questions) != 1 {
		t.Fatalf("unexpected topic: %+v", topic)
	}
	if !mr.Exists("quiz:topic:civics-101") {
		t.Fatal("expected topic cached in redis")
	}

	if _, err := repo.GetTopic(ctx, "civics-101"); err != nil {
		t.Fatalf("get topic 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestTopicRepositoryReloadsAfterExpiry(t *testing.T) {
	client, mr := newTestClient(t)
	loader := &countingLoader{topics: map[string]domain.Topic{
		"civics-101": {ID: "civics-101", Title: "Civics Basics"},
	}}
	repo := NewTopicRepository(client, loader, time.Minute)
	ctx := context.Background()

	if _, err := repo.GetTopic(ctx, "civics-101"); err != nil {
		t.Fatalf("get topic: %v", err)
	}

	// 10% jitter keeps the TTL under 2 minutes.
	mr.FastForward(2 * time.Minute)

	if _, err := repo.GetTopic(ctx, "civics-101"); err != nil {
		t.Fatalf("get topic after expiry: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}
}

func TestTopicRepositoryUnknownTopic(t *testing.T) {
	client, _ := newTestClient(t)
	repo := NewTopicRepository(client, &countingLoader{}, time.Minute)

	if _, err := repo.GetTopic(context.Background(), "missing"); err != domain.ErrTopicNotFound {
		t.Fatalf("expected ErrTopicNotFound, got %v", err)
	}
}
