package memory

import (
	"context"
	"testing"
	"time"

	"civic-quiz-engine/internal/domain"
)

func TestTopicRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		TopicLoader: NewStaticTopicLoader(map[string]domain.Topic{
			"civics-101": sampleTopic(),
		}),
	}
	repo := NewTopicRepository(loader, time.Minute)

	if _, err := repo.GetTopic(context.Background(), "civics-101"); err != nil {
		t.Fatalf("get topic: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetTopic(context.Background(), "civics-101"); err != nil {
		t.Fatalf("get topic 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestTopicRepositoryUnknownTopic(t *testing.T) {
	repo := NewTopicRepository(NewStaticTopicLoader(nil), time.Minute)
	if _, err := repo.GetTopic(context.Background(), "missing"); err != domain.ErrTopicNotFound {
		t.Fatalf("expected ErrTopicNotFound, got %v", err)
	}
}

type countingLoader struct {
	TopicLoader
	calls int
}

func (l *countingLoader) LoadTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	l.calls++
	return l.TopicLoader.LoadTopic(ctx, topicID)
}

func sampleTopic() domain.Topic {
	return domain.Topic{
		ID:    "civics-101",
		Title: "Civics Basics",
		Questions: []domain.Question{
			{
				ID:     "q1",
				Prompt: "How many branches does the federal government have?",
				Options: []domain.Option{
					{ID: "o1", Text: "Two"},
					{ID: "o2", Text: "Three"},
				},
				CorrectOptionID: "o2",
				Points:          1,
			},
		},
	}
}
