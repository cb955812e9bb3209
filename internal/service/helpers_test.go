package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/orion-app/orion-api/internal/dto"
	"github.com/orion-app/orion-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// fakeChatRepo is an in-memory ChatRepository keyed by owner and title.
type fakeChatRepo struct {
	nextThreadID  uint
	nextMessageID uint
	threads       []models.ChatThread
	messages      []models.ChatMessage
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{nextThreadID: 1, nextMessageID: 1}
}

func (f *fakeChatRepo) ListThreads(ctx context.Context, userID uint) ([]models.ChatThread, error) {
	var out []models.ChatThread
	for _, t := range f.threads {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) FindThread(ctx context.Context, userID uint, title string) (models.ChatThread, error) {
	for _, t := range f.threads {
		if t.UserID == userID && t.Title == title {
			return t, nil
		}
	}
	return models.ChatThread{}, gorm.ErrRecordNotFound
}

func (f *fakeChatRepo) UpsertThread(ctx context.Context, userID uint, title string, at time.Time) (models.ChatThread, error) {
	for i, t := range f.threads {
		if t.UserID == userID && t.Title == title {
			f.threads[i].LastUpdated = at
			return f.threads[i], nil
		}
	}
	thread := models.ChatThread{ID: f.nextThreadID, UserID: userID, Title: title, LastUpdated: at, CreatedAt: at}
	f.nextThreadID++
	f.threads = append(f.threads, thread)
	return thread, nil
}

func (f *fakeChatRepo) AppendMessage(ctx context.Context, message *models.ChatMessage) error {
	message.ID = f.nextMessageID
	f.nextMessageID++
	f.messages = append(f.messages, *message)
	return nil
}

func (f *fakeChatRepo) ListMessages(ctx context.Context, threadID uint) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	for _, m := range f.messages {
		if m.ThreadID == threadID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) DeleteThread(ctx context.Context, userID uint, title string) (bool, error) {
	for i, t := range f.threads {
		if t.UserID == userID && t.Title == title {
			id := t.ID
			f.threads = append(f.threads[:i], f.threads[i+1:]...)
			kept := f.messages[:0]
			for _, m := range f.messages {
				if m.ThreadID != id {
					kept = append(kept, m)
				}
			}
			f.messages = kept
			return true, nil
		}
	}
	return false, nil
}

// fakeKnowledgeRepo serves topics from a map.
type fakeKnowledgeRepo struct {
	topics  map[string]models.Topic
	deleted []string
}

func newFakeKnowledgeRepo(topics ...models.Topic) *fakeKnowledgeRepo {
	repo := &fakeKnowledgeRepo{topics: make(map[string]models.Topic)}
	for _, t := range topics {
		repo.topics[t.ID] = t
	}
	return repo
}

func (f *fakeKnowledgeRepo) ListTopics(ctx context.Context) ([]models.Topic, error) {
	var out []models.Topic
	for _, t := range f.topics {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeKnowledgeRepo) GetTopic(ctx context.Context, id string) (models.Topic, error) {
	topic, ok := f.topics[id]
	if !ok {
		return models.Topic{}, gorm.ErrRecordNotFound
	}
	return topic, nil
}

func (f *fakeKnowledgeRepo) TopicExists(ctx context.Context, id string) (bool, error) {
	_, ok := f.topics[id]
	return ok, nil
}

func (f *fakeKnowledgeRepo) SaveTopic(ctx context.Context, topic *models.Topic) error {
	f.topics[topic.ID] = *topic
	return nil
}

func (f *fakeKnowledgeRepo) DeleteTopic(ctx context.Context, id string) error {
	delete(f.topics, id)
	f.deleted = append(f.deleted, id)
	return nil
}

// recordingCounters records counter calls without touching storage.
type recordingCounters struct {
	signups  int
	prompts  int
	topicIDs []string
	buckets  []string
	splits   []bool
}

func (r *recordingCounters) RecordSignup(ctx context.Context) { r.signups++ }

func (r *recordingCounters) RecordPrompt(ctx context.Context) { r.prompts++ }

func (r *recordingCounters) RecordQuestion(ctx context.Context, topicID, question string, fromSuggestion bool) {
	r.topicIDs = append(r.topicIDs, topicID)
	r.buckets = append(r.buckets, question)
	r.splits = append(r.splits, fromSuggestion)
}

func (r *recordingCounters) WeeklySeries(ctx context.Context, metric string) ([]dto.SeriesPoint, error) {
	return nil, nil
}

func (r *recordingCounters) MonthlySeries(ctx context.Context, metric string) ([]dto.SeriesPoint, error) {
	return nil, nil
}

func (r *recordingCounters) TodayCount(ctx context.Context, metric string) (int64, error) {
	return 0, nil
}

// scriptedCompleter returns a canned reply or a canned error.
type scriptedCompleter struct {
	reply string
	err   error
	calls int
}

func (s *scriptedCompleter) Complete(ctx context.Context, topicContent, userMessage string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

var errCompleterDown = errors.New("upstream unavailable")
