// Package bot routes inbound chat events to handlers: student navigation,
// assessment flow, and the admin panel. Events for the same conversation
// are serialized through a keyed mutex so the durable session never sees
// interleaved writes.
package bot

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/osvitacode/studybot/internal/assessment"
	"github.com/osvitacode/studybot/internal/catalog"
	"github.com/osvitacode/studybot/internal/chat"
	"github.com/osvitacode/studybot/internal/eligibility"
	"github.com/osvitacode/studybot/internal/questionset"
	"github.com/osvitacode/studybot/internal/scores"
	"github.com/osvitacode/studybot/internal/session"
)

// Catalog is the full curriculum store surface the bot needs. Both the
// in-memory and the Postgres catalog implement it.
type Catalog interface {
	AddStudent(ctx context.Context, s catalog.Student) error
	Student(ctx context.Context, id int64) (catalog.Student, error)

	AddTopic(ctx context.Context, title, description string, class int) (int, error)
	DeleteTopic(ctx context.Context, id int) error
	Topic(ctx context.Context, id int) (catalog.Topic, error)
	TopicsByClass(ctx context.Context, class int) ([]catalog.Topic, error)
	TopicsWithQuiz(ctx context.Context) ([]catalog.Topic, error)

	AddLesson(ctx context.Context, title, description string, topicID int) (int, error)
	DeleteLesson(ctx context.Context, id int) error
	Lesson(ctx context.Context, id int) (catalog.Lesson, error)
	LessonsOfTopic(ctx context.Context, topicID int) ([]catalog.Lesson, error)

	AddMaterial(ctx context.Context, lessonID int, fileID, fileType string) error
	Materials(ctx context.Context, lessonID int) ([]catalog.Material, error)
	DeleteMaterials(ctx context.Context, lessonID int) error

	PutQuestionSet(ctx context.Context, subject catalog.Subject, set questionset.Set) error
	QuestionSet(ctx context.Context, subject catalog.Subject) (questionset.Set, error)
	HasQuestionSet(ctx context.Context, subject catalog.Subject) (bool, error)
	QuestionCount(ctx context.Context, subject catalog.Subject) (int, error)
	Question(ctx context.Context, subject catalog.Subject, index int) (questionset.Question, error)
}

// Classes the curriculum covers, in menu order.
var classes = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}

// programs are the school tiers the class menu is grouped by.
var programs = []struct {
	Label    string
	From, To int
}{
	{"Початкова школа (1–4 класи)", 1, 4},
	{"Середня школа (5–9 класи)", 5, 9},
	{"Старша школа (10–11 класи)", 10, 11},
}

// Config holds the bot's dependencies.
type Config struct {
	Channels *chat.Gateway
	Sessions session.Store
	Catalog  Catalog
	Scores   scores.Store
	AdminIDs []int64
	// MinPassScore is the passing percentage for tests and quizzes.
	MinPassScore int
}

// Bot is the conversational front of the curriculum engine.
type Bot struct {
	channels *chat.Gateway
	sessions session.Store
	catalog  Catalog
	scores   scores.Store
	gating   *eligibility.Engine
	assess   *assessment.Engine
	notifier *notifier
	admins   map[int64]bool
	collator *collate.Collator
	locks    keyedMutex
}

// New wires the eligibility and assessment engines and returns a ready bot.
func New(cfg Config) *Bot {
	admins := make(map[int64]bool, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = true
	}

	gating := eligibility.New(cfg.Catalog, cfg.Scores, cfg.MinPassScore)
	n := &notifier{channels: cfg.Channels, topics: cfg.Catalog, threshold: cfg.MinPassScore}
	b := &Bot{
		channels: cfg.Channels,
		sessions: cfg.Sessions,
		catalog:  cfg.Catalog,
		scores:   cfg.Scores,
		gating:   gating,
		assess:   assessment.New(cfg.Sessions, cfg.Catalog, gating, n, cfg.MinPassScore),
		notifier: n,
		admins:   admins,
		collator: collate.New(language.Ukrainian),
	}
	return b
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.admins[userID]
}

// sortTopics orders topics by title with Ukrainian collation.
func (b *Bot) sortTopics(topics []catalog.Topic) {
	sort.Slice(topics, func(i, j int) bool {
		return b.collator.CompareString(topics[i].Title, topics[j].Title) < 0
	})
}

// sortLessons orders lessons by title with Ukrainian collation.
func (b *Bot) sortLessons(lessons []catalog.Lesson) {
	sort.Slice(lessons, func(i, j int) bool {
		return b.collator.CompareString(lessons[i].Title, lessons[j].Title) < 0
	})
}

// allTopics collects topics of every class for the admin pickers.
func (b *Bot) allTopics(ctx context.Context) ([]catalog.Topic, error) {
	var out []catalog.Topic
	for _, class := range classes {
		topics, err := b.catalog.TopicsByClass(ctx, class)
		if err != nil {
			return nil, err
		}
		out = append(out, topics...)
	}
	b.sortTopics(out)
	return out, nil
}

// keyedMutex serializes work per conversation key. Entries are refcounted
// so the map does not grow with every chat ever seen.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[session.Key]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key session.Key) func() {
	k.mu.Lock()
	if k.entries == nil {
		k.entries = make(map[session.Key]*lockEntry)
	}
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
