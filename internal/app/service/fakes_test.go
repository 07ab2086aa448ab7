package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jose-valero/topic-bot/internal/domain"
)

type sent struct {
	ChannelID string
	Content   string
	ReplyTo   string
	Embed     domain.Embed
}

type reactionCall struct {
	ChannelID string
	MessageID string
	Emoji     string
}

type fakePlatform struct {
	mu        sync.Mutex
	nextID    int
	sent      []sent
	reactions []reactionCall
	topics    map[string]string
	removed   []string
	deleted   map[string]bool
	sendErr   error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{nextID: 900, topics: map[string]string{}, deleted: map[string]bool{}}
}

func (f *fakePlatform) SendEmbed(_ context.Context, channelID, content string, e domain.Embed) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, sent{ChannelID: channelID, Content: content, Embed: e})
	return fmt.Sprint(f.nextID), nil
}

func (f *fakePlatform) ReplyEmbed(_ context.Context, channelID, messageID string, e domain.Embed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{ChannelID: channelID, ReplyTo: messageID, Embed: e})
	return nil
}

func (f *fakePlatform) EditChannelTopic(_ context.Context, channelID, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics[channelID] = topic
	return nil
}

func (f *fakePlatform) AddReaction(_ context.Context, channelID, messageID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, reactionCall{channelID, messageID, emoji})
	return nil
}

func (f *fakePlatform) RemoveOwnReactions(_ context.Context, _, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, messageID)
	return nil
}

func (f *fakePlatform) FetchMessage(_ context.Context, channelID, messageID string) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleted[messageID] {
		return domain.Message{}, domain.ErrMessageNotFound
	}
	return domain.Message{ID: messageID, ChannelID: channelID}, nil
}

func (f *fakePlatform) sentTo(channelID string) []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sent
	for _, s := range f.sent {
		if s.ChannelID == channelID {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakePlatform) titles(channelID string) []string {
	var out []string
	for _, s := range f.sentTo(channelID) {
		out = append(out, s.Embed.Title)
	}
	return out
}

type memStore struct {
	mu      sync.Mutex
	till    *time.Time
	saves   int
	saveErr error
	loadErr error
}

func (m *memStore) Save(_ context.Context, till *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.till = till
	return nil
}

func (m *memStore) Load(context.Context) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.till, nil
}

type memDecisions struct {
	mu   sync.Mutex
	list []domain.Decision
	err  error
}

func (m *memDecisions) Record(_ context.Context, d domain.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.list = append(m.list, d)
	return nil
}

func (m *memDecisions) Recent(_ context.Context, limit int) ([]domain.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Decision, 0, limit)
	for i := len(m.list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.list[i])
	}
	return out, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var errBoom = errors.New("boom")

const (
	topicChan = "100"
	modChan   = "200"
	botID     = "999"
	approve   = "✅"
	deny      = "❌"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type harness struct {
	svc       *TopicService
	platform  *fakePlatform
	store     *memStore
	decisions *memDecisions
	clock     *clock
	cooldown  *Cooldown
}

func newHarness() *harness {
	h := &harness{
		platform:  newFakePlatform(),
		store:     &memStore{},
		decisions: &memDecisions{},
		clock:     &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	h.cooldown = NewCooldown(h.store, quietLogger())
	h.svc = NewTopicService(h.platform, h.cooldown, Settings{
		TopicChannelID:      topicChan,
		ModerationChannelID: modChan,
		Command:             "!topic",
		ApproveEmoji:        approve,
		DenyEmoji:           deny,
		TopicChannelPrefix:  "Topic: ",
		Cooldown:            10 * time.Minute,
	}, quietLogger(), WithClock(h.clock.Now), WithDecisionLog(h.decisions))
	h.svc.SetBotUser(botID)
	return h
}

func submission(id, content string) domain.Message {
	return domain.Message{
		ID:            id,
		ChannelID:     topicChan,
		GuildID:       "1",
		AuthorID:      "42",
		AuthorMention: "<@42>",
		Content:       content,
	}
}

// modReaction arma la reacción sobre el último embed mandado a moderación.
func (h *harness) modReaction(emoji string) Reaction {
	mods := h.platform.sentTo(modChan)
	last := mods[len(mods)-1]
	return Reaction{
		UserID: "7",
		Emoji:  emoji,
		Message: ModMessage{
			ID:           fmt.Sprint(h.platform.nextID),
			ChannelID:    modChan,
			AuthorID:     botID,
			Embeds:       []domain.Embed{last.Embed},
			OwnReactions: []string{approve, deny},
		},
	}
}
