package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jose-valero/topic-bot/internal/domain"
)

// ErrMalformedEmbed: el embed de moderación no trae topic/autor/footer legibles.
var ErrMalformedEmbed = errors.New("malformed moderation embed")

// Settings es la parte de la config que usa el workflow.
type Settings struct {
	TopicChannelID      string
	ModerationChannelID string
	// Command es prefix + nombre, ej "!topic"
	Command            string
	ApproveEmoji       string
	DenyEmoji          string
	TopicChannelPrefix string
	Cooldown           time.Duration
}

// ModMessage es la vista mínima de un mensaje del canal de moderación.
type ModMessage struct {
	ID        string
	ChannelID string
	AuthorID  string
	Embeds    []domain.Embed
	// OwnReactions son los emojis con los que reaccionó el propio bot.
	OwnReactions []string
}

type Reaction struct {
	UserID  string
	Emoji   string
	Message ModMessage
}

// proposal es el topic reconstruido desde el embed de moderación.
type proposal struct {
	Topic         string
	AuthorMention string
	MessageID     string
}

type TopicService struct {
	platform  Platform
	cooldown  *Cooldown
	decisions DecisionLog
	cfg       Settings
	claims    *claimSet
	now       func() time.Time
	log       logrus.FieldLogger

	botMu sync.RWMutex
	botID string
}

func NewTopicService(p Platform, cd *Cooldown, cfg Settings, log logrus.FieldLogger, opts ...Option) *TopicService {
	s := &TopicService{
		platform: p,
		cooldown: cd,
		cfg:      cfg,
		claims:   newClaimSet(),
		now:      time.Now,
		log:      log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *TopicService) Settings() Settings { return s.cfg }

// SetBotUser se llama en el Ready con el id del usuario del bot.
func (s *TopicService) SetBotUser(id string) {
	s.botMu.Lock()
	s.botID = id
	s.botMu.Unlock()
}

func (s *TopicService) botUser() string {
	s.botMu.RLock()
	defer s.botMu.RUnlock()
	return s.botID
}

// IsSubmission dice si el mensaje es un "<prefix><cmd> <topic>" válido en el canal de topics.
func (s *TopicService) IsSubmission(m domain.Message) bool {
	_, ok := s.parseTopic(m)
	return ok
}

func (s *TopicService) parseTopic(m domain.Message) (string, bool) {
	if m.AuthorID != "" && m.AuthorID == s.botUser() {
		return "", false
	}
	if m.ChannelID != s.cfg.TopicChannelID {
		return "", false
	}
	head := s.cfg.Command + " "
	if !strings.HasPrefix(m.Content, head) || len(m.Content) <= len(head) {
		return "", false
	}
	topic := strings.TrimSpace(m.Content[len(head):])
	if topic == "" {
		return "", false
	}
	return topic, true
}

// Submit procesa una propuesta: la rechaza si hay cooldown o la manda a moderación.
func (s *TopicService) Submit(ctx context.Context, m domain.Message) error {
	topic, ok := s.parseTopic(m)
	if !ok {
		return nil
	}
	log := s.log.WithFields(logrus.Fields{"topic": topic, "author": m.AuthorID, "message": m.ID})

	if till, active := s.cooldown.Active(s.now()); active {
		log.Info("topic rechazado, comando en cooldown")
		return s.platform.ReplyEmbed(ctx, m.ChannelID, m.ID, domain.NewEmbed(
			domain.WithTitle(s.cfg.Command+" is on cooldown!"),
			domain.WithBody(fmt.Sprintf("Submissions reopen <t:%d:R>", till.Unix())),
			domain.WithColor(domain.ColorRed),
		))
	}

	log.Info("topic nuevo enviado a revisión")
	if err := s.platform.ReplyEmbed(ctx, m.ChannelID, m.ID, domain.NewEmbed(
		domain.WithTitle("Topic sent for review"),
		domain.WithColor(domain.ColorBlurple),
	)); err != nil {
		return fmt.Errorf("confirm submission: %w", err)
	}

	modEmbed := domain.NewEmbed(
		domain.WithTitle("New discussion Topic"),
		domain.WithBody(topic),
		domain.WithFields(
			domain.Field{Name: "Author", Value: m.AuthorMention},
			domain.Field{Name: "Message URL", Value: fmt.Sprintf("[Message](%s)", m.JumpURL())},
		),
		domain.WithFooter(m.ID),
	)
	modID, err := s.platform.SendEmbed(ctx, s.cfg.ModerationChannelID, "", modEmbed)
	if err != nil {
		return fmt.Errorf("post moderation embed: %w", err)
	}
	for _, emoji := range []string{s.cfg.ApproveEmoji, s.cfg.DenyEmoji} {
		if err := s.platform.AddReaction(ctx, s.cfg.ModerationChannelID, modID, emoji); err != nil {
			return fmt.Errorf("add reaction %s: %w", emoji, err)
		}
	}
	return nil
}

// verdictFor aplica el filtro de reacciones y traduce el emoji a un veredicto.
func (s *TopicService) verdictFor(r Reaction) (domain.Verdict, bool) {
	bot := s.botUser()
	switch {
	case bot == "":
		return "", false
	case r.UserID == bot:
		return "", false
	case r.Message.AuthorID != bot:
		return "", false
	case r.Message.ChannelID != s.cfg.ModerationChannelID:
		return "", false
	case len(r.Message.Embeds) == 0:
		return "", false
	case !contains(r.Message.OwnReactions, r.Emoji):
		return "", false
	}

	switch r.Emoji {
	case s.cfg.ApproveEmoji:
		return domain.VerdictApproved, true
	case s.cfg.DenyEmoji:
		return domain.VerdictDenied, true
	}
	return "", false
}

// HandleReaction dispara approve/deny. Cada mensaje de moderación se procesa una
// sola vez; si la transición falla se libera para poder reintentar.
func (s *TopicService) HandleReaction(ctx context.Context, r Reaction) error {
	verdict, ok := s.verdictFor(r)
	if !ok {
		return nil
	}
	log := s.log.WithFields(logrus.Fields{"moderation_message": r.Message.ID, "moderator": r.UserID})

	if !s.claims.claim(r.Message.ID, s.now()) {
		log.Debug("reacción duplicada, mensaje ya procesado")
		return nil
	}

	p, err := parseProposal(r.Message.Embeds[0])
	if err != nil {
		s.claims.release(r.Message.ID)
		return err
	}

	switch verdict {
	case domain.VerdictApproved:
		err = s.approve(ctx, p)
	case domain.VerdictDenied:
		err = s.deny(ctx, p)
	}
	if err != nil {
		s.claims.release(r.Message.ID)
		return fmt.Errorf("%s topic: %w", verdict, err)
	}

	if err := s.platform.RemoveOwnReactions(ctx, r.Message.ChannelID, r.Message.ID); err != nil {
		log.WithError(err).Warn("no se pudieron quitar las reacciones del bot")
	}

	s.record(ctx, domain.Decision{
		ModerationMessageID: r.Message.ID,
		SubmissionMessageID: p.MessageID,
		Topic:               p.Topic,
		AuthorMention:       p.AuthorMention,
		ModeratorID:         r.UserID,
		Verdict:             verdict,
		DecidedAt:           s.now(),
	})
	return nil
}

func (s *TopicService) approve(ctx context.Context, p proposal) error {
	s.log.WithField("topic", p.Topic).Info("topic aprobado")

	reply := domain.NewEmbed(
		domain.WithTitle("Topic Approved"),
		domain.WithBody(fmt.Sprintf("**%s**\n\n%s is now on cooldown!", p.Topic, s.cfg.Command)),
		domain.WithColor(domain.ColorGreen),
	)
	if err := s.answerSubmitter(ctx, p, reply); err != nil {
		return err
	}
	if err := s.platform.EditChannelTopic(ctx, s.cfg.TopicChannelID, s.cfg.TopicChannelPrefix+p.Topic); err != nil {
		return fmt.Errorf("edit channel topic: %w", err)
	}
	if _, err := s.platform.SendEmbed(ctx, s.cfg.ModerationChannelID, "", domain.NewEmbed(
		domain.WithTitle("Topic approved"),
		domain.WithColor(domain.ColorGreen),
		domain.WithBody(p.Topic),
	)); err != nil {
		return fmt.Errorf("moderation notice: %w", err)
	}

	// un fallo al persistir ya lo loguea Cooldown; el valor en memoria igual aplica
	till, _ := s.cooldown.Start(ctx, s.now(), s.cfg.Cooldown)
	s.log.WithField("cooldown_till", till.Format(time.RFC3339)).Info("cooldown iniciado")
	return nil
}

func (s *TopicService) deny(ctx context.Context, p proposal) error {
	s.log.WithField("topic", p.Topic).Info("topic rechazado")

	reply := domain.NewEmbed(
		domain.WithTitle("Your topic was rejected"),
		domain.WithColor(domain.ColorRed),
	)
	if err := s.answerSubmitter(ctx, p, reply); err != nil {
		return err
	}
	if _, err := s.platform.SendEmbed(ctx, s.cfg.ModerationChannelID, "", domain.NewEmbed(
		domain.WithTitle("Topic denied"),
		domain.WithColor(domain.ColorRed),
		domain.WithBody(p.Topic),
	)); err != nil {
		return fmt.Errorf("moderation notice: %w", err)
	}
	return nil
}

// answerSubmitter responde al mensaje original; si lo borraron, postea en el
// canal mencionando al autor.
func (s *TopicService) answerSubmitter(ctx context.Context, p proposal, e domain.Embed) error {
	_, err := s.platform.FetchMessage(ctx, s.cfg.TopicChannelID, p.MessageID)
	switch {
	case errors.Is(err, domain.ErrMessageNotFound):
		if _, err := s.platform.SendEmbed(ctx, s.cfg.TopicChannelID, p.AuthorMention, e); err != nil {
			return fmt.Errorf("notify author: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("fetch submission: %w", err)
	}
	if err := s.platform.ReplyEmbed(ctx, s.cfg.TopicChannelID, p.MessageID, e); err != nil {
		return fmt.Errorf("reply submission: %w", err)
	}
	return nil
}

func (s *TopicService) record(ctx context.Context, d domain.Decision) {
	if s.decisions == nil {
		return
	}
	if err := s.decisions.Record(ctx, d); err != nil {
		s.log.WithError(err).WithField("moderation_message", d.ModerationMessageID).Warn("no se pudo registrar la decisión")
	}
}

func parseProposal(e domain.Embed) (proposal, error) {
	if e.Description == "" || len(e.Fields) == 0 {
		return proposal{}, ErrMalformedEmbed
	}
	footer := strings.TrimSpace(e.Footer)
	if _, err := strconv.ParseUint(footer, 10, 64); err != nil {
		return proposal{}, fmt.Errorf("%w: footer %q", ErrMalformedEmbed, e.Footer)
	}
	return proposal{
		Topic:         e.Description,
		AuthorMention: e.Fields[0].Value,
		MessageID:     footer,
	}, nil
}

func contains(list []string, v string) bool {
	for _, it := range list {
		if it == v {
			return true
		}
	}
	return false
}
