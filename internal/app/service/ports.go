package service

import (
	"context"
	"time"

	"github.com/jose-valero/topic-bot/internal/domain"
)

// Lo implementa internal/adapters/discord.Platform
type Platform interface {
	// SendEmbed manda el embed al canal; content va fuera del embed (menciones).
	SendEmbed(ctx context.Context, channelID, content string, e domain.Embed) (string, error)
	ReplyEmbed(ctx context.Context, channelID, messageID string, e domain.Embed) error
	EditChannelTopic(ctx context.Context, channelID, topic string) error
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	RemoveOwnReactions(ctx context.Context, channelID, messageID string) error
	// FetchMessage devuelve domain.ErrMessageNotFound si el mensaje ya no existe.
	FetchMessage(ctx context.Context, channelID, messageID string) (domain.Message, error)
}

// Lo implementan internal/infra/storage.FileStore y storage.CooldownRepo
type StateStore interface {
	Save(ctx context.Context, till *time.Time) error
	Load(ctx context.Context) (*time.Time, error)
}

// Lo implementa internal/infra/storage.DecisionRepo
type DecisionLog interface {
	Record(ctx context.Context, d domain.Decision) error
	Recent(ctx context.Context, limit int) ([]domain.Decision, error)
}
