package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/topic-bot/internal/domain"
)

// Platform implementa service.Platform sobre la API REST de discordgo.
type Platform struct {
	s *discordgo.Session
}

func NewPlatform(s *discordgo.Session) *Platform { return &Platform{s: s} }

func (p *Platform) SendEmbed(ctx context.Context, channelID, content string, e domain.Embed) (string, error) {
	msg, err := p.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{toMessageEmbed(e)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (p *Platform) ReplyEmbed(ctx context.Context, channelID, messageID string, e domain.Embed) error {
	_, err := p.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:    []*discordgo.MessageEmbed{toMessageEmbed(e)},
		Reference: &discordgo.MessageReference{MessageID: messageID, ChannelID: channelID},
	}, discordgo.WithContext(ctx))
	return err
}

func (p *Platform) EditChannelTopic(ctx context.Context, channelID, topic string) error {
	_, err := p.s.ChannelEdit(channelID, &discordgo.ChannelEdit{Topic: topic}, discordgo.WithContext(ctx))
	return err
}

func (p *Platform) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return p.s.MessageReactionAdd(channelID, messageID, NormalizeEmoji(emoji), discordgo.WithContext(ctx))
}

// RemoveOwnReactions saca todas las reacciones que puso el bot en el mensaje.
func (p *Platform) RemoveOwnReactions(ctx context.Context, channelID, messageID string) error {
	msg, err := p.s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	var errs []error
	for _, r := range msg.Reactions {
		if r == nil || !r.Me || r.Emoji == nil {
			continue
		}
		if err := p.s.MessageReactionRemove(channelID, messageID, r.Emoji.APIName(), "@me", discordgo.WithContext(ctx)); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", r.Emoji.APIName(), err))
		}
	}
	return errors.Join(errs...)
}

func (p *Platform) FetchMessage(ctx context.Context, channelID, messageID string) (domain.Message, error) {
	msg, err := p.s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if isUnknownMessage(err) {
		return domain.Message{}, domain.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(msg), nil
}

func isUnknownMessage(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
