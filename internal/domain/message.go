package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrMessageNotFound lo devuelve la plataforma cuando el mensaje fue borrado.
var ErrMessageNotFound = errors.New("message not found")

// Message es lo mínimo que el workflow necesita de un mensaje entrante.
type Message struct {
	ID            string
	ChannelID     string
	GuildID       string
	AuthorID      string
	AuthorMention string
	Content       string
}

// JumpURL arma el link directo al mensaje. Sin guild (DM) Discord usa "@me".
func (m Message) JumpURL() string {
	guild := m.GuildID
	if guild == "" {
		guild = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guild, m.ChannelID, m.ID)
}

type Verdict string

const (
	VerdictApproved Verdict = "approved"
	VerdictDenied   Verdict = "denied"
)

// Decision queda registrada en el log de decisiones (solo backends SQL).
type Decision struct {
	ModerationMessageID string
	SubmissionMessageID string
	Topic               string
	AuthorMention       string
	ModeratorID         string
	Verdict             Verdict
	DecidedAt           time.Time
}
