package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jose-valero/topic-bot/internal/domain"
)

func TestSubmitWhileOpen(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	if err := h.svc.Submit(ctx, submission("555", "!topic Should robots have rights?")); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	replies := h.platform.sentTo(topicChan)
	if len(replies) != 1 || replies[0].ReplyTo != "555" || replies[0].Embed.Title != "Topic sent for review" {
		t.Fatalf("confirmation = %+v", replies)
	}
	if replies[0].Embed.Color != domain.ColorBlurple {
		t.Fatalf("confirmation color = %#x", replies[0].Embed.Color)
	}

	mods := h.platform.sentTo(modChan)
	if len(mods) != 1 {
		t.Fatalf("moderation posts = %d, want 1", len(mods))
	}
	e := mods[0].Embed
	if e.Title != "New discussion Topic" || e.Description != "Should robots have rights?" {
		t.Fatalf("moderation embed = %+v", e)
	}
	if e.Footer != "555" {
		t.Fatalf("footer = %q, want 555", e.Footer)
	}
	if len(e.Fields) != 2 ||
		e.Fields[0] != (domain.Field{Name: "Author", Value: "<@42>"}) ||
		e.Fields[1] != (domain.Field{Name: "Message URL", Value: "[Message](https://discord.com/channels/1/100/555)"}) {
		t.Fatalf("fields = %+v", e.Fields)
	}

	if len(h.platform.reactions) != 2 {
		t.Fatalf("reactions = %d, want 2", len(h.platform.reactions))
	}
	if h.platform.reactions[0].Emoji != approve || h.platform.reactions[1].Emoji != deny {
		t.Fatalf("reactions = %+v", h.platform.reactions)
	}
	for _, r := range h.platform.reactions {
		if r.ChannelID != modChan || r.MessageID != "901" {
			t.Fatalf("reaction on wrong message: %+v", r)
		}
	}
}

func TestSubmitWhileOnCooldown(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	if _, err := h.cooldown.Start(ctx, h.clock.Now(), time.Hour); err != nil {
		t.Fatal(err)
	}

	if err := h.svc.Submit(ctx, submission("555", "!topic anything")); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if got := h.platform.sentTo(modChan); len(got) != 0 {
		t.Fatalf("moderation got %d posts during cooldown", len(got))
	}
	replies := h.platform.sentTo(topicChan)
	if len(replies) != 1 || replies[0].Embed.Title != "!topic is on cooldown!" || replies[0].Embed.Color != domain.ColorRed {
		t.Fatalf("cooldown reply = %+v", replies)
	}
	if len(h.platform.reactions) != 0 {
		t.Fatalf("reactions added during cooldown")
	}
}

func TestSubmitIgnoresNonSubmissions(t *testing.T) {
	cases := map[string]domain.Message{
		"other channel": {ID: "1", ChannelID: modChan, AuthorID: "42", Content: "!topic hi"},
		"no prefix":     submission("1", "topic hi"),
		"no space":      submission("1", "!topichi"),
		"empty body":    submission("1", "!topic "),
		"blank body":    submission("1", "!topic    "),
		"bare command":  submission("1", "!topic"),
		"from bot":      {ID: "1", ChannelID: topicChan, AuthorID: botID, Content: "!topic hi"},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			if h.svc.IsSubmission(m) {
				t.Fatalf("IsSubmission = true")
			}
			if err := h.svc.Submit(context.Background(), m); err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if len(h.platform.sent) != 0 {
				t.Fatalf("sent %d messages", len(h.platform.sent))
			}
		})
	}
}

func TestSubmitTrimsTopic(t *testing.T) {
	h := newHarness()
	if err := h.svc.Submit(context.Background(), submission("1", "!topic   spaced out  ")); err != nil {
		t.Fatal(err)
	}
	if got := h.platform.sentTo(modChan)[0].Embed.Description; got != "spaced out" {
		t.Fatalf("topic = %q", got)
	}
}

func TestApproveScenario(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	if err := h.svc.Submit(ctx, submission("555", "!topic Should robots have rights?")); err != nil {
		t.Fatal(err)
	}
	r := h.modReaction(approve)

	h.clock.Advance(time.Minute)
	t1 := h.clock.Now()
	if err := h.svc.HandleReaction(ctx, r); err != nil {
		t.Fatalf("HandleReaction: %v", err)
	}

	if got := h.platform.topics[topicChan]; got != "Topic: Should robots have rights?" {
		t.Fatalf("channel topic = %q", got)
	}
	if h.store.till == nil || !h.store.till.Equal(t1.Add(10*time.Minute)) {
		t.Fatalf("persisted cooldown = %v, want %v", h.store.till, t1.Add(10*time.Minute))
	}

	replies := h.platform.sentTo(topicChan)
	last := replies[len(replies)-1]
	if last.ReplyTo != "555" || last.Embed.Title != "Topic Approved" {
		t.Fatalf("approval reply = %+v", last)
	}
	if !strings.Contains(last.Embed.Description, "**Should robots have rights?**") {
		t.Fatalf("approval body = %q", last.Embed.Description)
	}
	if got := h.platform.titles(modChan); got[len(got)-1] != "Topic approved" {
		t.Fatalf("moderation titles = %v", got)
	}
	if len(h.platform.removed) != 1 || h.platform.removed[0] != r.Message.ID {
		t.Fatalf("own reactions removed = %v", h.platform.removed)
	}

	// segundo intento antes de que termine el cooldown
	h.clock.Advance(9 * time.Minute)
	modBefore := len(h.platform.sentTo(modChan))
	if err := h.svc.Submit(ctx, submission("556", "!topic another one")); err != nil {
		t.Fatal(err)
	}
	if len(h.platform.sentTo(modChan)) != modBefore {
		t.Fatalf("submission reached moderation during cooldown")
	}
	replies = h.platform.sentTo(topicChan)
	if replies[len(replies)-1].Embed.Title != "!topic is on cooldown!" {
		t.Fatalf("expected on-cooldown reply, got %+v", replies[len(replies)-1])
	}

	// T1+10m+ε
	h.clock.Advance(time.Minute + time.Second)
	cleared, err := h.svc.ElapseCooldown(ctx)
	if err != nil || !cleared {
		t.Fatalf("ElapseCooldown = %v, %v", cleared, err)
	}
	if h.store.till != nil {
		t.Fatalf("persisted cooldown not cleared")
	}
	if got := h.platform.titles(modChan); got[len(got)-1] != "Cooldown elapsed" {
		t.Fatalf("moderation titles = %v", got)
	}
	if got := h.platform.titles(topicChan); got[len(got)-1] != "Topic submissions are now open" {
		t.Fatalf("topic titles = %v", got)
	}
}

func TestApproveIsIdempotent(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	if err := h.svc.Submit(ctx, submission("555", "!topic once")); err != nil {
		t.Fatal(err)
	}
	r := h.modReaction(approve)

	if err := h.svc.HandleReaction(ctx, r); err != nil {
		t.Fatal(err)
	}
	firstTill := *h.store.till
	saves := h.store.saves
	modPosts := len(h.platform.sentTo(modChan))

	h.clock.Advance(time.Minute)
	if err := h.svc.HandleReaction(ctx, r); err != nil {
		t.Fatal(err)
	}

	if !h.store.till.Equal(firstTill) || h.store.saves != saves {
		t.Fatalf("duplicate approval touched the cooldown")
	}
	if len(h.platform.sentTo(modChan)) != modPosts {
		t.Fatalf("duplicate approval posted notices again")
	}
	if len(h.decisions.list) != 1 {
		t.Fatalf("decisions = %d, want 1", len(h.decisions.list))
	}
}

func TestApproveConcurrentDuplicates(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	if err := h.svc.Submit(ctx, submission("555", "!topic racy")); err != nil {
		t.Fatal(err)
	}
	r := h.modReaction(approve)
	modPosts := len(h.platform.sentTo(modChan))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.svc.HandleReaction(ctx, r)
		}()
	}
	wg.Wait()

	if got := len(h.platform.sentTo(modChan)) - modPosts; got != 1 {
		t.Fatalf("moderation notices = %d, want 1", got)
	}
	if h.store.saves != 1 {
		t.Fatalf("cooldown saves = %d, want 1", h.store.saves)
	}
}

func TestApproveDeletedSubmission(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	if err := h.svc.Submit(ctx, submission("555", "!topic gone")); err != nil {
		t.Fatal(err)
	}
	h.platform.deleted["555"] = true

	if err := h.svc.HandleReaction(ctx, h.modReaction(approve)); err != nil {
		t.Fatal(err)
	}
	replies := h.platform.sentTo(topicChan)
	last := replies[len(replies)-1]
	if last.ReplyTo != "" || last.Content != "<@42>" || last.Embed.Title != "Topic Approved" {
		t.Fatalf("fallback post = %+v", last)
	}
}

func TestDeny(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	if err := h.svc.Submit(ctx, submission("555", "!topic nope")); err != nil {
		t.Fatal(err)
	}
	if err := h.svc.HandleReaction(ctx, h.modReaction(deny)); err != nil {
		t.Fatal(err)
	}

	if h.store.saves != 0 {
		t.Fatalf("deny persisted state")
	}
	if _, active := h.cooldown.Active(h.clock.Now()); active {
		t.Fatalf("deny started a cooldown")
	}
	if len(h.platform.topics) != 0 {
		t.Fatalf("deny edited the channel topic")
	}
	replies := h.platform.sentTo(topicChan)
	if last := replies[len(replies)-1]; last.ReplyTo != "555" || last.Embed.Title != "Your topic was rejected" {
		t.Fatalf("deny reply = %+v", last)
	}
	if got := h.platform.titles(modChan); got[len(got)-1] != "Topic denied" {
		t.Fatalf("moderation titles = %v", got)
	}
	if len(h.platform.removed) != 1 {
		t.Fatalf("own reactions not removed")
	}
	if len(h.decisions.list) != 1 || h.decisions.list[0].Verdict != domain.VerdictDenied {
		t.Fatalf("decisions = %+v", h.decisions.list)
	}
}

func TestReactionFilter(t *testing.T) {
	cases := map[string]func(r *Reaction){
		"bot reacted":          func(r *Reaction) { r.UserID = botID },
		"not bot message":      func(r *Reaction) { r.Message.AuthorID = "42" },
		"outside moderation":   func(r *Reaction) { r.Message.ChannelID = topicChan },
		"no embeds":            func(r *Reaction) { r.Message.Embeds = nil },
		"bot never offered it": func(r *Reaction) { r.Message.OwnReactions = []string{deny} },
		"other emoji":          func(r *Reaction) { r.Emoji = "🔥"; r.Message.OwnReactions = append(r.Message.OwnReactions, "🔥") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			ctx := context.Background()
			if err := h.svc.Submit(ctx, submission("555", "!topic filtered")); err != nil {
				t.Fatal(err)
			}
			r := h.modReaction(approve)
			mutate(&r)
			sentBefore := len(h.platform.sent)

			if err := h.svc.HandleReaction(ctx, r); err != nil {
				t.Fatalf("HandleReaction: %v", err)
			}
			if len(h.platform.sent) != sentBefore || h.store.saves != 0 || len(h.platform.removed) != 0 {
				t.Fatalf("filtered reaction had side effects")
			}
		})
	}
}

func TestReactionMalformedEmbed(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	if err := h.svc.Submit(ctx, submission("555", "!topic broken")); err != nil {
		t.Fatal(err)
	}
	r := h.modReaction(approve)
	r.Message.Embeds[0].Footer = "not-a-number"

	err := h.svc.HandleReaction(ctx, r)
	if !errors.Is(err, ErrMalformedEmbed) {
		t.Fatalf("err = %v, want ErrMalformedEmbed", err)
	}

	// el claim se libera: con el embed correcto se puede reintentar
	r.Message.Embeds[0].Footer = "555"
	if err := h.svc.HandleReaction(ctx, r); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if h.store.till == nil {
		t.Fatalf("retry did not start the cooldown")
	}
}

func TestApproveFailureReleasesClaim(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	if err := h.svc.Submit(ctx, submission("555", "!topic flaky")); err != nil {
		t.Fatal(err)
	}
	r := h.modReaction(approve)

	h.platform.sendErr = errBoom
	if err := h.svc.HandleReaction(ctx, r); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want errBoom", err)
	}
	if h.store.saves != 0 {
		t.Fatalf("cooldown started despite failure")
	}

	h.platform.sendErr = nil
	if err := h.svc.HandleReaction(ctx, r); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if h.store.till == nil {
		t.Fatalf("retry did not start the cooldown")
	}
}

func TestApproveSaveFailureStillBlocksSubmissions(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	if err := h.svc.Submit(ctx, submission("555", "!topic unsaved")); err != nil {
		t.Fatal(err)
	}
	h.store.saveErr = errBoom

	if err := h.svc.HandleReaction(ctx, h.modReaction(approve)); err != nil {
		t.Fatalf("HandleReaction: %v", err)
	}
	if _, active := h.cooldown.Active(h.clock.Now()); !active {
		t.Fatalf("cooldown should apply in memory even if saving failed")
	}
}

func TestDecisionLogFailureDoesNotFailApproval(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	if err := h.svc.Submit(ctx, submission("555", "!topic audit")); err != nil {
		t.Fatal(err)
	}
	h.decisions.err = errBoom
	if err := h.svc.HandleReaction(ctx, h.modReaction(approve)); err != nil {
		t.Fatalf("HandleReaction: %v", err)
	}
}
