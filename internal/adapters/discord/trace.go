package discord

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// event es el logger de un evento del gateway, con id para correlacionar líneas.
type event struct {
	*logrus.Entry
	start time.Time
}

func (r *Router) newEvent(kind string) *event {
	return &event{
		Entry: r.log.WithFields(logrus.Fields{"event": kind, "event_id": uuid.NewString()}),
		start: time.Now(),
	}
}

func (e *event) WithFields(f logrus.Fields) *event {
	return &event{Entry: e.Entry.WithFields(f), start: e.start}
}

func (e *event) done() {
	e.Entry.WithField("took", time.Since(e.start).String()).Debug("[trace] evento procesado")
}
