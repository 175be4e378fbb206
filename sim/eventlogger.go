package sim

import "github.com/sirupsen/logrus"

// EventLogger is a hook that writes one debug line per triggered event and
// per replica boundary.
type EventLogger struct {
	Logger *logrus.Logger
}

// NewEventLogger returns a new EventLogger which will write in to the logger
func NewEventLogger(logger *logrus.Logger) *EventLogger {
	return &EventLogger{Logger: logger}
}

// Func writes the event information into the logger
func (h *EventLogger) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosAfterEvent:
		h.logEvent(ctx)
	case HookPosNewRun:
		h.Logger.WithField("run", ctx.Item).Debug("replica started")
	case HookPosEndRun:
		h.Logger.WithField("run", ctx.Item).Debug("replica ended")
	}
}

func (h *EventLogger) logEvent(ctx HookCtx) {
	evt, ok := ctx.Item.(*Event)
	if !ok {
		return
	}

	entry := h.Logger.WithFields(logrus.Fields{
		"tick":     evt.LastTime(),
		"event":    evt.Name(),
		"priority": evt.Priority(),
	})

	if err, isErr := ctx.Detail.(error); isErr && err != nil {
		entry.WithError(err).Debug("event failed")
		return
	}

	entry.Debug("event triggered")
}
