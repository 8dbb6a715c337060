package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/jinwuui/celeb-library-api-sub000/internal/events"
)

// StartAuditWorker subscribes an audit logger to every auth event so that
// logins, refreshes and logouts leave a structured trail.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	handler := func(_ context.Context, event events.Event) error {
		logger.Info("auth event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.String("username", event.Username),
			zap.Time("at", event.Timestamp),
		)
		return nil
	}

	for _, eventType := range []events.EventType{
		events.EventGuestRegistered,
		events.EventLoginSucceeded,
		events.EventLoginFailed,
		events.EventTokenRefreshed,
		events.EventLoggedOut,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
}
