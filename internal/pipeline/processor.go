package pipeline

import (
	"context"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/paintops/go-notification-service/pkg/notification"
)

// Dispatcher is the part of the Orchestrator the pipeline needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *notification.Request) (*notification.Result, error)
}

// NewProcessor runs each decoded request through the dispatcher.
// Delivery failures are already aggregated into the Result, so the message is
// always acked: redelivery would duplicate the in-app records that did succeed.
func NewProcessor(dispatcher Dispatcher, logger *slog.Logger) messagepipeline.StreamProcessor[notification.Request] {
	return func(ctx context.Context, original messagepipeline.Message, request *notification.Request) error {
		procLogger := logger.With(
			"pubsub_msg_id", original.ID,
			"type", request.Type,
		)

		result, err := dispatcher.Dispatch(ctx, request)
		if err != nil {
			procLogger.Error("Dropping undeliverable request", "err", err)
			return nil
		}

		if result.NotificationsFailed > 0 || result.EmailsFailed > 0 || result.PushFailed > 0 {
			procLogger.Warn("Dispatched with failures",
				"notifications_failed", result.Details.NotificationsFailed,
				"emails_failed", result.Details.EmailsFailed,
				"push_failed", result.Details.PushFailed,
			)
		}
		if result.Partial {
			procLogger.Warn("Dispatch was interrupted; result is partial")
		}
		return nil
	}
}
