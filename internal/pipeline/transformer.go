// Package pipeline contains the dispatch orchestrator and the Pub/Sub stages
// that feed it.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/paintops/go-notification-service/pkg/notification"
)

// RequestTransformer decodes and validates a raw message payload into a
// notification.Request. Invalid payloads are skipped so the StreamingService
// can route them to the dead-letter topic.
func RequestTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*notification.Request, bool, error) {
	var req notification.Request
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return nil, true, fmt.Errorf("failed to unmarshal notification request from message %s: %w", msg.ID, err)
	}
	if err := req.Validate(); err != nil {
		return nil, true, fmt.Errorf("message %s: %w", msg.ID, err)
	}
	return &req, false, nil
}
