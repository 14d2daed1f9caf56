package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/paintops/go-notification-service/pkg/notification"
)

const maxRequestBytes = 1 << 20

// Dispatcher runs one dispatch. *pipeline.Orchestrator implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *notification.Request) (*notification.Result, error)
}

type DispatchAPI struct {
	Dispatcher Dispatcher
	Logger     *slog.Logger
}

func NewDispatchAPI(dispatcher Dispatcher, logger *slog.Logger) *DispatchAPI {
	return &DispatchAPI{
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

// Dispatch handles POST /api/v1/notifications/dispatch.
func (api *DispatchAPI) Dispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := middleware.GetUserHandleFromContext(ctx)

	var req notification.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		api.Logger.Warn("Dispatch: JSON Decode failed", "caller", caller, "err", err)
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := api.Dispatcher.Dispatch(ctx, &req)
	if err != nil {
		if notification.IsValidationError(err) {
			api.Logger.Warn("Dispatch: Validation failed", "caller", caller, "err", err)
			response.WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		api.Logger.Error("Dispatch failed", "caller", caller, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "dispatch failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		api.Logger.Error("Dispatch: failed to write response", "err", err)
	}
}
