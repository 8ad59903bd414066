package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/CoderVinit/doctor-backend/internal/domain/providers"
)

const defaultHeartbeatInterval = 30 * time.Second

// ModelEventsHandler streams no-show model lifecycle events over
// Server-Sent Events.
type ModelEventsHandler struct {
	eventBus  providers.EventBus
	heartbeat time.Duration
	clients   atomic.Int64
}

// NewModelEventsHandler creates a new model events handler. A non-positive
// heartbeat uses the default of 30s.
func NewModelEventsHandler(eventBus providers.EventBus, heartbeat time.Duration) *ModelEventsHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}
	return &ModelEventsHandler{eventBus: eventBus, heartbeat: heartbeat}
}

// StreamModelEvents handles GET /api/ai/model-events
func (h *ModelEventsHandler) StreamModelEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	events, err := h.eventBus.Subscribe(r.Context(), providers.EventChannelModelUpdates)
	if err != nil {
		log.Error().Err(err).Msg("Failed to subscribe to model events")
		respondWithError(w, http.StatusBadGateway, "event stream unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	count := h.clients.Add(1)
	defer h.clients.Add(-1)
	log.Debug().Int64("clients", count).Msg("Model event client connected")

	h.sendEvent(w, "connected", map[string]interface{}{"timestamp": time.Now().UTC()})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Msg("Model event client disconnected")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{"timestamp": time.Now().UTC()})
			flusher.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.Type), event)
			flusher.Flush()
		}
	}
}

func (h *ModelEventsHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// ClientCount returns the number of connected clients
func (h *ModelEventsHandler) ClientCount() int64 {
	return h.clients.Load()
}
