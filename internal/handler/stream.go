package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openclaw/bountyboard/internal/stream"
)

// StreamHandler exposes the change-notification fan-out as an SSE
// endpoint. Subscribers receive every bounty mutation published after
// they connect; there is no history replay and no per-subscriber
// filtering.
type StreamHandler struct {
	Hub *stream.Hub
}

func NewStreamHandler(h *stream.Hub) *StreamHandler {
	return &StreamHandler{Hub: h}
}

// Updates holds the connection open and writes one SSE data frame per
// published event until the client disconnects.
func (h *StreamHandler) Updates(c echo.Context) error {
	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx
	w.WriteHeader(http.StatusOK)

	// initial comment frame so proxies commit the stream
	fmt.Fprint(w, ":\n\n")
	w.Flush()

	events, cancel := h.Hub.Subscribe()
	defer cancel()

	ctx := c.Request().Context()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				c.Logger().Errorf("marshal bounty event: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: bounty\ndata: %s\n\n", payload)
			w.Flush()
		case <-ctx.Done():
			return nil
		}
	}
}
