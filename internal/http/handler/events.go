package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/PracticalMetal/major-notice/internal/events"
)

// DefaultKeepAlive is the interval between SSE comment pings.
const DefaultKeepAlive = 25 * time.Second

// EventStream streams the organization's document events as Server-Sent Events.
// The stream ends when the client goes away.
func EventStream(hub *events.Hub, keepAlive time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		org := organization(c)
		if org == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing organization")
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		sub := hub.Subscribe(org)
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer sub.Close()
			ticker := time.NewTicker(keepAlive)
			defer ticker.Stop()
			_ = writeEvents(w, sub.Events(), ticker.C)
		}))
		return nil
	}
}

// writeEvents copies events to w until the channel closes or a write fails.
func writeEvents(w *bufio.Writer, ch <-chan events.Event, ping <-chan time.Time) error {
	if _, err := w.WriteString(": connected\n\n"); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	var seq int64
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			b, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			seq++
			if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, ev.Type, b); err != nil {
				return err
			}
		case <-ping:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}
