package xfeed

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"social-pulse/internal/models"

	"github.com/gorilla/websocket"
)

// Sink receives canonical records produced by the stream. The ingest layer
// provides one that runs the date filter and deduplicator so live records
// take the exact same path as batch records.
type Sink func(ctx context.Context, rec *models.Record) error

// StreamConsumer samples the live post stream over a websocket and feeds
// keyword matches into the pipeline. It is optional; batch search remains
// the primary ingestion path.
type StreamConsumer struct {
	streamURL string
	keywords  []string
	adapter   *Adapter
	sink      Sink
	dialer    *websocket.Dialer
}

// NewStreamConsumer creates a stream consumer for the given keywords.
func NewStreamConsumer(streamURL string, keywords []string, adapter *Adapter, sink Sink) *StreamConsumer {
	return &StreamConsumer{
		streamURL: streamURL,
		keywords:  keywords,
		adapter:   adapter,
		sink:      sink,
		dialer:    websocket.DefaultDialer,
	}
}

// streamEvent is one frame from the sampled stream.
type streamEvent struct {
	Data *Post `json:"data"`
}

// StartConsuming runs the consumer until the context is cancelled,
// reconnecting on connection loss.
func (sc *StreamConsumer) StartConsuming(ctx context.Context) error {
	log.Printf("stream: connecting to %s", sc.streamURL)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := sc.connectAndConsume(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("stream: connection error: %v. Reconnecting in 10 seconds...", err)
				select {
				case <-time.After(10 * time.Second):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// connectAndConsume handles a single websocket session.
func (sc *StreamConsumer) connectAndConsume(ctx context.Context) error {
	conn, _, err := sc.dialer.DialContext(ctx, sc.streamURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Println("stream: connected")

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			return err
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		sc.processMessage(ctx, message)
	}
}

// processMessage filters one frame by keyword and pushes a match into the
// sink. Malformed frames are dropped, not fatal.
func (sc *StreamConsumer) processMessage(ctx context.Context, message []byte) {
	var event streamEvent
	if err := json.Unmarshal(message, &event); err != nil || event.Data == nil {
		return
	}

	keyword := sc.matchKeyword(event.Data.Text)
	if keyword == "" {
		return
	}

	rec, rej := sc.adapter.ToCanonical(event.Data)
	if rej != nil {
		return
	}
	rec.Platform = string(sc.adapter.Platform())
	rec.Keyword = keyword

	if err := sc.sink(ctx, rec); err != nil {
		log.Printf("stream: failed to store post %s: %v", event.Data.ID, err)
	}
}

func (sc *StreamConsumer) matchKeyword(text string) string {
	lower := strings.ToLower(text)
	for _, kw := range sc.keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}
