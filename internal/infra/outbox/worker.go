package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker relays claimed outbox records to a Producer as CloudEvents.
type Worker struct {
	Queue       Queue
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Now         func() time.Time
	Logger      *slog.Logger
}

// Run drains the queue on every tick and whenever the queue signals a flush.
func (w *Worker) Run(ctx context.Context) error {
	if w.Queue == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	var wake <-chan struct{}
	if n, ok := w.Queue.(Notifier); ok {
		wake = n.Notify()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-wake:
		}
		if _, err := w.Drain(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger().Error("outbox drain failed", "error", err)
		}
	}
}

// Drain relays due records until the queue is empty and returns how many
// were published.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	sent := 0
	for {
		ok, err := w.processOnce(ctx)
		if err != nil || !ok {
			return sent, err
		}
		sent++
	}
}

// processOnce reports false when nothing was claimed. A failed publish is
// rescheduled and stops the drain so a broken broker is retried on the next tick.
func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	rec, err := w.Queue.Claim(ctx, w.workerID())
	if err != nil || rec == nil {
		return false, err
	}
	payload, headers, err := w.formatPayload(rec)
	if err != nil {
		w.logger().Error("outbox record unencodable", "id", rec.ID, "name", rec.Name, "error", err)
		return false, w.Queue.MarkFailed(ctx, rec.ID, w.nextRetry(rec.Attempts), err.Error())
	}
	topic := w.topicFor(rec.Name)
	if err := w.Producer.Publish(ctx, topic, rec.Aggregate, payload, headers); err != nil {
		w.logger().Warn("outbox publish failed", "id", rec.ID, "topic", topic, "attempts", rec.Attempts+1, "error", err)
		return false, w.Queue.MarkFailed(ctx, rec.ID, w.nextRetry(rec.Attempts), err.Error())
	}
	if err := w.Queue.MarkSent(ctx, rec.ID); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Worker) formatPayload(rec *Pending) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              rec.ID,
		"type":            rec.Name + ".v1",
		"source":          w.source(),
		"subject":         rec.Aggregate,
		"time":            rec.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := rec.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if w.TopicPrefix != "" {
		topic = w.TopicPrefix + topic
	}
	return topic
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return "outbox-worker"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return w.now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return w.now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return w.now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://stayengine"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
