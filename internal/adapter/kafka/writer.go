package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/fishing-map-etl/internal/config"
	"github.com/couchcryptid/fishing-map-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes each record of a dataset as one message.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Publish serializes every record and writes them in a single WriteMessages
// call. Records are keyed by ID so a reload overwrites rather than duplicates
// in compacted topics.
func (w *Writer) Publish(ctx context.Context, ds domain.Dataset) error {
	if len(ds.Records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(ds.Records))
	for i := range ds.Records {
		msg, err := serializeToMessage(ds.Records[i], ds)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	w.logger.Debug("published records", "count", len(msgs), "source", ds.Source)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// recordMessage is the message value: the record plus the derived display
// fields a consumer would otherwise recompute.
type recordMessage struct {
	domain.Record
	DisplayName string    `json:"display_name"`
	Caught      bool      `json:"caught"`
	MarkerColor string    `json:"marker_color"`
	Source      string    `json:"source"`
	Fallback    string    `json:"fallback,omitempty"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// serializeToMessage marshals a record into a Kafka message.
func serializeToMessage(rec domain.Record, ds domain.Dataset) (kafkago.Message, error) {
	data, err := json.Marshal(recordMessage{
		Record:      rec,
		DisplayName: rec.DisplayName(),
		Caught:      rec.Caught(),
		MarkerColor: rec.MarkerColor(),
		Source:      ds.Source,
		Fallback:    ds.Fallback,
		LoadedAt:    ds.LoadedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record %s: %w", rec.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "caught", Value: []byte(strconv.FormatBool(rec.Caught()))},
			{Key: "source", Value: []byte(ds.Source)},
			{Key: "loaded_at", Value: []byte(ds.LoadedAt.Format(time.RFC3339))},
		},
	}, nil
}
