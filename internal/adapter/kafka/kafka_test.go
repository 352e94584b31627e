package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/fishing-map-etl/internal/config"
	"github.com/couchcryptid/fishing-map-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessageWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeMessageWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeMessageWriter) Close() error {
	f.closed = true
	return nil
}

func testWriter(fake *fakeMessageWriter) *Writer {
	return &Writer{writer: fake, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

var loadedAt = time.Date(2026, 5, 1, 15, 10, 0, 0, time.UTC)

func TestSerializeToMessage(t *testing.T) {
	rec := domain.Record{ID: "loc-1", Name: "River Bend", Lat: 45.5, Lon: -122.6, Outcome: "Yes"}
	ds := domain.Dataset{Source: domain.SourceCSV, LoadedAt: loadedAt}

	msg, err := serializeToMessage(rec, ds)
	require.NoError(t, err)

	assert.Equal(t, []byte("loc-1"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "caught", msg.Headers[0].Key)
	assert.Equal(t, []byte("true"), msg.Headers[0].Value)
	assert.Equal(t, "source", msg.Headers[1].Key)
	assert.Equal(t, []byte("csv"), msg.Headers[1].Value)
	assert.Equal(t, "loaded_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(loadedAt.Format(time.RFC3339)), msg.Headers[2].Value)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "loc-1", got["id"])
	assert.Equal(t, "River Bend", got["display_name"])
	assert.Equal(t, true, got["caught"])
	assert.Equal(t, domain.ColorCaught, got["marker_color"])
	assert.InDelta(t, 45.5, got["lat"], 0)
	assert.NotContains(t, got, "fallback")
}

func TestSerializeToMessage_Fallback(t *testing.T) {
	rec := domain.Record{ID: "loc-2", Lat: 1, Lon: 2, Outcome: "No"}
	ds := domain.Dataset{Source: domain.SourceDemo, Fallback: "retrieval", LoadedAt: loadedAt}

	msg, err := serializeToMessage(rec, ds)
	require.NoError(t, err)

	assert.Equal(t, []byte("false"), msg.Headers[0].Value)
	assert.Contains(t, string(msg.Value), `"fallback":"retrieval"`)
	assert.Contains(t, string(msg.Value), `"display_name":"Unnamed Location"`)
}

func TestWriter_Publish(t *testing.T) {
	fake := &fakeMessageWriter{}
	w := testWriter(fake)

	ds := domain.Dataset{
		Records: []domain.Record{
			{ID: "loc-1", Lat: 1, Lon: 1},
			{ID: "loc-2", Lat: 2, Lon: 2},
		},
		Source:   domain.SourceCSV,
		LoadedAt: loadedAt,
	}
	require.NoError(t, w.Publish(context.Background(), ds))

	require.Len(t, fake.msgs, 2)
	assert.Equal(t, []byte("loc-1"), fake.msgs[0].Key)
	assert.Equal(t, []byte("loc-2"), fake.msgs[1].Key)
}

func TestWriter_PublishEmptyIsNoop(t *testing.T) {
	fake := &fakeMessageWriter{err: errors.New("should not be called")}
	w := testWriter(fake)

	require.NoError(t, w.Publish(context.Background(), domain.Dataset{}))
	assert.Empty(t, fake.msgs)
}

func TestWriter_PublishError(t *testing.T) {
	fake := &fakeMessageWriter{err: errors.New("broker down")}
	w := testWriter(fake)

	err := w.Publish(context.Background(), domain.Dataset{Records: []domain.Record{{ID: "loc-1"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestWriter_Close(t *testing.T) {
	fake := &fakeMessageWriter{}
	require.NoError(t, testWriter(fake).Close())
	assert.True(t, fake.closed)
}

func TestNewWriter_UsesConfig(t *testing.T) {
	cfg := &config.Config{
		KafkaBrokers:       []string{"broker1:9092", "broker2:9092"},
		KafkaTopic:         "fishing-locations",
		BatchSize:          25,
		BatchFlushInterval: 250 * time.Millisecond,
	}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	kw, ok := w.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, "fishing-locations", kw.Topic)
	assert.Equal(t, 25, kw.BatchSize)
	assert.Equal(t, 250*time.Millisecond, kw.BatchTimeout)
	assert.Equal(t, "broker1:9092,broker2:9092", kw.Addr.String())
	assert.Equal(t, "kafka", w.Name())
}
