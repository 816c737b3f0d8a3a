package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
)

type fakeConn struct {
	msgs []*nats.Msg
	err  error
}

func (f *fakeConn) PublishMsg(m *nats.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, m)
	return nil
}

func TestTimingRecordedPublishesEnvelope(t *testing.T) {
	fc := &fakeConn{}
	cfg := DefaultConfig()
	cfg.Station = "chegada-1"
	p := &NATSPublisher{pub: fc, config: cfg}

	ev := model.NewTimingEvent(model.EventFinish, 101, "Ana", "00:05:12.34", time.Date(2026, 5, 1, 8, 5, 12, 0, time.UTC))
	require.NoError(t, p.TimingRecorded(context.Background(), ev))

	require.Len(t, fc.msgs, 1)
	msg := fc.msgs[0]
	assert.Equal(t, "cronometro.finish", msg.Subject)
	assert.Equal(t, "finish", msg.Header.Get("Event-Type"))
	assert.Equal(t, ev.ID.String(), msg.Header.Get("Event-ID"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Equal(t, ev.ID.String(), body["eventId"])
	assert.Equal(t, "finish", body["eventType"])
	assert.Equal(t, float64(101), body["numero_corredor"])
	assert.Equal(t, "00:05:12.34", body["hora"])
	assert.Equal(t, "chegada-1", body["station"])
}

func TestTimingRecordedError(t *testing.T) {
	p := &NATSPublisher{pub: &fakeConn{err: nats.ErrConnectionClosed}, config: DefaultConfig()}
	err := p.TimingRecorded(context.Background(), model.NewTimingEvent(model.EventClear, 0, "m", "", time.Now()))
	assert.ErrorIs(t, err, nats.ErrConnectionClosed)
}

func TestTimingRecordedCancelled(t *testing.T) {
	fc := &fakeConn{}
	p := &NATSPublisher{pub: fc, config: DefaultConfig()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.TimingRecorded(ctx, model.NewTimingEvent(model.EventFinish, 1, "m", "00:00:01.00", time.Now()))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fc.msgs)
}

type countingNotifier struct {
	n   int
	err error
}

func (c *countingNotifier) TimingRecorded(context.Context, model.TimingEvent) error {
	c.n++
	return c.err
}

func TestFanoutDeliversToAll(t *testing.T) {
	a := &countingNotifier{err: errors.New("a failed")}
	b := &countingNotifier{}
	f := Fanout{a, nil, b, Nop{}}

	err := f.TimingRecorded(context.Background(), model.TimingEvent{Type: model.EventFinish})
	assert.EqualError(t, err, "a failed")
	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, b.n)
}

func TestConnectFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "nats://127.0.0.1:1"
	cfg.MaxReconnects = 0
	_, err := Connect(cfg)
	assert.Error(t, err)
}
