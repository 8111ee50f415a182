package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ack records what the consumer did with each delivery.
type ack struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *ack) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *ack) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *ack) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

func (a *ack) settled() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.acked) + len(a.nacked)
}

type chanSource struct {
	ch chan amqp.Delivery
}

func (s chanSource) Consume() (<-chan amqp.Delivery, error) { return s.ch, nil }

func delivery(t *testing.T, a *ack, tag uint64, e Event) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(e)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: a, DeliveryTag: tag, MessageId: e.ID, Body: body}
}

func newTestConsumer(src Source, h Handler) *Consumer {
	c := NewConsumer(src, h, zap.NewNop())
	c.RetryDelay = time.Millisecond
	c.MaxRetryDelay = 5 * time.Millisecond
	c.ReconnectDelay = time.Millisecond
	return c
}

func TestConsumer_AcksHandledEvents(t *testing.T) {
	src := chanSource{ch: make(chan amqp.Delivery, 1)}
	a := &ack{}

	var mu sync.Mutex
	var got []Event
	c := newTestConsumer(src, func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
		return nil
	})
	c.Start()
	defer c.Stop()

	e := New(ClaimSubmitted, "u1", "Claim submitted", "CLM-1 received", "CLM-1")
	src.ch <- delivery(t, a, 1, e)

	require.Eventually(t, func() bool { return a.settled() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint64{1}, a.acked)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, e.ID, got[0].ID)
	assert.Equal(t, "u1", got[0].RecipientID)
}

func TestConsumer_RetriesThenDeadLetters(t *testing.T) {
	src := chanSource{ch: make(chan amqp.Delivery, 1)}
	a := &ack{}

	var mu sync.Mutex
	calls := 0
	c := newTestConsumer(src, func(context.Context, Event) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("store unavailable")
	})
	c.Start()
	defer c.Stop()

	src.ch <- delivery(t, a, 7, New(PolicyCreated, "u1", "t", "m", ""))

	require.Eventually(t, func() bool { return a.settled() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint64{7}, a.nacked)
	assert.Equal(t, []bool{false}, a.requeue)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls)
}

func TestConsumer_RecoversAfterTransientFailure(t *testing.T) {
	src := chanSource{ch: make(chan amqp.Delivery, 1)}
	a := &ack{}

	var mu sync.Mutex
	calls := 0
	c := newTestConsumer(src, func(context.Context, Event) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return errors.New("blip")
		}
		return nil
	})
	c.Start()
	defer c.Stop()

	src.ch <- delivery(t, a, 3, New(ReportCompleted, "u1", "t", "m", ""))
	require.Eventually(t, func() bool { return a.settled() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint64{3}, a.acked)
}

func TestConsumer_DropsUndecodable(t *testing.T) {
	src := chanSource{ch: make(chan amqp.Delivery, 1)}
	a := &ack{}
	c := newTestConsumer(src, func(context.Context, Event) error {
		t.Error("handler must not run")
		return nil
	})
	c.Start()
	defer c.Stop()

	src.ch <- amqp.Delivery{Acknowledger: a, DeliveryTag: 9, Body: []byte("{not json")}
	require.Eventually(t, func() bool { return a.settled() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint64{9}, a.nacked)
}

type flakySource struct {
	mu    sync.Mutex
	calls int
	ch    chan amqp.Delivery
}

func (s *flakySource) Consume() (<-chan amqp.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls == 1 {
		return nil, errors.New("broker down")
	}
	return s.ch, nil
}

func TestConsumer_ReconnectsWhenConsumeFails(t *testing.T) {
	src := &flakySource{ch: make(chan amqp.Delivery, 1)}
	a := &ack{}
	c := newTestConsumer(src, func(context.Context, Event) error { return nil })
	c.Start()
	defer c.Stop()

	src.ch <- delivery(t, a, 1, New(PolicyUpdated, "u1", "t", "m", ""))
	require.Eventually(t, func() bool { return a.settled() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint64{1}, a.acked)
}

func TestConsumer_StopIsIdempotent(t *testing.T) {
	c := newTestConsumer(chanSource{ch: make(chan amqp.Delivery)}, func(context.Context, Event) error { return nil })
	c.Start()
	c.Stop()
	c.Stop()
}

func TestLocalPublisher(t *testing.T) {
	var got []Event
	p := NewLocalPublisher(func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	require.NoError(t, p.Publish(context.Background(), New(ClaimStatusUpdated, "u1", "t", "m", "")))
	require.NoError(t, p.Publish(context.Background(), New(ClaimStatusUpdated, "", "t", "m", "")), "no recipient is skipped")
	require.Len(t, got, 1)
	assert.Equal(t, ClaimStatusUpdated, got[0].Type)

	assert.Error(t, NewLocalPublisher(nil).Publish(context.Background(), Event{RecipientID: "u"}))
}

func TestNew(t *testing.T) {
	e := New(AssessmentCompleted, "u1", "title", "msg", "ref")
	assert.NotEmpty(t, e.ID)
	assert.WithinDuration(t, time.Now(), e.Timestamp, time.Second)
	assert.Equal(t, "ref", e.Reference)
}
