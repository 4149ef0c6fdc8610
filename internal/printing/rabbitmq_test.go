package printing

import (
	"context"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestRabbitMQTransport_Send(t *testing.T) {
	ch := &fakeChannel{}
	tr := &RabbitMQTransport{channel: ch, exchange: "print_jobs"}

	payload := []byte("\x1b\x40ORDER NO\n101\n\x1d\x56\x00")
	require.NoError(t, tr.Send(context.Background(), "kitchen", payload))

	require.Len(t, ch.sent, 1)
	got := ch.sent[0]
	assert.Equal(t, "print_jobs", got.exchange)
	assert.Equal(t, "kitchen", got.key)
	assert.Equal(t, payload, got.msg.Body)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, "kitchen", got.msg.Headers["printer"])
}

func TestRabbitMQTransport_SendFailureIsWrapped(t *testing.T) {
	tr := &RabbitMQTransport{channel: &fakeChannel{err: errors.New("channel closed")}, exchange: "print_jobs"}

	err := tr.Send(context.Background(), "counter", []byte("x"))
	assert.ErrorIs(t, err, ErrTransportFailure)
	assert.Contains(t, err.Error(), "channel closed")

	err = tr.Send(context.Background(), "", []byte("x"))
	assert.ErrorIs(t, err, ErrTransportFailure)
}

func TestRabbitMQTransport_ConcurrentSends(t *testing.T) {
	ch := &fakeChannel{}
	tr := &RabbitMQTransport{channel: ch, exchange: "print_jobs"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tr.Send(context.Background(), "counter", []byte("job"))
		}()
	}
	wg.Wait()
	assert.Len(t, ch.sent, 50)
}

func TestLogTransport(t *testing.T) {
	assert.NoError(t, LogTransport{}.Send(context.Background(), "counter", []byte("x")))
}
