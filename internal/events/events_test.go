package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange, key string
	msg           amqp091.Publishing
	hasDeadline   bool
}

type fakeChannel struct {
	declared   []string
	declareErr error
	publishErr error
	sent       []published
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp091.Table) error {
	if f.declareErr != nil {
		return f.declareErr
	}
	f.declared = append(f.declared, name+"/"+kind)
	return nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	_, ok := ctx.Deadline()
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg, hasDeadline: ok})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type fakeConn struct{ closed bool }

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestAlertJSON(t *testing.T) {
	a := Alert{Kind: KindBudgetAlert, UserID: "u1", EntityID: "b1", Message: "Groceries at 96%",
		Data: map[string]string{"spent": "480.00"}, Timestamp: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)}
	data, err := a.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"budget_alert"`)

	got, err := AlertFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = AlertFromJSON([]byte("{"))
	assert.Error(t, err)
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	conn := &fakeConn{}
	p, err := newAMQPPublisher(conn, ch, "rizq.alerts", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"rizq.alerts/direct"}, ch.declared)

	require.NoError(t, p.Publish(context.Background(), Alert{Kind: KindGoalCompleted, UserID: "u1", EntityID: "g1"}))
	require.Len(t, ch.sent, 1)
	sent := ch.sent[0]
	assert.Equal(t, "rizq.alerts", sent.exchange)
	assert.Equal(t, "goal_completed", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, sent.msg.DeliveryMode)
	assert.True(t, sent.hasDeadline)

	got, err := AlertFromJSON(sent.msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "g1", got.EntityID)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
	assert.True(t, conn.closed)
}

func TestAMQPPublisher_Errors(t *testing.T) {
	_, err := newAMQPPublisher(&fakeConn{}, &fakeChannel{declareErr: errors.New("access refused")}, "x", nil)
	assert.ErrorContains(t, err, "declare exchange")

	p, err := newAMQPPublisher(&fakeConn{}, &fakeChannel{publishErr: errors.New("channel closed")}, "x", nil)
	require.NoError(t, err)
	assert.ErrorContains(t, p.Publish(context.Background(), Alert{Kind: KindLoanOverdue}), "publish alert")
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := LogPublisher{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	require.NoError(t, p.Publish(context.Background(), Alert{Kind: KindLoanCompleted, EntityID: "l1"}))
	assert.Contains(t, buf.String(), "kind=loan_completed")
	assert.Contains(t, buf.String(), "entity_id=l1")
	assert.NoError(t, p.Close())
}

func TestMemory(t *testing.T) {
	m := &Memory{}
	ctx := context.Background()
	require.NoError(t, m.Publish(ctx, Alert{Kind: KindBudgetAlert}))
	require.NoError(t, m.Publish(ctx, Alert{Kind: KindLoanOverdue}))
	assert.Equal(t, []Kind{KindBudgetAlert, KindLoanOverdue}, m.Kinds())

	m.Err = errors.New("down")
	assert.Error(t, m.Publish(ctx, Alert{}))
	assert.Len(t, m.Alerts(), 2)
}
