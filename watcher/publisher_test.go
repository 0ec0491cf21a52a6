package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	drained  bool
	err      error
}

func (c *fakeConn) Publish(subj string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subj)
	c.payloads = append(c.payloads, data)
	return nil
}

func (c *fakeConn) Drain() error {
	c.drained = true
	return nil
}

func testEvent() *Event {
	return &Event{
		Name:        "Redeemed",
		Contract:    testMixer.Hex(),
		TxHash:      "0xaa",
		BlockNumber: 3,
		Args:        map[string]string{"amount": "1000", "tip": "10"},
	}
}

func TestNATSPublisher(t *testing.T) {
	conn := &fakeConn{}
	p := newNATSPublisher(conn, DefaultSubjectPrefix)

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	require.Len(t, conn.subjects, 1)
	assert.Equal(t, "blindly.Redeemed", conn.subjects[0])

	var got Event
	require.NoError(t, json.Unmarshal(conn.payloads[0], &got))
	assert.Equal(t, *testEvent(), got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, testEvent()), context.Canceled)

	conn.err = errors.New("nats: connection closed")
	assert.Error(t, p.Publish(context.Background(), testEvent()))

	require.NoError(t, p.Close())
	assert.True(t, conn.drained)
}

func TestMultiPublisher(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("sink down")}
	mp := MultiPublisher{LogPublisher{}, ok, failing}

	err := mp.Publish(context.Background(), testEvent())
	assert.EqualError(t, err, "sink down")
	assert.Len(t, ok.Events(), 1)
	assert.Len(t, failing.Events(), 1)
	assert.NoError(t, mp.Close())
}
