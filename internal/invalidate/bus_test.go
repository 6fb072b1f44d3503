package invalidate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribePrefix(t *testing.T) {
	bus := NewBus(nil, nil)
	ch, cancel := bus.Subscribe("stake:")
	defer cancel()

	require.NoError(t, bus.Publish(context.Background(), "stake:0xabc", "events", "stake:0xdef"))

	got := []string{(<-ch).Key, (<-ch).Key}
	assert.Equal(t, []string{"stake:0xabc", "stake:0xdef"}, got)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %q", ev.Key)
	default:
	}
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	bus := NewBus(nil, nil)
	bus.buffer = 2
	ch, cancel := bus.Subscribe("")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = bus.Publish(context.Background(), "k"+string(rune('0'+i)))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked")
	}
	// Oldest events were dropped; the newest survive.
	assert.Equal(t, "k8", (<-ch).Key)
	assert.Equal(t, "k9", (<-ch).Key)
}

func TestExpectSeesPublishAfterCreation(t *testing.T) {
	bus := NewBus(nil, nil)
	key := AllowanceKey(common.HexToAddress("0x1"), common.HexToAddress("0x2"), common.HexToAddress("0x3"))
	exp := bus.Expect(key)
	defer exp.Close()

	require.NoError(t, bus.Publish(context.Background(), key+":other", key))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, exp.Wait(ctx))
}

func TestWaitForTimesOut(t *testing.T) {
	bus := NewBus(nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.WaitFor(ctx, "events"), context.DeadlineExceeded)
}

type fakeConn struct {
	mu   sync.Mutex
	subj []string
	data [][]byte
	err  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.subj = append(f.subj, subject)
	f.data = append(f.data, data)
	return nil
}

func TestNATSForwarding(t *testing.T) {
	conn := &fakeConn{}
	bus := NewBus(NewNATSPublisher(conn, ""), nil)
	require.NoError(t, bus.Publish(context.Background(), "proposals"))

	require.Len(t, conn.data, 1)
	assert.Equal(t, DefaultSubject, conn.subj[0])
	var ev Event
	require.NoError(t, json.Unmarshal(conn.data[0], &ev))
	assert.Equal(t, "proposals", ev.Key)
	assert.False(t, ev.At.IsZero())
}

func TestForwardFailureStillDeliversLocally(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats down")}
	bus := NewBus(NewNATSPublisher(conn, "x"), nil)
	ch, cancel := bus.Subscribe("")
	defer cancel()

	assert.Error(t, bus.Publish(context.Background(), "treasury"))
	assert.Equal(t, "treasury", (<-ch).Key)
}
