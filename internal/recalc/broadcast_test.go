package recalc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_DeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster[int]()
	ch1, unsub1 := b.Subscribe()
	defer unsub1()
	ch2, unsub2 := b.Subscribe()
	defer unsub2()

	b.Publish(42)

	select {
	case v := <-ch1:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ch1")
	}
	select {
	case v := <-ch2:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ch2")
	}
}

func TestBroadcaster_DropsRatherThanBlocksWhenFull(t *testing.T) {
	b := NewBroadcaster[int]()
	ch, unsub := b.Subscribe()
	defer unsub()

	b.Publish(1)
	b.Publish(2) // buffer already full; dropped, must not block

	v := <-ch
	assert.Equal(t, 1, v)
}

func TestBroadcaster_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster[int]()
	ch, unsub := b.Subscribe()
	unsub()

	b.Publish(1)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestStateBroadcaster_NewSubscriberGetsCurrentValue(t *testing.T) {
	b := NewStateBroadcaster(Modified)
	b.Publish(Calculating)

	ch, unsub := b.Subscribe()
	defer unsub()

	select {
	case s := <-ch:
		assert.Equal(t, Calculating, s)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for current state")
	}
}

func TestStateBroadcaster_OverwritesStaleValue(t *testing.T) {
	b := NewStateBroadcaster(Modified)
	ch, unsub := b.Subscribe()
	defer unsub()

	require.Equal(t, Modified, <-ch)

	b.Publish(Calculating)
	b.Publish(Finished) // overwrites Calculating before it's read

	select {
	case s := <-ch:
		assert.Equal(t, Finished, s)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for final state")
	}
	assert.Equal(t, Finished, b.Current())
}
