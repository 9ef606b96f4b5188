package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/bountyboard/internal/model"
	"github.com/openclaw/bountyboard/internal/queue"
)

func event(id, action string) queue.BountyEvent {
	return queue.BountyEvent{Action: action, Bounty: model.Bounty{ID: id}}
}

func TestSubscriberReceivesEveryEventAfterSubscription(t *testing.T) {
	h := NewHub()

	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(event("b1", queue.ActionCreated))
	h.Publish(event("b1", queue.ActionApplied))
	h.Publish(event("b1", queue.ActionAccepted))

	for _, want := range []string{queue.ActionCreated, queue.ActionApplied, queue.ActionAccepted} {
		ev := <-ch
		assert.Equal(t, want, ev.Action)
		assert.Equal(t, "b1", ev.Bounty.ID)
	}
}

func TestLateSubscriberGetsNoHistory(t *testing.T) {
	h := NewHub()

	early, cancelEarly := h.Subscribe()
	defer cancelEarly()

	h.Publish(event("b1", queue.ActionCreated))

	late, cancelLate := h.Subscribe()
	defer cancelLate()

	h.Publish(event("b2", queue.ActionCreated))

	// early sees both, late only the second
	assert.Equal(t, "b1", (<-early).Bounty.ID)
	assert.Equal(t, "b2", (<-early).Bounty.ID)
	assert.Equal(t, "b2", (<-late).Bounty.ID)
	assert.Empty(t, late, "no replay of history")
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	h := NewHub()

	_, cancel := h.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*3; i++ {
			h.Publish(event("b", queue.ActionCreated))
		}
	}()
	<-done // would deadlock if Publish blocked on the full buffer
}

func TestCancelUnsubscribes(t *testing.T) {
	h := NewHub()

	_, cancel := h.Subscribe()
	require.Equal(t, 1, h.SubscriberCount())

	cancel()
	cancel() // safe to call twice
	assert.Equal(t, 0, h.SubscriberCount())

	// publishing to an empty hub is fine
	h.Publish(event("b1", queue.ActionCreated))
}
