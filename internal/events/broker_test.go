package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookbazaar/internal/events"
)

func TestBrokerDeliversToSubscribedTopics(t *testing.T) {
	b := events.NewBroker()
	ch, cancel := b.Subscribe(events.BookLiked, events.BookUnliked)
	defer cancel()

	b.Publish(events.BookLiked, events.LikeChanged{ID: 42, Liked: true, Count: 4})
	b.Publish(events.CommentLiked, events.LikeChanged{ID: 7})

	ev := <-ch
	assert.Equal(t, events.BookLiked, ev.Topic)
	assert.Equal(t, 42, ev.Data.(events.LikeChanged).ID)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := events.NewBroker()
	ch, cancel := b.Subscribe(events.BookLiked)
	cancel()
	cancel()
	_, open := <-ch
	require.False(t, open)
	b.Publish(events.BookLiked, nil)
}

func TestFanoutSkipsNil(t *testing.T) {
	b := events.NewBroker()
	ch, cancel := b.Subscribe(events.BookUnliked)
	defer cancel()
	events.Fanout{nil, b}.Publish(events.BookUnliked, "x")
	assert.Equal(t, "x", (<-ch).Data)
}
