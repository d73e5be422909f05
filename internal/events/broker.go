package events

import "sync"

const (
	BookLiked      = "book.liked"
	BookUnliked    = "book.unliked"
	CommentLiked   = "comment.liked"
	CommentUnliked = "comment.unliked"
)

// Event is a message passed through the broker.
type Event struct {
	Topic string
	Data  any
}

// LikeChanged is the payload of every like topic. Namespace identifies the
// browser session whose cache was updated.
type LikeChanged struct {
	Namespace string `json:"namespace"`
	Kind      string `json:"kind"`
	ID        int    `json:"id"`
	Liked     bool   `json:"liked"`
	Count     int    `json:"count"`
}

// Publisher is what LikeSync needs to announce a confirmed toggle.
type Publisher interface {
	Publish(topic string, data any)
}

// Broker is an in-memory pub/sub. Delivery is best effort: a subscriber
// whose buffer is full misses the event.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
}

func NewBroker() *Broker {
	return &Broker{subscribers: make(map[string][]chan Event)}
}

// Subscribe returns a channel receiving events for any of topics and a
// cancel func that detaches and closes it.
func (b *Broker) Subscribe(topics ...string) (<-chan Event, func()) {
	ch := make(chan Event, 16)
	b.mu.Lock()
	for _, t := range topics {
		b.subscribers[t] = append(b.subscribers[t], ch)
	}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			for _, t := range topics {
				subs := b.subscribers[t]
				for i, s := range subs {
					if s == ch {
						b.subscribers[t] = append(subs[:i], subs[i+1:]...)
						break
					}
				}
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (b *Broker) Publish(topic string, data any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	event := Event{Topic: topic, Data: data}
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Fanout publishes to every non-nil publisher in order.
type Fanout []Publisher

func (f Fanout) Publish(topic string, data any) {
	for _, p := range f {
		if p != nil {
			p.Publish(topic, data)
		}
	}
}
