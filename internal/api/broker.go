package api

import (
	"sync"
)

type SSEEvent struct {
	Type string
	Data map[string]any
}

// Broker is an in-process pub/sub hub. Subscribers are registered by
// channel with the topic they follow; a slow subscriber drops events
// rather than blocking the publisher.
type Broker struct {
	mu   sync.Mutex
	subs map[chan SSEEvent]string // channel -> topic
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan SSEEvent]string)}
}

func (b *Broker) Subscribe(topic string) chan SSEEvent {
	ch := make(chan SSEEvent, 8)
	b.mu.Lock()
	b.subs[ch] = topic
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch chan SSEEvent) {
	b.mu.Lock()
	_, ok := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

func (b *Broker) Publish(topic string, evt SSEEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch, t := range b.subs {
		if t != topic {
			continue
		}
		select {
		case ch <- evt:
		default:
		}
	}
}
