package local

import (
	"context"
	"sync"
)

// LocalMessage is an in-process pub/sub message.
type LocalMessage struct {
	Channel string
	Payload string
}

type subscription struct {
	ch       chan *LocalMessage
	channels []string
	once     sync.Once
}

// LocalPubSub is an in-process fan-out pub/sub implementation.
// Slow subscribers lose messages rather than stall the publisher; a room
// snapshot is superseded by the next one anyway.
type LocalPubSub struct {
	mu          sync.RWMutex
	subscribers map[string][]*subscription
	bufSize     int
}

// NewPubSub creates a new LocalPubSub with the given per-subscriber buffer size.
func NewPubSub(bufSize int) *LocalPubSub {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &LocalPubSub{
		subscribers: make(map[string][]*subscription),
		bufSize:     bufSize,
	}
}

// Publish sends a message to all subscribers of the given channel.
func (ps *LocalPubSub) Publish(_ context.Context, channel, message string) error {
	msg := &LocalMessage{Channel: channel, Payload: message}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for _, s := range ps.subscribers[channel] {
		select {
		case s.ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of messages for the given channels and a
// cancel function. The subscription also ends when ctx is done. Cancel
// may be called more than once.
func (ps *LocalPubSub) Subscribe(ctx context.Context, channels ...string) (<-chan *LocalMessage, func(), error) {
	sub := &subscription{
		ch:       make(chan *LocalMessage, ps.bufSize),
		channels: channels,
	}

	ps.mu.Lock()
	for _, c := range channels {
		ps.subscribers[c] = append(ps.subscribers[c], sub)
	}
	ps.mu.Unlock()

	cancel := func() { sub.once.Do(func() { ps.unsubscribe(sub) }) }
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			cancel()
		}()
	}
	return sub.ch, cancel, nil
}

func (ps *LocalPubSub) unsubscribe(sub *subscription) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for _, c := range sub.channels {
		list := ps.subscribers[c]
		for i, s := range list {
			if s == sub {
				ps.subscribers[c] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(ps.subscribers[c]) == 0 {
			delete(ps.subscribers, c)
		}
	}
	// Publish holds the read lock while sending, so closing under the
	// write lock cannot race a send.
	close(sub.ch)
}

// Subscribers returns the number of live subscriptions on channel.
func (ps *LocalPubSub) Subscribers(channel string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[channel])
}
