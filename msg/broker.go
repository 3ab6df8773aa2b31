// Package msg delivers typed messages to subscribers, either immediately or
// queued until the next Flush.
package msg

import (
	"reflect"

	"github.com/eapache/queue"
)

// Broker routes messages by their Go type. It is not safe for concurrent use.
type Broker struct {
	subs    map[reflect.Type][]*subscriber
	pending *queue.Queue
}

type subscriber struct {
	key     reflect.Type
	deliver func(any)
	active  bool
}

type envelope struct {
	key reflect.Type
	msg any
}

// Subscription cancels a handler registration.
type Subscription struct {
	broker *Broker
	sub    *subscriber
}

func NewBroker() *Broker {
	return &Broker{
		subs:    make(map[reflect.Type][]*subscriber),
		pending: queue.New(),
	}
}

// Subscribe registers fn for messages of type M.
func Subscribe[M any](b *Broker, fn func(M)) Subscription {
	key := reflect.TypeFor[M]()
	sub := &subscriber{
		key:     key,
		deliver: func(m any) { fn(m.(M)) },
		active:  true,
	}
	b.subs[key] = append(b.subs[key], sub)
	return Subscription{broker: b, sub: sub}
}

// Cancel stops delivery. It is safe to call from inside the handler.
func (s Subscription) Cancel() {
	if s.broker == nil || s.sub == nil || !s.sub.active {
		return
	}
	s.sub.active = false
	list := s.broker.subs[s.sub.key]
	for i, sub := range list {
		if sub == s.sub {
			s.broker.subs[s.sub.key] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
}

// Publish delivers m to current subscribers in subscription order and
// returns how many handlers ran.
func Publish[M any](b *Broker, m M) int {
	return b.deliver(reflect.TypeFor[M](), m)
}

// Post queues m for the next Flush.
func Post[M any](b *Broker, m M) {
	b.pending.Add(envelope{key: reflect.TypeFor[M](), msg: m})
}

// Flush delivers queued messages in FIFO order, including messages posted by
// handlers during the flush, and returns how many handlers ran.
func (b *Broker) Flush() int {
	n := 0
	for b.pending.Length() > 0 {
		env := b.pending.Remove().(envelope)
		n += b.deliver(env.key, env.msg)
	}
	return n
}

func (b *Broker) Pending() int {
	return b.pending.Length()
}

// Subscribers returns the number of handlers for M.
func Subscribers[M any](b *Broker) int {
	return len(b.subs[reflect.TypeFor[M]()])
}

func (b *Broker) deliver(key reflect.Type, m any) int {
	list := b.subs[key]
	if len(list) == 0 {
		return 0
	}
	snapshot := make([]*subscriber, len(list))
	copy(snapshot, list)

	n := 0
	for _, sub := range snapshot {
		if !sub.active {
			continue
		}
		sub.deliver(m)
		n++
	}
	return n
}
