package service

import (
	"context"
	"sync"
)

// Subscription is the handle returned by HabitService.Subscribe.
// It owns exactly one disposer; cancelling the context it was created with disposes it too.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newSubscription(parent context.Context) (*Subscription, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	return &Subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}, ctx
}

// Close stops the listener and waits until no further callback can run.
// It is safe to call more than once, but not from inside a callback.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed once the listener goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) finish() {
	s.cancel()
	close(s.done)
}

// SubscriptionGroup tracks live subscriptions so they can be disposed together at shutdown.
type SubscriptionGroup struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

func NewSubscriptionGroup() *SubscriptionGroup {
	return &SubscriptionGroup{subs: make(map[*Subscription]struct{})}
}

// Add registers sub. Finished subscriptions drop out on their own.
// Adding to a closed group disposes sub immediately.
func (g *SubscriptionGroup) Add(sub *Subscription) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		sub.Close()
		return
	}
	g.subs[sub] = struct{}{}
	g.mu.Unlock()

	go func() {
		<-sub.Done()
		g.mu.Lock()
		delete(g.subs, sub)
		g.mu.Unlock()
	}()
}

func (g *SubscriptionGroup) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}

// CloseAll disposes every tracked subscription and refuses new ones.
func (g *SubscriptionGroup) CloseAll() {
	g.mu.Lock()
	g.closed = true
	subs := make([]*Subscription, 0, len(g.subs))
	for sub := range g.subs {
		subs = append(subs, sub)
	}
	g.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}
