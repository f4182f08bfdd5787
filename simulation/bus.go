// Package simulation provides an in-process byzantine voting network
// used to exercise the windowed agreement core end to end: a shared
// gossip bus with bounded retention, replicas that loop
// vote -> broadcast -> insert -> tally, and a driver that delivers
// messages in random order from concurrent workers.
package simulation

import (
	"math/rand"
	"sync"
	"time"

	"github.com/slatewise/agreement/module/counters"
)

// retentionWindows bounds how far behind the newest observed vote a
// bus message may lag before it is dropped.
const retentionWindows = 4

// Message is one gossiped vote.
type Message struct {
	Object    uint16
	Time      time.Time
	Validator uint32
}

// Bus is the shared gossip medium. Every broadcast vote is retained
// until it falls more than retentionWindows behind the newest vote
// time observed; deliveries pick a retained message uniformly at
// random, so replicas see votes late, repeatedly, and out of order.
type Bus struct {
	window    time.Duration
	mu        sync.Mutex
	messages  []Message
	watermark *counters.StrictMonotonousCounter
}

func NewBus(window time.Duration) *Bus {
	return &Bus{
		window:    window,
		watermark: counters.NewMonotonousCounter(0),
	}
}

// Put broadcasts a vote.
func (b *Bus) Put(m Message) {
	b.watermark.Set(uint64(m.Time.UnixMilli()))
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, m)
	b.trim()
}

// Get returns a uniformly random retained message, false if the bus
// holds none.
func (b *Bus) Get(rng *rand.Rand) (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trim()
	if len(b.messages) == 0 {
		return Message{}, false
	}
	return b.messages[rng.Intn(len(b.messages))], true
}

// Len returns the number of retained messages.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

func (b *Bus) trim() {
	newest := time.UnixMilli(int64(b.watermark.Value()))
	cutoff := newest.Add(-retentionWindows * b.window)
	kept := b.messages[:0]
	for _, m := range b.messages {
		if !m.Time.Before(cutoff) {
			kept = append(kept, m)
		}
	}
	b.messages = kept
}
