// Package latest implements "latest request wins" for async loads: a result
// may only be committed if no newer request for the same slot started and
// the slot was not closed in the meantime.
package latest

import "sync"

type Guard struct {
	mu     sync.Mutex
	seq    uint64
	gen    map[string]uint64
	closed bool
}

type Ticket struct {
	g   *Guard
	key string
	gen uint64
}

func New() *Guard { return &Guard{gen: make(map[string]uint64)} }

// Begin starts a request for slot and supersedes any earlier one.
// Generations are unique across slots, so a slot released by Done and begun
// again never revives an old ticket.
func (g *Guard) Begin(slot string) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.gen[slot] = g.seq
	return Ticket{g: g, key: slot, gen: g.seq}
}

// Close marks the owner as gone (unmounted); no ticket is current afterwards.
func (g *Guard) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

// Current reports whether the ticket's result may still be applied.
func (t Ticket) Current() bool {
	if t.g == nil {
		return false
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	return !t.g.closed && t.g.gen[t.key] == t.gen
}

// Done releases the slot if this ticket still owns it. Superseded tickets
// leave the slot to the newer request.
func (t Ticket) Done() {
	if t.g == nil {
		return
	}
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	if t.g.gen[t.key] == t.gen {
		delete(t.g.gen, t.key)
	}
}
