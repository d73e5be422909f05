package latest

// Slots reports how many slots are held.
func (g *Guard) Slots() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.gen)
}
