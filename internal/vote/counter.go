// Package vote reconciles per-window label predictions into one decision
// per word and punctuation gap.
package vote

// Counter tallies votes for labels and remembers the order in which each
// label received its first vote.
type Counter[K comparable] struct {
	counts map[K]int
	order  []K
}

// Add casts one vote for label.
func (c *Counter[K]) Add(label K) {
	if c.counts == nil {
		c.counts = make(map[K]int)
	}
	if _, seen := c.counts[label]; !seen {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

// Count returns the votes cast for label.
func (c *Counter[K]) Count(label K) int {
	return c.counts[label]
}

// Total returns the number of votes cast.
func (c *Counter[K]) Total() int {
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Labels returns the labels that received votes, in first-vote order.
func (c *Counter[K]) Labels() []K {
	out := make([]K, len(c.order))
	copy(out, c.order)
	return out
}

// Winner returns the label with the most votes. Ties go to preferred when it
// is among the tied labels, otherwise to the tied label voted for first.
// An empty counter yields preferred.
func (c *Counter[K]) Winner(preferred K) K {
	var (
		best      K
		bestCount int
	)
	for _, label := range c.order {
		if n := c.counts[label]; n > bestCount {
			best, bestCount = label, n
		}
	}
	if bestCount == 0 || c.counts[preferred] == bestCount {
		return preferred
	}
	return best
}
