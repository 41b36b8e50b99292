// Package describe names junction branches after the first named segment they lead to.
package describe

import (
	"sync"

	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/aretw0/lookahead/pkg/ports"
)

// Describer finds display names for branches. Results are memoized until Reset.
type Describer struct {
	network ports.Network

	mu   sync.Mutex
	memo map[domain.BranchKey]result
}

type result struct {
	id    domain.SegmentID
	found bool
}

// New creates a Describer over network.
func New(network ports.Network) *Describer {
	return &Describer{
		network: network,
		memo:    make(map[domain.BranchKey]result),
	}
}

// Describe searches breadth-first beyond b, away from the junction it hangs from, for the
// closest segment with a real name. The segment of b itself is not a candidate. The search ignores junction selection and visits each
// segment once, so loops terminate. The bool is false when no named segment is reachable.
func (d *Describer) Describe(b domain.Branch) (domain.SegmentID, bool) {
	if !b.Valid() {
		return "", false
	}
	key := b.Key()

	d.mu.Lock()
	if r, ok := d.memo[key]; ok {
		d.mu.Unlock()
		return r.id, r.found
	}
	d.mu.Unlock()

	r := d.search(b)

	d.mu.Lock()
	d.memo[key] = r
	d.mu.Unlock()
	return r.id, r.found
}

func (d *Describer) search(start domain.Branch) result {
	visited := make(map[domain.SegmentID]bool)
	queue := d.network.NextBranches(start)

	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]

		id := b.Segment.ID
		if !d.network.IsGeneric(id) {
			return result{id: id, found: true}
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		queue = append(queue, d.network.NextBranches(b)...)
	}
	return result{}
}

// Reset drops every memoized description.
func (d *Describer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.memo = make(map[domain.BranchKey]result)
}

// DescribeJunction describes both out branches of j, reading the selection through state.
func (d *Describer) DescribeJunction(j *domain.Junction, state ports.JunctionState) domain.JunctionDescription {
	if j == nil {
		return domain.JunctionDescription{}
	}
	desc := domain.JunctionDescription{Junction: j.ID, Selected: state.SelectedBranch(j)}
	desc.Left, desc.LeftKnown = d.Describe(j.Out[0])
	desc.Right, desc.RightKnown = d.Describe(j.Out[1])
	return desc
}
