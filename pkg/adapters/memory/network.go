package memory

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/lookahead/pkg/domain"
)

// DefaultSignRadius is how far a sign may sit from a ray and still be hit.
const DefaultSignRadius = 3.0

const rayEpsilon = 1e-6

// Sign is a label placed in world space.
// Facing is the direction its readable side points to.
type Sign struct {
	Label    string      `json:"label"`
	Position domain.Vec3 `json:"position"`
	Facing   domain.Vec3 `json:"facing"`
}

// attachment records what a segment end is connected to: a junction or a plain link.
type attachment struct {
	junction *domain.Junction
	link     domain.Branch
}

// Network is an in-memory rail graph.
// It implements ports.Network, ports.JunctionState, ports.Inspector and ports.SpatialQuery.
// Junction selection is mutable through Select and Throw; everything else is fixed after loading.
type Network struct {
	mu sync.RWMutex

	segments  map[domain.SegmentID]*domain.Segment
	order     []domain.SegmentID
	junctions map[string]*domain.Junction
	jorder    []string
	selected  map[string]int
	ends      map[domain.BranchKey]attachment
	links     []domain.Link
	signs     []Sign

	signRadius float64
	generic    func(domain.SegmentID) bool
}

// NewNetwork creates an empty network.
func NewNetwork() *Network {
	return &Network{
		segments:   make(map[domain.SegmentID]*domain.Segment),
		junctions:  make(map[string]*domain.Junction),
		selected:   make(map[string]int),
		ends:       make(map[domain.BranchKey]attachment),
		signRadius: DefaultSignRadius,
		generic:    DefaultGeneric,
	}
}

// DefaultGeneric treats empty IDs and IDs starting with '#' as placeholder names.
func DefaultGeneric(id domain.SegmentID) bool {
	return id == "" || strings.HasPrefix(string(id), "#")
}

// SetGeneric replaces the placeholder-name predicate.
func (n *Network) SetGeneric(fn func(domain.SegmentID) bool) {
	if fn == nil {
		fn = DefaultGeneric
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.generic = fn
}

// SetSignRadius changes how close to a ray a sign must be.
func (n *Network) SetSignRadius(r float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signRadius = r
}

// AddSegment registers a segment.
func (n *Network) AddSegment(seg *domain.Segment) error {
	if seg == nil {
		return fmt.Errorf("nil segment")
	}
	if seg.Length < 0 || math.IsNaN(seg.Length) {
		return fmt.Errorf("segment %s has invalid length %v", seg.ID, seg.Length)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.segments[seg.ID]; exists {
		return fmt.Errorf("segment %s already registered", seg.ID)
	}
	n.segments[seg.ID] = seg
	n.order = append(n.order, seg.ID)
	return nil
}

// AddJunction registers a junction and attaches it to its three segment ends.
// The junction starts with branch 0 selected.
func (n *Network) AddJunction(j *domain.Junction) error {
	if j == nil {
		return fmt.Errorf("nil junction")
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, exists := n.junctions[j.ID]; exists {
		return fmt.Errorf("junction %s already registered", j.ID)
	}
	for _, b := range []domain.Branch{j.In, j.Out[0], j.Out[1]} {
		if !b.Valid() {
			continue
		}
		if _, ok := n.segments[b.Segment.ID]; !ok {
			return fmt.Errorf("junction %s: %s: %w", j.ID, b.Segment.ID, domain.ErrUnknownSegment)
		}
	}

	n.junctions[j.ID] = j
	n.jorder = append(n.jorder, j.ID)
	n.selected[j.ID] = 0
	for _, b := range []domain.Branch{j.In, j.Out[0], j.Out[1]} {
		if b.Valid() {
			n.ends[b.Key()] = attachment{junction: j}
		}
	}
	return nil
}

// Connect links two segment ends directly.
func (n *Network) Connect(a, b domain.Branch) error {
	if !a.Valid() || !b.Valid() {
		return fmt.Errorf("connect %s to %s: both ends need a segment", a, b)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, br := range []domain.Branch{a, b} {
		if _, ok := n.segments[br.Segment.ID]; !ok {
			return fmt.Errorf("connect %s: %w", br, domain.ErrUnknownSegment)
		}
	}
	n.ends[a.Key()] = attachment{link: b}
	n.ends[b.Key()] = attachment{link: a}
	n.links = append(n.links, domain.Link{From: a, To: b})
	return nil
}

// AddSign places a label in world space.
func (n *Network) AddSign(s Sign) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signs = append(n.signs, s)
}

// Select routes a junction to branch 0 or 1.
func (n *Network) Select(junctionID string, branch int) error {
	if branch != 0 && branch != 1 {
		return fmt.Errorf("junction %s: branch must be 0 or 1, got %d", junctionID, branch)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.junctions[junctionID]; !ok {
		return fmt.Errorf("%s: %w", junctionID, domain.ErrUnknownJunction)
	}
	n.selected[junctionID] = branch
	return nil
}

// Throw flips the selection of a junction.
func (n *Network) Throw(junctionID string) error {
	n.mu.RLock()
	current, ok := n.selected[junctionID]
	n.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w", junctionID, domain.ErrUnknownJunction)
	}
	return n.Select(junctionID, 1-current)
}

// SelectedBranch implements ports.JunctionState.
func (n *Network) SelectedBranch(j *domain.Junction) int {
	if j == nil {
		return 0
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.selected[j.ID]
}

// Segment looks up a segment by ID.
func (n *Network) Segment(id domain.SegmentID) (*domain.Segment, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	seg, ok := n.segments[id]
	return seg, ok
}

// Junction looks up a junction by ID.
func (n *Network) Junction(id string) (*domain.Junction, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	j, ok := n.junctions[id]
	return j, ok
}

// InBranch returns where a traveller leaving seg through its first end ends up.
func (n *Network) InBranch(seg *domain.Segment) (domain.Branch, bool) {
	return n.leave(seg, true)
}

// OutBranch returns where a traveller leaving seg through its last end ends up.
func (n *Network) OutBranch(seg *domain.Segment) (domain.Branch, bool) {
	return n.leave(seg, false)
}

func (n *Network) leave(seg *domain.Segment, first bool) (domain.Branch, bool) {
	if seg == nil {
		return domain.Branch{}, false
	}
	key := domain.BranchKey{Segment: seg.ID, First: first}

	n.mu.RLock()
	defer n.mu.RUnlock()
	att, ok := n.ends[key]
	if !ok {
		return domain.Branch{}, false
	}
	if j := att.junction; j != nil {
		if j.In.Key() == key {
			b := j.Out[n.selected[j.ID]]
			return b, b.Valid()
		}
		return j.In, j.In.Valid()
	}
	return att.link, att.link.Valid()
}

// InJunction returns the junction at the first end of seg.
func (n *Network) InJunction(seg *domain.Segment) *domain.Junction {
	return n.junctionAt(seg, true)
}

// OutJunction returns the junction at the last end of seg.
func (n *Network) OutJunction(seg *domain.Segment) *domain.Junction {
	return n.junctionAt(seg, false)
}

func (n *Network) junctionAt(seg *domain.Segment, first bool) *domain.Junction {
	if seg == nil {
		return nil
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.ends[domain.BranchKey{Segment: seg.ID, First: first}].junction
}

// NextBranches lists every branch reachable by entering through b and leaving through the
// opposite end, whatever the junction selection.
func (n *Network) NextBranches(b domain.Branch) []domain.Branch {
	if !b.Valid() {
		return nil
	}
	key := domain.BranchKey{Segment: b.Segment.ID, First: !b.First}

	n.mu.RLock()
	defer n.mu.RUnlock()
	att, ok := n.ends[key]
	if !ok {
		return nil
	}
	var candidates []domain.Branch
	if j := att.junction; j != nil {
		if j.In.Key() == key {
			candidates = []domain.Branch{j.Out[0], j.Out[1]}
		} else {
			candidates = []domain.Branch{j.In}
		}
	} else {
		candidates = []domain.Branch{att.link}
	}
	return slices.DeleteFunc(candidates, func(c domain.Branch) bool { return !c.Valid() })
}

// IsGeneric reports whether id is a placeholder name.
func (n *Network) IsGeneric(id domain.SegmentID) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.generic(id)
}

// Segments returns every segment in registration order.
func (n *Network) Segments() []*domain.Segment {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*domain.Segment, 0, len(n.order))
	for _, id := range n.order {
		out = append(out, n.segments[id])
	}
	return out
}

// Junctions returns every junction in registration order.
func (n *Network) Junctions() []*domain.Junction {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*domain.Junction, 0, len(n.jorder))
	for _, id := range n.jorder {
		out = append(out, n.junctions[id])
	}
	return out
}

// Links returns every direct connection.
func (n *Network) Links() []domain.Link {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.links)
}

// Signs returns every placed sign.
func (n *Network) Signs() []Sign {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.signs)
}

// FindLabels implements ports.SpatialQuery with a brute-force scan of the placed signs.
// A sign is hit when its projection on the ray falls within [0, maxDistance) and it sits
// within the sign radius of the ray.
func (n *Network) FindLabels(origin, direction domain.Vec3, maxDistance float64) []domain.LabelHit {
	dir := direction.Normalize()
	if dir.Len() == 0 || maxDistance <= 0 {
		return nil
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	var hits []domain.LabelHit
	for _, s := range n.signs {
		rel := s.Position.Sub(origin)
		t := rel.Dot(dir)
		if t < -rayEpsilon || t >= maxDistance-rayEpsilon {
			continue
		}
		if rel.Sub(dir.Scale(t)).Len() > n.signRadius {
			continue
		}
		hits = append(hits, domain.LabelHit{
			Label:     s.Label,
			Distance:  math.Max(t, 0),
			FacingDot: s.Facing.Normalize().Dot(dir),
		})
	}
	slices.SortStableFunc(hits, func(a, b domain.LabelHit) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})
	return hits
}

// Replace swaps in the whole content of src, as a geometry reload does. Junctions present in
// both networks keep their live selection. src must not be used afterwards.
func (n *Network) Replace(src *Network) {
	if src == n {
		return
	}
	src.mu.RLock()
	defer src.mu.RUnlock()
	n.mu.Lock()
	defer n.mu.Unlock()

	selected := src.selected
	for id, branch := range n.selected {
		if _, ok := src.junctions[id]; ok {
			selected[id] = branch
		}
	}

	n.segments = src.segments
	n.order = src.order
	n.junctions = src.junctions
	n.jorder = src.jorder
	n.selected = selected
	n.ends = src.ends
	n.links = src.links
	n.signs = src.signs
	n.signRadius = src.signRadius
	n.generic = src.generic
}
