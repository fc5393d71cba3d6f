package topology

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/netgen/pkg/models"
	"github.com/GoSim-25-26J-441/netgen/pkg/utils"
	"gonum.org/v1/gonum/graph/path"
)

var (
	// ErrUnreachable is returned when no path connects two nodes
	ErrUnreachable = errors.New("destination unreachable")
	// ErrUnknownNode is returned when a node ID does not exist in the topology
	ErrUnknownNode = errors.New("unknown node")
	// ErrTierAdjacency is returned when a link skips or repeats a tier
	ErrTierAdjacency = errors.New("link violates tier adjacency")
)

// Topology is the node/link graph of one scenario. It is immutable once built;
// only the shortest-path tree cache mutates, under a lock.
type Topology struct {
	nodes []*models.Node
	links []*models.Link
	tiers map[models.Tier][]int64
	adj   map[int64][]adjacency // sorted by neighbor ID
	pairs map[[2]int64]int      // unordered endpoint pair -> link ID

	mu    sync.Mutex
	trees map[int64]path.Shortest
}

type adjacency struct {
	neighbor int64
	linkID   int
}

// New creates an empty topology
func New() *Topology {
	return &Topology{
		tiers: make(map[models.Tier][]int64),
		adj:   make(map[int64][]adjacency),
		pairs: make(map[[2]int64]int),
		trees: make(map[int64]path.Shortest),
	}
}

// AddNode appends a node to a tier and returns it. IDs are dense and follow
// creation order.
func (t *Topology) AddNode(tier models.Tier, uplinkBps float64) *models.Node {
	n := &models.Node{
		ID:                 int64(len(t.nodes)),
		Name:               utils.NodeName(string(tier), len(t.tiers[tier])),
		Tier:               tier,
		TierIndex:          len(t.tiers[tier]),
		UplinkBandwidthBps: uplinkBps,
		Parent:             -1,
	}
	t.nodes = append(t.nodes, n)
	t.tiers[tier] = append(t.tiers[tier], n.ID)
	return n
}

// SetParent records the primary uplink neighbor of a node
func (t *Topology) SetParent(child, parent int64) error {
	c := t.Node(child)
	if c == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, child)
	}
	if t.Node(parent) == nil {
		return fmt.Errorf("%w: %d", ErrUnknownNode, parent)
	}
	c.Parent = parent
	return nil
}

// LinkSpec describes the physical attributes of a link to add
type LinkSpec struct {
	Medium           models.Medium
	BandwidthBps     float64
	PropagationDelay time.Duration
	QueueCapacity    int
	SharedMedium     int64
}

// AddLink connects two nodes. From must be the lower-tier endpoint.
// Adding a link between an already connected pair returns the existing link.
func (t *Topology) AddLink(from, to int64, spec LinkSpec) (*models.Link, error) {
	if t.Node(from) == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, from)
	}
	if t.Node(to) == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, to)
	}
	key := pairKey(from, to)
	if id, ok := t.pairs[key]; ok {
		return t.links[id], nil
	}

	l := &models.Link{
		ID:               len(t.links),
		From:             from,
		To:               to,
		Medium:           spec.Medium,
		BandwidthBps:     spec.BandwidthBps,
		PropagationDelay: spec.PropagationDelay,
		QueueCapacity:    spec.QueueCapacity,
		Discipline:       models.QueueDisciplineFIFO,
		SharedMedium:     spec.SharedMedium,
	}
	t.links = append(t.links, l)
	t.pairs[key] = l.ID
	t.addAdjacency(from, to, l.ID)
	t.addAdjacency(to, from, l.ID)
	return l, nil
}

func (t *Topology) addAdjacency(from, to int64, linkID int) {
	list := append(t.adj[from], adjacency{neighbor: to, linkID: linkID})
	sort.Slice(list, func(i, j int) bool { return list[i].neighbor < list[j].neighbor })
	t.adj[from] = list
}

func pairKey(a, b int64) [2]int64 {
	if a > b {
		a, b = b, a
	}
	return [2]int64{a, b}
}

// Node returns the node with the given ID, or nil
func (t *Topology) Node(id int64) *models.Node {
	if id < 0 || id >= int64(len(t.nodes)) {
		return nil
	}
	return t.nodes[id]
}

// Nodes returns every node in ID order
func (t *Topology) Nodes() []*models.Node {
	return t.nodes
}

// Links returns every link in ID order
func (t *Topology) Links() []*models.Link {
	return t.links
}

// Link returns the link with the given ID, or nil
func (t *Topology) Link(id int) *models.Link {
	if id < 0 || id >= len(t.links) {
		return nil
	}
	return t.links[id]
}

// LinkBetween returns the link joining two nodes, or nil
func (t *Topology) LinkBetween(a, b int64) *models.Link {
	id, ok := t.pairs[pairKey(a, b)]
	if !ok {
		return nil
	}
	return t.links[id]
}

// NodesInTier returns the nodes of a tier in tier-index order
func (t *Topology) NodesInTier(tier models.Tier) []*models.Node {
	ids := t.tiers[tier]
	out := make([]*models.Node, len(ids))
	for i, id := range ids {
		out[i] = t.nodes[id]
	}
	return out
}

// PresentTiers returns the tiers that hold at least one node, bottom-up
func (t *Topology) PresentTiers() []models.Tier {
	out := make([]models.Tier, 0, len(models.Tiers))
	for _, tier := range models.Tiers {
		if len(t.tiers[tier]) > 0 {
			out = append(out, tier)
		}
	}
	return out
}

// Ancestor follows primary parents from id up to the given tier. A node is its
// own ancestor in its own tier.
func (t *Topology) Ancestor(id int64, tier models.Tier) (int64, error) {
	n := t.Node(id)
	if n == nil {
		return -1, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	for n.Tier != tier {
		if n.Parent < 0 || n.Tier.Level() > tier.Level() {
			return -1, fmt.Errorf("%w: %s has no ancestor in tier %s", ErrUnreachable, n.Name, tier)
		}
		n = t.nodes[n.Parent]
	}
	return n.ID, nil
}

// Path returns the hops of a minimum-hop path from one node to another.
// A node reaches itself through an empty path.
func (t *Topology) Path(from, to int64) ([]models.Hop, error) {
	if t.Node(from) == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, from)
	}
	if t.Node(to) == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, to)
	}
	if from == to {
		return []models.Hop{}, nil
	}

	nodes, _ := t.shortestFrom(from).To(to)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no path from %s to %s", ErrUnreachable, t.nodes[from].Name, t.nodes[to].Name)
	}

	hops := make([]models.Hop, 0, len(nodes)-1)
	for i := 1; i < len(nodes); i++ {
		a, b := nodes[i-1].ID(), nodes[i].ID()
		l := t.LinkBetween(a, b)
		if l == nil {
			return nil, fmt.Errorf("%w: no link between %s and %s", ErrUnreachable, t.nodes[a].Name, t.nodes[b].Name)
		}
		hops = append(hops, models.Hop{LinkID: l.ID, From: a, To: b})
	}
	return hops, nil
}

// shortestFrom returns the cached shortest-path tree rooted at a source
func (t *Topology) shortestFrom(src int64) path.Shortest {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sp, ok := t.trees[src]; ok {
		return sp
	}
	sp := path.DijkstraFrom(t.nodeAt(src), graphView{t})
	t.trees[src] = sp
	return sp
}

// Validate checks that every link joins a node to one in the next present tier
// above it, and that every non-top node has a linked primary parent.
func (t *Topology) Validate() error {
	present := t.PresentTiers()
	next := make(map[models.Tier]models.Tier, len(present))
	for i := 0; i+1 < len(present); i++ {
		next[present[i]] = present[i+1]
	}

	for _, l := range t.links {
		lo, hi := t.nodes[l.From], t.nodes[l.To]
		if up, ok := next[lo.Tier]; !ok || up != hi.Tier {
			return fmt.Errorf("%w: link %d joins %s and %s", ErrTierAdjacency, l.ID, lo.Name, hi.Name)
		}
	}

	top := present[len(present)-1]
	for _, n := range t.nodes {
		if n.Tier == top {
			continue
		}
		if n.Parent < 0 || t.LinkBetween(n.ID, n.Parent) == nil {
			return fmt.Errorf("%w: %s has no linked parent", ErrTierAdjacency, n.Name)
		}
	}
	return nil
}
