package topology

import (
	"errors"
	"testing"

	"github.com/GoSim-25-26J-441/netgen/pkg/config"
	"github.com/GoSim-25-26J-441/netgen/pkg/models"
	"github.com/stretchr/testify/require"
)

func sizes(leaf, access, agg, core, cloud int) models.ScenarioParams {
	return models.ScenarioParams{Sizes: map[models.Tier]int{
		models.TierLeaf:        leaf,
		models.TierAccess:      access,
		models.TierAggregation: agg,
		models.TierCore:        core,
		models.TierCloud:       cloud,
	}}
}

func build(t *testing.T, p models.ScenarioParams) *Topology {
	t.Helper()
	topo, err := NewBuilder(config.DefaultConfig().Topology).Build(p)
	require.NoError(t, err)
	return topo
}

func requireContiguous(t *testing.T, topo *Topology, from, to int64, hops []models.Hop) {
	t.Helper()
	require.NotEmpty(t, hops)
	require.Equal(t, from, hops[0].From)
	require.Equal(t, to, hops[len(hops)-1].To)
	for i, h := range hops {
		l := topo.Link(h.LinkID)
		require.NotNil(t, l)
		require.ElementsMatch(t, []int64{l.From, l.To}, []int64{h.From, h.To})
		if i > 0 {
			require.Equal(t, hops[i-1].To, h.From)
		}
	}
}

func TestBuildFullHierarchy(t *testing.T) {
	topo := build(t, sizes(12, 3, 2, 2, 1))

	require.Len(t, topo.Nodes(), 20)
	// 12 wireless + 3 round-robin + 4 mesh + 2 mesh
	require.Len(t, topo.Links(), 21)
	require.NoError(t, topo.Validate())

	wireless := 0
	for _, l := range topo.Links() {
		if l.Medium == models.MediumWireless {
			wireless++
			require.Equal(t, models.TierAccess, topo.Node(l.SharedMedium).Tier)
			require.Equal(t, l.To, l.SharedMedium)
		} else {
			require.Equal(t, int64(-1), l.SharedMedium)
			require.Equal(t, 10e9, l.BandwidthBps)
		}
		require.Equal(t, models.QueueDisciplineFIFO, l.Discipline)
	}
	require.Equal(t, 12, wireless)

	leaves := topo.NodesInTier(models.TierLeaf)
	access := topo.NodesInTier(models.TierAccess)
	for i, leaf := range leaves {
		require.Equal(t, access[i%3].ID, leaf.Parent)
		require.NotNil(t, topo.LinkBetween(leaf.ID, access[i%3].ID))
	}
	require.Equal(t, "leaf-0", leaves[0].Name)
	require.Equal(t, "access-2", access[2].Name)
}

func TestBuildEveryUpperNodeLinked(t *testing.T) {
	// more aggregation nodes than access nodes
	topo := build(t, sizes(4, 2, 3, 2, 1))

	for _, agg := range topo.NodesInTier(models.TierAggregation) {
		linked := false
		for _, a := range topo.NodesInTier(models.TierAccess) {
			if topo.LinkBetween(a.ID, agg.ID) != nil {
				linked = true
			}
		}
		require.True(t, linked, "%s has no access link", agg.Name)
	}
}

func TestBuildWithoutAggregationAndCore(t *testing.T) {
	topo := build(t, sizes(6, 2, 0, 0, 1))

	require.Equal(t, []models.Tier{models.TierLeaf, models.TierAccess, models.TierCloud}, topo.PresentTiers())
	require.Len(t, topo.Links(), 6+2)

	cloud := topo.NodesInTier(models.TierCloud)[0]
	for _, leaf := range topo.NodesInTier(models.TierLeaf) {
		hops, err := topo.Path(leaf.ID, cloud.ID)
		require.NoError(t, err)
		require.Len(t, hops, 2)
		requireContiguous(t, topo, leaf.ID, cloud.ID, hops)
	}
}

func TestBuildRejectsMissingRequiredTier(t *testing.T) {
	_, err := NewBuilder(config.DefaultConfig().Topology).Build(sizes(6, 0, 0, 0, 1))
	require.Error(t, err)
	require.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestPathLeafToCloud(t *testing.T) {
	topo := build(t, sizes(12, 3, 2, 2, 1))
	cloud := topo.NodesInTier(models.TierCloud)[0]

	for _, leaf := range topo.NodesInTier(models.TierLeaf) {
		hops, err := topo.Path(leaf.ID, cloud.ID)
		require.NoError(t, err)
		require.Len(t, hops, 4)
		requireContiguous(t, topo, leaf.ID, cloud.ID, hops)
		require.Equal(t, leaf.Parent, hops[0].To)
	}
}

func TestPathDeterministic(t *testing.T) {
	a := build(t, sizes(30, 4, 3, 2, 1))
	b := build(t, sizes(30, 4, 3, 2, 1))
	cloud := a.NodesInTier(models.TierCloud)[0].ID

	for _, leaf := range a.NodesInTier(models.TierLeaf) {
		pa, err := a.Path(leaf.ID, cloud)
		require.NoError(t, err)
		pb, err := b.Path(leaf.ID, cloud)
		require.NoError(t, err)
		require.Equal(t, pa, pb)

		// cached tree gives the same answer
		again, err := a.Path(leaf.ID, cloud)
		require.NoError(t, err)
		require.Equal(t, pa, again)
	}
}

func TestPathReverseDirection(t *testing.T) {
	topo := build(t, sizes(6, 2, 2, 2, 1))
	agg := topo.NodesInTier(models.TierAggregation)[1]
	cloud := topo.NodesInTier(models.TierCloud)[0]

	hops, err := topo.Path(cloud.ID, agg.ID)
	require.NoError(t, err)
	require.Len(t, hops, 2)
	requireContiguous(t, topo, cloud.ID, agg.ID, hops)
}

func TestPathZeroHop(t *testing.T) {
	topo := build(t, sizes(3, 1, 0, 0, 1))
	hops, err := topo.Path(0, 0)
	require.NoError(t, err)
	require.Empty(t, hops)
}

func TestPathUnreachable(t *testing.T) {
	topo := New()
	a := topo.AddNode(models.TierLeaf, 1e6)
	b := topo.AddNode(models.TierAccess, 1e9)
	c := topo.AddNode(models.TierCloud, 0)
	_, err := topo.AddLink(a.ID, b.ID, LinkSpec{Medium: models.MediumWireless, BandwidthBps: 1e6, QueueCapacity: 10, SharedMedium: b.ID})
	require.NoError(t, err)

	_, err = topo.Path(a.ID, c.ID)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnreachable))

	_, err = topo.Path(a.ID, 99)
	require.True(t, errors.Is(err, ErrUnknownNode))
}

func TestAddLinkDeduplicates(t *testing.T) {
	topo := New()
	a := topo.AddNode(models.TierAccess, 1e9)
	b := topo.AddNode(models.TierCloud, 0)

	l1, err := topo.AddLink(a.ID, b.ID, LinkSpec{Medium: models.MediumWired, BandwidthBps: 1e9, QueueCapacity: 1, SharedMedium: -1})
	require.NoError(t, err)
	l2, err := topo.AddLink(a.ID, b.ID, LinkSpec{Medium: models.MediumWired, BandwidthBps: 1e9, QueueCapacity: 1, SharedMedium: -1})
	require.NoError(t, err)
	require.Equal(t, l1.ID, l2.ID)
	require.Len(t, topo.Links(), 1)
}

func TestAncestor(t *testing.T) {
	topo := build(t, sizes(12, 3, 2, 2, 1))
	leaves := topo.NodesInTier(models.TierLeaf)
	access := topo.NodesInTier(models.TierAccess)
	aggs := topo.NodesInTier(models.TierAggregation)
	cores := topo.NodesInTier(models.TierCore)
	cloud := topo.NodesInTier(models.TierCloud)[0]

	id, err := topo.Ancestor(leaves[4].ID, models.TierLeaf)
	require.NoError(t, err)
	require.Equal(t, leaves[4].ID, id)

	id, err = topo.Ancestor(leaves[4].ID, models.TierAccess)
	require.NoError(t, err)
	require.Equal(t, access[1].ID, id)

	id, err = topo.Ancestor(leaves[4].ID, models.TierAggregation)
	require.NoError(t, err)
	require.Equal(t, aggs[1].ID, id)

	id, err = topo.Ancestor(leaves[4].ID, models.TierCore)
	require.NoError(t, err)
	require.Equal(t, cores[1].ID, id)

	id, err = topo.Ancestor(leaves[4].ID, models.TierCloud)
	require.NoError(t, err)
	require.Equal(t, cloud.ID, id)

	_, err = topo.Ancestor(cloud.ID, models.TierLeaf)
	require.True(t, errors.Is(err, ErrUnreachable))
}

func TestValidateRejectsTierSkip(t *testing.T) {
	topo := New()
	leaf := topo.AddNode(models.TierLeaf, 1e6)
	ap := topo.AddNode(models.TierAccess, 1e9)
	cloud := topo.AddNode(models.TierCloud, 0)
	spec := LinkSpec{Medium: models.MediumWired, BandwidthBps: 1e9, QueueCapacity: 1, SharedMedium: -1}

	_, err := topo.AddLink(leaf.ID, ap.ID, spec)
	require.NoError(t, err)
	_, err = topo.AddLink(ap.ID, cloud.ID, spec)
	require.NoError(t, err)
	require.NoError(t, topo.SetParent(leaf.ID, ap.ID))
	require.NoError(t, topo.SetParent(ap.ID, cloud.ID))
	require.NoError(t, topo.Validate())

	_, err = topo.AddLink(leaf.ID, cloud.ID, spec)
	require.NoError(t, err)
	err = topo.Validate()
	require.True(t, errors.Is(err, ErrTierAdjacency))
}
