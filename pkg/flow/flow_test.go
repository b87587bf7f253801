package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSnapshot() Snapshot {
	return Snapshot{Nodes: []Node{
		{ID: "a", Text: "Tea or coffee?", Options: []Option{
			{ID: "a1", Text: "Tea", Target: "b"},
			{ID: "a2", Text: "Coffee", Target: "gone"},
		}},
		{ID: "b", Text: "Milk?", Options: []Option{
			{ID: "b1", Text: "Back", Target: "a"},
		}},
		{ID: "c", Text: "Alone"},
	}}
}

func TestSnapshotLookups(t *testing.T) {
	s := testSnapshot()

	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has("b"))
	assert.False(t, s.Has("gone"))
	assert.Equal(t, []NodeID{"a", "b", "c"}, s.IDs())

	o, owner, ok := s.Option("b1")
	assert.True(t, ok)
	assert.Equal(t, NodeID("b"), owner)
	assert.Equal(t, NodeID("a"), o.Target)

	_, _, ok = s.Option("zz")
	assert.False(t, ok)

	first, ok := s.First()
	assert.True(t, ok)
	assert.Equal(t, NodeID("a"), first)
}

func TestSnapshotReachable(t *testing.T) {
	s := testSnapshot()

	assert.Equal(t, []NodeID{"a", "b"}, s.Reachable("a"))
	assert.Equal(t, []NodeID{"b", "a"}, s.Reachable("b"))
	assert.Equal(t, []NodeID{"c"}, s.Reachable("c"))
	assert.Nil(t, s.Reachable("gone"))
}

func TestNodeOptionAndLeaf(t *testing.T) {
	s := testSnapshot()
	a, _ := s.Node("a")

	o, i := a.Option("a2")
	assert.Equal(t, 1, i)
	assert.Equal(t, "Coffee", o.Text)
	_, i = a.Option("nope")
	assert.Equal(t, -1, i)

	c, _ := s.Node("c")
	assert.True(t, c.IsLeaf())
	assert.False(t, a.IsLeaf())
}

func TestSnapshotString(t *testing.T) {
	out := testSnapshot().String()

	assert.Contains(t, out, "Flow: 3 nodes")
	assert.Contains(t, out, `a1 "Tea" -> b`)
	assert.Contains(t, out, `a2 "Coffee" -x gone`)
}
