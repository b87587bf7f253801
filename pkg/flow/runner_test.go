package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerStartsAtFirstNode(t *testing.T) {
	s := newTestStore()
	ids := chain(t, s, 3)
	r := NewRunner(s, nil)

	assert.Equal(t, Status{State: StateInactive}, r.Status())
	require.NoError(t, r.Start())
	assert.Equal(t, Status{State: StateActive, Node: ids[0]}, r.Status())

	// same graph, same entry
	r.Exit()
	require.NoError(t, r.Start())
	assert.Equal(t, ids[0], r.Status().Node)
}

func TestRunnerStartExplicitEntry(t *testing.T) {
	s := newTestStore()
	ids := chain(t, s, 3)
	r := NewRunner(s, nil)

	require.NoError(t, r.Start(ids[1]))
	assert.Equal(t, ids[1], r.Status().Node)

	err := r.Start("missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestRunnerEmptyFlow(t *testing.T) {
	r := NewRunner(Snapshot{}, nil)

	err := r.Start()
	assert.ErrorIs(t, err, ErrEmptyFlow)
	assert.False(t, r.Running())
}

func TestRunnerSelectToLeaf(t *testing.T) {
	// N1{O1->N2}, N2{}: selecting O1 lands on N2, shown as the end of the
	// branch without any automatic transition.
	s := newTestStore()
	ids := chain(t, s, 2)
	n1, _ := s.Node(ids[0])
	r := NewRunner(s, nil)
	require.NoError(t, r.Start())

	st := r.Select(n1.Options[0].ID)
	assert.Equal(t, Status{State: StateActive, Node: ids[1], Leaf: true}, st)
	assert.Equal(t, st, r.Status())

	cur, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, ids[1], cur.ID)
}

func TestRunnerSelectDanglingTarget(t *testing.T) {
	snap := Snapshot{Nodes: []Node{
		{ID: "n1", Options: []Option{{ID: "o1", Target: "gone"}}},
	}}
	r := NewRunner(snap, nil)
	require.NoError(t, r.Start())

	st := r.Select("o1")
	assert.Equal(t, StateDeadEnd, st.State)
	assert.Empty(t, st.Node)
	_, ok := r.Current()
	assert.False(t, ok)

	// selecting in a dead end changes nothing
	assert.Equal(t, StateDeadEnd, r.Select("o1").State)
}

func TestRunnerSelectUnknownOption(t *testing.T) {
	s := newTestStore()
	ids := chain(t, s, 3)
	n2, _ := s.Node(ids[1])
	r := NewRunner(s, nil)
	require.NoError(t, r.Start())

	// an option of another node is not selectable here
	st := r.Select(n2.Options[0].ID)
	assert.Equal(t, Status{State: StateActive, Node: ids[0]}, st)
	st = r.Select("missing")
	assert.Equal(t, ids[0], st.Node)
}

func TestRunnerSelectWhileInactive(t *testing.T) {
	s := newTestStore()
	chain(t, s, 2)
	r := NewRunner(s, nil)

	assert.Equal(t, StateInactive, r.Select("o1").State)
}

func TestRunnerFollowsCycles(t *testing.T) {
	snap := Snapshot{Nodes: []Node{
		{ID: "a", Options: []Option{{ID: "ab", Target: "b"}}},
		{ID: "b", Options: []Option{{ID: "ba", Target: "a"}}},
	}}
	r := NewRunner(snap, nil)
	require.NoError(t, r.Start())

	for i := 0; i < 10; i++ {
		assert.Equal(t, NodeID("b"), r.Select("ab").Node)
		assert.Equal(t, NodeID("a"), r.Select("ba").Node)
	}
}

func TestRunnerCurrentNodeDeleted(t *testing.T) {
	s := newTestStore()
	ids := chain(t, s, 3)
	n1, _ := s.Node(ids[0])
	r := NewRunner(s, nil)
	require.NoError(t, r.Start())
	r.Select(n1.Options[0].ID)

	_, err := s.DeleteNode(ids[1])
	require.NoError(t, err)
	assert.Equal(t, StateDeadEnd, r.Status().State)
}

func TestRunnerRestartAndExit(t *testing.T) {
	s := newTestStore()
	ids := chain(t, s, 3)
	n1, _ := s.Node(ids[0])
	r := NewRunner(s, nil)

	assert.Equal(t, StateInactive, r.Restart().State)

	require.NoError(t, r.Start())
	r.Select(n1.Options[0].ID)
	assert.Equal(t, ids[0], r.Restart().Node)

	r.Exit()
	assert.Equal(t, Status{State: StateInactive}, r.Status())
	assert.False(t, r.Running())
}

func TestRunnerExitFromDeadEnd(t *testing.T) {
	snap := Snapshot{Nodes: []Node{
		{ID: "n1", Options: []Option{{ID: "o1", Target: "gone"}}},
	}}
	r := NewRunner(snap, nil)
	require.NoError(t, r.Start())
	r.Select("o1")
	require.True(t, r.Running())

	r.Exit()
	assert.Equal(t, StateInactive, r.Status().State)
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateInactive, "inactive"},
		{StateActive, "active"},
		{StateDeadEnd, "dead-end"},
		{State(9), "State(9)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}
