package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ha1tch/qaflow/pkg/canvas"
	"github.com/ha1tch/qaflow/pkg/flow"
)

func seqIDs() flow.IDFunc {
	counts := map[string]int{}
	return func(kind string) string {
		counts[kind]++
		return fmt.Sprintf("%c%d", kind[0], counts[kind])
	}
}

func newTestSession(t *testing.T) *Session {
	return New(WithIDFunc(seqIDs()), WithLogger(zaptest.NewLogger(t)))
}

func TestNewSession(t *testing.T) {
	s := newTestSession(t)

	snap := s.Snapshot()
	require.Equal(t, 1, snap.Len())
	assert.Equal(t, flow.NodeID("n1"), snap.Nodes[0].ID)
	assert.Equal(t, flow.StateInactive, s.RunStatus().State)
	assert.Equal(t, canvas.DefaultMetrics(), s.Metrics())
	assert.Equal(t, canvas.Size{W: 1600, H: 1200}, s.Bounds())
}

func TestEditCommands(t *testing.T) {
	s := newTestSession(t)

	opt, target, err := s.AddOption("n1")
	require.NoError(t, err)
	assert.Equal(t, flow.OptionID("o1"), opt)
	assert.Equal(t, flow.NodeID("n2"), target)

	require.NoError(t, s.UpdateNodeText("n1", "Coffee or tea?"))
	require.NoError(t, s.UpdateOptionText("n1", opt, "Coffee"))

	n, ok := s.Node("n1")
	require.True(t, ok)
	assert.Equal(t, "Coffee or tea?", n.Text)
	assert.Equal(t, "Coffee", n.Options[0].Text)

	other, err := s.AddNode()
	require.NoError(t, err)
	ok, err = s.LinkOption("n1", opt, other)
	require.NoError(t, err)
	assert.True(t, ok)

	edges := s.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, other, edges[0].To)

	opt, target, err = s.AddOption("missing")
	require.NoError(t, err)
	assert.Empty(t, opt)
	assert.Empty(t, target)
}

func TestDeleteCommands(t *testing.T) {
	s := newTestSession(t)
	opt, target, err := s.AddOption("n1")
	require.NoError(t, err)

	del, err := s.DeleteOption("n1", opt)
	require.NoError(t, err)
	assert.Equal(t, []flow.NodeID{target}, del.Removed)
	assert.Equal(t, 1, s.Snapshot().Len())

	_, err = s.DeleteNode("n1")
	assert.ErrorIs(t, err, flow.ErrLastNode)
	assert.Equal(t, 1, s.Snapshot().Len())
}

func TestEditsRefusedWhilePresenting(t *testing.T) {
	s := newTestSession(t)
	opt, _, err := s.AddOption("n1")
	require.NoError(t, err)

	_, err = s.StartRun()
	require.NoError(t, err)

	_, err = s.AddNode()
	assert.ErrorIs(t, err, ErrPresenting)
	assert.ErrorIs(t, s.UpdateNodeText("n1", "x"), ErrPresenting)
	assert.ErrorIs(t, s.UpdateOptionText("n1", opt, "x"), ErrPresenting)
	_, _, err = s.AddOption("n1")
	assert.ErrorIs(t, err, ErrPresenting)
	_, err = s.LinkOption("n1", opt, "n1")
	assert.ErrorIs(t, err, ErrPresenting)
	_, err = s.DeleteOption("n1", opt)
	assert.ErrorIs(t, err, ErrPresenting)
	_, err = s.DeleteNode("n2")
	assert.ErrorIs(t, err, ErrPresenting)
	_, err = s.BeginDrag("n1", canvas.Point{})
	assert.ErrorIs(t, err, ErrPresenting)

	assert.Equal(t, 2, s.Snapshot().Len(), "nothing changed")

	s.ExitRun()
	_, err = s.AddNode()
	assert.NoError(t, err)
}

func TestRunCommands(t *testing.T) {
	s := newTestSession(t)
	opt, target, err := s.AddOption("n1")
	require.NoError(t, err)

	st, err := s.StartRun()
	require.NoError(t, err)
	assert.Equal(t, flow.Status{State: flow.StateActive, Node: "n1"}, st)

	st = s.SelectOption(opt)
	assert.Equal(t, flow.Status{State: flow.StateActive, Node: target, Leaf: true}, st)
	n, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, target, n.ID)

	st = s.RestartRun()
	assert.Equal(t, flow.NodeID("n1"), st.Node)

	s.ExitRun()
	assert.Equal(t, flow.StateInactive, s.RunStatus().State)
	_, ok = s.Current()
	assert.False(t, ok)
}

func TestView(t *testing.T) {
	s := newTestSession(t)

	v := s.View()
	assert.Equal(t, 1, v.Snapshot.Len())
	assert.NotNil(t, v.Edges)
	assert.Empty(t, v.Edges)
	assert.Equal(t, flow.StateInactive, v.Run.State)
	assert.Nil(t, v.Current)

	opt, target, err := s.AddOption("n1")
	require.NoError(t, err)
	_, err = s.StartRun()
	require.NoError(t, err)
	s.SelectOption(opt)

	v = s.View()
	require.Len(t, v.Edges, 1)
	assert.Equal(t, opt, v.Edges[0].Option)
	assert.Equal(t, flow.Status{State: flow.StateActive, Node: target, Leaf: true}, v.Run)
	require.NotNil(t, v.Current)
	assert.Equal(t, target, v.Current.ID)
}

func TestSelectForeignOption(t *testing.T) {
	s := newTestSession(t)
	opt, _, err := s.AddOption("n1")
	require.NoError(t, err)
	other, err := s.AddNode()
	require.NoError(t, err)

	_, err = s.StartRun(other)
	require.NoError(t, err)
	st := s.SelectOption(opt)
	assert.Equal(t, flow.Status{State: flow.StateActive, Node: other, Leaf: true}, st)
}

func TestStartRunUnknownEntry(t *testing.T) {
	s := newTestSession(t)

	_, err := s.StartRun("missing")
	assert.ErrorIs(t, err, flow.ErrNodeNotFound)
	assert.Equal(t, flow.StateInactive, s.RunStatus().State)
}

func TestDragCommands(t *testing.T) {
	s := New(WithIDFunc(seqIDs()), WithBounds(canvas.Size{W: 1000, H: 800}))

	ok, err := s.BeginDrag("n1", canvas.Point{X: 110, Y: 110})
	require.NoError(t, err)
	require.True(t, ok)

	d, ok := s.Dragging()
	require.True(t, ok)
	assert.Equal(t, canvas.Point{X: 10, Y: 10}, d.Offset)

	p, ok := s.MoveDrag(canvas.Point{X: 2000, Y: 20})
	require.True(t, ok)
	assert.Equal(t, canvas.Point{X: 744, Y: 10}, p)

	s.EndDrag()
	_, ok = s.Dragging()
	assert.False(t, ok)

	s.SetBounds(canvas.Size{W: 500, H: 500})
	assert.Equal(t, canvas.Size{W: 500, H: 500}, s.Bounds())
}

func TestStartRunDropsDrag(t *testing.T) {
	s := newTestSession(t)
	ok, err := s.BeginDrag("n1", canvas.Point{X: 100, Y: 100})
	require.NoError(t, err)
	require.True(t, ok)

	_, err = s.StartRun()
	require.NoError(t, err)
	_, ok = s.Dragging()
	assert.False(t, ok)
	_, ok = s.MoveDrag(canvas.Point{X: 300, Y: 300})
	assert.False(t, ok)
}

func TestConcurrentCommands(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				first := s.Snapshot().Nodes[0].ID
				_, target, err := s.AddOption(first)
				if err != nil {
					continue
				}
				s.BeginDrag(target, canvas.Point{X: 60, Y: 60})
				s.MoveDrag(canvas.Point{X: 400, Y: 400})
				s.EndDrag()
				s.DeleteNode(target)
				s.Edges()
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	require.GreaterOrEqual(t, snap.Len(), 1)
	for _, n := range snap.Nodes {
		for _, o := range n.Options {
			assert.True(t, snap.Has(o.Target), "option %s dangles", o.ID)
		}
	}
}
