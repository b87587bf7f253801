package flow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// FuzzOperations replays arbitrary byte strings as store and runner
// commands. Looking for panics, hangs on cycles and broken invariants.
// Run with: go test -fuzz=FuzzOperations -fuzztime=30s ./pkg/flow/
func FuzzOperations(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{1, 0, 1, 0, 4, 0})
	f.Add([]byte{1, 0, 3, 0, 0, 0, 4, 1})     // self-loop, then delete
	f.Add([]byte{1, 0, 1, 1, 3, 1, 0, 0, 6, 0}) // cycle, then run
	f.Add([]byte{5, 0, 0, 5, 0, 0, 5, 0, 0})
	f.Add([]byte{0, 0, 0, 0, 1, 2, 4, 3, 7, 7, 7})
	f.Add([]byte{1, 0, 0, 4, 0, 0}) // root cascade covering every node

	f.Fuzz(func(t *testing.T, data []byte) {
		s := NewStore(WithIDFunc(seqIDs()))
		r := NewRunner(s, nil)

		at := func(i int) int {
			if i < len(data) {
				return int(data[i])
			}
			return 0
		}

		for i := 0; i < len(data); i += 3 {
			snap := s.Snapshot()
			node := snap.Nodes[at(i+1)%snap.Len()]
			var opt Option
			if len(node.Options) > 0 {
				opt = node.Options[at(i+2)%len(node.Options)]
			}

			switch at(i) % 8 {
			case 0:
				s.AddNode()
			case 1:
				s.AddOption(node.ID)
			case 2:
				s.UpdateNodeText(node.ID, string(data[i:]))
			case 3:
				s.LinkOption(node.ID, opt.ID, snap.Nodes[at(i+2)%snap.Len()].ID)
			case 4:
				want := map[NodeID]bool{}
				reach(snap, node.ID, want)
				_, err := s.DeleteNode(node.ID)
				if len(want) == snap.Len() {
					require.ErrorIs(t, err, ErrLastNode)
				} else {
					require.NoError(t, err)
				}
			case 5:
				_, err := s.DeleteOption(node.ID, opt.ID)
				if err != nil {
					require.ErrorIs(t, err, ErrLastNode)
				}
			case 6:
				require.NoError(t, r.Start())
			case 7:
				if cur, ok := r.Current(); ok && len(cur.Options) > 0 {
					r.Select(cur.Options[at(i+1)%len(cur.Options)].ID)
				}
			}

			after := s.Snapshot()
			checkInvariants(t, after)
			for _, n := range after.Nodes {
				for _, o := range n.Options {
					// only LinkOption and AddOption write targets, and both
					// name existing nodes; deletes prune the rest
					require.True(t, after.Has(o.Target), "option %s dangles", o.ID)
				}
			}
			if st := r.Status(); st.State == StateActive {
				require.True(t, after.Has(st.Node))
			}
		}
	})
}
