package flow

// reachable returns start and every node reachable from it by following
// option targets, in breadth-first order. Targets that do not resolve are
// not followed. The visited set makes the walk terminate on cycles.
func reachable(start NodeID, lookup func(NodeID) (*Node, bool)) []NodeID {
	visited := map[NodeID]bool{start: true}
	queue := []NodeID{start}
	var order []NodeID

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		n, ok := lookup(id)
		if !ok {
			continue
		}
		for _, o := range n.Options {
			if visited[o.Target] {
				continue
			}
			if _, ok := lookup(o.Target); !ok {
				continue
			}
			visited[o.Target] = true
			queue = append(queue, o.Target)
		}
	}
	return order
}

// prune drops every option whose target is not among nodes and returns the
// dropped option ids in node order.
func prune(order []NodeID, nodes map[NodeID]*Node) []OptionID {
	var dropped []OptionID
	for _, id := range order {
		n := nodes[id]
		kept := n.Options[:0]
		for _, o := range n.Options {
			if _, ok := nodes[o.Target]; ok {
				kept = append(kept, o)
			} else {
				dropped = append(dropped, o.ID)
			}
		}
		n.Options = kept
	}
	return dropped
}

// Reachable returns the ids of id and every node reachable from it in the
// snapshot, breadth-first. It is the set DeleteNode would remove.
func (s Snapshot) Reachable(id NodeID) []NodeID {
	if !s.Has(id) {
		return nil
	}
	index := make(map[NodeID]*Node, len(s.Nodes))
	for i := range s.Nodes {
		index[s.Nodes[i].ID] = &s.Nodes[i]
	}
	return reachable(id, func(nid NodeID) (*Node, bool) {
		n, ok := index[nid]
		return n, ok
	})
}
