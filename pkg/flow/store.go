package flow

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IDFunc generates a fresh identifier for the given kind ("node" or "opt").
type IDFunc func(kind string) string

// UUIDs is the default IDFunc: kind-prefixed random UUIDs.
func UUIDs(kind string) string {
	return kind + "-" + uuid.NewString()
}

// Settings holds the defaults the store applies to newly created items.
type Settings struct {
	RootText    string // text of the node every new store starts with
	NodeText    string // text of nodes created by AddNode
	AnswerText  string // text of nodes created by AddOption
	OptionLabel string // fmt format for option labels, given the 1-based index

	RootX, RootY float64
	NodeX, NodeY float64

	// New option targets spawn SpawnOffsetX to the right of the source and
	// SpawnStepY lower per option the source already has.
	SpawnOffsetX float64
	SpawnStepY   float64
}

// DefaultSettings returns the stock texts and positions.
func DefaultSettings() Settings {
	return Settings{
		RootText:     "What is your first question?",
		NodeText:     "New Question",
		AnswerText:   "New Answer/State",
		OptionLabel:  "Option %d",
		RootX:        100,
		RootY:        100,
		NodeX:        50,
		NodeY:        50,
		SpawnOffsetX: 300,
		SpawnStepY:   60,
	}
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for mutation and rejection events.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIDFunc replaces the id generator.
func WithIDFunc(f IDFunc) StoreOption {
	return func(s *Store) {
		if f != nil {
			s.newID = f
		}
	}
}

// WithSettings replaces the creation defaults.
func WithSettings(cfg Settings) StoreOption {
	return func(s *Store) {
		s.settings = cfg
	}
}

// Deletion reports what a delete removed.
type Deletion struct {
	Removed []NodeID   `json:"removed"` // nodes removed, in walk order
	Pruned  []OptionID `json:"pruned"`  // options dropped because their target went away
}

// Empty reports whether nothing was removed.
func (d Deletion) Empty() bool {
	return len(d.Removed) == 0 && len(d.Pruned) == 0
}

// Store owns the flow graph. All mutations are serialized; queries see a
// consistent view. The store never holds fewer than one node: a delete
// whose cascade would take every node is refused with ErrLastNode.
type Store struct {
	mu       sync.RWMutex
	nodes    map[NodeID]*Node
	order    []NodeID            // creation order
	owners   map[OptionID]NodeID // option id -> owning node
	newID    IDFunc
	settings Settings
	log      *zap.Logger
}

// NewStore creates a store seeded with a single root node.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		nodes:    make(map[NodeID]*Node),
		order:    make([]NodeID, 0),
		owners:   make(map[OptionID]NodeID),
		newID:    UUIDs,
		settings: DefaultSettings(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.insert(s.settings.RootX, s.settings.RootY, s.settings.RootText)
	return s
}

// nextNodeID returns an id not used by any node or option.
func (s *Store) nextNodeID() NodeID {
	for {
		id := s.newID("node")
		if !s.taken(id) {
			return NodeID(id)
		}
	}
}

func (s *Store) nextOptionID() OptionID {
	for {
		id := s.newID("opt")
		if !s.taken(id) {
			return OptionID(id)
		}
	}
}

func (s *Store) taken(id string) bool {
	if _, ok := s.nodes[NodeID(id)]; ok {
		return true
	}
	_, ok := s.owners[OptionID(id)]
	return ok
}

func (s *Store) insert(x, y float64, text string) *Node {
	n := &Node{
		ID:      s.nextNodeID(),
		X:       x,
		Y:       y,
		Text:    text,
		Options: make([]Option, 0),
	}
	s.nodes[n.ID] = n
	s.order = append(s.order, n.ID)
	return n
}

// AddNode creates a node at the default position with the default text.
func (s *Store) AddNode() NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.insert(s.settings.NodeX, s.settings.NodeY, s.settings.NodeText)
	s.log.Debug("node added", zap.String("node", string(n.ID)))
	return n.ID
}

// UpdateNodeText replaces a node's text. Unknown ids are ignored.
func (s *Store) UpdateNodeText(id NodeID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.nodes[id]; ok {
		n.Text = text
	}
}

// MoveNode sets a node's position. Unknown ids are ignored.
func (s *Store) MoveNode(id NodeID, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.nodes[id]; ok {
		n.X, n.Y = x, y
	}
}

// AddOption appends an option to the node and creates the node it leads to,
// placed beside the source so the two do not overlap. It returns false
// without changing anything when the node does not exist.
func (s *Store) AddOption(id NodeID) (OptionID, NodeID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.nodes[id]
	if !ok {
		return "", "", false
	}

	count := len(src.Options)
	target := s.insert(
		src.X+s.settings.SpawnOffsetX,
		src.Y+float64(count)*s.settings.SpawnStepY,
		s.settings.AnswerText,
	)
	opt := Option{
		ID:     s.nextOptionID(),
		Text:   fmt.Sprintf(s.settings.OptionLabel, count+1),
		Target: target.ID,
	}
	src.Options = append(src.Options, opt)
	s.owners[opt.ID] = src.ID

	s.log.Debug("option added",
		zap.String("node", string(src.ID)),
		zap.String("option", string(opt.ID)),
		zap.String("target", string(target.ID)),
	)
	return opt.ID, target.ID, true
}

// UpdateOptionText relabels an option. Unknown ids are ignored.
func (s *Store) UpdateOptionText(nodeID NodeID, optID OptionID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[nodeID]
	if !ok {
		return
	}
	if _, i := n.Option(optID); i >= 0 {
		n.Options[i].Text = text
	}
}

// LinkOption points an existing option at another existing node. This is
// how shared targets and cycles are made. It returns false when any id is
// unknown.
func (s *Store) LinkOption(nodeID NodeID, optID OptionID, target NodeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[nodeID]
	if !ok {
		return false
	}
	if _, ok := s.nodes[target]; !ok {
		return false
	}
	_, i := n.Option(optID)
	if i < 0 {
		return false
	}
	n.Options[i].Target = target
	s.log.Debug("option linked",
		zap.String("node", string(nodeID)),
		zap.String("option", string(optID)),
		zap.String("target", string(target)),
	)
	return true
}

// DeleteOption removes an option and cascades into the node it led to, so
// trimming a branch prunes everything downstream of it. If the cascade is
// refused because the target is the last node, the option stays removed
// and ErrLastNode is returned.
func (s *Store) DeleteOption(nodeID NodeID, optID OptionID) (Deletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[nodeID]
	if !ok {
		return Deletion{}, nil
	}
	opt, i := n.Option(optID)
	if i < 0 {
		return Deletion{}, nil
	}
	n.Options = append(n.Options[:i:i], n.Options[i+1:]...)
	delete(s.owners, optID)
	s.log.Debug("option deleted",
		zap.String("node", string(nodeID)),
		zap.String("option", string(optID)),
	)

	d, err := s.deleteNode(opt.Target)
	d.Pruned = append([]OptionID{optID}, d.Pruned...)
	return d, err
}

// DeleteNode removes the node together with every node reachable from it
// through option targets, then drops options elsewhere that pointed into
// the removed set. Unknown ids are a no-op. When the removal would cover
// every node, including deleting the only one, it fails with ErrLastNode
// and leaves the store unchanged.
func (s *Store) DeleteNode(id NodeID) (Deletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteNode(id)
}

func (s *Store) deleteNode(id NodeID) (Deletion, error) {
	if _, ok := s.nodes[id]; !ok {
		return Deletion{}, nil
	}
	removed := reachable(id, s.lookup)
	if len(removed) == len(s.nodes) {
		s.log.Warn("refused to delete last node",
			zap.String("node", string(id)),
			zap.Int("reachable", len(removed)),
		)
		return Deletion{}, ErrLastNode
	}

	var d Deletion
	d.Removed = removed

	gone := make(map[NodeID]bool, len(removed))
	for _, rid := range removed {
		gone[rid] = true
		for _, o := range s.nodes[rid].Options {
			delete(s.owners, o.ID)
		}
		delete(s.nodes, rid)
	}

	order := s.order[:0]
	for _, nid := range s.order {
		if !gone[nid] {
			order = append(order, nid)
		}
	}
	s.order = order

	d.Pruned = prune(s.order, s.nodes)
	for _, oid := range d.Pruned {
		delete(s.owners, oid)
	}

	s.log.Debug("node deleted",
		zap.String("node", string(id)),
		zap.Int("removed", len(d.Removed)),
		zap.Int("pruned", len(d.Pruned)),
	)
	return d, nil
}

func (s *Store) lookup(id NodeID) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Snapshot returns a deep copy of the flow in creation order.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]Node, 0, len(s.order))
	for _, id := range s.order {
		nodes = append(nodes, s.nodes[id].clone())
	}
	return Snapshot{Nodes: nodes}
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id NodeID) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// First returns the earliest created node that still exists.
func (s *Store) First() (NodeID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return "", false
	}
	return s.order[0], true
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.nodes)
}
