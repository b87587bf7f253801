// Package session serializes editor and presentation commands over one flow.
//
// A Session owns a flow.Store, the flow.Runner presenting it and the
// canvas.Dragger moving its nodes. Hosts (the terminal editor, the HTTP API)
// talk to the flow only through a Session, so multi-step interactions such
// as a drag or a run stay consistent when commands arrive concurrently.
package session

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ha1tch/qaflow/pkg/canvas"
	"github.com/ha1tch/qaflow/pkg/flow"
)

// ErrPresenting is returned by edit commands while a run is in progress.
var ErrPresenting = errors.New("flow is being presented")

// Option configures a Session.
type Option func(*config)

type config struct {
	log      *zap.Logger
	settings flow.Settings
	metrics  canvas.Metrics
	bounds   canvas.Size
	ids      flow.IDFunc
}

// WithLogger sets the logger shared by the session, store and runner.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithSettings sets the store defaults for new nodes and options.
func WithSettings(s flow.Settings) Option {
	return func(c *config) { c.settings = s }
}

// WithMetrics sets the card metrics used for clamping and edges.
func WithMetrics(m canvas.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithBounds sets the visible canvas size.
func WithBounds(b canvas.Size) Option {
	return func(c *config) { c.bounds = b }
}

// WithIDFunc sets the id generator of the store.
func WithIDFunc(f flow.IDFunc) Option {
	return func(c *config) { c.ids = f }
}

// Session is one editable, presentable flow.
type Session struct {
	mu      sync.Mutex
	store   *flow.Store
	runner  *flow.Runner
	drag    *canvas.Dragger
	metrics canvas.Metrics
	log     *zap.Logger
}

// New creates a session holding a fresh flow with its root node.
func New(opts ...Option) *Session {
	c := config{
		log:      zap.NewNop(),
		settings: flow.DefaultSettings(),
		metrics:  canvas.DefaultMetrics(),
		bounds:   canvas.Size{W: 1600, H: 1200},
	}
	for _, opt := range opts {
		opt(&c)
	}

	storeOpts := []flow.StoreOption{
		flow.WithLogger(c.log),
		flow.WithSettings(c.settings),
	}
	if c.ids != nil {
		storeOpts = append(storeOpts, flow.WithIDFunc(c.ids))
	}
	store := flow.NewStore(storeOpts...)

	return &Session{
		store:   store,
		runner:  flow.NewRunner(store, c.log),
		drag:    canvas.NewDragger(store, c.metrics, c.bounds),
		metrics: c.metrics,
		log:     c.log,
	}
}

// editable must be called with s.mu held.
func (s *Session) editable(cmd string) error {
	if s.runner.Running() {
		s.log.Warn("edit refused while presenting", zap.String("command", cmd))
		return ErrPresenting
	}
	return nil
}

// Snapshot returns a copy of the flow.
func (s *Session) Snapshot() flow.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Node returns a copy of one node.
func (s *Session) Node(id flow.NodeID) (flow.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Node(id)
}

// AddNode creates an unconnected question.
func (s *Session) AddNode() (flow.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("add node"); err != nil {
		return "", err
	}
	return s.store.AddNode(), nil
}

// UpdateNodeText replaces a question's text. Unknown ids are ignored.
func (s *Session) UpdateNodeText(id flow.NodeID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("update node"); err != nil {
		return err
	}
	s.store.UpdateNodeText(id, text)
	return nil
}

// AddOption appends an answer to a question together with its new target
// node. Both ids are empty when the question does not exist.
func (s *Session) AddOption(id flow.NodeID) (flow.OptionID, flow.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("add option"); err != nil {
		return "", "", err
	}
	opt, target, _ := s.store.AddOption(id)
	return opt, target, nil
}

// UpdateOptionText replaces an answer's label. Unknown ids are ignored.
func (s *Session) UpdateOptionText(node flow.NodeID, opt flow.OptionID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("update option"); err != nil {
		return err
	}
	s.store.UpdateOptionText(node, opt, text)
	return nil
}

// LinkOption points an answer at an existing node. It reports false when
// any of the ids is unknown.
func (s *Session) LinkOption(node flow.NodeID, opt flow.OptionID, target flow.NodeID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("link option"); err != nil {
		return false, err
	}
	return s.store.LinkOption(node, opt, target), nil
}

// DeleteOption removes an answer and cascades into its target.
func (s *Session) DeleteOption(node flow.NodeID, opt flow.OptionID) (flow.Deletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("delete option"); err != nil {
		return flow.Deletion{}, err
	}
	return s.store.DeleteOption(node, opt)
}

// DeleteNode removes a question and everything reachable from it.
func (s *Session) DeleteNode(id flow.NodeID) (flow.Deletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("delete node"); err != nil {
		return flow.Deletion{}, err
	}
	return s.store.DeleteNode(id)
}

// BeginDrag starts dragging a node. It reports false for unknown nodes.
func (s *Session) BeginDrag(id flow.NodeID, pointer canvas.Point) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("begin drag"); err != nil {
		return false, err
	}
	return s.drag.Begin(id, pointer), nil
}

// MoveDrag moves the dragged node and returns its clamped position.
func (s *Session) MoveDrag(pointer canvas.Point) (canvas.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.Move(pointer)
}

// EndDrag finishes the drag in progress, if any.
func (s *Session) EndDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.End()
}

// Dragging returns the drag in progress.
func (s *Session) Dragging() (canvas.Drag, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.Active()
}

// SetBounds changes the visible canvas size.
func (s *Session) SetBounds(b canvas.Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.SetBounds(b)
}

// Bounds returns the visible canvas size.
func (s *Session) Bounds() canvas.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.Bounds()
}

// Metrics returns the card metrics.
func (s *Session) Metrics() canvas.Metrics {
	return s.metrics
}

// Edges returns the curves of every resolvable answer.
func (s *Session) Edges() []canvas.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return canvas.Edges(s.store.Snapshot(), s.metrics)
}

// StartRun begins presenting at entry, or at the first node. Any drag in
// progress is dropped. Starting while already presenting restarts the run.
func (s *Session) StartRun(entry ...flow.NodeID) (flow.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.End()
	if err := s.runner.Start(entry...); err != nil {
		return s.runner.Status(), err
	}
	return s.runner.Status(), nil
}

// SelectOption follows an answer of the node being presented.
func (s *Session) SelectOption(id flow.OptionID) flow.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.Select(id)
}

// RestartRun returns to the entry node.
func (s *Session) RestartRun() flow.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.Restart()
}

// ExitRun stops presenting.
func (s *Session) ExitRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runner.Exit()
}

// RunStatus reports the presentation state.
func (s *Session) RunStatus() flow.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.Status()
}

// View is the flow and its presentation read under one lock.
type View struct {
	Snapshot flow.Snapshot
	Edges    []canvas.Edge
	Run      flow.Status
	Current  *flow.Node // nil unless a node is being presented
}

// View returns a consistent picture of the flow: the nodes, their edges and
// the run state all come from the same moment.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.store.Snapshot()
	v := View{
		Snapshot: snap,
		Edges:    canvas.Edges(snap, s.metrics),
		Run:      s.runner.Status(),
	}
	if n, ok := s.runner.Current(); ok {
		v.Current = &n
	}
	return v
}

// Current returns the node being presented.
func (s *Session) Current() (flow.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.Current()
}
