package main

import (
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ha1tch/qaflow/pkg/canvas"
	"github.com/ha1tch/qaflow/pkg/flow"
	"github.com/ha1tch/qaflow/pkg/session"
)

// Mode represents editor mode
type Mode int

const (
	ModeCanvas Mode = iota
	ModeInput
	ModeRun
)

// MessageType for status messages
type MessageType int

const (
	MsgInfo    MessageType = iota // Informative, no flash
	MsgError                      // Errors, flash
	MsgSuccess                    // State changes, flash
	MsgWarning                    // Warnings, flash
)

// Editor holds all editor state
type Editor struct {
	screen tcell.Screen
	sess   *session.Session
	log    *zap.Logger
	mode   Mode

	// Selection
	selected    flow.NodeID
	selectedOpt int // -1 = the question itself

	// Input state
	inputBuffer []rune
	inputPrompt string
	inputAction func(string)

	message     string
	messageType MessageType
	flashStart  atomic.Int64 // Unix milliseconds when message was shown

	done chan struct{}
}

func (a *app) editCmd() *cobra.Command {
	var sample bool

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a flow in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(a.cfg.Log, true)
			if err != nil {
				return err
			}
			defer log.Sync()

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("create screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("init screen: %w", err)
			}
			defer screen.Fini()
			screen.EnableMouse()
			screen.Clear()

			w, h := screen.Size()
			sess := session.New(
				session.WithLogger(log),
				session.WithSettings(cellSettings(a.cfg.Settings())),
				session.WithMetrics(canvas.CellMetrics()),
				session.WithBounds(canvasBounds(w, h)),
			)
			if sample {
				if err := buildSample(sess, cellLayout); err != nil {
					return err
				}
			}

			newEditor(screen, sess, log).run()
			return nil
		},
	}
	cmd.Flags().BoolVar(&sample, "sample", false, "start with the sample flow")
	return cmd
}

// cellSettings keeps the configured texts but places new cards in
// terminal cells.
func cellSettings(s flow.Settings) flow.Settings {
	s.RootX, s.RootY = 2, 1
	s.NodeX, s.NodeY = 4, 2
	s.SpawnOffsetX = 32
	s.SpawnStepY = 6
	return s
}

// canvasBounds is the screen minus the help and status bars.
func canvasBounds(w, h int) canvas.Size {
	return canvas.Size{W: float64(w), H: float64(h - 2)}
}

func newEditor(screen tcell.Screen, sess *session.Session, log *zap.Logger) *Editor {
	ed := &Editor{
		screen:      screen,
		sess:        sess,
		log:         log,
		selectedOpt: -1,
		done:        make(chan struct{}),
	}
	if id, ok := sess.Snapshot().First(); ok {
		ed.selected = id
	}
	return ed
}

func (ed *Editor) run() {
	// Periodic refresh while a message is flashing
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ed.done:
				return
			case <-ticker.C:
				start := ed.flashStart.Load()
				if start == 0 {
					continue
				}
				elapsed := time.Now().UnixMilli() - start
				if elapsed >= 0 && elapsed < 700 {
					ed.screen.PostEvent(tcell.NewEventInterrupt(nil))
				}
			}
		}
	}()
	defer close(ed.done)

	for {
		ed.draw()
		ed.screen.Show()

		ev := ed.screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return
		case *tcell.EventResize:
			w, h := ev.Size()
			ed.sess.SetBounds(canvasBounds(w, h))
			ed.screen.Sync()
		case *tcell.EventKey:
			if ed.handleKey(ev) {
				return
			}
		case *tcell.EventMouse:
			ed.handleMouse(ev)
		case *tcell.EventInterrupt:
			// Refresh event for flash animation - just redraw
		}
	}
}

func (ed *Editor) handleKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlQ || ev.Key() == tcell.KeyCtrlC {
		ed.sess.ExitRun()
		return true
	}

	switch ed.mode {
	case ModeInput:
		return ed.handleInputKey(ev)
	case ModeRun:
		return ed.handleRunKey(ev)
	}
	return ed.handleCanvasKey(ev)
}

func (ed *Editor) handleCanvasKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyTab:
		ed.cycleSelection(1)
	case tcell.KeyBacktab:
		ed.cycleSelection(-1)
	case tcell.KeyUp:
		ed.cycleOption(-1)
	case tcell.KeyDown:
		ed.cycleOption(1)
	case tcell.KeyEnter:
		ed.startEditText()
	case tcell.KeyDelete:
		ed.deleteNode()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'n', 'N':
			ed.addNode()
		case 'o', 'O':
			ed.addOption()
		case 'e', 'E':
			ed.startEditText()
		case 'l', 'L':
			ed.startLink()
		case 'x', 'X':
			ed.deleteOption()
		case 'd', 'D':
			ed.deleteNode()
		case 'r', 'R':
			ed.startRun()
		}
	}
	return false
}

func (ed *Editor) handleInputKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape:
		ed.mode = ModeCanvas
		ed.inputBuffer = nil
	case tcell.KeyEnter:
		ed.mode = ModeCanvas
		if ed.inputAction != nil {
			ed.inputAction(string(ed.inputBuffer))
		}
		ed.inputBuffer = nil
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(ed.inputBuffer) > 0 {
			ed.inputBuffer = ed.inputBuffer[:len(ed.inputBuffer)-1]
		}
	case tcell.KeyRune:
		ed.inputBuffer = append(ed.inputBuffer, ev.Rune())
	}
	return false
}

func (ed *Editor) handleRunKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape:
		ed.exitRun()
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	switch r := ev.Rune(); {
	case r == 'q' || r == 'Q':
		ed.exitRun()
	case r == 'r' || r == 'R':
		ed.sess.RestartRun()
	case r >= '1' && r <= '9':
		n, ok := ed.sess.Current()
		if !ok {
			return false
		}
		i := int(r - '1')
		if i < len(n.Options) {
			ed.sess.SelectOption(n.Options[i].ID)
		}
	}
	return false
}

func (ed *Editor) handleMouse(ev *tcell.EventMouse) {
	if ed.mode != ModeCanvas {
		return
	}
	x, y := ev.Position()
	p := canvas.Point{X: float64(x), Y: float64(y)}

	if ev.Buttons()&tcell.Button1 == 0 {
		if _, ok := ed.sess.Dragging(); ok {
			ed.sess.EndDrag()
		}
		return
	}

	if _, ok := ed.sess.Dragging(); ok {
		ed.sess.MoveDrag(p)
		return
	}

	id, ok := ed.nodeAt(p)
	if !ok {
		return
	}
	ed.selected = id
	ed.selectedOpt = -1
	if _, err := ed.sess.BeginDrag(id, p); err != nil {
		ed.showError(err)
	}
}

// nodeAt returns the topmost card under p. Later cards are drawn on top.
func (ed *Editor) nodeAt(p canvas.Point) (flow.NodeID, bool) {
	snap := ed.sess.Snapshot()
	m := ed.sess.Metrics()
	for i := len(snap.Nodes) - 1; i >= 0; i-- {
		n := snap.Nodes[i]
		if m.NodeRect(n.X, n.Y, len(n.Options)).Contains(p) {
			return n.ID, true
		}
	}
	return "", false
}

// selectedNode returns the selected node, falling back to the first node
// when the selection has been deleted.
func (ed *Editor) selectedNode() (flow.Node, bool) {
	if n, ok := ed.sess.Node(ed.selected); ok {
		return n, true
	}
	snap := ed.sess.Snapshot()
	if len(snap.Nodes) == 0 {
		return flow.Node{}, false
	}
	ed.selected = snap.Nodes[0].ID
	ed.selectedOpt = -1
	return snap.Nodes[0], true
}

func (ed *Editor) cycleSelection(step int) {
	snap := ed.sess.Snapshot()
	if len(snap.Nodes) == 0 {
		return
	}
	idx := 0
	for i, n := range snap.Nodes {
		if n.ID == ed.selected {
			idx = (i + step + len(snap.Nodes)) % len(snap.Nodes)
			break
		}
	}
	ed.selected = snap.Nodes[idx].ID
	ed.selectedOpt = -1
}

func (ed *Editor) cycleOption(step int) {
	n, ok := ed.selectedNode()
	if !ok {
		return
	}
	// -1 selects the question, so there are len+1 positions
	count := len(n.Options) + 1
	ed.selectedOpt = (ed.selectedOpt+1+step+count)%count - 1
}

func (ed *Editor) addNode() {
	id, err := ed.sess.AddNode()
	if err != nil {
		ed.showError(err)
		return
	}
	ed.selected = id
	ed.selectedOpt = -1
	ed.showMessage("Added question", MsgSuccess)
}

func (ed *Editor) addOption() {
	n, ok := ed.selectedNode()
	if !ok {
		return
	}
	opt, _, err := ed.sess.AddOption(n.ID)
	if err != nil {
		ed.showError(err)
		return
	}
	if opt == "" {
		return
	}
	ed.selectedOpt = len(n.Options)
	ed.showMessage("Added answer", MsgSuccess)
}

// selectedOption returns the highlighted option of the selected node.
func (ed *Editor) selectedOption() (flow.Node, flow.Option, bool) {
	n, ok := ed.selectedNode()
	if !ok || ed.selectedOpt < 0 || ed.selectedOpt >= len(n.Options) {
		return n, flow.Option{}, false
	}
	return n, n.Options[ed.selectedOpt], true
}

func (ed *Editor) startEditText() {
	n, ok := ed.selectedNode()
	if !ok {
		return
	}
	if _, opt, ok := ed.selectedOption(); ok {
		ed.startInput("Answer: ", opt.Text, func(text string) {
			if err := ed.sess.UpdateOptionText(n.ID, opt.ID, text); err != nil {
				ed.showError(err)
			}
		})
		return
	}
	ed.startInput("Question: ", n.Text, func(text string) {
		if err := ed.sess.UpdateNodeText(n.ID, text); err != nil {
			ed.showError(err)
		}
	})
}

func (ed *Editor) startLink() {
	n, opt, ok := ed.selectedOption()
	if !ok {
		ed.showMessage("Select an answer first (Up/Down)", MsgInfo)
		return
	}
	ed.startInput("Link to question #: ", "", func(text string) {
		num, err := strconv.Atoi(text)
		snap := ed.sess.Snapshot()
		if err != nil || num < 1 || num > snap.Len() {
			ed.showMessage(fmt.Sprintf("No question #%s", text), MsgError)
			return
		}
		linked, err := ed.sess.LinkOption(n.ID, opt.ID, snap.Nodes[num-1].ID)
		if err != nil {
			ed.showError(err)
			return
		}
		if linked {
			ed.showMessage(fmt.Sprintf("Linked %q to #%d", opt.Text, num), MsgSuccess)
		}
	})
}

func (ed *Editor) startInput(prompt, initial string, action func(string)) {
	ed.mode = ModeInput
	ed.inputPrompt = prompt
	ed.inputBuffer = []rune(initial)
	ed.inputAction = action
}

func (ed *Editor) deleteOption() {
	n, opt, ok := ed.selectedOption()
	if !ok {
		ed.showMessage("Select an answer first (Up/Down)", MsgInfo)
		return
	}
	d, err := ed.sess.DeleteOption(n.ID, opt.ID)
	ed.selectedOpt = -1
	if err != nil {
		ed.showError(err)
		return
	}
	ed.showMessage(fmt.Sprintf("Deleted answer and %d question(s)", len(d.Removed)), MsgSuccess)
}

func (ed *Editor) deleteNode() {
	n, ok := ed.selectedNode()
	if !ok {
		return
	}
	d, err := ed.sess.DeleteNode(n.ID)
	if err != nil {
		ed.showError(err)
		return
	}
	ed.selectedNode()
	ed.showMessage(fmt.Sprintf("Deleted %d question(s)", len(d.Removed)), MsgSuccess)
}

func (ed *Editor) startRun() {
	if _, err := ed.sess.StartRun(); err != nil {
		ed.showError(err)
		return
	}
	ed.mode = ModeRun
}

func (ed *Editor) exitRun() {
	ed.sess.ExitRun()
	ed.mode = ModeCanvas
}

func (ed *Editor) showError(err error) {
	switch {
	case errors.Is(err, flow.ErrLastNode):
		ed.showMessage("Cannot delete the last question", MsgWarning)
	case errors.Is(err, session.ErrPresenting):
		ed.showMessage("Exit the run to edit", MsgWarning)
	default:
		ed.log.Error("editor command failed", zap.Error(err))
		ed.showMessage(err.Error(), MsgError)
	}
}

func (ed *Editor) showMessage(msg string, msgType MessageType) {
	ed.message = msg
	ed.messageType = msgType
	ed.flashStart.Store(time.Now().UnixMilli())
	// Trigger immediate refresh for flash animation
	if ed.screen != nil {
		ed.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}

// flashes reports whether messages of type t flash when shown.
func flashes(t MessageType) bool {
	return t != MsgInfo
}

// flashInverted reports whether a flashing message is drawn inverted
// elapsed milliseconds after it was shown: two 125ms pulses, then steady.
func flashInverted(elapsed int64) bool {
	if elapsed < 0 || elapsed >= 500 {
		return false
	}
	phase := elapsed / 125
	return phase == 1 || phase == 3
}
