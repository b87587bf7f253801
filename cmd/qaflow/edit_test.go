package main

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ha1tch/qaflow/pkg/canvas"
	"github.com/ha1tch/qaflow/pkg/flow"
	"github.com/ha1tch/qaflow/pkg/session"
)

const (
	screenW = 100
	screenH = 30
)

func newTestEditor(t *testing.T) (*Editor, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(screenW, screenH)
	t.Cleanup(screen.Fini)

	log := zaptest.NewLogger(t)
	sess := session.New(
		session.WithLogger(log),
		session.WithSettings(cellSettings(flow.DefaultSettings())),
		session.WithMetrics(canvas.CellMetrics()),
		session.WithBounds(canvasBounds(screenW, screenH)),
	)
	return newEditor(screen, sess, log), screen
}

func press(ed *Editor, r rune) bool {
	return ed.handleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
}

func pressKey(ed *Editor, k tcell.Key) bool {
	return ed.handleKey(tcell.NewEventKey(k, 0, tcell.ModNone))
}

func typeText(ed *Editor, s string) {
	for _, r := range s {
		press(ed, r)
	}
}

func row(screen tcell.SimulationScreen, y int) string {
	w, _ := screen.Size()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		sb.WriteRune(r)
	}
	return sb.String()
}

func TestEditorAddNodeAndOption(t *testing.T) {
	ed, _ := newTestEditor(t)
	root := ed.selected

	press(ed, 'n')
	assert.Equal(t, 2, ed.sess.Snapshot().Len())
	assert.NotEqual(t, root, ed.selected)
	assert.Equal(t, MsgSuccess, ed.messageType)

	press(ed, 'o')
	n, ok := ed.sess.Node(ed.selected)
	require.True(t, ok)
	require.Len(t, n.Options, 1)
	assert.Equal(t, 0, ed.selectedOpt)
	assert.Equal(t, 3, ed.sess.Snapshot().Len())
}

func TestEditorEditTextIsRuneSafe(t *testing.T) {
	ed, _ := newTestEditor(t)
	root := ed.selected

	press(ed, 'e')
	require.Equal(t, ModeInput, ed.mode)
	assert.Equal(t, flow.DefaultSettings().RootText, string(ed.inputBuffer))

	for range ed.inputBuffer {
		pressKey(ed, tcell.KeyBackspace2)
	}
	typeText(ed, "¿Té o café?")
	pressKey(ed, tcell.KeyBackspace2)
	typeText(ed, "?")
	pressKey(ed, tcell.KeyEnter)

	assert.Equal(t, ModeCanvas, ed.mode)
	n, _ := ed.sess.Node(root)
	assert.Equal(t, "¿Té o café?", n.Text)
}

func TestEditorEditCancel(t *testing.T) {
	ed, _ := newTestEditor(t)
	root := ed.selected

	press(ed, 'e')
	typeText(ed, "ignored")
	pressKey(ed, tcell.KeyEscape)

	assert.Equal(t, ModeCanvas, ed.mode)
	n, _ := ed.sess.Node(root)
	assert.Equal(t, flow.DefaultSettings().RootText, n.Text)
}

func TestEditorEditOptionText(t *testing.T) {
	ed, _ := newTestEditor(t)
	root := ed.selected

	press(ed, 'o')
	press(ed, 'e')
	assert.Equal(t, "Option 1", string(ed.inputBuffer))
	for range ed.inputBuffer {
		pressKey(ed, tcell.KeyBackspace)
	}
	typeText(ed, "Yes")
	pressKey(ed, tcell.KeyEnter)

	n, _ := ed.sess.Node(root)
	assert.Equal(t, "Yes", n.Options[0].Text)
}

func TestEditorDeleteLastNodeWarns(t *testing.T) {
	ed, _ := newTestEditor(t)

	press(ed, 'd')

	assert.Equal(t, 1, ed.sess.Snapshot().Len())
	assert.Equal(t, MsgWarning, ed.messageType)
	assert.Equal(t, "Cannot delete the last question", ed.message)
}

func TestEditorDeleteRootWithBranchWarns(t *testing.T) {
	ed, _ := newTestEditor(t)
	root := ed.selected
	press(ed, 'o')

	press(ed, 'd')

	assert.Equal(t, 2, ed.sess.Snapshot().Len())
	assert.Equal(t, root, ed.selected)
	assert.Equal(t, MsgWarning, ed.messageType)
}

func TestEditorDeleteOptionCascades(t *testing.T) {
	ed, _ := newTestEditor(t)
	root := ed.selected

	press(ed, 'o')
	press(ed, 'o')
	require.Equal(t, 3, ed.sess.Snapshot().Len())

	pressKey(ed, tcell.KeyUp) // second answer -> first answer
	assert.Equal(t, 0, ed.selectedOpt)
	press(ed, 'x')

	n, _ := ed.sess.Node(root)
	assert.Len(t, n.Options, 1)
	assert.Equal(t, 2, ed.sess.Snapshot().Len())
	assert.Equal(t, -1, ed.selectedOpt)
}

func TestEditorDeleteNodeReselects(t *testing.T) {
	ed, _ := newTestEditor(t)
	root := ed.selected

	press(ed, 'n')
	press(ed, 'd')

	assert.Equal(t, 1, ed.sess.Snapshot().Len())
	assert.Equal(t, root, ed.selected)
}

func TestEditorLink(t *testing.T) {
	ed, _ := newTestEditor(t)
	root := ed.selected

	press(ed, 'o')
	press(ed, 'o')
	require.Equal(t, 1, ed.selectedOpt)

	press(ed, 'l')
	require.Equal(t, ModeInput, ed.mode)
	typeText(ed, "1")
	pressKey(ed, tcell.KeyEnter)

	n, _ := ed.sess.Node(root)
	assert.Equal(t, root, n.Options[1].Target)
	assert.Equal(t, MsgSuccess, ed.messageType)

	press(ed, 'l')
	typeText(ed, "42")
	pressKey(ed, tcell.KeyEnter)
	assert.Equal(t, MsgError, ed.messageType)
}

func TestEditorLinkNeedsOption(t *testing.T) {
	ed, _ := newTestEditor(t)

	press(ed, 'l')

	assert.Equal(t, ModeCanvas, ed.mode)
	assert.Equal(t, MsgInfo, ed.messageType)
}

func TestEditorCycleSelection(t *testing.T) {
	ed, _ := newTestEditor(t)
	root := ed.selected
	press(ed, 'n')
	second := ed.selected

	pressKey(ed, tcell.KeyTab)
	assert.Equal(t, root, ed.selected)
	pressKey(ed, tcell.KeyTab)
	assert.Equal(t, second, ed.selected)
	pressKey(ed, tcell.KeyBacktab)
	assert.Equal(t, root, ed.selected)
}

func TestEditorCycleOption(t *testing.T) {
	ed, _ := newTestEditor(t)
	press(ed, 'o')
	press(ed, 'o')

	pressKey(ed, tcell.KeyDown)
	assert.Equal(t, -1, ed.selectedOpt)
	pressKey(ed, tcell.KeyDown)
	assert.Equal(t, 0, ed.selectedOpt)
	pressKey(ed, tcell.KeyUp)
	pressKey(ed, tcell.KeyUp)
	assert.Equal(t, 1, ed.selectedOpt)
}

func TestEditorRun(t *testing.T) {
	ed, _ := newTestEditor(t)
	root := ed.selected
	press(ed, 'o')
	n, _ := ed.sess.Node(root)
	target := n.Options[0].Target

	press(ed, 'r')
	require.Equal(t, ModeRun, ed.mode)
	assert.Equal(t, root, ed.sess.RunStatus().Node)

	press(ed, 'n') // not an edit while presenting
	assert.Equal(t, 2, ed.sess.Snapshot().Len())

	press(ed, '9')
	assert.Equal(t, root, ed.sess.RunStatus().Node)

	press(ed, '1')
	st := ed.sess.RunStatus()
	assert.Equal(t, target, st.Node)
	assert.True(t, st.Leaf)

	press(ed, 'r')
	assert.Equal(t, root, ed.sess.RunStatus().Node)

	pressKey(ed, tcell.KeyEscape)
	assert.Equal(t, ModeCanvas, ed.mode)
	assert.Equal(t, flow.StateInactive, ed.sess.RunStatus().State)
}

func TestEditorMouseDrag(t *testing.T) {
	ed, _ := newTestEditor(t)
	root := ed.selected
	press(ed, 'n')

	// root card sits at (2,1); grab it one cell in
	ed.handleMouse(tcell.NewEventMouse(3, 2, tcell.Button1, tcell.ModNone))
	assert.Equal(t, root, ed.selected)
	_, dragging := ed.sess.Dragging()
	require.True(t, dragging)

	ed.handleMouse(tcell.NewEventMouse(13, 7, tcell.Button1, tcell.ModNone))
	n, _ := ed.sess.Node(root)
	assert.Equal(t, 12.0, n.X)
	assert.Equal(t, 6.0, n.Y)

	// clamped to the canvas above the help and status bars
	ed.handleMouse(tcell.NewEventMouse(500, 500, tcell.Button1, tcell.ModNone))
	n, _ = ed.sess.Node(root)
	assert.Equal(t, float64(screenW-26), n.X)
	assert.Equal(t, float64(screenH-2-4), n.Y)

	ed.handleMouse(tcell.NewEventMouse(500, 500, tcell.ButtonNone, tcell.ModNone))
	_, dragging = ed.sess.Dragging()
	assert.False(t, dragging)
}

func TestEditorMouseMissesEmptyCanvas(t *testing.T) {
	ed, _ := newTestEditor(t)

	ed.handleMouse(tcell.NewEventMouse(90, 20, tcell.Button1, tcell.ModNone))

	_, dragging := ed.sess.Dragging()
	assert.False(t, dragging)
}

func TestEditorDraw(t *testing.T) {
	ed, screen := newTestEditor(t)
	press(ed, 'o')

	ed.draw()

	r, _, _, _ := screen.GetContent(2, 1)
	assert.Equal(t, '┌', r)
	assert.Contains(t, row(screen, 1), "#1")
	assert.Contains(t, row(screen, 2), "What is your first ques…")
	assert.Contains(t, row(screen, 4), "1. Option 1")

	// spawned card at (34,1): its incoming edge ends left of the header row
	r, _, _, _ = screen.GetContent(33, 2)
	assert.Equal(t, '▶', r)
	assert.Contains(t, row(screen, 1), "#2")

	assert.Contains(t, row(screen, screenH-1), "qaflow  2 question(s)")
	assert.Contains(t, row(screen, screenH-2), "n: Question")
}

func TestEditorDrawRunBox(t *testing.T) {
	ed, screen := newTestEditor(t)
	press(ed, 'o')
	press(ed, 'r')

	ed.draw()

	var all strings.Builder
	for y := 0; y < screenH; y++ {
		all.WriteString(row(screen, y))
	}
	assert.Contains(t, all.String(), "Presenting")
	assert.Contains(t, all.String(), "1. Option 1")
	assert.Contains(t, row(screen, screenH-1), "PRESENTING")
}

func TestEditorQuit(t *testing.T) {
	ed, _ := newTestEditor(t)
	press(ed, 'r')

	assert.True(t, pressKey(ed, tcell.KeyCtrlQ))
	assert.Equal(t, flow.StateInactive, ed.sess.RunStatus().State)
}

func TestCanvasBounds(t *testing.T) {
	assert.Equal(t, canvas.Size{W: 80, H: 22}, canvasBounds(80, 24))
}
