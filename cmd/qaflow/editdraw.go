package main

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/ha1tch/qaflow/pkg/flow"
)

// Styles
var (
	styleDefault   = tcell.StyleDefault
	styleNode      = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleNodeSel   = tcell.StyleDefault.Background(tcell.ColorGreen).Foreground(tcell.ColorBlack)
	styleNodeRoot  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleNodeLeaf  = tcell.StyleDefault.Foreground(tcell.ColorPurple)
	styleNodeRun   = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleText      = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleOption    = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleOptionSel = tcell.StyleDefault.Background(tcell.ColorDarkGray).Foreground(tcell.ColorWhite)
	styleEdge      = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleStatus    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleMsgInfo   = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgError  = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorNavy).Bold(true)
	styleMsgWarn   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorNavy)
	styleHelp      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleInput     = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleBorder    = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

func (ed *Editor) draw() {
	ed.screen.Clear()
	w, h := ed.screen.Size()

	snap := ed.sess.Snapshot()
	st := ed.sess.RunStatus()
	ed.drawEdges(w, h-2)
	for i, n := range snap.Nodes {
		ed.drawNode(snap, i, n, st)
	}

	switch ed.mode {
	case ModeInput:
		ed.drawInputBox(w, h)
	case ModeRun:
		ed.drawRunBox(w, h, st)
	}
	ed.drawStatusBar(w, h, snap.Len())
}

func (ed *Editor) drawEdges(w, h int) {
	for _, e := range ed.sess.Edges() {
		c := e.Curve
		steps := int(math.Max(math.Abs(c.P3.X-c.P0.X), math.Abs(c.P3.Y-c.P0.Y))) * 2
		for _, p := range c.Sample(steps) {
			ed.setCell(int(math.Round(p.X)), int(math.Round(p.Y)), '·', styleEdge, w, h)
		}
		ed.setCell(int(math.Round(c.P3.X))-1, int(math.Round(c.P3.Y)), '▶', styleEdge, w, h)
	}
}

func (ed *Editor) setCell(x, y int, r rune, style tcell.Style, w, h int) {
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	ed.screen.SetContent(x, y, r, nil, style)
}

// drawNode draws one card: a numbered title row, the question, a divider
// and one row per answer, matching canvas.CellMetrics.
func (ed *Editor) drawNode(snap flow.Snapshot, index int, n flow.Node, st flow.Status) {
	rect := ed.sess.Metrics().NodeRect(n.X, n.Y, len(n.Options))
	x, y := int(math.Round(rect.X)), int(math.Round(rect.Y))
	w, h := int(rect.W), int(rect.H)

	border := styleNode
	switch {
	case st.Node == n.ID:
		border = styleNodeRun
	case index == 0:
		border = styleNodeRoot
	case n.IsLeaf():
		border = styleNodeLeaf
	}
	ed.drawBox(x, y, w, h, border, styleDefault)

	title := fmt.Sprintf(" #%d ", index+1)
	titleStyle := border
	if n.ID == ed.selected && ed.mode != ModeRun {
		titleStyle = styleNodeSel
	}
	ed.drawString(x+2, y, title, titleStyle)

	textStyle := styleText
	if n.ID == ed.selected && ed.selectedOpt < 0 && ed.mode != ModeRun {
		textStyle = styleOptionSel
	}
	ed.drawString(x+1, y+1, truncate(n.Text, w-2), textStyle)

	for col := x + 1; col < x+w-1; col++ {
		ed.screen.SetContent(col, y+2, '╌', nil, styleBorder)
	}
	if n.IsLeaf() {
		ed.drawString(x+2, y+2, " end ", styleNodeLeaf)
	}

	for i, o := range n.Options {
		style := styleOption
		if n.ID == ed.selected && i == ed.selectedOpt && ed.mode != ModeRun {
			style = styleOptionSel
		}
		label := fmt.Sprintf("%d. %s", i+1, o.Text)
		if !snap.Has(o.Target) {
			label += " ✗"
		}
		ed.drawString(x+1, y+3+i, truncate(label, w-2), style)
	}
}

func (ed *Editor) drawRunBox(w, h int, st flow.Status) {
	var lines []string
	switch st.State {
	case flow.StateDeadEnd:
		lines = []string{"That answer leads nowhere.", "", "r restart   Esc exit"}
	default:
		n, ok := ed.sess.Current()
		if !ok {
			return
		}
		lines = append(lines, n.Text, "")
		for i, o := range n.Options {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, o.Text))
		}
		if st.Leaf {
			lines = append(lines, "End of this branch.", "", "r restart   Esc exit")
		}
	}

	boxW := 44
	if boxW > w-4 {
		boxW = w - 4
	}
	boxH := len(lines) + 2
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2

	ed.drawBox(boxX, boxY, boxW, boxH, styleBorder, styleInput)
	ed.drawString(boxX+2, boxY, " Presenting ", styleInput)
	for i, line := range lines {
		ed.drawString(boxX+2, boxY+1+i, truncate(line, boxW-4), styleInput)
	}
}

func (ed *Editor) drawInputBox(w, h int) {
	boxW := 60
	if boxW > w-4 {
		boxW = w - 4
	}
	boxH := 3
	boxX := (w - boxW) / 2
	boxY := (h - boxH) / 2

	ed.drawBox(boxX, boxY, boxW, boxH, styleBorder, styleInput)

	ed.drawString(boxX+2, boxY+1, ed.inputPrompt, styleInput)
	// Show the tail of long input
	room := boxW - 5 - runewidth.StringWidth(ed.inputPrompt)
	text := ed.inputBuffer
	if room > 0 && len(text) > room {
		text = text[len(text)-room:]
	}
	ed.drawString(boxX+2+runewidth.StringWidth(ed.inputPrompt), boxY+1, string(text)+"_", styleInput)
}

func (ed *Editor) drawStatusBar(w, h, nodes int) {
	y := h - 1

	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleStatus)
	}

	ed.drawString(1, y, fmt.Sprintf("qaflow  %d question(s)", nodes), styleStatus)

	modeStr := ed.modeString()
	ed.drawString(w/2-len(modeStr)/2, y, modeStr, styleStatus)

	if ed.message != "" {
		style := styleMsgInfo
		switch ed.messageType {
		case MsgError:
			style = styleMsgError
		case MsgWarning:
			style = styleMsgWarn
		}
		if flashes(ed.messageType) {
			elapsed := time.Now().UnixMilli() - ed.flashStart.Load()
			if flashInverted(elapsed) {
				style = style.Reverse(true)
			}
		}
		ed.drawString(w-runewidth.StringWidth(ed.message)-2, y, ed.message, style)
	}

	y = h - 2
	for x := 0; x < w; x++ {
		ed.screen.SetContent(x, y, ' ', nil, styleDefault)
	}
	ed.drawString(1, y, ed.helpString(), styleHelp)
}

func (ed *Editor) drawBox(x, y, w, h int, border, fill tcell.Style) {
	// Corners
	ed.screen.SetContent(x, y, '┌', nil, border)
	ed.screen.SetContent(x+w-1, y, '┐', nil, border)
	ed.screen.SetContent(x, y+h-1, '└', nil, border)
	ed.screen.SetContent(x+w-1, y+h-1, '┘', nil, border)

	for i := x + 1; i < x+w-1; i++ {
		ed.screen.SetContent(i, y, '─', nil, border)
		ed.screen.SetContent(i, y+h-1, '─', nil, border)
	}
	for i := y + 1; i < y+h-1; i++ {
		ed.screen.SetContent(x, i, '│', nil, border)
		ed.screen.SetContent(x+w-1, i, '│', nil, border)
	}

	for row := y + 1; row < y+h-1; row++ {
		for col := x + 1; col < x+w-1; col++ {
			ed.screen.SetContent(col, row, ' ', nil, fill)
		}
	}
}

// drawString draws s from column x, advancing by display width.
func (ed *Editor) drawString(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		ed.screen.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

func (ed *Editor) modeString() string {
	if _, ok := ed.sess.Dragging(); ok {
		return "MOVE"
	}
	switch ed.mode {
	case ModeInput:
		return "INPUT"
	case ModeRun:
		return "PRESENTING"
	}
	return ""
}

func (ed *Editor) helpString() string {
	switch ed.mode {
	case ModeInput:
		return "Enter: Confirm  Esc: Cancel"
	case ModeRun:
		return "1-9: Answer  r: Restart  Esc: Exit"
	}
	return "n: Question  o: Answer  e: Edit  l: Link  x: Del answer  d: Del question  Tab: Next  r: Run  ^Q: Quit"
}

// truncate shortens s to at most max display cells.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "…")
}
