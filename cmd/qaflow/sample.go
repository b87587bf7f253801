package main

import (
	"github.com/ha1tch/qaflow/pkg/canvas"
	"github.com/ha1tch/qaflow/pkg/flow"
	"github.com/ha1tch/qaflow/pkg/session"
)

// sampleLayout holds the card positions of the sample flow, in the order
// root, coffee, black, milk, tea, green.
type sampleLayout [6]canvas.Point

var (
	pixelLayout = sampleLayout{
		{X: 40, Y: 300},
		{X: 400, Y: 40},
		{X: 760, Y: 20},
		{X: 760, Y: 310},
		{X: 400, Y: 620},
		{X: 760, Y: 620},
	}
	cellLayout = sampleLayout{
		{X: 1, Y: 6},
		{X: 28, Y: 0},
		{X: 56, Y: 0},
		{X: 56, Y: 6},
		{X: 28, Y: 12},
		{X: 56, Y: 13},
	}
)

// builder issues session commands and keeps the first error.
type builder struct {
	sess *session.Session
	err  error
}

func (b *builder) text(id flow.NodeID, text string) {
	if b.err != nil {
		return
	}
	b.err = b.sess.UpdateNodeText(id, text)
}

// place drags a card to p, the way a pointer grabbing its corner would.
func (b *builder) place(id flow.NodeID, p canvas.Point) {
	if b.err != nil {
		return
	}
	n, ok := b.sess.Node(id)
	if !ok {
		return
	}
	if _, b.err = b.sess.BeginDrag(id, canvas.Point{X: n.X, Y: n.Y}); b.err != nil {
		return
	}
	b.sess.MoveDrag(p)
	b.sess.EndDrag()
}

// answer adds a labelled option to id and returns it with its new target.
func (b *builder) answer(id flow.NodeID, label string) (flow.OptionID, flow.NodeID) {
	if b.err != nil {
		return "", ""
	}
	var opt flow.OptionID
	var target flow.NodeID
	opt, target, b.err = b.sess.AddOption(id)
	if b.err != nil {
		return "", ""
	}
	b.err = b.sess.UpdateOptionText(id, opt, label)
	return opt, target
}

// buildSample turns the root node of a fresh session into a small
// coffee-or-tea flow with a branch that loops back to the start.
func buildSample(sess *session.Session, layout sampleLayout) error {
	b := &builder{sess: sess}

	root, ok := sess.Snapshot().First()
	if !ok {
		return flow.ErrEmptyFlow
	}
	b.text(root, "Coffee or tea?")
	b.place(root, layout[0])

	_, coffee := b.answer(root, "Coffee")
	_, tea := b.answer(root, "Tea")

	b.text(coffee, "How do you take it?")
	b.place(coffee, layout[1])
	_, black := b.answer(coffee, "Black")
	_, milk := b.answer(coffee, "With milk")
	b.text(black, "One espresso, coming up.")
	b.place(black, layout[2])
	b.text(milk, "A flat white it is.")
	b.place(milk, layout[3])

	b.text(tea, "Green or black?")
	b.place(tea, layout[4])
	_, green := b.answer(tea, "Green")
	b.text(green, "Sencha it is.")
	b.place(green, layout[5])

	again, spare := b.answer(tea, "Start over")
	if b.err != nil {
		return b.err
	}
	if _, err := sess.LinkOption(tea, again, root); err != nil {
		return err
	}
	if _, err := sess.DeleteNode(spare); err != nil {
		return err
	}
	return nil
}
