package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Flash pattern: normal(0-125) -> inverted(125-250) -> normal(250-375) -> inverted(375-500) -> normal(500+)
func TestFlashInverted(t *testing.T) {
	tests := []struct {
		elapsed      int64
		wantInverted bool
		description  string
	}{
		{-10, false, "clock skew - normal"},
		{0, false, "start of flash - normal"},
		{124, false, "end of phase 0 - normal"},
		{125, true, "start of phase 1 - inverted"},
		{249, true, "end of phase 1 - inverted"},
		{250, false, "start of phase 2 - normal"},
		{375, true, "start of phase 3 - inverted"},
		{499, true, "end of phase 3 - inverted"},
		{500, false, "after flash period - normal"},
		{1000, false, "long after flash - normal"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.wantInverted, flashInverted(tt.elapsed))
		})
	}
}

func TestFlashes(t *testing.T) {
	assert.False(t, flashes(MsgInfo))
	assert.True(t, flashes(MsgError))
	assert.True(t, flashes(MsgSuccess))
	assert.True(t, flashes(MsgWarning))
}

func TestShowMessageRestartsFlash(t *testing.T) {
	ed, _ := newTestEditor(t)

	ed.showMessage("first", MsgError)
	first := ed.flashStart.Load()
	assert.NotZero(t, first)

	ed.flashStart.Store(first - 1000)
	ed.showMessage("second", MsgError)
	assert.GreaterOrEqual(t, ed.flashStart.Load(), first)
	assert.Equal(t, "second", ed.message)
}
