package main

import "github.com/fatih/color"

// Terminal colours for line-mode output.
var (
	colorBrand  = color.New(color.FgHiGreen, color.Bold)
	colorSubtle = color.New(color.FgHiBlack)
	colorWarn   = color.New(color.FgYellow)
	colorInfo   = color.New(color.FgCyan)
	colorGood   = color.New(color.FgGreen)
	colorBad    = color.New(color.FgRed)
)
