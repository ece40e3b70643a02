package main

import "github.com/fatih/color"

var (
	uiBrand  = color.New(color.FgHiBlue, color.Bold)
	uiSubtle = color.New(color.FgHiBlack)
	uiWarn   = color.New(color.FgYellow)
	uiGood   = color.New(color.FgGreen)
	uiBad    = color.New(color.FgRed)
)
