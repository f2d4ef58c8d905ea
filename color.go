package main

import (
	"image/color"
)

// withOpacity multiplies the alpha of c by opacity.
func withOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(float64(c.A)*max(0, min(1, opacity)) + 0.5)
	return c
}

// disabled fades c the way disabled legend entries are drawn.
func disabled(c color.NRGBA) color.NRGBA {
	c.A = min(c.A, 100)
	return c
}

var (
	gridColor  = color.NRGBA{A: 40}
	axisColor  = color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
	labelColor = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
)
