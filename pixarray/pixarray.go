package pixarray

import (
	"fmt"
)

const (
	GRB = iota
	BRG
	BGR
	GBR
	RGB
	RBG
)

var StringOrders map[string]int = map[string]int{
	"GRB": GRB,
	"BRG": BRG,
	"BGR": BGR,
	"GBR": GBR,
	"RGB": RGB,
	"RBG": RBG,
}

// Byte offsets of G, R and B within a pixel's triple.
var offsets map[int][]int = map[int][]int{
	GRB: {0, 1, 2},
	BRG: {2, 1, 0},
	BGR: {1, 2, 0},
	GBR: {0, 2, 1},
	RGB: {1, 0, 2},
	RBG: {2, 0, 1},
}

// Packed colors are 0x00RRGGBB, whatever order the strip wants the bytes in.
const (
	Red   = 0xff0000
	Green = 0x00ff00
	Blue  = 0x0000ff
)

type Pixel struct {
	R uint8
	G uint8
	B uint8
}

func (p *Pixel) String() string {
	return fmt.Sprintf("%02x%02x%02x", p.R, p.G, p.B)
}

func (p Pixel) Packed() uint32 {
	return Color(p.R, p.G, p.B)
}

func Unpack(c uint32) Pixel {
	return Pixel{uint8(c >> 16), uint8(c >> 8), uint8(c)}
}

// Color packs separate channels into a packed color.
func Color(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Wheel maps 0-255 onto a hue circle: red at 0, green at 85, blue at 170 and
// back to red at 255.
func Wheel(pos uint8) uint32 {
	pos = 255 - pos
	if pos < 85 {
		return Color(255-pos*3, 0, pos*3)
	}
	if pos < 170 {
		pos -= 85
		return Color(0, pos*3, 255-pos*3)
	}
	pos -= 170
	return Color(pos*3, 255-pos*3, 0)
}
