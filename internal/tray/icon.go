package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"github.com/jmylchreest/brightnessd/pkg/brightness"
)

const iconSize = 22

var (
	iconMu    sync.Mutex
	iconCache = map[int][]byte{}
)

// iconBucket maps a level onto one of five icon variants. Unknown is -1.
func iconBucket(level brightness.Level, known bool) int {
	if !known {
		return -1
	}
	return int(level.Clamp()+12) / 25
}

// Icon returns a PNG sun glyph whose core is filled in proportion to level.
func Icon(level brightness.Level, known bool) []byte {
	bucket := iconBucket(level, known)

	iconMu.Lock()
	defer iconMu.Unlock()
	if b, ok := iconCache[bucket]; ok {
		return b
	}
	b := renderIcon(bucket)
	iconCache[bucket] = b
	return b
}

var blankIcon = sync.OnceValue(func() []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize)))
	return buf.Bytes()
})

// BlankIcon returns a fully transparent PNG, shown while nothing is attached.
func BlankIcon() []byte {
	return blankIcon()
}

func renderIcon(bucket int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	fg := color.NRGBA{R: 0xee, G: 0xee, B: 0xec, A: 0xff}
	if bucket < 0 {
		fg.A = 0x80
	}

	c := float64(iconSize-1) / 2
	fill := 0.0
	if bucket > 0 {
		fill = float64(bucket) / 4
	}
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			r := math.Hypot(dx, dy)
			switch {
			case r <= 5:
				// core fills bottom-up with the level
				if r >= 4 || float64(y) >= c+5-10*fill {
					img.SetNRGBA(x, y, fg)
				}
			case r >= 7 && r <= 10 && onRay(dx, dy):
				img.SetNRGBA(x, y, fg)
			}
		}
	}

	var buf bytes.Buffer
	// encoding an in-memory NRGBA image can't fail
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// onRay reports whether the offset lies on one of eight rays.
func onRay(dx, dy float64) bool {
	a := math.Atan2(dy, dx)
	step := math.Pi / 4
	off := math.Mod(math.Abs(a)+step/2, step) - step/2
	return math.Abs(off)*math.Hypot(dx, dy) < 0.9
}
