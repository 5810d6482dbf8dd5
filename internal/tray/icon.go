package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"

	"github.com/mcp-shark/sharkctl/internal/panel"
)

const iconSize = 32

var (
	colorTraffic = color.RGBA{R: 0x04, G: 0xB5, B: 0x75, A: 0xFF}
	colorSetup   = color.RGBA{R: 0xF2, G: 0xA9, B: 0x00, A: 0xFF}
	colorStopped = color.RGBA{R: 0x8A, G: 0x8A, B: 0x8A, A: 0xFF}
)

func routeColor(route panel.Route) color.RGBA {
	switch route {
	case panel.RouteTraffic:
		return colorTraffic
	case panel.RouteSetup, panel.RouteStarting:
		return colorSetup
	default:
		return colorStopped
	}
}

// iconPNG draws a filled dot in the color of route
func iconPNG(route panel.Route) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	c := routeColor(route)

	center := float64(iconSize-1) / 2
	radius := float64(iconSize)/2 - 2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			if dx*dx+dy*dy <= radius*radius {
				img.SetRGBA(x, y, c)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wrapICO packs a PNG into a single-image .ico container, which Windows
// requires for tray icons
func wrapICO(pngData []byte) []byte {
	var buf bytes.Buffer
	// ICONDIR: reserved, type 1 (icon), one image
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.WriteByte(iconSize)
	buf.WriteByte(iconSize)
	buf.WriteByte(0) // palette
	buf.WriteByte(0) // reserved
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))  // planes
	_ = binary.Write(&buf, binary.LittleEndian, uint16(32)) // bits per pixel
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pngData)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(6+16))
	buf.Write(pngData)
	return buf.Bytes()
}

// Icon returns the tray icon for route in the format goos expects
func Icon(route panel.Route, goos string) ([]byte, error) {
	data, err := iconPNG(route)
	if err != nil {
		return nil, err
	}
	if goos == "windows" {
		return wrapICO(data), nil
	}
	return data, nil
}
