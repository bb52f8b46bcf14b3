// Package graphics turns the core's palette-index framebuffer into host
// pixels and provides the rendering backends.
package graphics

// masterPalette is the fixed 64-entry output palette in 0xRRGGBB.
var masterPalette = [64]uint32{
	0x666666, 0x002A88, 0x1412A7, 0x3B00A4, 0x5C007E, 0x6E0040, 0x6C0600, 0x561D00,
	0x333500, 0x0B4800, 0x005200, 0x004F08, 0x00404D, 0x000000, 0x000000, 0x000000,
	0xADADAD, 0x155FD9, 0x4240FF, 0x7527FE, 0xA01ACC, 0xB71E7B, 0xB53120, 0x994E00,
	0x6B6D00, 0x388700, 0x0C9300, 0x008F32, 0x007C8D, 0x000000, 0x000000, 0x000000,
	0xFFFEFF, 0x64B0FF, 0x9290FF, 0xC676FF, 0xF36AFF, 0xFE6ECC, 0xFE8170, 0xEA9E22,
	0xBCBE00, 0x88D800, 0x5CE430, 0x45E082, 0x48CDDE, 0x4F4F4F, 0x000000, 0x000000,
	0xFFFEFF, 0xC0DFFF, 0xD3D2FF, 0xE8C8FF, 0xFBC2FF, 0xFEC4EA, 0xFECCC5, 0xF7D8A5,
	0xE4E594, 0xCFEF96, 0xBDF4AB, 0xB3F3CC, 0xB5EBF2, 0xB8B8B8, 0x000000, 0x000000,
}

// emphasisFactors attenuates the non-emphasised colour components for each
// of the eight emphasis bit combinations (R, G, B order).
var emphasisFactors = [8][3]float64{
	{1.00, 1.00, 1.00},
	{1.00, 0.85, 0.85}, // emphasise red
	{0.85, 1.00, 0.85}, // emphasise green
	{0.85, 0.85, 0.70},
	{0.85, 0.85, 1.00}, // emphasise blue
	{0.85, 0.70, 0.85},
	{0.70, 0.85, 0.85},
	{0.70, 0.70, 0.70},
}

// ColourFor resolves one framebuffer entry: low six bits index the master
// palette, bits 6-8 carry the emphasis lines.
func ColourFor(entry uint16) uint32 {
	rgb := masterPalette[entry&0x3F]
	emphasis := (entry >> 6) & 0x07
	if emphasis == 0 {
		return rgb
	}
	factors := emphasisFactors[emphasis]
	r := uint32(float64(rgb>>16&0xFF) * factors[0])
	g := uint32(float64(rgb>>8&0xFF) * factors[1])
	b := uint32(float64(rgb&0xFF) * factors[2])
	return r<<16 | g<<8 | b
}
