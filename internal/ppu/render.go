package ppu

import "famicore/internal/mapper"

// The rendering pipeline. Clock advances one dot; the harness calls it
// three times per CPU cycle. Background tile fetches run on the eight-dot
// hardware cadence so mappers watching the address bus (A12 counters,
// fetch-pattern heuristics) observe authentic traffic.

// Clock advances one PPU dot.
func (p *PPU) Clock(m mapper.Mapper) {
	visibleLine := p.scanline < VisibleHeight
	preRender := p.scanline == preRenderScanline
	renderLine := visibleLine || preRender
	rendering := p.renderingEnabled()

	if rendering && renderLine {
		p.clockBackground(m, visibleLine)
		p.clockSprites(m, visibleLine)
	}

	// VBlank entry at (241,1); exit and flag clears at pre-render dot 1.
	if p.scanline == vblankScanline && p.dot == 1 {
		if !p.suppressVBlank {
			p.status |= statusVBlank
		}
		p.suppressVBlank = false
	}
	if preRender && p.dot == 1 {
		p.status &^= statusVBlank | statusSprite0 | statusOverflow
	}

	p.advanceDot(rendering)
}

func (p *PPU) advanceDot(rendering bool) {
	// Odd frames skip the idle dot at the end of the pre-render line when
	// rendering is on.
	if rendering && p.oddFrame && p.scanline == preRenderScanline && p.dot == 339 {
		p.dot = 0
		p.scanline = 0
		p.frame++
		p.oddFrame = !p.oddFrame
		return
	}
	p.dot++
	if p.dot >= DotsPerScanline {
		p.dot = 0
		p.scanline++
		if p.scanline >= ScanlinesPerFrame {
			p.scanline = 0
			p.frame++
			p.oddFrame = !p.oddFrame
		}
	}
}

// clockBackground runs the tile fetch cadence and emits one pixel on
// visible dots.
func (p *PPU) clockBackground(m mapper.Mapper, visibleLine bool) {
	dot := p.dot
	fetchDot := (dot >= 1 && dot <= 256) || (dot >= 321 && dot <= 336)

	if visibleLine && dot >= 1 && dot <= 256 {
		p.emitPixel()
	}

	if fetchDot {
		p.bgPatternLow <<= 1
		p.bgPatternHigh <<= 1
		p.bgAttrLow <<= 1
		p.bgAttrHigh <<= 1

		switch dot % 8 {
		case 1:
			address := 0x2000 | (p.v & 0x0FFF)
			p.ntLatch = p.read(m, address)
		case 3:
			address := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
			attribute := p.read(m, address)
			shift := ((p.v >> 4) & 0x04) | (p.v & 0x02)
			p.attrLatch = (attribute >> shift) & 0x03
		case 5:
			p.patternLowLatch = p.read(m, p.tileAddress(false))
		case 7:
			p.patternHighLatch = p.read(m, p.tileAddress(true))
		case 0:
			p.reloadShifters()
			p.incrementX()
		}
	}

	switch {
	case dot == 256:
		p.incrementY()
	case dot == 257:
		p.copyX()
	case p.scanline == preRenderScanline && dot >= 280 && dot <= 304:
		p.copyY()
	}

	// The two dummy nametable fetches at the end of the line still hit the
	// bus; MMC5's scanline detector depends on them.
	if dot == 337 || dot == 339 {
		p.read(m, 0x2000|(p.v&0x0FFF))
	}
}

// tileAddress forms the pattern address for the latched nametable entry.
func (p *PPU) tileAddress(highPlane bool) uint16 {
	table := uint16(0)
	if p.ctrl&ctrlBackgroundTable != 0 {
		table = 0x1000
	}
	fineY := (p.v >> 12) & 0x07
	address := table + uint16(p.ntLatch)*16 + fineY
	if highPlane {
		address += 8
	}
	return address
}

func (p *PPU) reloadShifters() {
	p.bgPatternLow = (p.bgPatternLow & 0xFF00) | uint16(p.patternLowLatch)
	p.bgPatternHigh = (p.bgPatternHigh & 0xFF00) | uint16(p.patternHighLatch)
	var attrLow, attrHigh uint16
	if p.attrLatch&0x01 != 0 {
		attrLow = 0x00FF
	}
	if p.attrLatch&0x02 != 0 {
		attrHigh = 0x00FF
	}
	p.bgAttrLow = (p.bgAttrLow & 0xFF00) | attrLow
	p.bgAttrHigh = (p.bgAttrHigh & 0xFF00) | attrHigh
}

// backgroundPixel selects the shifted bit pair under fine X.
func (p *PPU) backgroundPixel(x int) (colour uint8, palette uint8) {
	if p.mask&maskShowBG == 0 {
		return 0, 0
	}
	if x < 8 && p.mask&maskShowLeftBG == 0 {
		return 0, 0
	}
	selector := uint16(0x8000) >> p.x
	if p.bgPatternLow&selector != 0 {
		colour |= 0x01
	}
	if p.bgPatternHigh&selector != 0 {
		colour |= 0x02
	}
	if p.bgAttrLow&selector != 0 {
		palette |= 0x01
	}
	if p.bgAttrHigh&selector != 0 {
		palette |= 0x02
	}
	return colour, palette
}

// spritePixel scans the line's fetched sprites for the first opaque pixel.
func (p *PPU) spritePixel(x int) (colour, palette uint8, behind, isZero bool) {
	if p.mask&maskShowSprites == 0 {
		return 0, 0, false, false
	}
	if x < 8 && p.mask&maskShowLeftSprite == 0 {
		return 0, 0, false, false
	}
	for i := 0; i < p.spriteCount; i++ {
		offset := x - int(p.spriteX[i])
		if offset < 0 || offset > 7 {
			continue
		}
		pixel := p.spritePatterns[i][offset]
		if pixel == 0 {
			continue
		}
		return pixel, p.spriteAttr[i]&0x03 + 4, p.spriteAttr[i]&0x20 != 0, p.spriteIsZero[i]
	}
	return 0, 0, false, false
}

// emitPixel combines background and sprite pixels with priority and writes
// the framebuffer entry.
func (p *PPU) emitPixel() {
	x := p.dot - 1
	y := p.scanline

	bgColour, bgPalette := p.backgroundPixel(x)
	spColour, spPalette, behind, isZero := p.spritePixel(x)

	var paletteAddress uint16
	switch {
	case bgColour == 0 && spColour == 0:
		paletteAddress = 0x3F00
	case bgColour == 0:
		paletteAddress = 0x3F00 + uint16(spPalette)*4 + uint16(spColour)
	case spColour == 0:
		paletteAddress = 0x3F00 + uint16(bgPalette)*4 + uint16(bgColour)
	default:
		// Both opaque: sprite 0 hit, then priority.
		if isZero && x != 255 {
			p.status |= statusSprite0
		}
		if behind {
			paletteAddress = 0x3F00 + uint16(bgPalette)*4 + uint16(bgColour)
		} else {
			paletteAddress = 0x3F00 + uint16(spPalette)*4 + uint16(spColour)
		}
	}

	index := uint16(p.readPalette(paletteAddress))
	index |= uint16(p.mask&maskEmphasis) << 1 // emphasis into bits 6-8
	p.framebuffer[y*VisibleWidth+x] = index
}

// clockSprites schedules secondary OAM clear, evaluation and pattern
// fetches at their documented dot positions.
func (p *PPU) clockSprites(m mapper.Mapper, visibleLine bool) {
	switch p.dot {
	case 1:
		if visibleLine || p.scanline == preRenderScanline {
			for i := range p.secondaryOAM {
				p.secondaryOAM[i] = 0xFF
			}
		}
	case 257:
		if visibleLine {
			p.evaluateSprites()
		} else {
			p.spriteCount = 0
		}
	case 260:
		// Pattern fetches for the next line occupy dots 257-320; the bus
		// traffic is issued here in fetch order so A12 watchers see the
		// per-sprite toggles.
		p.fetchSpritePatterns(m)
	}
}

func (p *PPU) spriteHeight() int {
	if p.ctrl&ctrlSpriteSize16 != 0 {
		return 16
	}
	return 8
}

// evaluateSprites scans primary OAM for sprites covering the next line,
// copying up to eight into secondary OAM. The ninth candidate sets the
// overflow flag; after eight hits the scan continues with the hardware's
// buggy diagonal index, so false positives occur exactly as on silicon.
func (p *PPU) evaluateSprites() {
	height := p.spriteHeight()
	line := p.scanline
	count := 0
	for i := range p.spriteIsZero {
		p.spriteIsZero[i] = false
	}

	n := 0
	for ; n < 64 && count < 8; n++ {
		y := int(p.oam[n*4])
		if line >= y && line < y+height {
			copy(p.secondaryOAM[count*4:], p.oam[n*4:n*4+4])
			p.spriteIsZero[count] = n == 0
			count++
		}
	}

	if count == 8 && p.status&statusOverflow == 0 {
		// Diagonal scan: m advances with n once eight sprites are found,
		// reading the wrong byte as the candidate Y.
		m := 0
		for ; n < 64; n++ {
			y := int(p.oam[n*4+m])
			if line >= y && line < y+height {
				p.status |= statusOverflow
				break
			}
			m = (m + 1) & 3
		}
	}

	p.spriteCount = count
}

// fetchSpritePatterns decodes the selected sprites' pattern rows for the
// next scanline, issuing the pattern-space bus accesses as it goes.
func (p *PPU) fetchSpritePatterns(m mapper.Mapper) {
	height := p.spriteHeight()
	line := p.scanline

	for i := 0; i < 8; i++ {
		if i >= p.spriteCount {
			// Idle fetches still strobe the sprite pattern table.
			table := uint16(0)
			if p.ctrl&ctrlSpriteTable != 0 {
				table = 0x1000
			}
			m.AccessPPU(table + 0xFF0)
			continue
		}
		y := int(p.secondaryOAM[i*4])
		tile := p.secondaryOAM[i*4+1]
		attr := p.secondaryOAM[i*4+2]
		p.spriteAttr[i] = attr
		p.spriteX[i] = p.secondaryOAM[i*4+3]

		row := line - y
		if attr&0x80 != 0 {
			row = height - 1 - row
		}

		var address uint16
		if height == 16 {
			table := uint16(tile&0x01) << 12
			tileIndex := uint16(tile & 0xFE)
			if row >= 8 {
				tileIndex++
				row -= 8
			}
			address = table + tileIndex*16 + uint16(row)
		} else {
			table := uint16(0)
			if p.ctrl&ctrlSpriteTable != 0 {
				table = 0x1000
			}
			address = table + uint16(tile)*16 + uint16(row)
		}

		low := p.read(m, address)
		high := p.read(m, address+8)

		for px := 0; px < 8; px++ {
			bit := 7 - px
			if attr&0x40 != 0 {
				bit = px // horizontal flip
			}
			var pixel uint8
			if low&(1<<bit) != 0 {
				pixel |= 0x01
			}
			if high&(1<<bit) != 0 {
				pixel |= 0x02
			}
			p.spritePatterns[i][px] = pixel
		}
	}
}
