package font

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"unicode"
)

// ErrNoGlyphs is reported when font assembly is attempted with zero
// surviving characters.
var ErrNoGlyphs = errors.New("no glyphs to assemble")

// Metrics carries the font's identifying names. Vertical metrics are fixed
// by the design-space constants.
type Metrics struct {
	FamilyName string
	StyleName  string
}

// DefaultMetrics returns the name defaults used by the pipeline.
func DefaultMetrics() Metrics {
	return Metrics{FamilyName: "Handwriting", StyleName: "Regular"}
}

// Build assembles a complete TrueType font from placed glyph outlines.
//
// The glyph order is always: .notdef (a rectangle-outline placeholder),
// space (no outline, quarter-em advance), then one glyph per character in
// codepoint order. Each character's lowercase codepoint maps to its glyph;
// when the character has a distinct uppercase form, the uppercase codepoint
// maps to the same glyph, sharing outline and advance width.
//
// Characters whose placement carries no drawable commands are skipped.
// Build fails with ErrNoGlyphs when nothing remains.
//
// The produced bytes are a directly installable font container: glyf/loca
// outlines (cubics approximated by quadratic B-splines), a format 4 cmap,
// hmtx, head, hhea, maxp, name, post and OS/2 tables with correct
// checksums and checkSumAdjustment.
func Build(placements map[rune]*Placement, m Metrics) ([]byte, error) {
	chars := make([]rune, 0, len(placements))
	for r, p := range placements {
		if p == nil || len(p.Commands) == 0 {
			continue
		}
		chars = append(chars, r)
	}
	if len(chars) == 0 {
		return nil, ErrNoGlyphs
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })

	glyphs := []builtGlyph{notdefGlyph(), spaceGlyph()}
	for _, r := range chars {
		p := placements[r]
		g := builtGlyph{
			name:     fmt.Sprintf("uni%04X", r),
			advance:  uint16(clampU16(p.Advance)),
			lsb:      int16(p.LeftBearing),
			contours: commandsToContours(p.Commands),
		}
		glyphs = append(glyphs, g)
	}

	// Character map: space plus lowercase/uppercase pairs sharing a glyph.
	codeToGlyph := map[rune]uint16{' ': 1}
	for i, r := range chars {
		gid := uint16(2 + i)
		codeToGlyph[r] = gid
		if upper := unicode.ToUpper(r); upper != r {
			codeToGlyph[upper] = gid
		}
	}

	return assemble(glyphs, codeToGlyph, m)
}

// builtGlyph is one glyph ready for table serialization.
type builtGlyph struct {
	name     string
	advance  uint16
	lsb      int16
	contours []contour
}

type ttPoint struct {
	x, y    int16
	onCurve bool
}

type contour []ttPoint

// notdefGlyph is the placeholder shown for unmapped characters: a
// rectangle outline with an inner cutout.
func notdefGlyph() builtGlyph {
	outer := contour{
		{100, 0, true}, {100, 700, true}, {500, 700, true}, {500, 0, true},
	}
	inner := contour{
		{150, 50, true}, {450, 50, true}, {450, 650, true}, {150, 650, true},
	}
	return builtGlyph{
		name:     ".notdef",
		advance:  600,
		lsb:      100,
		contours: []contour{outer, inner},
	}
}

// spaceGlyph has no outline and a quarter-em advance.
func spaceGlyph() builtGlyph {
	return builtGlyph{name: "space", advance: UnitsPerEm / 4, lsb: 0}
}

// commandsToContours converts a command sequence to TrueType contours.
//
// TrueType outlines store quadratic B-splines, so cubic segments are
// approximated by quadratics via midpoint subdivision (four quadratics per
// cubic keeps the error well under one design unit at this scale).
// Contours with fewer than three points are dropped as undrawable.
func commandsToContours(cmds []Command) []contour {
	var out []contour
	var cur contour
	var curX, curY float64

	flush := func() {
		if len(cur) >= 3 {
			// The closing point duplicates the start in path data;
			// TrueType contours close implicitly.
			last := cur[len(cur)-1]
			first := cur[0]
			if last.onCurve && last.x == first.x && last.y == first.y {
				cur = cur[:len(cur)-1]
			}
			if len(cur) >= 3 {
				out = append(out, cur)
			}
		}
		cur = nil
	}
	pt := func(x, y float64, on bool) ttPoint {
		return ttPoint{x: int16(math.Round(x)), y: int16(math.Round(y)), onCurve: on}
	}

	for _, c := range cmds {
		switch c := c.(type) {
		case MoveTo:
			flush()
			cur = append(cur, pt(c.X, c.Y, true))
			curX, curY = c.X, c.Y
		case LineTo:
			cur = append(cur, pt(c.X, c.Y, true))
			curX, curY = c.X, c.Y
		case QuadTo:
			cur = append(cur, pt(c.X1, c.Y1, false), pt(c.X, c.Y, true))
			curX, curY = c.X, c.Y
		case CubicTo:
			for _, q := range cubicToQuads(curX, curY, c.X1, c.Y1, c.X2, c.Y2, c.X, c.Y) {
				cur = append(cur, pt(q[0], q[1], false), pt(q[2], q[3], true))
			}
			curX, curY = c.X, c.Y
		case Close:
			flush()
		}
	}
	flush()
	return out
}

// cubicToQuads approximates a cubic Bezier by quadratics. The cubic is
// split at the midpoint twice (four pieces); each piece is replaced by the
// quadratic whose control point is (3*(c1+c2) - (p0+p3)) / 4.
// Returns quads as [ctrlX, ctrlY, endX, endY].
func cubicToQuads(x0, y0, x1, y1, x2, y2, x3, y3 float64) [][4]float64 {
	type cubic struct{ x0, y0, x1, y1, x2, y2, x3, y3 float64 }

	split := func(c cubic) (cubic, cubic) {
		mid := func(ax, ay, bx, by float64) (float64, float64) {
			return (ax + bx) / 2, (ay + by) / 2
		}
		abX, abY := mid(c.x0, c.y0, c.x1, c.y1)
		bcX, bcY := mid(c.x1, c.y1, c.x2, c.y2)
		cdX, cdY := mid(c.x2, c.y2, c.x3, c.y3)
		abcX, abcY := mid(abX, abY, bcX, bcY)
		bcdX, bcdY := mid(bcX, bcY, cdX, cdY)
		mX, mY := mid(abcX, abcY, bcdX, bcdY)
		return cubic{c.x0, c.y0, abX, abY, abcX, abcY, mX, mY},
			cubic{mX, mY, bcdX, bcdY, cdX, cdY, c.x3, c.y3}
	}

	root := cubic{x0, y0, x1, y1, x2, y2, x3, y3}
	l, r := split(root)
	ll, lr := split(l)
	rl, rr := split(r)

	quads := make([][4]float64, 0, 4)
	for _, c := range []cubic{ll, lr, rl, rr} {
		ctrlX := (3*(c.x1+c.x2) - (c.x0 + c.x3)) / 4
		ctrlY := (3*(c.y1+c.y2) - (c.y0 + c.y3)) / 4
		quads = append(quads, [4]float64{ctrlX, ctrlY, c.x3, c.y3})
	}
	return quads
}

func clampU16(v int) int {
	if v < 0 {
		return 0
	}
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return v
}

// bin is a big-endian byte builder, the unit every table is written with.
type bin struct {
	buf []byte
}

func (b *bin) u8(v uint8)   { b.buf = append(b.buf, v) }
func (b *bin) u16(v uint16) { b.buf = binary.BigEndian.AppendUint16(b.buf, v) }
func (b *bin) i16(v int16)  { b.u16(uint16(v)) }
func (b *bin) u32(v uint32) { b.buf = binary.BigEndian.AppendUint32(b.buf, v) }
func (b *bin) i32(v int32)  { b.u32(uint32(v)) }
func (b *bin) raw(p []byte) { b.buf = append(b.buf, p...) }

func (b *bin) padTo(align int) {
	for len(b.buf)%align != 0 {
		b.buf = append(b.buf, 0)
	}
}

// glyphBounds returns the extent of a glyph's points; ok=false for empty
// glyphs.
func glyphBounds(g builtGlyph) (xMin, yMin, xMax, yMax int16, ok bool) {
	first := true
	for _, c := range g.contours {
		for _, p := range c {
			if first {
				xMin, xMax, yMin, yMax = p.x, p.x, p.y, p.y
				first = false
				continue
			}
			if p.x < xMin {
				xMin = p.x
			}
			if p.x > xMax {
				xMax = p.x
			}
			if p.y < yMin {
				yMin = p.y
			}
			if p.y > yMax {
				yMax = p.y
			}
		}
	}
	return xMin, yMin, xMax, yMax, !first
}

// serializeGlyf writes one simple glyph. Coordinates are stored as full
// int16 deltas with one flag byte per point; no flag compression is
// attempted, correctness over byte-shaving.
func serializeGlyf(g builtGlyph) []byte {
	if len(g.contours) == 0 {
		return nil
	}
	xMin, yMin, xMax, yMax, _ := glyphBounds(g)

	w := &bin{}
	w.i16(int16(len(g.contours)))
	w.i16(xMin)
	w.i16(yMin)
	w.i16(xMax)
	w.i16(yMax)

	total := 0
	for _, c := range g.contours {
		total += len(c)
		w.u16(uint16(total - 1))
	}
	w.u16(0) // instructionLength

	for _, c := range g.contours {
		for _, p := range c {
			if p.onCurve {
				w.u8(0x01)
			} else {
				w.u8(0x00)
			}
		}
	}

	prev := int16(0)
	for _, c := range g.contours {
		for _, p := range c {
			w.i16(p.x - prev)
			prev = p.x
		}
	}
	prev = 0
	for _, c := range g.contours {
		for _, p := range c {
			w.i16(p.y - prev)
			prev = p.y
		}
	}
	return w.buf
}

// tableChecksum sums a table as big-endian uint32 words, zero-padded.
func tableChecksum(data []byte) uint32 {
	var sum uint32
	for i := 0; i < len(data); i += 4 {
		var word uint32
		for j := 0; j < 4; j++ {
			word <<= 8
			if i+j < len(data) {
				word |= uint32(data[i+j])
			}
		}
		sum += word
	}
	return sum
}

// assemble lays out all tables and the font directory.
func assemble(glyphs []builtGlyph, codeToGlyph map[rune]uint16, m Metrics) ([]byte, error) {
	numGlyphs := len(glyphs)

	// glyf + loca (long format).
	glyf := &bin{}
	loca := &bin{}
	for _, g := range glyphs {
		loca.u32(uint32(len(glyf.buf)))
		glyf.raw(serializeGlyf(g))
		glyf.padTo(2)
	}
	loca.u32(uint32(len(glyf.buf)))

	// Global extents and metrics aggregates.
	var xMin, yMin, xMax, yMax int16 = 0, 0, 0, 0
	var advanceMax uint16
	var minLSB, minRSB, xMaxExtent int16
	maxPoints, maxContours := 0, 0
	firstExtent := true
	for _, g := range glyphs {
		if g.advance > advanceMax {
			advanceMax = g.advance
		}
		points := 0
		for _, c := range g.contours {
			points += len(c)
		}
		if points > maxPoints {
			maxPoints = points
		}
		if len(g.contours) > maxContours {
			maxContours = len(g.contours)
		}
		gx1, gy1, gx2, gy2, ok := glyphBounds(g)
		if !ok {
			continue
		}
		rsb := int16(int(g.advance) - int(g.lsb) - int(gx2-gx1))
		if firstExtent {
			xMin, yMin, xMax, yMax = gx1, gy1, gx2, gy2
			minLSB, minRSB, xMaxExtent = g.lsb, rsb, gx2
			firstExtent = false
		} else {
			if gx1 < xMin {
				xMin = gx1
			}
			if gy1 < yMin {
				yMin = gy1
			}
			if gx2 > xMax {
				xMax = gx2
			}
			if gy2 > yMax {
				yMax = gy2
			}
			if g.lsb < minLSB {
				minLSB = g.lsb
			}
			if rsb < minRSB {
				minRSB = rsb
			}
			if gx2 > xMaxExtent {
				xMaxExtent = gx2
			}
		}
	}

	head := buildHead(xMin, yMin, xMax, yMax)
	hhea := buildHhea(advanceMax, minLSB, minRSB, xMaxExtent, numGlyphs)
	maxp := buildMaxp(numGlyphs, maxPoints, maxContours)
	hmtx := buildHmtx(glyphs)
	cmap := buildCmap(codeToGlyph)
	name := buildName(m)
	post := buildPost()
	os2 := buildOS2(glyphs, codeToGlyph)

	tables := []struct {
		tag  string
		data []byte
	}{
		{"OS/2", os2},
		{"cmap", cmap},
		{"glyf", glyf.buf},
		{"head", head},
		{"hhea", hhea},
		{"hmtx", hmtx},
		{"loca", loca.buf},
		{"maxp", maxp},
		{"name", name},
		{"post", post},
	}

	numTables := len(tables)
	entrySelector := 0
	for 1<<(entrySelector+1) <= numTables {
		entrySelector++
	}
	searchRange := (1 << entrySelector) * 16

	out := &bin{}
	out.u32(0x00010000) // sfnt version: TrueType outlines
	out.u16(uint16(numTables))
	out.u16(uint16(searchRange))
	out.u16(uint16(entrySelector))
	out.u16(uint16(numTables*16 - searchRange))

	offset := 12 + numTables*16
	headOffset := 0
	for _, t := range tables {
		out.raw([]byte(t.tag))
		out.u32(tableChecksum(t.data))
		out.u32(uint32(offset))
		out.u32(uint32(len(t.data)))
		if t.tag == "head" {
			headOffset = offset
		}
		offset += (len(t.data) + 3) &^ 3
	}
	for _, t := range tables {
		out.raw(t.data)
		out.padTo(4)
	}

	// checkSumAdjustment: 0xB1B0AFBA minus the checksum of the whole font,
	// written into head at byte offset 8.
	adjustment := 0xB1B0AFBA - tableChecksum(out.buf)
	binary.BigEndian.PutUint32(out.buf[headOffset+8:], adjustment)

	return out.buf, nil
}

func buildHead(xMin, yMin, xMax, yMax int16) []byte {
	w := &bin{}
	w.u32(0x00010000) // version
	w.u32(0x00010000) // fontRevision
	w.u32(0)          // checkSumAdjustment, patched after assembly
	w.u32(0x5F0F3CF5) // magicNumber
	w.u16(0x0003)     // flags: baseline at y=0, left sidebearing at x=0
	w.u16(UnitsPerEm)
	w.u32(0) // created (high)
	w.u32(0)
	w.u32(0) // modified (high)
	w.u32(0)
	w.i16(xMin)
	w.i16(yMin)
	w.i16(xMax)
	w.i16(yMax)
	w.u16(0) // macStyle
	w.u16(8) // lowestRecPPEM
	w.i16(2) // fontDirectionHint
	w.i16(1) // indexToLocFormat: long
	w.i16(0) // glyphDataFormat
	return w.buf
}

func buildHhea(advanceMax uint16, minLSB, minRSB, xMaxExtent int16, numGlyphs int) []byte {
	w := &bin{}
	w.u32(0x00010000)
	w.i16(Ascender)
	w.i16(Descender)
	w.i16(0) // lineGap
	w.u16(advanceMax)
	w.i16(minLSB)
	w.i16(minRSB)
	w.i16(xMaxExtent)
	w.i16(1) // caretSlopeRise
	w.i16(0) // caretSlopeRun
	w.i16(0) // caretOffset
	for i := 0; i < 4; i++ {
		w.i16(0) // reserved
	}
	w.i16(0) // metricDataFormat
	w.u16(uint16(numGlyphs))
	return w.buf
}

func buildMaxp(numGlyphs, maxPoints, maxContours int) []byte {
	w := &bin{}
	w.u32(0x00010000)
	w.u16(uint16(numGlyphs))
	w.u16(uint16(maxPoints))
	w.u16(uint16(maxContours))
	w.u16(0) // maxCompositePoints
	w.u16(0) // maxCompositeContours
	w.u16(2) // maxZones
	w.u16(0) // maxTwilightPoints
	w.u16(0) // maxStorage
	w.u16(0) // maxFunctionDefs
	w.u16(0) // maxInstructionDefs
	w.u16(0) // maxStackElements
	w.u16(0) // maxSizeOfInstructions
	w.u16(0) // maxComponentElements
	w.u16(0) // maxComponentDepth
	return w.buf
}

func buildHmtx(glyphs []builtGlyph) []byte {
	w := &bin{}
	for _, g := range glyphs {
		w.u16(g.advance)
		w.i16(g.lsb)
	}
	return w.buf
}

// buildCmap writes a format 4 subtable for Windows Unicode BMP (3,1) with
// one segment per mapped codepoint plus the required 0xFFFF terminator.
// Segment-per-codepoint trades a few bytes for not having to prove glyph
// ids are contiguous across ranges.
func buildCmap(codeToGlyph map[rune]uint16) []byte {
	codes := make([]rune, 0, len(codeToGlyph))
	for r := range codeToGlyph {
		codes = append(codes, r)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	segCount := len(codes) + 1

	sub := &bin{}
	sub.u16(4) // format
	sub.u16(uint16(16 + segCount*8))
	sub.u16(0) // language
	sub.u16(uint16(segCount * 2))
	entrySelector := 0
	for 1<<(entrySelector+1) <= segCount {
		entrySelector++
	}
	searchRange := (1 << entrySelector) * 2
	sub.u16(uint16(searchRange))
	sub.u16(uint16(entrySelector))
	sub.u16(uint16(segCount*2 - searchRange))

	for _, r := range codes {
		sub.u16(uint16(r)) // endCode
	}
	sub.u16(0xFFFF)
	sub.u16(0) // reservedPad
	for _, r := range codes {
		sub.u16(uint16(r)) // startCode
	}
	sub.u16(0xFFFF)
	for _, r := range codes {
		sub.u16(uint16(int(codeToGlyph[r]) - int(r))) // idDelta, mod 65536
	}
	sub.u16(1) // terminator: 0xFFFF + 1 wraps to glyph 0
	for i := 0; i < segCount; i++ {
		sub.u16(0) // idRangeOffset
	}

	w := &bin{}
	w.u16(0) // version
	w.u16(1) // numTables
	w.u16(3) // platformID: Windows
	w.u16(1) // encodingID: Unicode BMP
	w.u32(12)
	w.raw(sub.buf)
	return w.buf
}

func buildName(m Metrics) []byte {
	full := m.FamilyName + " " + m.StyleName
	ps := ""
	for _, r := range m.FamilyName + "-" + m.StyleName {
		if r != ' ' {
			ps += string(r)
		}
	}

	records := []struct {
		id    uint16
		value string
	}{
		{1, m.FamilyName},
		{2, m.StyleName},
		{3, full},
		{4, full},
		{6, ps},
	}

	storage := &bin{}
	w := &bin{}
	w.u16(0) // format
	w.u16(uint16(len(records)))
	w.u16(uint16(6 + len(records)*12))
	for _, rec := range records {
		encoded := utf16BE(rec.value)
		w.u16(3)      // platformID: Windows
		w.u16(1)      // encodingID: Unicode BMP
		w.u16(0x0409) // languageID: en-US
		w.u16(rec.id)
		w.u16(uint16(len(encoded)))
		w.u16(uint16(len(storage.buf)))
		storage.raw(encoded)
	}
	w.raw(storage.buf)
	return w.buf
}

func utf16BE(s string) []byte {
	var out []byte
	for _, r := range s {
		if r > 0xFFFF {
			r = '?'
		}
		out = append(out, byte(r>>8), byte(r))
	}
	return out
}

func buildPost() []byte {
	w := &bin{}
	w.u32(0x00030000) // version 3.0: no glyph names
	w.u32(0)          // italicAngle
	w.i16(-100)       // underlinePosition
	w.i16(50)         // underlineThickness
	w.u32(0)          // isFixedPitch
	w.u32(0)          // minMemType42
	w.u32(0)          // maxMemType42
	w.u32(0)          // minMemType1
	w.u32(0)          // maxMemType1
	return w.buf
}

func buildOS2(glyphs []builtGlyph, codeToGlyph map[rune]uint16) []byte {
	var first, last rune = 0xFFFF, 0
	var advanceSum int
	for r := range codeToGlyph {
		if r < first {
			first = r
		}
		if r > last {
			last = r
		}
	}
	for _, g := range glyphs {
		advanceSum += int(g.advance)
	}

	w := &bin{}
	w.u16(4) // version
	w.i16(int16(advanceSum / len(glyphs)))
	w.u16(400) // usWeightClass
	w.u16(5)   // usWidthClass
	w.u16(0)   // fsType: installable
	w.i16(650) // ySubscriptXSize
	w.i16(600) // ySubscriptYSize
	w.i16(0)   // ySubscriptXOffset
	w.i16(75)  // ySubscriptYOffset
	w.i16(650) // ySuperscriptXSize
	w.i16(600) // ySuperscriptYSize
	w.i16(0)   // ySuperscriptXOffset
	w.i16(350) // ySuperscriptYOffset
	w.i16(50)  // yStrikeoutSize
	w.i16(250) // yStrikeoutPosition
	w.i16(0)   // sFamilyClass
	for i := 0; i < 10; i++ {
		w.u8(0) // panose
	}
	w.u32(1) // ulUnicodeRange1: Basic Latin
	w.u32(0)
	w.u32(0)
	w.u32(0)
	w.raw([]byte("HNDF")) // achVendID
	w.u16(0x0040)         // fsSelection: REGULAR
	w.u16(uint16(first))
	w.u16(uint16(last))
	w.i16(Ascender)  // sTypoAscender
	w.i16(Descender) // sTypoDescender
	w.i16(0)         // sTypoLineGap
	w.u16(Ascender)  // usWinAscent
	w.u16(uint16(-Descender))
	w.u32(1)   // ulCodePageRange1: Latin 1
	w.u32(0)   // ulCodePageRange2
	w.i16(500) // sxHeight
	w.i16(700) // sCapHeight
	w.u16(0)   // usDefaultChar
	w.u16(32)  // usBreakChar
	w.u16(1)   // usMaxContext
	return w.buf
}
