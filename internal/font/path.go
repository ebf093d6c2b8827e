package font

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is one element of a glyph outline. Implementations are exactly
// MoveTo, LineTo, CubicTo, QuadTo and Close.
type Command interface {
	command()
}

// MoveTo starts a new subpath at (X, Y).
type MoveTo struct{ X, Y float64 }

// LineTo draws a straight segment to (X, Y).
type LineTo struct{ X, Y float64 }

// CubicTo draws a cubic Bezier to (X, Y) with control points (X1, Y1) and
// (X2, Y2).
type CubicTo struct{ X1, Y1, X2, Y2, X, Y float64 }

// QuadTo draws a quadratic Bezier to (X, Y) with control point (X1, Y1).
type QuadTo struct{ X1, Y1, X, Y float64 }

// Close closes the current subpath.
type Close struct{}

func (MoveTo) command()  {}
func (LineTo) command()  {}
func (CubicTo) command() {}
func (QuadTo) command()  {}
func (Close) command()   {}

// ParsePath parses SVG path data into a command sequence.
//
// Both absolute and relative command forms are handled; relative commands
// accumulate onto the running current point. The shorthand horizontal and
// vertical line commands (H/h, V/v) are expanded into full LineTo commands.
// Unknown or unsupported command letters (arcs, smooth shorthands - which
// the tracer never emits) are skipped along with their operands rather than
// reported as errors.
//
// Per the SVG grammar, extra coordinate pairs after a moveto are implicit
// linetos, and a command letter may be followed by multiple operand sets.
func ParsePath(d string) ([]Command, error) {
	toks, err := tokenizePath(d)
	if err != nil {
		return nil, err
	}

	var cmds []Command
	var curX, curY, startX, startY float64
	i := 0

	takeNums := func(n int) ([]float64, bool) {
		if i+n > len(toks) {
			return nil, false
		}
		nums := make([]float64, n)
		for j := 0; j < n; j++ {
			v, ok := toks[i+j].(float64)
			if !ok {
				return nil, false
			}
			nums[j] = v
		}
		i += n
		return nums, true
	}

	for i < len(toks) {
		letter, ok := toks[i].(byte)
		if !ok {
			return nil, fmt.Errorf("path data: expected command letter before %v", toks[i])
		}
		i++
		rel := letter >= 'a'
		upper := letter &^ 0x20

		switch upper {
		case 'M':
			first := true
			for {
				nums, ok := takeNums(2)
				if !ok {
					break
				}
				x, y := nums[0], nums[1]
				if rel {
					x += curX
					y += curY
				}
				if first {
					cmds = append(cmds, MoveTo{X: x, Y: y})
					startX, startY = x, y
					first = false
				} else {
					cmds = append(cmds, LineTo{X: x, Y: y})
				}
				curX, curY = x, y
			}
		case 'L':
			for {
				nums, ok := takeNums(2)
				if !ok {
					break
				}
				x, y := nums[0], nums[1]
				if rel {
					x += curX
					y += curY
				}
				cmds = append(cmds, LineTo{X: x, Y: y})
				curX, curY = x, y
			}
		case 'H':
			for {
				nums, ok := takeNums(1)
				if !ok {
					break
				}
				x := nums[0]
				if rel {
					x += curX
				}
				cmds = append(cmds, LineTo{X: x, Y: curY})
				curX = x
			}
		case 'V':
			for {
				nums, ok := takeNums(1)
				if !ok {
					break
				}
				y := nums[0]
				if rel {
					y += curY
				}
				cmds = append(cmds, LineTo{X: curX, Y: y})
				curY = y
			}
		case 'C':
			for {
				nums, ok := takeNums(6)
				if !ok {
					break
				}
				if rel {
					for j := 0; j < 6; j += 2 {
						nums[j] += curX
						nums[j+1] += curY
					}
				}
				cmds = append(cmds, CubicTo{
					X1: nums[0], Y1: nums[1],
					X2: nums[2], Y2: nums[3],
					X: nums[4], Y: nums[5],
				})
				curX, curY = nums[4], nums[5]
			}
		case 'Q':
			for {
				nums, ok := takeNums(4)
				if !ok {
					break
				}
				if rel {
					for j := 0; j < 4; j += 2 {
						nums[j] += curX
						nums[j+1] += curY
					}
				}
				cmds = append(cmds, QuadTo{
					X1: nums[0], Y1: nums[1],
					X: nums[2], Y: nums[3],
				})
				curX, curY = nums[2], nums[3]
			}
		case 'Z':
			cmds = append(cmds, Close{})
			curX, curY = startX, startY
		default:
			// Unsupported command: discard its operands and move on.
			for i < len(toks) {
				if _, isNum := toks[i].(float64); !isNum {
					break
				}
				i++
			}
		}
	}
	return cmds, nil
}

// tokenizePath splits path data into command letters (byte) and numbers
// (float64).
func tokenizePath(d string) ([]interface{}, error) {
	var toks []interface{}
	i := 0
	for i < len(d) {
		c := d[i]
		switch {
		case c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			i++
		case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z'):
			toks = append(toks, c)
			i++
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < len(d) {
				n := d[j]
				if (n >= '0' && n <= '9') || n == '.' || n == 'e' || n == 'E' {
					j++
					continue
				}
				// A sign continues the number only after an exponent marker.
				if (n == '-' || n == '+') && (d[j-1] == 'e' || d[j-1] == 'E') {
					j++
					continue
				}
				break
			}
			v, err := strconv.ParseFloat(d[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("path data: bad number %q: %w", d[i:j], err)
			}
			toks = append(toks, v)
			i = j
		default:
			return nil, fmt.Errorf("path data: unexpected character %q", string(c))
		}
	}
	return toks, nil
}

// Bounds is an axis-aligned extent in path coordinates.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns MaxX - MinX.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// BoundingBox computes the extent of a command sequence.
//
// Control points of curve commands are included, not just endpoints: a
// curve's true extremum always lies inside its control polygon, so the
// control-polygon box can never clip visible ink after scaling. Returns
// ok=false for a sequence with no coordinates.
func BoundingBox(cmds []Command) (Bounds, bool) {
	b := Bounds{}
	found := false
	add := func(x, y float64) {
		if !found {
			b = Bounds{MinX: x, MinY: y, MaxX: x, MaxY: y}
			found = true
			return
		}
		if x < b.MinX {
			b.MinX = x
		}
		if x > b.MaxX {
			b.MaxX = x
		}
		if y < b.MinY {
			b.MinY = y
		}
		if y > b.MaxY {
			b.MaxY = y
		}
	}

	for _, c := range cmds {
		switch c := c.(type) {
		case MoveTo:
			add(c.X, c.Y)
		case LineTo:
			add(c.X, c.Y)
		case CubicTo:
			add(c.X1, c.Y1)
			add(c.X2, c.Y2)
			add(c.X, c.Y)
		case QuadTo:
			add(c.X1, c.Y1)
			add(c.X, c.Y)
		case Close:
		}
	}
	return b, found
}

// FormatPath serializes commands back to absolute SVG path data. Primarily
// a debugging and test aid.
func FormatPath(cmds []Command) string {
	var sb strings.Builder
	for i, c := range cmds {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch c := c.(type) {
		case MoveTo:
			fmt.Fprintf(&sb, "M%g %g", c.X, c.Y)
		case LineTo:
			fmt.Fprintf(&sb, "L%g %g", c.X, c.Y)
		case CubicTo:
			fmt.Fprintf(&sb, "C%g %g %g %g %g %g", c.X1, c.Y1, c.X2, c.Y2, c.X, c.Y)
		case QuadTo:
			fmt.Fprintf(&sb, "Q%g %g %g %g", c.X1, c.Y1, c.X, c.Y)
		case Close:
			sb.WriteByte('Z')
		}
	}
	return sb.String()
}
