// Package term знает геометрию терминала и умеет выводить пиксельные
// буферы полублоками truecolor: одна ячейка — два пикселя по вертикали.
package term

import (
	"fmt"
	"image"
	"io"
	"os"
	"strconv"

	"golang.org/x/term"
)

// EnvUseUpperBlock switches the glyph strategy to the upper half block.
// Некоторые терминалы рисуют нижний полублок со щелью, там верхний
// вариант выглядит лучше.
const EnvUseUpperBlock = "TIMG_USE_UPPER_BLOCK"

// UseUpperBlock reports whether the alternate glyph strategy was
// requested: variable present and numerically non-zero.
func UseUpperBlock() bool {
	value := os.Getenv(EnvUseUpperBlock)
	if value == "" {
		return false
	}
	n, err := strconv.Atoi(value)
	return err == nil && n != 0
}

// SizeResult is the terminal-derived pixel budget.
type SizeResult struct {
	Valid  bool
	Width  int
	Height int
}

// DetermineSize probes stdout, stderr and stdin in turn for the
// character-cell geometry; the first descriptor connected to a terminal
// wins. Пиксельный бюджет: ширина = колонки, высота = 2*(строки-1) —
// одна строка остается под приглашение шелла.
func DetermineSize() SizeResult {
	for _, f := range []*os.File{os.Stdout, os.Stderr, os.Stdin} {
		cols, rows, err := term.GetSize(int(f.Fd()))
		if err == nil && cols > 0 && rows > 0 {
			return SizeResult{Valid: true, Width: cols, Height: 2 * (rows - 1)}
		}
	}
	return SizeResult{Valid: false, Width: -1, Height: -1}
}

const (
	lowerHalfBlock = "▄" // fg = нижний пиксель, bg = верхний
	upperHalfBlock = "▀" // fg = верхний пиксель, bg = нижний
)

// Canvas writes pixel buffers to a terminal as colored half blocks and
// owns the cursor visibility state.
type Canvas struct {
	out           io.Writer
	useUpperBlock bool
}

func NewCanvas(out io.Writer, useUpperBlock bool) *Canvas {
	return &Canvas{out: out, useUpperBlock: useUpperBlock}
}

func (c *Canvas) CursorOff() {
	fmt.Fprint(c.out, "\x1b[?25l")
}

func (c *Canvas) CursorOn() {
	fmt.Fprint(c.out, "\x1b[?25h")
}

// MoveUp rewinds the cursor by the given number of pixel rows so the
// next frame overwrites the previous one.
func (c *Canvas) MoveUp(pixelRows int) {
	if pixelRows <= 0 {
		return
	}
	fmt.Fprintf(c.out, "\x1b[%dA", (pixelRows+1)/2)
}

// WriteLine prints one text line (filename label) through the canvas.
func (c *Canvas) WriteLine(text string) {
	fmt.Fprintf(c.out, "%s\n", text)
}

// Draw renders the frame at the given horizontal cell offset. Каждая
// терминальная строка кодирует два пиксельных ряда; непарный последний
// ряд выводится верхним полублоком без фона.
func (c *Canvas) Draw(frame *image.RGBA, offsetX int) {
	b := frame.Bounds()
	width, height := b.Dx(), b.Dy()

	buf := make([]byte, 0, width*40)
	for y := 0; y < height; y += 2 {
		buf = buf[:0]
		if offsetX > 0 {
			buf = append(buf, fmt.Sprintf("\x1b[%dC", offsetX)...)
		}
		for x := 0; x < width; x++ {
			upper := frame.RGBAAt(b.Min.X+x, b.Min.Y+y)
			if y+1 >= height {
				// Последний непарный ряд.
				buf = appendSGR(buf, 38, upper.R, upper.G, upper.B)
				buf = append(buf, upperHalfBlock...)
				continue
			}
			lower := frame.RGBAAt(b.Min.X+x, b.Min.Y+y+1)
			if c.useUpperBlock {
				buf = appendSGR(buf, 38, upper.R, upper.G, upper.B)
				buf = appendSGR(buf, 48, lower.R, lower.G, lower.B)
				buf = append(buf, upperHalfBlock...)
			} else {
				buf = appendSGR(buf, 48, upper.R, upper.G, upper.B)
				buf = appendSGR(buf, 38, lower.R, lower.G, lower.B)
				buf = append(buf, lowerHalfBlock...)
			}
		}
		buf = append(buf, "\x1b[0m\n"...)
		c.out.Write(buf)
	}
}

// appendSGR appends a truecolor SGR sequence; base 38 sets foreground,
// 48 background.
func appendSGR(buf []byte, base int, r, g, b uint8) []byte {
	buf = append(buf, "\x1b["...)
	buf = strconv.AppendInt(buf, int64(base), 10)
	buf = append(buf, ";2;"...)
	buf = strconv.AppendInt(buf, int64(r), 10)
	buf = append(buf, ';')
	buf = strconv.AppendInt(buf, int64(g), 10)
	buf = append(buf, ';')
	buf = strconv.AppendInt(buf, int64(b), 10)
	buf = append(buf, 'm')
	return buf
}
