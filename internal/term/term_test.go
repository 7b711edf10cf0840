package term

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestUseUpperBlockEnvParsing(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"0", false},
		{"1", true},
		{"2", true},
		{"yes", false}, // только числовые значения
	}
	for _, c := range cases {
		t.Setenv(EnvUseUpperBlock, c.value)
		if got := UseUpperBlock(); got != c.want {
			t.Errorf("%s=%q: получили %v, ожидали %v", EnvUseUpperBlock, c.value, got, c.want)
		}
	}
}

func testFrame() *image.RGBA {
	// 2 пикселя шириной, 2 высотой: одна терминальная строка.
	// Верхний ряд: красный, синий; нижний ряд: зелёный, белый.
	frame := image.NewRGBA(image.Rect(0, 0, 2, 2))
	frame.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	frame.SetRGBA(0, 1, color.RGBA{G: 255, A: 255})
	frame.SetRGBA(1, 0, color.RGBA{B: 255, A: 255})
	frame.SetRGBA(1, 1, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	return frame
}

func TestDrawLowerHalfBlock(t *testing.T) {
	var buf bytes.Buffer
	canvas := NewCanvas(&buf, false)
	canvas.Draw(testFrame(), 0)

	out := buf.String()
	// Верхний пиксель уходит в фон, нижний — в символ.
	if !strings.Contains(out, "\x1b[48;2;255;0;0m\x1b[38;2;0;255;0m▄") {
		t.Errorf("ожидали красный фон и зелёный нижний полублок, получили %q", out)
	}
	if !strings.HasSuffix(out, "\x1b[0m\n") {
		t.Errorf("строка должна закрываться сбросом атрибутов, получили %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Errorf("2 пиксельных ряда = 1 терминальная строка, получили %d", strings.Count(out, "\n"))
	}
}

func TestDrawUpperHalfBlock(t *testing.T) {
	var buf bytes.Buffer
	canvas := NewCanvas(&buf, true)
	canvas.Draw(testFrame(), 0)

	out := buf.String()
	// В альтернативном режиме верхний пиксель рисуется символом.
	if !strings.Contains(out, "\x1b[38;2;255;0;0m\x1b[48;2;0;255;0m▀") {
		t.Errorf("ожидали красный символ на зелёном фоне, получили %q", out)
	}
}

func TestDrawOddHeightUsesForegroundOnly(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 1, 3))
	frame.SetRGBA(0, 2, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	var buf bytes.Buffer
	canvas := NewCanvas(&buf, false)
	canvas.Draw(frame, 0)

	out := buf.String()
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("3 пиксельных ряда = 2 терминальные строки, получили %d", strings.Count(out, "\n"))
	}
	lines := strings.Split(out, "\n")
	last := lines[1]
	if !strings.Contains(last, "\x1b[38;2;1;2;3m▀") {
		t.Errorf("непарный ряд должен рисоваться верхним полублоком без фона, получили %q", last)
	}
	if strings.Contains(last, "[48;2") {
		t.Errorf("у непарного ряда не должно быть фона, получили %q", last)
	}
}

func TestDrawOffset(t *testing.T) {
	var buf bytes.Buffer
	canvas := NewCanvas(&buf, false)
	canvas.Draw(testFrame(), 7)

	if !strings.HasPrefix(buf.String(), "\x1b[7C") {
		t.Errorf("смещение должно выводиться перед первой строкой, получили %q", buf.String())
	}
}

func TestMoveUpRoundsPixelRowsToCells(t *testing.T) {
	cases := []struct {
		pixels int
		want   string
	}{
		{0, ""},
		{1, "\x1b[1A"},
		{2, "\x1b[1A"},
		{3, "\x1b[2A"},
		{48, "\x1b[24A"},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		NewCanvas(&buf, false).MoveUp(c.pixels)
		if buf.String() != c.want {
			t.Errorf("MoveUp(%d) = %q, ожидали %q", c.pixels, buf.String(), c.want)
		}
	}
}

func TestCursorSequences(t *testing.T) {
	var buf bytes.Buffer
	canvas := NewCanvas(&buf, false)
	canvas.CursorOff()
	canvas.CursorOn()
	if buf.String() != "\x1b[?25l\x1b[?25h" {
		t.Errorf("неожиданные последовательности курсора: %q", buf.String())
	}
}
