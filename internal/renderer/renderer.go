// Package renderer складывает готовые кадры на терминальный холст:
// либо напрямую (одна картинка), либо ячейками сетки (contact sheet).
package renderer

import (
	"image"
	"image/draw"
	"strings"

	"github.com/HenryGetz/timg/internal/config"
	"github.com/HenryGetz/timg/internal/player"
	"github.com/HenryGetz/timg/internal/term"
)

type gridCell struct {
	frame *image.RGBA
	label string
}

// Renderer owns the cell assignment of consecutive sources. Файлы
// обрабатываются строго последовательно, поэтому состояние строки
// сетки не требует синхронизации.
type Renderer struct {
	canvas *term.Canvas
	opts   *config.DisplayOptions
	cols   int

	cellWidth int
	row       []gridCell
}

// New creates a renderer for a canvas already split into cols x rows
// cells; opts must carry the per-cell geometry.
func New(canvas *term.Canvas, opts *config.DisplayOptions, cols int) *Renderer {
	return &Renderer{
		canvas:    canvas,
		opts:      opts,
		cols:      cols,
		cellWidth: opts.Width,
	}
}

// RenderCB returns the frame sink for the next input file.
func (r *Renderer) RenderCB(filename string) player.FrameSink {
	if r.cols <= 1 {
		return r.directCB(filename)
	}
	return r.gridCB(filename)
}

// directCB streams frames straight to the terminal; animation frames
// rewind the cursor and overwrite their predecessor.
func (r *Renderer) directCB(filename string) player.FrameSink {
	labelPrinted := false
	return func(frame *image.RGBA, offsetX, rewind int) {
		if r.opts.ShowFilename && !labelPrinted {
			r.canvas.WriteLine(filename)
			labelPrinted = true
		}
		r.canvas.MoveUp(rewind)
		r.canvas.Draw(frame, offsetX)
	}
}

// gridCB буферизует первый кадр файла в текущую ячейку; строка сетки
// уходит на экран, когда заполнены все колонки.
func (r *Renderer) gridCB(filename string) player.FrameSink {
	if len(r.row) == r.cols {
		r.flushRow()
	}
	idx := len(r.row)
	r.row = append(r.row, gridCell{label: filename})

	return func(frame *image.RGBA, offsetX, rewind int) {
		if r.row[idx].frame == nil {
			// Источник может переиспользовать буфер кадра, копируем.
			c := image.NewRGBA(frame.Bounds())
			copy(c.Pix, frame.Pix)
			r.row[idx].frame = c
		}
	}
}

// Finish flushes a partially filled last grid row.
func (r *Renderer) Finish() {
	if r.cols > 1 && len(r.row) > 0 {
		r.flushRow()
	}
}

func (r *Renderer) flushRow() {
	rowHeight := 0
	for _, c := range r.row {
		if c.frame != nil && c.frame.Bounds().Dy() > rowHeight {
			rowHeight = c.frame.Bounds().Dy()
		}
	}
	if rowHeight == 0 {
		r.row = r.row[:0]
		return
	}

	if r.opts.ShowFilename {
		r.canvas.WriteLine(r.labelLine())
	}

	composed := image.NewRGBA(image.Rect(0, 0, r.cellWidth*len(r.row), rowHeight))
	for i, c := range r.row {
		if c.frame == nil {
			continue
		}
		indent := 0
		if r.opts.CenterHorizontally {
			if d := (r.cellWidth - c.frame.Bounds().Dx()) / 2; d > 0 {
				indent = d
			}
		}
		origin := image.Pt(i*r.cellWidth+indent, 0)
		draw.Draw(composed, image.Rectangle{Min: origin, Max: origin.Add(c.frame.Bounds().Size())},
			c.frame, c.frame.Bounds().Min, draw.Src)
	}

	r.canvas.Draw(composed, 0)
	r.row = r.row[:0]
}

// labelLine выравнивает имена файлов по колонкам ячеек. Считаем
// руны, а не байты: многобайтное имя нельзя резать посередине символа.
func (r *Renderer) labelLine() string {
	var sb strings.Builder
	for _, c := range r.row {
		label := []rune(c.label)
		if len(label) > r.cellWidth {
			label = label[:r.cellWidth]
		}
		sb.WriteString(string(label))
		sb.WriteString(strings.Repeat(" ", r.cellWidth-len(label)))
	}
	return strings.TrimRight(sb.String(), " ")
}
