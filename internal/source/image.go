package source

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/HenryGetz/timg/internal/config"
	"github.com/HenryGetz/timg/internal/player"
	"github.com/HenryGetz/timg/internal/timing"
)

// imageFrame is one display-ready frame with its animation delay.
type imageFrame struct {
	img   *image.RGBA
	delay timing.Duration
}

// ImageSource показывает статичные и анимированные изображения
// (PNG, JPEG, GIF). Кадры декодируются и масштабируются один раз
// при загрузке.
type ImageSource struct {
	filename string
	opts     *config.DisplayOptions

	origWidth  int
	origHeight int
	frames     []imageFrame
}

func NewImageSource(filename string) *ImageSource {
	return &ImageSource{filename: filename}
}

func (s *ImageSource) Size() (int, int) {
	return s.origWidth, s.origHeight
}

func (s *ImageSource) Close() error {
	s.frames = nil
	return nil
}

func (s *ImageSource) LoadAndScale(opts *config.DisplayOptions) error {
	s.opts = opts

	data, err := s.readAll()
	if err != nil {
		return err
	}

	// GIF декодируем отдельно, чтобы получить все кадры анимации.
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil && format == "gif" {
		return s.loadGIF(data)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", s.filename, err)
	}

	rgba := toRGBA(img)
	if opts.ExifRotate {
		rgba = applyOrientation(rgba, jpegOrientation(data))
	}
	rgba = s.autoCrop(rgba)

	s.origWidth = rgba.Bounds().Dx()
	s.origHeight = rgba.Bounds().Dy()

	s.frames = []imageFrame{{img: s.prepare(rgba)}}
	return nil
}

func (s *ImageSource) readAll() ([]byte, error) {
	if s.filename == "-" || s.filename == "/dev/stdin" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(s.filename)
}

// loadGIF composes all animation frames onto a shared canvas,
// respecting per-frame disposal, then scales each one.
func (s *ImageSource) loadGIF(data []byte) error {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", s.filename, err)
	}
	if len(g.Image) == 0 {
		return fmt.Errorf("%s: GIF без кадров", s.filename)
	}

	w, h := g.Config.Width, g.Config.Height
	if w == 0 || h == 0 {
		b := g.Image[0].Bounds()
		w, h = b.Dx(), b.Dy()
	}
	s.origWidth, s.origHeight = w, h

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	s.frames = make([]imageFrame, 0, len(g.Image))

	for i, frame := range g.Image {
		var restore *image.RGBA
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalPrevious {
			restore = cloneRGBA(canvas)
		}
		prevRect := frame.Bounds()

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		delay := timing.Millis(100)
		if i < len(g.Delay) && g.Delay[i] >= 2 {
			delay = timing.Millis(g.Delay[i] * 10)
		}

		s.frames = append(s.frames, imageFrame{
			img:   s.prepare(cloneRGBA(canvas)),
			delay: delay,
		})

		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				draw.Draw(canvas, prevRect, image.Transparent, image.Point{}, draw.Src)
			case gif.DisposalPrevious:
				canvas = restore
			}
		}
	}
	return nil
}

func (s *ImageSource) prepare(rgba *image.RGBA) *image.RGBA {
	return prepareFrame(rgba, s.opts)
}

// prepareFrame scales one frame per the fit decision and flattens
// transparency onto the configured background. Shared by all variants
// that decode into pixel buffers.
func prepareFrame(rgba *image.RGBA, opts *config.DisplayOptions) *image.RGBA {
	fit := FitDisplay(rgba.Bounds().Dx(), rgba.Bounds().Dy(), opts)
	if fit.Resized {
		dst := image.NewRGBA(image.Rect(0, 0, fit.Width, fit.Height))
		kernel := xdraw.Interpolator(xdraw.NearestNeighbor)
		if opts.Antialias {
			kernel = xdraw.CatmullRom
		}
		kernel.Scale(dst, dst.Bounds(), rgba, rgba.Bounds(), xdraw.Src, nil)
		rgba = dst
	}
	return composeBackground(rgba, opts)
}

// autoCrop убирает фиксированную рамку CropBorder, затем срезает
// однотонные края.
func (s *ImageSource) autoCrop(rgba *image.RGBA) *image.RGBA {
	if !s.opts.AutoCrop {
		return rgba
	}

	b := rgba.Bounds()
	if pre := s.opts.CropBorder; pre > 0 && b.Dx() > 2*pre && b.Dy() > 2*pre {
		b = image.Rect(b.Min.X+pre, b.Min.Y+pre, b.Max.X-pre, b.Max.Y-pre)
	}

	corner := rgba.RGBAAt(b.Min.X, b.Min.Y)
	rowUniform := func(y int) bool {
		for x := b.Min.X; x < b.Max.X; x++ {
			if rgba.RGBAAt(x, y) != corner {
				return false
			}
		}
		return true
	}
	colUniform := func(x int) bool {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if rgba.RGBAAt(x, y) != corner {
				return false
			}
		}
		return true
	}

	for b.Dy() > 1 && rowUniform(b.Min.Y) {
		b.Min.Y++
	}
	for b.Dy() > 1 && rowUniform(b.Max.Y-1) {
		b.Max.Y--
	}
	for b.Dx() > 1 && colUniform(b.Min.X) {
		b.Min.X++
	}
	for b.Dx() > 1 && colUniform(b.Max.X-1) {
		b.Max.X--
	}

	if b == rgba.Bounds() {
		return rgba
	}
	cropped := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(cropped, cropped.Bounds(), rgba, b.Min, draw.Src)
	return cropped
}

func (s *ImageSource) animated() bool {
	return len(s.frames) > 1
}

func (s *ImageSource) SendFrames(pb *config.Playback, stop *player.Stop, sink player.FrameSink) {
	if s.opts.ScrollAnimation {
		s.sendScrollFrames(pb, stop, sink)
		return
	}

	if !s.animated() {
		// Статичная картинка: ровно один кадр, без цикла задержек.
		budget := player.NewBudget(pb.Duration, pb.MaxFrames, pb.Loops, 1)
		if budget.NextFrame(stop) {
			sink(s.frames[0].img, s.indent(s.frames[0].img), 0)
		}
		return
	}

	budget := player.NewBudget(pb.Duration, pb.MaxFrames, pb.Loops, player.Forever)
	rewind := 0
	for budget.NextLoop(stop) {
		for _, frame := range s.frames {
			if !budget.NextFrame(stop) {
				return
			}
			sink(frame.img, s.indent(frame.img), rewind)
			rewind = frame.img.Bounds().Dy()
			player.Sleep(frame.delay, stop)
		}
	}
}

// sendScrollFrames показывает движущееся окно поверх увеличенного
// изображения; смещение двигается на (dx, dy) за шаг и заворачивается
// по модулю размеров изображения. Один цикл — полный оборот
// доминирующей оси прокрутки.
func (s *ImageSource) sendScrollFrames(pb *config.Playback, stop *player.Stop, sink player.FrameSink) {
	src := s.frames[0].img
	srcW, srcH := src.Bounds().Dx(), src.Bounds().Dy()
	viewW, viewH := s.opts.Width, s.opts.Height
	if viewW > srcW {
		viewW = srcW
	}
	if viewH > srcH {
		viewH = srcH
	}

	stepsPerLoop := 1
	if dx := abs(s.opts.ScrollDX); dx > 0 {
		stepsPerLoop = (srcW + dx - 1) / dx
	}
	if dy := abs(s.opts.ScrollDY); dy > 0 && s.opts.ScrollDX == 0 {
		stepsPerLoop = (srcH + dy - 1) / dy
	}

	budget := player.NewBudget(pb.Duration, pb.MaxFrames, pb.Loops, player.Forever)
	view := image.NewRGBA(image.Rect(0, 0, viewW, viewH))
	offX, offY := 0, 0
	rewind := 0

	for budget.NextLoop(stop) {
		for step := 0; step < stepsPerLoop; step++ {
			if !budget.NextFrame(stop) {
				return
			}
			wrapCopy(view, src, offX, offY)
			sink(view, 0, rewind)
			rewind = viewH
			player.Sleep(s.opts.ScrollDelay, stop)

			offX = mod(offX+s.opts.ScrollDX, srcW)
			offY = mod(offY+s.opts.ScrollDY, srcH)
		}
	}
}

func (s *ImageSource) indent(frame *image.RGBA) int {
	if !s.opts.CenterHorizontally {
		return 0
	}
	indent := (s.opts.Width - frame.Bounds().Dx()) / 2
	if indent < 0 {
		indent = 0
	}
	return indent
}

// wrapCopy fills dst with src pixels starting at (offX, offY), wrapping
// around the source edges.
func wrapCopy(dst, src *image.RGBA, offX, offY int) {
	srcW, srcH := src.Bounds().Dx(), src.Bounds().Dy()
	for y := 0; y < dst.Bounds().Dy(); y++ {
		sy := mod(offY+y, srcH)
		for x := 0; x < dst.Bounds().Dx(); x++ {
			sx := mod(offX+x, srcW)
			dst.SetRGBA(x, y, src.RGBAAt(sx, sy))
		}
	}
}

// composeBackground flattens alpha onto a solid color or a two-color
// checkerboard, when either is configured.
func composeBackground(rgba *image.RGBA, opts *config.DisplayOptions) *image.RGBA {
	bg, bgOK := config.ParseColor(opts.BgColor)
	pattern, patternOK := config.ParseColor(opts.BgPatternColor)
	if !bgOK && !patternOK {
		return rgba
	}
	if !bgOK {
		bg = color.RGBA{A: 0xff}
	}

	const checkerSize = 8
	b := rgba.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			base := bg
			if patternOK && ((x/checkerSize)+(y/checkerSize))%2 == 1 {
				base = pattern
			}
			out.SetRGBA(x, y, blendOver(base, rgba.RGBAAt(x, y)))
		}
	}
	return out
}

func blendOver(bg, fg color.RGBA) color.RGBA {
	if fg.A == 0xff {
		return fg
	}
	a := uint32(fg.A)
	inv := 255 - a
	return color.RGBA{
		R: uint8((uint32(fg.R)*a + uint32(bg.R)*inv) / 255),
		G: uint8((uint32(fg.G)*a + uint32(bg.G)*inv) / 255),
		B: uint8((uint32(fg.B)*a + uint32(bg.B)*inv) / 255),
		A: 0xff,
	}
}

func toRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return rgba
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func mod(v, m int) int {
	v %= m
	if v < 0 {
		v += m
	}
	return v
}
