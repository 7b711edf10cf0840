package config

import (
	"fmt"

	"github.com/HenryGetz/timg/internal/timing"
)

// DisplayOptions описывает целевую геометрию и политику отображения.
// После нормализации в main() структура больше не изменяется.
type DisplayOptions struct {
	Width  int
	Height int

	FillWidth  bool
	FillHeight bool
	Upscale    bool

	Antialias          bool
	ExifRotate         bool
	AutoCrop           bool
	CropBorder         int
	BgColor            string
	BgPatternColor     string
	CenterHorizontally bool
	ShowFilename       bool

	ScrollAnimation bool
	ScrollDX        int
	ScrollDY        int
	ScrollDelay     timing.Duration
}

// NewDisplayOptions returns options with the same defaults the original
// command line starts from.
func NewDisplayOptions() *DisplayOptions {
	return &DisplayOptions{
		Antialias:   true,
		ExifRotate:  true,
		ScrollDX:    1,
		ScrollDY:    0,
		ScrollDelay: timing.Millis(60),
	}
}

// Playback bundles the frame/loop/time budget selected on the command line.
type Playback struct {
	Duration       timing.Duration
	MaxFrames      int
	Loops          int
	BetweenImages  timing.Duration
	HideCursor     bool
	DoImageLoading bool
	DoVideoLoading bool
}

func NewPlayback() *Playback {
	return &Playback{
		Duration:       timing.InfiniteFuture,
		MaxFrames:      timing.NotInitialized,
		Loops:          timing.NotInitialized,
		BetweenImages:  timing.Millis(0),
		HideCursor:     true,
		DoImageLoading: true,
		DoVideoLoading: true,
	}
}

// Normalize применяет правила согласования опций перед запуском:
//   - прокрутка без движения отключается;
//   - прокрутка по одной оси включает заполнение по другой;
//   - сетка ограничивает каждый источник одним кадром;
//   - ровно один кадр означает ровно один цикл;
//   - подпись имени файла резервирует 2 пикселя на строку сетки.
//
// Returns a warning for the zero-motion scroll case, empty otherwise.
func (o *DisplayOptions) Normalize(p *Playback, fitWidth bool, gridCols, gridRows int) string {
	warning := ""
	if o.ScrollAnimation && o.ScrollDX == 0 && o.ScrollDY == 0 {
		warning = "Прокрутка запрошена, но dx:dy = 0:0. Показываем без прокрутки."
		o.ScrollAnimation = false
	}

	o.FillWidth = fitWidth || (o.ScrollAnimation && o.ScrollDY != 0)
	o.FillHeight = o.ScrollAnimation && o.ScrollDX != 0

	// В ячейку сетки попадает только первый кадр; бесконечная анимация
	// не дала бы строке сетки никогда заполниться.
	if gridCols > 1 {
		p.MaxFrames = 1
	}

	if p.MaxFrames == 1 {
		p.Loops = 1
	}

	if o.ShowFilename {
		o.Height -= 2 * gridRows
	}

	return warning
}

// SplitForGrid делит холст на ячейки сетки. Остаток пикселей не используется.
func (o *DisplayOptions) SplitForGrid(cols, rows int) {
	o.Width /= cols
	o.Height /= rows
}

// Validate rejects a target geometry that is unusable at playback time.
func (o *DisplayOptions) Validate() error {
	if o.Width < 1 || o.Height < 1 {
		return fmt.Errorf("недопустимый размер вывода %dx%d", o.Width, o.Height)
	}
	return nil
}
