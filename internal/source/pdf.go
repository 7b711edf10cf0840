package source

import (
	"fmt"
	"image"
	"os"

	"github.com/gen2brain/go-fitz"

	"github.com/HenryGetz/timg/internal/config"
	"github.com/HenryGetz/timg/internal/player"
	"github.com/HenryGetz/timg/internal/timing"
)

// DPI подбирается так, чтобы страница рендерилась близко к целевому
// размеру; точный размер добирается обычным масштабированием.
const pdfBaseDPI = 72.0

// Delay между страницами многостраничного документа.
var pdfPageDelay = timing.Millis(1000)

// PDFSource renders PDF pages as frames, one page per frame.
type PDFSource struct {
	filename string
	opts     *config.DisplayOptions

	doc        *fitz.Document
	origWidth  int
	origHeight int
	renderDPI  float64
}

func NewPDFSource(filename string) *PDFSource {
	return &PDFSource{filename: filename}
}

func (s *PDFSource) Size() (int, int) {
	return s.origWidth, s.origHeight
}

func (s *PDFSource) Close() error {
	if s.doc == nil {
		return nil
	}
	err := s.doc.Close()
	s.doc = nil
	return err
}

func (s *PDFSource) LoadAndScale(opts *config.DisplayOptions) error {
	s.opts = opts

	doc, err := fitz.New(s.filename)
	if err != nil {
		return fmt.Errorf("%s: %w", s.filename, err)
	}
	if doc.NumPage() == 0 {
		doc.Close()
		return fmt.Errorf("%s: документ без страниц", s.filename)
	}
	s.doc = doc

	bound, err := doc.Bound(0)
	if err != nil {
		doc.Close()
		s.doc = nil
		return fmt.Errorf("%s: %w", s.filename, err)
	}
	s.origWidth = bound.Dx()
	s.origHeight = bound.Dy()

	// Рендерим с DPI, близким к целевому размеру, чтобы не терять
	// качество на downscale огромных страниц.
	fit := FitDisplay(s.origWidth, s.origHeight, opts)
	s.renderDPI = pdfBaseDPI * float64(fit.Width) / float64(s.origWidth)
	if s.renderDPI < 18 {
		s.renderDPI = 18
	}
	return nil
}

func (s *PDFSource) renderPage(index int) (*image.RGBA, error) {
	img, err := s.doc.ImageDPI(index, s.renderDPI)
	if err != nil {
		return nil, err
	}
	return prepareFrame(toRGBA(img), s.opts), nil
}

func (s *PDFSource) SendFrames(pb *config.Playback, stop *player.Stop, sink player.FrameSink) {
	pageCount := s.doc.NumPage()

	// Документ проигрывается один раз, как видео.
	budget := player.NewBudget(pb.Duration, pb.MaxFrames, pb.Loops, 1)
	rewind := 0
	for budget.NextLoop(stop) {
		for i := 0; i < pageCount; i++ {
			if stop.Requested() {
				return
			}
			frame, err := s.renderPage(i)
			if err != nil {
				// Нерендерящаяся страница не тратит бюджет кадров.
				fmt.Fprintf(os.Stderr, "[!] %s: ошибка рендеринга страницы %d: %v\n", s.filename, i, err)
				continue
			}
			if !budget.NextFrame(stop) {
				return
			}
			sink(frame, 0, rewind)
			rewind = frame.Bounds().Dy()
			if pageCount > 1 {
				player.Sleep(pdfPageDelay, stop)
			}
		}
	}
}
