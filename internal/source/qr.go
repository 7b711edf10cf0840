package source

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/HenryGetz/timg/internal/config"
	"github.com/HenryGetz/timg/internal/player"
)

// QRSource renders qr:<text> pseudo-filenames as a QR code image.
type QRSource struct {
	filename string
	opts     *config.DisplayOptions
	frame    *imageFrame
	origSize int
}

func NewQRSource(filename string) *QRSource {
	return &QRSource{filename: filename}
}

func (s *QRSource) Size() (int, int) {
	return s.origSize, s.origSize
}

func (s *QRSource) Close() error {
	s.frame = nil
	return nil
}

func (s *QRSource) LoadAndScale(opts *config.DisplayOptions) error {
	s.opts = opts

	text := strings.TrimPrefix(s.filename, "qr:")
	if text == "" {
		return fmt.Errorf("qr: пустой текст")
	}

	code, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr: %w", err)
	}

	// Рендерим квадратом в меньшую сторону бокса; модули QR-кода должны
	// остаться резкими, поэтому масштаб без сглаживания.
	side := opts.Width
	if opts.Height < side {
		side = opts.Height
	}
	if side < 21 { // минимальная версия QR
		side = 21
	}
	s.origSize = side

	qrOpts := *opts
	qrOpts.Antialias = false
	s.frame = &imageFrame{img: prepareFrame(toRGBA(code.Image(side)), &qrOpts)}
	return nil
}

func (s *QRSource) SendFrames(pb *config.Playback, stop *player.Stop, sink player.FrameSink) {
	budget := player.NewBudget(pb.Duration, pb.MaxFrames, pb.Loops, 1)
	if budget.NextFrame(stop) {
		indent := 0
		if s.opts.CenterHorizontally {
			if d := (s.opts.Width - s.frame.img.Bounds().Dx()) / 2; d > 0 {
				indent = d
			}
		}
		sink(s.frame.img, indent, 0)
	}
}
