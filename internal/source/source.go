// Package source загружает входные файлы (изображения, PDF, видео,
// QR-коды) и прогоняет их кадры через колбэк рендеринга.
package source

import (
	"fmt"
	"os"
	"strings"

	"github.com/HenryGetz/timg/internal/config"
	"github.com/HenryGetz/timg/internal/player"
)

// Source is one displayable input. A constructed source owns its decode
// state exclusively until Close; it is never reused across filenames.
type Source interface {
	// LoadAndScale probes the file, decodes at least size/first-frame
	// information and applies the scale decision for opts.
	LoadAndScale(opts *config.DisplayOptions) error

	// SendFrames drives the frame sequence within the playback budget,
	// delivering each frame to sink. Cooperatively cancellable via stop.
	SendFrames(pb *config.Playback, stop *player.Stop, sink player.FrameSink)

	// Size reports the natural (pre-scaling) pixel dimensions.
	Size() (width, height int)

	Close() error
}

// Подменяется в тестах, чтобы не запускать настоящий ffmpeg.
var newVideoSource = func(filename string) Source { return NewVideoSource(filename) }

// Create probes filename as image first, then as video, and returns the
// first variant that loads and scales successfully. The image stage
// dispatches qr: pseudo-names and .pdf files to their own variants.
// Возвращает nil, если ни один вариант не смог открыть файл; вызывающий
// код просто переходит к следующему имени.
func Create(filename string, opts *config.DisplayOptions, attemptImage, attemptVideo bool) Source {
	if attemptImage {
		var src Source
		switch {
		case strings.HasPrefix(filename, "qr:"):
			src = NewQRSource(filename)
		case strings.HasSuffix(strings.ToLower(filename), ".pdf"):
			src = NewPDFSource(filename)
		default:
			src = NewImageSource(filename)
		}
		if err := src.LoadAndScale(opts); err == nil {
			return src
		}
		src.Close()
	}

	if attemptVideo {
		src := newVideoSource(filename)
		if err := src.LoadAndScale(opts); err == nil {
			return src
		}
		src.Close()
	}

	fmt.Fprintf(os.Stderr, "%s: не удалось загрузить\n", filename)
	if filename == "-" || filename == "/dev/stdin" {
		// Неудачная проба изображения уже съела часть потока —
		// перемотать stdin назад нельзя.
		fmt.Fprintf(os.Stderr, "Если это видео на stdin, укажите -V, "+
			"чтобы пропустить пробу изображения\n")
	}
	return nil
}
