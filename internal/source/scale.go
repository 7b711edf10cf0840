package source

import (
	"math"

	"github.com/HenryGetz/timg/internal/config"
)

// ScaleResult is the outcome of the fit decision for one source.
type ScaleResult struct {
	Width   int
	Height  int
	Resized bool
}

// FitDisplay решает, в какой размер вписать изображение img в доступный
// бокс opts.Width x opts.Height.
//
// Оси с включенным Fill должны быть покрыты целиком (возможен выход за
// бокс по другой оси — так работает прокрутка), без Fill изображение
// вписывается внутрь с сохранением пропорций.
func FitDisplay(imgWidth, imgHeight int, opts *config.DisplayOptions) ScaleResult {
	widthFraction := float64(opts.Width) / float64(imgWidth)
	heightFraction := float64(opts.Height) / float64(imgHeight)

	// Изображение меньше экрана увеличиваем только по запросу.
	if !opts.Upscale &&
		(opts.FillHeight || widthFraction > 1.0) &&
		(opts.FillWidth || heightFraction > 1.0) {
		return ScaleResult{Width: imgWidth, Height: imgHeight, Resized: false}
	}

	targetWidth := opts.Width
	targetHeight := opts.Height

	switch {
	case opts.FillWidth && opts.FillHeight:
		// Заполняем всё доступное место: определяет большая из долей.
		// Нужно для диагональной прокрутки.
		largerFraction := widthFraction
		if heightFraction > largerFraction {
			largerFraction = heightFraction
		}
		targetWidth = int(math.Round(largerFraction * float64(imgWidth)))
		targetHeight = int(math.Round(largerFraction * float64(imgHeight)))
	case opts.FillHeight:
		// Высота зафиксирована, ширина может выйти за пределы экрана.
		targetWidth = int(math.Round(heightFraction * float64(imgWidth)))
	case opts.FillWidth:
		// То же самое, но по горизонтали.
		targetHeight = int(math.Round(widthFraction * float64(imgHeight)))
	default:
		// Обычная ситуация: ограничивает меньшая из долей.
		smallerFraction := widthFraction
		if heightFraction < smallerFraction {
			smallerFraction = heightFraction
		}
		targetWidth = int(math.Round(smallerFraction * float64(imgWidth)))
		targetHeight = int(math.Round(smallerFraction * float64(imgHeight)))
	}

	// Не даем масштабу схлопнуться в ноль.
	if targetWidth <= 0 {
		targetWidth = 1
	}
	if targetHeight <= 0 {
		targetHeight = 1
	}

	return ScaleResult{
		Width:   targetWidth,
		Height:  targetHeight,
		Resized: targetWidth != imgWidth || targetHeight != imgHeight,
	}
}
