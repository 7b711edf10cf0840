package source

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HenryGetz/timg/internal/config"
	"github.com/HenryGetz/timg/internal/player"
	"github.com/HenryGetz/timg/internal/timing"
)

func collectFrames(src Source, pb *config.Playback) int {
	var stop player.Stop
	count := 0
	src.SendFrames(pb, &stop, func(frame *image.RGBA, offsetX, rewind int) {
		count++
	})
	return count
}

func TestStaticImageEmitsSingleFrame(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), 100, 60)

	src := NewImageSource(path)
	if err := src.LoadAndScale(testOpts()); err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	pb := config.NewPlayback()
	if got := collectFrames(src, pb); got != 1 {
		t.Errorf("статичная картинка: ожидали 1 кадр, получили %d", got)
	}
}

func writeTestGIF(t *testing.T, dir string, frames int) string {
	t.Helper()
	g := &gif.GIF{}
	palette := color.Palette{color.Black, color.White, color.RGBA{R: 255, A: 255}}
	for i := 0; i < frames; i++ {
		img := image.NewPaletted(image.Rect(0, 0, 20, 10), palette)
		for x := 0; x < 20; x++ {
			img.SetColorIndex(x, 5, uint8(1+i%2))
		}
		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, 2) // 20ms
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "anim.gif")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAnimatedGIFMaxFramesOneMeansOneFrame(t *testing.T) {
	path := writeTestGIF(t, t.TempDir(), 4)

	src := NewImageSource(path)
	if err := src.LoadAndScale(testOpts()); err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	// Нормализация на стороне вызывающего: один кадр — один цикл.
	pb := config.NewPlayback()
	pb.MaxFrames = 1
	pb.Loops = 1

	if got := collectFrames(src, pb); got != 1 {
		t.Errorf("ожидали ровно 1 кадр, получили %d", got)
	}
}

func TestAnimatedGIFHonorsLoopCount(t *testing.T) {
	path := writeTestGIF(t, t.TempDir(), 3)

	src := NewImageSource(path)
	if err := src.LoadAndScale(testOpts()); err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	pb := config.NewPlayback()
	pb.Loops = 2

	if got := collectFrames(src, pb); got != 6 {
		t.Errorf("3 кадра x 2 цикла = 6, получили %d", got)
	}
}

func TestAnimatedGIFInGridTerminates(t *testing.T) {
	path := writeTestGIF(t, t.TempDir(), 3)

	// Та же последовательность, что в main: нормализация под сетку,
	// затем деление холста на ячейки.
	opts := testOpts()
	pb := config.NewPlayback()
	opts.Normalize(pb, false, 2, 1)
	opts.SplitForGrid(2, 1)

	src := NewImageSource(path)
	if err := src.LoadAndScale(opts); err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	done := make(chan int, 1)
	go func() { done <- collectFrames(src, pb) }()

	select {
	case got := <-done:
		if got != 1 {
			t.Errorf("анимация в сетке должна дать ровно 1 кадр, получили %d", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("показ анимации в сетке не завершился")
	}
}

func TestCancelBeforeFirstFrame(t *testing.T) {
	path := writeTestGIF(t, t.TempDir(), 3)

	src := NewImageSource(path)
	if err := src.LoadAndScale(testOpts()); err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	var stop player.Stop
	stop.Set()

	count := 0
	src.SendFrames(config.NewPlayback(), &stop, func(frame *image.RGBA, offsetX, rewind int) {
		count++
	})
	if count != 0 {
		t.Errorf("после отмены кадров быть не должно, получили %d", count)
	}
}

func TestAutoCropStripsUniformBorder(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	border := color.RGBA{R: 10, G: 10, B: 10, A: 255}
	inner := color.RGBA{R: 200, G: 50, B: 50, A: 255}
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if x >= 8 && x < 32 && y >= 12 && y < 28 {
				img.SetRGBA(x, y, inner)
			} else {
				img.SetRGBA(x, y, border)
			}
		}
	}

	opts := testOpts()
	opts.AutoCrop = true
	src := &ImageSource{opts: opts}

	cropped := src.autoCrop(img)
	if cropped.Bounds().Dx() != 24 || cropped.Bounds().Dy() != 16 {
		t.Errorf("ожидали 24x16 после обрезки, получили %dx%d",
			cropped.Bounds().Dx(), cropped.Bounds().Dy())
	}
}

func TestApplyOrientationRotate90(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	mark := color.RGBA{R: 255, A: 255}
	src.SetRGBA(0, 0, mark)

	// Ориентация 6: поворот на 90° по часовой, оси меняются местами.
	dst := applyOrientation(src, 6)
	if dst.Bounds().Dx() != 2 || dst.Bounds().Dy() != 3 {
		t.Fatalf("ожидали 2x3, получили %dx%d", dst.Bounds().Dx(), dst.Bounds().Dy())
	}
	if dst.RGBAAt(1, 0) != mark {
		t.Error("левый верхний пиксель должен переехать в правый верхний угол")
	}
}

func TestScrollFramesAdvance(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), 100, 60)

	opts := testOpts()
	opts.ScrollAnimation = true
	opts.ScrollDX = 10
	opts.ScrollDelay = timing.Millis(0)
	opts.FillHeight = true

	src := NewImageSource(path)
	if err := src.LoadAndScale(opts); err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	pb := config.NewPlayback()
	pb.Loops = 1

	got := collectFrames(src, pb)
	if got < 2 {
		t.Errorf("прокрутка одного цикла должна дать несколько кадров, получили %d", got)
	}
}
