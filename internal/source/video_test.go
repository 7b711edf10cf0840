package source

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/HenryGetz/timg/internal/player"
	"github.com/HenryGetz/timg/internal/timing"
)

func TestParseRate(t *testing.T) {
	cases := []struct {
		spec string
		want float64
	}{
		{"30000/1001", 30000.0 / 1001.0},
		{"25/1", 25},
		{"30", 30},
		{"0/0", 25}, // мусор от ffprobe: безопасный дефолт
		{"abc", 25},
		{"", 25},
	}
	for _, c := range cases {
		if got := parseRate(c.spec); got != c.want {
			t.Errorf("parseRate(%q) = %v, ожидали %v", c.spec, got, c.want)
		}
	}
}

func TestFFmpegInputStdinConvention(t *testing.T) {
	if got := NewVideoSource("-").ffmpegInput(); got != "pipe:0" {
		t.Errorf("«-» должен стать pipe:0, получили %q", got)
	}
	if got := NewVideoSource("/dev/stdin").ffmpegInput(); got != "pipe:0" {
		t.Errorf("/dev/stdin должен стать pipe:0, получили %q", got)
	}
	if got := NewVideoSource("movie.mp4").ffmpegInput(); got != "movie.mp4" {
		t.Errorf("обычный путь передается как есть, получили %q", got)
	}
}

func TestBuildFFmpegArgsScalesToTarget(t *testing.T) {
	src := NewVideoSource("movie.mp4")
	src.target = ScaleResult{Width: 80, Height: 48, Resized: true}

	args := strings.Join(src.buildFFmpegArgs(), " ")
	if !strings.Contains(args, "-vf scale=80:48") {
		t.Errorf("масштабирование делает ffmpeg, аргументы: %q", args)
	}
	if !strings.Contains(args, "-pix_fmt rgba") {
		t.Errorf("кадры должны приходить в RGBA, аргументы: %q", args)
	}
	if !strings.HasSuffix(args, " -") {
		t.Errorf("вывод должен идти в stdout, аргументы: %q", args)
	}
}

func TestStreamFramesBudgetSurvivesEOF(t *testing.T) {
	src := NewVideoSource("clip.mp4")
	src.target = ScaleResult{Width: 2, Height: 2, Resized: true}

	// Поток из двух полных кадров rawvideo RGBA.
	twoFrames := make([]byte, 2*2*2*4)

	var stop player.Stop
	budget := player.NewBudget(timing.InfiniteFuture, 3, 2, 1)

	shown := 0
	sink := func(frame *image.RGBA, offsetX, rewind int) { shown++ }

	rewind := 0
	if !src.streamFrames(bytes.NewReader(twoFrames), budget, &stop, sink, timing.Millis(0), &rewind) {
		t.Fatal("после конца потока следующий цикл должен быть возможен")
	}
	if src.streamFrames(bytes.NewReader(twoFrames), budget, &stop, sink, timing.Millis(0), &rewind) {
		t.Error("после исчерпания бюджета кадров циклы должны прекратиться")
	}
	if shown != 3 {
		t.Errorf("--frames 3 на два цикла должен показать ровно 3 кадра, получили %d", shown)
	}
}

func TestStreamFramesStopsOnCancel(t *testing.T) {
	src := NewVideoSource("clip.mp4")
	src.target = ScaleResult{Width: 2, Height: 2, Resized: true}

	var stop player.Stop
	stop.Set()

	budget := player.NewBudget(timing.InfiniteFuture, timing.NotInitialized, timing.NotInitialized, 1)
	rewind := 0
	shown := 0
	more := src.streamFrames(bytes.NewReader(make([]byte, 2*2*4)), budget, &stop, func(frame *image.RGBA, offsetX, rewind int) { shown++ }, timing.Millis(0), &rewind)
	if more || shown != 0 {
		t.Errorf("после отмены поток не читается: more=%v shown=%d", more, shown)
	}
}

func TestStdinVideoSkipsProbe(t *testing.T) {
	opts := testOpts()
	src := NewVideoSource("-")
	if err := src.LoadAndScale(opts); err != nil {
		t.Fatalf("поток из stdin не должен требовать ffprobe: %v", err)
	}
	w, h := src.Size()
	if w != opts.Width || h != opts.Height {
		t.Errorf("для stdin принимается размер бокса, получили %dx%d", w, h)
	}
	if src.frameRate != 25 {
		t.Errorf("для stdin принимается 25 fps, получили %v", src.frameRate)
	}
}
