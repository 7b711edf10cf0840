package source

import (
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/HenryGetz/timg/internal/config"
	"github.com/HenryGetz/timg/internal/player"
	"github.com/HenryGetz/timg/internal/timing"
)

// VideoSource декодирует видео через внешний ffmpeg: ffprobe дает
// натуральный размер и частоту кадров, ffmpeg выдает rawvideo RGBA
// уже в целевом размере.
type VideoSource struct {
	filename string
	opts     *config.DisplayOptions

	origWidth  int
	origHeight int
	frameRate  float64
	target     ScaleResult
}

func NewVideoSource(filename string) *VideoSource {
	return &VideoSource{filename: filename}
}

func (s *VideoSource) Size() (int, int) {
	return s.origWidth, s.origHeight
}

func (s *VideoSource) Close() error {
	return nil
}

// ffmpegInput translates our stdin convention into ffmpeg's.
func (s *VideoSource) ffmpegInput() string {
	if s.filename == "-" || s.filename == "/dev/stdin" {
		return "pipe:0"
	}
	return s.filename
}

func (s *VideoSource) LoadAndScale(opts *config.DisplayOptions) error {
	s.opts = opts

	if s.filename == "-" || s.filename == "/dev/stdin" {
		// Поток нельзя прощупать заранее: считаем, что кадр занимает
		// весь доступный бокс, точный размер даст сам ffmpeg.
		s.origWidth, s.origHeight = opts.Width, opts.Height
		s.frameRate = 25
		s.target = ScaleResult{Width: opts.Width, Height: opts.Height, Resized: true}
		return nil
	}

	w, h, rate, err := probeVideo(s.filename)
	if err != nil {
		return fmt.Errorf("%s: %w", s.filename, err)
	}
	s.origWidth, s.origHeight = w, h
	s.frameRate = rate
	s.target = FitDisplay(w, h, opts)
	return nil
}

// probeVideo запрашивает у ffprobe размер и частоту первого видеопотока.
func probeVideo(filename string) (width, height int, frameRate float64, err error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-of", "csv=s=x:p=0",
		filename,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ffprobe: %w", err)
	}

	parts := strings.Split(strings.TrimSpace(string(out)), "x")
	if len(parts) < 3 {
		return 0, 0, 0, fmt.Errorf("ffprobe: неожиданный вывод %q", out)
	}
	width, _ = strconv.Atoi(parts[0])
	height, _ = strconv.Atoi(parts[1])
	if width < 1 || height < 1 {
		return 0, 0, 0, fmt.Errorf("ffprobe: нет видеопотока в %s", filename)
	}
	frameRate = parseRate(parts[2])
	return width, height, frameRate, nil
}

// parseRate converts ffprobe's rational rate ("30000/1001") to a float.
func parseRate(spec string) float64 {
	num, den := 25.0, 1.0
	if i := strings.IndexByte(spec, '/'); i >= 0 {
		num, _ = strconv.ParseFloat(spec[:i], 64)
		den, _ = strconv.ParseFloat(spec[i+1:], 64)
	} else {
		num, _ = strconv.ParseFloat(spec, 64)
	}
	if num <= 0 || den <= 0 {
		return 25
	}
	return num / den
}

// videoStream is one running decode pipeline.
type videoStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	eg     *errgroup.Group
}

func (s *VideoSource) buildFFmpegArgs() []string {
	return []string{
		"-v", "error",
		"-i", s.ffmpegInput(),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-vf", fmt.Sprintf("scale=%d:%d", s.target.Width, s.target.Height),
		"-",
	}
}

func (s *VideoSource) startStream() (*videoStream, error) {
	cmd := exec.Command("ffmpeg", s.buildFFmpegArgs()...)
	if s.ffmpegInput() == "pipe:0" {
		cmd.Stdin = os.Stdin
	}
	cmd.Stderr = io.Discard

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	var eg errgroup.Group
	eg.Go(cmd.Wait)

	return &videoStream{cmd: cmd, stdout: stdout, eg: &eg}, nil
}

func (st *videoStream) stop() {
	if st.cmd.Process != nil {
		st.cmd.Process.Kill()
	}
	st.stdout.Close()
	st.eg.Wait()
}

func (s *VideoSource) SendFrames(pb *config.Playback, stop *player.Stop, sink player.FrameSink) {
	frameDelay := timing.FromSeconds(1.0 / s.frameRate)

	// Видео по умолчанию проигрывается один раз.
	budget := player.NewBudget(pb.Duration, pb.MaxFrames, pb.Loops, 1)
	rewind := 0

	for budget.NextLoop(stop) {
		stream, err := s.startStream()
		if err != nil {
			fmt.Fprintf(os.Stderr, "[!] %s: %v\n", s.filename, err)
			return
		}

		more := s.streamFrames(stream.stdout, budget, stop, sink, frameDelay, &rewind)
		stream.stop()
		if !more {
			return
		}

		// Поток из stdin не перемотать, второй цикл невозможен.
		if s.ffmpegInput() == "pipe:0" {
			return
		}
	}
}

// streamFrames прокачивает один проход rawvideo-потока через sink.
// Бюджет кадров списывается только за кадры, дочитанные целиком:
// обрыв на EOF не должен красть кадр у следующего цикла. Возвращает
// false, когда бюджет или флаг остановки запрещают дальнейшие циклы.
func (s *VideoSource) streamFrames(r io.Reader, budget *player.Budget, stop *player.Stop, sink player.FrameSink, frameDelay timing.Duration, rewind *int) bool {
	frame := image.NewRGBA(image.Rect(0, 0, s.target.Width, s.target.Height))
	buf := make([]byte, s.target.Width*s.target.Height*4)
	for {
		if stop.Requested() {
			return false
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return true // конец потока или decode-ошибка: цикл завершен
		}
		if !budget.NextFrame(stop) {
			return false
		}
		copy(frame.Pix, buf)
		sink(frame, 0, *rewind)
		*rewind = s.target.Height
		player.Sleep(frameDelay, stop)
	}
}
