package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/HenryGetz/timg/internal/config"
	"github.com/HenryGetz/timg/internal/player"
	"github.com/HenryGetz/timg/internal/renderer"
	"github.com/HenryGetz/timg/internal/source"
	"github.com/HenryGetz/timg/internal/system"
	"github.com/HenryGetz/timg/internal/term"
	"github.com/HenryGetz/timg/internal/timing"
)

const version = "1.2.0"

// Коды выхода синхронизированы с man-страницей.
const (
	exitSuccess        = 0
	exitImageReadError = 1
	exitParameterError = 2
	exitNotATerminal   = 3
)

func usage(exitCode int, termW, termH int) int {
	fmt.Fprintf(os.Stderr, "Использование: timg [опции] <изображение/видео> [<изображение/видео>...]\n")
	fmt.Fprintf(os.Stderr, "Специальные имена: '-' (stdin), 'qr:<текст>' (QR-код).\n\nОпции:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nРазмер вывода по умолчанию берется из терминала (%dx%d).\n", termW, termH)
	fmt.Fprintf(os.Stderr, "Коды выхода: 0 успех, 1 ни один файл не прочитан, "+
		"2 неверный параметр, 3 размер терминала неизвестен.\n")
	return exitCode
}

func main() {
	os.Exit(run())
}

func run() int {
	system.InitResourceLimits()

	termSize := term.DetermineSize()

	opts := config.NewDisplayOptions()
	opts.Width = termSize.Width
	opts.Height = termSize.Height
	playback := config.NewPlayback()

	geometryPtr := flag.String("g", "", "Геометрия вывода в пикселях, формат <ширина>x<высота> (по умолчанию: из терминала)")
	waitPtr := flag.Float64("w", 0, "Пауза между несколькими изображениями, секунды")
	timePtr := flag.Float64("t", 0, "Остановиться после этого времени, что бы ни говорили --loops и --frames")
	loopsPtr := flag.Int("loops", timing.NotInitialized, "Число полных циклов; -1 — бесконечно. По умолчанию: видео 1, анимация -1")
	framesPtr := flag.Int("frames", timing.NotInitialized, "Показать только первые N кадров")
	noAntialiasPtr := flag.Bool("a", false, "Выключить сглаживание при масштабировании")
	bgPtr := flag.String("b", "", "Цвет фона для прозрачных изображений")
	bgPatternPtr := flag.String("B", "", "Цвет шахматного узора для прозрачных изображений")
	scrollPtr := flag.String("scroll", "", "Прокрутка: 'on' или задержка в мс (по умолчанию 60)")
	deltaPtr := flag.String("delta-move", "", "Шаг прокрутки dx:dy (по умолчанию 1:0)")
	rotatePtr := flag.String("rotate", "exif", "Поворот по EXIF: 'exif' или 'off'")
	autocropPtr := flag.String("autocrop", "", "Срезать однотонную рамку: 'on' или предварительный отступ в пикселях")
	upscalePtr := flag.Bool("U", false, "Увеличивать изображения меньше экрана")
	videoOnlyPtr := flag.Bool("V", false, "Это видео, не пробовать декодер изображений (нужно для stdin)")
	imageOnlyPtr := flag.Bool("I", false, "Это изображение, не пробовать видеодекодер")
	showFilenamePtr := flag.Bool("F", false, "Печатать имя файла перед изображением")
	keepCursorPtr := flag.Bool("E", false, "Не прятать курсор во время показа")
	centerPtr := flag.Bool("C", false, "Центрировать по горизонтали")
	fitWidthPtr := flag.Bool("W", false, "Масштабировать по ширине терминала (по умолчанию: вписывать целиком)")
	gridPtr := flag.String("grid", "", "Сетка <колонки>[x<строки>] (contact sheet)")
	presetPtr := flag.String("preset", "", "Именованный профиль геометрии (см. presets.yaml)")
	savePresetPtr := flag.String("save-preset", "", "Сохранить текущую геометрию как именованный профиль и выйти")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности после завершения")
	versionPtr := flag.Bool("v", false, "Показать версию и выйти")

	flag.Usage = func() { usage(exitParameterError, termSize.Width, termSize.Height) }
	flag.Parse()

	if *versionPtr {
		fmt.Fprintf(os.Stderr, "timg %s <https://github.com/HenryGetz/timg>\n", version)
		fmt.Fprintf(os.Stderr, "Изображения: PNG, JPEG, GIF (анимация); PDF через go-fitz; QR через go-qrcode\n")
		if path, err := exec.LookPath("ffmpeg"); err == nil {
			fmt.Fprintf(os.Stderr, "Видео: ffmpeg (%s)\n", path)
		} else {
			fmt.Fprintf(os.Stderr, "Видео: ffmpeg не найден в PATH\n")
		}
		return exitSuccess
	}

	fitWidth := *fitWidthPtr
	gridCols, gridRows := 1, 1

	// Пресет применяется до явных флагов: -g и --grid его переопределяют.
	if *presetPtr != "" {
		preset, err := config.LoadPreset(*presetPtr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return usage(exitParameterError, termSize.Width, termSize.Height)
		}
		if preset.Width > 0 && preset.Height > 0 {
			opts.Width, opts.Height = preset.Width, preset.Height
		}
		fitWidth = fitWidth || preset.FitWidth
		opts.Upscale = opts.Upscale || preset.Upscale
		if preset.Grid != "" {
			var err error
			gridCols, gridRows, err = parseGrid(preset.Grid)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Пресет %s: %v\n", preset.Name, err)
				return usage(exitParameterError, termSize.Width, termSize.Height)
			}
		}
	}

	if *geometryPtr != "" {
		w, h, err := parseGeometry(*geometryPtr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Неверная геометрия '%s'\n", *geometryPtr)
			return usage(exitParameterError, termSize.Width, termSize.Height)
		}
		opts.Width, opts.Height = w, h
	}

	if *gridPtr != "" {
		var err error
		gridCols, gridRows, err = parseGrid(*gridPtr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Неверная сетка '%s'\n", *gridPtr)
			return usage(exitParameterError, termSize.Width, termSize.Height)
		}
	}

	if *scrollPtr != "" {
		opts.ScrollAnimation = true
		if *scrollPtr != "on" {
			ms, err := strconv.Atoi(*scrollPtr)
			if err != nil || ms < 0 {
				fmt.Fprintf(os.Stderr, "Неверная задержка прокрутки '%s'\n", *scrollPtr)
				return usage(exitParameterError, termSize.Width, termSize.Height)
			}
			opts.ScrollDelay = timing.Millis(ms)
		}
	}

	if *deltaPtr != "" {
		dx, dy, err := parseDelta(*deltaPtr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "--delta-move=%s: нужен хотя бы dx, например 1 или 1:-1\n", *deltaPtr)
			return usage(exitParameterError, termSize.Width, termSize.Height)
		}
		opts.ScrollDX, opts.ScrollDY = dx, dy
	}

	switch *rotatePtr {
	case "exif":
		opts.ExifRotate = true
	case "off":
		opts.ExifRotate = false
	default:
		fmt.Fprintf(os.Stderr, "--rotate=%s: ожидается 'exif' или 'off'\n", *rotatePtr)
		return usage(exitParameterError, termSize.Width, termSize.Height)
	}

	if *autocropPtr != "" {
		opts.AutoCrop = true
		if *autocropPtr != "on" {
			pre, err := strconv.Atoi(*autocropPtr)
			if err != nil || pre < 0 {
				fmt.Fprintf(os.Stderr, "Неверный отступ autocrop '%s'\n", *autocropPtr)
				return usage(exitParameterError, termSize.Width, termSize.Height)
			}
			opts.CropBorder = pre
		}
	}

	opts.Antialias = !*noAntialiasPtr
	opts.Upscale = opts.Upscale != *upscalePtr // -U переключает
	opts.BgColor = *bgPtr
	opts.BgPatternColor = *bgPatternPtr
	opts.CenterHorizontally = *centerPtr
	opts.ShowFilename = *showFilenamePtr

	playback.HideCursor = !*keepCursorPtr
	playback.Loops = *loopsPtr
	playback.MaxFrames = *framesPtr
	if *timePtr > 0 {
		playback.Duration = timing.FromSeconds(*timePtr)
	}
	if *waitPtr > 0 {
		playback.BetweenImages = timing.FromSeconds(*waitPtr)
	}
	if *videoOnlyPtr {
		playback.DoImageLoading = false
		playback.DoVideoLoading = true
	}
	if *imageOnlyPtr {
		playback.DoImageLoading = true
		playback.DoVideoLoading = false
	}

	if opts.Width < 1 || opts.Height < 1 {
		if !termSize.Valid {
			fmt.Fprintf(os.Stderr, "Не удалось определить размер терминала; "+
				"укажите -g <ширина>x<высота> явно.\n")
		} else {
			fmt.Fprintf(os.Stderr, "%dx%d — довольно странный размер\n", opts.Width, opts.Height)
		}
		return usage(exitNotATerminal, termSize.Width, termSize.Height)
	}

	if *savePresetPtr != "" {
		preset := config.Preset{
			Name:     *savePresetPtr,
			Width:    opts.Width,
			Height:   opts.Height,
			FitWidth: fitWidth,
			Upscale:  opts.Upscale,
		}
		if gridCols > 1 || gridRows > 1 {
			preset.Grid = fmt.Sprintf("%dx%d", gridCols, gridRows)
		}
		if err := config.SavePreset(preset); err != nil {
			fmt.Fprintf(os.Stderr, "[-] %v\n", err)
			return exitParameterError
		}
		fmt.Printf("[*] Профиль '%s' сохранен в %s\n", *savePresetPtr, config.PresetPath())
		return exitSuccess
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Ожидается имя файла изображения.\n")
		return usage(exitImageReadError, termSize.Width, termSize.Height)
	}

	if warning := opts.Normalize(playback, fitWidth, gridCols, gridRows); warning != "" {
		fmt.Fprintf(os.Stderr, "[!] %s\n", warning)
	}
	opts.SplitForGrid(gridCols, gridRows)
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		return usage(exitParameterError, termSize.Width, termSize.Height)
	}

	canvas := term.NewCanvas(os.Stdout, term.UseUpperBlock())
	if playback.HideCursor {
		canvas.CursorOff()
		defer canvas.CursorOn()
	}

	rend := renderer.New(canvas, opts, gridCols)
	stats := system.NewStats()

	// Сигнал только взводит флаг; вся остановка кооперативная.
	var stop player.Stop
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		stop.Set()
	}()

	files := flag.Args()
	for i, filename := range files {
		if stop.Requested() {
			break
		}

		src := source.Create(filename, opts, playback.DoImageLoading, playback.DoVideoLoading)
		if src == nil {
			stats.FilesFailed++
			continue
		}

		sink := rend.RenderCB(filename)
		src.SendFrames(playback, &stop, func(frame *image.RGBA, offsetX, rewind int) {
			stats.FramesShown++
			sink(frame, offsetX, rewind)
		})
		src.Close()
		stats.FilesShown++

		if i < len(files)-1 {
			player.Sleep(playback.BetweenImages, &stop)
		}
	}
	rend.Finish()

	if stop.Requested() {
		fmt.Println() // Ctrl-C с новой строки
	}

	if *statsPtr {
		fmt.Fprintln(os.Stderr, stats.Report())
	}

	// Ни один файл не прочитан — это ошибка, если нас не прервали.
	if stats.FilesShown == 0 && !stop.Requested() {
		return exitImageReadError
	}
	return exitSuccess
}

func parseGeometry(spec string) (int, int, error) {
	var w, h int
	if n, err := fmt.Sscanf(spec, "%dx%d", &w, &h); n < 2 || err != nil {
		return 0, 0, fmt.Errorf("ожидается <ширина>x<высота>")
	}
	return w, h, nil
}

// parseGrid принимает "CxR" или просто "C" (квадратная сетка).
func parseGrid(spec string) (cols, rows int, err error) {
	// Sscanf жалуется на недочитанный формат при короткой форме,
	// поэтому судим только по числу разобранных значений.
	n, _ := fmt.Sscanf(spec, "%dx%d", &cols, &rows)
	switch {
	case n >= 2:
		// полная форма
	case n == 1:
		rows = cols
	default:
		return 0, 0, fmt.Errorf("ожидается <колонки>[x<строки>]")
	}
	if cols < 1 || rows < 1 {
		return 0, 0, fmt.Errorf("размеры сетки должны быть >= 1")
	}
	return cols, rows, nil
}

func parseDelta(spec string) (dx, dy int, err error) {
	n, _ := fmt.Sscanf(spec, "%d:%d", &dx, &dy)
	if n < 1 {
		return 0, 0, fmt.Errorf("нужен хотя бы dx")
	}
	return dx, dy, nil
}
