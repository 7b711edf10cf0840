package system

import (
	"fmt"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// InitResourceLimits пытается увеличить лимит открытых файлов:
// декодеры и пайпы ffmpeg легко упираются в скромный дефолт.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	}
}

// Stats accumulates playback counters for the --stats report.
type Stats struct {
	start       time.Time
	FilesShown  int
	FilesFailed int
	FramesShown int
}

func NewStats() *Stats {
	return &Stats{start: time.Now()}
}

// Report formats the performance summary, including process memory
// from the OS where available.
func (s *Stats) Report() string {
	elapsed := time.Since(s.start)
	fps := 0.0
	if elapsed > 0 {
		fps = float64(s.FramesShown) / elapsed.Seconds()
	}

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Files: %d shown, %d failed\n"+
			"Frames: %d\n"+
			"Total Time: %.2fs\n"+
			"Effective FPS: %.2f\n",
		s.FilesShown, s.FilesFailed, s.FramesShown, elapsed.Seconds(), fps,
	)

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil {
			report += fmt.Sprintf("Memory (RSS): %.1f MB\n", float64(mem.RSS)/1024/1024)
		}
		if cpu, err := proc.Times(); err == nil {
			report += fmt.Sprintf("CPU Time: %.2fs\n", cpu.User+cpu.System)
		}
	}

	return report + "----------------------------"
}
