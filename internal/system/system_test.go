package system

import (
	"strings"
	"testing"
)

func TestStatsReportCounters(t *testing.T) {
	stats := NewStats()
	stats.FilesShown = 3
	stats.FilesFailed = 1
	stats.FramesShown = 42

	report := stats.Report()
	if !strings.Contains(report, "Files: 3 shown, 1 failed") {
		t.Errorf("в отчете нет счетчиков файлов: %q", report)
	}
	if !strings.Contains(report, "Frames: 42") {
		t.Errorf("в отчете нет счетчика кадров: %q", report)
	}
	if !strings.HasPrefix(report, "--- [PERFORMANCE REPORT] ---") {
		t.Errorf("отчет должен начинаться с заголовка: %q", report)
	}
}
