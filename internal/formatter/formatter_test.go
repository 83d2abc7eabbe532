package formatter

import (
	"strings"
	"testing"
	"time"

	"daylist/internal/models"
)

func sampleReport() *RunReport {
	return &RunReport{
		PlaylistTitle: "Daily Mix",
		GeneratedAt:   time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC),
		Inserted: []models.Video{
			{
				ID:           "vid1",
				Title:        "Morning Upload",
				ChannelTitle: "Test Channel",
				Duration:     "PT4M13S",
				PublishedAt:  time.Date(2026, 8, 29, 5, 0, 0, 0, time.UTC),
			},
			{
				ID:           "vid2",
				Title:        "Long Form",
				ChannelTitle: "Test Channel",
				Duration:     "PT1H2M3S",
				PublishedAt:  time.Date(2026, 8, 29, 5, 30, 0, 0, time.UTC),
			},
		},
		Skipped: 3,
		Failed:  1,
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleReport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Video URL,Video Title,Channel Name,Duration,Date Added") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "https://www.youtube.com/watch?v=vid1") {
			t.Errorf("CSV missing video URL, got: %s", output)
		}
		if !strings.Contains(output, "Morning Upload") {
			t.Errorf("CSV missing video title")
		}
		if !strings.Contains(output, "4:13") {
			t.Errorf("CSV missing formatted duration, got: %s", output)
		}
		if !strings.Contains(output, "2026-08-29") {
			t.Errorf("CSV missing date added")
		}

		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) != 3 {
			t.Errorf("CSV has %d lines, want 3 (header + 2 rows)", len(lines))
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleReport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Daily Mix") {
			t.Errorf("Markdown missing title heading, got: %s", output)
		}
		if !strings.Contains(output, "**Inserted**: 2") {
			t.Errorf("Markdown missing inserted count")
		}
		if !strings.Contains(output, "**Skipped**: 3") {
			t.Errorf("Markdown missing skipped count")
		}
		if !strings.Contains(output, "[Morning Upload](https://www.youtube.com/watch?v=vid1)") {
			t.Errorf("Markdown missing video link, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown empty run", func(t *testing.T) {
		report := sampleReport()
		report.Inserted = nil

		data, err := ExportToMarkdown(report)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		if !strings.Contains(string(data), "No new videos in this window.") {
			t.Errorf("Markdown missing empty-run message, got: %s", data)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleReport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Playlist: Daily Mix") {
			t.Errorf("text missing playlist line, got: %s", output)
		}
		if !strings.Contains(output, "Inserted: 2, Skipped: 3, Failed: 1") {
			t.Errorf("text missing counts line, got: %s", output)
		}
	})
}

func TestExport(t *testing.T) {
	report := sampleReport()

	tests := []struct {
		format  string
		wantErr bool
		marker  string
	}{
		{"csv", false, "Video URL"},
		{"", false, "Video URL"},
		{"markdown", false, "# Daily Mix"},
		{"md", false, "# Daily Mix"},
		{"text", false, "Playlist: Daily Mix"},
		{"txt", false, "Playlist: Daily Mix"},
		{"xml", true, ""},
	}

	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			data, err := Export(report, tt.format)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Export(%q) expected error", tt.format)
				}
				return
			}
			if err != nil {
				t.Fatalf("Export(%q) error = %v", tt.format, err)
			}
			if !strings.Contains(string(data), tt.marker) {
				t.Errorf("Export(%q) missing %q, got: %s", tt.format, tt.marker, data)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		iso  string
		want string
	}{
		{"PT4M13S", "4:13"},
		{"PT1H2M3S", "1:02:03"},
		{"PT45S", "0:45"},
		{"PT1H", "1:00:00"},
		{"", "unknown"},
		{"not-a-duration", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.iso, func(t *testing.T) {
			if got := FormatDuration(tt.iso); got != tt.want {
				t.Errorf("FormatDuration(%q) = %q, want %q", tt.iso, got, tt.want)
			}
		})
	}
}
