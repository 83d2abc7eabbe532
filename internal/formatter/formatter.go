// package formatter renders run reports in various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"daylist/internal/models"
	"daylist/internal/shared"

	"github.com/sosodev/duration"
)

// RunReport describes the outcome of one sync run for export.
//
// Mirrors the columns the playlist used to be reported with: video URL,
// title, channel, duration, and the date the video was added.
type RunReport struct {
	PlaylistTitle string
	GeneratedAt   time.Time
	Inserted      []models.Video
	Skipped       int
	Failed        int
}

// ExportToCSV converts a RunReport to CSV with columns: Video URL, Title, Channel, Duration, Date Added
func ExportToCSV(report *RunReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Video URL", "Video Title", "Channel Name", "Duration", "Date Added"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	dateAdded := report.GeneratedAt.Format("2006-01-02")
	for _, video := range report.Inserted {
		record := []string{
			shared.VideoURL(video.ID),
			video.Title,
			video.ChannelTitle,
			FormatDuration(video.Duration),
			dateAdded,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a RunReport to Markdown
func ExportToMarkdown(report *RunReport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", report.PlaylistTitle))
	buf.WriteString(fmt.Sprintf("**Run date**: %s\n", shared.FormatTimestamp(report.GeneratedAt)))
	buf.WriteString(fmt.Sprintf("**Inserted**: %d\n", len(report.Inserted)))
	buf.WriteString(fmt.Sprintf("**Skipped**: %d\n", report.Skipped))
	buf.WriteString(fmt.Sprintf("**Failed**: %d\n\n", report.Failed))

	if len(report.Inserted) == 0 {
		buf.WriteString("No new videos in this window.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("## Added videos\n\n")
	for i, video := range report.Inserted {
		buf.WriteString(fmt.Sprintf("%d. [%s](%s) by %s [%s]\n",
			i+1, video.Title, shared.VideoURL(video.ID), video.ChannelTitle, FormatDuration(video.Duration)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a RunReport to plain text
func ExportToText(report *RunReport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", report.PlaylistTitle))
	buf.WriteString(fmt.Sprintf("Run date: %s\n", shared.FormatTimestamp(report.GeneratedAt)))
	buf.WriteString(fmt.Sprintf("Inserted: %d, Skipped: %d, Failed: %d\n\n", len(report.Inserted), report.Skipped, report.Failed))

	for i, video := range report.Inserted {
		buf.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, video.Title, shared.VideoURL(video.ID)))
	}

	return buf.Bytes(), nil
}

// Export renders the report in the requested format (csv, markdown, txt).
func Export(report *RunReport, format string) ([]byte, error) {
	switch format {
	case "csv", "":
		return ExportToCSV(report)
	case "markdown", "md":
		return ExportToMarkdown(report)
	case "txt", "text":
		return ExportToText(report)
	default:
		return nil, fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidFlag, format)
	}
}

// FormatDuration renders an ISO 8601 duration (PT4M13S) as mm:ss or h:mm:ss.
// Unparseable or empty values come back as "unknown".
func FormatDuration(iso string) string {
	if iso == "" {
		return "unknown"
	}

	d, err := duration.Parse(iso)
	if err != nil {
		return "unknown"
	}

	total := int(d.ToTimeDuration().Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
