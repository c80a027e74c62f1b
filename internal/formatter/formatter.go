// package formatter renders queue and song data as CSV, Markdown and plain text, and URLs as QR codes
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/songreq/internal/models"
	"github.com/desertthunder/songreq/internal/shared"
)

// Format is an output format for queue exports.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps a user supplied name to a [Format].
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (text, csv, markdown)", shared.ErrInvalidArgument, raw)
	}
}

// Render converts the now-playing track and queue to the given format.
func Render(format Format, np models.NowPlaying, queue []models.QueueItem) ([]byte, error) {
	switch format {
	case FormatCSV:
		return QueueToCSV(queue)
	case FormatMarkdown:
		return QueueToMarkdown(np, queue)
	case FormatText:
		return QueueToText(np, queue)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// QueueToCSV converts a queue to CSV with columns: Index, VideoID, Title, Artist, Album, Duration, Thumbnail
func QueueToCSV(queue []models.QueueItem) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Index", "VideoID", "Title", "Artist", "Album", "Duration", "Thumbnail"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range queue {
		record := []string{
			strconv.Itoa(item.Index),
			item.VideoID,
			item.Title,
			item.Artist,
			item.AlbumName,
			item.Duration,
			item.Thumbnail,
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

// QueueToMarkdown converts the now-playing track and queue to Markdown, using the current
// track's thumbnail as the cover image.
func QueueToMarkdown(np models.NowPlaying, queue []models.QueueItem) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Queue\n\n")

	if np.Song != nil {
		if np.Song.Thumbnail != "" {
			fmt.Fprintf(&buf, "![Cover](%s)\n\n", np.Song.Thumbnail)
		}
		fmt.Fprintf(&buf, "**Now Playing**: %s - %s [%s]\n\n", np.Song.Artist, np.Song.Title, Progress(np))
	}

	fmt.Fprintf(&buf, "**Songs**: %d\n\n", len(queue))

	buf.WriteString("## Songs\n\n")
	for _, item := range queue {
		albumPart := ""
		if item.AlbumName != "" {
			albumPart = fmt.Sprintf(" (%s)", item.AlbumName)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", item.Index+1, item.Artist, item.Title, albumPart, durationOrDash(item.Duration))
	}

	return buf.Bytes(), nil
}

// QueueToText converts the now-playing track and queue to plain text
func QueueToText(np models.NowPlaying, queue []models.QueueItem) ([]byte, error) {
	var buf bytes.Buffer

	if np.Song != nil {
		state := "Playing"
		if np.IsPaused {
			state = "Paused"
		}
		fmt.Fprintf(&buf, "%s: %s - %s [%s]\n", state, np.Song.Artist, np.Song.Title, Progress(np))
	} else {
		buf.WriteString("Nothing playing\n")
	}
	fmt.Fprintf(&buf, "Queue: %d songs\n\n", len(queue))

	for _, item := range queue {
		fmt.Fprintf(&buf, "%3d. %s - %s (%s)\n", item.Index, item.Artist, item.Title, durationOrDash(item.Duration))
	}

	return buf.Bytes(), nil
}

// SongsToText renders a numbered list of songs, one per line.
func SongsToText(title string, songs []models.Song) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s: %d\n", title, len(songs))
	for i, s := range songs {
		fmt.Fprintf(&buf, "%3d. %s - %s [%s]\n", i+1, s.Artist, s.Title, s.VideoID)
	}

	return buf.Bytes()
}

// Progress renders elapsed/total for the current track, e.g. "1:05 / 3:30".
func Progress(np models.NowPlaying) string {
	return fmt.Sprintf("%s / %s", clock(np.ElapsedSeconds), clock(np.SongDuration))
}

// WriteQueueExport renders the queue and writes it to path.
func WriteQueueExport(path string, format Format, np models.NowPlaying, queue []models.QueueItem) error {
	data, err := Render(format, np, queue)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func clock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func durationOrDash(d string) string {
	if d == "" {
		return "-"
	}
	return d
}
