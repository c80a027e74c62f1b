package normalizer

import (
	"fmt"
	"strings"

	"github.com/desertthunder/songreq/internal/models"
)

const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"

	bylineSeparator = "•"
	albumPageType   = "MUSIC_PAGE_TYPE_ALBUM"

	videoRendererKey   = "playlistPanelVideoRenderer"
	wrapperRendererKey = "playlistPanelVideoWrapperRenderer"
)

// FallbackThumbnail returns the public thumbnail URL for a video id, or "" when id is empty.
func FallbackThumbnail(videoID string) string {
	if videoID == "" {
		return ""
	}
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID)
}

// Queue converts a decoded /queue payload into queue items.
//
// Indices are contiguous from zero and follow the order of recognized items in the payload.
func Queue(raw any) []models.QueueItem {
	items := asSlice(asMap(raw)["items"])
	queue := make([]models.QueueItem, 0, len(items))

	for _, item := range items {
		renderer, ok := videoRenderer(item)
		if !ok {
			continue
		}
		queue = append(queue, models.QueueItem{Song: songFromRenderer(renderer), Index: len(queue)})
	}

	return queue
}

// NowPlaying converts a decoded /song payload. A payload without a videoId yields an empty [models.NowPlaying].
func NowPlaying(raw any) models.NowPlaying {
	data := asMap(raw)
	videoID := str(data["videoId"])
	if videoID == "" {
		return models.NowPlaying{}
	}

	thumbnail := str(data["imageSrc"])
	if thumbnail == "" {
		thumbnail = lastThumbnail(data["thumbnails"])
	}
	if thumbnail == "" {
		thumbnail = FallbackThumbnail(videoID)
	}

	title := str(data["title"])
	if title == "" {
		title = UnknownTitle
	}
	artist := str(data["artist"])
	if artist == "" {
		artist = UnknownArtist
	}

	isPaused := true
	if v, ok := data["isPaused"].(bool); ok {
		isPaused = v
	}

	songDuration := number(data["songDuration"])

	return models.NowPlaying{
		Song: &models.Song{
			VideoID:   videoID,
			Title:     title,
			Artist:    artist,
			Duration:  FormatSeconds(songDuration),
			Thumbnail: thumbnail,
			AlbumName: str(data["album"]),
		},
		IsPaused:       isPaused,
		ElapsedSeconds: number(data["elapsedSeconds"]),
		SongDuration:   songDuration,
	}
}

// FormatSeconds renders a duration as m:ss, or "" for non-positive values.
func FormatSeconds(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// videoRenderer unwraps a queue item to its playlistPanelVideoRenderer.
func videoRenderer(item any) (map[string]any, bool) {
	m := asMap(item)
	if r, ok := m[videoRendererKey].(map[string]any); ok {
		return r, true
	}

	wrapper := asMap(m[wrapperRendererKey])
	primary := asMap(wrapper["primaryRenderer"])
	if r, ok := primary[videoRendererKey].(map[string]any); ok {
		return r, true
	}
	return nil, false
}

func songFromRenderer(r map[string]any) models.Song {
	videoID := str(r["videoId"])

	title := firstText(r["title"])
	if title == "" {
		title = UnknownTitle
	}

	thumbnail := lastThumbnail(asMap(r["thumbnail"])["thumbnails"])
	if thumbnail == "" {
		thumbnail = FallbackThumbnail(videoID)
	}

	artist, album := byline(r["longBylineText"])

	return models.Song{
		VideoID:   videoID,
		Title:     title,
		Artist:    artist,
		Duration:  firstText(r["lengthText"]),
		Thumbnail: thumbnail,
		AlbumName: album,
	}
}

// byline picks the artist (first run that is neither blank nor the separator) and
// the album (the run linking to an album page) from a longBylineText object.
func byline(v any) (artist, album string) {
	artist = UnknownArtist
	text := asMap(v)

	runs := asSlice(text["runs"])
	if len(runs) == 0 {
		if s := strings.TrimSpace(str(text["simpleText"])); s != "" {
			artist = s
		}
		return artist, ""
	}

	found := false
	for _, run := range runs {
		m := asMap(run)
		t := str(m["text"])
		trimmed := strings.TrimSpace(t)
		if trimmed == "" || trimmed == bylineSeparator {
			continue
		}
		if !found {
			artist, found = t, true
			continue
		}
		if album == "" && pageType(m) == albumPageType {
			album = t
		}
	}
	return artist, album
}

func pageType(run map[string]any) string {
	endpoint := asMap(asMap(run["navigationEndpoint"])["browseEndpoint"])
	configs := asMap(endpoint["browseEndpointContextSupportedConfigs"])
	return str(asMap(configs["browseEndpointContextMusicConfig"])["pageType"])
}

// firstText returns the first run's text or the simpleText of a text object.
func firstText(v any) string {
	m := asMap(v)
	if runs := asSlice(m["runs"]); len(runs) > 0 {
		return str(asMap(runs[0])["text"])
	}
	return str(m["simpleText"])
}

func lastThumbnail(v any) string {
	thumbs := asSlice(v)
	if len(thumbs) == 0 {
		return ""
	}
	return str(asMap(thumbs[len(thumbs)-1])["url"])
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}
