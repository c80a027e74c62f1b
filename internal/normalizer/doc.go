// Package normalizer flattens the player's renderer-based JSON into [models.Song] records.
//
// The player returns its queue as a list of items, each wrapping a renderer object:
//
//	{"items": [{"playlistPanelVideoRenderer": {
//	    "videoId": "abc",
//	    "title": {"runs": [{"text": "Song"}]},
//	    "longBylineText": {"runs": [{"text": "Artist"}, {"text": " • "}, {"text": "Album"}]},
//	    "lengthText": {"runs": [{"text": "3:45"}]},
//	    "thumbnail": {"thumbnails": [{"url": "..."}]}
//	}}]}
//
// Every function in this package is total: malformed or partial input degrades to
// defaults ("Unknown Title", "Unknown Artist", empty strings) and never returns an error.
//
// Items without a recognized renderer are skipped and do not consume an index.
// Recognized renderers are playlistPanelVideoRenderer and the
// playlistPanelVideoWrapperRenderer that wraps one under primaryRenderer.
package normalizer
