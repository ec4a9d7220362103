package model

// VideoInfo is the metadata returned by the info operation.
type VideoInfo struct {
	Title       string   `json:"title"`
	Thumbnail   string   `json:"thumbnail"`
	Author      string   `json:"author"`
	Length      int      `json:"length"` // Seconds.
	Resolutions []string `json:"resolutions"`
	URL         string   `json:"url"`
}

// VideoStream describes one selectable video track offered by the extractor.
type VideoStream struct {
	ID            string // Extractor-specific handle (itag, format_id).
	Container     string // File extension, e.g. "mp4".
	Resolution    string // Label such as "1080p".
	VideoOnly     bool   // False for progressive (muxed) streams.
	ContentLength int64  // 0 if unknown.
}

// AudioStream describes one selectable audio-only track offered by the extractor.
type AudioStream struct {
	ID            string
	Container     string
	Bitrate       string // Label such as "128kbps"; may be empty.
	Language      string // Audio track identifier, e.g. "en.4"; empty when the track has none.
	ContentLength int64
}

// Catalog lists the streams available for one source, in extractor order.
type Catalog struct {
	Video []VideoStream
	Audio []AudioStream
}

// Source is everything the extractor reports about a single URL.
type Source struct {
	ID          string
	URL         string
	Title       string
	Author      string
	Thumbnail   string
	DurationSec int
	Catalog     Catalog

	// Handle is extractor-private state carried from Fetch to Download.
	Handle any
}

// Selection is the pair of streams chosen for one merge.
type Selection struct {
	Video VideoStream
	Audio AudioStream
}

// ScratchFiles are the transient per-merge payload paths.
type ScratchFiles struct {
	Video string
	Audio string
}

// MergeArtifact is the final muxed file exposed to callers.
type MergeArtifact struct {
	Filename   string `json:"filename"`
	Path       string `json:"-"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	Resolution string `json:"resolution"`
	Bytes      int64  `json:"size"`
}
