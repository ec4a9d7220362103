package downloader

// YTDLPInfo mirrors fields from yt-dlp -J output that we care about.
type YTDLPInfo struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Uploader  string        `json:"uploader"`
	Channel   string        `json:"channel"`
	Duration  float64       `json:"duration"`
	Thumbnail string        `json:"thumbnail"`
	Formats   []YTDLPFormat `json:"formats"`
}

// YTDLPFormat is one entry of the "formats" array.
type YTDLPFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Height         int     `json:"height"`
	ABR            float64 `json:"abr"`
	TBR            float64 `json:"tbr"`
	Language       string  `json:"language"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
}

func (f YTDLPFormat) hasVideo() bool { return f.VCodec != "" && f.VCodec != "none" }
func (f YTDLPFormat) hasAudio() bool { return f.ACodec != "" && f.ACodec != "none" }

func (f YTDLPFormat) size() int64 {
	if f.Filesize > 0 {
		return f.Filesize
	}
	return f.FilesizeApprox
}
