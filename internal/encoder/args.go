package encoder

// DefaultAudioCodec is used when Options.AudioCodec is empty.
const DefaultAudioCodec = "aac"

// BuildMergeArgs constructs ffmpeg arguments that mux a video-only and an
// audio-only input into outputPath. Video is stream-copied; audio is
// re-encoded with audioCodec.
func BuildMergeArgs(videoPath, audioPath, outputPath, audioCodec string, includeProgress bool) []string {
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", valueOr(audioCodec, DefaultAudioCodec),
		"-strict", "experimental",
	}

	if includeProgress {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}

	args = append(args, outputPath)
	return args
}

func valueOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
