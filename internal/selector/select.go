// Package selector picks the video and audio streams to merge from an
// extractor catalog. Everything here is pure: no I/O, deterministic output.
package selector

import (
	"sort"
	"strings"

	"golang.org/x/text/language"

	"tubemerge/internal/model"
	"tubemerge/internal/util/bitrate"
)

// Language preference scores.
const (
	scoreOther     = 0
	scoreNoLang    = 1
	scorePreferred = 2
)

// Preferences controls audio track ranking.
type Preferences struct {
	// LanguagePrefixes are lowercase codes; a track whose identifier starts
	// with any of them is preferred.
	LanguagePrefixes []string
}

// NewPreferences expands a configured language code into the prefixes it
// should match. "pt" yields {"pt", "por"}; "por" yields {"por", "pt"}.
// An empty code disables the preferred tier.
func NewPreferences(code string) Preferences {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return Preferences{}
	}
	prefixes := []string{code}
	if base, err := language.ParseBase(code); err == nil {
		prefixes = appendUnique(prefixes, strings.ToLower(base.String()))
		if iso3 := base.ISO3(); iso3 != "" {
			prefixes = appendUnique(prefixes, strings.ToLower(iso3))
		}
	}
	return Preferences{LanguagePrefixes: prefixes}
}

// SelectVideoStream picks the video-only stream in container matching
// requested exactly, falling back to the highest resolution available.
// It reports false when no video-only stream in container exists.
func SelectVideoStream(cat model.Catalog, container, requested string) (model.VideoStream, bool) {
	candidates := make([]model.VideoStream, 0, len(cat.Video))
	for _, v := range cat.Video {
		if v.VideoOnly && sameContainer(v.Container, container) {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return model.VideoStream{}, false
	}

	for _, v := range candidates {
		if v.Resolution == requested {
			return v, true
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri := model.ParseResolution(candidates[i].Resolution)
		rj := model.ParseResolution(candidates[j].Resolution)
		return rj.Less(ri)
	})
	return candidates[0], true
}

// SelectAudioStream ranks audio-only streams in container by language score,
// then bitrate, keeping catalog order on ties.
func SelectAudioStream(cat model.Catalog, container string, prefs Preferences) (model.AudioStream, bool) {
	candidates := make([]model.AudioStream, 0, len(cat.Audio))
	for _, a := range cat.Audio {
		if sameContainer(a.Container, container) {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return model.AudioStream{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := prefs.LanguageScore(candidates[i].Language), prefs.LanguageScore(candidates[j].Language)
		if si != sj {
			return si > sj
		}
		return bitrate.ParseKbps(candidates[i].Bitrate) > bitrate.ParseKbps(candidates[j].Bitrate)
	})
	return candidates[0], true
}

// LanguageScore rates a track identifier: 2 for a preferred language,
// 1 when the track has no identifier, 0 otherwise.
func (p Preferences) LanguageScore(lang string) int {
	if lang == "" {
		return scoreNoLang
	}
	lang = strings.ToLower(lang)
	for _, prefix := range p.LanguagePrefixes {
		if strings.HasPrefix(lang, prefix) {
			return scorePreferred
		}
	}
	return scoreOther
}

// AvailableResolutions lists the distinct resolutions of adaptive video
// streams in container, highest first.
func AvailableResolutions(cat model.Catalog, container string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, v := range cat.Video {
		if !v.VideoOnly || !sameContainer(v.Container, container) || v.Resolution == "" {
			continue
		}
		if _, dup := seen[v.Resolution]; dup {
			continue
		}
		seen[v.Resolution] = struct{}{}
		out = append(out, v.Resolution)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return model.ParseResolution(out[j]).Less(model.ParseResolution(out[i]))
	})
	return out
}

// Select runs both selectors and returns a typed error naming the missing kind.
func Select(cat model.Catalog, container, requested string, prefs Preferences) (model.Selection, error) {
	v, ok := SelectVideoStream(cat, container, requested)
	if !ok {
		return model.Selection{}, &model.NoSuitableStreamError{Kind: "video", Container: container}
	}
	a, ok := SelectAudioStream(cat, container, prefs)
	if !ok {
		return model.Selection{}, &model.NoSuitableStreamError{Kind: "audio", Container: container}
	}
	return model.Selection{Video: v, Audio: a}, nil
}

func sameContainer(a, b string) bool {
	return strings.EqualFold(strings.TrimPrefix(a, "."), strings.TrimPrefix(b, "."))
}

func appendUnique(ss []string, s string) []string {
	for _, existing := range ss {
		if existing == s {
			return ss
		}
	}
	return append(ss, s)
}
