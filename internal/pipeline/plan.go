package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"tubemerge/internal/config"
	"tubemerge/internal/model"
	"tubemerge/internal/selector"
	"tubemerge/internal/util/media"
)

// Plan is what a merge would do for one URL, computed without downloading.
type Plan struct {
	Source     model.Source
	Selection  model.Selection
	Requested  string
	Filename   string
	OutputPath string
	URL        string
}

// Fallback reports whether the requested resolution was unavailable.
func (p Plan) Fallback() bool {
	return p.Requested != "" && p.Selection.Video.Resolution != p.Requested
}

func (s *Service) planFor(src model.Source, resolution string) (Plan, error) {
	sel, err := selector.Select(src.Catalog, s.cfg.Container, resolution, s.prefs)
	if err != nil {
		return Plan{}, err
	}
	name := media.OutputFilename(src.Title, sel.Video.Resolution, s.cfg.Container)
	return Plan{
		Source:     src,
		Selection:  sel,
		Requested:  resolution,
		Filename:   name,
		OutputPath: filepath.Join(s.cfg.OutDir, name),
		URL:        PublicURL(s.cfg.PublicBaseURL, name),
	}, nil
}

// PublicURL joins the public base and an escaped filename.
func PublicURL(base, filename string) string {
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(filename)
}

// partialOutput is the per-merge file ffmpeg writes before it is renamed
// onto outputPath. The extension stays last so ffmpeg picks the muxer.
func partialOutput(outputPath, id string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + "." + id + ".part" + ext
}

// scratchFiles names the two transient payload files for one merge.
// Shared mode reuses fixed names and relies on the merge lock.
func scratchFiles(mode, dir, container, id string) model.ScratchFiles {
	ext := "." + strings.TrimPrefix(container, ".")
	if mode == config.ScratchShared || id == "" {
		return model.ScratchFiles{
			Video: filepath.Join(dir, "video_temp"+ext),
			Audio: filepath.Join(dir, "audio_temp"+ext),
		}
	}
	return model.ScratchFiles{
		Video: filepath.Join(dir, "video_temp-"+id+ext),
		Audio: filepath.Join(dir, "audio_temp-"+id+ext),
	}
}
