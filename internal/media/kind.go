package media

import (
	"path/filepath"
	"strings"
)

// Kind partitions jobs by media type. The parameter resolver and the job
// builder branch on it; the outcome gate does not.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

var kindByExtension = map[string]Kind{
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".webp": KindImage,
	".gif":  KindImage,
	".heic": KindImage,
	".mp4":  KindVideo,
	".mov":  KindVideo,
	".mkv":  KindVideo,
	".webm": KindVideo,
	".avi":  KindVideo,
	".m4v":  KindVideo,
	".mp3":  KindAudio,
	".m4a":  KindAudio,
	".aac":  KindAudio,
	".wav":  KindAudio,
	".flac": KindAudio,
	".aiff": KindAudio,
	".aif":  KindAudio,
	".ogg":  KindAudio,
	".opus": KindAudio,
}

// KindForPath classifies a file by extension. Returns false for anything the
// pipeline does not handle.
func KindForPath(path string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(path)))
	kind, ok := kindByExtension[ext]
	return kind, ok
}

// ParseKind converts a stored string into a Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindImage:
		return KindImage, true
	case KindVideo:
		return KindVideo, true
	case KindAudio:
		return KindAudio, true
	default:
		return "", false
	}
}

var losslessAudioFormats = map[string]struct{}{
	"wav":  {},
	"wave": {},
	"flac": {},
	"aiff": {},
	"aif":  {},
	"alac": {},
	"pcm":  {},
}

// IsLosslessAudio reports whether a detected format name describes a lossless
// audio container. ffprobe format names can be comma-separated lists
// (e.g. "mov,mp4,m4a,3gp,3g2,mj2"); any lossless member counts.
func IsLosslessAudio(format string) bool {
	for _, name := range strings.Split(strings.ToLower(format), ",") {
		name = strings.TrimSpace(name)
		if _, ok := losslessAudioFormats[name]; ok {
			return true
		}
		if strings.HasPrefix(name, "pcm_") {
			return true
		}
	}
	return false
}

// AnimatedImageFormats lists image containers that can carry animation.
func IsAnimatedImageFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "gif", "webp", "apng", "png_pipe+apng":
		return true
	default:
		return false
	}
}
