package pipeline

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Kind is the broad category of a supported file.
type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
	KindImage    Kind = "image"
)

// Supported file extensions (lowercase, with leading dot).
var extensionKinds = map[string]Kind{
	".mp4": KindVideo, ".mkv": KindVideo, ".avi": KindVideo, ".mov": KindVideo,
	".wmv": KindVideo, ".flv": KindVideo, ".webm": KindVideo, ".m4v": KindVideo,
	".3gp": KindVideo, ".ts": KindVideo, ".mts": KindVideo,

	".mp3": KindAudio, ".flac": KindAudio, ".wav": KindAudio, ".aac": KindAudio,
	".ogg": KindAudio, ".wma": KindAudio, ".m4a": KindAudio, ".opus": KindAudio,
	".aiff": KindAudio,

	".pdf": KindDocument, ".doc": KindDocument, ".docx": KindDocument, ".txt": KindDocument,
	".rtf": KindDocument, ".odt": KindDocument, ".xls": KindDocument, ".xlsx": KindDocument,
	".ppt": KindDocument, ".pptx": KindDocument, ".zip": KindDocument, ".rar": KindDocument,

	".jpg": KindImage, ".jpeg": KindImage, ".png": KindImage, ".gif": KindImage,
	".bmp": KindImage, ".tiff": KindImage, ".webp": KindImage, ".svg": KindImage,
	".ico": KindImage,
}

// KindOf returns the category of path by extension, or "" when the
// extension is not supported.
func KindOf(path string) Kind {
	return extensionKinds[strings.ToLower(filepath.Ext(path))]
}

// Discover walks inputDir, collects supported files, prunes hidden
// directories, and returns the paths sorted lexicographically for
// deterministic processing order.
func Discover(inputDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != inputDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && KindOf(path) != "" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
