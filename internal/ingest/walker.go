package ingest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/facette/natsort"
	"github.com/hbomb79/geoingest/internal/media"
)

var (
	photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
	videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".avi": true, ".mkv": true}
)

// Candidate is a file found inside of a mission folder which
// may contain a location.
type Candidate struct {
	Path string
	Name string
	Type media.MediaType
}

// Classify returns the media type for the file at the path given, based on it's
// (case-insensitive) extension. False is returned for files which are neither
// a supported photo nor video.
func Classify(path string) (media.MediaType, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case photoExtensions[ext]:
		return media.Photo, true
	case videoExtensions[ext]:
		return media.Video, true
	default:
		return "", false
	}
}

// Walk recursively walks the file system starting at the directory provided and
// returns every photo or video found. Other files are ignored. Directories which
// cannot be read are logged and skipped, however failure to read the root
// directory itself is returned as an error.
//
// A root which is a symbolic link is resolved before walking, though the paths
// returned remain relative to the root as given. Links found inside of the root
// are not followed.
//
// The candidates are returned in natural path order (DJI_0002 before DJI_0010).
func Walk(rootDirPath string) ([]Candidate, error) {
	walkRoot, err := filepath.EvalSymlinks(rootDirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to walk file system: %w", err)
	}

	candidates := make([]Candidate, 0)
	err = filepath.WalkDir(walkRoot, func(path string, dir fs.DirEntry, err error) error {
		if err != nil {
			if path == walkRoot {
				return err
			}

			log.Warnf("Skipping unreadable path %s: %v\n", path, err)
			return nil
		}

		if dir.IsDir() {
			return nil
		}

		if typ, ok := Classify(path); ok {
			rel, err := filepath.Rel(walkRoot, path)
			if err != nil {
				return err
			}

			candidates = append(candidates, Candidate{Path: filepath.Join(rootDirPath, rel), Name: dir.Name(), Type: typ})
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk file system: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return natsort.Compare(candidates[i].Path, candidates[j].Path)
	})

	return candidates, nil
}
