package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hbomb79/geoingest/internal/media"
)

const DefaultFfprobeBinPath = "ffprobe"

var (
	// Two consecutive signed decimals, as written by drones and phones
	// in the container 'location' tag (e.g. +40.1234-008.5678+123.000/).
	locationMatcher = regexp.MustCompile(`^([+-]\d+\.\d+)([+-]\d+\.\d+)`)

	// Container tags which may carry the location, in order of preference.
	locationTagKeys = []string{"location", "location-eng", "com.apple.quicktime.location.ISO6709"}
)

type (
	// VideoExtractor reads the location stored in the format-level tags
	// of a video container by running ffprobe.
	VideoExtractor struct {
		ffprobeBinPath string
		timeout        time.Duration
	}

	probeOutput struct {
		Format struct {
			Tags map[string]string `json:"tags"`
		} `json:"format"`
	}
)

// NewVideoExtractor creates an extractor which runs the ffprobe binary
// provided. Each probe is killed if it runs longer than the timeout
// given; a zero timeout waits indefinitely.
func NewVideoExtractor(ffprobeBinPath string, timeout time.Duration) *VideoExtractor {
	if ffprobeBinPath == "" {
		ffprobeBinPath = DefaultFfprobeBinPath
	}

	return &VideoExtractor{ffprobeBinPath, timeout}
}

func (e *VideoExtractor) Extract(ctx context.Context, path string) Extraction {
	output, err := e.probe(ctx, path)
	if err != nil {
		return failed(err)
	}

	for _, key := range locationTagKeys {
		value, ok := output.Format.Tags[key]
		if !ok {
			continue
		}

		lat, lon, ok := ParseLocation(value)
		if !ok {
			return absent("location tag '%s' has unrecognised value '%s'", key, value)
		}

		return located(media.Coordinate{Latitude: lat, Longitude: lon})
	}

	return absent("container has no location tag")
}

// probe runs ffprobe against the path and decodes the format tags it
// reports. The process is always waited on, including when the context
// is cancelled or the timeout elapses.
func (e *VideoExtractor) probe(ctx context.Context, path string) (*probeOutput, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.ffprobeBinPath,
		"-v", "error",
		"-show_entries", "format_tags",
		"-select_streams", "v:0",
		"-of", "json",
		path,
	)
	// Don't hang on grandchildren holding the output pipes after a kill
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("ffprobe did not complete within %s", e.timeout)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		return nil, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var output probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &output); err != nil {
		return nil, fmt.Errorf("failed to decode ffprobe output: %w", err)
	}

	return &output, nil
}

// ParseLocation extracts the latitude and longitude from a container location
// value such as '+40.1234-008.5678'. Only the two leading signed decimals are
// considered, anything following them (altitude, CRS suffix) is ignored.
func ParseLocation(value string) (float64, float64, bool) {
	groups := locationMatcher.FindStringSubmatch(value)
	if groups == nil {
		return 0, 0, false
	}

	lat, err := strconv.ParseFloat(groups[1], 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(groups[2], 64)
	if err != nil {
		return 0, 0, false
	}

	return lat, lon, true
}
