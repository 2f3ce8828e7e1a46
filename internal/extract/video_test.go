package extract_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/hbomb79/geoingest/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFfprobe writes an executable shell script which stands in for ffprobe. The
// script body is run verbatim, so it can print JSON, fail, or stall.
func fakeFfprobe(t *testing.T, body string) string {
	if runtime.GOOS == "windows" {
		t.Skip("fake ffprobe scripts require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "ffprobe")
	script := fmt.Sprintf("#!/bin/sh\n%s\n", body)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func printJSON(json string) string {
	return fmt.Sprintf("cat <<'EOF'\n%s\nEOF", json)
}

func Test_VideoExtract_LocationTag(t *testing.T) {
	bin := fakeFfprobe(t, printJSON(`{"format": {"tags": {"major_brand": "isom", "location": "+40.1234-008.5678/"}}}`))

	result := extract.NewVideoExtractor(bin, time.Second).Extract(context.Background(), "DJI_0001.MP4")
	require.Equal(t, extract.Located, result.Status, "unexpected result %s", result)

	assert.Equal(t, 40.1234, result.Coordinate.Latitude)
	assert.Equal(t, -8.5678, result.Coordinate.Longitude)
	assert.Nil(t, result.Coordinate.Altitude, "videos never report altitude")
}

func Test_VideoExtract_FallbackTags(t *testing.T) {
	bin := fakeFfprobe(t, printJSON(`{"format": {"tags": {"com.apple.quicktime.location.ISO6709": "-33.8688+151.2093+012.000/"}}}`))

	result := extract.NewVideoExtractor(bin, time.Second).Extract(context.Background(), "IMG_0001.MOV")
	require.Equal(t, extract.Located, result.Status, "unexpected result %s", result)

	assert.Equal(t, -33.8688, result.Coordinate.Latitude)
	assert.Equal(t, 151.2093, result.Coordinate.Longitude)
}

func Test_VideoExtract_NoData(t *testing.T) {
	tests := []struct {
		summary string
		output  string
	}{
		{"No tags", `{"format": {}}`},
		{"No location tag", `{"format": {"tags": {"encoder": "Lavf58"}}}`},
		{"Empty location", `{"format": {"tags": {"location": ""}}}`},
		{"Single number", `{"format": {"tags": {"location": "+40.1234"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			bin := fakeFfprobe(t, printJSON(tt.output))

			result := extract.NewVideoExtractor(bin, time.Second).Extract(context.Background(), "clip.mkv")
			assert.Equal(t, extract.Absent, result.Status, "unexpected result %s", result)
			assert.NoError(t, result.Err)
		})
	}
}

func Test_VideoExtract_ProbeFailures(t *testing.T) {
	tests := []struct {
		summary string
		script  string
	}{
		{"Non-zero exit", "echo 'clip.avi: Invalid data found when processing input' >&2\nexit 1"},
		{"Malformed JSON", "echo '{\"format\": '"},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			bin := fakeFfprobe(t, tt.script)

			result := extract.NewVideoExtractor(bin, time.Second).Extract(context.Background(), "clip.avi")
			assert.Equal(t, extract.Failed, result.Status)
			assert.Error(t, result.Err)
		})
	}
}

func Test_VideoExtract_StderrIncludedInError(t *testing.T) {
	bin := fakeFfprobe(t, "echo 'moov atom not found' >&2\nexit 1")

	result := extract.NewVideoExtractor(bin, time.Second).Extract(context.Background(), "clip.mp4")
	require.Equal(t, extract.Failed, result.Status)
	assert.Contains(t, result.Err.Error(), "moov atom not found")
}

func Test_VideoExtract_Timeout(t *testing.T) {
	bin := fakeFfprobe(t, "exec sleep 5")

	start := time.Now()
	result := extract.NewVideoExtractor(bin, 100*time.Millisecond).Extract(context.Background(), "clip.mp4")
	assert.Equal(t, extract.Failed, result.Status)
	assert.Contains(t, result.Err.Error(), "did not complete")
	assert.Less(t, time.Since(start), 4*time.Second, "probe should be killed at the timeout")
}

func Test_VideoExtract_MissingBinary(t *testing.T) {
	result := extract.NewVideoExtractor(filepath.Join(t.TempDir(), "no-ffprobe"), time.Second).Extract(context.Background(), "clip.mp4")
	assert.Equal(t, extract.Failed, result.Status)
}

func Test_ParseLocation(t *testing.T) {
	tests := []struct {
		value    string
		ok       bool
		lat, lon float64
	}{
		{"+40.1234-008.5678", true, 40.1234, -8.5678},
		{"+40.1234-008.5678+120.500/", true, 40.1234, -8.5678},
		{"-00.5000+000.2500/", true, -0.5, 0.25},
		{"", false, 0, 0},
		{"+40.1234", false, 0, 0},
		{"40.1234,-8.5678", false, 0, 0},
		{" +40.1234-008.5678", false, 0, 0},
		{"+40-008", false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			lat, lon, ok := extract.ParseLocation(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.lat, lat)
			assert.Equal(t, tt.lon, lon)
		})
	}
}
