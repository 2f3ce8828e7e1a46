package internal_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hbomb79/geoingest/internal"
	"github.com/hbomb79/geoingest/internal/extract"
	"github.com/hbomb79/geoingest/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticExtractor struct {
	result extract.Extraction
	calls  []string
}

func (e *staticExtractor) Extract(_ context.Context, path string) extract.Extraction {
	e.calls = append(e.calls, path)
	return e.result
}

func Test_Inspect(t *testing.T) {
	photos := &staticExtractor{result: extract.Extraction{Status: extract.Located, Coordinate: media.Coordinate{Latitude: 40.5, Longitude: -8.25}}}
	videos := &staticExtractor{result: extract.Extraction{Status: extract.Failed, Err: errors.New("moov atom not found")}}

	out := &bytes.Buffer{}
	err := internal.Inspect(context.Background(), photos, videos, []string{"DJI_0001.JPG", "DJI_0002.MP4", "flight.srt"}, out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, lines[1], "DJI_0001.JPG")
	assert.Contains(t, lines[1], "LOCATED")
	assert.Contains(t, lines[1], "40.5")
	assert.Contains(t, lines[2], "FAILED")
	assert.Contains(t, lines[2], "moov atom not found")
	assert.Contains(t, lines[3], "UNSUPPORTED")

	assert.Equal(t, []string{"DJI_0001.JPG"}, photos.calls)
	assert.Equal(t, []string{"DJI_0002.MP4"}, videos.calls)
}

func Test_Inspect_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	photos := &staticExtractor{}
	err := internal.Inspect(ctx, photos, photos, []string{"DJI_0001.JPG"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, photos.calls)
}
