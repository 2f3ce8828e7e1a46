package extract_test

import (
	"context"
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/hbomb79/geoingest/internal/extract"
	"github.com/hbomb79/geoingest/tests/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content []byte) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// appendIFD appends a little-endian IFD holding a single entry with an inline value.
func appendIFD(tiff []byte, tag uint16, typ uint16, count uint32, value []byte, next uint32) []byte {
	inline := make([]byte, 4)
	copy(inline, value)

	tiff = binary.LittleEndian.AppendUint16(tiff, 1)
	tiff = binary.LittleEndian.AppendUint16(tiff, tag)
	tiff = binary.LittleEndian.AppendUint16(tiff, typ)
	tiff = binary.LittleEndian.AppendUint32(tiff, count)
	tiff = append(tiff, inline...)
	return binary.LittleEndian.AppendUint32(tiff, next)
}

func geotaggedFixture() *helpers.GPSFixture {
	return &helpers.GPSFixture{
		Lat:    [3][2]uint32{{40, 1}, {7, 1}, {2442, 100}},
		LatRef: "N",
		Lon:    [3][2]uint32{{8, 1}, {34, 1}, {408, 100}},
		LonRef: "E",
		Alt:    &[2]uint32{11250, 100},
	}
}

func Test_PhotoExtract_NorthEast(t *testing.T) {
	path := writeFile(t, "DJI_0001.JPG", helpers.WrapJPEG(helpers.BuildTiff(geotaggedFixture())))

	result := extract.NewPhotoExtractor().Extract(context.Background(), path)
	require.Equal(t, extract.Located, result.Status, "unexpected result %s", result)

	assert.InDelta(t, 40+7.0/60+24.42/3600, result.Coordinate.Latitude, 1e-9)
	assert.InDelta(t, 8+34.0/60+4.08/3600, result.Coordinate.Longitude, 1e-9)
	require.NotNil(t, result.Coordinate.Altitude)
	assert.InDelta(t, 112.5, *result.Coordinate.Altitude, 1e-9)
}

func Test_PhotoExtract_SouthWest(t *testing.T) {
	fixture := &helpers.GPSFixture{
		Lat:    [3][2]uint32{{33, 1}, {52, 1}, {768, 100}},
		LatRef: "S",
		Lon:    [3][2]uint32{{151, 1}, {12, 1}, {3348, 100}},
		LonRef: "W",
	}
	path := writeFile(t, "IMG_0002.jpg", helpers.BuildTiff(fixture))

	result := extract.NewPhotoExtractor().Extract(context.Background(), path)
	require.Equal(t, extract.Located, result.Status, "unexpected result %s", result)

	assert.InDelta(t, -(33 + 52.0/60 + 7.68/3600), result.Coordinate.Latitude, 1e-9)
	assert.InDelta(t, -(151 + 12.0/60 + 33.48/3600), result.Coordinate.Longitude, 1e-9)
	assert.Nil(t, result.Coordinate.Altitude)
}

func Test_PhotoExtract_ExifWithoutGPS(t *testing.T) {
	path := writeFile(t, "DJI_0003.JPG", helpers.WrapJPEG(helpers.BuildTiff(nil)))

	result := extract.NewPhotoExtractor().Extract(context.Background(), path)
	assert.Equal(t, extract.Absent, result.Status)
	assert.NoError(t, result.Err)
}

func Test_PhotoExtract_NoExifContainer(t *testing.T) {
	path := writeFile(t, "plain.png", []byte("definitely not an image"))

	result := extract.NewPhotoExtractor().Extract(context.Background(), path)
	assert.Equal(t, extract.Absent, result.Status)
}

func Test_PhotoExtract_MissingFile(t *testing.T) {
	result := extract.NewPhotoExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "gone.jpg"))
	assert.Equal(t, extract.Failed, result.Status)
	assert.ErrorIs(t, result.Err, os.ErrNotExist)
}

func Test_PhotoExtract_ZeroDenominator(t *testing.T) {
	fixture := &helpers.GPSFixture{
		Lat:    [3][2]uint32{{40, 0}, {0, 1}, {0, 1}},
		LatRef: "N",
		Lon:    [3][2]uint32{{8, 1}, {0, 1}, {0, 1}},
		LonRef: "E",
	}
	path := writeFile(t, "broken.jpg", helpers.WrapJPEG(helpers.BuildTiff(fixture)))

	result := extract.NewPhotoExtractor().Extract(context.Background(), path)
	assert.Equal(t, extract.Failed, result.Status)
	assert.Error(t, result.Err)
}

// Test_PhotoExtract_CorruptTagCount ensures a tag declaring far more values than the
// file holds is reported as failed, rather than being sized and allocated by the decoder.
func Test_PhotoExtract_CorruptTagCount(t *testing.T) {
	tests := []struct {
		name  string
		count uint32
	}{
		{"WrapsWhenMultiplied", 0x20000001},
		{"Huge", 0x40000000},
		{"NearMax", 0xfffffffe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture := geotaggedFixture()
			fixture.LatCount = tt.count

			for _, content := range [][]byte{helpers.BuildTiff(fixture), helpers.WrapJPEG(helpers.BuildTiff(fixture))} {
				path := writeFile(t, "DJI_0001.JPG", content)

				result := extract.NewPhotoExtractor().Extract(context.Background(), path)
				assert.Equal(t, extract.Failed, result.Status, "unexpected result %s", result)
				assert.ErrorContains(t, result.Err, "beyond the end of the data")
			}
		})
	}
}

func Test_PhotoExtract_IFDChainLoop(t *testing.T) {
	// IFD0 (offset 8) chains to IFD1 (offset 26), which chains back to IFD0
	tiff := []byte{'I', 'I', 0x2a, 0x00, 8, 0, 0, 0}
	tiff = appendIFD(tiff, 0x010f, 2, 4, []byte("DJI\x00"), 26)
	tiff = appendIFD(tiff, 0x010f, 2, 4, []byte("DJI\x00"), 8)
	path := writeFile(t, "DJI_0001.JPG", helpers.WrapJPEG(tiff))

	result := extract.NewPhotoExtractor().Extract(context.Background(), path)
	assert.Equal(t, extract.Failed, result.Status, "unexpected result %s", result)
	assert.ErrorContains(t, result.Err, "referenced more than once")
}

func Test_PhotoExtract_GPSPointerOutOfRange(t *testing.T) {
	pointer := binary.LittleEndian.AppendUint32(nil, 0xffff)
	tiff := appendIFD([]byte{'I', 'I', 0x2a, 0x00, 8, 0, 0, 0}, 0x8825, 4, 1, pointer, 0)
	path := writeFile(t, "DJI_0001.JPG", helpers.WrapJPEG(tiff))

	result := extract.NewPhotoExtractor().Extract(context.Background(), path)
	assert.Equal(t, extract.Failed, result.Status, "unexpected result %s", result)
	assert.ErrorContains(t, result.Err, "outside of the data")
}

func Test_PhotoExtract_TruncatedExifSegment(t *testing.T) {
	content := helpers.WrapJPEG(helpers.BuildTiff(geotaggedFixture()))
	path := writeFile(t, "DJI_0001.JPG", content[:len(content)/2])

	result := extract.NewPhotoExtractor().Extract(context.Background(), path)
	assert.Equal(t, extract.Failed, result.Status, "unexpected result %s", result)
	assert.ErrorContains(t, result.Err, "truncated APP1 segment")
}

// Test_PhotoExtract_CorruptedBytes overwrites random bytes of a valid photo and
// ensures every extraction completes with a well-formed result.
func Test_PhotoExtract_CorruptedBytes(t *testing.T) {
	original := helpers.WrapJPEG(helpers.BuildTiff(geotaggedFixture()))
	path := filepath.Join(t.TempDir(), "DJI_0001.JPG")
	extractor := extract.NewPhotoExtractor()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		corrupted := append([]byte{}, original...)
		for n := 0; n <= rng.Intn(4); n++ {
			corrupted[rng.Intn(len(corrupted))] = byte(rng.Intn(256))
		}
		require.NoError(t, os.WriteFile(path, corrupted, 0o644))

		var result extract.Extraction
		require.NotPanics(t, func() { result = extractor.Extract(context.Background(), path) })
		if result.Status == extract.Failed {
			assert.Error(t, result.Err)
		}
	}
}

func Test_DMSToDecimal(t *testing.T) {
	dms := [3]float64{10, 30, 36}
	expected := 10 + 30.0/60 + 36.0/3600

	assert.InDelta(t, expected, extract.DMSToDecimal(dms, "N", "N"), 1e-12)
	assert.InDelta(t, -expected, extract.DMSToDecimal(dms, "S", "N"), 1e-12)
	assert.InDelta(t, expected, extract.DMSToDecimal(dms, "E", "E"), 1e-12)
	assert.InDelta(t, -expected, extract.DMSToDecimal(dms, "W", "E"), 1e-12)
	assert.InDelta(t, -expected, extract.DMSToDecimal(dms, "", "E"), 1e-12, "unknown references are treated as negative")
}
