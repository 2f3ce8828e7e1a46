package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hbomb79/geoingest/internal/media"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// PhotoExtractor reads the GPS position stored in the EXIF
// block of an image.
type PhotoExtractor struct{}

func NewPhotoExtractor() *PhotoExtractor {
	return &PhotoExtractor{}
}

// Extract reads the GPS position of the photo at the path given. The EXIF structure
// is validated before it is decoded, and malformed structures are reported as Failed.
func (e *PhotoExtractor) Extract(ctx context.Context, path string) (result Extraction) {
	if err := ctx.Err(); err != nil {
		return failed(err)
	}

	defer func() {
		if r := recover(); r != nil {
			result = failed(fmt.Errorf("EXIF decoder panicked: %v", r))
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return failed(fmt.Errorf("failed to open photo: %w", err))
	}
	defer f.Close()

	data, err := readExifTiff(f)
	if err != nil {
		if errors.Is(err, errNoExif) {
			return absent("no EXIF data (%v)", err)
		}

		return failed(fmt.Errorf("failed to read EXIF data: %w", err))
	}
	if err := validateTiff(data); err != nil {
		return failed(err)
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		if exif.IsCriticalError(err) {
			return absent("no EXIF data (%v)", err)
		}
		if exif.IsGPSError(err) {
			return failed(fmt.Errorf("malformed GPS metadata: %w", err))
		}

		// Damage to other sub-IFDs does not affect the GPS tags
		log.Verbosef("Ignoring non-critical EXIF error in %s: %v\n", path, err)
	}

	return extractGPS(x)
}

func extractGPS(x *exif.Exif) Extraction {
	latTag, latErr := x.Get(exif.GPSLatitude)
	lonTag, lonErr := x.Get(exif.GPSLongitude)
	if latErr != nil || lonErr != nil {
		return absent("EXIF has no GPS latitude/longitude")
	}

	lat, err := tagDegrees(latTag)
	if err != nil {
		return failed(fmt.Errorf("invalid GPS latitude: %w", err))
	}
	lon, err := tagDegrees(lonTag)
	if err != nil {
		return failed(fmt.Errorf("invalid GPS longitude: %w", err))
	}

	latRef, err := tagRef(x, exif.GPSLatitudeRef)
	if err != nil {
		return failed(err)
	}
	lonRef, err := tagRef(x, exif.GPSLongitudeRef)
	if err != nil {
		return failed(err)
	}

	return located(media.Coordinate{
		Latitude:  DMSToDecimal(lat, latRef, "N"),
		Longitude: DMSToDecimal(lon, lonRef, "E"),
		Altitude:  tagAltitude(x),
	})
}

// DMSToDecimal converts a degree/minute/second triple to decimal degrees. The result is
// positive only when ref matches the positive hemisphere given ("N" or "E"), any other
// reference produces a negative value.
func DMSToDecimal(dms [3]float64, ref string, positive string) float64 {
	sign := -1.0
	if ref == positive {
		sign = 1.0
	}

	return sign * (dms[0] + dms[1]/60 + dms[2]/3600)
}

func tagDegrees(tag *tiff.Tag) ([3]float64, error) {
	var dms [3]float64
	if tag.Count < 3 {
		return dms, fmt.Errorf("expected 3 rationals, found %d", tag.Count)
	}

	for i := range dms {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return dms, err
		}
		if den == 0 {
			return dms, errors.New("rational has zero denominator")
		}

		dms[i] = float64(num) / float64(den)
	}

	return dms, nil
}

func tagRef(x *exif.Exif, name exif.FieldName) (string, error) {
	tag, err := x.Get(name)
	if err != nil {
		return "", fmt.Errorf("missing %s: %w", name, err)
	}

	ref, err := tag.StringVal()
	if err != nil {
		return "", fmt.Errorf("invalid %s: %w", name, err)
	}

	return strings.TrimRight(ref, "\x00 "), nil
}

// tagAltitude returns the GPS altitude as stored, the altitude
// reference (below sea level flag) is not applied.
func tagAltitude(x *exif.Exif) *float64 {
	tag, err := x.Get(exif.GPSAltitude)
	if err != nil {
		return nil
	}

	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return nil
	}

	alt := float64(num) / float64(den)
	return &alt
}
