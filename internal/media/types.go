package media

import (
	"fmt"
	"strconv"
)

type (
	MediaType string

	// Coordinate is a WGS84 position in signed decimal degrees
	// (positive north/east). Altitude is optional, and is nil
	// when the source metadata did not carry one.
	Coordinate struct {
		Latitude  float64
		Longitude float64
		Altitude  *float64
	}

	// Record is a single geotagged media file which belongs to a
	// mission. Records are built once per discovered file, and are never
	// updated once persisted.
	Record struct {
		Coordinate
		FullPath  string
		FileName  string
		MediaType MediaType
		MissionID int
	}
)

const (
	Photo MediaType = "photo"
	Video MediaType = "video"
)

// PointWKT returns the well-known-text representation of the
// coordinate. Note that WKT orders the axis as longitude, latitude.
func (c Coordinate) PointWKT() string {
	return fmt.Sprintf("POINT(%s %s)", formatDegrees(c.Longitude), formatDegrees(c.Latitude))
}

func (c Coordinate) String() string {
	alt := "none"
	if c.Altitude != nil {
		alt = strconv.FormatFloat(*c.Altitude, 'f', -1, 64)
	}

	return fmt.Sprintf("{lat=%s lon=%s alt=%s}", formatDegrees(c.Latitude), formatDegrees(c.Longitude), alt)
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
