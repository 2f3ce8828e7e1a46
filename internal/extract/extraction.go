package extract

import (
	"context"
	"fmt"

	"github.com/hbomb79/geoingest/internal/media"
	"github.com/hbomb79/geoingest/pkg/logger"
)

var log = logger.Get("Extract")

type (
	Status int

	// Extraction is the outcome of reading the location of a single media file. Exactly
	// one of the following holds:
	//   - Located: the Coordinate is populated,
	//   - Absent:  the file legitimately carries no location, Reason explains why,
	//   - Failed:  the extractor could not read the file, Err contains the cause.
	Extraction struct {
		Status     Status
		Coordinate media.Coordinate
		Reason     string
		Err        error
	}

	Extractor interface {
		Extract(ctx context.Context, path string) Extraction
	}
)

const (
	Absent Status = iota
	Located
	Failed
)

func (s Status) String() string {
	switch s {
	case Located:
		return "LOCATED"
	case Failed:
		return "FAILED"
	default:
		return "ABSENT"
	}
}

func located(coord media.Coordinate) Extraction {
	return Extraction{Status: Located, Coordinate: coord}
}

func absent(reason string, args ...any) Extraction {
	return Extraction{Status: Absent, Reason: fmt.Sprintf(reason, args...)}
}

func failed(err error) Extraction {
	return Extraction{Status: Failed, Err: err}
}

func (e Extraction) String() string {
	switch e.Status {
	case Located:
		return e.Coordinate.String()
	case Failed:
		return fmt.Sprintf("failed: %v", e.Err)
	default:
		return fmt.Sprintf("no location: %s", e.Reason)
	}
}
