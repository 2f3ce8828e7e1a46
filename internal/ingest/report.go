package ingest

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type (
	// MissionReport summarises the ingestion of a single mission folder.
	MissionReport struct {
		Name      string
		Path      string
		MissionID int
		Photos    int
		Videos    int
		Located   int
		Absent    int
		Failed    int
		Inserted  int64
		Stored    int
		Err       error
	}

	// RunReport summarises a complete run over the base folder.
	RunReport struct {
		RunID    uuid.UUID
		Missions []*MissionReport
		Skipped  []string
	}
)

func (report *MissionReport) String() string {
	return fmt.Sprintf(
		"{mission=%s id=%d photos=%d videos=%d located=%d absent=%d failed=%d inserted=%d stored=%d}",
		report.Name, report.MissionID, report.Photos, report.Videos, report.Located, report.Absent, report.Failed, report.Inserted, report.Stored,
	)
}

// Err returns the errors of all failed missions joined together, or
// nil if every mission succeeded.
func (report *RunReport) Err() error {
	errs := make([]error, 0)
	for _, m := range report.Missions {
		if m.Err != nil {
			errs = append(errs, fmt.Errorf("mission '%s': %w", m.Name, m.Err))
		}
	}

	return errors.Join(errs...)
}

// Inserted returns the total number of rows inserted across all missions.
func (report *RunReport) Inserted() int64 {
	var total int64
	for _, m := range report.Missions {
		total += m.Inserted
	}

	return total
}
