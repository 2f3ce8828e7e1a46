package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hbomb79/geoingest/internal/extract"
	"github.com/hbomb79/geoingest/internal/media"
	"github.com/hbomb79/geoingest/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// MissionPrefix is the prefix a directory in the base
// folder must have to be ingested as a mission.
const MissionPrefix = "Mission"

var log = logger.Get("IngestServ")

type (
	dataStore interface {
		GetMissionID(name string) (int, error)
		SaveMissionRecords(records []*media.Record) (int64, error)
		CountMissionRecords(missionID int) (int, error)
	}

	// ingestService is responsible for loading the geotagged media of
	// every mission folder in to the database. Each mission is:
	// - Resolved to the ID of it's row in the missions table
	// - Walked to find all photos and videos
	// - Run through the photo/video extractors to find each files location
	// - Saved to the database, skipping any files which are already stored
	ingestService struct {
		config         Config
		dataStore      dataStore
		photoExtractor extract.Extractor
		videoExtractor extract.Extractor
	}
)

// New creates a new ingest service using the config and collaborators
// provided. The configs 'BaseFolder' is validated to be an existing directory.
func New(config Config, store dataStore, photoExtractor extract.Extractor, videoExtractor extract.Extractor) (*ingestService, error) {
	info, err := os.Stat(config.BaseFolder)
	if err != nil {
		return nil, fmt.Errorf("base folder '%s' could not be accessed: %w", config.BaseFolder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base folder '%s' is not a directory", config.BaseFolder)
	}

	return &ingestService{
		config:         config,
		dataStore:      store,
		photoExtractor: photoExtractor,
		videoExtractor: videoExtractor,
	}, nil
}

// Run processes every mission folder found directly inside of the base folder, one at
// a time. Entries which are not directories prefixed with 'Mission' are skipped.
//
// A failing mission does not stop the run unless the service is configured to
// abort on error. Either way, the returned error joins the errors of every failed
// mission, and the report describes everything processed up until the run stopped.
func (service *ingestService) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{RunID: uuid.New(), Missions: make([]*MissionReport, 0), Skipped: make([]string, 0)}

	entries, err := os.ReadDir(service.config.BaseFolder)
	if err != nil {
		return report, fmt.Errorf("failed to list base folder '%s': %w", service.config.BaseFolder, err)
	}

	log.Emit(logger.INFO, "Starting run %s over %s\n", report.RunID, service.config.BaseFolder)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		path := filepath.Join(service.config.BaseFolder, entry.Name())
		if !isMissionDir(path, entry) {
			log.Verbosef("Skipping %s as it is not a mission folder\n", path)
			report.Skipped = append(report.Skipped, entry.Name())
			continue
		}

		log.Emit(logger.INFO, "Processing mission: %s\n", entry.Name())
		missionReport := service.ProcessMission(ctx, entry.Name(), path)
		report.Missions = append(report.Missions, missionReport)

		if missionReport.Err != nil {
			log.Emit(logger.ERROR, "Mission '%s' failed: %v\n", missionReport.Name, missionReport.Err)
			if service.config.AbortOnError {
				return report, report.Err()
			}

			continue
		}

		log.Emit(logger.SUCCESS, "Processed media for mission '%s'. Files added: %d %s\n", missionReport.Name, missionReport.Inserted, missionReport)
	}

	log.Emit(logger.SUCCESS, "Processing complete (run %s): %d mission(s), %d file(s) added\n", report.RunID, len(report.Missions), report.Inserted())
	return report, report.Err()
}

// ProcessMission resolves, walks, extracts and persists a single mission. Any
// failure is recorded on the returned report rather than returned.
func (service *ingestService) ProcessMission(ctx context.Context, name string, path string) *MissionReport {
	report := &MissionReport{Name: name, Path: path}

	missionID, err := service.dataStore.GetMissionID(name)
	if err != nil {
		report.Err = err
		return report
	}
	report.MissionID = missionID

	candidates, err := Walk(path)
	if err != nil {
		report.Err = err
		return report
	}

	records, err := service.extractRecords(ctx, missionID, candidates, report)
	if err != nil {
		report.Err = err
		return report
	}

	if len(records) > 0 {
		inserted, err := service.dataStore.SaveMissionRecords(records)
		if err != nil {
			report.Err = fmt.Errorf("failed to save media records: %w", err)
			return report
		}

		report.Inserted = inserted
	}

	if stored, err := service.dataStore.CountMissionRecords(missionID); err == nil {
		report.Stored = stored
	} else {
		log.Warnf("Unable to count stored media for mission '%s': %v\n", name, err)
	}

	return report
}

// extractRecords runs the extractor for each candidate and returns a record for every
// file that was located, in the same order as the candidates. The outcome of each
// extraction is tallied on the report.
func (service *ingestService) extractRecords(ctx context.Context, missionID int, candidates []Candidate, report *MissionReport) ([]*media.Record, error) {
	results := make([]extract.Extraction, len(candidates))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(service.config.parallelism())
	for i, candidate := range candidates {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			results[i] = service.extractorFor(candidate.Type).Extract(groupCtx, candidate.Path)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Interrupted extractors report Failed rather than returning an error
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]*media.Record, 0, len(candidates))
	for i, candidate := range candidates {
		if candidate.Type == media.Photo {
			report.Photos++
		} else {
			report.Videos++
		}

		result := results[i]
		switch result.Status {
		case extract.Located:
			report.Located++
			log.Emit(logger.DEBUG, "%s metadata extracted: %s -> %s\n", candidate.Type, candidate.Path, result.Coordinate)
			records = append(records, &media.Record{
				Coordinate: result.Coordinate,
				FullPath:   candidate.Path,
				FileName:   candidate.Name,
				MediaType:  candidate.Type,
				MissionID:  missionID,
			})
		case extract.Absent:
			report.Absent++
			log.Emit(logger.DEBUG, "No GPS metadata found for %s: %s (%s)\n", candidate.Type, candidate.Path, result.Reason)
		case extract.Failed:
			report.Failed++
			log.Emit(logger.WARNING, "Error extracting GPS metadata from %s %s: %v\n", candidate.Type, candidate.Path, result.Err)
		}
	}

	return records, nil
}

func (service *ingestService) extractorFor(typ media.MediaType) extract.Extractor {
	if typ == media.Video {
		return service.videoExtractor
	}

	return service.photoExtractor
}

func isMissionDir(path string, entry fs.DirEntry) bool {
	if !strings.HasPrefix(entry.Name(), MissionPrefix) {
		return false
	}
	if entry.IsDir() {
		return true
	}

	// Follow links to directories
	if entry.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.IsDir()
	}

	return false
}
