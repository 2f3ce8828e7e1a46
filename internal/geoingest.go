package internal

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hbomb79/geoingest/internal/database"
	"github.com/hbomb79/geoingest/internal/extract"
	"github.com/hbomb79/geoingest/internal/ingest"
	"github.com/hbomb79/geoingest/internal/media"
	"github.com/hbomb79/geoingest/pkg/logger"
)

var log = logger.Get("Core")

// geoIngest is the top-level object for a single invocation, responsible
// for connecting to the database and wiring the stores and extractors
// in to the ingest service.
type geoIngest struct {
	config Config
}

func New(config Config) *geoIngest {
	log.Emit(logger.DEBUG, "Bootstrapping using base folder %s (parallelism=%d, abort_on_error=%v)\n", config.BaseFolder, config.ExtractParallelism, config.AbortOnError)
	return &geoIngest{config: config}
}

// Run connects to the database (applying any pending migrations) and ingests every
// mission found inside the configured base folder. The report is returned even
// when the run fails, provided the ingestion was started.
func (app *geoIngest) Run(ctx context.Context) (*ingest.RunReport, error) {
	db, err := app.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ingestConfig := ingest.Config{
		BaseFolder:         app.config.BaseFolder,
		ExtractParallelism: app.config.ExtractParallelism,
		AbortOnError:       app.config.AbortOnError,
	}
	photos := extract.NewPhotoExtractor()
	videos := extract.NewVideoExtractor(app.config.FfprobePath, app.config.ProbeTimeout())

	serv, err := ingest.New(ingestConfig, newDataOrchestrator(db), photos, videos)
	if err != nil {
		return nil, fmt.Errorf("failed to construct ingestion service: %w", err)
	}

	return serv.Run(ctx)
}

// Migrate connects to the database, applies any pending
// migrations, and then disconnects.
func (app *geoIngest) Migrate(ctx context.Context) error {
	db, err := app.connect(ctx)
	if err != nil {
		return err
	}

	log.Emit(logger.SUCCESS, "Database schema is up to date\n")
	return db.Close()
}

func (app *geoIngest) connect(ctx context.Context) (database.Manager, error) {
	log.Emit(logger.INFO, "Connecting to database %s@%s:%d/%s...\n", app.config.User, app.config.Host, app.config.Port, app.config.Name)
	db := database.New()
	if err := db.Connect(ctx, app.config.Config); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Inspect runs the extractors over each of the files provided, writing the
// outcome for each as a row of a table. Nothing is persisted. Files which are
// neither a supported photo nor video are listed as unsupported.
func Inspect(ctx context.Context, photos extract.Extractor, videos extract.Extractor, paths []string, out io.Writer) error {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "FILE\tTYPE\tSTATUS\tDETAIL")
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		typ, ok := ingest.Classify(path)
		if !ok {
			fmt.Fprintf(writer, "%s\t-\tUNSUPPORTED\t-\n", path)
			continue
		}

		extractor := photos
		if typ == media.Video {
			extractor = videos
		}

		result := extractor.Extract(ctx, path)
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", path, typ, result.Status, inspectDetail(result))
	}

	return writer.Flush()
}

func inspectDetail(result extract.Extraction) string {
	switch result.Status {
	case extract.Located:
		return result.Coordinate.String()
	case extract.Failed:
		if result.Err != nil {
			return result.Err.Error()
		}
		return result.Reason
	default:
		return result.Reason
	}
}
