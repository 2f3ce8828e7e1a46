package media

import (
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/hbomb79/geoingest/internal/database"
	"github.com/hbomb79/geoingest/pkg/logger"
)

const (
	tableName = "drone_mission"

	// Each row binds six parameters, and Postgres refuses statements
	// with more than 65535 of them.
	insertBatchSize = 5000
)

var (
	psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	log  = logger.Get("MediaStore")
)

type Store struct{}

// SaveRecords bulk inserts the records provided in to the drone_mission table. Records
// whose full path already exists in the table are silently skipped (they are NOT updated).
// The number of rows actually inserted is returned.
//
// No statement is issued if no records are given. Large slices are split in to multiple
// statements, callers wanting the records to be saved atomically should provide
// a transaction.
func (store *Store) SaveRecords(db database.Queryable, records []*Record) (int64, error) {
	var inserted int64
	for start := 0; start < len(records); start += insertBatchSize {
		end := min(start+insertBatchSize, len(records))

		query, args, err := buildInsert(records[start:end]).ToSql()
		if err != nil {
			return inserted, fmt.Errorf("failed to construct media insert query: %w", err)
		}

		result, err := db.Exec(query, args...)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert media records: %w", err)
		}

		if affected, err := result.RowsAffected(); err == nil {
			inserted += affected
		}
	}

	log.Emit(logger.DEBUG, "Inserted %d of %d media records\n", inserted, len(records))
	return inserted, nil
}

// CountForMission returns the number of media rows stored against the mission.
func (store *Store) CountForMission(db database.Queryable, missionID int) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From(tableName).Where(squirrel.Eq{"mission_id": missionID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to construct media count query: %w", err)
	}

	var count int
	if err := db.Get(&count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count media for mission %d: %w", missionID, err)
	}

	return count, nil
}

func buildInsert(records []*Record) squirrel.InsertBuilder {
	builder := psql.Insert(tableName).
		Columns("full_path", "file_name", "media_type", "altitude", "geom", "mission_id").
		Suffix("ON CONFLICT (full_path) DO NOTHING")

	for _, r := range records {
		builder = builder.Values(
			r.FullPath,
			r.FileName,
			string(r.MediaType),
			nullableAltitude(r.Altitude),
			squirrel.Expr("ST_GeomFromText(?, 4326)", r.PointWKT()),
			r.MissionID,
		)
	}

	return builder
}

func nullableAltitude(alt *float64) sql.NullFloat64 {
	if alt == nil {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: *alt, Valid: true}
}
