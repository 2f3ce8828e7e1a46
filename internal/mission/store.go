package mission

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/hbomb79/geoingest/internal/database"
	"github.com/hbomb79/geoingest/pkg/logger"
)

// ErrMissionNotFound is returned (wrapped) when a mission name has no
// matching row in the missions table.
var ErrMissionNotFound = errors.New("mission not found")

const (
	tableName = "missoes"

	// Names at least this similar to a missing mission are offered
	// as a suggestion in the not found error.
	suggestionThreshold = 0.6
)

var (
	psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	log  = logger.Get("MissionStore")
)

// Store provides read-only access to the missions table, which is owned by the
// mission planning system rather than this tool.
type Store struct{}

// GetIDByName returns the identifier of the mission with the exact name provided. If
// no such mission exists, an error wrapping ErrMissionNotFound is returned.
func (store *Store) GetIDByName(db database.Queryable, name string) (int, error) {
	query, args, err := psql.Select("id").From(tableName).Where(squirrel.Eq{"nome": name}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to construct select mission query: %w", err)
	}

	var id int
	if err := db.Get(&id, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.notFoundError(db, name)
		}

		return 0, fmt.Errorf("failed to find mission '%s': %w", name, err)
	}

	return id, nil
}

// ListNames returns the names of all known missions.
func (store *Store) ListNames(db database.Queryable) ([]string, error) {
	query, args, err := psql.Select("nome").From(tableName).OrderBy("nome").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct list missions query: %w", err)
	}

	var names []string
	if err := db.Select(&names, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}

	return names, nil
}

func (store *Store) notFoundError(db database.Queryable, name string) error {
	names, err := store.ListNames(db)
	if err != nil {
		log.Emit(logger.DEBUG, "Unable to suggest alternative for mission '%s': %v\n", name, err)
		return fmt.Errorf("%w: '%s' has no entry in the %s table", ErrMissionNotFound, name, tableName)
	}

	if suggestion, ok := ClosestName(name, names); ok {
		return fmt.Errorf("%w: '%s' has no entry in the %s table (did you mean '%s'?)", ErrMissionNotFound, name, tableName, suggestion)
	}

	return fmt.Errorf("%w: '%s' has no entry in the %s table", ErrMissionNotFound, name, tableName)
}

// ClosestName finds the candidate most similar to the name given. A candidate
// is only returned if it is similar enough to be a plausible typo.
func ClosestName(name string, candidates []string) (string, bool) {
	metric := metrics.NewLevenshtein()
	metric.CaseSensitive = false

	best, bestScore := "", 0.0
	for _, candidate := range candidates {
		if score := strutil.Similarity(name, candidate, metric); score > bestScore {
			best, bestScore = candidate, score
		}
	}

	return best, bestScore >= suggestionThreshold
}
