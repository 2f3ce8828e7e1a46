package internal

import (
	"github.com/hbomb79/geoingest/internal/database"
	"github.com/hbomb79/geoingest/internal/media"
	"github.com/hbomb79/geoingest/internal/mission"
	"github.com/jmoiron/sqlx"
)

type (
	// dataOrchestrator links the 'dumb' data stores together with
	// the database instance. Each store is unaware of the connection it
	// is used with, and does not manage transactions.
	//
	// Writes that must be atomic (such as saving all of the records for
	// a mission) are wrapped in a transaction here.
	dataOrchestrator struct {
		db           database.Manager
		MissionStore *mission.Store
		MediaStore   *media.Store
	}
)

func newDataOrchestrator(db database.Manager) *dataOrchestrator {
	return &dataOrchestrator{
		db:           db,
		MissionStore: &mission.Store{},
		MediaStore:   &media.Store{},
	}
}

func (orchestrator *dataOrchestrator) GetMissionID(name string) (int, error) {
	return orchestrator.MissionStore.GetIDByName(orchestrator.db.GetSqlxDb(), name)
}

// SaveMissionRecords inserts all of the records provided in a single transaction. Records
// whose path is already stored are skipped, and the number of rows
// actually inserted is returned.
func (orchestrator *dataOrchestrator) SaveMissionRecords(records []*media.Record) (int64, error) {
	var inserted int64
	err := orchestrator.db.WrapTx(func(tx *sqlx.Tx) error {
		n, err := orchestrator.MediaStore.SaveRecords(tx, records)
		inserted = n
		return err
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

func (orchestrator *dataOrchestrator) CountMissionRecords(missionID int) (int, error) {
	return orchestrator.MediaStore.CountForMission(orchestrator.db.GetSqlxDb(), missionID)
}
