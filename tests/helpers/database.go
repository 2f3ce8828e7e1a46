package helpers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hbomb79/geoingest/internal/database"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgisImage = "docker.io/postgis/postgis:14-3.4-alpine"
	User         = "postgres"
	Password     = "postgres"
	MasterDBName = "geoingest_master"

	// The missions table is owned by the mission planning system, so it
	// is created here rather than by our migrations.
	missionsTableDDL = `CREATE TABLE IF NOT EXISTS missoes (id SERIAL PRIMARY KEY, nome TEXT NOT NULL UNIQUE)`
)

var (
	ctx                = context.Background()
	dbManager          = newDatabaseManager(MasterDBName)
	invalidDBNameChars = regexp.MustCompile(`[^a-z0-9_]+`)
)

// databaseManager is an internal test helper which facilitates
// the templating of a single 'master' database in a shared PostGIS
// docker instance. This allows tests to use individual databases without
// needing to create multiple instances of docker. This manager will:
//   - automatically spawn the container,
//   - create the missions table and migrate the database,
//   - mark the master database as a template, and,
//   - facilitate provisioning of new databases based off that master database.
type databaseManager struct {
	*sync.Mutex
	masterDatabaseName string
	pgContainer        *postgres.PostgresContainer
	masterConfig       database.Config
	connection         *sqlx.DB
}

func newDatabaseManager(databaseName string) *databaseManager {
	return &databaseManager{
		Mutex:              &sync.Mutex{},
		masterDatabaseName: databaseName,
	}
}

// RequireDatabase provisions a fresh, migrated database for the test and returns
// the configuration required to connect to it. Tests are skipped when running
// with -short, or when docker is unavailable.
func RequireDatabase(t *testing.T) database.Config {
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	name := invalidDBNameChars.ReplaceAllString(strings.ToLower(t.Name()), "_")
	name = fmt.Sprintf("%.40s_%s", name, uuid.NewString()[:8])

	return dbManager.provisionDB(t, name)
}

// ConnectDatabase opens a plain connection to the database described by the config,
// which is closed when the test completes.
func ConnectDatabase(t *testing.T, config database.Config) *sqlx.DB {
	db, err := sqlx.Connect(database.SqlDialect, config.DSN())
	if err != nil {
		t.Fatalf("failed to connect to test database '%s': %s", config.Name, err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// InsertMission adds a row to the missions table and returns it's ID.
func InsertMission(t *testing.T, db *sqlx.DB, name string) int {
	var id int
	if err := db.Get(&id, `INSERT INTO missoes (nome) VALUES ($1) RETURNING id`, name); err != nil {
		t.Fatalf("failed to insert mission '%s': %s", name, err)
	}

	return id
}

func (manager *databaseManager) provisionDB(t *testing.T, databaseName string) database.Config {
	manager.Lock()
	defer manager.Unlock()

	if manager.connection == nil {
		t.Log("Database provisioning request received but manager not started yet. Initializing database management...")
		manager.spawnPostgis(t)
		manager.markMasterDB(t)
		t.Log("Database management initialised!")
	}

	_, err := manager.connection.Exec(fmt.Sprintf(`CREATE DATABASE "%s" TEMPLATE "%s"`, databaseName, manager.masterDatabaseName))
	if err != nil {
		var pqErr *pq.Error
		if !errors.As(err, &pqErr) || pqErr.Code != "42P04" {
			t.Fatalf("failed to provision database '%s' based on template database '%s': (%T) %s", databaseName, manager.masterDatabaseName, err, err)
		}

		t.Logf("Database '%s' already provisioned. Reusing database", databaseName)
	}

	config := manager.masterConfig
	config.Name = databaseName
	return config
}

// markMasterDB prepares the master database with the missions table and our migrations
// before marking it as a template. Databases created from it are then ready to use.
func (manager *databaseManager) markMasterDB(t *testing.T) {
	master, err := sqlx.Connect(database.SqlDialect, manager.masterConfig.DSN())
	if err != nil {
		t.Fatalf("failed to connect to master database: %s", err)
	}
	if _, err := master.Exec(missionsTableDDL); err != nil {
		t.Fatalf("failed to create missions table in master database: %s", err)
	}
	_ = master.Close()

	t.Log("Migrating master database...")
	migrator := database.New()
	if err := migrator.Connect(ctx, manager.masterConfig); err != nil {
		t.Fatalf("failed to migrate master database: %s", err)
	}
	_ = migrator.Close()

	// Template databases cannot be copied while connections to them are open, so
	// management connects via the default database instead.
	adminConfig := manager.masterConfig
	adminConfig.Name = "postgres"
	manager.connection, err = sqlx.Connect(database.SqlDialect, adminConfig.DSN())
	if err != nil {
		t.Fatalf("failed to open management connection: %s", err)
	}

	if _, err := manager.connection.Exec(fmt.Sprintf(`ALTER DATABASE "%s" WITH is_template TRUE`, manager.masterDatabaseName)); err != nil {
		t.Fatalf("failed to mark master database (%s) as template: %s", manager.masterDatabaseName, err)
	}
}

func (manager *databaseManager) spawnPostgis(t *testing.T) {
	if manager.pgContainer != nil && manager.pgContainer.IsRunning() {
		t.Log("WARNING: ignoring request to spawn PostGIS container, container already running")
		return
	}

	t.Logf("Spawning %s container...", PostgisImage)
	postgisC, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(PostgisImage),
		postgres.WithDatabase(MasterDBName),
		postgres.WithUsername(User),
		postgres.WithPassword(Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
		return
	}

	host, err := postgisC.Host(ctx)
	if err != nil {
		t.Fatalf("failed to find PostGIS container host: %s", err)
	}
	port, err := postgisC.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to find PostGIS container port: %s", err)
	}

	manager.pgContainer = postgisC
	manager.masterConfig = database.Config{
		Host:     host,
		Port:     port.Int(),
		Name:     manager.masterDatabaseName,
		User:     User,
		Password: Password,
		SSLMode:  "disable",
	}
}

// TeardownDatabases stops the shared PostGIS container, if one was started. This
// should be called from TestMain once all tests in the package are complete.
func TeardownDatabases() {
	dbManager.Lock()
	defer dbManager.Unlock()

	if dbManager.connection != nil {
		_ = dbManager.connection.Close()
		dbManager.connection = nil
	}

	if dbManager.pgContainer != nil {
		if err := dbManager.pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("WARNING: failed to terminate PostGIS container: %s\n", err)
		}
		dbManager.pgContainer = nil
	}
}
