package testutils

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	// postgres driver
	_ "github.com/lib/pq"
)

// InitPQ connects to the test database, drops the listed tables and runs
// the init statements, handing back a connection ready for the package's
// tests. The database name has to contain "test"; refusing anything else
// guards against pointing a test run at a live store.
func InitPQ(dropTables []string, initQueries []string) (*sql.DB, error) {
	dbName := envOr("WARDEN_TEST_PQ_DB", "warden_test")
	if !strings.Contains(dbName, "test") {
		panic("test database name must contain 'test', refusing to run against " + dbName)
	}

	conn, err := sql.Open("postgres", fmt.Sprintf(
		"host=%s user=%s dbname=%s sslmode=%s password='%s'",
		envOr("WARDEN_TEST_PQ_HOST", "localhost"),
		envOr("WARDEN_TEST_PQ_USER", "warden_test"),
		dbName,
		envOr("WARDEN_TEST_PQ_SSLMODE", "disable"),
		os.Getenv("WARDEN_TEST_PQ_PASSWORD"),
	))
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}

	for _, table := range dropTables {
		if _, err := conn.Exec("DROP TABLE IF EXISTS " + table + " CASCADE"); err != nil {
			return nil, err
		}
	}
	for _, query := range initQueries {
		if _, err := conn.Exec(query); err != nil {
			return nil, err
		}
	}

	return conn, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
