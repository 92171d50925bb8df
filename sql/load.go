package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed init.sql
var initSQL string

//go:embed manuscripts.sql
var manuscriptsSQL string

//go:embed catalog.sql
var catalogSQL string

// Function lists for verification
var ManuscriptsFunctions = []string{
	"init_manuscripts",
	"insert_manuscript",
	"select_manuscript",
	"select_all_manuscripts",
	"delete_manuscript",
}

var CatalogFunctions = []string{
	"init_catalog",
	"insert_catalog_entity",
	"insert_catalog_mention",
	"select_catalog_entities",
	"select_catalog_mentions",
	"search_catalog_entities",
	"select_catalog_entities_by_similarity",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	slog.Debug("Database extensions initialized successfully")
	return nil
}

// LoadManuscriptsSql loads manuscript-related SQL functions
func LoadManuscriptsSql(db *sql.DB, force bool) error {
	return loadSql(db, "manuscripts", manuscriptsSQL, ManuscriptsFunctions, force)
}

// LoadCatalogSql loads catalog entity and mention SQL functions.
// The catalog tables reference manuscripts, so those functions must be loaded first.
func LoadCatalogSql(db *sql.DB, force bool) error {
	return loadSql(db, "catalog", catalogSQL, CatalogFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadManuscriptsSql(db, force); err != nil {
		return err
	}

	if err := LoadCatalogSql(db, force); err != nil {
		return err
	}

	return nil
}

// loadSql executes one embedded SQL file unless all its functions already exist
func loadSql(db *sql.DB, name string, source string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(source)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	slog.Debug("SQL functions loaded successfully", "file", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			slog.Debug("Function does not exist", "function", f)
			break
		}
	}
	return allExist, nil
}
