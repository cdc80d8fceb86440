package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	devenv "vplan-backend/dev/env"
	"vplan-backend/internal/config"
	"vplan-backend/lib/sqliteutil"
	"vplan-backend/lib/substore/db"
)

const exampleConfig = `{
  // root of the published plan, the week index and week pages are relative to it
  base_url: "https://example.org/vertretungsplan/",
  schedule: "@every 10m",
  database: "<dev_state>/vplan.db",
  lock_file: "<dev_state>/vplan.lock",
  topic_namespace: "",
  ntfy: {
    // leave empty to drop notifications
    url: "",
  },
}
`

const exampleLiveSource = `{
  // used by the live fetcher test in lib/scrapers/untis
  base_url: "",
}
`

func CreateDatabase() error {
	path, err := devenv.ResolvePath(config.DefaultDatabase)
	if err != nil {
		return err
	}

	fmt.Println("applying schema to", path)
	database, err := sqliteutil.Open(context.Background(), sqliteutil.Config{File: path}, db.Schema)
	if err != nil {
		return err
	}
	return database.Close()
}

func writeIfMissing(path, contents string) error {
	_, err := os.Stat(path)
	if err == nil {
		fmt.Println("config already exists at", path)
		return nil
	}
	fmt.Println("creating config at", path)
	return os.WriteFile(path, []byte(contents), 0600)
}

func CreateConfigs() error {
	err := writeIfMissing(config.DefaultFile, exampleConfig)
	if err != nil {
		return err
	}
	live, err := devenv.GetStateFilePath("untis_live.json5")
	if err != nil {
		return err
	}
	return writeIfMissing(live, exampleLiveSource)
}

func PrintConfigLocations() {
	root, err := devenv.GetWorkspaceRoot()
	if err != nil {
		return
	}
	fmt.Println()
	fmt.Println("configuration:")
	fmt.Println("  service config:   ", filepath.Join(root, config.DefaultFile), "(override in config.local.json5 or .env)")
	fmt.Println("  telemetry config: ", filepath.Join(root, "telemetry.json5"), "(optional)")
	fmt.Println("  live source:      ", filepath.Join(root, "dev", ".state", "untis_live.json5"))
}
