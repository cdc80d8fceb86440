package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"vplan-backend/lib/sqliteutil"
	"vplan-backend/lib/telemetry"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB *sql.DB
	// Telemetry records every report made by the service under test.
	Telemetry *telemetry.MemoryAPI
}

func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanupTelemetry := telemetry.SetupForTesting(fmt.Sprintf("test:%s", params.Name))
	result := ServiceResult{Telemetry: &telemetry.MemoryAPI{}}

	if params.DbSchema == "" {
		return result, cleanupTelemetry
	}

	dbpath := ":memory:"
	if params.DbPath != "" {
		dbpath = params.DbPath
	}
	database, err := sqliteutil.Open(context.Background(), sqliteutil.Config{File: dbpath}, params.DbSchema)
	if err != nil {
		t.Fatal(err)
	}
	result.DB = database

	return result, func() {
		database.Close()
		cleanupTelemetry()
	}
}
