package engine

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	sqlite "modernc.org/sqlite"

	"github.com/mirrorstamp/mirrorstamp/epoch"
)

// RegisterEpochFunctions registers the epoch_seconds scalar with the driver
// so it is available on connections opened after this call. Bulk backfill
// statements use it to convert datetime text to epoch integers inside SQLite.
// Note: existing open connections will not see new functions.
func RegisterEpochFunctions(_ *sql.DB) error {
	// Idempotent registration; the driver rejects duplicates and we ignore that.
	_ = sqlite.RegisterDeterministicScalarFunction("epoch_seconds", 1, epochSecondsImpl)
	return nil
}

// epochSecondsImpl implements SQL scalar epoch_seconds(value) -> INTEGER.
// NULL and unparseable inputs yield NULL so a bulk UPDATE skips those rows
// instead of aborting.
func epochSecondsImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("epoch_seconds: expected 1 argument, got %d", len(args))
	}
	if args[0] == nil {
		return nil, nil
	}
	secs, err := epoch.Seconds(args[0])
	if err != nil {
		return nil, nil
	}
	return secs, nil
}
