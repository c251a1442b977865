package storage

import (
	"database/sql"
)

// RecordIterator streams a session's records out of the flight log without
// loading the whole session into memory.
type RecordIterator struct {
	rows    *sql.Rows
	current StoredRecord
	err     error
}

// Next advances to the next record, returning false at the end of the
// session or on error.
func (it *RecordIterator) Next() bool {
	if it.err != nil || !it.rows.Next() {
		return false
	}

	var r StoredRecord
	if it.err = it.rows.Scan(
		&r.ID,
		&r.ReceivedAt,
		&r.Record.TimeMS,
		&r.Record.AltitudeFt,
		&r.Record.TemperatureC,
		&r.Record.BatteryVoltageV,
		&r.Retransmitted,
	); it.err != nil {
		return false
	}

	it.current = r
	return true
}

// Current returns the record at the iterator position.
func (it *RecordIterator) Current() StoredRecord { return it.current }

// Err returns the first error hit during iteration.
func (it *RecordIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

// Close releases the underlying rows.
func (it *RecordIterator) Close() error { return it.rows.Close() }
