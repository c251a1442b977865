package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (start_time,
                      peer,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?)`

	selectSessionSQL = `
SELECT id,
       start_time,
       peer,
       config
FROM sessions
WHERE id = ?`

	selectSessionsSQL = `
SELECT id,
       start_time,
       peer,
       config
FROM sessions
ORDER BY start_time`

	insertRecordSQL = `
INSERT INTO records (session_id,
                     received_at,
                     time_ms,
                     altitude_ft,
                     temperature_c,
                     battery_voltage_v,
                     retransmitted)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	selectRecordsSQL = `
SELECT id,
       received_at,
       time_ms,
       altitude_ft,
       temperature_c,
       battery_voltage_v,
       retransmitted
FROM records
WHERE session_id = ?
ORDER BY time_ms, id`
)

//go:embed schema.sql
var initSchemaSQL string
