// Package storage is the ground station's flight log: every telemetry
// record received over the datalink is written to a sqlite database,
// keyed by session, for post-flight analysis and chart rendering. The
// flight computer's own recording buffer stays volatile; this log is the
// only durable copy of a flight.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/rocket-telemetry/internal/telemetry"
)

// Session describes one recording session with a flight computer peer.
type Session struct {
	ID        int64
	StartTime time.Time
	Peer      string
	Config    *string
}

// StoredRecord is a telemetry record as read back from the flight log.
type StoredRecord struct {
	ID            int64
	ReceivedAt    time.Time
	Record        telemetry.Record
	Retransmitted bool
}

// Store handles flight log database operations. Write and read use
// separate lazily-opened connections so a long render never contends with
// live inserts.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewStore creates a store for the database at dbPath. The database and
// schema are created on first write.
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", s.dbPath))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if _, err = db.Exec(initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", s.dbPath))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// CreateSession opens a new recording session for the given peer and
// returns its identifier. config may be a string, []byte or any
// JSON-serializable value.
func (s *Store) CreateSession(ctx context.Context, peer string, config any) (int64, error) {
	var configData sql.NullString
	switch v := config.(type) {
	case nil:
	case string:
		configData = sql.NullString{String: v, Valid: v != ""}
	case []byte:
		configData = sql.NullString{String: string(v), Valid: len(v) > 0}
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return 0, fmt.Errorf("serializing session config: %w", err)
		}
		configData = sql.NullString{String: string(data), Valid: true}
	}

	db, err := s.getWriteDB()
	if err != nil {
		return 0, err
	}

	res, err := db.ExecContext(ctx, insertSessionSQL, peer, configData)
	if err != nil {
		return 0, fmt.Errorf("creating session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting session ID: %w", err)
	}
	return id, nil
}

// Session retrieves a session by ID; nil when not found.
func (s *Store) Session(ctx context.Context, id int64) (*Session, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, err
	}

	var session Session
	var config sql.NullString
	err = db.QueryRowContext(ctx, selectSessionSQL, id).
		Scan(&session.ID, &session.StartTime, &session.Peer, &config)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying session %d: %w", id, err)
	}

	if config.Valid {
		session.Config = &config.String
	}
	return &session, nil
}

// Sessions returns all recording sessions ordered by start time.
func (s *Store) Sessions(ctx context.Context) ([]*Session, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var session Session
		var config sql.NullString
		if err = rows.Scan(&session.ID, &session.StartTime, &session.Peer, &config); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if config.Valid {
			session.Config = &config.String
		}
		sessions = append(sessions, &session)
	}
	return sessions, rows.Err()
}

// InsertRecord appends one received telemetry record to a session.
func (s *Store) InsertRecord(ctx context.Context, sessionID int64, receivedAt time.Time, r telemetry.Record, retransmitted bool) error {
	db, err := s.getWriteDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, insertRecordSQL,
		sessionID,
		receivedAt.UTC(),
		r.TimeMS,
		r.AltitudeFt,
		r.TemperatureC,
		r.BatteryVoltageV,
		retransmitted,
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// ReadRecords iterates a session's records ordered by flight time, so
// retransmitted records slot back into their place in the profile.
func (s *Store) ReadRecords(ctx context.Context, sessionID int64) (*RecordIterator, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectRecordsSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying records for session %d: %w", sessionID, err)
	}
	return &RecordIterator{rows: rows}, nil
}

// Close releases both database connections. Safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var errs []string
		if s.writeDB != nil {
			if err := s.writeDB.Close(); err != nil {
				errs = append(errs, fmt.Sprintf("closing write connection: %s", err))
			}
		}
		if s.readDB != nil {
			if err := s.readDB.Close(); err != nil {
				errs = append(errs, fmt.Sprintf("closing read connection: %s", err))
			}
		}
		if len(errs) > 0 {
			s.closeErr = errors.New(strings.Join(errs, "; "))
		}
	})
	return s.closeErr
}
