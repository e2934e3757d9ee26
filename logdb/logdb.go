// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"math"
	"math/big"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/vevote/thor"
)

const insertEventQuery = "INSERT INTO event(seq, time, name, lockID, account, gauge, token, amount) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	insert        *sql.Stmt

	mu        sync.Mutex
	nextBatch uint32
}

var (
	_ Reader = (*LogDB)(nil)
	_ Writer = (*LogDB)(nil)
)

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// an in-memory database lives as long as its single connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}

	insert, err := db.Prepare(insertEventQuery)
	if err != nil {
		return nil, err
	}
	driverVer, _, _ := sqlite3.Version()
	ldb := &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		insert:        insert,
	}
	newest, err := ldb.NewestBatch()
	if err != nil {
		insert.Close()
		return nil, err
	}
	ldb.nextBatch = newest + 1
	return ldb, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.insert.Close()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// NewestBatch returns the number of the last written batch.
func (db *LogDB) NewestBatch() (uint32, error) {
	var seq sql.NullInt64
	if err := db.db.QueryRow("SELECT MAX(seq) FROM event").Scan(&seq); err != nil {
		return 0, err
	}
	if !seq.Valid {
		return 0, nil
	}
	return sequence(seq.Int64).BatchNumber(), nil
}

// Write stores events as the next batch and sets their batch numbers and indexes.
func (db *LogDB) Write(events []*Event) error {
	if len(events) == 0 {
		return nil
	}
	if len(events) > math.MaxInt32 {
		return errors.New("too many events in batch")
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	batch := db.nextBatch
	err := db.execInTx(func(tx *sql.Tx) error {
		stmt := tx.Stmt(db.insert)
		for i, ev := range events {
			if _, err := stmt.Exec(
				int64(newSequence(batch, uint32(i))),
				ev.Time,
				ev.Name,
				ev.LockID,
				ev.Account.Bytes(),
				ev.Gauge.Bytes(),
				ev.Token.Bytes(),
				amountValue(ev.Amount),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "write events")
	}
	for i, ev := range events {
		ev.BatchNumber = batch
		ev.Index = uint32(i)
	}
	metricWrittenEvents().Add(int64(len(events)))
	db.nextBatch++
	return nil
}

func (db *LogDB) execInTx(proc func(*sql.Tx) error) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	const query = "SELECT seq, time, name, lockID, account, gauge, token, amount FROM event"
	if filter == nil {
		return db.queryEvents(ctx, query+" ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := query + " WHERE 1"
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND time >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND time <= ?"
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Name != nil {
			args = append(args, *criteria.Name)
			stmt += " AND name = ?"
		}
		if criteria.LockID != nil {
			args = append(args, *criteria.LockID)
			stmt += " AND lockID = ?"
		}
		if criteria.Account != nil {
			args = append(args, criteria.Account.Bytes())
			stmt += " AND account = ?"
		}
		if criteria.Gauge != nil {
			args = append(args, criteria.Gauge.Bytes())
			stmt += " AND gauge = ?"
		}
		stmt += ")"
		if i == len(filter.CriteriaSet)-1 {
			stmt += ")"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	// filter queries vary with their criteria, they are not kept prepared
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq     int64
			time    uint64
			name    string
			lockID  uint64
			account []byte
			gauge   []byte
			token   []byte
			amount  []byte
		)
		if err := rows.Scan(&seq, &time, &name, &lockID, &account, &gauge, &token, &amount); err != nil {
			return nil, err
		}
		events = append(events, &Event{
			BatchNumber: sequence(seq).BatchNumber(),
			Index:       sequence(seq).Index(),
			Time:        time,
			Name:        name,
			LockID:      lockID,
			Account:     thor.BytesToAddress(account),
			Gauge:       thor.BytesToAddress(gauge),
			Token:       thor.BytesToAddress(token),
			Amount:      new(big.Int).SetBytes(amount),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func amountValue(amount *big.Int) []byte {
	if amount == nil {
		return nil
	}
	return amount.Bytes()
}
