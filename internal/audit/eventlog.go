// Package audit keeps an append-only trail of lifecycle events: status
// transitions, finalization runs and re-evaluation reviews.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

type Event struct {
	ID        int64
	Type      string
	Key       string
	DataJSON  string
	CreatedAt int64
}

type Log struct{ db *sql.DB }

func NewLog(db *sql.DB) *Log { return &Log{db: db} }

// Append records one event. data is JSON-marshalled; a nil *Log is a no-op so
// callers without a database (tests, memory store) can pass nil.
func (l *Log) Append(ctx context.Context, typ, key string, data any) error {
	if l == nil || l.db == nil {
		return nil
	}
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	return err
}
