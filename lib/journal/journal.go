package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionFailed Action = "failed"
)

// Journal records the outcome of every imported row in a sqlite database.
type Journal struct {
	db *sql.DB
}

func wrapOpen(err error) error {
	return fmt.Errorf("open journal: %w", err)
}

// Open opens (or creates) a journal, `path` may be ":memory:".
func Open(path string) (Journal, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return Journal{}, wrapOpen(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Journal{}, wrapOpen(err)
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return Journal{}, wrapOpen(err)
		}
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		db.Close()
		return Journal{}, wrapOpen(err)
	}
	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return Journal{}, wrapOpen(err)
	}
	return Journal{db: db}, nil
}

func (j Journal) Close() error {
	return j.db.Close()
}

type Run struct {
	ID        int64
	StartedAt time.Time
	Source    string
	Kind      string
	DryRun    bool
}

func (j Journal) StartRun(ctx context.Context, source, kind string, dryRun bool) (Run, error) {
	run := Run{
		StartedAt: time.Now(),
		Source:    source,
		Kind:      kind,
		DryRun:    dryRun,
	}
	res, err := j.db.ExecContext(
		ctx,
		"insert into run(started_at, source, kind, dry_run) values (?, ?, ?, ?)",
		run.StartedAt.Unix(), source, kind, dryRun,
	)
	if err != nil {
		return Run{}, fmt.Errorf("start run: %w", err)
	}
	run.ID, err = res.LastInsertId()
	if err != nil {
		return Run{}, fmt.Errorf("start run: %w", err)
	}
	return run, nil
}

type Outcome struct {
	Line   int
	Action Action
	// zero when the row never got an id
	EntityID int64
	Title    string
	Error    string
}

func (j Journal) Record(ctx context.Context, runId int64, o Outcome) error {
	var entityId sql.NullInt64
	if o.EntityID != 0 {
		entityId = sql.NullInt64{Int64: o.EntityID, Valid: true}
	}
	_, err := j.db.ExecContext(
		ctx,
		`insert or replace into row_outcome(run_id, line, action, entity_id, title, error)
		values (?, ?, ?, ?, ?, ?)`,
		runId, o.Line, string(o.Action), entityId, o.Title, o.Error,
	)
	if err != nil {
		return fmt.Errorf("record line %d: %w", o.Line, err)
	}
	return nil
}

func (j Journal) Outcomes(ctx context.Context, runId int64) ([]Outcome, error) {
	rows, err := j.db.QueryContext(
		ctx,
		`select line, action, entity_id, title, error from row_outcome
		where run_id = ? order by line`,
		runId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		var action string
		var entityId sql.NullInt64
		err := rows.Scan(&o.Line, &action, &entityId, &o.Title, &o.Error)
		if err != nil {
			return nil, err
		}
		o.Action = Action(action)
		o.EntityID = entityId.Int64
		out = append(out, o)
	}
	return out, rows.Err()
}

// LastRun returns the most recent run, ok is false for an empty journal.
func (j Journal) LastRun(ctx context.Context) (Run, bool, error) {
	row := j.db.QueryRowContext(
		ctx,
		"select id, started_at, source, kind, dry_run from run order by id desc limit 1",
	)
	var run Run
	var startedAt int64
	err := row.Scan(&run.ID, &startedAt, &run.Source, &run.Kind, &run.DryRun)
	if err == sql.ErrNoRows {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	run.StartedAt = time.Unix(startedAt, 0)
	return run, true, nil
}
