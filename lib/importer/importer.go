package importer

import (
	"context"
	"elabftw-tools/lib/csvrows"
	"elabftw-tools/lib/journal"
	"elabftw-tools/lib/metadata"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("lib/importer")
var meter = otel.Meter("lib/importer")
var rowCounter, _ = meter.Int64Counter(
	"import_rows",
	metric.WithDescription("rows processed by the csv importer, by action"),
)

var ErrMissingName = fmt.Errorf("row has no %q column", metadata.ColumnName)

// RowSource yields rows until io.EOF. a *csvrows.RecordError fails only
// that row.
type RowSource interface {
	Next() (metadata.Row, error)
	Line() int
}

type Options struct {
	// map every row and log what would happen without calling the api
	DryRun bool
	// if set, every row outcome is recorded
	Journal *journal.Journal
	// name of the csv, recorded in the journal
	Source string
}

type Importer struct {
	target Target
	opts   Options
}

func New(target Target, opts Options) Importer {
	return Importer{target: target, opts: opts}
}

type Summary struct {
	Created int
	Updated int
	Failed  int
	// only set on dry runs, rows that would have been created or updated
	Planned int
}

func (s Summary) Total() int {
	return s.Created + s.Updated + s.Failed + s.Planned
}

// Run imports every row from `rows`. a failing row is logged and counted,
// it never stops the run. the returned error is only set when reading the
// source fails or ctx is done.
func (i Importer) Run(ctx context.Context, rows RowSource) (Summary, error) {
	ctx, span := tracer.Start(ctx, "importer:Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("import.kind", i.target.Kind()),
		attribute.Bool("import.dry_run", i.opts.DryRun),
	)

	var runId int64
	if i.opts.Journal != nil {
		run, err := i.opts.Journal.StartRun(ctx, i.opts.Source, i.target.Kind(), i.opts.DryRun)
		if err != nil {
			slog.WarnContext(ctx, "failed to start journal run", "err", err)
		} else {
			runId = run.ID
		}
	}

	var summary Summary
	for {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return summary, err
		}

		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		var outcome journal.Outcome
		var recordErr *csvrows.RecordError
		switch {
		case errors.As(err, &recordErr):
			slog.ErrorContext(ctx, "skipping unreadable row", "line", recordErr.Line, "err", recordErr.Err)
			outcome = journal.Outcome{
				Line:   recordErr.Line,
				Action: journal.ActionFailed,
				Error:  recordErr.Err.Error(),
			}
		case err != nil:
			span.SetStatus(codes.Error, err.Error())
			return summary, fmt.Errorf("read rows: %w", err)
		default:
			outcome = i.importRow(ctx, rows.Line(), row)
		}

		switch {
		case outcome.Action == journal.ActionFailed:
			summary.Failed++
		case i.opts.DryRun:
			summary.Planned++
		case outcome.Action == journal.ActionCreate:
			summary.Created++
		case outcome.Action == journal.ActionUpdate:
			summary.Updated++
		}
		rowCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", i.target.Kind()),
			attribute.String("action", string(outcome.Action)),
			attribute.Bool("dry_run", i.opts.DryRun),
		))

		if i.opts.Journal != nil && runId != 0 {
			err := i.opts.Journal.Record(ctx, runId, outcome)
			if err != nil {
				slog.WarnContext(ctx, "failed to record row outcome", "line", outcome.Line, "err", err)
			}
		}
	}

	slog.InfoContext(
		ctx, "import finished",
		"kind", i.target.Kind(),
		"created", summary.Created,
		"updated", summary.Updated,
		"failed", summary.Failed,
		"planned", summary.Planned,
	)
	return summary, nil
}

func (i Importer) importRow(ctx context.Context, line int, row metadata.Row) journal.Outcome {
	ctx, span := tracer.Start(ctx, "importer:importRow")
	defer span.End()
	span.SetAttributes(attribute.Int("import.line", line))

	id, update := row.Identity()
	action := journal.ActionCreate
	if update {
		action = journal.ActionUpdate
	}

	fail := func(id int64, title string, err error) journal.Outcome {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(
			ctx, fmt.Sprintf("failed to %s %s", action, i.target.Kind()),
			"line", line,
			"id", id,
			"err", err,
		)
		return journal.Outcome{
			Line:     line,
			Action:   journal.ActionFailed,
			EntityID: id,
			Title:    title,
			Error:    err.Error(),
		}
	}

	title, ok := row.Title()
	if !ok {
		return fail(id, "", ErrMissingName)
	}

	doc := metadata.MapRow(row)
	encoded, err := doc.Encode()
	if err != nil {
		return fail(id, title, err)
	}

	if i.opts.DryRun {
		body := metadata.Body(row, "")
		slog.InfoContext(
			ctx, fmt.Sprintf("would %s %s", action, i.target.Kind()),
			"line", line,
			"id", id,
			"title", title,
			"fields", len(doc.ExtraFields),
			"body", body,
		)
		return journal.Outcome{Line: line, Action: action, EntityID: id, Title: title}
	}

	if update {
		existing, err := i.target.Get(ctx, id)
		if err != nil {
			return fail(id, title, err)
		}
		slog.InfoContext(ctx, fmt.Sprintf("updating existing %s", i.target.Kind()), "line", line, "id", id)

		patch := i.target.PatchFor(row, title, metadata.Body(row, existing.Body), encoded)
		err = i.target.Patch(ctx, id, patch)
		if err != nil {
			return fail(id, title, err)
		}
		return journal.Outcome{Line: line, Action: action, EntityID: id, Title: title}
	}

	slog.InfoContext(ctx, fmt.Sprintf("creating new %s", i.target.Kind()), "line", line)
	newId, err := i.target.Create(ctx)
	if err != nil {
		return fail(0, title, err)
	}
	span.SetAttributes(attribute.Int64("elab.id", newId))

	patch := i.target.PatchFor(row, title, metadata.Body(row, ""), encoded)
	err = i.target.Patch(ctx, newId, patch)
	if err != nil {
		return fail(newId, title, err)
	}
	return journal.Outcome{Line: line, Action: action, EntityID: newId, Title: title}
}
