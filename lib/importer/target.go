package importer

import (
	"context"
	"elabftw-tools/lib/elabapi"
	"elabftw-tools/lib/metadata"
)

// Target is the kind of entry rows are imported as.
type Target interface {
	Kind() string
	Get(ctx context.Context, id int64) (elabapi.Entity, error)
	Create(ctx context.Context) (int64, error)
	Patch(ctx context.Context, id int64, patch elabapi.Patch) error
	// PatchFor builds the patch for a row from its mapped metadata and body.
	PatchFor(row metadata.Row, title, body, encodedMetadata string) elabapi.Patch
}

// API is the part of elabapi.Client the targets use.
type API interface {
	GetItem(ctx context.Context, id int64) (elabapi.Item, error)
	PostItem(ctx context.Context, params elabapi.PostItemParams) (int64, error)
	PatchItem(ctx context.Context, id int64, patch elabapi.Patch) error
	GetExperiment(ctx context.Context, id int64) (elabapi.Experiment, error)
	PostExperiment(ctx context.Context) (int64, error)
	PatchExperiment(ctx context.Context, id int64, patch elabapi.Patch) error
}

type Experiments struct {
	API API
}

func (Experiments) Kind() string {
	return "experiment"
}

func (t Experiments) Get(ctx context.Context, id int64) (elabapi.Entity, error) {
	return t.API.GetExperiment(ctx, id)
}

func (t Experiments) Create(ctx context.Context) (int64, error) {
	return t.API.PostExperiment(ctx)
}

func (t Experiments) Patch(ctx context.Context, id int64, patch elabapi.Patch) error {
	return t.API.PatchExperiment(ctx, id, patch)
}

// experiments also carry the raw ID column as their custom id
func (Experiments) PatchFor(row metadata.Row, title, body, encodedMetadata string) elabapi.Patch {
	return elabapi.Patch{
		Title:    title,
		Body:     body,
		CustomID: row.Value(metadata.ColumnId),
		Metadata: encodedMetadata,
	}
}

// Resources are items, new ones are created in CategoryID.
type Resources struct {
	API        API
	CategoryID int64
}

func (Resources) Kind() string {
	return "resource"
}

func (t Resources) Get(ctx context.Context, id int64) (elabapi.Entity, error) {
	return t.API.GetItem(ctx, id)
}

func (t Resources) Create(ctx context.Context) (int64, error) {
	return t.API.PostItem(ctx, elabapi.PostItemParams{CategoryID: t.CategoryID})
}

func (t Resources) Patch(ctx context.Context, id int64, patch elabapi.Patch) error {
	return t.API.PatchItem(ctx, id, patch)
}

func (Resources) PatchFor(_ metadata.Row, title, body, encodedMetadata string) elabapi.Patch {
	return elabapi.Patch{
		Title:    title,
		Body:     body,
		Metadata: encodedMetadata,
	}
}
