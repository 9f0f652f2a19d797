package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestJournal(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, ok, err := j.LastRun(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	run, err := j.StartRun(ctx, "antibodies.csv", "resource", false)
	require.NoError(t, err)
	require.NotZero(t, run.ID)

	outcomes := []Outcome{
		{Line: 2, Action: ActionCreate, EntityID: 31, Title: "Anti-GFP"},
		{Line: 3, Action: ActionUpdate, EntityID: 7, Title: "Anti-RFP"},
		{Line: 4, Action: ActionFailed, Title: "Anti-YFP", Error: "PATCH /items/9: 403"},
	}
	for _, o := range outcomes {
		require.NoError(t, j.Record(ctx, run.ID, o))
	}

	stored, err := j.Outcomes(ctx, run.ID)
	require.NoError(t, err)
	diff := cmp.Diff(outcomes, stored)
	if diff != "" {
		t.Fatal(diff)
	}

	last, ok, err := j.LastRun(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, run.ID, last.ID)
	require.Equal(t, "antibodies.csv", last.Source)
	require.Equal(t, "resource", last.Kind)
	require.False(t, last.DryRun)
}

func TestJournalFile(t *testing.T) {
	_, err := Config{}.Open()
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "state", "journal.db")
	j, err := Config{File: path}.Open()
	require.NoError(t, err)
	run, err := j.StartRun(context.Background(), "a.csv", "experiment", true)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	// reopening keeps earlier runs
	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	last, ok, err := j.LastRun(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, run.ID, last.ID)
	require.True(t, last.DryRun)
}
