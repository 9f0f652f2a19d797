package importer

import (
	"context"
	"elabftw-tools/lib/csvrows"
	"elabftw-tools/lib/elabapi"
	"elabftw-tools/lib/elabapi/elabtest"
	"elabftw-tools/lib/journal"
	"elabftw-tools/lib/metadata"
	"elabftw-tools/lib/testutil"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

const antibodiesCsv = `Name,elabftw_id,ID,Maintext,Concentration,Recognizes,Primary vs Secondary
Anti-GFP,,,first import,5 mg/mL,"Mouse, Human",Secondary
Anti-RFP,7,,appended,1 µg/mL,Rat,Primary
Anti-YFP,,3,,,Mouse,
`

func setup(t testing.TB) (*elabapi.Client, *elabtest.Server, context.Context) {
	res := testutil.SetupService(t, testutil.ServiceParams{Name: "importer"})
	return res.Client, res.Server, res.Ctx
}

func rowsOf(t testing.TB, input string) *csvrows.Reader {
	reader, err := csvrows.NewReader(strings.NewReader(input))
	require.NoError(t, err)
	return reader
}

func TestImportResources(t *testing.T) {
	client, server, ctx := setup(t)
	server.AddItem(elabtest.Entity{ID: 7, Title: "old title", Body: "<p>existing</p>", Category: 1})
	server.AddItem(elabtest.Entity{ID: 3, Title: "Anti-YFP", Category: 1})

	imp := New(Resources{API: client, CategoryID: 4}, Options{})
	summary, err := imp.Run(ctx, rowsOf(t, antibodiesCsv))
	require.NoError(t, err)
	require.Equal(t, Summary{Created: 1, Updated: 2}, summary)

	posts := server.RequestsMatching(http.MethodPost)
	require.Len(t, posts, 1)
	require.Equal(t, float64(4), posts[0].Body["category_id"])

	created, ok := server.Item(101)
	require.True(t, ok)
	require.Equal(t, "Anti-GFP", created.Title)
	require.Equal(t, "<p>first import</p>", created.Body)
	require.Equal(t, int64(4), created.Category)

	doc, err := metadata.Decode(*created.Metadata)
	require.NoError(t, err)
	require.Equal(t, []string{"Concentration", "Recognizes", "Primary vs Secondary"}, doc.ExtraFields.Names())
	recognizes, _ := doc.ExtraFields.Get("Recognizes")
	require.Equal(t, []string{"Mouse", "Human"}, recognizes.Value.List)
	require.True(t, recognizes.AllowMultiValues)

	updated, _ := server.Item(7)
	require.Equal(t, "Anti-RFP", updated.Title)
	require.Equal(t, "<p>existing</p><p>appended</p>", updated.Body)

	// no Maintext leaves the body as it was, the ID column selects the entry
	fallback, _ := server.Item(3)
	require.Equal(t, "", fallback.Body)
	doc, err = metadata.Decode(*fallback.Metadata)
	require.NoError(t, err)
	// empty concentration is kept as text
	concentration, ok := doc.ExtraFields.Get("Concentration")
	require.True(t, ok)
	require.Equal(t, metadata.TypeText, concentration.Type)

	for _, patch := range server.RequestsMatching(http.MethodPatch) {
		_, hasCustomId := patch.Body["custom_id"]
		require.False(t, hasCustomId, "resources have no custom id")
	}
}

func TestImportExperiments(t *testing.T) {
	client, server, ctx := setup(t)
	server.AddExperiment(elabtest.Entity{ID: 3, Title: "Anti-YFP"})
	server.AddExperiment(elabtest.Entity{ID: 7, Body: "<p>existing</p>"})

	imp := New(Experiments{API: client}, Options{})
	summary, err := imp.Run(ctx, rowsOf(t, antibodiesCsv))
	require.NoError(t, err)
	require.Equal(t, Summary{Created: 1, Updated: 2}, summary)

	posts := server.RequestsMatching(http.MethodPost)
	require.Len(t, posts, 1)
	require.Equal(t, "/api/v2/experiments", posts[0].Path)
	require.Empty(t, posts[0].Body)

	withId, _ := server.Experiment(3)
	require.NotNil(t, withId.CustomID)
	require.Equal(t, int64(3), *withId.CustomID)
}

// importing the same file twice appends the Maintext paragraph again
func TestImportTwiceDuplicatesBody(t *testing.T) {
	client, server, ctx := setup(t)
	server.AddItem(elabtest.Entity{ID: 9, Body: "<p>start</p>"})

	input := "Name,elabftw_id,Maintext\nAnti-GFP,9,note\n"
	imp := New(Resources{API: client, CategoryID: 1}, Options{})
	for range 2 {
		_, err := imp.Run(ctx, rowsOf(t, input))
		require.NoError(t, err)
	}

	item, _ := server.Item(9)
	require.Equal(t, "<p>start</p><p>note</p><p>note</p>", item.Body)
}

func TestImportContinuesAfterFailure(t *testing.T) {
	client, server, ctx := setup(t)
	server.AddItem(elabtest.Entity{ID: 8})
	server.SetFail("/api/v2/items/8", http.StatusForbidden)

	j, err := journal.Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	input := "Name,elabftw_id,Maintext\n" +
		"forbidden,8,x\n" +
		"missing,404,x\n" +
		"too,many,fields,here\n" +
		"fresh,,y\n"
	rows, err := csvrows.NewReader(strings.NewReader(input))
	require.NoError(t, err)

	imp := New(Resources{API: client, CategoryID: 2}, Options{Journal: &j, Source: "input.csv"})
	summary, err := imp.Run(ctx, rows)
	require.NoError(t, err)
	require.Equal(t, Summary{Created: 1, Failed: 3}, summary)

	run, ok, err := j.LastRun(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "input.csv", run.Source)
	require.Equal(t, "resource", run.Kind)

	outcomes, err := j.Outcomes(ctx, run.ID)
	require.NoError(t, err)
	expected := []journal.Outcome{
		{Line: 2, Action: journal.ActionFailed, EntityID: 8, Title: "forbidden"},
		{Line: 3, Action: journal.ActionFailed, EntityID: 404, Title: "missing"},
		{Line: 4, Action: journal.ActionFailed},
		{Line: 5, Action: journal.ActionCreate, EntityID: 101, Title: "fresh"},
	}
	diff := cmp.Diff(expected, outcomes, cmpopts.IgnoreFields(journal.Outcome{}, "Error"))
	if diff != "" {
		t.Fatal(diff)
	}
	require.Contains(t, outcomes[0].Error, "403")
	require.Contains(t, outcomes[1].Error, "404")
	require.Contains(t, outcomes[2].Error, "fields")
	require.Empty(t, outcomes[3].Error)
}

func TestImportMissingName(t *testing.T) {
	client, server, ctx := setup(t)

	imp := New(Experiments{API: client}, Options{})
	summary, err := imp.Run(ctx, rowsOf(t, "Title,Maintext\nx,y\n"))
	require.NoError(t, err)
	require.Equal(t, Summary{Failed: 1}, summary)
	require.Empty(t, server.RequestsMatching(http.MethodPost))
}

func TestImportDryRun(t *testing.T) {
	_, _, ctx := setup(t)

	// no api is needed for a dry run
	imp := New(Resources{CategoryID: 1}, Options{DryRun: true})
	summary, err := imp.Run(ctx, rowsOf(t, antibodiesCsv))
	require.NoError(t, err)
	require.Equal(t, Summary{Planned: 3}, summary)
	require.Equal(t, 3, summary.Total())
}

func TestImportCancelled(t *testing.T) {
	client, _, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	imp := New(Resources{API: client, CategoryID: 1}, Options{})
	_, err := imp.Run(ctx, rowsOf(t, antibodiesCsv))
	require.ErrorIs(t, err, context.Canceled)
}
