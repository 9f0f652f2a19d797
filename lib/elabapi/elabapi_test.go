package elabapi

import (
	"context"
	"elabftw-tools/lib/elabapi/elabtest"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setup(t testing.TB) (*Client, *elabtest.Server) {
	server := elabtest.NewServer(t)
	client, err := NewClient(ClientOptions{
		BaseUrl: server.BaseUrl(),
		ApiKey:  elabtest.ApiKey,
	})
	require.NoError(t, err)
	return client, server
}

func testContext(t testing.TB) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	t.Cleanup(cancel)
	return ctx
}

func TestIdFromLocation(t *testing.T) {
	id, err := IdFromLocation("https://elab.example.org/api/v2/items/42")
	require.NoError(t, err)
	require.Equal(t, int64(42), id)

	id, err = IdFromLocation("17")
	require.NoError(t, err)
	require.Equal(t, int64(17), id)

	_, err = IdFromLocation("")
	require.ErrorIs(t, err, ErrNoLocation)

	_, err = IdFromLocation("https://elab.example.org/api/v2/items/")
	require.Error(t, err)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(ClientOptions{ApiKey: "x"})
	require.Error(t, err)
	_, err = NewClient(ClientOptions{BaseUrl: "https://elab.example.org/api/v2"})
	require.Error(t, err)
}

func TestItems(t *testing.T) {
	client, server := setup(t)
	ctx := testContext(t)

	server.AddItemsType(1, "Antibodies")
	server.AddItemsType(2, "Plasmids")
	server.AddItem(elabtest.Entity{ID: 5, Title: "Anti-GFP", Body: "<p>old</p>", Category: 1})
	server.AddItem(elabtest.Entity{ID: 6, Title: "pUC19", Category: 2})

	types, err := client.ReadItemsTypes(ctx)
	require.NoError(t, err)
	require.Equal(t, []ItemsType{{ID: 1, Title: "Antibodies"}, {ID: 2, Title: "Plasmids"}}, types)

	items, err := client.ReadItems(ctx, ReadItemsParams{Category: 1, Limit: 100})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Anti-GFP", items[0].Title)

	item, err := client.GetItem(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "<p>old</p>", item.Body)
	require.Equal(t, int64(1), item.Category)

	id, err := client.PostItem(ctx, PostItemParams{CategoryID: 2})
	require.NoError(t, err)
	created, ok := server.Item(id)
	require.True(t, ok)
	require.Equal(t, int64(2), created.Category)

	err = client.PatchItem(ctx, id, Patch{
		Title:    "pBR322",
		Body:     "<p>new</p>",
		Metadata: `{"extra_fields":{}}`,
	})
	require.NoError(t, err)
	patched, _ := server.Item(id)
	require.Equal(t, "pBR322", patched.Title)
	require.Equal(t, `{"extra_fields":{}}`, *patched.Metadata)

	patches := server.RequestsMatching(http.MethodPatch)
	require.Len(t, patches, 1)
	_, hasCustomId := patches[0].Body["custom_id"]
	require.False(t, hasCustomId)
}

func TestExperiments(t *testing.T) {
	client, _ := setup(t)
	ctx := testContext(t)

	id, err := client.PostExperiment(ctx)
	require.NoError(t, err)

	err = client.PatchExperiment(ctx, id, Patch{Title: "Western blot", CustomID: "12"})
	require.NoError(t, err)

	experiment, err := client.GetExperiment(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Western blot", experiment.Title)
	require.NotNil(t, experiment.CustomID)
	require.Equal(t, int64(12), *experiment.CustomID)
}

func TestAPIError(t *testing.T) {
	client, server := setup(t)
	ctx := testContext(t)

	_, err := client.GetItem(ctx, 404)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Equal(t, "/items/404", apiErr.Path)
	require.Equal(t, "Nothing to show with this id", apiErr.Description)

	server.SetFail("/api/v2/experiments", http.StatusInternalServerError)
	_, err = client.PostExperiment(ctx)
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)

	unauthorized, err := NewClient(ClientOptions{BaseUrl: server.BaseUrl(), ApiKey: "wrong"})
	require.NoError(t, err)
	_, err = unauthorized.ReadItemsTypes(ctx)
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
}
