package blocklist_test

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/leighmacdonald/ipreview/internal/blocklist"
	"github.com/leighmacdonald/ipreview/internal/httphelper"
	"github.com/leighmacdonald/ipreview/internal/tests"
	"github.com/stretchr/testify/require"
)

func TestBlockHandler(t *testing.T) {
	var (
		router = tests.CreateRouter(t)
		store  = blocklist.NewStore(tests.BlocklistPath(t))
	)

	blocklist.NewHandler(router, store)

	// Nothing stored yet
	require.Empty(t, tests.GetText(t, router, "/blocklist.txt", http.StatusOK).Body.String())

	require.Equal(t, "Successfully added 1.2.3.0/24",
		tests.PostText(t, router, "/block", blocklist.BlockRequest{Subnet: "1.2.3.0/24"}, http.StatusOK))
	require.Equal(t, "1.2.3.0/24 is already in the blocklist.",
		tests.PostText(t, router, "/block", blocklist.BlockRequest{Subnet: "1.2.3.0/24"}, http.StatusOK))
	require.Equal(t, "Successfully added 2001:db8::/48",
		tests.PostText(t, router, "/block", blocklist.BlockRequest{Subnet: "2001:db8::/48"}, http.StatusOK))

	resp := tests.GetText(t, router, "/blocklist.txt", http.StatusOK)
	require.Equal(t, "1.2.3.0/24\n2001:db8::/48\n", resp.Body.String())
	require.Contains(t, resp.Header().Get("Content-Type"), "text/plain")
}

func TestBlockHandlerValidation(t *testing.T) {
	var (
		router = tests.CreateRouter(t)
		store  = blocklist.NewStore(tests.BlocklistPath(t))
	)

	blocklist.NewHandler(router, store)

	require.Equal(t, "Missing 'subnet' in request body",
		tests.PostText(t, router, "/block", map[string]string{}, http.StatusBadRequest))
	require.Equal(t, "Missing 'subnet' in request body",
		tests.PostRaw(t, router, "/block", "{not json", http.StatusBadRequest).Body.String())
	require.Equal(t, "Invalid subnet: 1.2.3.4",
		tests.PostText(t, router, "/block", blocklist.BlockRequest{Subnet: "1.2.3.4"}, http.StatusBadRequest))

	body, errRead := store.ReadAll(t.Context())
	require.NoError(t, errRead)
	require.Empty(t, body)
}

func TestBlockHandlerStorageFailure(t *testing.T) {
	var (
		router = tests.CreateRouter(t)
		path   = filepath.Join(t.TempDir(), "blocklist.txt")
	)

	// A directory where the file should be makes every write fail.
	require.NoError(t, os.MkdirAll(path, 0o755))

	blocklist.NewHandler(router, blocklist.NewStore(path))

	require.Equal(t, "Error writing to blocklist file.",
		tests.PostText(t, router, "/block", blocklist.BlockRequest{Subnet: "1.2.3.0/24"}, http.StatusInternalServerError))
}

func TestContainsHandler(t *testing.T) {
	var (
		router = tests.CreateRouter(t)
		store  = blocklist.NewStore(tests.BlocklistPath(t))
	)

	blocklist.NewHandler(router, store)

	_, errAdd := store.Add(t.Context(), "8.8.8.0/24")
	require.NoError(t, errAdd)

	var found blocklist.ContainsResponse
	tests.GetQueryOK(t, router, "/blocklist/contains", blocklist.ContainsQuery{Subnet: "8.8.8.0/24"}, &found)
	require.True(t, found.Contains)

	var missing blocklist.ContainsResponse
	tests.GetQueryOK(t, router, "/blocklist/contains", blocklist.ContainsQuery{Subnet: "1.1.1.0/24"}, &missing)
	require.False(t, missing.Contains)
	require.Equal(t, "1.1.1.0/24", missing.Subnet)
}

func TestContainsHandlerInvalid(t *testing.T) {
	router := tests.CreateRouter(t)
	blocklist.NewHandler(router, blocklist.NewStore(tests.BlocklistPath(t)))

	resp := tests.GetText(t, router, "/blocklist/contains?subnet=bogus", http.StatusBadRequest)

	var apiErr httphelper.APIError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &apiErr))
	require.Equal(t, httphelper.ErrBadRequest.Error(), apiErr.Title)
	require.Equal(t, "Invalid subnet: bogus", apiErr.Detail)
}
