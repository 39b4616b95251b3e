package bitrix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, nil)
}

func TestClient_Call(t *testing.T) {
	t.Run("posts JSON to the method path", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]any

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"result": 42, "total": 1}`))
		})

		res, err := client.Call(context.Background(), "crm.contact.add", map[string]any{
			"fields": map[string]any{"NAME": "Иван"},
		})
		require.NoError(t, err)

		assert.Equal(t, "/crm.contact.add", gotPath)
		assert.Equal(t, "Иван", gotBody["fields"].(map[string]any)["NAME"])
		assert.Equal(t, json.RawMessage("42"), res.Result)
		assert.Equal(t, 1, res.Total)
	})

	t.Run("surfaces remote errors", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": "ERROR_METHOD_NOT_FOUND", "error_description": "Method not found!"}`))
		})

		_, err := client.Call(context.Background(), "crm.bogus", nil)
		require.Error(t, err)

		var callErr *CallError
		require.ErrorAs(t, err, &callErr)
		assert.Equal(t, "ERROR_METHOD_NOT_FOUND", callErr.Code)
	})

	t.Run("rejects malformed responses", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>gateway timeout</html>"))
		})

		_, err := client.Call(context.Background(), "crm.contact.list", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed response")
	})
}

func TestClient_CallBatch(t *testing.T) {
	t.Run("submits ordered commands under correlation keys", func(t *testing.T) {
		var gotBody struct {
			Halt int               `json:"halt"`
			Cmd  map[string]string `json:"cmd"`
		}

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/batch", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"result": {
				"result": {"cmd_0": 101, "cmd_1": 102},
				"result_error": {},
				"result_total": {}
			}}`))
		})

		commands := []Command{
			{Key: CommandKey(0), Method: "crm.contact.add", Params: url.Values{"fields[NAME]": {"Иван"}}},
			{Key: CommandKey(1), Method: "crm.contact.add", Params: url.Values{"fields[NAME]": {"Анна"}}},
		}

		res, err := client.CallBatch(context.Background(), commands)
		require.NoError(t, err)

		assert.Equal(t, 0, gotBody.Halt)
		assert.Equal(t, "crm.contact.add?fields%5BNAME%5D="+url.QueryEscape("Иван"), gotBody.Cmd["cmd_0"])

		raw, err := res.ResultFor("cmd_0")
		require.NoError(t, err)
		assert.Equal(t, json.RawMessage("101"), raw)
	})

	t.Run("keeps per-command errors separate", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"result": {
				"result": {"cmd_0": 101},
				"result_error": {"cmd_1": {"error": "DUPLICATE", "error_description": "Contact exists"}},
				"result_total": {}
			}}`))
		})

		res, err := client.CallBatch(context.Background(), []Command{
			{Key: CommandKey(0), Method: "crm.contact.add"},
			{Key: CommandKey(1), Method: "crm.contact.add"},
		})
		require.NoError(t, err)

		_, err = res.ResultFor("cmd_0")
		assert.NoError(t, err)

		_, err = res.ResultFor("cmd_1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DUPLICATE")
	})

	t.Run("empty command list short-circuits", func(t *testing.T) {
		called := false
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		res, err := client.CallBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, res.Results)
		assert.False(t, called)
	})
}

func TestCommandKey(t *testing.T) {
	assert.Equal(t, "cmd_0", CommandKey(0))
	assert.Equal(t, "cmd_17", CommandKey(17))
}
