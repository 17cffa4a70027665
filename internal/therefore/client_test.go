package therefore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urovesa/portal-api/internal/config"
)

func testClient(serverURL string) *Client {
	return NewClient(config.ThereforeConfig{
		BaseURL:  serverURL,
		Username: "api-user",
		Password: "api-pass",
		Tenant:   "urovesa",
		Timeout:  5 * time.Second,
	})
}

func TestClient_ExecuteSingleQuery_ForwardsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/Document/ExecuteSingleQuery", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "urovesa", r.Header.Get("X-Therefore-Online-Tenant"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "api-user", user)
		assert.Equal(t, "api-pass", pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(42), body["QueryNo"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"rows":[]}`))
	}))
	defer server.Close()

	result, err := testClient(server.URL).ExecuteSingleQuery(
		context.Background(), json.RawMessage(`{"QueryNo":42}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.JSONEq(t, `{"rows":[]}`, string(result.Body))
}

func TestClient_ExecuteSingleQuery_NilBodyBecomesEmptyObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Empty(t, body)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).ExecuteSingleQuery(context.Background(), nil)
	assert.NoError(t, err)
}

func TestClient_GetDocument_EscapesDocNo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/Document/GetDocument", r.URL.Path)
		assert.Equal(t, "12/34 5", r.URL.Query().Get("DocNo"))
		w.Write([]byte(`{"DocNo":"12/34 5"}`))
	}))
	defer server.Close()

	result, err := testClient(server.URL).GetDocument(context.Background(), "12/34 5")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestClient_RelaysUpstreamErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"no access"}`))
	}))
	defer server.Close()

	result, err := testClient(server.URL).CreateDocument(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err, "upstream HTTP errors are relayed, not returned as errors")

	assert.Equal(t, http.StatusForbidden, result.StatusCode)
	assert.JSONEq(t, `{"error":"no access"}`, string(result.Body))
}

func TestClient_NormalizesNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>gateway error</html>"))
	}))
	defer server.Close()

	result, err := testClient(server.URL).ExecuteSingleQuery(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadGateway, result.StatusCode)
	assert.JSONEq(t, `{}`, string(result.Body))
}

func TestClient_UnreachableServer(t *testing.T) {
	client := testClient("http://127.0.0.1:1")

	_, err := client.ExecuteSingleQuery(context.Background(), nil)
	assert.Error(t, err)
}
