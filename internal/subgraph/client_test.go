package subgraph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientExecute(t *testing.T) {
	var gotBody graphqlRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"data": {"borrows": []}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	data, err := client.Execute(context.Background(), "query { borrows }", map[string]interface{}{"skip": 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(string(data), "borrows") {
		t.Fatalf("data = %s", data)
	}
	if gotBody.Query != "query { borrows }" {
		t.Fatalf("query sent = %q", gotBody.Query)
	}
	if gotBody.Variables["skip"] != float64(10) {
		t.Fatalf("variables sent = %v", gotBody.Variables)
	}
}

func TestClientExecuteSurfacesGraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data": null, "errors": [{"message": "field does not exist"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Execute(context.Background(), "query", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "field does not exist") {
		t.Fatalf("error should carry first message: %v", err)
	}
}

func TestClientExecuteNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Execute(context.Background(), "query", nil); err == nil {
		t.Fatalf("expected error for 502")
	}
}

func TestClientExecuteMissingData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Execute(context.Background(), "query", nil); err == nil {
		t.Fatalf("expected error for missing data")
	}
}
