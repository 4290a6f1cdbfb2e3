package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleOpenAPI(t *testing.T) {
	h := handleOpenAPI()
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()

	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "application/json") {
		t.Fatalf("content-type = %q, want application/json", got)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"openapi": "3.1.0"`) {
		t.Fatalf("body missing openapi version")
	}
	for _, path := range []string{"/healthz", "/api/rooms", "/api/rooms/{roomId}/result", "/api/rooms/{roomId}/ws"} {
		if !strings.Contains(body, `"`+path+`"`) {
			t.Errorf("body missing %s path", path)
		}
	}
}

func TestOpenAPIRoomOperations(t *testing.T) {
	data, err := json.Marshal(newOpenAPISpec())
	if err != nil {
		t.Fatalf("marshal spec: %v", err)
	}
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal spec: %v", err)
	}

	adminOps := []struct{ method, path string }{
		{"get", "/api/rooms/{roomId}"},
		{"post", "/api/rooms/{roomId}/configure"},
		{"post", "/api/rooms/{roomId}/start"},
	}
	for _, tt := range adminOps {
		method, path := tt.method, tt.path
		raw, ok := doc.Paths[path][method]
		if !ok {
			t.Errorf("missing %s %s", method, path)
			continue
		}
		var op struct {
			Parameters []struct {
				Name string `json:"name"`
				In   string `json:"in"`
			} `json:"parameters"`
		}
		if err := json.Unmarshal(raw, &op); err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		found := false
		for _, p := range op.Parameters {
			if p.Name == "X-Admin-Key" && p.In == "header" {
				found = true
			}
		}
		if !found {
			t.Errorf("%s %s: no X-Admin-Key header parameter in %+v", method, path, op.Parameters)
		}
	}

	body := string(data)
	for _, field := range []string{`"stageIndex"`, `"completedMs"`, `"score"`, `"adminKey"`, `"serverNowMs"`} {
		if !strings.Contains(body, field) {
			t.Errorf("spec missing %s property", field)
		}
	}
}

func TestHandleSwaggerUI(t *testing.T) {
	h := handleSwaggerUI()
	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	rec := httptest.NewRecorder()

	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/html") {
		t.Fatalf("content-type = %q, want text/html", got)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "SwaggerUIBundle") {
		t.Fatalf("body missing SwaggerUIBundle")
	}
	if !strings.Contains(body, "/openapi.json") {
		t.Fatalf("body missing /openapi.json")
	}
}
