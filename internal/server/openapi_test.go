package server

import (
	"encoding/json"
	"testing"
)

func TestOpenAPISpec(t *testing.T) {
	spec := newOpenAPISpec()

	data, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("marshaling spec: %v", err)
	}

	var doc struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshaling spec: %v", err)
	}

	if doc.Info.Title != "Breadcrumbs API" {
		t.Errorf("title = %q", doc.Info.Title)
	}
	for _, path := range []string{
		"/healthz",
		"/api/auth/login",
		"/api/notes",
		"/api/notes/{noteID}",
		"/api/hunts/pickup",
		"/api/wizard/submit",
		"/api/events",
	} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("path %s missing from spec", path)
		}
	}
}
