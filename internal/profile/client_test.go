package profile

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"alice", "alice"},
		{"alice.smith", "alice_smith"},
		{"a#b$c", "a_b_c"},
		{"a[0]/b", "a_0__b"},
		{"  padded  ", "padded"},
	}
	for _, tt := range tests {
		if got := SanitizeKey(tt.in); got != tt.want {
			t.Errorf("SanitizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetFetchesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/profiles/alice_smith.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"name":"Alice","theme":"dark"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	doc, err := c.Get(context.Background(), "alice.smith")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc["name"] != "Alice" || doc["theme"] != "dark" {
		t.Fatalf("doc = %v", doc)
	}
}

func TestGetMapsMissingProfiles(t *testing.T) {
	t.Run("404 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		if _, err := NewClient(srv.URL).Get(context.Background(), "ghost"); !errors.Is(err, ErrProfileNotFound) {
			t.Fatalf("expected ErrProfileNotFound, got %v", err)
		}
	})

	t.Run("JSON null body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "null")
		}))
		defer srv.Close()

		if _, err := NewClient(srv.URL).Get(context.Background(), "ghost"); !errors.Is(err, ErrProfileNotFound) {
			t.Fatalf("expected ErrProfileNotFound, got %v", err)
		}
	})
}

func TestPutAndPatchSendJSONBodies(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	if err := c.Put(ctx, "alice", map[string]any{"name": "Alice"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/profiles/alice.json" {
		t.Fatalf("put request = %s %s", gotMethod, gotPath)
	}
	if gotContentType != "application/json" || gotBody["name"] != "Alice" {
		t.Fatalf("put body = %v (%s)", gotBody, gotContentType)
	}

	if err := c.Patch(ctx, "alice", map[string]any{"theme": "dark"}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Fatalf("patch method = %s", gotMethod)
	}
	if gotBody["theme"] != "dark" {
		t.Fatalf("patch body = %v", gotBody)
	}
}

func TestWriteSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).Put(context.Background(), "alice", map[string]any{}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
