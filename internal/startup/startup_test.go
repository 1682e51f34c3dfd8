package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.Name != "terra" || !strings.Contains(info.Platform, "/") {
		t.Errorf("Name/Platform = %q/%q", info.Name, info.Platform)
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetRoutes(t *testing.T) {
	noop := func(http.ResponseWriter, *http.Request) {}

	r := mux.NewRouter()
	r.HandleFunc("/health", noop).Methods("GET")
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/albums", noop).Methods("GET", "POST")
	api.HandleFunc("/albums/{id}/cover", noop).Methods("PUT").Name("cover")

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}

	want := map[string]bool{
		"GET /health":                true,
		"GET /api/albums":            true,
		"POST /api/albums":           true,
		"PUT /api/albums/{id}/cover": true,
	}
	if len(routes) != len(want) {
		t.Errorf("GetRoutes() returned %d routes, want %d: %+v", len(routes), len(want), routes)
	}
	if routes[0].Path != "/api/albums" || routes[0].Method != "GET" {
		t.Errorf("first route = %+v, want GET /api/albums", routes[0])
	}

	found := 0
	for _, route := range routes {
		if want[route.Method+" "+route.Path] {
			found++
		}
		if route.Path == "/api/albums/{id}/cover" && route.Name != "cover" {
			t.Errorf("route name = %q, want cover", route.Name)
		}
	}
	if found != len(want) {
		t.Errorf("found %d of %d expected routes in %+v", found, len(want), routes)
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"/health", "health"},
		{"/api/albums/{id}/photos", "api/albums"},
		{"/api/photos", "api/photos"},
		{"/api", "api"},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestEnsureDirectory(t *testing.T) {
	base := t.TempDir()

	created := filepath.Join(base, "a", "b")
	if err := ensureDirectory(created, "data"); err != nil {
		t.Fatalf("ensureDirectory() error = %v", err)
	}
	if info, err := os.Stat(created); err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}

	file := filepath.Join(base, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ensureDirectory(file, "data"); err == nil {
		t.Error("ensureDirectory() on a regular file should fail")
	}
}

func TestTestWriteAccess(t *testing.T) {
	dir := t.TempDir()
	if err := testWriteAccess(dir); err != nil {
		t.Fatalf("testWriteAccess() error = %v", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("write test left %d entries behind", len(entries))
	}
	if err := testWriteAccess(filepath.Join(dir, "missing")); err == nil {
		t.Error("testWriteAccess() on a missing directory should fail")
	}
}
