package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/Faultbox/wavefront/internal/config"
	"github.com/Faultbox/wavefront/pkg/obj"
)

const cubeOBJ = `# cube
mtllib cube.mtl
mtllib extra.mtl
v 0 0 0
v 1 0 0
v 1 1 0
vn 0 0 1
g front
usemtl Red
f 1//1 2//1 3//1
usemtl Glass
f 1//1 2//1 3//1`

const cubeMTL = `newmtl Red
Kd 1 0 0
map_Kd red.png
`

const extraMTL = `newmtl Glass
d 0.4
newmtl Red
Ns 50
`

// memFetcher serves fixed contents and records fetched paths.
type memFetcher struct {
	mu      sync.Mutex
	files   map[string]string
	fetched []string
}

func (f *memFetcher) Fetch(ctx context.Context, p string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, p)
	data, ok := f.files[p]
	if !ok {
		return nil, ErrFetch
	}
	return []byte(data), nil
}

func testConfig() config.LoaderConfig {
	return config.Default().Loader
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func checkCube(t *testing.T, m *obj.Mesh) {
	t.Helper()

	if m.FaceCount() != 2 {
		t.Errorf("expected 2 faces, got %d", m.FaceCount())
	}
	if m.MaterialCount() != 2 {
		t.Fatalf("expected 2 materials, got %d", m.MaterialCount())
	}

	red := m.FindMaterial("Red")
	if red == nil || red.Kd != [3]float32{1, 0, 0} || red.MapKd.Name != "red.png" {
		t.Errorf("unexpected Red material %+v", red)
	}
	if red != nil && red.Ns != 50 {
		t.Errorf("expected Ns from the second library, got %v", red.Ns)
	}

	glass := m.FindMaterial("Glass")
	if glass == nil || glass.D != 0.4 {
		t.Errorf("unexpected Glass material %+v", glass)
	}
}

func TestLoad_FromFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"models/cube.obj":  cubeOBJ,
		"models/cube.mtl":  cubeMTL,
		"models/extra.mtl": extraMTL,
	})

	l, err := New(FileFetcher{}, testConfig(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := l.Load(context.Background(), filepath.Join(dir, "models", "cube.obj"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if res.Warnings != nil {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
	if len(res.Libraries) != 2 || res.Libraries[0] != filepath.Join(dir, "models", "cube.mtl") {
		t.Errorf("unexpected resolved libraries %v", res.Libraries)
	}
	checkCube(t, res.Mesh)
}

func TestLoad_FileFetcherRoot(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"cube.obj":  cubeOBJ,
		"cube.mtl":  cubeMTL,
		"extra.mtl": extraMTL,
	})

	l, err := New(FileFetcher{Root: dir}, testConfig(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := l.Load(context.Background(), "cube.obj")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	checkCube(t, res.Mesh)
}

func TestLoad_FromHTTP(t *testing.T) {
	files := map[string]string{
		"/assets/cube.obj":  cubeOBJ,
		"/assets/cube.mtl":  cubeMTL,
		"/assets/extra.mtl": extraMTL,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(content))
	}))
	defer srv.Close()

	l, err := NewDefault(testConfig(), nil)
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}

	res, err := l.Load(context.Background(), srv.URL+"/assets/cube.obj")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if res.Libraries[1] != srv.URL+"/assets/extra.mtl" {
		t.Errorf("unexpected resolved library %s", res.Libraries[1])
	}
	checkCube(t, res.Mesh)
}

func TestLoad_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	l, _ := NewDefault(testConfig(), nil)
	_, err := l.Load(context.Background(), srv.URL+"/cube.obj")
	if !errors.Is(err, ErrHTTPStatus) {
		t.Errorf("expected ErrHTTPStatus, got %v", err)
	}
}

func TestLoad_MissingLibraryWarns(t *testing.T) {
	f := &memFetcher{files: map[string]string{
		"cube.obj": cubeOBJ,
		"cube.mtl": cubeMTL,
	}}

	l, _ := New(f, testConfig(), nil)
	res, err := l.Load(context.Background(), "cube.obj")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	warnings := multierr.Errors(res.Warnings)
	if len(warnings) != 1 || !strings.Contains(warnings[0].Error(), "extra.mtl") {
		t.Errorf("expected one warning for extra.mtl, got %v", warnings)
	}
	if !errors.Is(res.Warnings, ErrFetch) {
		t.Errorf("expected warning to wrap ErrFetch, got %v", res.Warnings)
	}

	// Materials bound by usemtl exist even without their library.
	if res.Mesh.FindMaterial("Glass") == nil {
		t.Error("expected Glass material from usemtl")
	}
}

func TestLoad_StrictMaterials(t *testing.T) {
	f := &memFetcher{files: map[string]string{
		"cube.obj": cubeOBJ,
		"cube.mtl": cubeMTL,
	}}

	cfg := testConfig()
	cfg.StrictMaterials = true
	l, _ := New(f, cfg, nil)

	if _, err := l.Load(context.Background(), "cube.obj"); !errors.Is(err, ErrFetch) {
		t.Errorf("expected ErrFetch in strict mode, got %v", err)
	}
}

func TestLoad_BrokenLibrary(t *testing.T) {
	f := &memFetcher{files: map[string]string{
		"cube.obj":  cubeOBJ,
		"cube.mtl":  "Kd 1 1 1\n",
		"extra.mtl": extraMTL,
	}}

	l, _ := New(f, testConfig(), nil)
	res, err := l.Load(context.Background(), "cube.obj")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !errors.Is(res.Warnings, obj.ErrNoCurrentMaterial) {
		t.Errorf("expected ErrNoCurrentMaterial warning, got %v", res.Warnings)
	}
	if res.Mesh.FindMaterial("Glass").D != 0.4 {
		t.Error("later libraries must still be applied")
	}

	cfg := testConfig()
	cfg.StrictMaterials = true
	l, _ = New(f, cfg, nil)
	if _, err := l.Load(context.Background(), "cube.obj"); !errors.Is(err, obj.ErrNoCurrentMaterial) {
		t.Errorf("expected ErrNoCurrentMaterial in strict mode, got %v", err)
	}
}

func TestLoad_FetchesEveryLibraryOnce(t *testing.T) {
	f := &memFetcher{files: map[string]string{
		"cube.obj":  cubeOBJ,
		"cube.mtl":  cubeMTL,
		"extra.mtl": extraMTL,
	}}

	cfg := testConfig()
	cfg.MaxConcurrentFetches = 1
	l, _ := New(f, cfg, nil)
	if _, err := l.Load(context.Background(), "cube.obj"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(f.fetched) != 3 || f.fetched[0] != "cube.obj" {
		t.Errorf("unexpected fetch sequence %v", f.fetched)
	}
}

func TestLoad_ParseLimits(t *testing.T) {
	f := &memFetcher{files: map[string]string{"cube.obj": cubeOBJ}}

	cfg := testConfig()
	cfg.MaxElements = 4
	l, _ := New(f, cfg, nil)

	if _, err := l.Load(context.Background(), "cube.obj"); !errors.Is(err, obj.ErrOutOfMemory) {
		t.Errorf("expected ErrOutOfMemory, got %v", err)
	}
}

func TestLoad_MissingModel(t *testing.T) {
	l, _ := New(&memFetcher{}, testConfig(), nil)
	if _, err := l.Load(context.Background(), "nope.obj"); !errors.Is(err, ErrFetch) {
		t.Errorf("expected ErrFetch, got %v", err)
	}
}

func TestLoad_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"cube.obj": cubeOBJ})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l, _ := New(FileFetcher{Root: dir}, testConfig(), nil)
	if _, err := l.Load(ctx, "cube.obj"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoad_NameEncoding(t *testing.T) {
	// "갑옷" in EUC-KR
	name := "\xb0\xa9\xbf\xca"
	f := &memFetcher{files: map[string]string{
		"armor.obj": "mtllib armor.mtl\nusemtl " + name + "\nf 1 1 1\n",
		"armor.mtl": "newmtl " + name + "\nmap_Kd " + name + ".png\n",
	}}

	cfg := testConfig()
	cfg.NameEncoding = "euc-kr"
	l, err := New(f, cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := l.Load(context.Background(), "armor.obj")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if res.Mesh.MaterialCount() != 1 {
		t.Fatalf("expected the library to update the usemtl material, got %d materials", res.Mesh.MaterialCount())
	}
	mat := res.Mesh.Materials[0]
	if mat.Name != "갑옷" || mat.MapKd.Name != "갑옷.png" {
		t.Errorf("unexpected decoded names %q, %q", mat.Name, mat.MapKd.Name)
	}
}

func TestNew_UnknownEncoding(t *testing.T) {
	cfg := testConfig()
	cfg.NameEncoding = "klingon"
	if _, err := New(&memFetcher{}, cfg, nil); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(50*time.Millisecond).Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrFetch) {
		t.Errorf("expected ErrFetch on timeout, got %v", err)
	}
}

func TestEnsureNewline(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"v 1 2 3", "v 1 2 3\n"},
		{"v 1 2 3\n", "v 1 2 3\n"},
		{"", "\n"},
	}
	for _, tc := range tests {
		if got := string(EnsureNewline([]byte(tc.input))); got != tc.want {
			t.Errorf("EnsureNewline(%q) = %q, expected %q", tc.input, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{"models/cube.obj", "cube.mtl", filepath.Join("models", "cube.mtl")},
		{"cube.obj", "mat/cube.mtl", filepath.Join("mat", "cube.mtl")},
		{"/abs/cube.obj", "/other/cube.mtl", "/other/cube.mtl"},
		{"https://example.com/a/cube.obj", "cube.mtl", "https://example.com/a/cube.mtl"},
		{"https://example.com/a/cube.obj", "../m/cube.mtl", "https://example.com/m/cube.mtl"},
		{"cube.obj", "http://cdn.example.com/cube.mtl", "http://cdn.example.com/cube.mtl"},
	}

	for _, tc := range tests {
		if got := resolve(tc.base, tc.ref); got != tc.want {
			t.Errorf("resolve(%q, %q) = %q, expected %q", tc.base, tc.ref, got, tc.want)
		}
	}
}
