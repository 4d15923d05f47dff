package mirror

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/Jaebeom-git/InferBiomechanics/internal/remote"
)

// fakeService serves a canned folder tree from memory.
type fakeService struct {
	children  map[string][]remote.Node
	content   map[string][]byte
	failAfter map[string]int // fileID -> bytes served before the stream errors

	downloads []string
}

func (f *fakeService) ListChildren(_ context.Context, folderID string) ([]remote.Node, error) {
	return f.children[folderID], nil
}

func (f *fakeService) FileSize(_ context.Context, fileID string) (int64, error) {
	return int64(len(f.content[fileID])), nil
}

func (f *fakeService) Download(_ context.Context, fileID string) (io.ReadCloser, error) {
	f.downloads = append(f.downloads, fileID)
	data := f.content[fileID]
	if n, ok := f.failAfter[fileID]; ok {
		return io.NopCloser(io.MultiReader(
			bytes.NewReader(data[:n]),
			&errReader{},
		)), nil
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type errReader struct{}

func (*errReader) Read([]byte) (int, error) {
	return 0, errors.New("stream reset")
}

func file(id, name string) remote.Node {
	return remote.Node{ID: id, Name: name, MimeType: "application/octet-stream"}
}

func folder(id, name string) remote.Node {
	return remote.Node{ID: id, Name: name, MimeType: remote.FolderMimeType}
}

func TestMirror_PreservesStructure(t *testing.T) {
	svc := &fakeService{
		children: map[string][]remote.Node{
			"root": {folder("a", "A"), folder("b", "B"), folder("e", "E")},
			"a":    {file("f1", "file1")},
			"b":    {folder("c", "C")},
			"c":    {file("f2", "file2")},
		},
		content: map[string][]byte{
			"f1": []byte("one"),
			"f2": []byte("two two"),
		},
	}

	dest := t.TempDir()
	m := New(Config{Service: svc, SourceFolderID: "root", DestRoot: dest})

	paths, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		filepath.Join(dest, "A", "file1"),
		filepath.Join(dest, "B", "C", "file2"),
	}
	sort.Strings(paths)
	if len(paths) != len(want) || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("paths = %v, want %v", paths, want)
	}

	data, err := os.ReadFile(filepath.Join(dest, "B", "C", "file2"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "two two" {
		t.Errorf("content = %q, want %q", data, "two two")
	}

	// Empty folders are still created.
	info, err := os.Stat(filepath.Join(dest, "E"))
	if err != nil || !info.IsDir() {
		t.Errorf("empty folder E not created: %v", err)
	}
}

func TestMirror_SecondRunSkipsEverything(t *testing.T) {
	svc := &fakeService{
		children: map[string][]remote.Node{
			"root": {file("f1", "a.bin"), file("f2", "b.bin")},
		},
		content: map[string][]byte{
			"f1": []byte("aaaa"),
			"f2": []byte("bbbbbb"),
		},
	}

	dest := t.TempDir()
	m := New(Config{Service: svc, SourceFolderID: "root", DestRoot: dest})
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if got := len(svc.downloads); got != 2 {
		t.Fatalf("first run downloads = %d, want 2", got)
	}

	m2 := New(Config{Service: svc, SourceFolderID: "root", DestRoot: dest})
	paths, err := m2.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(svc.downloads) != 2 {
		t.Errorf("second run performed %d extra downloads, want 0", len(svc.downloads)-2)
	}
	if len(paths) != 0 {
		t.Errorf("second run materialized %v, want nothing", paths)
	}
	if got := m2.Stats.FilesSkipped.Load(); got != 2 {
		t.Errorf("FilesSkipped = %d, want 2", got)
	}
}

func TestMirror_SizeMismatchRewrites(t *testing.T) {
	svc := &fakeService{
		children: map[string][]remote.Node{
			"root": {file("f1", "data.bin")},
		},
		content: map[string][]byte{
			"f1": []byte("full remote content"),
		},
	}

	dest := t.TempDir()
	target := filepath.Join(dest, "data.bin")
	// Simulate a previous partial/interrupted download.
	if err := os.WriteFile(target, []byte("partial"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m := New(Config{Service: svc, SourceFolderID: "root", DestRoot: dest})
	paths, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(paths) != 1 || paths[0] != target {
		t.Errorf("paths = %v, want [%s]", paths, target)
	}

	data, _ := os.ReadFile(target)
	if string(data) != "full remote content" {
		t.Errorf("content = %q, want full rewrite", data)
	}
}

func TestMirror_SatisfiedFileSkipped(t *testing.T) {
	content := []byte("biomechanics subject data")
	svc := &fakeService{
		children: map[string][]remote.Node{
			"root": {folder("p31", "P031_split2")},
			"p31":  {file("f1", "P031_split2.b3d")},
		},
		content: map[string][]byte{"f1": content},
	}

	dest := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dest, "P031_split2"), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	target := filepath.Join(dest, "P031_split2", "P031_split2.b3d")
	if err := os.WriteFile(target, content, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	before, _ := os.Stat(target)

	m := New(Config{Service: svc, SourceFolderID: "root", DestRoot: dest})
	paths, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("skip materialized %v, want nothing", paths)
	}
	if len(svc.downloads) != 0 {
		t.Errorf("downloads = %v, want none", svc.downloads)
	}

	after, _ := os.Stat(target)
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("satisfied file was rewritten")
	}
}

func TestMirror_SizelessEntry(t *testing.T) {
	svc := &fakeService{
		children: map[string][]remote.Node{
			"root": {file("doc", "notes.gdoc")},
		},
		content: map[string][]byte{"doc": {}},
	}

	dest := t.TempDir()
	m := New(Config{Service: svc, SourceFolderID: "root", DestRoot: dest})
	paths, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("paths = %v, want one 0-byte file", paths)
	}

	info, err := os.Stat(paths[0])
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("size = %d, want 0", info.Size())
	}

	// Re-run resolves to a 0-byte size comparison and skips.
	m2 := New(Config{Service: svc, SourceFolderID: "root", DestRoot: dest})
	if _, err := m2.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if got := m2.Stats.FilesSkipped.Load(); got != 1 {
		t.Errorf("FilesSkipped = %d, want 1", got)
	}
}

func TestMirror_FailFastAbortsSiblings(t *testing.T) {
	svc := &fakeService{
		children: map[string][]remote.Node{
			"root": {file("f1", "ok1"), file("f2", "bad"), file("f3", "ok2")},
		},
		content: map[string][]byte{
			"f1": []byte("1111"),
			"f2": []byte("2222"),
			"f3": []byte("3333"),
		},
		failAfter: map[string]int{"f2": 2},
	}

	dest := t.TempDir()
	m := New(Config{Service: svc, SourceFolderID: "root", DestRoot: dest})
	paths, err := m.Run(context.Background())

	var terr *TransferError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want TransferError", err)
	}
	if terr.Name != "bad" {
		t.Errorf("failed file = %q, want %q", terr.Name, "bad")
	}
	if len(paths) != 1 {
		t.Errorf("paths = %v, want only the file before the failure", paths)
	}
	if _, statErr := os.Stat(filepath.Join(dest, "ok2")); !os.IsNotExist(statErr) {
		t.Error("sibling after the failure was still transferred")
	}
}

func TestMirror_ContinueOnErrorIsolatesFailure(t *testing.T) {
	svc := &fakeService{
		children: map[string][]remote.Node{
			"root": {file("f1", "ok1"), file("f2", "bad"), file("f3", "ok2")},
		},
		content: map[string][]byte{
			"f1": []byte("1111"),
			"f2": []byte("2222"),
			"f3": []byte("3333"),
		},
		failAfter: map[string]int{"f2": 2},
	}

	dest := t.TempDir()
	m := New(Config{Service: svc, SourceFolderID: "root", DestRoot: dest, ContinueOnError: true})
	paths, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("paths = %v, want the two good files", paths)
	}
	if got := m.Stats.TransferErrors.Load(); got != 1 {
		t.Errorf("TransferErrors = %d, want 1", got)
	}
	if _, statErr := os.Stat(filepath.Join(dest, "ok2")); statErr != nil {
		t.Errorf("sibling after the failure missing: %v", statErr)
	}
}

func TestMirror_MaxDepth(t *testing.T) {
	svc := &fakeService{
		children: map[string][]remote.Node{
			"root": {folder("a", "A")},
			"a":    {file("f1", "deep.bin")},
		},
		content: map[string][]byte{"f1": []byte("x")},
	}

	m := New(Config{Service: svc, SourceFolderID: "root", DestRoot: t.TempDir(), MaxDepth: 1})
	_, err := m.Run(context.Background())
	if !errors.Is(err, ErrMaxDepth) {
		t.Fatalf("err = %v, want ErrMaxDepth", err)
	}
}

func TestMirror_ProgressMonotonic(t *testing.T) {
	svc := &fakeService{
		children: map[string][]remote.Node{
			"root": {file("f1", "big.bin")},
		},
		content: map[string][]byte{"f1": bytes.Repeat([]byte("x"), 10)},
	}

	var fractions []float64
	m := New(Config{
		Service:        svc,
		SourceFolderID: "root",
		DestRoot:       t.TempDir(),
		ChunkSize:      4,
		OnProgress: func(name string, fraction float64) {
			fractions = append(fractions, fraction)
		},
	})

	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fractions) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] < fractions[i-1] {
			t.Errorf("fraction decreased: %v", fractions)
			break
		}
	}
	if last := fractions[len(fractions)-1]; last != 1 {
		t.Errorf("final fraction = %v, want 1", last)
	}
}
