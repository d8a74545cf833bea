package archive

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	p := filepath.Join(t.TempDir(), "test.zip")
	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write zip: %v", err)
	}
	return p
}

func TestExtractAndFind(t *testing.T) {
	src := writeZip(t, map[string]string{
		"tl_2020_25_place.shp.xml": "<xml/>",
		"tl_2020_25_place.dbf":     "dbf",
		"tl_2020_25_place.shp":     "shp",
		"tl_2020_25_place.shx":     "shx",
	})
	dir := t.TempDir()

	if err := Extract(src, dir); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for _, name := range []string{"tl_2020_25_place.dbf", "tl_2020_25_place.shp", "tl_2020_25_place.shx", "tl_2020_25_place.shp.xml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to be extracted: %v", name, err)
		}
	}

	shp, err := FindShapefile(dir)
	if err != nil {
		t.Fatalf("FindShapefile: %v", err)
	}
	if filepath.Base(shp) != "tl_2020_25_place.shp" {
		t.Errorf("unexpected shapefile %s", shp)
	}
}

func TestFindShapefileUppercaseNested(t *testing.T) {
	src := writeZip(t, map[string]string{
		"data/PLACES.SHP": "shp",
		"readme.txt":      "hello",
	})
	dir := t.TempDir()

	if err := Extract(src, dir); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	shp, err := FindShapefile(dir)
	if err != nil {
		t.Fatalf("FindShapefile: %v", err)
	}
	if filepath.Base(shp) != "PLACES.SHP" {
		t.Errorf("unexpected shapefile %s", shp)
	}
}

func TestFindShapefileMissing(t *testing.T) {
	src := writeZip(t, map[string]string{"readme.txt": "no geometry here"})
	dir := t.TempDir()

	if err := Extract(src, dir); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	_, err := FindShapefile(dir)
	if !errors.Is(err, ErrNoShapefile) {
		t.Errorf("expected ErrNoShapefile, got %v", err)
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	src := writeZip(t, map[string]string{"../evil.shp": "x"})
	dir := t.TempDir()

	err := Extract(src, dir)
	if !errors.Is(err, ErrUnsafePath) {
		t.Errorf("expected ErrUnsafePath, got %v", err)
	}
}

func TestExtractNotAZip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.zip")
	if err := os.WriteFile(p, []byte("<html>error</html>"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := Extract(p, t.TempDir()); err == nil {
		t.Error("expected error for invalid archive")
	}
}
