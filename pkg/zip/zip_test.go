package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchive(t *testing.T) {
	entries := []Entry{
		{Name: "a.txt", Data: []byte("first")},
		{Name: "b.txt", Data: []byte("second")},
	}
	data := Archive(entries)
	if len(data) == 0 {
		t.Fatal("empty archive")
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("file count = %d, want 2", len(zr.File))
	}
	for i, want := range []string{"first", "second"} {
		f := zr.File[i]
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		got, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		if string(got) != want {
			t.Fatalf("%s = %q, want %q", f.Name, got, want)
		}
	}
}

func TestArchiveEmpty(t *testing.T) {
	data := Archive(nil)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 0 {
		t.Fatalf("file count = %d, want 0", len(zr.File))
	}
}
