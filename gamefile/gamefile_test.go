package gamefile

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// makeDiscHeader builds a minimal GameCube disc header.
func makeDiscHeader(gameID string, disc, revision byte, title string) []byte {
	h := make([]byte, headerSize)
	copy(h, gameID)
	h[6] = disc
	h[7] = revision
	binary.BigEndian.PutUint32(h[0x1C:], gamecubeMagic)
	copy(h[0x20:], title)
	return h
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestOpen_ISO(t *testing.T) {
	path := writeFile(t, "melee.iso", makeDiscHeader("GALE01", 0, 2, "Super Smash Bros Melee"))

	g, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if g.GameID != "GALE01" || g.Revision != 2 || g.Platform != GameCube || g.Title != "Super Smash Bros Melee" {
		t.Errorf("got %+v", g)
	}
	if !g.IsValid() {
		t.Error("not valid")
	}
	if got, want := g.NetPlayName(), "Super Smash Bros Melee (GALE01, Revision 2)"; got != want {
		t.Errorf("NetPlayName = %q, want %q", got, want)
	}
}

func TestOpen_WBFS(t *testing.T) {
	h := makeDiscHeader("RSBE01", 0, 0, "Brawl")
	binary.BigEndian.PutUint32(h[0x18:], wiiMagic)
	data := append(make([]byte, 0x200), h...)

	g, err := Open(writeFile(t, "brawl.wbfs", data))
	if err != nil {
		t.Fatal(err)
	}
	if g.GameID != "RSBE01" || g.Platform != Wii {
		t.Errorf("got %+v", g)
	}
}

func TestOpen_Executable(t *testing.T) {
	g, err := Open(writeFile(t, "homebrew.dol", []byte{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if !g.IsValid() || g.GameID != "" || g.Platform != Executable || g.NetPlayName() != "homebrew" {
		t.Errorf("got %+v", g)
	}
}

func TestOpen_Unsupported(t *testing.T) {
	_, err := Open(writeFile(t, "notes.txt", []byte("hello")))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v", err)
	}

	_, err = Open(writeFile(t, "short.iso", []byte("GALE01")))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("truncated header err = %v", err)
	}
}

func TestOpen_ZIP(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if _, err := w.Create("readme.txt"); err != nil {
		t.Fatal(err)
	}
	fw, err := w.Create("games/melee.iso")
	if err != nil {
		t.Fatal(err)
	}
	if _, err = fw.Write(makeDiscHeader("GALE01", 0, 0, "Melee")); err != nil {
		t.Fatal(err)
	}
	if err = w.Close(); err != nil {
		t.Fatal(err)
	}

	path := writeFile(t, "melee.zip", buf.Bytes())
	g, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if g.GameID != "GALE01" || g.Path != path || g.FileName != "melee.iso" {
		t.Errorf("got %+v", g)
	}
}

func TestOpen_ZIPWithoutGame(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if _, err := w.Create("readme.txt"); err != nil {
		t.Fatal(err)
	}
	_ = w.Close()

	if _, err := Open(writeFile(t, "empty.zip", buf.Bytes())); !errors.Is(err, ErrNoGameFile) {
		t.Errorf("err = %v", err)
	}
}

func TestOpen_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, _ = gw.Write(makeDiscHeader("GZLE01", 0, 0, "Wind Waker"))
	_ = gw.Close()

	g, err := Open(writeFile(t, "windwaker.iso.gz", buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if g.GameID != "GZLE01" || g.FileName != "windwaker.iso" {
		t.Errorf("got %+v", g)
	}
}

func TestSyncIdentifier_Compare(t *testing.T) {
	base := SyncIdentifier{GameID: "GALE01", Revision: 2, DiscNumber: 0, Digest: [20]byte{1}}

	tests := []struct {
		name  string
		other SyncIdentifier
		want  Comparison
	}{
		{"same", base, SameGame},
		{"game", SyncIdentifier{GameID: "GZLE01", Revision: 2, Digest: [20]byte{1}}, DifferentGame},
		{"maker", SyncIdentifier{GameID: "GALE8P", Revision: 2, Digest: [20]byte{1}}, DifferentGame},
		{"region", SyncIdentifier{GameID: "GALP01", Revision: 2, Digest: [20]byte{1}}, DifferentRegion},
		{"revision", SyncIdentifier{GameID: "GALE01", Revision: 1, Digest: [20]byte{1}}, DifferentRevision},
		{"disc", SyncIdentifier{GameID: "GALE01", Revision: 2, DiscNumber: 1, Digest: [20]byte{1}}, DifferentDiscNumber},
		{"hash", SyncIdentifier{GameID: "GALE01", Revision: 2, Digest: [20]byte{2}}, DifferentHash},
		{"short ids", SyncIdentifier{GameID: "", Revision: 2, Digest: [20]byte{1}}, DifferentGame},
	}
	for _, tt := range tests {
		if got := base.Compare(tt.other); got != tt.want {
			t.Errorf("%s: Compare = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSyncIdentifier_SameFileSameIdentity(t *testing.T) {
	header := makeDiscHeader("GALE01", 0, 0, "Melee")
	a, err := Open(writeFile(t, "a.iso", header))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Open(writeFile(t, "b.gcm", header))
	if err != nil {
		t.Fatal(err)
	}
	if c := a.SyncIdentifier().Compare(b.SyncIdentifier()); c != SameGame {
		t.Errorf("compare = %v", c)
	}
	if a.SyncIdentifier().IsZero() {
		t.Error("zero identifier")
	}
}
