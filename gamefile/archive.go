package gamefile

import (
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

func fromArchive(path, member string, r io.Reader) (*GameFile, error) {
	g, err := identify(filepath.Base(member), r)
	if err != nil {
		return nil, fmt.Errorf("%s in %s: %w", member, filepath.Base(path), err)
	}
	g.Path = path
	return g, nil
}

func openZIP(path string) (*GameFile, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("gamefile: open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isGameFile(f.Name) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("gamefile: open %s in zip: %w", f.Name, err)
		}
		defer rc.Close()

		return fromArchive(path, f.Name, rc)
	}

	return nil, ErrNoGameFile
}

func open7z(path string) (*GameFile, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("gamefile: open 7z: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isGameFile(f.Name) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("gamefile: open %s in 7z: %w", f.Name, err)
		}
		defer rc.Close()

		return fromArchive(path, f.Name, rc)
	}

	return nil, ErrNoGameFile
}

func openRAR(path string) (*GameFile, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("gamefile: open rar: %w", err)
	}
	defer r.Close()

	for {
		header, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gamefile: read rar entry: %w", err)
		}

		if header.IsDir || !isGameFile(header.Name) {
			continue
		}
		return fromArchive(path, header.Name, r)
	}

	return nil, ErrNoGameFile
}

// openGzip treats the decompressed stream as the game file named by path
// without its .gz suffix.
func openGzip(path string, f *os.File) (*GameFile, error) {
	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("gamefile: open gzip: %w", err)
	}
	defer gr.Close()

	name := filepath.Base(path)
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		name = name[:len(name)-3]
	}
	if !isGameFile(name) {
		return nil, ErrNoGameFile
	}
	return fromArchive(path, name, gr)
}
