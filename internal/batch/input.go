package batch

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "harvestguard/internal/errors"
)

// Input is the tagged variant of everything a batch call accepts: raw
// bytes, a single file, a directory, a zip archive, or an explicit list
// of paths. It is resolved exactly once at batch entry into an ordered
// list of sources; scoring logic never type-switches on it.
type Input struct {
	kind  inputKind
	name  string
	data  []byte
	path  string
	paths []string
}

type inputKind int

const (
	kindBytes inputKind = iota
	kindPath
	kindList
)

// FromBytes wraps one in-memory image.
func FromBytes(name string, data []byte) Input {
	return Input{kind: kindBytes, name: name, data: data}
}

// FromPath wraps a filesystem path; whether it is a single image, a
// directory or a zip archive is resolved at batch entry.
func FromPath(path string) Input {
	return Input{kind: kindPath, path: path}
}

// FromList wraps an explicit list of image paths.
func FromList(paths []string) Input {
	return Input{kind: kindList, paths: paths}
}

// Source is one resolved image input.
type Source struct {
	Name string
	Path string
	Data []byte
}

// Read returns the raw image bytes for this source.
func (s *Source) Read() ([]byte, error) {
	if s.Data != nil {
		return s.Data, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to read image file", err)
	}
	return data, nil
}

// resolve normalizes an Input into sources sorted by filename for
// reproducible result ordering. The returned cleanup removes any scratch
// extraction directory and must run on every exit path.
func resolve(in Input) ([]Source, func(), error) {
	noop := func() {}

	switch in.kind {
	case kindBytes:
		name := in.name
		if name == "" {
			name = "upload"
		}
		return []Source{{Name: name, Data: in.data}}, noop, nil

	case kindList:
		sources := make([]Source, 0, len(in.paths))
		for _, p := range in.paths {
			sources = append(sources, Source{Name: filepath.Base(p), Path: p})
		}
		sortSources(sources)
		return sources, noop, nil

	case kindPath:
		info, err := os.Stat(in.path)
		if err != nil {
			return nil, noop, apperrors.NewValidationError("batch input path unreadable", err)
		}
		if info.IsDir() {
			sources, err := sourcesFromDir(in.path)
			return sources, noop, err
		}
		if isZipArchive(in.path) {
			return sourcesFromArchive(in.path)
		}
		return []Source{{Name: filepath.Base(in.path), Path: in.path}}, noop, nil
	}

	return nil, noop, apperrors.NewValidationError("unknown batch input kind", nil)
}

func sourcesFromDir(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.NewValidationError("failed to list batch directory", err)
	}
	var sources []Source
	for _, e := range entries {
		if e.IsDir() || !isImageName(e.Name()) {
			continue
		}
		sources = append(sources, Source{Name: e.Name(), Path: filepath.Join(dir, e.Name())})
	}
	sortSources(sources)
	return sources, nil
}

// sourcesFromArchive extracts a zip to a scratch directory. Extraction
// failures clean up anything partially written before returning.
func sourcesFromArchive(path string) ([]Source, func(), error) {
	noop := func() {}

	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, noop, apperrors.NewArchiveError("failed to open archive", err)
	}
	defer reader.Close()

	scratch, err := os.MkdirTemp("", "harvestguard-batch-*")
	if err != nil {
		return nil, noop, apperrors.NewArchiveError("failed to create scratch directory", err)
	}
	cleanup := func() { os.RemoveAll(scratch) }

	var sources []Source
	for _, f := range reader.File {
		if f.FileInfo().IsDir() || !isImageName(f.Name) {
			continue
		}
		name := filepath.Base(f.Name)
		dst := filepath.Join(scratch, name)
		if !strings.HasPrefix(dst, scratch+string(os.PathSeparator)) {
			cleanup()
			return nil, noop, apperrors.NewArchiveError(
				fmt.Sprintf("archive entry escapes extraction root: %s", f.Name), nil)
		}
		if err := extractEntry(f, dst); err != nil {
			cleanup()
			return nil, noop, apperrors.NewArchiveError(
				fmt.Sprintf("failed to extract %s", f.Name), err)
		}
		sources = append(sources, Source{Name: name, Path: dst})
	}

	sortSources(sources)
	return sources, cleanup, nil
}

func extractEntry(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

func isZipArchive(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, 4)
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}
	return bytes.Equal(header, []byte{'P', 'K', 0x03, 0x04})
}

func isImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func sortSources(sources []Source) {
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
}
