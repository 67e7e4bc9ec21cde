package source

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var errTableNotFound = errors.New("table not found")

// Archive is a discovered dataset source: either a zip archive or a
// directory tree containing the three CSV tables.
type Archive struct {
	Path string

	zr       *zip.ReadCloser
	zipFiles map[Table]*zip.File
	files    map[Table]string
	stats    map[Table]TableStat

	modTimeNs int64
	size      int64
}

// TableStat is the on-disk identity of one table: its file path (or entry
// name inside a zip archive), modification time and size.
type TableStat struct {
	Table   Table
	Name    string
	MtimeNs int64
	Size    int64
}

// Discover opens path and locates sessions.csv, tutorials.csv and tags.csv.
// Tables are matched by base name anywhere in the tree; macOS resource fork
// entries are skipped. The first match of each table wins.
func Discover(p string) (*Archive, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, &SourceUnavailableError{Path: p, Err: err}
	}

	a := &Archive{Path: p, stats: make(map[Table]TableStat)}
	if info.IsDir() {
		err = a.scanDir()
	} else {
		a.modTimeNs = info.ModTime().UnixNano()
		a.size = info.Size()
		err = a.scanZip()
	}
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	for _, t := range Tables {
		if !a.has(t) {
			_ = a.Close()
			return nil, &SourceUnavailableError{Path: p, Table: t, Err: errTableNotFound}
		}
	}
	return a, nil
}

func (a *Archive) scanDir() error {
	a.files = make(map[Table]string)

	err := filepath.WalkDir(a.Path, func(fp string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}
		if d.IsDir() {
			if d.Name() == "__MACOSX" {
				return filepath.SkipDir
			}
			return nil
		}
		t, ok := tableForName(d.Name())
		if !ok {
			return nil
		}
		if _, seen := a.files[t]; seen {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // a vanished file is reported as missing later
		}
		a.files[t] = fp
		mt := info.ModTime().UnixNano()
		a.stats[t] = TableStat{Table: t, Name: fp, MtimeNs: mt, Size: info.Size()}
		if mt > a.modTimeNs {
			a.modTimeNs = mt
		}
		a.size += info.Size()
		return nil
	})
	if err != nil {
		return &SourceUnavailableError{Path: a.Path, Err: err}
	}
	return nil
}

func (a *Archive) scanZip() error {
	zr, err := zip.OpenReader(a.Path)
	if err != nil {
		return &SourceUnavailableError{Path: a.Path, Err: err}
	}
	a.zr = zr
	a.zipFiles = make(map[Table]*zip.File)

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		t, ok := tableForName(path.Base(f.Name))
		if !ok {
			continue
		}
		if _, seen := a.zipFiles[t]; !seen {
			a.zipFiles[t] = f
			a.stats[t] = TableStat{
				Table:   t,
				Name:    f.Name,
				MtimeNs: f.Modified.UnixNano(),
				Size:    int64(f.UncompressedSize64), //nolint:gosec // entry sizes fit in int64
			}
		}
	}
	return nil
}

func tableForName(name string) (Table, bool) {
	for _, t := range Tables {
		if name == t.FileName() {
			return t, true
		}
	}
	return "", false
}

func (a *Archive) has(t Table) bool {
	if a.zr != nil {
		_, ok := a.zipFiles[t]
		return ok
	}
	_, ok := a.files[t]
	return ok
}

// Open returns a reader over the raw CSV bytes of t. Distinct tables may be
// read concurrently.
func (a *Archive) Open(t Table) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	switch {
	case a.zr != nil && a.zipFiles[t] != nil:
		rc, err = a.zipFiles[t].Open()
	case a.files[t] != "":
		rc, err = os.Open(a.files[t])
	default:
		err = errTableNotFound
	}
	if err != nil {
		return nil, &SourceUnavailableError{Path: a.Path, Table: t, Err: err}
	}
	return rc, nil
}

// Fingerprint returns the modification time (ns) and byte size of the
// source as a whole. For a directory source it is the newest table mtime
// and the summed table sizes; see TableStats for per-table identity.
func (a *Archive) Fingerprint() (int64, int64) {
	return a.modTimeNs, a.size
}

// TableStats returns the identity of each table in Tables order. A cached
// copy is current only while every table is unchanged.
func (a *Archive) TableStats() []TableStat {
	out := make([]TableStat, 0, len(Tables))
	for _, t := range Tables {
		if st, ok := a.stats[t]; ok {
			out = append(out, st)
		}
	}
	return out
}

// Close releases the underlying zip reader, if any.
func (a *Archive) Close() error {
	if a.zr == nil {
		return nil
	}
	err := a.zr.Close()
	a.zr = nil
	return err
}
