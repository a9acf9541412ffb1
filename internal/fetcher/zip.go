package fetcher

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"sort"

	"github.com/rotisserie/eris"
)

// Archive is an opened ZIP archive whose members are visited in lexical
// name order.
type Archive struct {
	path    string
	r       *zip.ReadCloser
	members []*zip.File
}

// OpenArchive opens the ZIP at path and indexes its non-directory members.
func OpenArchive(path string) (*Archive, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, eris.Wrapf(err, "zip: open archive %s", path)
	}

	var members []*zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		members = append(members, f)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].Name < members[j].Name
	})

	return &Archive{path: path, r: r, members: members}, nil
}

// Path returns the archive's file path.
func (a *Archive) Path() string {
	return a.path
}

// Members returns member names in lexical order.
func (a *Archive) Members() []string {
	names := make([]string, len(a.members))
	for i, f := range a.members {
		names[i] = f.Name
	}
	return names
}

// Open opens the i-th member (in Members order). Safe for concurrent use.
func (a *Archive) Open(i int) (io.ReadCloser, error) {
	if i < 0 || i >= len(a.members) {
		return nil, eris.Errorf("zip: member index %d out of range", i)
	}
	rc, err := a.members[i].Open()
	if err != nil {
		return nil, eris.Wrapf(err, "zip: open entry %s", a.members[i].Name)
	}
	return rc, nil
}

// Close releases the archive.
func (a *Archive) Close() error {
	return a.r.Close()
}

var zipSignature = []byte("PK\x03\x04")

// IsPlaceholder reports whether the file at path is the HTML page the IRS
// serves in place of a missing archive rather than a ZIP.
func IsPlaceholder(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, eris.Wrap(err, "zip: open for sniff")
	}
	defer f.Close() //nolint:errcheck

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, eris.Wrap(err, "zip: read header")
	}
	return LooksLikePlaceholder(head[:n]), nil
}

// LooksLikePlaceholder reports whether the leading bytes of a download are
// an HTML page rather than a ZIP.
func LooksLikePlaceholder(head []byte) bool {
	if bytes.HasPrefix(head, zipSignature) {
		return false
	}
	return bytes.Contains(bytes.ToLower(head), []byte("html"))
}
