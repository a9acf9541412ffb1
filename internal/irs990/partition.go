package irs990

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/rotisserie/eris"
)

var archiveNameRe = regexp.MustCompile(`^download990xml_(\d{4})_(\d+)\.zip$`)

// ArchiveName returns the IRS file name of a partition's archive.
func ArchiveName(p Partition) string {
	return fmt.Sprintf("download990xml_%d_%d.zip", p.Year, p.Part)
}

// ParsePartition extracts the partition from an archive path such as
// "raw/download990xml_2019_2.zip".
func ParsePartition(path string) (Partition, error) {
	m := archiveNameRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return Partition{}, eris.Errorf("irs990: %q is not a download990xml archive name", filepath.Base(path))
	}
	year, _ := strconv.Atoi(m[1])
	part, err := strconv.Atoi(m[2])
	if err != nil {
		return Partition{}, eris.Wrapf(err, "irs990: parse part of %q", path)
	}
	return Partition{Year: year, Part: part}, nil
}
