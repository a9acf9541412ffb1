package irs990

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePartition(t *testing.T) {
	p, err := ParsePartition("990data/raw/download990xml_2019_12.zip")
	require.NoError(t, err)
	assert.Equal(t, Partition{Year: 2019, Part: 12}, p)
	assert.Equal(t, "download990xml_2019_12.zip", ArchiveName(p))
}

func TestParsePartition_Invalid(t *testing.T) {
	for _, name := range []string{"download990xml_2019.zip", "IRS990_csv_2019_part_1.zip", "download990xml_19_1.zip", "download990xml_2019_1.zip.part"} {
		_, err := ParsePartition(name)
		assert.Error(t, err, name)
	}
}
