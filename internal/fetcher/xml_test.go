package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseXMLDocument_Root(t *testing.T) {
	input := `<?xml version="1.0" encoding="utf-8"?>
<Return xmlns="http://www.irs.gov/efile" returnVersion="2019v5.1">
	<ReturnHeader><ReturnTypeCd>990</ReturnTypeCd></ReturnHeader>
</Return>`

	root, err := ParseXMLDocument(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "Return", root.Tag)

	hdr := root.SelectElement("ReturnHeader")
	require.NotNil(t, hdr)
	assert.Equal(t, "990", hdr.SelectElement("ReturnTypeCd").Text())
}

func TestParseXMLDocument_Latin1(t *testing.T) {
	input := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><Name>Caf\xe9</Name>"

	root, err := ParseXMLDocument(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "Café", root.Text())
}

func TestParseXMLDocument_UnsupportedCharset(t *testing.T) {
	input := `<?xml version="1.0" encoding="x-made-up"?><Name>x</Name>`

	_, err := ParseXMLDocument(strings.NewReader(input))
	require.Error(t, err)
}

func TestParseXMLDocument_Malformed(t *testing.T) {
	_, err := ParseXMLDocument(strings.NewReader(`<Return><Filer id=></Filer></Return>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml: parse document")
}

func TestParseXMLDocument_Empty(t *testing.T) {
	_, err := ParseXMLDocument(strings.NewReader(""))
	require.Error(t, err)
}
