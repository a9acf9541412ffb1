package fetcher

import (
	"io"

	"github.com/beevik/etree"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// ParseXMLDocument reads a whole XML document and returns its root element.
// Documents declaring a non-UTF-8 encoding are transcoded. An empty document
// is an error.
func ParseXMLDocument(r io.Reader) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader

	if _, err := doc.ReadFrom(r); err != nil {
		return nil, eris.Wrap(err, "xml: parse document")
	}

	root := doc.Root()
	if root == nil {
		return nil, eris.New("xml: document has no root element")
	}
	return root, nil
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "xml: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}
