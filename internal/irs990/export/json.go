package export

import (
	"archive/zip"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/irs990-lake/internal/irs990"
)

// WriteJSONZip writes the nested tree form of filings as a JSON array in a
// single deflated zip member.
func WriteJSONZip(w io.Writer, filings []irs990.Filing) error {
	zw := zip.NewWriter(w)

	fw, err := zw.CreateHeader(&zip.FileHeader{Name: ReturnsJSON, Method: zip.Deflate})
	if err != nil {
		return eris.Wrapf(err, "export: create %s", ReturnsJSON)
	}
	if filings == nil {
		filings = []irs990.Filing{}
	}
	if err := json.NewEncoder(fw).Encode(filings); err != nil {
		return eris.Wrapf(err, "export: encode %s", ReturnsJSON)
	}

	return eris.Wrap(zw.Close(), "export: close json zip")
}
