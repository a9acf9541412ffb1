package lake

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/irs990-lake/internal/fetcher"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   "test-agent",
		Timeout:     5 * time.Second,
		MaxRetries:  1,
		RatePerSec:  1000,
		BaseBackoff: time.Millisecond,
	})
}

// zipBytes builds an in-memory archive with members written in name order.
func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeZip(t *testing.T, dir, name string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, zipBytes(t, files), 0o644))
	return path
}

const placeholderHTML = `<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 4.01//EN">
<html><head><title>IRS</title></head><body>Page Not Found</body></html>`

func filingXML(ein, name string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<Return xmlns="http://www.irs.gov/efile">
  <ReturnHeader>
    <ReturnTypeCd>990</ReturnTypeCd>
    <TaxYr>2019</TaxYr>
    <Filer>
      <EIN>` + ein + `</EIN>
      <BusinessName><BusinessNameLine1Txt>` + name + `</BusinessNameLine1Txt></BusinessName>
    </Filer>
  </ReturnHeader>
  <ReturnData>
    <IRS990>
      <Form990PartVIISectionAGrp>
        <PersonNm>Pat Chair</PersonNm>
        <TitleTxt>Chair</TitleTxt>
      </Form990PartVIISectionAGrp>
    </IRS990>
    <IRS990ScheduleI>
      <GrantOrContributionPdDurYrGrp>
        <RecipientPersonNm>Jo Scholar</RecipientPersonNm>
        <Amt>1500</Amt>
      </GrantOrContributionPdDurYrGrp>
    </IRS990ScheduleI>
  </ReturnData>
</Return>`
}
