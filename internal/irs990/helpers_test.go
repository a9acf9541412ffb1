package irs990

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func mustRoot(t *testing.T, xml string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xml))
	require.NotNil(t, doc.Root())
	return doc.Root()
}

// modern990 follows the 2013+ e-file schema.
const modern990 = `<?xml version="1.0" encoding="utf-8"?>
<Return xmlns="http://www.irs.gov/efile" returnVersion="2018v3.1">
  <ReturnHeader>
    <ReturnTypeCd>990</ReturnTypeCd>
    <TaxYr>2018</TaxYr>
    <Filer>
      <EIN>123456789</EIN>
      <BusinessName>
        <BusinessNameLine1Txt>Friends of the Library</BusinessNameLine1Txt>
        <BusinessNameLine2Txt>of Springfield</BusinessNameLine2Txt>
      </BusinessName>
      <USAddress>
        <AddressLine1Txt>123 Main St</AddressLine1Txt>
        <CityNm>Springfield</CityNm>
        <StateAbbreviationCd>IL</StateAbbreviationCd>
        <ZIPCd>62701</ZIPCd>
      </USAddress>
    </Filer>
    <PreparerFirmGrp>
      <PreparerFirmName>
        <BusinessNameLine1Txt>Smith CPA LLC</BusinessNameLine1Txt>
      </PreparerFirmName>
      <PreparerUSAddress>
        <AddressLine1Txt>9 Elm Ave</AddressLine1Txt>
        <CityNm>Peoria</CityNm>
      </PreparerUSAddress>
    </PreparerFirmGrp>
    <BusinessOfficerGrp>
      <PersonNm>Header Person</PersonNm>
      <PersonTitleTxt>Treasurer</PersonTitleTxt>
    </BusinessOfficerGrp>
  </ReturnHeader>
  <ReturnData>
    <IRS990>
      <Form990PartVIISectionAGrp>
        <PersonNm>Alice Able</PersonNm>
        <TitleTxt>President</TitleTxt>
      </Form990PartVIISectionAGrp>
      <Form990PartVIISectionAGrp>
        <PersonNm>Bob Baker</PersonNm>
        <TitleTxt>Secretary</TitleTxt>
      </Form990PartVIISectionAGrp>
    </IRS990>
    <IRS990ScheduleI>
      <RecipientTable>
        <GrantOrContributionPdDurYrGrp>
          <RecipientBusinessName>
            <BusinessNameLine1Txt>Springfield Schools</BusinessNameLine1Txt>
            <BusinessNameLine2Txt>Foundation</BusinessNameLine2Txt>
          </RecipientBusinessName>
          <RecipientUSAddress>
            <AddressLine1Txt>1 School Rd</AddressLine1Txt>
            <CityNm>Springfield</CityNm>
          </RecipientUSAddress>
          <Amt>5000</Amt>
          <GrantOrContributionPurposeTxt>Literacy program</GrantOrContributionPurposeTxt>
        </GrantOrContributionPdDurYrGrp>
      </RecipientTable>
    </IRS990ScheduleI>
    <IRS990ScheduleI>
      <GrantOrContributionPdDurYrGrp>
        <RecipientPersonNm>Carol Clark</RecipientPersonNm>
        <Amt>250</Amt>
        <PurposeDetail>
          <GrantOrContributionPurposeTxt>Scholarship</GrantOrContributionPurposeTxt>
        </PurposeDetail>
      </GrantOrContributionPdDurYrGrp>
    </IRS990ScheduleI>
  </ReturnData>
</Return>`

// legacy990 follows the pre-2013 e-file schema.
const legacy990 = `<?xml version="1.0" encoding="utf-8"?>
<Return xmlns="http://www.irs.gov/efile" returnVersion="2011v1.2">
  <ReturnHeader>
    <ReturnType>990EZ</ReturnType>
    <TaxYear>2011</TaxYear>
    <Filer>
      <EIN>987654321</EIN>
      <Name>
        <BusinessNameLine1>Old Town Garden Club</BusinessNameLine1>
      </Name>
    </Filer>
    <Preparer>
      <PreparerFirmBusinessName>
        <BusinessNameLine1>Jones &amp; Co</BusinessNameLine1>
      </PreparerFirmBusinessName>
      <PreparerFirmUSAddress>
        <AddressLine1>77 Oak St</AddressLine1>
        <City>Salem</City>
      </PreparerFirmUSAddress>
    </Preparer>
    <Officer>
      <Name>Dana Dell</Name>
      <Title>Director</Title>
    </Officer>
  </ReturnHeader>
  <ReturnData>
    <IRS990EZ>
      <OfficerDirectorTrusteeEmplGrp>
        <PersonName>Evan Ellis</PersonName>
        <Title>Chair</Title>
        <USAddress>
          <AddressLine1>5 Pine Ln</AddressLine1>
          <City>Salem</City>
        </USAddress>
      </OfficerDirectorTrusteeEmplGrp>
    </IRS990EZ>
  </ReturnData>
</Return>`
