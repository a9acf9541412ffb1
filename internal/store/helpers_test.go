package store

import (
	"github.com/sells-group/irs990-lake/internal/irs990"
	"go.uber.org/zap"
)

func init() {
	// Replace global logger with a no-op to avoid nil pointer panics in tests.
	zap.ReplaceGlobals(zap.NewNop())
}

var testPartition = irs990.Partition{Year: 2019, Part: 2}

func testTables() irs990.Tables {
	return irs990.Tables{
		Returns: []irs990.Return{
			{DocumentID: "a_public.xml", ReturnType: irs990.Present("990"), EIN: irs990.Present("123456789")},
			{DocumentID: "b_public.xml", ReturnType: irs990.Present("990PF")},
		},
		Officers: []irs990.Officer{
			{DocumentID: "a_public.xml", Name: irs990.Present("Alice Able"), Title: irs990.Present("President"), Address: irs990.Present("")},
		},
		Grants: []irs990.Grant{
			{DocumentID: "b_public.xml", RecipientName: irs990.Present("Food Bank"), Amount: irs990.Present("2500")},
		},
	}
}
