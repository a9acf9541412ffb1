package lake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYears(t *testing.T) {
	tests := []struct {
		input   string
		want    []int
		wantErr bool
	}{
		{input: "", want: nil},
		{input: "2019", want: []int{2019}},
		{input: "2020, 2018", want: []int{2018, 2020}},
		{input: "2017-2019", want: []int{2017, 2018, 2019}},
		{input: "2019,2018-2019", want: []int{2018, 2019}},
		{input: "2019-2017", wantErr: true},
		{input: "19", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "2019,", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseYears(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestYearRange(t *testing.T) {
	assert.Equal(t, []int{2015, 2016, 2017}, YearRange(2015, 2017))
	assert.Nil(t, YearRange(2018, 2017))
}
