package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/irs990-lake/internal/irs990"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Print the field candidate tables as YAML",
	Long:  "Prints, for every canonical field, the ordered list of schema-variant locations tried during extraction.",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(irs990.CurrentSchema()); err != nil {
			return eris.Wrap(err, "fields: encode")
		}
		return eris.Wrap(enc.Close(), "fields: flush")
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
