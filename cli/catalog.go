package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/studiophone/catalog"
	"github.com/ByLCY/studiophone/fonts"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "列出品牌、型号、主题与可选项",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(cfg.Catalog)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(struct {
			catalog.Catalog `yaml:",inline"`
			Fonts           []string `yaml:"fonts"`
		}{*cat, fonts.Names()})
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
