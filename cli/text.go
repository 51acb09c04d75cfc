package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var captionCmd = &cobra.Command{
	Use:   "caption <script>",
	Short: "Gera a legenda para Instagram Stories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context(), args[0], 0, true)
		if err != nil {
			return err
		}
		res := <-ws.session.RequestCaption(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		return nil
	},
}

var specsCmd = &cobra.Command{
	Use:   "specs <script>",
	Short: "Gera as especificações técnicas do modelo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context(), args[0], 0, true)
		if err != nil {
			return err
		}
		res := <-ws.session.RequestSpecs(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(captionCmd, specsCmd)
}
