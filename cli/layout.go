package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ByLCY/studiophone/layout"
)

var (
	layoutOut     string
	layoutPreload bool
)

var layoutCmd = &cobra.Command{
	Use:   "layout <script>",
	Short: "输出合成后的图层树 JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayout,
}

func init() {
	layoutCmd.Flags().StringVarP(&layoutOut, "out", "o", "", "输出文件（默认标准输出）")
	layoutCmd.Flags().BoolVar(&layoutPreload, "preload", false, "合成前先加载图片；否则图片保持 pending")
	rootCmd.AddCommand(layoutCmd)
}

func runLayout(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd.Context(), args[0], 0, false)
	if err != nil {
		return err
	}
	if layoutPreload {
		if err := ws.session.Preload(cmd.Context()); err != nil {
			log.Warn().Err(err).Msg("部分图片加载失败")
		}
	}
	res, err := ws.session.Compose()
	if err != nil {
		return fmt.Errorf("合成失败: %w", err)
	}
	if layoutOut != "" {
		return layout.WriteDebugJSON(res, layoutOut)
	}
	return layout.EncodeDebugJSON(cmd.OutOrStdout(), res)
}
