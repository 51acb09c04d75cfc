package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ByLCY/studiophone/studio"
)

var (
	exportOut   string
	exportScale float64
)

var exportCmd = &cobra.Command{
	Use:   "export <script>",
	Short: "Exporta o story como PNG",
	Long: `按脚本合成海报并导出 PNG。

导出前会等待所有图片加载完成，并在导出期间关闭动画。`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "输出文件（默认取配置 export.file）")
	exportCmd.Flags().Float64Var(&exportScale, "scale", 0, "像素比（默认取配置 export.scale）")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd.Context(), args[0], exportScale, false)
	if err != nil {
		return err
	}
	data, err := ws.session.Export(cmd.Context(), ws.renderer)
	if err != nil {
		return fmt.Errorf("%s %w", studio.MsgExportFailed, err)
	}

	out := exportOut
	if out == "" {
		out = cfg.Export.File
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("%s 写入 %s 失败: %w", studio.MsgExportFailed, out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已导出 %s（%s）\n", out, humanize.Bytes(uint64(len(data))))
	return nil
}
