package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ByLCY/studiophone/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "把本地图片转换为 data URL",
	Long:  "按文件内容识别图片类型（不看扩展名），输出可直接写入脚本 logo/image 字段的 data URL。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := ingest.FileToDataURL(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
