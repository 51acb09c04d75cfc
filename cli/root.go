// Package cli 提供 studiophone 命令行：读取海报脚本，导出 PNG、调试图层树或生成文案。
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ByLCY/studiophone/config"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	log     = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "studiophone",
	Short: "Gerador de stories de oferta para smartphones",
	Long:  "studiophone 读取海报脚本，合成 9:16 的促销图并导出为 PNG，也可以借助 Gemini 生成文案。",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		level, _ := cfg.LogLevel() // Validate 已检查
		if verbose {
			level = zerolog.DebugLevel
		}
		log = newLogger(cfg.Log.JSON, level)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件（默认 studiophone.yml）")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
}

func newLogger(json bool, level zerolog.Level) zerolog.Logger {
	if json {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
