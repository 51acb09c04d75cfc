// Package config 读取应用配置。文件不存在时返回默认值；扩展名为 .toml 时按 TOML 解析，否则按 YAML。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/studiophone/binding"
)

const defaultConfigFile = "studiophone.yml"

// Config is the top-level application configuration.
type Config struct {
	Locale   string `yaml:"locale" toml:"locale"`
	Currency string `yaml:"currency" toml:"currency"`
	// Catalog 为空时使用内置目录。
	Catalog string `yaml:"catalog" toml:"catalog"`
	// InstallmentMarkers 覆盖判定分期的标记词。
	InstallmentMarkers []string `yaml:"installment_markers" toml:"installment_markers"`

	Export  ExportConfig  `yaml:"export" toml:"export"`
	TextGen TextGenConfig `yaml:"textgen" toml:"textgen"`
	Fetch   FetchConfig   `yaml:"fetch" toml:"fetch"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

// ExportConfig 控制 PNG 导出。
type ExportConfig struct {
	File  string  `yaml:"file" toml:"file"`
	Scale float64 `yaml:"scale" toml:"scale"`
}

// TextGenConfig 控制文案生成。Timeout 写作 "30s" 之类的时长。
type TextGenConfig struct {
	Model         string `yaml:"model" toml:"model"`
	APIKeyEnv     string `yaml:"api_key_env" toml:"api_key_env"`
	Timeout       string `yaml:"timeout" toml:"timeout"`
	CaptionPrompt string `yaml:"caption_prompt" toml:"caption_prompt"`
	SpecsPrompt   string `yaml:"specs_prompt" toml:"specs_prompt"`
}

// FetchConfig 控制远程图片下载。
type FetchConfig struct {
	Timeout     string `yaml:"timeout" toml:"timeout"`
	Concurrency int    `yaml:"concurrency" toml:"concurrency"`
	UserAgent   string `yaml:"user_agent" toml:"user_agent"`
}

// LogConfig 控制日志级别与输出格式。
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	JSON  bool   `yaml:"json" toml:"json"`
}

// Load reads configuration from a YAML or TOML file.
// If path is empty, it tries the default file.
// Returns defaults if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return nil, err
	}

	cfg := Defaults()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("解析配置 %s 失败: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置 %s 无效: %w", path, err)
	}
	return cfg, nil
}

// Defaults 返回默认配置。
func Defaults() *Config {
	return &Config{
		Locale:   "pt-BR",
		Currency: "R$",
		Export: ExportConfig{
			File:  "studio-phone-oferta.png",
			Scale: 2,
		},
		TextGen: TextGenConfig{
			Model:     "gemini-2.5-flash",
			APIKeyEnv: "API_KEY",
			Timeout:   "30s",
		},
		Fetch: FetchConfig{
			Timeout:     "15s",
			Concurrency: 4,
			UserAgent:   "studiophone/1.0",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Validate 检查取值范围。
func (c *Config) Validate() error {
	var errs []error
	if c.Export.Scale <= 0 {
		errs = append(errs, fmt.Errorf("export.scale 必须大于 0，当前为 %g", c.Export.Scale))
	}
	if c.Export.File == "" {
		errs = append(errs, errors.New("export.file 不能为空"))
	}
	if _, err := language.Parse(c.Locale); err != nil {
		errs = append(errs, fmt.Errorf("locale %q 无法识别: %w", c.Locale, err))
	}
	if _, err := c.TextGenTimeout(); err != nil {
		errs = append(errs, fmt.Errorf("textgen.timeout: %w", err))
	}
	if _, err := c.FetchTimeout(); err != nil {
		errs = append(errs, fmt.Errorf("fetch.timeout: %w", err))
	}
	if c.Fetch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("fetch.concurrency 必须至少为 1，当前为 %d", c.Fetch.Concurrency))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if err := checkPrompt(c.TextGen.CaptionPrompt, CaptionPromptVars); err != nil {
		errs = append(errs, fmt.Errorf("textgen.caption_prompt: %w", err))
	}
	if err := checkPrompt(c.TextGen.SpecsPrompt, SpecsPromptVars); err != nil {
		errs = append(errs, fmt.Errorf("textgen.specs_prompt: %w", err))
	}
	return errors.Join(errs...)
}

// TextGenTimeout 解析 textgen.timeout；数字按秒处理。
func (c *Config) TextGenTimeout() (time.Duration, error) {
	return parseDuration(c.TextGen.Timeout)
}

// FetchTimeout 解析 fetch.timeout；数字按秒处理。
func (c *Config) FetchTimeout() (time.Duration, error) {
	return parseDuration(c.Fetch.Timeout)
}

// LogLevel 解析 log.level，空值为 info。
func (c *Config) LogLevel() (zerolog.Level, error) {
	if c.Log.Level == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(c.Log.Level))
}

// CaptionPromptVars 与 SpecsPromptVars 是提示词模板可以引用的变量。
var (
	CaptionPromptVars = []string{"product", "price", "cta"}
	SpecsPromptVars   = []string{"product"}
)

// checkPrompt 要求自定义模板只引用 vars 中的变量（带默认值的除外），且必须引用 ${product}。
// 空模板表示使用内置提示词。
func checkPrompt(tmpl string, vars []string) error {
	if tmpl == "" {
		return nil
	}
	data := make(map[string]string, len(vars))
	for _, v := range vars {
		data[v] = v
	}
	if _, err := binding.InterpolateStrict(tmpl, data); err != nil {
		return fmt.Errorf("%w（可用变量：%s）", err, strings.Join(vars, ", "))
	}
	if !slices.Contains(binding.Placeholders(tmpl), "product") {
		return errors.New("模板必须引用 ${product}")
	}
	return nil
}

func parseDuration(v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	n, err := cast.ToFloat64E(v)
	d := time.Duration(n * float64(time.Second))
	if err != nil {
		if d, err = cast.ToDurationE(v); err != nil {
			return 0, err
		}
	}
	if d < 0 {
		return 0, fmt.Errorf("时长不能为负: %s", v)
	}
	return d, nil
}
