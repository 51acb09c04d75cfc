// Package catalog 保存布局引擎只读使用的静态资源表：
// 品牌→型号→{展示名, 图片, 内存选项}，以及主题→Logo/背景。
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/studiophone/flyer"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ModelData 描述一个型号的展示名、目录图片与内存选项。
type ModelData struct {
	Name     string   `yaml:"name" json:"name"`
	Image    string   `yaml:"img" json:"img"`
	Memories []string `yaml:"memories" json:"memories"`
}

// ThemeAssets 是主题相关的图片资源。
type ThemeAssets struct {
	Logo       string `yaml:"logo" json:"logo"`
	Background string `yaml:"background,omitempty" json:"background,omitempty"`
}

// InstallmentRange 是允许选择的分期数范围（含两端）。
type InstallmentRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Catalog 是整个静态资源表。
type Catalog struct {
	Brands            map[string]map[string]ModelData `yaml:"brands" json:"brands"`
	Themes            map[string]ThemeAssets          `yaml:"themes" json:"themes"`
	PaymentConditions []string                        `yaml:"payment_conditions" json:"paymentConditions"`
	CTAOptions        []string                        `yaml:"cta_options" json:"ctaOptions"`
	Installments      InstallmentRange                `yaml:"installments" json:"installments"`
}

// Default 解析内置目录。内置文件损坏属于编程错误，直接 panic。
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("内置目录无效: %v", err))
	}
	return c
}

// Load 从文件读取目录；path 为空或文件不存在时返回内置目录。
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("读取目录文件 %s 失败: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析 YAML 目录并校验所有可达键都存在。
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("解析目录失败: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate 检查每个品牌与主题都有对应条目，每个型号至少有一个内存选项。
func (c *Catalog) Validate() error {
	for _, b := range flyer.Brands {
		models, ok := c.Brands[string(b)]
		if !ok {
			return fmt.Errorf("目录缺少品牌 %s", b)
		}
		for key, m := range models {
			if m.Name == "" {
				return fmt.Errorf("品牌 %s 的型号 %s 缺少 name", b, key)
			}
			if len(m.Memories) == 0 {
				return fmt.Errorf("型号 %s 缺少内存选项", key)
			}
		}
	}
	for _, th := range flyer.Themes {
		if assets, ok := c.Themes[string(th)]; !ok || assets.Logo == "" {
			return fmt.Errorf("目录缺少主题 %s 的 logo", th)
		}
	}
	if c.Installments.Min < 2 || c.Installments.Max < c.Installments.Min {
		return fmt.Errorf("分期范围无效: %d..%d", c.Installments.Min, c.Installments.Max)
	}
	return nil
}

// Model 查找 (brand, model)；model 为空或不存在时返回 false。
func (c *Catalog) Model(brand flyer.Brand, model string) (ModelData, bool) {
	if c == nil || model == "" {
		return ModelData{}, false
	}
	m, ok := c.Brands[string(brand)][model]
	return m, ok
}

// Models 返回品牌下的型号键，按字母排序。
func (c *Catalog) Models(brand flyer.Brand) []string {
	models := c.Brands[string(brand)]
	out := make([]string, 0, len(models))
	for k := range models {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Image 返回目录图片地址，未知型号返回空字符串。
func (c *Catalog) Image(brand flyer.Brand, model string) string {
	m, _ := c.Model(brand, model)
	return m.Image
}

// ThemeLogo 返回主题 logo 地址。
func (c *Catalog) ThemeLogo(theme flyer.Theme) string {
	return c.Themes[string(theme)].Logo
}

// Background 返回主题背景照片，无背景照片的主题返回空字符串。
func (c *Catalog) Background(theme flyer.Theme) string {
	return c.Themes[string(theme)].Background
}

// HasMemory 判断 memory 是否属于型号的内存选项。
func (m ModelData) HasMemory(memory string) bool {
	for _, v := range m.Memories {
		if v == memory {
			return true
		}
	}
	return false
}
