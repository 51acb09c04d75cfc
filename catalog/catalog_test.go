package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/studiophone/flyer"
)

func TestDefaultCatalogCoversAllKeys(t *testing.T) {
	c := Default()
	for _, b := range flyer.Brands {
		if len(c.Models(b)) == 0 {
			t.Fatalf("品牌 %s 没有型号", b)
		}
	}
	for _, th := range flyer.Themes {
		if c.ThemeLogo(th) == "" {
			t.Fatalf("主题 %s 缺少 logo", th)
		}
	}
	if c.Background(flyer.ThemeChristmas) == "" {
		t.Fatalf("圣诞主题应有背景照片")
	}
	if c.Background(flyer.ThemeBlackFriday) != "" {
		t.Fatalf("黑五主题为纯色背景，不应有照片")
	}
}

func TestModelLookup(t *testing.T) {
	c := Default()
	m, ok := c.Model(flyer.BrandXiaomi, "Redmi Note 13")
	if !ok {
		t.Fatalf("找不到 Redmi Note 13")
	}
	if m.Memories[0] != "128GB / 6GB RAM" {
		t.Fatalf("首个内存选项错误: %q", m.Memories[0])
	}
	if !m.HasMemory("256GB / 8GB RAM") || m.HasMemory("1TB") {
		t.Fatalf("HasMemory 判断错误")
	}
	if _, ok := c.Model(flyer.BrandApple, "Redmi Note 13"); ok {
		t.Fatalf("跨品牌查找不应命中")
	}
	if _, ok := c.Model(flyer.BrandApple, ""); ok {
		t.Fatalf("空型号不应命中")
	}
}

func TestParseRejectsMissingTheme(t *testing.T) {
	doc := `
brands:
  Xiaomi: {}
  Apple: {}
themes:
  black_friday: {logo: x.png}
installments: {min: 2, max: 18}
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("缺少 christmas 主题应报错")
	}
}

func TestLoadFallsBackToDefault(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("不存在的文件应回退到内置目录: %v", err)
	}
	if len(c.PaymentConditions) != 4 {
		t.Fatalf("支付条件数量错误: %d", len(c.PaymentConditions))
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("brands: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("损坏的目录应报错")
	}
}
