// Package fonts 提供内置字体。字体数据来自 Go 字体家族，不依赖系统安装的字体。
package fonts

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
)

// Go 字体没有 Black 字重，display 样式使用 Bold。
var builtin = map[string][]byte{
	"regular": goregular.TTF,
	"medium":  gomedium.TTF,
	"bold":    gobold.TTF,
	"black":   gobold.TTF,
}

// Load 返回字体的字节数据。src 可写为 "embed:bold"（内置）或 "file:/path/to.ttf"（本地文件）。
func Load(src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "file:"):
		path := strings.TrimPrefix(src, "file:")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取字体文件 %s 失败: %w", path, err)
		}
		return data, nil
	default:
		name := strings.ToLower(strings.TrimPrefix(src, "embed:"))
		data, ok := builtin[name]
		if !ok {
			return nil, fmt.Errorf("未知的内置字体 %s", src)
		}
		return data, nil
	}
}

// Names 列出内置字体名。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for k := range builtin {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
