package renderer

import "github.com/ByLCY/studiophone/layout"

// Renderer 将合成的图层树输出为最终文件，例如 PNG。
// Render 返回编码后的二进制数据以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}
