// Package ingest 把本地文件与远程地址转换为可嵌入海报的图片数据。
package ingest

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/h2non/filetype"
)

// ErrNotImage 表示输入不是可识别的图片，相当于文件选择器的 image/* 过滤。
var ErrNotImage = errors.New("不是图片文件")

// ErrBadDataURL 表示 data URL 格式错误。
var ErrBadDataURL = errors.New("data URL 格式错误")

const dataURLPrefix = "data:"

// IsDataURL 判断 src 是否为 data URL。
func IsDataURL(src string) bool {
	return strings.HasPrefix(src, dataURLPrefix)
}

// FileToDataURL 读取文件并编码为 base64 data URL，MIME 由文件内容判定而不是扩展名。
func FileToDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("读取文件 %s 失败: %w", path, err)
	}
	out, err := BytesToDataURL(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// BytesToDataURL 将图片字节编码为 data URL。
func BytesToDataURL(data []byte) (string, error) {
	mime, err := sniffImage(data)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURL 解析 data URL，返回 MIME 与原始字节。支持 base64 与未编码两种负载。
func DecodeDataURL(src string) (string, []byte, error) {
	if !IsDataURL(src) {
		return "", nil, ErrBadDataURL
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, dataURLPrefix), ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: 缺少逗号分隔", ErrBadDataURL)
	}
	params := strings.Split(meta, ";")
	mime := params[0]
	if mime == "" {
		mime = "text/plain"
	}
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(p, "base64") {
			isBase64 = true
		}
	}
	if !isBase64 {
		return mime, []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return mime, data, nil
}

func sniffImage(data []byte) (string, error) {
	if !filetype.IsImage(data) {
		return "", ErrNotImage
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return "", fmt.Errorf("识别文件类型失败: %w", err)
	}
	return kind.MIME.Value, nil
}
