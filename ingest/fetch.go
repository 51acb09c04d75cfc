package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// MaxImageBytes 限制单张图片大小。
const MaxImageBytes = 20 << 20

// Loader 按来源读取原始字节。
type Loader interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// Fetcher 读取 data URL、http(s) 地址与本地文件。
type Fetcher struct {
	Client    *http.Client
	UserAgent string
	// BaseDir 用于解析相对路径。
	BaseDir string
	Logger  zerolog.Logger
}

// NewFetcher 创建带超时的 Fetcher。
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		Logger:    zerolog.Nop(),
	}
}

// Fetch 按来源类型读取字节。
func (f *Fetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	switch {
	case src == "":
		return nil, fmt.Errorf("图片来源为空")
	case IsDataURL(src):
		_, data, err := DecodeDataURL(src)
		return data, err
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return f.fetchHTTP(ctx, src)
	default:
		path := strings.TrimPrefix(src, "file://")
		if !filepath.IsAbs(path) && f.BaseDir != "" {
			path = filepath.Join(f.BaseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取图片 %s 失败: %w", src, err)
		}
		return data, nil
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("下载 %s 失败: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("下载 %s 失败: HTTP %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("读取 %s 响应失败: %w", url, err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("图片 %s 超过 %s", url, humanize.IBytes(MaxImageBytes))
	}
	f.Logger.Debug().
		Str("url", url).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Dur("elapsed", time.Since(start)).
		Msg("图片已下载")
	return data, nil
}
