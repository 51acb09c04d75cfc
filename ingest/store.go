package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// ErrNotLoaded 表示图片尚未加载到 Store。
var ErrNotLoaded = errors.New("图片尚未加载")

// Outcome 是单个来源的加载结果。
type Outcome struct {
	Source string
	Err    error
}

// Store 缓存已解码的图片，可并发预加载。
type Store struct {
	loader Loader
	limit  int
	log    zerolog.Logger

	mu     sync.RWMutex
	images map[string]image.Image
}

// NewStore 创建图片缓存；concurrency 小于 1 时为 4。
func NewStore(loader Loader, concurrency int, log zerolog.Logger) *Store {
	if concurrency < 1 {
		concurrency = 4
	}
	return &Store{loader: loader, limit: concurrency, log: log, images: map[string]image.Image{}}
}

// Image 返回已缓存的图片。
func (s *Store) Image(src string) (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if img, ok := s.images[src]; ok {
		return img, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotLoaded, abbreviate(src))
}

// Load 读取并解码图片，结果写入缓存。
func (s *Store) Load(ctx context.Context, src string) (image.Image, error) {
	if img, err := s.Image(src); err == nil {
		return img, nil
	}
	data, err := s.loader.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", abbreviate(src), err)
	}
	s.mu.Lock()
	s.images[src] = img
	s.mu.Unlock()
	s.log.Debug().Str("src", abbreviate(src)).Str("format", format).
		Int("width", img.Bounds().Dx()).Int("height", img.Bounds().Dy()).Msg("图片已解码")
	return img, nil
}

// Preload 并发加载全部来源，每个来源完成后调用一次 done（并发调用，无顺序保证）。
// 单个来源失败不影响其他来源；返回值汇总所有失败。
func (s *Store) Preload(ctx context.Context, sources []string, done func(Outcome)) error {
	var g errgroup.Group
	g.SetLimit(s.limit)

	var (
		mu   sync.Mutex
		errs []error
	)
	seen := map[string]bool{}
	for _, src := range sources {
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		g.Go(func() error {
			_, err := s.Load(ctx, src)
			if err != nil {
				s.log.Warn().Err(err).Str("src", abbreviate(src)).Msg("图片加载失败")
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			if done != nil {
				done(Outcome{Source: src, Err: err})
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// abbreviate 截短 data URL，避免把整段 base64 写进日志和错误信息。
func abbreviate(src string) string {
	if IsDataURL(src) && len(src) > 48 {
		return src[:48] + "…"
	}
	return src
}
