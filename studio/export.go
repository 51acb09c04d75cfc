package studio

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/ByLCY/studiophone/ingest"
	"github.com/ByLCY/studiophone/layout"
	"github.com/ByLCY/studiophone/renderer"
)

// Sources 返回当前合成需要的全部图片来源：被跟踪的槽位以及主题装饰图片。
func (s *Session) Sources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, src := range []string{
		layout.ProductImage(s.cfg, s.cat),
		s.cfg.Logo,
		s.cat.ThemeLogo(s.cfg.Theme),
		s.cat.Background(s.cfg.Theme),
	} {
		if src != "" {
			out = append(out, src)
		}
	}
	return out
}

// Preload 并发加载当前图片来源，成功的来源标记为已加载。
// 部分失败时返回合并后的错误，已成功的来源仍然生效。
func (s *Session) Preload(ctx context.Context) error {
	if s.images == nil {
		return errors.New("未配置图片缓存")
	}
	return s.images.Preload(ctx, s.Sources(), func(o ingest.Outcome) {
		if o.Err == nil {
			s.MarkImageLoaded(o.Source)
		}
	})
}

// WithAnimationsSuppressed 在 fn 执行期间关闭动画，结束后恢复原值；
// fn 返回错误或 panic 时同样恢复。期间若有人重新打开了动画，以那次修改为准。
func (s *Session) WithAnimationsSuppressed(fn func() error) error {
	s.mu.Lock()
	prev := s.cfg.EnableAnimations
	s.cfg.EnableAnimations = false
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if !s.cfg.EnableAnimations {
			s.cfg.EnableAnimations = prev
		}
		s.mu.Unlock()
	}()
	return fn()
}

// Export 预加载图片后在关闭动画的状态下合成并渲染，返回 PNG 字节。
// 预加载失败不中断导出：未加载的图片保持 pending，不会出现在输出中。
func (s *Session) Export(ctx context.Context, r renderer.Renderer) ([]byte, error) {
	if r == nil {
		return nil, errors.New("未配置渲染器")
	}
	if s.images != nil {
		if err := s.Preload(ctx); err != nil {
			s.log.Warn().Err(err).Msg("部分图片加载失败")
		}
	}
	var out []byte
	err := s.WithAnimationsSuppressed(func() error {
		res, err := s.Compose()
		if err != nil {
			return fmt.Errorf("合成失败: %w", err)
		}
		out, err = r.Render(res)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Msg(MsgExportFailed)
		return nil, err
	}
	s.log.Info().Str("size", humanize.Bytes(uint64(len(out)))).Msg("导出完成")
	return out, nil
}
