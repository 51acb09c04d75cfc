package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ByLCY/studiophone/catalog"
	"github.com/ByLCY/studiophone/dsl"
	"github.com/ByLCY/studiophone/ingest"
	"github.com/ByLCY/studiophone/pricing"
	canvasrenderer "github.com/ByLCY/studiophone/renderer/canvas"
	"github.com/ByLCY/studiophone/studio"
	"github.com/ByLCY/studiophone/textgen"
)

// workspace 是一次命令执行所需的会话与渲染器。
type workspace struct {
	session  *studio.Session
	renderer *canvasrenderer.Renderer
}

// loadScript 解析脚本，返回文档与脚本所在目录。
func loadScript(path string) (*dsl.Document, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("无法打开脚本 %s: %w", path, err)
	}
	defer f.Close()
	doc, err := dsl.Parse(f)
	if err != nil {
		return nil, "", fmt.Errorf("解析脚本失败: %w", err)
	}
	return doc, filepath.Dir(path), nil
}

// openWorkspace 按配置组装会话并回放脚本。withText 为 false 时不创建文案后端。
func openWorkspace(ctx context.Context, scriptPath string, scale float64, withText bool) (*workspace, error) {
	doc, baseDir, err := loadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	fetchTimeout, _ := cfg.FetchTimeout()
	fetcher := ingest.NewFetcher(fetchTimeout, cfg.Fetch.UserAgent)
	fetcher.BaseDir = baseDir
	fetcher.Logger = log
	store := ingest.NewStore(fetcher, cfg.Fetch.Concurrency, log)

	if scale <= 0 {
		scale = cfg.Export.Scale
	}
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		Scale:  scale,
		Images: store,
		Logger: &log,
	})

	var text *textgen.Client
	if withText {
		timeout, _ := cfg.TextGenTimeout()
		text = textgen.FromEnv(ctx, cfg.TextGen.APIKeyEnv, cfg.TextGen.Model, textgen.Options{
			Timeout:       timeout,
			CaptionPrompt: cfg.TextGen.CaptionPrompt,
			SpecsPrompt:   cfg.TextGen.SpecsPrompt,
			Logger:        &log,
		})
	}

	s := studio.New(studio.Options{
		Catalog:    cat,
		Typesetter: r,
		Images:     store,
		Text:       text,
		Formatter:  pricing.NewFormatter(cfg.Locale),
		Calculator: pricing.Calculator{Markers: cfg.InstallmentMarkers},
		Currency:   cfg.Currency,
		Logger:     &log,
	})
	if err := s.ApplyScript(doc, baseDir); err != nil {
		return nil, err
	}
	return &workspace{session: s, renderer: r}, nil
}
