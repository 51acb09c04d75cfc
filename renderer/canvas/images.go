package canvasrenderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"

	"github.com/ByLCY/studiophone/layout"
)

// ImageSource 按来源返回已解码的图片。来源为 URL 或 data URL。
type ImageSource interface {
	Image(src string) (image.Image, error)
}

// drawImage 按 Fit 缩放后绘制。pending 图片完全透明，直接跳过；
// 未被跟踪的装饰图片（背景、主题 logo）解码失败时只记录警告。
func (r *Renderer) drawImage(ctx *canvas.Context, name string, box layout.ImageBox, opacity float64) error {
	if box.Src == "" || box.State == layout.ImagePending || box.Width <= 0 || box.Height <= 0 {
		return nil
	}
	opacity *= box.Opacity
	if opacity <= 0 {
		return nil
	}
	if r.images == nil {
		r.log.Warn().Str("layer", name).Msg("未配置图片来源，跳过图片图层")
		return nil
	}
	src, err := r.images.Image(box.Src)
	if err != nil {
		if box.State == layout.ImageLoaded {
			return fmt.Errorf("读取图片失败: %w", err)
		}
		r.log.Warn().Err(err).Str("layer", name).Msg("装饰图片不可用，已跳过")
		return nil
	}

	wpx := int(math.Round(box.Width * r.scale))
	hpx := int(math.Round(box.Height * r.scale))
	if wpx <= 0 || hpx <= 0 {
		return nil
	}

	x, y := box.X, box.Y
	var fitted *image.NRGBA
	switch box.Fit {
	case "cover":
		fitted = imaging.Fill(src, wpx, hpx, imaging.Center, imaging.Lanczos)
	default:
		fitted = imaging.Fit(src, wpx, hpx, imaging.Lanczos)
		fw := float64(fitted.Bounds().Dx()) / r.scale
		fh := float64(fitted.Bounds().Dy()) / r.scale
		x += (box.Width - fw) / 2
		switch box.Anchor {
		case "top":
		case "bottom":
			y += box.Height - fh
		default:
			y += (box.Height - fh) / 2
		}
	}
	var out image.Image = fitted
	if opacity < 1 {
		out = fade(fitted, opacity)
	}
	ctx.DrawImage(x, y, out, canvas.DPMM(r.scale))
	return nil
}

// fade 将整张图片乘以统一的不透明度。
func fade(img *image.NRGBA, opacity float64) image.Image {
	dst := image.NewNRGBA(img.Bounds())
	mask := image.NewUniform(colorAlpha(opacity))
	draw.DrawMask(dst, dst.Bounds(), img, img.Bounds().Min, mask, image.Point{}, draw.Over)
	return dst
}

func colorAlpha(opacity float64) color.Alpha {
	return color.Alpha{A: uint8(math.Round(math.Min(math.Max(opacity, 0), 1) * 255))}
}
