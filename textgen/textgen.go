// Package textgen 调用托管的文本生成服务，为海报生成社交媒体文案与技术规格。
// 对调用方的约定：永远返回一段可显示的字符串，错误在此折叠为固定的提示语。
package textgen

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ByLCY/studiophone/binding"
)

// 固定提示语，与界面上显示的文字一致。
const (
	MsgMissingKey   = "Erro: Chave de API não configurada."
	MsgCaptionError = "Erro ao gerar legenda. Tente novamente."
	MsgSpecsError   = "Erro ao gerar ficha técnica."
	MsgCaptionEmpty = "Não foi possível gerar a legenda."
	MsgSpecsEmpty   = "Não foi possível gerar especificações."
)

// 默认提示词模板，变量以 ${name} 引用。
const (
	DefaultCaptionPrompt = `Crie uma legenda curta, emocionante e persuasiva para o Instagram Stories vendendo um ${product}.
O preço é ${price}. A chamada para ação é "${cta}".
Use emojis. O tom deve ser urgente e animado (estilo Black Friday).
Máximo de 3 linhas.`

	DefaultSpecsPrompt = `Liste 4 especificações técnicas principais do smartphone ${product} de forma resumida com emojis (bullets).
Exemplo:
* 📸 Câmera 50MP
* 🔋 Bateria 5000mAh
Não inclua introdução, apenas a lista.`
)

// Generator 是文本生成后端：输入提示词，返回生成的文本。
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options 配置 Client。
type Options struct {
	Timeout       time.Duration
	CaptionPrompt string
	SpecsPrompt   string
	Logger        *zerolog.Logger
}

// Client 把 Generator 包装成只返回字符串的接口。gen 为空表示未配置凭据。
type Client struct {
	gen     Generator
	timeout time.Duration
	caption string
	specs   string
	log     zerolog.Logger
}

// Result 是异步生成的结果，Key 为请求时的产品名。
type Result struct {
	Key  string
	Text string
}

// New 创建 Client；gen 为 nil 时所有请求都返回 MsgMissingKey。
func New(gen Generator, opts Options) *Client {
	c := &Client{
		gen:     gen,
		timeout: opts.Timeout,
		caption: opts.CaptionPrompt,
		specs:   opts.SpecsPrompt,
		log:     zerolog.Nop(),
	}
	if c.caption == "" {
		c.caption = DefaultCaptionPrompt
	}
	if c.specs == "" {
		c.specs = DefaultSpecsPrompt
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	}
	return c
}

// Configured 报告是否有可用的后端。
func (c *Client) Configured() bool { return c != nil && c.gen != nil }

// GenerateCaption 生成 Instagram Stories 文案。priceLabel 例如 "R$ 1.999,99"。
func (c *Client) GenerateCaption(ctx context.Context, productName, priceLabel, cta string) string {
	prompt := binding.Interpolate(c.caption, map[string]string{
		"product": productName,
		"price":   priceLabel,
		"cta":     cta,
	})
	return c.run(ctx, "caption", prompt, MsgCaptionError, MsgCaptionEmpty)
}

// GenerateSpecs 生成四条带表情符号的技术规格。
func (c *Client) GenerateSpecs(ctx context.Context, productName string) string {
	prompt := binding.Interpolate(c.specs, map[string]string{"product": productName})
	return c.run(ctx, "specs", prompt, MsgSpecsError, MsgSpecsEmpty)
}

// CaptionAsync 在后台生成文案，结果通过只含一个元素的通道返回。
func (c *Client) CaptionAsync(ctx context.Context, productName, priceLabel, cta string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		out <- Result{Key: productName, Text: c.GenerateCaption(ctx, productName, priceLabel, cta)}
	}()
	return out
}

// SpecsAsync 在后台生成技术规格。
func (c *Client) SpecsAsync(ctx context.Context, productName string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		out <- Result{Key: productName, Text: c.GenerateSpecs(ctx, productName)}
	}()
	return out
}

func (c *Client) run(ctx context.Context, kind, prompt, failMsg, emptyMsg string) (out string) {
	if !c.Configured() {
		return MsgMissingKey
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Str("kind", kind).Msg("文本生成后端崩溃")
			out = failMsg
		}
	}()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	text, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		c.log.Error().Err(err).Str("kind", kind).Msg("文本生成失败")
		return failMsg
	}
	text = strings.TrimSpace(text)
	if text == "" {
		c.log.Warn().Str("kind", kind).Msg("文本生成返回空结果")
		return emptyMsg
	}
	c.log.Debug().Str("kind", kind).Dur("elapsed", time.Since(start)).Int("chars", len([]rune(text))).Msg("文本已生成")
	return text
}
