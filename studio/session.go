// Package studio 持有唯一一份可变的海报配置，所有修改都经由 Session，
// 以保证品牌、型号、内存之间的重置规则以及图片槽位与配置同步。
package studio

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ByLCY/studiophone/catalog"
	"github.com/ByLCY/studiophone/flyer"
	"github.com/ByLCY/studiophone/ingest"
	"github.com/ByLCY/studiophone/layout"
	"github.com/ByLCY/studiophone/pricing"
	"github.com/ByLCY/studiophone/textgen"
)

// MsgExportFailed 是导出失败时展示给用户的固定提示。
const MsgExportFailed = "Erro ao exportar imagem."

var (
	ErrUnknownField  = errors.New("未知字段")
	ErrUnknownToggle = errors.New("未知开关")
	ErrInvalidMemory = errors.New("内存选项不属于当前型号")
	ErrUnknownBrand  = errors.New("目录中没有该品牌")
	ErrUnknownModel  = errors.New("当前品牌下没有该型号")
	ErrUnknownTheme  = errors.New("目录中没有该主题")
)

// Options 配置 Session 的协作者，零值字段使用默认实现。
type Options struct {
	Catalog    *catalog.Catalog
	Typesetter layout.Typesetter
	Images     *ingest.Store
	Text       *textgen.Client
	Formatter  *pricing.Formatter
	Calculator pricing.Calculator
	Currency   string
	Logger     *zerolog.Logger
}

// Session 是单用户的编辑会话。方法可被多个 goroutine 并发调用。
type Session struct {
	mu    sync.Mutex
	cfg   flyer.Config
	slots layout.ImageSlots

	caption textSlot
	specs   textSlot

	cat    *catalog.Catalog
	ts     layout.Typesetter
	images *ingest.Store
	text   *textgen.Client
	fmtr   *pricing.Formatter
	calc   pricing.Calculator
	cur    string
	log    zerolog.Logger
}

// New 以 flyer.Defaults() 开始一个会话。
func New(opts Options) *Session {
	s := &Session{
		cfg:    flyer.Defaults(),
		slots:  layout.ImageSlots{},
		cat:    opts.Catalog,
		ts:     opts.Typesetter,
		images: opts.Images,
		text:   opts.Text,
		fmtr:   opts.Formatter,
		calc:   opts.Calculator,
		cur:    opts.Currency,
		log:    zerolog.Nop(),
	}
	if s.cat == nil {
		s.cat = catalog.Default()
	}
	if s.fmtr == nil {
		s.fmtr = pricing.NewFormatter(pricing.DefaultLocale)
	}
	if s.cur == "" {
		s.cur = layout.DefaultCurrency
	}
	if s.text == nil {
		s.text = textgen.New(nil, textgen.Options{})
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	s.observeLocked()
	return s
}

// Config 返回当前配置的副本。
func (s *Session) Config() flyer.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Catalog 返回会话使用的目录。
func (s *Session) Catalog() *catalog.Catalog { return s.cat }

// ImageSlots 返回图片槽位的只读副本。
func (s *Session) ImageSlots() layout.ImageSlots {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots.Clone()
}

// MemoryOptions 返回当前型号的内存选项。
func (s *Session) MemoryOptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, _ := s.cat.Model(s.cfg.Brand, s.cfg.Model)
	return slices.Clone(m.Memories)
}

// SetTheme 切换主题。
func (s *Session) SetTheme(theme flyer.Theme) error {
	if _, ok := s.cat.Themes[string(theme)]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTheme, theme)
	}
	s.update(func(c *flyer.Config) { c.Theme = theme })
	return nil
}

// SetBrand 切换品牌，同时清空型号与内存。
func (s *Session) SetBrand(brand flyer.Brand) error {
	if _, ok := s.cat.Brands[string(brand)]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBrand, brand)
	}
	s.update(func(c *flyer.Config) {
		c.Brand = brand
		c.Model = ""
		c.Memory = ""
	})
	return nil
}

// SetModel 切换型号，内存取新型号的第一个选项。型号不在当前品牌目录中时，
// 型号与内存都被清空并返回 ErrUnknownModel；空字符串表示取消选择。
func (s *Session) SetModel(model string) error {
	var err error
	s.update(func(c *flyer.Config) {
		c.Model, c.Memory = "", ""
		if model == "" {
			return
		}
		m, ok := s.cat.Model(c.Brand, model)
		if !ok {
			err = fmt.Errorf("%w: %s（品牌 %s）", ErrUnknownModel, model, c.Brand)
			return
		}
		c.Model = model
		if len(m.Memories) > 0 {
			c.Memory = m.Memories[0]
		}
	})
	return err
}

// SetMemory 选择内存，必须属于当前型号的选项或为空。
func (s *Session) SetMemory(memory string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if memory != "" {
		m, _ := s.cat.Model(s.cfg.Brand, s.cfg.Model)
		if !m.HasMemory(memory) {
			return fmt.Errorf("%w: %s（型号 %q）", ErrInvalidMemory, memory, s.cfg.Model)
		}
	}
	s.cfg.Memory = memory
	return nil
}

// Reset 恢复初始配置并清空已生成的文案。
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = flyer.Defaults()
	s.caption.reset()
	s.specs.reset()
	s.observeLocked()
}

// update 在锁内修改配置并同步图片槽位。
func (s *Session) update(fn func(c *flyer.Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cfg)
	s.observeLocked()
}

// observeLocked 让每个槽位观察当前来源，来源变化即回到 pending。
func (s *Session) observeLocked() {
	s.observeSlot(layout.SlotProduct, layout.ProductImage(s.cfg, s.cat))
	s.observeSlot(layout.SlotLogo, s.cfg.Logo)
}

func (s *Session) observeSlot(name layout.SlotName, src string) {
	slot := s.slots[name]
	if slot.Observe(src) {
		s.log.Debug().Str("slot", string(name)).Msg("图片来源变化，重置为 pending")
	}
	// 新来源若已在缓存中（例如切回之前的型号），立即视为已加载。
	if src != "" && s.images != nil {
		if _, err := s.images.Image(src); err == nil {
			slot.MarkLoaded(src)
		}
	}
	s.slots[name] = slot
}

// MarkImageLoaded 把 src 标记为已加载；src 已不是任何槽位的当前来源时忽略并返回 false。
func (s *Session) MarkImageLoaded(src string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := false
	for name, slot := range s.slots {
		if slot.MarkLoaded(src) {
			s.slots[name] = slot
			applied = true
		}
	}
	if !applied {
		s.log.Debug().Msg("忽略过期的图片加载通知")
	}
	return applied
}

// Compose 合成当前配置的图层树。
func (s *Session) Compose() (*layout.Result, error) {
	s.mu.Lock()
	cfg, slots := s.cfg, s.slots.Clone()
	s.mu.Unlock()
	return layout.Compose(cfg, s.cat, layout.ComposeOptions{
		Typesetter: s.ts,
		Images:     slots,
		Formatter:  s.fmtr,
		Calculator: s.calc,
		Currency:   s.cur,
	})
}

// PriceLabel 返回文案生成使用的价格文字，例如 "R$ 1.999,99"。
func (s *Session) PriceLabel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priceLabelLocked()
}

func (s *Session) priceLabelLocked() string {
	return s.cur + " " + s.fmtr.Format(s.cfg.Price)
}
