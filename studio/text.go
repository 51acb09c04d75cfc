package studio

import (
	"context"
	"strings"

	"github.com/ByLCY/studiophone/textgen"
)

// Generated 是一次文案请求的结果。Applied 为 false 表示结果已过期被丢弃：
// 请求期间提示词依赖的字段发生了变化，或更新的请求已先一步写入。
type Generated struct {
	Product string
	Key     string
	Text    string
	Applied bool
}

// textSlot 保存一种生成文本及其序号。issued 每次请求递增，
// applied 是已写入结果的请求序号，较旧的请求不能覆盖较新的结果。
type textSlot struct {
	text    string
	issued  uint64
	applied uint64
}

func (t *textSlot) reset() {
	t.text = ""
	t.applied = t.issued
}

// Caption 返回最近一次被接受的营销文案。
func (s *Session) Caption() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caption.text
}

// Specs 返回最近一次被接受的技术规格。
func (s *Session) Specs() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.specs.text
}

// captionKeyLocked 由营销文案提示词依赖的全部字段组成。
func (s *Session) captionKeyLocked() string {
	return strings.Join([]string{s.cfg.ProductName(), s.priceLabelLocked(), s.cfg.CTALabel()}, "\x1f")
}

func (s *Session) specsKeyLocked() string {
	return s.cfg.ProductName()
}

// RequestCaption 以当前产品名、价格与行动号召请求营销文案。
func (s *Session) RequestCaption(ctx context.Context) <-chan Generated {
	s.mu.Lock()
	product, price, cta := s.cfg.ProductName(), s.priceLabelLocked(), s.cfg.CTALabel()
	key := s.captionKeyLocked()
	s.caption.issued++
	seq := s.caption.issued
	s.mu.Unlock()
	in := s.text.CaptionAsync(ctx, product, price, cta)
	return s.accept(product, key, seq, in, &s.caption, s.captionKeyLocked)
}

// RequestSpecs 以当前产品名请求技术规格。
func (s *Session) RequestSpecs(ctx context.Context) <-chan Generated {
	s.mu.Lock()
	product := s.cfg.ProductName()
	key := s.specsKeyLocked()
	s.specs.issued++
	seq := s.specs.issued
	s.mu.Unlock()
	return s.accept(product, key, seq, s.text.SpecsAsync(ctx, product), &s.specs, s.specsKeyLocked)
}

// accept 在结果到达时核对请求时的键与当前状态，且只接受比已写入结果更新的请求。
func (s *Session) accept(product, key string, seq uint64, in <-chan textgen.Result, slot *textSlot, current func() string) <-chan Generated {
	out := make(chan Generated, 1)
	go func() {
		defer close(out)
		res, ok := <-in
		if !ok {
			return
		}
		s.mu.Lock()
		applied := seq > slot.applied && current() == key
		if applied {
			slot.text = res.Text
			slot.applied = seq
		}
		s.mu.Unlock()
		if !applied {
			s.log.Debug().Str("product", product).Uint64("seq", seq).Msg("丢弃过期的生成结果")
		}
		out <- Generated{Product: product, Key: key, Text: res.Text, Applied: applied}
	}()
	return out
}
