package studio

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ByLCY/studiophone/catalog"
	"github.com/ByLCY/studiophone/dsl"
	"github.com/ByLCY/studiophone/flyer"
	"github.com/ByLCY/studiophone/ingest"
	"github.com/ByLCY/studiophone/layout"
	"github.com/ByLCY/studiophone/textgen"
)

const redmi = "Redmi Note 13"

// lineTypesetter 把每段文本排成一行，字符宽度为字号的一半。
type lineTypesetter struct{}

func (lineTypesetter) LayoutLines(content string, _ float64, _ layout.FontResource, size, _ float64, _ string) ([]layout.TextLine, error) {
	return []layout.TextLine{{Content: content, Width: size / 2 * float64(len([]rune(content))), Height: size}}, nil
}

// mapLoader 是内存中的图片来源。
type mapLoader map[string][]byte

func (m mapLoader) Fetch(_ context.Context, src string) ([]byte, error) {
	if data, ok := m[src]; ok {
		return data, nil
	}
	return nil, errors.New("not found: " + src)
}

// recordingRenderer 保存最后一次收到的图层树。
type recordingRenderer struct {
	last *layout.Result
	err  error
}

func (r *recordingRenderer) Render(res *layout.Result) ([]byte, error) {
	r.last = res
	if r.err != nil {
		return nil, r.err
	}
	return []byte("png"), nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newSession(t *testing.T, loader mapLoader) *Session {
	t.Helper()
	return New(Options{
		Typesetter: lineTypesetter{},
		Images:     ingest.NewStore(loader, 2, zerolog.Nop()),
	})
}

func TestSetBrandClearsModelAndMemory(t *testing.T) {
	s := newSession(t, nil)
	s.SetModel(redmi)
	if err := s.SetBrand(flyer.BrandApple); err != nil {
		t.Fatalf("set brand: %v", err)
	}
	cfg := s.Config()
	if cfg.Brand != flyer.BrandApple || cfg.Model != "" || cfg.Memory != "" {
		t.Fatalf("brand change should clear model and memory: %+v", cfg)
	}
	if err := s.SetBrand("Nokia"); !errors.Is(err, ErrUnknownBrand) {
		t.Fatalf("expected ErrUnknownBrand, got %v", err)
	}
}

func TestSetModelSelectsFirstMemory(t *testing.T) {
	s := newSession(t, nil)
	s.SetModel(redmi)
	if got := s.Config().Memory; got != "128GB / 6GB RAM" {
		t.Fatalf("expected first memory option, got %q", got)
	}
	if opts := s.MemoryOptions(); len(opts) != 2 {
		t.Fatalf("expected 2 memory options, got %v", opts)
	}
	if err := s.SetModel("Galaxy S99"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
	cfg := s.Config()
	if cfg.Model != "" || cfg.Memory != "" {
		t.Fatalf("unknown model should clear model and memory: %+v", cfg)
	}
	// iPhone 不属于 Xiaomi
	if err := s.SetField("model", "iPhone 13"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("model from another brand should be rejected, got %v", err)
	}
	if err := s.SetModel(""); err != nil {
		t.Fatalf("clearing the model should be allowed: %v", err)
	}
}

func TestSetMemoryRequiresCurrentOptions(t *testing.T) {
	s := newSession(t, nil)
	s.SetModel(redmi)
	if err := s.SetMemory("256GB / 8GB RAM"); err != nil {
		t.Fatalf("valid memory rejected: %v", err)
	}
	if err := s.SetMemory("512GB"); !errors.Is(err, ErrInvalidMemory) {
		t.Fatalf("expected ErrInvalidMemory, got %v", err)
	}
	if got := s.Config().Memory; got != "256GB / 8GB RAM" {
		t.Fatalf("rejected memory must not change config, got %q", got)
	}
	if err := s.SetMemory(""); err != nil {
		t.Fatalf("clearing memory should be allowed: %v", err)
	}
}

func TestSetFieldCoercion(t *testing.T) {
	s := newSession(t, nil)
	cases := []struct {
		key   string
		value any
	}{
		{"price", "1.234,56"},
		{"total", 2500},
		{"installments", "10"},
		{"payment", "EM ATÉ 12X NO CARTÃO"},
		{"custom-cta", "Só hoje!"},
		{"theme", "Christmas"},
		{"whatsapp", "(21) 98888-7777"},
	}
	for _, c := range cases {
		if err := s.SetField(c.key, c.value); err != nil {
			t.Fatalf("SetField(%s): %v", c.key, err)
		}
	}
	cfg := s.Config()
	if !cfg.Price.Equal(decimal.RequireFromString("1234.56")) {
		t.Fatalf("unexpected price %s", cfg.Price)
	}
	if !cfg.TotalWithInterest.Equal(decimal.NewFromInt(2500)) || cfg.Installments != 10 {
		t.Fatalf("unexpected installment fields: %s x%d", cfg.TotalWithInterest, cfg.Installments)
	}
	if cfg.CTALabel() != "Só hoje!" || cfg.Theme != flyer.ThemeChristmas {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if err := s.SetField("colour", "red"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := s.SetField("installments", "doze"); err == nil {
		t.Fatalf("expected coercion error")
	}
	if err := s.SetField("price", "abc"); err == nil {
		t.Fatalf("expected money parse error")
	}
	if !s.Config().Price.Equal(decimal.RequireFromString("1234.56")) {
		t.Fatalf("failed coercion must not change price")
	}
}

func TestParseMoneySeparators(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"1999.99", "1999.99"},
		{"1.999,99", "1999.99"},
		{"1,999.99", "1999.99"},
		{"R$ 1.999,99", "1999.99"},
		{"999,00", "999"},
		{"999,5", "999.5"},
		{"1.999.999", "1999999"},
		{"1,999,999.50", "1999999.5"},
		{"2500", "2500"},
		{2500, "2500"},
		{999.999, "1000"},
	}
	for _, c := range cases {
		got, err := parseMoney(c.in)
		if err != nil {
			t.Fatalf("parseMoney(%v): %v", c.in, err)
		}
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Fatalf("parseMoney(%v) = %s, want %s", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"1.999", "1,999", "1.99.9", "1,999,99.5,0", "abc", ""} {
		if d, err := parseMoney(bad); err == nil {
			t.Fatalf("parseMoney(%q) should fail, got %s", bad, d)
		}
	}
}

func TestSetFieldRejectsAmbiguousPrice(t *testing.T) {
	s := newSession(t, nil)
	if err := s.SetField("price", "1,999.99"); err != nil {
		t.Fatalf("english grouping rejected: %v", err)
	}
	if got := s.Config().Price; !got.Equal(decimal.RequireFromString("1999.99")) {
		t.Fatalf("price corrupted: %s", got)
	}
	if err := s.SetField("price", "1.999"); err == nil {
		t.Fatalf("ambiguous price should be rejected")
	}
	if got := s.Config().Price; !got.Equal(decimal.RequireFromString("1999.99")) {
		t.Fatalf("rejected price must not change config, got %s", got)
	}
}

func TestSetToggle(t *testing.T) {
	s := newSession(t, nil)
	for _, name := range ToggleNames {
		if err := s.SetToggle(name, name == "animations"); err != nil {
			t.Fatalf("SetToggle(%s): %v", name, err)
		}
	}
	cfg := s.Config()
	if cfg.ShowPrice || cfg.ShowContact || cfg.ShowAddress || cfg.ShowCTA || cfg.ShowLogo || cfg.ShowMemory {
		t.Fatalf("visibility toggles should be off: %+v", cfg.Toggles)
	}
	if !cfg.EnableAnimations {
		t.Fatalf("animations should be on")
	}
	if err := s.SetToggle("showPrice", true); err != nil || !s.Config().ShowPrice {
		t.Fatalf("showPrice alias failed: %v", err)
	}
	if err := s.SetToggle("confetti", true); !errors.Is(err, ErrUnknownToggle) {
		t.Fatalf("expected ErrUnknownToggle, got %v", err)
	}
}

func TestImageSlotResetsWhenSourceChanges(t *testing.T) {
	s := newSession(t, nil)
	s.SetModel(redmi)
	catalogImg := catalog.Default().Image(flyer.BrandXiaomi, redmi)

	if !s.MarkImageLoaded(catalogImg) {
		t.Fatalf("current source should be marked loaded")
	}
	if got := s.ImageSlots().StateOf(layout.SlotProduct, catalogImg); got != layout.ImageLoaded {
		t.Fatalf("expected loaded, got %s", got)
	}

	_ = s.SetField("image", "data:image/png;base64,AAAA")
	slots := s.ImageSlots()
	if slots[layout.SlotProduct].State != layout.ImagePending {
		t.Fatalf("new source should reset to pending")
	}
	if s.MarkImageLoaded(catalogImg) {
		t.Fatalf("stale completion must be ignored")
	}
	if got := s.ImageSlots().StateOf(layout.SlotProduct, "data:image/png;base64,AAAA"); got != layout.ImagePending {
		t.Fatalf("stale completion changed state to %s", got)
	}
}

func TestWithAnimationsSuppressedRestores(t *testing.T) {
	s := newSession(t, nil)
	_ = s.SetToggle("animations", true)

	boom := errors.New("boom")
	err := s.WithAnimationsSuppressed(func() error {
		if s.Config().EnableAnimations {
			t.Fatalf("animations should be off inside fn")
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if !s.Config().EnableAnimations {
		t.Fatalf("flag not restored after error")
	}

	func() {
		defer func() { _ = recover() }()
		_ = s.WithAnimationsSuppressed(func() error { panic("render crashed") })
	}()
	if !s.Config().EnableAnimations {
		t.Fatalf("flag not restored after panic")
	}
}

func TestSuppressionKeepsToggleMadeDuringExport(t *testing.T) {
	s := newSession(t, nil)
	_ = s.WithAnimationsSuppressed(func() error {
		return s.SetToggle("animations", true)
	})
	if !s.Config().EnableAnimations {
		t.Fatalf("animations switched on during suppression must stay on")
	}

	_ = s.SetToggle("animations", true)
	_ = s.WithAnimationsSuppressed(func() error { return nil })
	if !s.Config().EnableAnimations {
		t.Fatalf("previous value should be restored")
	}
}

func TestExportPreloadsAndRendersStatic(t *testing.T) {
	cat := catalog.Default()
	img := pngBytes(t)
	loader := mapLoader{
		cat.Image(flyer.BrandXiaomi, redmi):   img,
		cat.ThemeLogo(flyer.ThemeBlackFriday): img,
		"https://example.com/loja.png":        img,
	}
	s := newSession(t, loader)
	s.SetModel(redmi)
	_ = s.SetField("logo", "https://example.com/loja.png")
	_ = s.SetToggle("animations", true)

	r := &recordingRenderer{}
	out, err := s.Export(context.Background(), r)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if string(out) != "png" {
		t.Fatalf("unexpected output %q", out)
	}
	for _, l := range r.last.Layers {
		if l.Animation != layout.AnimationNone {
			t.Fatalf("exported layer %s still animated (%s)", l.Name, l.Animation)
		}
		if strings.HasSuffix(l.Name, ".spinner") {
			t.Fatalf("loaded images should not leave spinners: %s", l.Name)
		}
	}
	for _, name := range []string{"hero.image", "footer.logo"} {
		found := false
		for _, l := range r.last.Layers {
			if l.Name == name {
				found = true
				if l.Image.State != layout.ImageLoaded || l.Image.Opacity != 1 {
					t.Fatalf("%s should be loaded and opaque: %+v", name, l.Image)
				}
			}
		}
		if !found {
			t.Fatalf("missing layer %s", name)
		}
	}
	if !s.Config().EnableAnimations {
		t.Fatalf("animations should be restored after export")
	}
}

func TestExportFailureRestoresAnimations(t *testing.T) {
	s := newSession(t, mapLoader{})
	_ = s.SetToggle("animations", true)
	_, err := s.Export(context.Background(), &recordingRenderer{err: errors.New("disk full")})
	if err == nil {
		t.Fatalf("expected render error")
	}
	if !s.Config().EnableAnimations {
		t.Fatalf("animations should be restored after failed export")
	}
}

func TestPriceLabel(t *testing.T) {
	s := newSession(t, nil)
	if got := s.PriceLabel(); got != "R$ 1.999,99" {
		t.Fatalf("unexpected price label %q", got)
	}
}

// gatedGenerator 为每次调用开一道闸门，测试按任意顺序放行。
type gatedGenerator struct {
	mu      sync.Mutex
	prompts []string
	gates   []chan string
	started chan int
}

func newGatedGenerator() *gatedGenerator {
	return &gatedGenerator{started: make(chan int, 8)}
}

func (g *gatedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	gate := make(chan string, 1)
	g.mu.Lock()
	idx := len(g.gates)
	g.gates = append(g.gates, gate)
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	g.started <- idx
	select {
	case text := <-gate:
		return text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *gatedGenerator) release(i int, text string) {
	g.mu.Lock()
	gate := g.gates[i]
	g.mu.Unlock()
	gate <- text
}

func (g *gatedGenerator) prompt(i int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompts[i]
}

func newTextSession(gen textgen.Generator) *Session {
	s := New(Options{Typesetter: lineTypesetter{}, Text: textgen.New(gen, textgen.Options{})})
	s.SetModel(redmi)
	return s
}

func TestRequestCaptionAppliesForCurrentProduct(t *testing.T) {
	gen := newGatedGenerator()
	s := newTextSession(gen)

	pending := s.RequestCaption(context.Background())
	<-gen.started
	gen.release(0, "texto gerado")
	res := <-pending
	if !res.Applied || s.Caption() != "texto gerado" {
		t.Fatalf("caption should be applied: %+v", res)
	}
	if p := gen.prompt(0); !strings.Contains(p, "R$ 1.999,99") || !strings.Contains(p, redmi) {
		t.Fatalf("prompt missing product or price: %s", p)
	}
}

func TestRequestSpecsDiscardsStaleResult(t *testing.T) {
	gen := newGatedGenerator()
	s := newTextSession(gen)

	pending := s.RequestSpecs(context.Background())
	<-gen.started
	s.SetModel("Poco X6 Pro")
	gen.release(0, "specs antigas")

	res := <-pending
	if res.Applied || res.Product != redmi {
		t.Fatalf("stale result should be discarded: %+v", res)
	}
	if s.Specs() != "" {
		t.Fatalf("stale specs leaked into session: %q", s.Specs())
	}
}

func TestCaptionDiscardedWhenPromptInputsChange(t *testing.T) {
	changes := map[string]func(s *Session){
		"price":      func(s *Session) { _ = s.SetField("price", "500") },
		"cta":        func(s *Session) { _ = s.SetField("cta", "Compre Agora!") },
		"custom_cta": func(s *Session) { _ = s.SetField("custom_cta", "Só hoje!") },
		"model":      func(s *Session) { s.SetModel("Poco X6 Pro") },
	}
	for name, change := range changes {
		gen := newGatedGenerator()
		s := newTextSession(gen)

		pending := s.RequestCaption(context.Background())
		<-gen.started
		change(s)
		gen.release(0, "legenda antiga")
		if res := <-pending; res.Applied || s.Caption() != "" {
			t.Fatalf("%s: caption requested before the change must be discarded: %+v", name, res)
		}

		pending = s.RequestCaption(context.Background())
		<-gen.started
		gen.release(1, "legenda nova")
		if res := <-pending; !res.Applied || s.Caption() != "legenda nova" {
			t.Fatalf("%s: fresh caption should be applied: %+v", name, res)
		}
	}
}

func TestOlderCaptionCannotOverwriteNewer(t *testing.T) {
	gen := newGatedGenerator()
	s := newTextSession(gen)

	older := s.RequestCaption(context.Background())
	<-gen.started
	_ = s.SetField("price", "500")
	newer := s.RequestCaption(context.Background())
	<-gen.started

	gen.release(1, "caption for R$ 500,00")
	if res := <-newer; !res.Applied {
		t.Fatalf("newer caption should be applied: %+v", res)
	}
	gen.release(0, "caption for R$ 1.999,99")
	if res := <-older; res.Applied {
		t.Fatalf("older caption arriving late must be discarded: %+v", res)
	}
	if got := s.Caption(); got != "caption for R$ 500,00" {
		t.Fatalf("caption overwritten by older response: %q", got)
	}

	// 同一组输入的两次请求乱序到达，同样只保留较新的结果。
	first := s.RequestCaption(context.Background())
	<-gen.started
	second := s.RequestCaption(context.Background())
	<-gen.started
	gen.release(3, "segunda")
	<-second
	gen.release(2, "primeira")
	if res := <-first; res.Applied || s.Caption() != "segunda" {
		t.Fatalf("out-of-order result overwrote newer caption: %+v, now %q", res, s.Caption())
	}
}

func TestResetDiscardsInFlightCaption(t *testing.T) {
	gen := newGatedGenerator()
	s := newTextSession(gen)

	pending := s.RequestCaption(context.Background())
	<-gen.started
	s.Reset()
	s.SetModel(redmi)
	gen.release(0, "antes do reset")
	if res := <-pending; res.Applied || s.Caption() != "" {
		t.Fatalf("caption requested before reset must be discarded: %+v", res)
	}
}

func TestRequestWithoutBackend(t *testing.T) {
	s := New(Options{Typesetter: lineTypesetter{}})
	res := <-s.RequestCaption(context.Background())
	if res.Text != textgen.MsgMissingKey || s.Caption() != textgen.MsgMissingKey {
		t.Fatalf("expected missing-key message, got %+v", res)
	}
}

func TestApplyScript(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "loja.png"), pngBytes(t), 0o644); err != nil {
		t.Fatalf("write logo: %v", err)
	}
	doc, err := dsl.ParseString(`flyer Oferta v1 {
  brand: xiaomi
  model: "Redmi Note 13"
  memory: "256GB / 8GB RAM"
  price: "999,00"
  payment: "EM ATÉ 12X NO CARTÃO"
  installments: 10
  total: 2500
  logo: "loja.png"
  hide address, cta
  animations: on
}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s := newSession(t, nil)
	if err := s.ApplyScript(doc, dir); err != nil {
		t.Fatalf("apply: %v", err)
	}
	cfg := s.Config()
	if cfg.Model != redmi || cfg.Memory != "256GB / 8GB RAM" || cfg.Installments != 10 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !cfg.Price.Equal(decimal.NewFromInt(999)) {
		t.Fatalf("unexpected price %s", cfg.Price)
	}
	if !strings.HasPrefix(cfg.Logo, "data:image/png;base64,") {
		t.Fatalf("logo should be ingested as data URL, got %.40s", cfg.Logo)
	}
	if cfg.ShowAddress || cfg.ShowCTA || !cfg.EnableAnimations {
		t.Fatalf("unexpected toggles: %+v", cfg.Toggles)
	}
}

func TestApplyScriptReportsLine(t *testing.T) {
	doc, err := dsl.ParseString("flyer X v1 {\n  theme: christmas\n  colour: red\n}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s := newSession(t, nil)
	err = s.ApplyScript(doc, "")
	if !errors.Is(err, ErrUnknownField) || !strings.Contains(err.Error(), "第 3 行") {
		t.Fatalf("expected line-tagged ErrUnknownField, got %v", err)
	}
	if s.Config().Theme != flyer.ThemeChristmas {
		t.Fatalf("statements before the error should stay applied")
	}
}
