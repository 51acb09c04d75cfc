package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ByLCY/studiophone/textgen"
)

const script = `flyer Teste v1 {
  theme: christmas
  brand: Apple
  model: "iPhone 15 Pro"
  price: 6999
  payment: "À VISTA"
  hide logo
}
`

func writeScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oferta.flyer")
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestIngestCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.bin")
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := execute(t, "ingest", path)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if !strings.HasPrefix(out, "data:image/png;base64,") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCatalogCommand(t *testing.T) {
	out, err := execute(t, "catalog")
	if err != nil {
		t.Fatalf("catalog failed: %v", err)
	}
	for _, want := range []string{"Redmi Note 13", "iPhone 15 Pro", "christmas", "fonts:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("catalog output missing %q", want)
		}
	}
}

func TestLayoutCommand(t *testing.T) {
	out, err := execute(t, "layout", writeScript(t))
	if err != nil {
		t.Fatalf("layout failed: %v", err)
	}
	var res struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Layers []struct {
			Name string `json:"name"`
		} `json:"layers"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if res.Width != 375 || res.Height != 667 || len(res.Layers) == 0 {
		t.Fatalf("unexpected layout: %vx%v with %d layers", res.Width, res.Height, len(res.Layers))
	}
	for _, l := range res.Layers {
		if l.Name == "footer.logo" {
			t.Fatalf("hidden logo should not be composed")
		}
	}
}

func TestCaptionWithoutKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	out, err := execute(t, "caption", writeScript(t))
	if err != nil {
		t.Fatalf("caption failed: %v", err)
	}
	if strings.TrimSpace(out) != textgen.MsgMissingKey {
		t.Fatalf("expected missing-key message, got %q", out)
	}
}

func TestScriptErrors(t *testing.T) {
	if _, err := execute(t, "layout", filepath.Join(t.TempDir(), "nope.flyer")); err == nil {
		t.Fatalf("expected error for missing script")
	}
	bad := filepath.Join(t.TempDir(), "bad.flyer")
	_ = os.WriteFile(bad, []byte("flyer X v1 {\n  memory: \"1TB\"\n}\n"), 0o644)
	if _, err := execute(t, "layout", bad); err == nil || !strings.Contains(err.Error(), "第 2 行") {
		t.Fatalf("expected line-tagged error, got %v", err)
	}
}
