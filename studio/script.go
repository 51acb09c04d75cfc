package studio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"

	"github.com/ByLCY/studiophone/dsl"
	"github.com/ByLCY/studiophone/ingest"
)

// ApplyScript 按顺序回放脚本语句。logo 与 image 的值若是本地路径，
// 相对 baseDir 读取并转换为 data URL。遇到第一个错误即停止，之前的语句保持生效。
func (s *Session) ApplyScript(doc *dsl.Document, baseDir string) error {
	if doc == nil {
		return fmt.Errorf("脚本为空")
	}
	for _, st := range doc.Statements {
		if err := s.applyStatement(st, baseDir); err != nil {
			return fmt.Errorf("第 %d 行 `%s`: %w", st.Pos.Line, st.Describe(), err)
		}
	}
	s.log.Debug().Str("script", doc.Name).Int("statements", len(doc.Statements)).Msg("脚本已应用")
	return nil
}

func (s *Session) applyStatement(st *dsl.Statement, baseDir string) error {
	switch {
	case st.Toggle != nil:
		for _, target := range st.Toggle.Targets {
			if err := s.SetToggle(target, st.Toggle.On()); err != nil {
				return err
			}
		}
		return nil
	case st.Assignment != nil:
		key, value := st.Assignment.Key, st.Assignment.Value.Text()
		switch normalizeKey(key) {
		case "logo", "image":
			src, err := resolveImageRef(value, baseDir)
			if err != nil {
				return err
			}
			return s.SetField(key, src)
		case "animations":
			on, err := parseBool(value)
			if err != nil {
				return err
			}
			return s.SetToggle("animations", on)
		}
		return s.SetField(key, value)
	}
	return fmt.Errorf("无法识别的语句")
}

// resolveImageRef 保留 URL 与 data URL，其余视为文件路径。
func resolveImageRef(value, baseDir string) (string, error) {
	switch {
	case value == "", ingest.IsDataURL(value),
		strings.HasPrefix(value, "http://"), strings.HasPrefix(value, "https://"):
		return value, nil
	}
	path := value
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	return ingest.FileToDataURL(path)
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "yes", "sim":
		return true, nil
	case "off", "no", "não", "nao":
		return false, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("无法解析布尔值 %q", v)
	}
	return b, nil
}
