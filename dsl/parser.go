// Package dsl 解析海报脚本：一个版本化的块，逐条给出字段赋值与显示开关。
//
//	flyer Oferta v1 {
//	  theme: black_friday
//	  model: "Redmi Note 13"
//	  show price; hide address
//	}
package dsl

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// SupportedVersions 是脚本头部版本需要满足的约束。
const SupportedVersions = "^1"

// ErrUnsupportedVersion 表示脚本版本不在 SupportedVersions 范围内。
var ErrUnsupportedVersion = errors.New("不支持的脚本版本")

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Version", Pattern: `v\d+(?:\.\d+){0,2}\b`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[:;,]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	documentParser = participle.MustBuild[Document](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document is the root AST node for a flyer script.
type Document struct {
	Pos        lexer.Position `parser:"" json:"-"`
	Name       string         `parser:"Newline* 'flyer' ( @Ident | @String )"`
	Version    string         `parser:"@Version"`
	Statements []*Statement   `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}' Newline*"`
}

// Statement 是赋值或显示开关之一。
type Statement struct {
	Pos        lexer.Position `parser:"" json:"-"`
	Toggle     *Toggle        `parser:"  @@"`
	Assignment *Assignment    `parser:"| @@"`
}

// Toggle 形如 `show price` 或 `hide address, cta`。
type Toggle struct {
	Action  string   `parser:"@( 'show' | 'hide' )"`
	Targets []string `parser:"@Ident ( ',' @Ident )*"`
}

// On 报告开关是打开还是关闭。
func (t *Toggle) On() bool { return t.Action == "show" }

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Key   string `parser:"@Ident"`
	Value *Value `parser:"':' @@"`
}

// Value 是字符串、数字或裸标识符（例如 black_friday、true）。
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Ident  *string        `parser:"| @Ident"`
}

// Text 返回值的文本形式。
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	}
	return ""
}

// Quoted 报告值是否为带引号的字符串。
func (v *Value) Quoted() bool { return v != nil && v.String != nil }

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses a flyer script from an io.Reader and checks its version.
func Parse(r io.Reader) (*Document, error) {
	return finish(documentParser.Parse("", r))
}

// ParseString parses a flyer script from a string and checks its version.
func ParseString(input string) (*Document, error) {
	return finish(documentParser.ParseString("", input))
}

// finish 去掉带引号名称的引号并校验版本。
func finish(doc *Document, err error) (*Document, error) {
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(doc.Name, `"`) {
		name, err := strconv.Unquote(doc.Name)
		if err != nil {
			return nil, fmt.Errorf("%s: 名称无法解析: %w", doc.Pos, err)
		}
		doc.Name = name
	}
	return doc, CheckVersion(doc)
}

// CheckVersion 校验头部版本满足 SupportedVersions。
func CheckVersion(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("脚本为空")
	}
	v, err := semver.NewVersion(strings.TrimPrefix(doc.Version, "v"))
	if err != nil {
		return fmt.Errorf("版本号 %s 无法解析: %w", doc.Version, err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: %s（需要 %s）", ErrUnsupportedVersion, doc.Version, SupportedVersions)
	}
	return nil
}

// Describe 返回语句的简短描述，用于日志与错误信息。
func (s *Statement) Describe() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Toggle != nil:
		return s.Toggle.Action + " " + strings.Join(s.Toggle.Targets, ", ")
	case s.Assignment != nil:
		return s.Assignment.Key + ": " + s.Assignment.Value.Text()
	}
	return "unknown"
}
