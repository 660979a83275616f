package partition

import (
	"strconv"
	"strings"
)

// FileClass selects the template that names an output file.
type FileClass string

const (
	// ClassScript names the script file of entry and runtime chunks.
	ClassScript FileClass = "script"

	// ClassScriptChunk names the script file of every other chunk.
	ClassScriptChunk FileClass = "scriptChunk"

	// ClassStyle names the style file of entry chunks.
	ClassStyle FileClass = "style"

	// ClassStyleChunk names the style file of every other chunk.
	ClassStyleChunk FileClass = "styleChunk"

	// ClassAsset names emitted asset files.
	ClassAsset FileClass = "asset"
)

// Family folds the chunk variants onto their base class.
func (c FileClass) Family() FileClass {
	switch c {
	case ClassScriptChunk:
		return ClassScript
	case ClassStyleChunk:
		return ClassStyle
	default:
		return c
	}
}

type segmentKind int

const (
	segLiteral segmentKind = iota
	segName
	segFingerprint
	segExt
	segQuery
)

type segment struct {
	kind   segmentKind
	text   string
	length int
}

// Template is a parsed filename template.
type Template struct {
	Class  FileClass
	Source string

	segments []segment
}

// ParseTemplate parses a template such as "static/js/[name].[contenthash:10].js".
func ParseTemplate(class FileClass, s string) (*Template, error) {
	if strings.TrimSpace(s) == "" {
		return nil, &TemplateError{Class: class, Template: s, Message: "template is empty"}
	}

	t := &Template{Class: class, Source: s}
	rest := s
	for rest != "" {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			if strings.IndexByte(rest, ']') >= 0 {
				return nil, &TemplateError{Class: class, Template: s, Message: "unbalanced ']'"}
			}
			t.segments = append(t.segments, segment{kind: segLiteral, text: rest})
			break
		}
		if open > 0 {
			lit := rest[:open]
			if strings.IndexByte(lit, ']') >= 0 {
				return nil, &TemplateError{Class: class, Template: s, Message: "unbalanced ']'"}
			}
			t.segments = append(t.segments, segment{kind: segLiteral, text: lit})
		}
		closing := strings.IndexByte(rest[open:], ']')
		if closing < 0 {
			return nil, &TemplateError{Class: class, Template: s, Message: "unterminated placeholder"}
		}
		seg, err := parsePlaceholder(rest[open+1 : open+closing])
		if err != nil {
			return nil, &TemplateError{Class: class, Template: s, Message: err.Error()}
		}
		t.segments = append(t.segments, seg)
		rest = rest[open+closing+1:]
	}

	return t, nil
}

type placeholderError string

func (e placeholderError) Error() string { return string(e) }

func parsePlaceholder(body string) (segment, error) {
	name, arg, hasArg := strings.Cut(body, ":")

	switch name {
	case "name", "ext", "query":
		if hasArg {
			return segment{}, placeholderError("[" + name + "] takes no length")
		}
		switch name {
		case "name":
			return segment{kind: segName}, nil
		case "ext":
			return segment{kind: segExt}, nil
		default:
			return segment{kind: segQuery}, nil
		}
	case "fingerprint", "contenthash", "hash":
		seg := segment{kind: segFingerprint}
		if hasArg {
			n, err := strconv.Atoi(arg)
			if err != nil || n <= 0 {
				return segment{}, placeholderError("invalid length in [" + body + "]")
			}
			seg.length = n
		}
		return seg, nil
	default:
		return segment{}, placeholderError("unknown placeholder [" + body + "]")
	}
}

// HasName reports whether the template contains [name].
func (t *Template) HasName() bool {
	return t.has(segName)
}

// HasFingerprint reports whether the template contains a fingerprint
// placeholder ([fingerprint], [contenthash] or [hash]).
func (t *Template) HasFingerprint() bool {
	return t.has(segFingerprint)
}

func (t *Template) has(kind segmentKind) bool {
	for _, s := range t.segments {
		if s.kind == kind {
			return true
		}
	}
	return false
}

// Render substitutes the placeholders. A fingerprint placeholder without an
// explicit length is cut to defaultLen; defaultLen <= 0 keeps the full hash.
func (t *Template) Render(name, fingerprint, ext string, defaultLen int) string {
	var b strings.Builder
	for _, s := range t.segments {
		switch s.kind {
		case segLiteral:
			b.WriteString(s.text)
		case segName:
			b.WriteString(name)
		case segFingerprint:
			n := s.length
			if n == 0 {
				n = defaultLen
			}
			if n > 0 && n < len(fingerprint) {
				b.WriteString(fingerprint[:n])
			} else {
				b.WriteString(fingerprint)
			}
		case segExt:
			b.WriteString(ext)
		case segQuery:
		}
	}
	return b.String()
}

// String returns the template source.
func (t *Template) String() string {
	return t.Source
}

// TemplateSpec holds the raw template strings for each file class.
type TemplateSpec struct {
	Script      string
	ScriptChunk string
	Style       string
	StyleChunk  string
	Asset       string
}

// DefaultTemplates returns the templates used when configuration leaves a
// class unset.
func DefaultTemplates(mode Mode) TemplateSpec {
	spec := TemplateSpec{
		Script:      "static/js/[name].js",
		ScriptChunk: "static/js/[name].chunk.js",
		Style:       "static/css/[name].css",
		StyleChunk:  "static/css/[name].chunk.css",
		Asset:       "static/media/[hash:10][ext][query]",
	}
	if mode.IsProduction() {
		spec.Script = "static/js/[name].[contenthash:10].js"
		spec.ScriptChunk = "static/js/[name].[contenthash:10].chunk.js"
		spec.Style = "static/css/[name].[contenthash:10].css"
		spec.StyleChunk = "static/css/[name].[contenthash:10].chunk.css"
	}
	return spec
}

// WithDefaults fills empty classes from DefaultTemplates(mode).
func (s TemplateSpec) WithDefaults(mode Mode) TemplateSpec {
	d := DefaultTemplates(mode)
	if s.Script == "" {
		s.Script = d.Script
	}
	if s.ScriptChunk == "" {
		s.ScriptChunk = d.ScriptChunk
	}
	if s.Style == "" {
		s.Style = d.Style
	}
	if s.StyleChunk == "" {
		s.StyleChunk = d.StyleChunk
	}
	if s.Asset == "" {
		s.Asset = d.Asset
	}
	return s
}

// Templates is the parsed set of filename templates.
type Templates struct {
	byClass map[FileClass]*Template
}

// ParseTemplates parses every class in spec.
func ParseTemplates(spec TemplateSpec) (*Templates, error) {
	raw := []struct {
		class FileClass
		src   string
	}{
		{ClassScript, spec.Script},
		{ClassScriptChunk, spec.ScriptChunk},
		{ClassStyle, spec.Style},
		{ClassStyleChunk, spec.StyleChunk},
		{ClassAsset, spec.Asset},
	}

	ts := &Templates{byClass: make(map[FileClass]*Template, len(raw))}
	for _, r := range raw {
		t, err := ParseTemplate(r.class, r.src)
		if err != nil {
			return nil, err
		}
		ts.byClass[r.class] = t
	}
	return ts, nil
}

// For returns the template of a class.
func (ts *Templates) For(class FileClass) *Template {
	return ts.byClass[class]
}

// ValidateFor checks the placeholders required by mode. Production needs a
// fingerprint in every template; both modes need [name] in script and style
// templates and a fingerprint in the asset template.
func (ts *Templates) ValidateFor(mode Mode) error {
	for _, class := range []FileClass{ClassScript, ClassScriptChunk, ClassStyle, ClassStyleChunk} {
		t := ts.byClass[class]
		if !t.HasName() {
			return &TemplateError{Class: class, Template: t.Source, Message: "missing required placeholder [name]"}
		}
		if mode.IsProduction() && !t.HasFingerprint() {
			return &TemplateError{Class: class, Template: t.Source,
				Message: "production mode requires a fingerprint placeholder ([contenthash], [fingerprint] or [hash])"}
		}
	}

	asset := ts.byClass[ClassAsset]
	if !asset.HasFingerprint() {
		return &TemplateError{Class: ClassAsset, Template: asset.Source,
			Message: "asset template requires a fingerprint placeholder ([contenthash], [fingerprint] or [hash])"}
	}
	return nil
}
