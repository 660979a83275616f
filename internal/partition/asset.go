package partition

import (
	"encoding/base64"
	"mime"
	"regexp"
	"strings"
)

// AssetRuleSpec declares how matching asset modules are emitted.
type AssetRuleSpec struct {
	Name string

	// Test is a regular expression over the module ID.
	Test string

	// InlineLimit is the size in bytes below which an asset is inlined as a
	// data URI. Zero means always emit a separate file.
	InlineLimit int64
}

// AssetRule is a compiled asset rule.
type AssetRule struct {
	Name        string
	InlineLimit int64

	test *regexp.Regexp
}

// Inline reports whether an asset of the given size is embedded.
func (r *AssetRule) Inline(size int64) bool {
	return r.InlineLimit > 0 && size < r.InlineLimit
}

// AssetRules is an ordered list of asset rules. The first match applies.
type AssetRules struct {
	rules []*AssetRule
}

// DefaultAssetRules returns the image and font rules: images below 10 KiB
// are inlined, fonts are always emitted.
func DefaultAssetRules() []AssetRuleSpec {
	return []AssetRuleSpec{
		{Name: "images", Test: `\.(jpe?g|png|gif|webp|svg)$`, InlineLimit: 10 * 1024},
		{Name: "fonts", Test: `\.(woff2?|ttf|eot|otf)$`},
	}
}

// CompileAssetRules compiles specs in declaration order.
func CompileAssetRules(specs []AssetRuleSpec) (*AssetRules, error) {
	ar := &AssetRules{rules: make([]*AssetRule, 0, len(specs))}
	for i, spec := range specs {
		if spec.Test == "" {
			return nil, &RuleError{Set: "assets", Index: i, Name: spec.Name, Field: "test",
				Message: "asset rule needs a test pattern"}
		}
		if spec.InlineLimit < 0 {
			return nil, &RuleError{Set: "assets", Index: i, Name: spec.Name,
				Message: "inline limit must not be negative"}
		}
		re, err := regexp.Compile(spec.Test)
		if err != nil {
			return nil, &RuleError{Set: "assets", Index: i, Name: spec.Name, Field: "test", Value: spec.Test,
				Message: "invalid pattern", Cause: err}
		}
		ar.rules = append(ar.rules, &AssetRule{Name: spec.Name, InlineLimit: spec.InlineLimit, test: re})
	}
	return ar, nil
}

// Find returns the first rule matching id, or nil.
func (ar *AssetRules) Find(id string) *AssetRule {
	if ar == nil {
		return nil
	}
	for _, r := range ar.rules {
		if r.test.MatchString(id) {
			return r
		}
	}
	return nil
}

// IsAsset reports whether any rule matches id.
func (ar *AssetRules) IsAsset(id string) bool {
	return ar.Find(id) != nil
}

// Len returns the number of rules.
func (ar *AssetRules) Len() int {
	if ar == nil {
		return 0
	}
	return len(ar.rules)
}

// mediaTypes pins the types of common web assets so data URIs do not
// depend on the host's mime tables.
var mediaTypes = map[string]string{
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".webp":  "image/webp",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".eot":   "application/vnd.ms-fontobject",
}

// MediaType returns the media type for a file extension.
func MediaType(ext string) string {
	ext = strings.ToLower(ext)
	if t, ok := mediaTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// DataURI encodes contents as a base64 data URI.
func DataURI(ext string, contents []byte) string {
	return "data:" + MediaType(ext) + ";base64," + base64.StdEncoding.EncodeToString(contents)
}
