// Package minifier minifies emitted scripts and styles.
package minifier

import (
	"fmt"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

const (
	mediaScript = "application/javascript"
	mediaStyle  = "text/css"
)

// m is shared; minify.M is safe for concurrent use.
var m = newMinifier()

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mediaScript, js.Minify)
	m.AddFunc(mediaStyle, css.Minify)
	return m
}

// Script minifies JavaScript source.
func Script(src []byte) ([]byte, error) {
	out, err := m.Bytes(mediaScript, src)
	if err != nil {
		return nil, fmt.Errorf("minifying script: %w", err)
	}
	return out, nil
}

// Style minifies a stylesheet.
func Style(src []byte) ([]byte, error) {
	out, err := m.Bytes(mediaStyle, src)
	if err != nil {
		return nil, fmt.Errorf("minifying style: %w", err)
	}
	return out, nil
}
