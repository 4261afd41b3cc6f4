package domain

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

var paragraphType = reflect.TypeOf(Paragraph{})

// legacyParagraphHook turns the bare-string paragraphs some data sources still
// supply into the canonical {id, text} record.
func legacyParagraphHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to == paragraphType && from.Kind() == reflect.String {
		return map[string]any{"text": data}, nil
	}
	return data, nil
}

// Decode maps a loosely typed tree (as produced by JSON, YAML or frontmatter
// decoding) onto target, which must be a pointer into the document model.
func Decode(raw any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: legacyParagraphHook,
		TagName:    "json",
		Result:     target,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	return dec.Decode(raw)
}

// DecodeDocument decodes a loosely typed tree into a Document.
func DecodeDocument(raw any) (*Document, error) {
	var doc Document
	if err := Decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}
