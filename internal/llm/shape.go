package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/joseph-ayodele/criteria-extractor/constants"
	"github.com/joseph-ayodele/criteria-extractor/internal/common"
)

// Shape tags which layout a model response had.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeList
	ShapeKnownKey
	ShapeFirstListKey
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeKnownKey:
		return "known_key"
	case ShapeFirstListKey:
		return "first_list_key"
	default:
		return "unknown"
	}
}

// Decoded is the list found in a response and where it was found.
type Decoded struct {
	Shape Shape
	Key   string
	Items []any
}

type field struct {
	key   string
	value any
}

// document is a decoded top-level JSON value. Object fields keep their wire order.
type document struct {
	isList bool
	list   []any
	fields []field
}

type shapeMatcher func(doc document) (Decoded, bool)

// shapeMatchers run in order; the first hit wins.
var shapeMatchers = []shapeMatcher{
	matchBareList,
	matchKnownKey,
	matchFirstListKey,
}

func matchBareList(doc document) (Decoded, bool) {
	if !doc.isList {
		return Decoded{}, false
	}
	return Decoded{Shape: ShapeList, Items: doc.list}, true
}

func matchKnownKey(doc document) (Decoded, bool) {
	for _, key := range constants.ResponseListKeys {
		for _, f := range doc.fields {
			if f.key != key {
				continue
			}
			if items, ok := f.value.([]any); ok {
				return Decoded{Shape: ShapeKnownKey, Key: key, Items: items}, true
			}
		}
	}
	return Decoded{}, false
}

func matchFirstListKey(doc document) (Decoded, bool) {
	for _, f := range doc.fields {
		if items, ok := f.value.([]any); ok {
			return Decoded{Shape: ShapeFirstListKey, Key: f.key, Items: items}, true
		}
	}
	return Decoded{}, false
}

// DecodeShape finds the list of items in a model response. Invalid JSON is
// ErrInvalidInput; valid JSON without a usable list is ErrUnrecognizedShape.
func DecodeShape(raw []byte) (Decoded, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return Decoded{}, err
	}
	for _, m := range shapeMatchers {
		if d, ok := m(doc); ok {
			if d.Items == nil {
				d.Items = []any{}
			}
			return d, nil
		}
	}
	return Decoded{}, common.ErrUnrecognizedShape
}

func decodeDocument(raw []byte) (document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return document{}, fmt.Errorf("%w: decode response: %v", common.ErrInvalidInput, err)
	}

	var doc document
	switch tok {
	case json.Delim('['):
		var list []any
		if err := json.Unmarshal(raw, &list); err != nil {
			return document{}, fmt.Errorf("%w: decode response: %v", common.ErrInvalidInput, err)
		}
		doc.isList = true
		doc.list = list
		return doc, nil
	case json.Delim('{'):
	default:
		// scalar: valid JSON but never a list
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return document{}, fmt.Errorf("%w: decode response: trailing data", common.ErrInvalidInput)
		}
		return doc, nil
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return document{}, fmt.Errorf("%w: decode response: %v", common.ErrInvalidInput, err)
		}
		key, _ := keyTok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return document{}, fmt.Errorf("%w: decode response: %v", common.ErrInvalidInput, err)
		}
		doc.fields = append(doc.fields, field{key: key, value: v})
	}
	if _, err := dec.Token(); err != nil {
		return document{}, fmt.Errorf("%w: decode response: %v", common.ErrInvalidInput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return document{}, fmt.Errorf("%w: decode response: trailing data", common.ErrInvalidInput)
	}
	return doc, nil
}
