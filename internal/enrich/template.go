package enrich

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/joseph-ayodele/criteria-extractor/constants"
	"github.com/joseph-ayodele/criteria-extractor/internal/common"
	"github.com/joseph-ayodele/criteria-extractor/internal/utils"
)

// Template field names.
const (
	FieldUserCriteria = "userCriteria"
	FieldSubject      = "soggetto"
	FieldID           = "idDomanda"
	FieldText         = "testo"
	FieldDescription  = "descrizione"
)

var templateSchema = utils.MustCompileSchema(map[string]any{
	"type":     "object",
	"required": []string{FieldUserCriteria},
	"properties": map[string]any{
		FieldUserCriteria: map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "object"},
		},
	},
})

// Template is a decoded criteria template. It is never mutated; Enrich works on a copy.
type Template struct {
	raw []byte
}

// Document is one enriched template. It serializes with the template's key order.
type Document struct {
	root *Object
}

// Get returns a top-level field.
func (d Document) Get(key string) any {
	if d.root == nil {
		return nil
	}
	v, _ := d.root.Get(key)
	return v
}

// ID returns the document's idDomanda.
func (d Document) ID() string {
	s, _ := d.Get(FieldID).(string)
	return s
}

// Subject returns the document's soggetto.
func (d Document) Subject() string {
	s, _ := d.Get(FieldSubject).(string)
	return s
}

// Map returns the document as plain nested maps.
func (d Document) Map() map[string]any {
	if d.root == nil {
		return nil
	}
	return d.root.Map()
}

func (d Document) MarshalJSON() ([]byte, error) {
	if d.root == nil {
		return []byte("null"), nil
	}
	return d.root.MarshalJSON()
}

// Encode renders the document with four-space indentation, keeping
// non-ASCII text as is.
func (d Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ParseTemplate validates raw template JSON.
func ParseTemplate(raw []byte) (*Template, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: template is not valid JSON: %v", common.ErrInvalidInput, err)
	}
	if err := utils.ValidateValue(templateSchema, v); err != nil {
		return nil, errors.Join(common.ErrInvalidInput, err)
	}
	return &Template{raw: append([]byte(nil), raw...)}, nil
}

// LoadTemplate reads and validates a template file.
func LoadTemplate(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return ParseTemplate(raw)
}

// Copy returns a fresh deep copy of the template.
func (t *Template) Copy() (Document, error) {
	v, err := decodeOrdered(t.raw)
	if err != nil {
		return Document{}, fmt.Errorf("copy template: %w", err)
	}
	root, ok := v.(*Object)
	if !ok {
		return Document{}, fmt.Errorf("%w: template is not an object", common.ErrInvalidInput)
	}
	return Document{root: root}, nil
}

// IDGenerator produces idDomanda values.
type IDGenerator func() string

// RandomID returns nine zero-padded random digits.
func RandomID() string {
	return fmt.Sprintf("%09d", rand.Intn(1_000_000_000))
}

// Enrich merges extracted values into a copy of tpl.
//
// Every userCriteria node gets testo from narratives[upper(code)], or the
// not-provided placeholder. When the code's group (the part before the first
// dot) has a description, it replaces descrizione.
func Enrich(tpl *Template, narratives, descriptions map[string]string, subject string, newID IDGenerator) (Document, error) {
	if newID == nil {
		newID = RandomID
	}
	doc, err := tpl.Copy()
	if err != nil {
		return Document{}, err
	}
	doc.root.Set(FieldSubject, subject)
	doc.root.Set(FieldID, newID())

	criteria, ok := doc.Get(FieldUserCriteria).(*Object)
	if !ok {
		return Document{}, fmt.Errorf("%w: %s is not an object", common.ErrInvalidInput, FieldUserCriteria)
	}
	for _, code := range criteria.Keys() {
		n, _ := criteria.Get(code)
		node, ok := n.(*Object)
		if !ok {
			return Document{}, fmt.Errorf("%w: %s.%s is not an object", common.ErrInvalidInput, FieldUserCriteria, code)
		}
		if text, ok := narratives[strings.ToUpper(code)]; ok {
			node.Set(FieldText, text)
		} else {
			node.Set(FieldText, constants.NotProvided)
		}
		group, _, _ := strings.Cut(code, ".")
		if d, ok := descriptions[strings.ToUpper(group)]; ok {
			node.Set(FieldDescription, d)
		}
	}
	return doc, nil
}
