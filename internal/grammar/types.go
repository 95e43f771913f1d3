// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package grammar

import (
	"strconv"
	"strings"
)

type TypeKind uint8

const (
	TypeNamed TypeKind = iota
	TypeToken
	TypeField
	TypeSequence
	TypeFieldSequence
	TypeOptional
)

// Type is the structured result type of a rule or item. Field and
// FieldSequence model the ownership wrappers used for tree nodes so that
// loops over fields become field sequences without rewriting type text.
type Type struct {
	Kind TypeKind
	Name string
	Elem *Type
}

func Named(name string) *Type {
	return &Type{Kind: TypeNamed, Name: name}
}

func TokenType() *Type {
	return &Type{Kind: TypeToken}
}

func FieldOf(t *Type) *Type {
	return &Type{Kind: TypeField, Elem: t}
}

// SequenceOf is the type of a loop over elements of type t. A loop over
// fields is a field sequence of the wrapped type.
func SequenceOf(t *Type) *Type {
	if t.Kind == TypeField {
		return &Type{Kind: TypeFieldSequence, Elem: t.Elem}
	}
	return &Type{Kind: TypeSequence, Elem: t}
}

func OptionalOf(t *Type) *Type {
	return &Type{Kind: TypeOptional, Elem: t}
}

// ElemType is the element type of a sequence or field sequence.
func (t *Type) ElemType() *Type {
	switch t.Kind {
	case TypeSequence:
		return t.Elem
	case TypeFieldSequence:
		return FieldOf(t.Elem)
	default:
		return nil
	}
}

// TypeNames are the Go spellings used when rendering types.
type TypeNames struct {
	// Namespace prefixes tree-node types eligible for field wrapping.
	Namespace     string `yaml:"namespace"`
	Field         string `yaml:"field"`
	FieldSequence string `yaml:"sequence"`
	Token         string `yaml:"token"`
	Optional      string `yaml:"optional"`
}

var DefaultTypeNames = TypeNames{
	Namespace:     "ast.",
	Field:         "ast.Field",
	FieldSequence: "ast.Sequence",
	Token:         "peg.Token",
	Optional:      "optional.Optional",
}

// WithDefaults fills empty names from DefaultTypeNames.
func (n TypeNames) WithDefaults() TypeNames {
	if n.Namespace == "" {
		n.Namespace = DefaultTypeNames.Namespace
	}
	if n.Field == "" {
		n.Field = DefaultTypeNames.Field
	}
	if n.FieldSequence == "" {
		n.FieldSequence = DefaultTypeNames.FieldSequence
	}
	if n.Token == "" {
		n.Token = DefaultTypeNames.Token
	}
	if n.Optional == "" {
		n.Optional = DefaultTypeNames.Optional
	}
	return n
}

func (t *Type) Render(n TypeNames) string {
	switch t.Kind {
	case TypeToken:
		return n.Token
	case TypeField:
		return n.Field + "[" + t.Elem.Render(n) + "]"
	case TypeSequence:
		return "[]" + t.Elem.Render(n)
	case TypeFieldSequence:
		return n.FieldSequence + "[" + t.Elem.Render(n) + "]"
	case TypeOptional:
		return n.Optional + "[" + t.Elem.Render(n) + "]"
	default:
		return t.Name
	}
}

func (t *Type) String() string {
	return t.Render(DefaultTypeNames)
}

func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.String() == o.String()
}

// Parse reads Go type text into a Type, recognizing the configured
// wrapper spellings.
func (n TypeNames) Parse(text string) *Type {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "[]") {
		return &Type{Kind: TypeSequence, Elem: n.Parse(text[2:])}
	}
	if text == n.Token {
		return TokenType()
	}
	for _, wrapper := range []struct {
		prefix string
		kind   TypeKind
	}{
		{n.Optional, TypeOptional},
		{n.FieldSequence, TypeFieldSequence},
		{n.Field, TypeField},
	} {
		if strings.HasPrefix(text, wrapper.prefix+"[") && strings.HasSuffix(text, "]") {
			inner := text[len(wrapper.prefix)+1 : len(text)-1]
			return &Type{Kind: wrapper.kind, Elem: n.Parse(inner)}
		}
	}
	return Named(text)
}

// Wrap applies the field ownership wrapper to plain tree-node types.
func (n TypeNames) Wrap(t *Type) *Type {
	if t.Kind != TypeNamed || !strings.HasPrefix(t.Name, n.Namespace) || strings.Contains(t.Name, "[") {
		return t
	}
	return FieldOf(t)
}

// Unquote strips one level of single or double quotes from s, resolving
// escapes. Unquoted text is returned unchanged.
func Unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	if strings.HasPrefix(s, `"""`) && strings.HasSuffix(s, `"""`) && len(s) >= 6 {
		return s[3 : len(s)-3]
	}
	if strings.HasPrefix(s, `'''`) && strings.HasSuffix(s, `'''`) && len(s) >= 6 {
		return s[3 : len(s)-3]
	}
	quote := s[0]
	if (quote != '\'' && quote != '"') || s[len(s)-1] != quote {
		return s
	}
	body := s[1 : len(s)-1]
	if quote == '\'' {
		body = strings.ReplaceAll(body, `\'`, `'`)
		body = strings.ReplaceAll(body, `"`, `\"`)
	}
	v, err := strconv.Unquote(`"` + body + `"`)
	if err != nil {
		return body
	}
	return v
}
