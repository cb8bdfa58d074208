// Package response models schema-less visit questionnaire answers and renders
// them for human inspection.
package response

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/elliotchance/orderedmap/v2"
	jsoniter "github.com/json-iterator/go"
)

// MaxDepth is the default nesting cap for rendering and compact serialization.
const MaxDepth = 64

// ErrDepthExceeded is returned when a value nests deeper than MaxDepth.
var ErrDepthExceeded = errors.New("value nested too deeply")

// Type is the JSON shape of a Value.
type Type int

const (
	TypeNull Type = iota
	TypeBool
	TypeNumber
	TypeString
	TypeArray
	TypeObject
)

// String returns the JSON name of the type.
func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Value is one decoded JSON answer. Objects keep their keys in document order.
// The zero Value is null.
type Value struct {
	typ    Type
	flag   bool
	text   string // number literal or string content
	items  []Value
	fields *orderedmap.OrderedMap[string, Value]
}

// Field is a key/value pair used to build objects.
type Field struct {
	Key   string
	Value Value
}

// numberPattern is the JSON number grammar. The iterator reads any run of
// number characters, so literals are checked before they are kept verbatim.
var numberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

var jsonAPI = jsoniter.Config{
	EscapeHTML: false,
	UseNumber:  true,
}.Froze()

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{typ: TypeBool, flag: b} }

// Number wraps a JSON number literal. The literal is kept verbatim.
func Number(literal string) Value { return Value{typ: TypeNumber, text: literal} }

func String(s string) Value { return Value{typ: TypeString, text: s} }

func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{typ: TypeArray, items: items}
}

// Object builds an object value; later duplicates overwrite earlier values but
// keep the first position.
func Object(fields ...Field) Value {
	m := orderedmap.NewOrderedMap[string, Value]()
	for _, f := range fields {
		m.Set(f.Key, f.Value)
	}
	return Value{typ: TypeObject, fields: m}
}

// Type returns the JSON shape of v.
func (v Value) Type() Type { return v.typ }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.typ == TypeNull }

// BoolValue returns the boolean content; false for non-bools.
func (v Value) BoolValue() bool { return v.typ == TypeBool && v.flag }

// Items returns the elements of an array; nil for non-arrays.
func (v Value) Items() []Value {
	if v.typ != TypeArray {
		return nil
	}
	return v.items
}

// Keys returns an object's own keys in document order. Non-objects have no keys.
func (v Value) Keys() []string {
	if v.typ != TypeObject || v.fields == nil {
		return nil
	}
	keys := make([]string, 0, v.fields.Len())
	for el := v.fields.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}
	return keys
}

// Len returns the number of elements or keys.
func (v Value) Len() int {
	switch v.typ {
	case TypeArray:
		return len(v.items)
	case TypeObject:
		if v.fields == nil {
			return 0
		}
		return v.fields.Len()
	default:
		return 0
	}
}

// Get looks up key by exact equality. ok is false for missing keys and non-objects.
func (v Value) Get(key string) (Value, bool) {
	if v.typ != TypeObject || v.fields == nil {
		return Value{}, false
	}
	return v.fields.Get(key)
}

// Text returns the scalar text of v: strings as-is, numbers as their literal,
// booleans as "true"/"false", null as "". Compound values return their
// compact JSON, or "" if it cannot be produced.
func (v Value) Text() string {
	switch v.typ {
	case TypeNull:
		return ""
	case TypeBool:
		if v.flag {
			return "true"
		}
		return "false"
	case TypeNumber, TypeString:
		return v.text
	default:
		data, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// Join returns the elements of an array joined by sep. Scalar elements use
// their Text, compound elements their compact JSON.
func (v Value) Join(sep string) (string, error) {
	parts := make([]string, 0, len(v.items))
	for _, item := range v.Items() {
		switch item.typ {
		case TypeArray, TypeObject:
			data, err := item.MarshalJSON()
			if err != nil {
				return "", err
			}
			parts = append(parts, string(data))
		default:
			parts = append(parts, item.Text())
		}
	}
	return strings.Join(parts, sep), nil
}

// Parse decodes JSON into a Value, preserving object key order. The input
// must hold exactly one complete value, optionally surrounded by whitespace.
func Parse(data []byte) (Value, error) {
	iter := jsoniter.ParseBytes(jsonAPI, data)
	v := readValue(iter)
	switch {
	case iter.Error == io.EOF:
		// Only a bare top-level number may run into the end of input.
		// Anything else hitting EOF was truncated.
		if v.typ != TypeNumber {
			return Value{}, errors.New("failed to parse response value: unexpected end of input")
		}
		return v, nil
	case iter.Error != nil:
		return Value{}, errors.Wrap(iter.Error, "failed to parse response value")
	}

	iter.WhatIsNext()
	if iter.Error != io.EOF {
		return Value{}, errors.New("failed to parse response value: unexpected data after the value")
	}
	return v, nil
}

func readValue(iter *jsoniter.Iterator) Value {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		return Null()
	case jsoniter.BoolValue:
		return Bool(iter.ReadBool())
	case jsoniter.NumberValue:
		literal := string(iter.ReadNumber())
		if !numberPattern.MatchString(literal) {
			iter.ReportError("readValue", "invalid number "+literal)
			return Value{}
		}
		return Number(literal)
	case jsoniter.StringValue:
		return String(iter.ReadString())
	case jsoniter.ArrayValue:
		items := []Value{}
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			items = append(items, readValue(it))
			return it.Error == nil
		})
		return Array(items...)
	case jsoniter.ObjectValue:
		fields := orderedmap.NewOrderedMap[string, Value]()
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			fields.Set(key, readValue(it))
			return it.Error == nil
		})
		return Value{typ: TypeObject, fields: fields}
	default:
		iter.ReportError("readValue", "expected a JSON value")
		return Value{}
	}
}

// MarshalJSON writes v as compact JSON in document key order.
func (v Value) MarshalJSON() ([]byte, error) {
	stream := jsonAPI.BorrowStream(nil)
	defer jsonAPI.ReturnStream(stream)

	if err := writeValue(stream, v, 0); err != nil {
		return nil, err
	}
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func writeValue(stream *jsoniter.Stream, v Value, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("%w: more than %d levels", ErrDepthExceeded, MaxDepth)
	}

	switch v.typ {
	case TypeNull:
		stream.WriteNil()
	case TypeBool:
		stream.WriteBool(v.flag)
	case TypeNumber:
		stream.WriteRaw(v.text)
	case TypeString:
		stream.WriteString(v.text)
	case TypeArray:
		stream.WriteArrayStart()
		for i, item := range v.items {
			if i > 0 {
				stream.WriteMore()
			}
			if err := writeValue(stream, item, depth+1); err != nil {
				return err
			}
		}
		stream.WriteArrayEnd()
	case TypeObject:
		stream.WriteObjectStart()
		if v.fields != nil {
			first := true
			for el := v.fields.Front(); el != nil; el = el.Next() {
				if !first {
					stream.WriteMore()
				}
				first = false
				stream.WriteObjectField(el.Key)
				if err := writeValue(stream, el.Value, depth+1); err != nil {
					return err
				}
			}
		}
		stream.WriteObjectEnd()
	}
	return nil
}
