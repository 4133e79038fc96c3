package jsontree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Parse reads a single JSON document from r into a Value tree. Numbers
// without a fractional part or exponent decode as KindInt; anything else
// numeric decodes as KindDouble, matching the distinction the tagged tree
// makes between integer and double (encoding/json's own decoder, used here
// only as a tokenizer, does not make that distinction on its own).
func Parse(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("jsontree: parse: %w", err)
	}
	return v, nil
}

// ParseBytes is a convenience wrapper around Parse for an in-memory buffer.
func ParseBytes(data []byte) (Value, error) {
	return Parse(bytes.NewReader(data))
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return numberValue(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			return decodeArray(dec)
		case '{':
			return decodeObject(dec)
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return Value{}, fmt.Errorf("unexpected token %T", tok)
	}
}

func numberValue(n json.Number) Value {
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return Int(i)
	}
	f, _ := n.Float64()
	return Double(f)
}

func decodeArray(dec *json.Decoder) (Value, error) {
	var items []Value
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		v, err := decodeFromToken(dec, tok)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	if _, err := dec.Token(); err != nil { // closing ]
		return Value{}, err
	}
	return Array(items), nil
}

func decodeObject(dec *json.Decoder) (Value, error) {
	obj := map[string]Value{}
	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		v, err := decodeFromToken(dec, valTok)
		if err != nil {
			return Value{}, err
		}
		if _, exists := obj[key]; !exists {
			keys = append(keys, key)
		}
		obj[key] = v
	}
	if _, err := dec.Token(); err != nil { // closing }
		return Value{}, err
	}
	return Value{kind: KindObject, obj: obj, keys: keys}, nil
}

// Marshal renders v as compact JSON text, preserving object member order
// as recorded by the builder (or by Parse's insertion order).
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, fmt.Errorf("jsontree: marshal: %w", err)
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindDouble:
		buf.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		writeJSONString(buf, v.s)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, key := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, key)
			buf.WriteByte(':')
			if err := writeValue(buf, v.obj[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unhandled kind %v", v.kind)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	enc, _ := json.Marshal(s)
	buf.Write(enc)
}
