package snapshot

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/go-faster/jx"
)

var (
	ErrVersion = errors.New("unsupported snapshot version")
	ErrFormat  = errors.New("malformed snapshot")
)

// Encode writes the JSON encoding of s to w. Byte slices and byte arrays are
// encoded as base64 strings, other values follow the Go types field by field.
func Encode(w io.Writer, s *NES) error {
	var e jx.Encoder
	encodeValue(&e, reflect.ValueOf(s))
	_, err := w.Write(e.Bytes())
	return err
}

// Decode parses a snapshot previously written with Encode. Unknown fields
// are ignored, missing ones keep their zero value.
func Decode(buf []byte) (*NES, error) {
	var s NES
	d := jx.DecodeBytes(buf)
	if err := decodeValue(d, reflect.ValueOf(&s).Elem()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if s.Version != Version {
		return nil, fmt.Errorf("%w: %d (want %d)", ErrVersion, s.Version, Version)
	}
	return &s, nil
}

func isBytes(t reflect.Type) bool {
	return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() == reflect.Uint8
}

func encodeValue(e *jx.Encoder, v reflect.Value) {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			e.Null()
			return
		}
		encodeValue(e, v.Elem())

	case reflect.Struct:
		e.ObjStart()
		t := v.Type()
		for i := range t.NumField() {
			if !t.Field(i).IsExported() {
				continue
			}
			e.FieldStart(t.Field(i).Name)
			encodeValue(e, v.Field(i))
		}
		e.ObjEnd()

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			e.Null()
			return
		}
		if isBytes(v.Type()) {
			buf := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(buf), v)
			e.Base64(buf)
			return
		}
		e.ArrStart()
		for i := range v.Len() {
			encodeValue(e, v.Index(i))
		}
		e.ArrEnd()

	case reflect.Bool:
		e.Bool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.Int64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		e.UInt64(v.Uint())
	case reflect.String:
		e.Str(v.String())
	default:
		panic(fmt.Sprintf("snapshot: unsupported type %s", v.Type()))
	}
}

func decodeValue(d *jx.Decoder, v reflect.Value) error {
	if d.Next() == jx.Null {
		v.SetZero()
		return d.Null()
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return decodeValue(d, v.Elem())

	case reflect.Struct:
		return d.Obj(func(d *jx.Decoder, key string) error {
			f := v.FieldByName(key)
			if !f.IsValid() || !f.CanSet() {
				return d.Skip()
			}
			if err := decodeValue(d, f); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			return nil
		})

	case reflect.Slice, reflect.Array:
		if isBytes(v.Type()) {
			buf, err := d.Base64()
			if err != nil {
				return err
			}
			if v.Kind() == reflect.Slice {
				v.Set(reflect.MakeSlice(v.Type(), len(buf), len(buf)))
			} else if len(buf) != v.Len() {
				return fmt.Errorf("got %d bytes, want %d", len(buf), v.Len())
			}
			reflect.Copy(v, reflect.ValueOf(buf))
			return nil
		}

		if v.Kind() == reflect.Slice {
			v.Set(v.Slice(0, 0))
		}
		i := 0
		return d.Arr(func(d *jx.Decoder) error {
			if v.Kind() == reflect.Slice {
				v.Set(reflect.Append(v, reflect.Zero(v.Type().Elem())))
			} else if i >= v.Len() {
				return fmt.Errorf("too many elements, want %d", v.Len())
			}
			err := decodeValue(d, v.Index(i))
			i++
			return err
		})

	case reflect.Bool:
		b, err := d.Bool()
		v.SetBool(b)
		return err

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := d.Int64()
		if err != nil {
			return err
		}
		if v.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, v.Type())
		}
		v.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := d.UInt64()
		if err != nil {
			return err
		}
		if v.OverflowUint(n) {
			return fmt.Errorf("%d overflows %s", n, v.Type())
		}
		v.SetUint(n)
		return nil

	case reflect.String:
		s, err := d.Str()
		v.SetString(s)
		return err
	}
	return fmt.Errorf("unsupported type %s", v.Type())
}
