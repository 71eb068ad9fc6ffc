package log

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

type fieldKind uint8

const (
	kindBool fieldKind = iota + 1
	kindString
	kindUint
	kindInt
	kindHex // num holds the value, width its number of digits
	kindError
	kindDuration
	kindStringer
	kindBlob
)

// A ZField is a typed key/value pair of an EntryZ. Values are only formatted
// when the entry is emitted.
type ZField struct {
	Key string

	kind  fieldKind
	width uint8
	num   uint64
	str   string
	val   any
}

func hexField(key string, v uint64, width uint8) ZField {
	return ZField{Key: key, kind: kindHex, num: v, width: width}
}

func uintField(key string, v uint64) ZField {
	return ZField{Key: key, kind: kindUint, num: v}
}

func intField(key string, v int64) ZField {
	return ZField{Key: key, kind: kindInt, num: uint64(v)}
}

// Value returns the formatted value of f. Hex values are printed the way
// 6502 assemblers do, e.g. $2002.
func (f *ZField) Value() string {
	switch f.kind {
	case kindBool:
		return strconv.FormatBool(f.num != 0)
	case kindString:
		return f.str
	case kindUint:
		return strconv.FormatUint(f.num, 10)
	case kindInt:
		return strconv.FormatInt(int64(f.num), 10)
	case kindHex:
		return fmt.Sprintf("$%0*X", f.width, f.num)
	case kindError:
		if f.val == nil {
			return "<nil>"
		}
		return f.val.(error).Error()
	case kindDuration:
		return time.Duration(f.num).String()
	case kindStringer:
		if f.val == nil {
			return "<nil>"
		}
		return f.val.(fmt.Stringer).String()
	case kindBlob:
		return hex.Dump(f.val.([]byte))
	}
	return ""
}
