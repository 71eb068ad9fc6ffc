package log

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Fields logrus.Fields

// Entry is a logrus entry bound to a module, with fields evaluated only if the
// message is actually emitted.
type Entry struct {
	mod    Module
	fields []func() Fields
}

func (entry Entry) log() *logrus.Entry {
	final := logrus.StandardLogger().WithField("_mod", entry.mod.String())
	for _, lf := range entry.fields {
		final = final.WithFields(logrus.Fields(lf()))
	}

	if len(contexts) > 0 {
		z := EntryZ{}
		for _, c := range contexts {
			c.AddLogContext(&z)
		}
		final = final.WithFields(z.fields())
	}
	return final
}

func (entry Entry) WithField(key string, value any) Entry {
	return entry.WithDelayedFields(func() Fields { return Fields{key: value} })
}

func (entry Entry) WithFields(fields Fields) Entry {
	return entry.WithDelayedFields(func() Fields { return fields })
}

func (entry Entry) WithDelayedFields(getfields func() Fields) Entry {
	entry.fields = append(entry.fields[:len(entry.fields):len(entry.fields)], getfields)
	return entry
}

func (entry Entry) Debugf(format string, args ...any) {
	if entry.mod.Enabled(DebugLevel) {
		entry.log().Debugf(format, args...)
	}
}

func (entry Entry) Infof(format string, args ...any) {
	if entry.mod.Enabled(InfoLevel) {
		entry.log().Infof(format, args...)
	}
}

func (entry Entry) Warnf(format string, args ...any) {
	if entry.mod.Enabled(WarnLevel) {
		entry.log().Warnf(format, args...)
	}
}

func (entry Entry) Errorf(format string, args ...any) {
	if entry.mod.Enabled(ErrorLevel) {
		entry.log().Errorf(format, args...)
	}
}

func (entry Entry) Fatalf(format string, args ...any) {
	if entry.mod.Enabled(FatalLevel) {
		entry.log().Fatalf(format, args...)
	}
}

// EntryZ is a nullable log entry built with typed fields. All methods are
// no-ops on a nil *EntryZ, so that disabled log statements cost a single
// comparison.
type EntryZ struct {
	mod   Module
	lvl   Level
	msg   string
	zfbuf [16]ZField
	zfidx int
}

var entryPool = sync.Pool{New: func() any { return new(EntryZ) }}

func NewEntryZ() *EntryZ {
	e := entryPool.Get().(*EntryZ)
	e.zfidx = 0
	return e
}

func (e *EntryZ) add(f ZField) *EntryZ {
	if e == nil {
		return nil
	}
	if e.zfidx < len(e.zfbuf) {
		e.zfbuf[e.zfidx] = f
		e.zfidx++
	}
	return e
}

func (e *EntryZ) Bool(key string, v bool) *EntryZ {
	f := ZField{Key: key, kind: kindBool}
	if v {
		f.num = 1
	}
	return e.add(f)
}

func (e *EntryZ) String(key, v string) *EntryZ {
	return e.add(ZField{Key: key, kind: kindString, str: v})
}

func (e *EntryZ) Hex8(key string, v uint8) *EntryZ   { return e.add(hexField(key, uint64(v), 2)) }
func (e *EntryZ) Hex16(key string, v uint16) *EntryZ { return e.add(hexField(key, uint64(v), 4)) }
func (e *EntryZ) Hex32(key string, v uint32) *EntryZ { return e.add(hexField(key, uint64(v), 8)) }
func (e *EntryZ) Hex64(key string, v uint64) *EntryZ { return e.add(hexField(key, v, 16)) }

func (e *EntryZ) Uint8(key string, v uint8) *EntryZ   { return e.add(uintField(key, uint64(v))) }
func (e *EntryZ) Uint16(key string, v uint16) *EntryZ { return e.add(uintField(key, uint64(v))) }
func (e *EntryZ) Uint32(key string, v uint32) *EntryZ { return e.add(uintField(key, uint64(v))) }
func (e *EntryZ) Uint64(key string, v uint64) *EntryZ { return e.add(uintField(key, v)) }

func (e *EntryZ) Int(key string, v int) *EntryZ     { return e.add(intField(key, int64(v))) }
func (e *EntryZ) Int64(key string, v int64) *EntryZ { return e.add(intField(key, v)) }

func (e *EntryZ) Error(key string, err error) *EntryZ {
	f := ZField{Key: key, kind: kindError}
	if err != nil {
		f.val = err
	}
	return e.add(f)
}

func (e *EntryZ) Duration(key string, d time.Duration) *EntryZ {
	return e.add(ZField{Key: key, kind: kindDuration, num: uint64(d)})
}

func (e *EntryZ) Stringer(key string, s fmt.Stringer) *EntryZ {
	f := ZField{Key: key, kind: kindStringer}
	if s != nil {
		f.val = s
	}
	return e.add(f)
}

// Blob adds an hex dump of b.
func (e *EntryZ) Blob(key string, b []byte) *EntryZ {
	return e.add(ZField{Key: key, kind: kindBlob, val: b})
}

func (e *EntryZ) fields() logrus.Fields {
	fields := make(logrus.Fields, e.zfidx)
	for i := range e.zfbuf[:e.zfidx] {
		fields[e.zfbuf[i].Key] = e.zfbuf[i].Value()
	}
	return fields
}

// End emits the entry and releases it. The entry must not be used afterwards.
func (e *EntryZ) End() {
	if e == nil {
		return
	}

	for _, c := range contexts {
		c.AddLogContext(e)
	}

	entry := logrus.StandardLogger().
		WithField("_mod", e.mod.String()).
		WithFields(e.fields())

	lvl, msg := e.lvl, e.msg
	clear(e.zfbuf[:e.zfidx])
	e.zfidx = 0
	entryPool.Put(e)

	switch lvl {
	case DebugLevel:
		entry.Debug(msg)
	case InfoLevel:
		entry.Info(msg)
	case WarnLevel:
		entry.Warn(msg)
	case ErrorLevel:
		entry.Error(msg)
	case FatalLevel:
		entry.Fatal(msg)
	case PanicLevel:
		entry.Panic(msg)
	}
}
