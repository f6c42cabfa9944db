// Copyright (C) 2025-2026, Memodex, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package keys canonicalizes call arguments into cache keys.
//
// Positional arguments are encoded in order; two calls with the same values
// in a different order get different keys. Named arguments are sorted by name
// before encoding, so the same name/value pairs always produce the same key.
package keys

import (
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ErrUnsupportedKey is returned when an argument cannot be canonicalized into
// a cache key. Functions, channels, unsafe pointers, and cyclic structures
// have no value-based identity to key on.
var ErrUnsupportedKey = errors.New("keys: unsupported key argument")

// Make builds a canonical cache key from positional and named arguments.
// Either slice may be nil. Two argument sets produce the same key if and only
// if their values are equal, with named argument order ignored.
func Make(args []any, named map[string]any) (string, error) {
	return makeKey(args, named, false)
}

// MakePermissive is Make with a fallback for unsupported arguments: instead
// of failing, the argument is encoded from its Go-syntax representation, or
// its address for cyclic references. Distinct values with identical
// representations will share a cache entry, so prefer Make unless the
// argument types are known to render faithfully.
func MakePermissive(args []any, named map[string]any) string {
	key, _ := makeKey(args, named, true)
	return key
}

// Digest returns a fixed-size xxhash digest of the canonical key, for stores
// keyed by uint64 rather than the full canonical string. A digest collision
// conflates two distinct argument sets, which the full Make key never does.
func Digest(args []any, named map[string]any) (uint64, error) {
	key, err := Make(args, named)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64String(key), nil
}

func makeKey(args []any, named map[string]any, permissive bool) (string, error) {
	e := &encoder{permissive: permissive}
	b := make([]byte, 0, 64)
	var err error
	for i, arg := range args {
		if i > 0 {
			b = append(b, ',')
		}
		b, err = e.appendArg(b, arg)
		if err != nil {
			return "", err
		}
	}
	if len(named) > 0 {
		names := make([]string, 0, len(named))
		for name := range named {
			names = append(names, name)
		}
		sort.Strings(names)

		b = append(b, '|')
		for i, name := range names {
			if i > 0 {
				b = append(b, ',')
			}
			b = appendString(b, 'n', name)
			b = append(b, '=')
			b, err = e.appendArg(b, named[name])
			if err != nil {
				return "", err
			}
		}
	}
	return string(b), nil
}

// encoder carries the encoding mode and the set of references currently being
// encoded, so cyclic structures are detected instead of recursed into.
type encoder struct {
	permissive bool
	seen       map[uintptr]struct{}
}

// enter marks a reference as in progress. Reports false when the reference is
// already being encoded further up the stack, meaning the value is cyclic.
func (e *encoder) enter(addr uintptr) bool {
	if _, ok := e.seen[addr]; ok {
		return false
	}
	if e.seen == nil {
		e.seen = make(map[uintptr]struct{})
	}
	e.seen[addr] = struct{}{}
	return true
}

func (e *encoder) leave(addr uintptr) {
	delete(e.seen, addr)
}

// cyclic ends the walk at a back-reference: an error in strict mode, an
// address-based stand-in when permissive.
func (e *encoder) cyclic(b []byte, addr uintptr) ([]byte, error) {
	if e.permissive {
		return appendString(b, 'p', "cycle:"+strconv.FormatUint(uint64(addr), 16)), nil
	}
	return nil, fmt.Errorf("%w: cyclic reference", ErrUnsupportedKey)
}

func (e *encoder) appendArg(b []byte, v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return append(b, 'z'), nil
	case bool:
		if x {
			return append(b, 'b', '1'), nil
		}
		return append(b, 'b', '0'), nil
	case string:
		return appendString(b, 's', x), nil
	case []byte:
		return appendString(b, 'x', string(x)), nil
	case int:
		return strconv.AppendInt(append(b, 'i'), int64(x), 10), nil
	case int8:
		return strconv.AppendInt(append(b, 'i'), int64(x), 10), nil
	case int16:
		return strconv.AppendInt(append(b, 'i'), int64(x), 10), nil
	case int32:
		return strconv.AppendInt(append(b, 'i'), int64(x), 10), nil
	case int64:
		return strconv.AppendInt(append(b, 'i'), x, 10), nil
	case uint:
		return strconv.AppendUint(append(b, 'u'), uint64(x), 10), nil
	case uint8:
		return strconv.AppendUint(append(b, 'u'), uint64(x), 10), nil
	case uint16:
		return strconv.AppendUint(append(b, 'u'), uint64(x), 10), nil
	case uint32:
		return strconv.AppendUint(append(b, 'u'), uint64(x), 10), nil
	case uint64:
		return strconv.AppendUint(append(b, 'u'), x, 10), nil
	case uintptr:
		return strconv.AppendUint(append(b, 'u'), uint64(x), 10), nil
	case float32:
		return strconv.AppendFloat(append(b, 'f'), float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.AppendFloat(append(b, 'f'), x, 'g', -1, 64), nil
	case complex64:
		return appendString(b, 'c', strconv.FormatComplex(complex128(x), 'g', -1, 64)), nil
	case complex128:
		return appendString(b, 'c', strconv.FormatComplex(x, 'g', -1, 128)), nil
	case encoding.TextMarshaler:
		txt, err := x.MarshalText()
		if err != nil {
			if e.permissive {
				return appendString(b, 'p', fmt.Sprintf("%#v", v)), nil
			}
			return nil, fmt.Errorf("%w: marshaling %T: %v", ErrUnsupportedKey, v, err)
		}
		return appendString(b, 't', string(txt)), nil
	case fmt.Stringer:
		return appendString(b, 'S', x.String()), nil
	default:
		return e.appendValue(b, reflect.ValueOf(v))
	}
}

func (e *encoder) appendValue(b []byte, rv reflect.Value) ([]byte, error) {
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return append(b, 'b', '1'), nil
		}
		return append(b, 'b', '0'), nil
	case reflect.String:
		return appendString(b, 's', rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.AppendInt(append(b, 'i'), rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.AppendUint(append(b, 'u'), rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.AppendFloat(append(b, 'f'), rv.Float(), 'g', -1, 64), nil
	case reflect.Complex64, reflect.Complex128:
		return appendString(b, 'c', strconv.FormatComplex(rv.Complex(), 'g', -1, 128)), nil
	case reflect.Interface:
		if rv.IsNil() {
			return append(b, 'z'), nil
		}
		return e.appendValue(b, rv.Elem())
	case reflect.Pointer:
		if rv.IsNil() {
			return append(b, 'z'), nil
		}
		addr := rv.Pointer()
		if !e.enter(addr) {
			return e.cyclic(b, addr)
		}
		defer e.leave(addr)
		return e.appendValue(b, rv.Elem())
	case reflect.Struct:
		return e.appendStruct(b, rv)
	case reflect.Array:
		return e.appendSeq(b, rv)
	case reflect.Slice:
		if rv.IsNil() {
			return append(b, 'z'), nil
		}
		addr := rv.Pointer()
		if !e.enter(addr) {
			return e.cyclic(b, addr)
		}
		defer e.leave(addr)
		return e.appendSeq(b, rv)
	case reflect.Map:
		return e.appendMap(b, rv)
	default:
		if e.permissive && rv.IsValid() && rv.CanInterface() {
			return appendString(b, 'p', fmt.Sprintf("%#v", rv.Interface())), nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKey, rv.Kind())
	}
}

// appendStruct keys a struct by its type name and exported fields. Unexported
// fields do not participate in the key.
func (e *encoder) appendStruct(b []byte, rv reflect.Value) ([]byte, error) {
	t := rv.Type()
	b = appendString(b, 'T', t.String())
	b = append(b, '{')
	var err error
	for i := 0; i < rv.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		b = appendString(b, 'n', f.Name)
		b = append(b, '=')
		b, err = e.appendArg(b, rv.Field(i).Interface())
		if err != nil {
			return nil, err
		}
		b = append(b, ';')
	}
	return append(b, '}'), nil
}

func (e *encoder) appendSeq(b []byte, rv reflect.Value) ([]byte, error) {
	b = append(b, '[')
	var err error
	for i := 0; i < rv.Len(); i++ {
		b, err = e.appendArg(b, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		b = append(b, ';')
	}
	return append(b, ']'), nil
}

// appendMap encodes each key/value pair independently and sorts the encoded
// pairs, so iteration order never leaks into the key.
func (e *encoder) appendMap(b []byte, rv reflect.Value) ([]byte, error) {
	if rv.IsNil() {
		return append(b, 'z'), nil
	}
	addr := rv.Pointer()
	if !e.enter(addr) {
		return e.cyclic(b, addr)
	}
	defer e.leave(addr)

	pairs := make([][]byte, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		p, err := e.appendArg(nil, iter.Key().Interface())
		if err != nil {
			return nil, err
		}
		p = append(p, '=')
		p, err = e.appendArg(p, iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		return bytes.Compare(pairs[i], pairs[j]) < 0
	})
	b = append(b, 'm', '{')
	for _, p := range pairs {
		b = append(b, p...)
		b = append(b, ';')
	}
	return append(b, '}'), nil
}

// appendString writes a tagged, length-prefixed string so that keys never
// become ambiguous at value boundaries.
func appendString(b []byte, tag byte, s string) []byte {
	b = append(b, tag)
	b = strconv.AppendInt(b, int64(len(s)), 10)
	b = append(b, ':')
	return append(b, s...)
}
