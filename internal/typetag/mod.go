// Package typetag computes a stable 64-bit identity of a Go type.
//
// Two tags are equal if and only if they are computed for the same type,
// except with a negligible probability of collision of the 64-bit hash. The
// tags are stable within a build but are not meant to be compared across
// builds or across languages.
package typetag

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Tag is the identity of a type.
type Tag uint64

// Raw is the reserved tag of untyped payloads. It is never returned by Of or
// OfType.
const Raw Tag = 0

// String implements fmt.Stringer. It returns the hexadecimal representation
// of the tag.
func (t Tag) String() string {
	return fmt.Sprintf("%016x", uint64(t))
}

// Of returns the tag of the type parameter.
func Of[T any]() Tag {
	// A nil pointer to T keeps interface types as themselves instead of the
	// dynamic type of a value.
	return OfType(reflect.TypeOf((*T)(nil)).Elem())
}

// OfType returns the tag of the given type.
func OfType(typ reflect.Type) Tag {
	var b strings.Builder
	canonical(&b, typ)

	tag := Tag(xxhash.Sum64String(b.String()))
	if tag == Raw {
		tag = 1
	}

	return tag
}

// canonical writes a representation of the type that includes the package
// path of every named type it references, so that two types with the same
// name in different packages do not collide like they would with
// reflect.Type.String.
func canonical(b *strings.Builder, typ reflect.Type) {
	if typ.Name() != "" {
		if typ.PkgPath() != "" {
			b.WriteString(typ.PkgPath())
			b.WriteByte('.')
		}

		b.WriteString(typ.Name())
		return
	}

	switch typ.Kind() {
	case reflect.Ptr:
		b.WriteByte('*')
		canonical(b, typ.Elem())
	case reflect.Slice:
		b.WriteString("[]")
		canonical(b, typ.Elem())
	case reflect.Array:
		fmt.Fprintf(b, "[%d]", typ.Len())
		canonical(b, typ.Elem())
	case reflect.Map:
		b.WriteString("map[")
		canonical(b, typ.Key())
		b.WriteByte(']')
		canonical(b, typ.Elem())
	case reflect.Chan:
		fmt.Fprintf(b, "chan(%d) ", typ.ChanDir())
		canonical(b, typ.Elem())
	case reflect.Func:
		b.WriteString("func(")
		for i := 0; i < typ.NumIn(); i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			canonical(b, typ.In(i))
		}
		if typ.IsVariadic() {
			b.WriteString("...")
		}
		b.WriteString(")(")
		for i := 0; i < typ.NumOut(); i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			canonical(b, typ.Out(i))
		}
		b.WriteByte(')')
	case reflect.Struct:
		b.WriteString("struct{")
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if i > 0 {
				b.WriteByte(';')
			}
			if field.PkgPath != "" {
				b.WriteString(field.PkgPath)
				b.WriteByte('.')
			}
			b.WriteString(field.Name)
			b.WriteByte(' ')
			canonical(b, field.Type)
			if field.Tag != "" {
				fmt.Fprintf(b, " %q", field.Tag)
			}
		}
		b.WriteByte('}')
	case reflect.Interface:
		b.WriteString("interface{")
		for i := 0; i < typ.NumMethod(); i++ {
			method := typ.Method(i)
			if i > 0 {
				b.WriteByte(';')
			}
			if method.PkgPath != "" {
				b.WriteString(method.PkgPath)
				b.WriteByte('.')
			}
			b.WriteString(method.Name)
			canonical(b, method.Type)
		}
		b.WriteByte('}')
	default:
		b.WriteString(typ.String())
	}
}
