package memquery

import (
	"cmp"
	"errors"
	"fmt"
	"reflect"
	"time"
)

// ErrIncomparable is returned when two values have no common ordering.
var ErrIncomparable = errors.New("values are not comparable")

// Compare orders a and b, returning a negative number, zero or a positive
// number. Signed and unsigned integers and floats compare numerically with
// each other; strings, bools and time.Time compare only within their kind.
// nil sorts before any other value.
func Compare(a, b any) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}

	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		if !ok {
			return 0, incomparable(a, b)
		}

		return ta.Compare(tb), nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case isNumber(va) && isNumber(vb):
		return compareNumbers(va, vb), nil
	case va.Kind() == reflect.String && vb.Kind() == reflect.String:
		return cmp.Compare(va.String(), vb.String()), nil
	case va.Kind() == reflect.Bool && vb.Kind() == reflect.Bool:
		return compareBools(va.Bool(), vb.Bool()), nil
	default:
		return 0, incomparable(a, b)
	}
}

func incomparable(a, b any) error {
	return fmt.Errorf("%w: %T and %T", ErrIncomparable, a, b)
}

func isNumber(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func compareNumbers(a, b reflect.Value) int {
	ka, kb := numberClass(a), numberClass(b)
	switch {
	case ka == 'i' && kb == 'i':
		return cmp.Compare(a.Int(), b.Int())
	case ka == 'u' && kb == 'u':
		return cmp.Compare(a.Uint(), b.Uint())
	case ka == 'i' && kb == 'u':
		if a.Int() < 0 {
			return -1
		}
		return cmp.Compare(uint64(a.Int()), b.Uint())
	case ka == 'u' && kb == 'i':
		if b.Int() < 0 {
			return 1
		}
		return cmp.Compare(a.Uint(), uint64(b.Int()))
	default:
		return cmp.Compare(asFloat(a), asFloat(b))
	}
}

func numberClass(v reflect.Value) byte {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return 'f'
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return 'u'
	default:
		return 'i'
	}
}

func asFloat(v reflect.Value) float64 {
	switch numberClass(v) {
	case 'f':
		return v.Float()
	case 'u':
		return float64(v.Uint())
	default:
		return float64(v.Int())
	}
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
