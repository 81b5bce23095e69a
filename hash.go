package rchash

import (
	"hash/maphash"
	"reflect"
	"unsafe"
)

// mapSeed randomizes defaultHash across process runs, the Go-native
// equivalent of the teacher's own "TODO: need to randomize initial
// hash (currently always 0)" note on hashUint64.
var mapSeed = maphash.MakeSeed()

// defaultHash is the fallback hash installed when no WithHashFunc
// option is given. Keys of type string, int64, int, uint64, uint32 and
// int32 go straight to hashString/hashUint64 below; every other K
// pays for a reflection-based encode on every call, so production code
// with such a key type should install its own memhash-based function
// via WithHashFunc.
func defaultHash[K comparable](k K) uint64 {
	switch v := any(k).(type) {
	case string:
		return hashString(v)
	case int64:
		return hashUint64(uint64(v))
	case int:
		return hashUint64(uint64(v))
	case uint64:
		return hashUint64(v)
	case uint32:
		return hashUint64(uint64(v))
	case int32:
		return hashUint64(uint64(v))
	}

	var h maphash.Hash
	h.SetSeed(mapSeed)
	fmtHashFallback(&h, k)
	return h.Sum64()
}

// fmtHashFallback feeds a generic comparable value's type name and a
// field-by-field binary encoding of its value into h. It is slow (an
// allocation per call via reflect) and exists only to make defaultHash
// total over all comparable types.
func fmtHashFallback(h *maphash.Hash, k any) {
	s := reflect.ValueOf(k)
	h.WriteString(s.Type().String())
	h.WriteByte(0)
	writeReflectValue(h, s)
}

func writeReflectValue(h *maphash.Hash, v reflect.Value) {
	switch v.Kind() {
	case reflect.String:
		h.WriteString(v.String())
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			writeReflectValue(h, v.Field(i))
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			writeReflectValue(h, v.Index(i))
		}
	case reflect.Ptr:
		if v.IsNil() {
			h.WriteByte(0)
		} else {
			h.WriteByte(1)
			writeReflectValue(h, v.Elem())
		}
	default:
		var buf [8]byte
		*(*uint64)(unsafe.Pointer(&buf[0])) = reflectBits(v)
		h.Write(buf[:])
	}
}

func reflectBits(v reflect.Value) uint64 {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return uint64(v.Float())
	default:
		return uint64(v.Pointer())
	}
}

// hashUint64 is grounded on the teacher's hashUint64: it reaches past
// the standard library straight into the runtime's own string/map
// hash primitive via go:linkname, rather than mixing bits by hand.
func hashUint64(k uint64) uint64 {
	return uint64(memhash(unsafe.Pointer(&k), 0, unsafe.Sizeof(k)))
}

// hashString is grounded on the teacher's hashString.
func hashString(k string) uint64 {
	if len(k) == 0 {
		return uint64(memhash(nil, 0, 0))
	}
	return uint64(memhash(unsafe.Pointer(unsafe.StringData(k)), 0, uintptr(len(k))))
}

//go:linkname memhash runtime.memhash
//go:noescape
func memhash(p unsafe.Pointer, seed, s uintptr) uintptr
