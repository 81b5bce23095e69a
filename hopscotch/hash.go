package hopscotch

import (
	"fmt"
	"hash/maphash"
	"unsafe"
)

var mapSeed = maphash.MakeSeed()

// defaultHash mirrors rchash's own default: fast paths for the
// common scalar key types, a maphash-based fallback otherwise.
func defaultHash[K comparable](k K) uint64 {
	switch v := any(k).(type) {
	case string:
		return hashString(v)
	case int:
		return hashUint64(uint64(v))
	case int64:
		return hashUint64(uint64(v))
	case uint64:
		return hashUint64(v)
	}
	var h maphash.Hash
	h.SetSeed(mapSeed)
	h.WriteString(fmt.Sprint(k))
	return h.Sum64()
}

func hashUint64(k uint64) uint64 {
	return uint64(memhash(unsafe.Pointer(&k), 0, unsafe.Sizeof(k)))
}

func hashString(k string) uint64 {
	if len(k) == 0 {
		return uint64(memhash(nil, 0, 0))
	}
	return uint64(memhash(unsafe.Pointer(unsafe.StringData(k)), 0, uintptr(len(k))))
}

//go:linkname memhash runtime.memhash
//go:noescape
func memhash(p unsafe.Pointer, seed, s uintptr) uintptr
