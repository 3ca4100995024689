package statewise

import (
	"fmt"
	"hash/fnv"
	"reflect"

	"github.com/benbjohnson/immutable"
)

// newHasher returns the immutable package's hasher for integer and string
// kinds. Other comparable ids (structs, arrays, pointers) are hashed through
// their printed form and compared with ==.
func newHasher[K comparable]() immutable.Hasher[K] {
	var zero K
	switch reflect.TypeOf(&zero).Elem().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.String:
		return immutable.NewHasher(zero)
	}
	return printHasher[K]{}
}

type printHasher[K comparable] struct{}

func (printHasher[K]) Hash(key K) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%#v", key)
	return h.Sum32()
}

func (printHasher[K]) Equal(a, b K) bool {
	return a == b
}

// orderComparer sorts states by their pre-order index
type orderComparer struct{}

func (orderComparer) Compare(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
