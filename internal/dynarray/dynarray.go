// Package dynarray provides the growable arrays the model parsers build into.
package dynarray

import (
	"errors"
	"fmt"
)

// ErrOutOfMemory is returned when an array would grow past its element limit.
var ErrOutOfMemory = errors.New("out of memory")

// Array is a growable, length-tracked sequence of T.
//
// Capacity grows to max(needed, 1.5x current) rounded up to a multiple of 16.
// A non-zero Limit caps the number of elements the array may hold.
type Array[T any] struct {
	data  []T
	Limit int
}

// New returns an empty array with the given element limit (0 = unlimited).
func New[T any](limit int) Array[T] {
	return Array[T]{Limit: limit}
}

// Wrap adopts an existing slice so more elements can be appended to it.
func Wrap[T any](s []T, limit int) Array[T] {
	return Array[T]{data: s, Limit: limit}
}

// Len returns the number of stored elements.
func (a *Array[T]) Len() int {
	if a == nil {
		return 0
	}
	return len(a.data)
}

// Cap returns the current capacity.
func (a *Array[T]) Cap() int {
	if a == nil {
		return 0
	}
	return cap(a.data)
}

// Push appends v and returns the index it was written to.
func (a *Array[T]) Push(v T) (int, error) {
	if len(a.data)+1 >= cap(a.data) {
		if err := a.grow(1); err != nil {
			return 0, err
		}
	}
	a.data = append(a.data, v)
	return len(a.data) - 1, nil
}

// At returns a pointer to element i.
func (a *Array[T]) At(i int) *T {
	return &a.data[i]
}

// Slice returns the stored elements. The slice aliases the array.
func (a *Array[T]) Slice() []T {
	if a == nil {
		return nil
	}
	return a.data
}

// Release drops the backing storage.
func (a *Array[T]) Release() {
	if a == nil {
		return
	}
	a.data = nil
}

func (a *Array[T]) grow(n int) error {
	size := len(a.data)
	needed := size + n
	if a.Limit > 0 && needed > a.Limit {
		return fmt.Errorf("%w: %d elements exceeds limit of %d", ErrOutOfMemory, needed, a.Limit)
	}

	capacity := GrowCapacity(cap(a.data), needed)
	if a.Limit > 0 && capacity > a.Limit {
		capacity = a.Limit
	}

	data := make([]T, size, capacity)
	copy(data, a.data)
	a.data = data
	return nil
}

// GrowCapacity returns the capacity an array of capacity current grows to
// when it must hold at least needed elements.
func GrowCapacity(current, needed int) int {
	capacity := 3 * current / 2
	if capacity < needed {
		capacity = needed
	}
	return (capacity + 15) &^ 15
}
