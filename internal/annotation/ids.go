package annotation

import (
	"strconv"
	"time"
)

// IDAllocator hands out monotonically increasing decimal ids. It is owned by a
// session and never rewinds, so ids stay unique after deletions.
type IDAllocator struct {
	last int64
}

// NewIDAllocator starts the sequence after seed.
func NewIDAllocator(seed int64) *IDAllocator {
	return &IDAllocator{last: seed}
}

// NewSessionIDAllocator seeds from the current wall clock in milliseconds.
func NewSessionIDAllocator() *IDAllocator {
	return NewIDAllocator(time.Now().UnixMilli())
}

func (a *IDAllocator) Next() string {
	a.last++
	return strconv.FormatInt(a.last, 10)
}

// Last returns the most recently issued value, or the seed if none was issued.
func (a *IDAllocator) Last() int64 {
	return a.last
}
