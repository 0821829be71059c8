package handles

import "strconv"

// ID identifies a node inside the registry arena. The low 32 bits are the
// slot index, the high 32 bits the slot generation at allocation time. A
// slot's generation changes every time it is reused, so an ID held past the
// node's lifetime never matches the slot's next occupant.
//
// The zero ID is never handed out and means "no node".
type ID uint64

// NewID combines a slot index and a generation into an ID.
func NewID(index, generation uint32) ID {
	return ID(uint64(generation)<<32 | uint64(index))
}

// Index returns the arena slot index.
func (id ID) Index() uint32 { return uint32(id) }

// Generation returns the slot generation.
func (id ID) Generation() uint32 { return uint32(id >> 32) }

// IsZero reports whether id is the null ID.
func (id ID) IsZero() bool { return id == 0 }

func (id ID) String() string {
	return strconv.FormatUint(uint64(id.Index()), 10) + "." + strconv.FormatUint(uint64(id.Generation()), 10)
}
