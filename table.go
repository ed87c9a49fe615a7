package trackerboy

// TableCapacity is the number of ids available in a Table.
const TableCapacity = 64

// Table is a fixed-capacity collection of items addressed by an 8-bit id. The
// slots are stored directly in an array indexed by id. New items always get
// the lowest free id.
type Table[T any] struct {
	items  [TableCapacity]*T
	nextID int // lowest free id, TableCapacity when full
	count  int
}

// Len returns the number of items in the table.
func (t *Table[T]) Len() int { return t.count }

// Get returns the item with the given id, or nil if there is none.
func (t *Table[T]) Get(id uint8) *T {
	if int(id) >= TableCapacity {
		return nil
	}
	return t.items[id]
}

// NextAvailableID returns the id the next Insert will use. ok is false when
// the table is full.
func (t *Table[T]) NextAvailableID() (id uint8, ok bool) {
	if t.nextID >= TableCapacity {
		return 0, false
	}
	return uint8(t.nextID), true
}

// Insert adds the item using the lowest free id.
func (t *Table[T]) Insert(item *T) (uint8, error) {
	id, ok := t.NextAvailableID()
	if !ok {
		return 0, ErrTableFull
	}
	if err := t.InsertAt(id, item); err != nil {
		return 0, err
	}
	return id, nil
}

// InsertAt adds the item with a specific id, which must be free.
func (t *Table[T]) InsertAt(id uint8, item *T) error {
	if int(id) >= TableCapacity || t.items[id] != nil || item == nil {
		return ErrInvalidID
	}
	t.items[id] = item
	t.count++
	if int(id) == t.nextID {
		t.findNextID()
	}
	return nil
}

// Remove deletes the item with the given id, returning it (nil if there was
// no such item).
func (t *Table[T]) Remove(id uint8) *T {
	if int(id) >= TableCapacity || t.items[id] == nil {
		return nil
	}
	item := t.items[id]
	t.items[id] = nil
	t.count--
	if int(id) < t.nextID {
		t.nextID = int(id)
	}
	return item
}

// Clear removes every item.
func (t *Table[T]) Clear() {
	*t = Table[T]{}
}

// All iterates the items in id order.
func (t *Table[T]) All(yield func(uint8, *T) bool) {
	for id, item := range t.items {
		if item != nil && !yield(uint8(id), item) {
			return
		}
	}
}

// IDs returns the ids in use, in ascending order.
func (t *Table[T]) IDs() []uint8 {
	ret := make([]uint8, 0, t.count)
	for id := range t.All {
		ret = append(ret, id)
	}
	return ret
}

func (t *Table[T]) findNextID() {
	for t.nextID < TableCapacity && t.items[t.nextID] != nil {
		t.nextID++
	}
}
