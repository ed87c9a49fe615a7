package trackerboy

import "slices"

// MaxOrderSize is the maximum number of rows in an Order.
const MaxOrderSize = 256

// OrderRow names one track id per channel; together these tracks form the
// pattern played at that position of the song.
type OrderRow [NumChannels]uint8

// Order is the sequence of patterns of a song. It always has at least one
// row. Track ids may repeat across rows, in which case the same tracks are
// played again.
type Order struct {
	rows []OrderRow
}

// NewOrder returns an order with a single row of track 0.
func NewOrder() Order {
	return Order{rows: []OrderRow{{}}}
}

// Len returns the number of rows, always at least 1.
func (o *Order) Len() int {
	if len(o.rows) == 0 {
		return 1
	}
	return len(o.rows)
}

// Get returns the row at index; indices out of range return the zero row.
func (o *Order) Get(index int) OrderRow {
	if index < 0 || index >= len(o.rows) {
		return OrderRow{}
	}
	return o.rows[index]
}

// Set replaces the row at index. Out-of-range indices are ignored.
func (o *Order) Set(index int, row OrderRow) {
	o.init()
	if index < 0 || index >= len(o.rows) {
		return
	}
	o.rows[index] = row
}

// Rows returns the rows of the order. The slice must not be modified.
func (o *Order) Rows() []OrderRow {
	o.init()
	return o.rows
}

// SetRows replaces every row.
func (o *Order) SetRows(rows []OrderRow) error {
	switch {
	case len(rows) == 0:
		return ErrOrderEmpty
	case len(rows) > MaxOrderSize:
		return ErrOrderFull
	}
	o.rows = slices.Clone(rows)
	return nil
}

// Insert adds a row before index. index == Len() appends.
func (o *Order) Insert(index int, row OrderRow) error {
	o.init()
	if len(o.rows) >= MaxOrderSize {
		return ErrOrderFull
	}
	index = min(max(index, 0), len(o.rows))
	o.rows = slices.Insert(o.rows, index, row)
	return nil
}

func (o *Order) Append(row OrderRow) error {
	return o.Insert(o.Len(), row)
}

// Remove deletes the row at index. The last remaining row cannot be removed.
func (o *Order) Remove(index int) error {
	o.init()
	if len(o.rows) <= 1 {
		return ErrOrderEmpty
	}
	if index < 0 || index >= len(o.rows) {
		return nil
	}
	o.rows = slices.Delete(o.rows, index, index+1)
	return nil
}

// Resize grows (with zero rows) or shrinks the order.
func (o *Order) Resize(size int) error {
	switch {
	case size < 1:
		return ErrOrderEmpty
	case size > MaxOrderSize:
		return ErrOrderFull
	}
	o.init()
	for len(o.rows) < size {
		o.rows = append(o.rows, OrderRow{})
	}
	o.rows = o.rows[:size]
	return nil
}

// Swap exchanges two rows.
func (o *Order) Swap(i, j int) {
	o.init()
	if i < 0 || j < 0 || i >= len(o.rows) || j >= len(o.rows) {
		return
	}
	o.rows[i], o.rows[j] = o.rows[j], o.rows[i]
}

// NextUnused returns a row with, for every channel, the lowest track id not
// used anywhere in the order.
func (o *Order) NextUnused() OrderRow {
	var used [NumChannels][256]bool
	for _, row := range o.Rows() {
		for ch, id := range row {
			used[ch][id] = true
		}
	}
	var ret OrderRow
	for ch := range ret {
		for id := range 256 {
			if !used[ch][id] {
				ret[ch] = uint8(id)
				break
			}
		}
	}
	return ret
}

// Copy makes a deep copy of an Order.
func (o *Order) Copy() Order {
	return Order{rows: slices.Clone(o.Rows())}
}

func (o *Order) init() {
	if len(o.rows) == 0 {
		o.rows = []OrderRow{{}}
	}
}
