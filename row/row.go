// Package row implements the on-disk row format shared by every native
// table: a single tombstone byte followed by the column values in schema
// order, with no per-row length prefix — readers advance strictly by the
// declared column types, which is why native tables only support forward
// scans.
package row

import (
	"fmt"
	"io"

	"github.com/zknill/poorly/value"
)

const (
	tombstoneLive    byte = 0x00
	tombstoneDeleted byte = 0x01
)

// ErrInvalidTombstone is wrapped into a table-level CorruptRowError when a
// row's leading byte is neither 0x00 nor 0x01.
var ErrInvalidTombstone = fmt.Errorf("row: tombstone byte is neither live nor deleted")

// Encode writes the tombstone byte and then each value in kinds/values
// order. len(kinds) must equal len(values); callers (table.Table) are
// responsible for that invariant.
func Encode(w io.Writer, deleted bool, kinds []value.Kind, values []value.Value) error {
	tomb := tombstoneLive
	if deleted {
		tomb = tombstoneDeleted
	}
	if _, err := w.Write([]byte{tomb}); err != nil {
		return err
	}
	for i, k := range kinds {
		if err := value.Encode(w, values[i]); err != nil {
			return fmt.Errorf("row: encoding column %d (%s): %w", i, k, err)
		}
	}
	return nil
}

// Decode reads one row: the tombstone byte and then one value per kind.
// It returns ErrInvalidTombstone (wrapped) when the tombstone byte is
// corrupt, and the underlying io error (including io.EOF at a row
// boundary, and io.ErrUnexpectedEOF mid-row) otherwise.
func Decode(r io.Reader, kinds []value.Kind) (deleted bool, values []value.Value, err error) {
	var tomb [1]byte
	if _, err := io.ReadFull(r, tomb[:]); err != nil {
		return false, nil, err
	}
	switch tomb[0] {
	case tombstoneLive:
		deleted = false
	case tombstoneDeleted:
		deleted = true
	default:
		return false, nil, ErrInvalidTombstone
	}

	values = make([]value.Value, len(kinds))
	for i, k := range kinds {
		v, err := value.Decode(r, k)
		if err != nil {
			return false, nil, fmt.Errorf("row: decoding column %d (%s): %w", i, k, err)
		}
		values[i] = v
	}
	return deleted, values, nil
}

// EncodedSize returns the byte width Encode would produce for values under
// kinds, including the tombstone byte.
func EncodedSize(kinds []value.Kind, values []value.Value) int {
	size := 1
	for i, k := range kinds {
		size += value.EncodedSize(k, values[i])
	}
	return size
}
