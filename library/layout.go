package library

import "fmt"

// FieldKind classifies how a field's bytes are interpreted.
type FieldKind int

const (
	// Text is a fixed-width UTF-8 field, NUL-padded on the right.
	Text FieldKind = iota
	// Digits is a Text field that holds a decimal-digit string (ids,
	// years, quantities). Numbers are stored as their string form, not
	// binary integers, so the files stay inspectable with any hex viewer.
	Digits
	// Flag is a single-byte enumeration (status and deleted markers).
	Flag
)

// Field is one column of a fixed-width record.
type Field struct {
	Name  string
	Width int
	Kind  FieldKind
}

// Layout describes a complete record: an ordered list of fields whose
// widths sum to the record size. Encode and Decode are pure functions of
// the layout; file I/O lives in Store.
type Layout []Field

// fillByte pads text fields on the right and is stripped on decode.
const fillByte = 0x00

// Size returns the total record width in bytes.
func (l Layout) Size() int {
	size := 0
	for _, f := range l {
		size += f.Width
	}
	return size
}

// Encode packs one value per field into a record-sized byte slice. Values
// longer than their field are truncated; shorter ones are NUL-padded.
func (l Layout) Encode(values []string) ([]byte, error) {
	if len(values) != len(l) {
		return nil, fmt.Errorf("encode: layout has %d fields, got %d values", len(l), len(values))
	}
	buf := make([]byte, l.Size())
	offset := 0
	for i, f := range l {
		v := []byte(values[i])
		if len(v) > f.Width {
			v = v[:f.Width]
		}
		copy(buf[offset:offset+f.Width], v)
		offset += f.Width
	}
	return buf, nil
}

// Decode unpacks a record into one string per field, with trailing fill
// bytes stripped. A slice whose length does not match the layout is a
// malformed record, never a partial one.
func (l Layout) Decode(data []byte) ([]string, error) {
	if len(data) != l.Size() {
		return nil, fmt.Errorf("decode: got %d bytes, layout is %d: %w", len(data), l.Size(), ErrMalformedRecord)
	}
	values := make([]string, len(l))
	offset := 0
	for i, f := range l {
		values[i] = trimFill(data[offset : offset+f.Width])
		offset += f.Width
	}
	return values, nil
}

func trimFill(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == fillByte {
		end--
	}
	return string(b[:end])
}

const (
	idWidth   = 4
	dateWidth = 10
)

// BookLayout is the current catalog record: 184 bytes.
var BookLayout = Layout{
	{Name: "id", Width: idWidth, Kind: Digits},
	{Name: "title", Width: 100, Kind: Text},
	{Name: "author", Width: 50, Kind: Text},
	{Name: "code", Width: 20, Kind: Text},
	{Name: "year", Width: 4, Kind: Digits},
	{Name: "quantity", Width: 4, Kind: Digits},
	{Name: "status", Width: 1, Kind: Flag},
	{Name: "deleted", Width: 1, Kind: Flag},
}

// LegacyBookLayout is the pre-quantity catalog record: 180 bytes. Files in
// this shape are rewritten by MigrateCatalog before use.
var LegacyBookLayout = Layout{
	{Name: "id", Width: idWidth, Kind: Digits},
	{Name: "title", Width: 100, Kind: Text},
	{Name: "author", Width: 50, Kind: Text},
	{Name: "code", Width: 20, Kind: Text},
	{Name: "year", Width: 4, Kind: Digits},
	{Name: "status", Width: 1, Kind: Flag},
	{Name: "deleted", Width: 1, Kind: Flag},
}

// MemberLayout is the member record: 131 bytes.
var MemberLayout = Layout{
	{Name: "id", Width: idWidth, Kind: Digits},
	{Name: "name", Width: 50, Kind: Text},
	{Name: "email", Width: 50, Kind: Text},
	{Name: "phone", Width: 15, Kind: Text},
	{Name: "join_date", Width: dateWidth, Kind: Digits},
	{Name: "status", Width: 1, Kind: Flag},
	{Name: "deleted", Width: 1, Kind: Flag},
}

// LoanLayout is the loan record: 34 bytes.
var LoanLayout = Layout{
	{Name: "id", Width: idWidth, Kind: Digits},
	{Name: "book_id", Width: idWidth, Kind: Digits},
	{Name: "member_id", Width: idWidth, Kind: Digits},
	{Name: "borrow_date", Width: dateWidth, Kind: Digits},
	{Name: "return_date", Width: dateWidth, Kind: Digits},
	{Name: "status", Width: 1, Kind: Flag},
	{Name: "deleted", Width: 1, Kind: Flag},
}
