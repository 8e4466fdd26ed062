// Package loclist decodes the classic DWARF2-4 .debug_loc location
// list format.
//
// debug/dwarf classifies a DW_AT_location attribute whose value is an
// offset into this section as dwarf.ClassLocListPtr, but deliberately
// leaves the bytes themselves undecoded -- by design, the standard
// library only decodes DIE attributes, not auxiliary sections with
// their own address-keyed structure. This mirrors the approach
// go-delve/delve takes in its pkg/dwarf/loclist package: a location
// list is a caller-supplied flat byte slice, decoded lazily at the
// offset recorded on the attribute.
package loclist

import "encoding/binary"

// Entry is one (range, expression) pair from a location list.
type Entry struct {
	Low, High uint64
	Expr      []byte
}

// Reader decodes entries from a .debug_loc section for a single
// compilation unit.
type Reader struct {
	data      []byte
	order     binary.ByteOrder
	addrSize  int
	baseAddr  uint64 // the CU's low_pc, used as the initial base address
	noLowHigh uint64 // all-ones value of addrSize, marks a base-address-selection entry
}

// NewReader returns a Reader over data (the full .debug_loc section),
// for a compilation unit whose base address is cuBase and whose
// address size (in bytes) is addrSize (4 or 8).
func NewReader(data []byte, order binary.ByteOrder, addrSize int, cuBase uint64) *Reader {
	var noLowHigh uint64
	switch addrSize {
	case 4:
		noLowHigh = 0xffffffff
	default:
		noLowHigh = 0xffffffffffffffff
	}
	return &Reader{data: data, order: order, addrSize: addrSize, baseAddr: cuBase, noLowHigh: noLowHigh}
}

func (r *Reader) readAddr(data []byte) uint64 {
	if r.addrSize == 4 {
		return uint64(r.order.Uint32(data))
	}
	return r.order.Uint64(data)
}

// Entries decodes the location list starting at the given byte offset
// into the section, until the (0,0) terminator. It returns an error
// only if the list runs off the end of the section -- malformed
// DWARF, per the DWARF4 location list encoding (section 2.6.2).
func (r *Reader) Entries(offset int) ([]Entry, error) {
	base := r.baseAddr
	if offset < 0 || offset > len(r.data) {
		return nil, errTruncated
	}
	data := r.data[offset:]

	var entries []Entry
	for {
		if len(data) < 2*r.addrSize {
			return nil, errTruncated
		}
		low := r.readAddr(data)
		high := r.readAddr(data[r.addrSize:])
		data = data[2*r.addrSize:]

		if low == 0 && high == 0 {
			// End of list.
			return entries, nil
		}
		if low == r.noLowHigh {
			// Base address selection entry: its second address is the
			// new base for subsequent entries, and it does not itself
			// describe a range.
			base = high
			continue
		}

		if len(data) < 2 {
			return nil, errTruncated
		}
		exprLen := int(r.order.Uint16(data))
		data = data[2:]
		if len(data) < exprLen {
			return nil, errTruncated
		}
		expr := data[:exprLen]
		data = data[exprLen:]

		entries = append(entries, Entry{Low: base + low, High: base + high, Expr: expr})
	}
}

// Find returns the first entry covering pc, decoding the list at
// offset on demand. It returns false if no entry covers pc.
func (r *Reader) Find(offset int, pc uint64) (Entry, bool, error) {
	entries, err := r.Entries(offset)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if e.Low <= pc && pc < e.High {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

type truncatedError string

func (e truncatedError) Error() string { return string(e) }

const errTruncated = truncatedError("loclist: truncated location list")
