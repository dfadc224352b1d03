package stego

import "image/color"

// GIF stream layout.
const (
	gifHeaderLen       = 13
	gifExtension       = 0x21
	gifImageDescriptor = 0x2c
	gifDescriptorLen   = 10
	gifHasColorTable   = 0x80
)

// gifColorTable returns the colour table the first frame of a GIF is drawn
// with: the frame's local table if it has one, otherwise the global table.
// It returns nil when the stream is malformed or has no table.
func gifColorTable(data []byte) color.Palette {
	if len(data) < gifHeaderLen {
		return nil
	}

	var global color.Palette
	pos := gifHeaderLen
	if flags := data[10]; flags&gifHasColorTable != 0 {
		if global, pos = readGIFColorTable(data, pos, flags); global == nil {
			return nil
		}
	}

	for pos < len(data) {
		switch data[pos] {
		case gifExtension:
			next, ok := skipGIFSubBlocks(data, pos+2)
			if !ok {
				return nil
			}
			pos = next
		case gifImageDescriptor:
			if pos+gifDescriptorLen > len(data) {
				return nil
			}
			if flags := data[pos+9]; flags&gifHasColorTable != 0 {
				local, _ := readGIFColorTable(data, pos+gifDescriptorLen, flags)
				return local
			}
			return global
		default:
			return nil
		}
	}
	return nil
}

// readGIFColorTable reads the table whose size is encoded in the low three
// bits of flags, starting at pos. It returns the table and the offset just
// past it, or nil when the data is truncated.
func readGIFColorTable(data []byte, pos int, flags byte) (color.Palette, int) {
	n := 1 << (flags&0x07 + 1)
	end := pos + 3*n
	if end > len(data) {
		return nil, pos
	}

	table := make(color.Palette, n)
	for i := range n {
		c := data[pos+3*i : pos+3*i+3]
		table[i] = color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xff}
	}
	return table, end
}

// skipGIFSubBlocks skips a chain of data sub-blocks starting at pos and
// returns the offset after the terminating zero-length block.
func skipGIFSubBlocks(data []byte, pos int) (int, bool) {
	for pos < len(data) {
		n := int(data[pos])
		pos++
		if n == 0 {
			return pos, true
		}
		pos += n
	}
	return pos, false
}
