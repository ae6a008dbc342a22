package tensor

import (
	"math"
	"strconv"
	"strings"

	"github.com/x448/float16"
)

const (
	ellipsis      = "..."
	uninitialized = "<uninitialized>"

	// threshold is the largest dimension rendered in full; longer dimensions
	// show threshold/2 entries on each side of an ellipsis.
	threshold = 6

	// Line feed every N elements, 1-D tensors only.
	threshold1DFloat = threshold * 2
	threshold1DInt   = threshold * 4
	threshold1DBool  = threshold * 2

	floatWidth     = 15
	floatPrecision = 8
	boolWidth      = 5
)

// elementKind selects the leaf formatting of a storage.
type elementKind int

const (
	kindFloat elementKind = iota
	kindBool
	kindSigned
	kindUnsigned
)

func kindOf[T Element](dtype DataType) elementKind {
	var dummy T
	switch any(dummy).(type) {
	case float16.Float16, float32, float64:
		return kindFloat
	}
	if dtype == Bool {
		return kindBool
	}
	switch any(dummy).(type) {
	case int8, int16, int32, int64:
		return kindSigned
	}
	return kindUnsigned
}

func (k elementKind) linefeed() int {
	switch k {
	case kindFloat:
		return threshold1DFloat
	case kindBool:
		return threshold1DBool
	default:
		return threshold1DInt
	}
}

// summary holds the state of one String call.
type summary[T Element] struct {
	b     strings.Builder
	data  []T
	ndim  int
	shape Shape
	kind  elementKind
	half  bool
	num   []byte // scratch for number formatting
}

// String renders the storage as nested brackets following shape.
// Dimensions longer than threshold are elided in the middle; the cursor into the
// flat buffer still advances over the elided elements.
func (s *typedStorage[T]) String(dtype DataType, shape Shape) string {
	if s.size == 0 {
		return ""
	}
	if len(s.data) == 0 {
		return uninitialized
	}

	r := &summary[T]{
		data:  s.data,
		ndim:  s.ndim,
		shape: shape,
		kind:  kindOf[T](dtype),
		half:  isHalf[T](),
	}
	if s.ndim == 0 {
		r.writeData(0, 0, 1)
		return r.b.String()
	}
	cursor := 0
	r.recursive(&cursor, 0)
	return r.b.String()
}

func (r *summary[T]) recursive(cursor *int, depth int) {
	if depth >= r.ndim {
		return
	}
	r.b.WriteByte('[')
	num := r.shape[depth]
	if depth == r.ndim-1 { // Bottom dimension
		if num > threshold && r.ndim > 1 {
			r.writeData(*cursor, 0, threshold/2)
			r.b.WriteString(" " + ellipsis + " ")
			r.writeData(*cursor, num-threshold/2, num)
		} else {
			r.writeData(*cursor, 0, num)
		}
		*cursor += num
	} else { // Middle dimension
		head := min(threshold/2, num)
		for i := 0; i < head; i++ {
			if i > 0 {
				r.newline(depth)
			}
			r.recursive(cursor, depth+1)
		}
		if num > threshold {
			r.newline(depth)
			r.b.WriteString(ellipsis)
			ignored := 1
			for i := depth + 1; i < r.ndim; i++ {
				ignored *= r.shape[i]
			}
			*cursor += ignored * (num - threshold)
		}
		// Remaining rows, at most threshold/2 of them. When num is 4 to 6 this
		// renders each row once instead of repeating threshold/2 rows past the
		// end of the dimension.
		tail := min(num-head, threshold/2)
		for i := 0; i < tail; i++ {
			r.newline(depth)
			r.recursive(cursor, depth+1)
		}
	}
	r.b.WriteByte(']')
}

func (r *summary[T]) newline(depth int) {
	r.b.WriteByte('\n')
	for i := 0; i <= depth; i++ {
		r.b.WriteByte(' ')
	}
}

// writeData emits elements [start, end) of the row beginning at cursor.
func (r *summary[T]) writeData(cursor, start, end int) {
	linefeed := r.kind.linefeed()
	for i := start; i < end && cursor+i >= 0 && cursor+i < len(r.data); i++ {
		r.writeElement(r.data[cursor+i])
		if i != end-1 {
			r.b.WriteByte(' ')
		}
		if r.ndim == 1 && (i+1)%linefeed == 0 {
			r.b.WriteString("\n ")
		}
	}
}

func (r *summary[T]) writeElement(v T) {
	switch r.kind {
	case kindFloat:
		var f float64
		if r.half {
			f = float64(float16.Float16(v).Float32())
		} else {
			f = float64(v)
		}
		r.pad(formatFloat(r.num[:0], f), floatWidth)
	case kindBool:
		if v == 0 {
			r.b.WriteString("False")
		} else {
			r.pad(append(r.num[:0], "True"...), boolWidth)
		}
	case kindSigned:
		n := int64(v)
		if n >= 0 {
			r.b.WriteByte(' ')
		}
		r.num = strconv.AppendInt(r.num[:0], n, 10)
		r.b.Write(r.num)
	default:
		r.num = strconv.AppendUint(r.num[:0], uint64(v), 10)
		r.b.Write(r.num)
	}
}

// pad writes s right-aligned in a field of width.
func (r *summary[T]) pad(s []byte, width int) {
	for i := len(s); i < width; i++ {
		r.b.WriteByte(' ')
	}
	r.b.Write(s)
	r.num = s
}

// formatFloat appends f in C-style scientific notation ("1.00000000e+00").
func formatFloat(dst []byte, f float64) []byte {
	switch {
	case math.IsNaN(f):
		return append(dst, "nan"...)
	case math.IsInf(f, 1):
		return append(dst, "inf"...)
	case math.IsInf(f, -1):
		return append(dst, "-inf"...)
	}
	return strconv.AppendFloat(dst, f, 'e', floatPrecision, 64)
}
