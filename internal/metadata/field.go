// Package metadata reads descriptive fields from image, document and
// archive formats. Each reader walks only the structures it needs and
// returns whatever it gathered before the first failed read.
package metadata

import (
	"fmt"
	"math"
	"strconv"

	"github.com/hexdance/hexdance/internal/byteview"
	"github.com/hexdance/hexdance/internal/format"
)

// Field is one labelled value.
type Field struct {
	Label string
	Value string
}

// String renders the field as "Label: value".
func (f Field) String() string {
	return f.Label + ": " + f.Value
}

// Strings renders every field.
func Strings(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.String()
	}
	return out
}

type fieldList []Field

func (l *fieldList) add(label, value string) {
	*l = append(*l, Field{Label: label, Value: value})
}

func (l *fieldList) addf(label, layout string, args ...interface{}) {
	l.add(label, fmt.Sprintf(layout, args...))
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatBytes renders n with a 1024 base, at most two decimals and no
// trailing zeros: "0 Bytes", "512 Bytes", "1.5 KB", "2 MB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	unit := 0
	for unit < len(sizeUnits)-1 && n >= int64(1)<<(10*(unit+1)) {
		unit++
	}
	value := float64(n) / float64(int64(1)<<(10*unit))
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[unit]
}

// Basic is the format-independent fallback: size, the first four bytes as
// a big-endian hex word and the file type description.
func Basic(b []byte, tag format.Tag) []Field {
	_, prelude := format.Detect(b)

	var fields fieldList
	fields.add("File Size", FormatBytes(int64(byteview.New(b).Len())))
	fields.add("First Bytes", format.MagicHex(prelude.Magic))
	fields.add("File Type", format.Describe(tag, prelude.Magic))
	return fields
}
