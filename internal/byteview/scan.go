package byteview

// Bounded runs fn for i = 0, 1, ... up to min(count, limit) iterations and
// stops as soon as fn returns false. It returns the number of iterations
// that ran to completion.
//
// count is the attacker-supplied value read from the file; limit is the
// hard cap chosen by the caller, usually derived from the bytes remaining
// in the buffer divided by the record size. fn is still expected to bounds
// check each record it reads.
func Bounded(count uint64, limit int, fn func(i int) bool) int {
	if limit <= 0 {
		return 0
	}
	n := limit
	if count < uint64(limit) {
		n = int(count)
	}
	for i := 0; i < n; i++ {
		if !fn(i) {
			return i
		}
	}
	return n
}

// Records returns how many whole records of size width fit between off and
// the end of the buffer. It is the usual limit passed to Bounded.
func (v View) Records(off, width int) int {
	if width <= 0 || off < 0 || off >= len(v.b) {
		return 0
	}
	return (len(v.b) - off) / width
}
