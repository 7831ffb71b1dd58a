package frame

import "strconv"

// Encode renders b in wire form with a trailing point separator after every point.
// Points without fields cannot be represented and are skipped.
func Encode(b Batch) []byte {
	var out []byte
	for _, p := range b {
		if p.Len() == 0 {
			continue
		}
		for i, f := range p.fields {
			if i > 0 {
				out = append(out, ValueSeparator)
			}
			out = strconv.AppendInt(out, f, 10)
		}
		out = append(out, PointSeparator)
	}
	return out
}
