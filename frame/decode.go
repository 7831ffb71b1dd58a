package frame

import (
	"bytes"
	"strconv"
)

func isPointSeparator(r rune) bool {
	return r == PointSeparator
}

// Decode parses one raw frame (without its line terminator) into a Batch.
// An empty frame yields an empty batch. No partial batch is returned on error.
func Decode(raw []byte) (Batch, error) {
	segments := bytes.FieldsFunc(raw, isPointSeparator)
	batch := make(Batch, 0, len(segments))
	for i, seg := range segments {
		texts := bytes.Split(seg, []byte{ValueSeparator})
		fields := make([]int64, 0, len(texts))
		for j, text := range texts {
			v, err := strconv.ParseInt(string(text), 10, 64)
			if err != nil {
				return nil, &MalformedFrameError{Point: i, Field: j, Text: string(text), Err: err}
			}
			fields = append(fields, v)
		}
		batch = append(batch, DataPoint{fields: fields})
	}
	return batch, nil
}
