package renderer

import (
	"bytes"
	"io"
)

// ConditionalBlock buffers a block and copies it to w only if block returns true.
// It reports whether the block was written.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) bool {
	var b bytes.Buffer
	if !block(&b) {
		return false
	}
	_, err := b.WriteTo(w)
	return err == nil
}
