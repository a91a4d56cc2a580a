package blockmat

import (
	"fmt"
	"io"
)

// WriteMatrixMarket serializes a block vector as a dense MatrixMarket array,
// one scalar per line, blocks in row order. Used for weight-vector
// diagnostics.
func WriteMatrixMarket(w io.Writer, v *Vector) (err error) {
	if _, err = fmt.Fprintf(w, "%%%%MatrixMarket matrix array real general\n"); err != nil {
		return
	}
	if _, err = fmt.Fprintf(w, "%d %d\n", v.N*v.B, 1); err != nil {
		return
	}
	for _, val := range v.Data {
		if _, err = fmt.Fprintf(w, "%v\n", val); err != nil {
			return
		}
	}
	return
}
