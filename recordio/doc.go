// Package recordio implements the two record encodings used by the sorter.
//
// Runs are stored in a compact binary format: the magic bytes "RUN", a one
// byte format version, then each record as a fixed-width little-endian
// int64. Fixed-width records keep a run's size a pure function of its length
// (see Size) and let a truncated file be detected as io.ErrUnexpectedEOF.
//
// The user-facing input and output are text: Tokens reads whitespace
// separated integers in any line layout, and TextWriter writes one record per
// line.
//
// Basic usage:
//
//	var buf bytes.Buffer
//	w, err := recordio.NewWriter(&buf)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, v := range []int64{1, 2, 3} {
//	    if err := w.Write(v); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
//	r, err := recordio.NewReader(&buf)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for v := range r.Seq() {
//	    fmt.Println(v)
//	}
//	if err := r.Err(); err != nil {
//	    log.Fatal(err)
//	}
package recordio
