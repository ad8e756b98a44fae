package storage

import (
	"io"
	"sync/atomic"
)

// ProgressFunc receives the number of bytes read so far and the expected total (-1 if unknown).
type ProgressFunc func(read, total int64)

// progressReader reports progress on every Read.
type progressReader struct {
	r     io.Reader
	total int64
	read  atomic.Int64
	fn    ProgressFunc
}

// WithProgress wraps r so fn observes bytes consumed. A nil fn returns r unchanged.
func WithProgress(r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.fn(p.read.Add(int64(n)), p.total)
	}
	return n, err
}
