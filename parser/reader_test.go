package parser

import (
	"bytes"
	"io"
	"testing"

	"github.com/alecthomas/assert"
)

type countingReader struct {
	reader io.ReaderAt
	reads  int
}

func (self *countingReader) ReadAt(buf []byte, offset int64) (int, error) {
	self.reads++
	return self.reader.ReadAt(buf, offset)
}

func TestReader(t *testing.T) {
	r, err := NewPagedReader(
		bytes.NewReader([]byte("abcd")),
		3 /* pagesize */, 100 /* cache_size */)
	assert.NoError(t, err)

	// Read 1 byte from the end of the buffer.
	buf := make([]byte, 1)
	c, err := r.ReadAt(buf, 3)
	assert.NoError(t, err)
	assert.Equal(t, c, 1)
	assert.Equal(t, buf, []byte{0x64})

	// Read past end (3 byte buffer from offset 3).
	buf = make([]byte, 3)
	c, err = r.ReadAt(buf, 3)
	assert.NoError(t, err)
	assert.Equal(t, c, 3)
	assert.Equal(t, buf, []byte{0x64, 0x00, 0x00})

	// Read entirely outside the file.
	c, err = r.ReadAt(buf, 10)
	assert.Equal(t, c, 0)
	assert.Equal(t, err, io.EOF)

	// Read spanning pages.
	buf = make([]byte, 4)
	c, err = r.ReadAt(buf, 0)
	assert.NoError(t, err)
	assert.Equal(t, c, 4)
	assert.Equal(t, string(buf), "abcd")
}

func TestReaderCachesPages(t *testing.T) {
	backing := &countingReader{reader: bytes.NewReader(make([]byte, 0x2000))}
	r, err := NewPagedReader(backing, 0x1000, 10)
	assert.NoError(t, err)

	buf := make([]byte, 4)
	for i := int64(0); i < 100; i++ {
		_, err := r.ReadAt(buf, i*8)
		assert.NoError(t, err)
	}

	assert.Equal(t, backing.reads, 1)
	assert.Equal(t, r.Miss, int64(1))
	assert.Equal(t, r.Hits, int64(99))

	r.Flush()
	_, err = r.ReadAt(buf, 0)
	assert.NoError(t, err)
	assert.Equal(t, backing.reads, 2)
}
