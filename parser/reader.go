package parser

import (
	"errors"
	"io"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultReaderPageSize  = 0x1000
	DefaultReaderCacheSize = 2560
)

// PagedReader serves small reads from a cache of whole pages. The
// journal file source reads a 4 byte header before every record, so
// without the cache each record costs several reads of the backing
// file.
type PagedReader struct {
	mu sync.Mutex

	reader   io.ReaderAt
	pagesize int64
	pages    *lru.Cache[int64, []byte]
	freelist sync.Pool

	Hits int64
	Miss int64
}

func NewPagedReader(reader io.ReaderAt, pagesize int64, cache_size int) (*PagedReader, error) {
	if pagesize <= 0 {
		pagesize = DefaultReaderPageSize
	}

	self := &PagedReader{
		reader:   reader,
		pagesize: pagesize,
	}
	self.freelist.New = func() interface{} {
		return make([]byte, pagesize)
	}

	pages, err := lru.NewWithEvict[int64, []byte](cache_size,
		func(key int64, value []byte) {
			self.freelist.Put(value)
		})
	if err != nil {
		return nil, err
	}
	self.pages = pages

	return self, nil
}

// ReadAt reads a buffer from an offset in the backing file.
//
// Reading within the file always fills the buffer with n = len(buf)
// and err = nil. A read which starts inside the file but runs past
// its end is padded with zeros and also returns n = len(buf). A read
// starting outside the file returns n = 0 and io.EOF.
func (self *PagedReader) ReadAt(buf []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, io.EOF
	}

	self.mu.Lock()
	defer self.mu.Unlock()

	buf_idx := 0
	for buf_idx < len(buf) {
		page := offset - offset%self.pagesize
		page_buf, err := self.getPage(page)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Entirely outside the file.
				if buf_idx == 0 {
					return 0, io.EOF
				}

				// Partially inside: pad the rest.
				for i := buf_idx; i < len(buf); i++ {
					buf[i] = 0
				}
				return len(buf), nil
			}
			return buf_idx, err
		}

		page_offset := int(offset % self.pagesize)
		n := copy(buf[buf_idx:], page_buf[page_offset:])

		offset += int64(n)
		buf_idx += n
	}

	return buf_idx, nil
}

// Must be called with the lock held.
func (self *PagedReader) getPage(page int64) ([]byte, error) {
	cached, pres := self.pages.Get(page)
	if pres {
		self.Hits++
		return cached, nil
	}

	self.Miss++
	page_buf := self.freelist.Get().([]byte)
	n, err := self.reader.ReadAt(page_buf, page)
	if err != nil && !errors.Is(err, io.EOF) {
		self.freelist.Put(page_buf)
		return nil, err
	}

	if n == 0 {
		self.freelist.Put(page_buf)
		return nil, io.EOF
	}

	// The page is going to the cache so clear any stale data past
	// the end of the file.
	for i := n; i < len(page_buf); i++ {
		page_buf[i] = 0
	}
	self.pages.Add(page, page_buf)

	return page_buf, nil
}

// Flush drops all cached pages.
func (self *PagedReader) Flush() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.pages.Purge()
}
