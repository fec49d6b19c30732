// Package rotation writes and rotates log files.
package rotation

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"sync"
)

// A File is a log file with numbered rotation files base.1,
// base.2 and so on. Only complete lines reach the base file;
// when it would grow past the size limit it is renamed to base.1,
// older files shift up by one, and a new base file is started.
//
// Rotation errors are ignored. Only errors opening and writing
// the base file are reported. A File is safe for concurrent use.
type File struct {
	mu   sync.Mutex
	base string   // file name
	size int64    // max size of f
	keep int      // number of rotated files
	buf  []byte   // partial line from last write
	f    *os.File // current base file
	w    int64    // bytes written to f
}

var _ io.WriteCloser = (*File)(nil)

// Create returns a File writing to name, appending if it exists,
// and keeping up to keep rotated files. keep is at least 1.
func Create(name string, size int64, keep int) *File {
	if keep < 1 {
		keep = 1
	}
	return &File{base: name, size: size, keep: keep}
}

var dropmsg = []byte("\nlog write error; some data dropped\n")

// Write buffers p and writes every complete line.
func (f *File) Write(p []byte) (n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buf = append(f.buf, p...)
	n = len(p)
	if i := bytes.LastIndexByte(f.buf, '\n'); i >= 0 {
		_, err = f.write(f.buf[:i+1])
		// the payload is dropped even on failure so an unopenable
		// file does not grow the buffer without bound
		f.buf = append([]byte{}, f.buf[i+1:]...)
		if err != nil {
			f.buf = append(dropmsg, f.buf...)
		}
	}
	return n, err
}

// Close writes any partial line and closes the base file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.buf) > 0 {
		f.write(append(f.buf, '\n'))
		f.buf = nil
	}
	if f.f == nil {
		return nil
	}
	err := f.f.Close()
	f.f = nil
	return err
}

func (f *File) write(p []byte) (int, error) {
	if f.f != nil && f.w+int64(len(p)) > f.size {
		f.f.Close()
		f.rotate()
	}
	if f.f == nil {
		var err error
		f.f, err = os.OpenFile(f.base, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644) // #nosec
		if err != nil {
			return 0, err
		}
		f.w, err = f.f.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, err
		}
		if f.w > 0 && f.w+int64(len(p)) > f.size {
			f.f.Close()
			f.rotate()
			return f.write(p)
		}
	}
	n, err := f.f.Write(p)
	f.w += int64(n)
	return n, err
}

func (f *File) rotate() {
	for i := f.keep - 1; i > 0; i-- {
		os.Rename(f.name(i), f.name(i+1))
	}
	os.Rename(f.base, f.name(1))
	f.f = nil
	f.w = 0
}

func (f *File) name(i int) string {
	return f.base + "." + strconv.Itoa(i)
}
