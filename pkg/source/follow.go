package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FollowedFile streams a file that keeps growing, like tail -f. It starts
// with the last few existing lines, then waits for appended data. A file
// that shrinks below the read offset, or whose byte before the offset
// changed, is treated as truncated and read again from the start. A file
// replaced at the same path is re-opened.
type FollowedFile struct {
	path string
	log  *zap.Logger

	file   *os.File
	info   os.FileInfo
	reader *bufio.Reader
	offset int64
	// partial holds bytes of a line whose terminator has not arrived yet.
	partial []byte
	// last is the byte at offset-1; a different byte there means the file
	// was rewritten in place.
	last    byte
	backlog []string
	lineNo  int

	watcher *fsnotify.Watcher
	ticker  *time.Ticker
}

// OpenFollow opens path for following. opts.Lines lines of existing content
// are returned first.
func OpenFollow(path string, opts Options) (*FollowedFile, error) {
	opts = withDefaults(opts)
	f := &FollowedFile{
		path: path,
		log:  opts.Logger.With(zap.String("path", path)),
	}
	if err := f.open(); err != nil {
		return nil, &SetupError{Kind: KindFollowFile, Target: path, Err: err}
	}
	if err := f.loadHistory(opts.Lines); err != nil {
		_ = f.file.Close()
		return nil, &SetupError{Kind: KindFollowFile, Target: path, Err: err}
	}

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		if err = watcher.Add(path); err != nil {
			_ = watcher.Close()
			watcher = nil
		}
	}
	if err != nil {
		f.log.Debug("change notification unavailable, polling only", zap.Error(err))
	}
	f.watcher = watcher
	f.ticker = time.NewTicker(opts.PollInterval)
	return f, nil
}

func (f *FollowedFile) open() error {
	// #nosec G304 - following the user-supplied file is the point
	file, err := os.Open(f.path)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return err
	}
	if info.IsDir() {
		_ = file.Close()
		return fmt.Errorf("is a directory")
	}
	f.file = file
	f.info = info
	f.reader = bufio.NewReaderSize(file, readBufferSize)
	f.offset = 0
	f.partial = f.partial[:0]
	f.last = 0
	return nil
}

// loadHistory consumes the current content, keeping only the last n
// complete lines in a ring buffer.
func (f *FollowedFile) loadHistory(n int) error {
	if n <= 0 {
		end, err := f.file.Seek(0, io.SeekEnd)
		if err != nil {
			return err
		}
		f.offset = end
		f.reader.Reset(f.file)
		if end > 0 {
			var b [1]byte
			if _, err := f.file.ReadAt(b[:], end-1); err != nil {
				return err
			}
			f.last = b[0]
		}
		return nil
	}

	// The ring grows only as far as the lines actually read.
	var ring []string
	idx := 0
	for {
		line, ok, err := f.readLine()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if len(ring) < n {
			ring = append(ring, line)
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % n
	}

	f.backlog = make([]string, 0, len(ring))
	f.backlog = append(f.backlog, ring[idx:]...)
	f.backlog = append(f.backlog, ring[:idx]...)
	return nil
}

// readLine returns the next complete line, or ok=false when the file has
// no complete line left right now.
func (f *FollowedFile) readLine() (string, bool, error) {
	for {
		chunk, err := f.reader.ReadSlice('\n')
		f.offset += int64(len(chunk))
		f.partial = append(f.partial, chunk...)
		if len(chunk) > 0 {
			f.last = chunk[len(chunk)-1]
		}

		switch {
		case err == nil:
			line := trimEOL(string(f.partial))
			f.partial = f.partial[:0]
			return line, true, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return "", false, nil
		default:
			return "", false, err
		}
	}
}

// Next returns the next line, blocking until one is appended.
func (f *FollowedFile) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if len(f.backlog) > 0 {
			line := f.backlog[0]
			f.backlog = f.backlog[1:]
			f.lineNo++
			return checkLine(f.lineNo, line)
		}

		// Buffered bytes were read before any rewrite; the file is only
		// checked when the next read goes to disk.
		if f.reader.Buffered() == 0 {
			if err := f.checkTruncated(); err != nil {
				return "", err
			}
		}

		line, ok, err := f.readLine()
		if err != nil {
			return "", fmt.Errorf("read %s: %w", f.path, err)
		}
		if ok {
			f.lineNo++
			return checkLine(f.lineNo, line)
		}

		// A rotated file is drained before switching to its replacement.
		if f.checkRotated() {
			continue
		}
		if err := f.wait(ctx); err != nil {
			return "", err
		}
	}
}

// checkRotated re-opens the path when it names a different file than the
// one being read. It reports whether it did.
func (f *FollowedFile) checkRotated() bool {
	info, err := os.Stat(f.path)
	if err != nil {
		// Mid-rotation the path may briefly not exist; keep waiting.
		f.log.Debug("stat failed", zap.Error(err))
		return false
	}
	if os.SameFile(info, f.info) {
		return false
	}

	f.log.Info("file replaced, reopening")
	old := f.file
	if err := f.open(); err != nil {
		f.log.Debug("reopen failed", zap.Error(err))
		return false
	}
	_ = old.Close()
	if f.watcher != nil {
		_ = f.watcher.Remove(f.path)
		if err := f.watcher.Add(f.path); err != nil {
			f.log.Debug("re-watch failed", zap.Error(err))
		}
	}
	return true
}

// checkTruncated rewinds to the start when the open file shrank below the
// read offset or was rewritten in place past it.
func (f *FollowedFile) checkTruncated() error {
	if f.offset == 0 {
		return nil
	}
	info, err := f.file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", f.path, err)
	}

	reason := ""
	if info.Size() < f.offset {
		reason = "file truncated, reading from start"
	} else {
		var b [1]byte
		_, err := f.file.ReadAt(b[:], f.offset-1)
		switch {
		case errors.Is(err, io.EOF):
			reason = "file truncated, reading from start"
		case err != nil:
			return fmt.Errorf("read %s: %w", f.path, err)
		case b[0] != f.last:
			reason = "file rewritten, reading from start"
		}
	}
	if reason == "" {
		return nil
	}

	f.log.Info(reason, zap.Int64("offset", f.offset), zap.Int64("size", info.Size()))
	if _, err := f.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s: %w", f.path, err)
	}
	f.reader.Reset(f.file)
	f.offset = 0
	f.partial = f.partial[:0]
	f.last = 0
	return nil
}

// wait blocks until the file may have changed or ctx ends.
func (f *FollowedFile) wait(ctx context.Context) error {
	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if f.watcher != nil {
		events = f.watcher.Events
		errs = f.watcher.Errors
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case ev, ok := <-events:
		if !ok {
			f.watcher = nil
			return nil
		}
		f.log.Debug("change event", zap.Stringer("op", ev.Op))
	case err, ok := <-errs:
		if !ok {
			f.watcher = nil
			return nil
		}
		f.log.Warn("watch error", zap.Error(err))
	case <-f.ticker.C:
	}
	return nil
}

// Pending reports whether a line can be returned without waiting.
func (f *FollowedFile) Pending() bool {
	return len(f.backlog) > 0 || bytes.IndexByte(peekBuffered(f.reader), '\n') >= 0
}

func peekBuffered(r *bufio.Reader) []byte {
	b, _ := r.Peek(r.Buffered())
	return b
}

func (f *FollowedFile) Kind() Kind {
	return KindFollowFile
}

// Close releases the file and the watcher.
func (f *FollowedFile) Close() error {
	if f.ticker != nil {
		f.ticker.Stop()
	}
	var errs []error
	if f.watcher != nil {
		errs = append(errs, f.watcher.Close())
	}
	if f.file != nil {
		errs = append(errs, f.file.Close())
	}
	return errors.Join(errs...)
}
