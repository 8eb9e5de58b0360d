package asyncwrite

import (
	"fmt"
	"io"
	"sync"

	pool "github.com/libp2p/go-buffer-pool"
)

// OrderedWriter writes indexed buffers to dest in index order from a background
// goroutine. Buffers may be submitted out of order and from several goroutines;
// ownership passes to the writer, which returns them to the buffer pool once
// written.
type OrderedWriter struct {
	dest io.Writer
	ch   chan chunk
	done chan struct{}
	err  error

	finish sync.Once
}

type chunk struct {
	idx int
	buf []byte
}

func New(dest io.Writer, bufferDepth int) *OrderedWriter {
	ow := &OrderedWriter{
		dest: dest,
		ch:   make(chan chunk, bufferDepth),
		done: make(chan struct{}),
	}

	go ow.writeWorker(ow.ch)

	return ow
}

func (ow *OrderedWriter) writeWorker(ch <-chan chunk) {
	defer close(ow.done)

	pending := map[int][]byte{}
	next := 0

	for c := range ch {
		if ow.err != nil {
			// keep draining so submitters never block
			pool.Put(c.buf)
			continue
		}

		if _, dup := pending[c.idx]; dup || c.idx < next {
			pool.Put(c.buf)
			ow.err = fmt.Errorf("chunk %d submitted twice", c.idx)
			continue
		}
		pending[c.idx] = c.buf

		for buf, ok := pending[next]; ok; buf, ok = pending[next] {
			delete(pending, next)

			_, writeErr := ow.dest.Write(buf)
			pool.Put(buf)
			if writeErr != nil {
				ow.err = writeErr
				break
			}
			next++
		}
	}

	for idx, buf := range pending {
		pool.Put(buf)
		if ow.err == nil {
			ow.err = fmt.Errorf("chunk %d never written, chunk %d is missing", idx, next)
		}
	}

	if flusher, ok := ow.dest.(interface{ Flush() error }); ok {
		if flushErr := flusher.Flush(); flushErr != nil && ow.err == nil {
			ow.err = flushErr
		}
	}
}

// Submit queues buf as chunk idx. Chunks are numbered from 0. Submit must not be
// called after Finish.
func (ow *OrderedWriter) Submit(idx int, buf []byte) {
	ow.ch <- chunk{idx: idx, buf: buf}
}

// Finish waits for all submitted chunks to be written and flushes dest. It may
// be called more than once.
func (ow *OrderedWriter) Finish() error {
	ow.finish.Do(func() {
		close(ow.ch)
	})
	<-ow.done

	if ow.err != nil {
		return fmt.Errorf("error during close: %w", ow.err)
	}
	return nil
}

func (ow *OrderedWriter) Close() error {
	if err := ow.Finish(); err != nil {
		return err
	}

	if closer, ok := ow.dest.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}
