package asyncwrite

import (
	"bytes"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	pool "github.com/libp2p/go-buffer-pool"
	"github.com/stretchr/testify/require"
)

func chunkOf(i int) []byte {
	b := pool.Get(4)
	copy(b, []byte{byte(i), byte(i), byte(i), byte(i)})
	return b
}

func TestOrderedWriterReorders(t *testing.T) {
	var out bytes.Buffer
	ow := New(&out, 2)

	order := rand.New(rand.NewSource(1)).Perm(32)

	var wg sync.WaitGroup
	for _, i := range order {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ow.Submit(i, chunkOf(i))
		}(i)
	}
	wg.Wait()
	require.NoError(t, ow.Finish())

	var want []byte
	for i := 0; i < 32; i++ {
		want = append(want, byte(i), byte(i), byte(i), byte(i))
	}
	require.Equal(t, want, out.Bytes())

	// finishing twice is harmless
	require.NoError(t, ow.Finish())
}

func TestOrderedWriterFinishEmpty(t *testing.T) {
	for i := 0; i < 200; i++ {
		var out bytes.Buffer
		ow := New(&out, 1)

		done := make(chan error, 1)
		go func() {
			done <- ow.Finish()
		}()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatalf("Finish blocked on iteration %d", i)
		}
		require.Zero(t, out.Len())
		require.NoError(t, ow.Finish())
	}
}

func TestOrderedWriterGap(t *testing.T) {
	var out bytes.Buffer
	ow := New(&out, 4)

	ow.Submit(0, chunkOf(0))
	ow.Submit(2, chunkOf(2))
	require.ErrorContains(t, ow.Finish(), "chunk 1 is missing")
	require.Equal(t, 4, out.Len())
}

func TestOrderedWriterDuplicate(t *testing.T) {
	ow := New(&bytes.Buffer{}, 4)

	ow.Submit(0, chunkOf(0))
	ow.Submit(0, chunkOf(0))
	require.ErrorContains(t, ow.Finish(), "submitted twice")
}

type failWriter struct{ n int }

var errWrite = errors.New("write failed")

func (f *failWriter) Write(p []byte) (int, error) {
	if f.n == 0 {
		return 0, errWrite
	}
	f.n--
	return len(p), nil
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestOrderedWriterErrors(t *testing.T) {
	ow := New(&failWriter{n: 1}, 1)
	for i := 0; i < 8; i++ {
		ow.Submit(i, chunkOf(i))
	}
	require.ErrorIs(t, ow.Finish(), errWrite)

	cr := &closeRecorder{}
	ow = New(cr, 1)
	ow.Submit(0, chunkOf(0))
	require.NoError(t, ow.Close())
	require.True(t, cr.closed)
}
