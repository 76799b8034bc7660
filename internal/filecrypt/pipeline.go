package filecrypt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/Talha76/Together/internal/crypto"
	"github.com/Talha76/Together/internal/domain"
)

// DefaultChunkSize balances per-chunk AEAD overhead against peak memory.
const DefaultChunkSize = 4 << 20 // 4 MiB

// ErrPipelineClosed is returned for work submitted after Close.
var ErrPipelineClosed = errors.New("together: crypto pipeline is closed")

// Pipeline serialises chunk crypto onto one background worker so callers
// (interactive loops in particular) never run AEAD work inline. Each session
// owns its own Pipeline; there is no process-wide instance.
type Pipeline struct {
	jobs chan func()
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewPipeline starts the worker.
func NewPipeline() *Pipeline {
	p := &Pipeline{
		jobs: make(chan func()),
		quit: make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *Pipeline) run() {
	defer p.wg.Done()
	for {
		select {
		case fn := <-p.jobs:
			fn()
		case <-p.quit:
			return
		}
	}
}

// Close stops the worker after in-flight work completes. Safe to call twice.
func (p *Pipeline) Close() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// submit runs fn on the worker and waits for it to finish. The jobs channel
// is unbuffered: once the send succeeds the worker is committed to running
// fn, so waiting on done cannot hang across Close.
func (p *Pipeline) submit(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}
	select {
	case p.jobs <- wrapped:
	case <-p.quit:
		return ErrPipelineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// EncryptStream reads src one chunk at a time, seals each chunk under key
// with a fresh nonce, and returns the ordered chunk set. onProgress (if
// non-nil) fires after every chunk; ctx is checked at each chunk boundary and
// a cancellation surfaces as ctx.Err, distinguishable from failure.
//
// A zero-length payload yields a chunk set with zero chunks.
func (p *Pipeline) EncryptStream(
	ctx context.Context,
	src io.Reader,
	size int64,
	key domain.SharedSecret,
	chunkSize int,
	onProgress domain.ProgressFunc,
) (domain.FileChunkSet, error) {
	var (
		set domain.FileChunkSet
		err error
	)
	if subErr := p.submit(ctx, func() {
		set, err = encryptStream(ctx, src, size, key, chunkSize, onProgress)
	}); subErr != nil {
		return domain.FileChunkSet{}, subErr
	}
	return set, err
}

// DecryptStream opens every chunk in index order and reassembles the original
// bytes. Any single failed chunk fails the whole operation; no partial file
// is returned. Cancellation surfaces as ctx.Err.
func (p *Pipeline) DecryptStream(
	ctx context.Context,
	set domain.FileChunkSet,
	key domain.SharedSecret,
	onProgress domain.ProgressFunc,
) ([]byte, error) {
	var (
		out []byte
		err error
	)
	if subErr := p.submit(ctx, func() {
		out, err = decryptStream(ctx, set, key, onProgress)
	}); subErr != nil {
		return nil, subErr
	}
	return out, err
}

func encryptStream(
	ctx context.Context,
	src io.Reader,
	size int64,
	key domain.SharedSecret,
	chunkSize int,
	onProgress domain.ProgressFunc,
) (domain.FileChunkSet, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if size < 0 {
		return domain.FileChunkSet{}, fmt.Errorf("together: negative payload size %d", size)
	}

	total := int((size + int64(chunkSize) - 1) / int64(chunkSize))
	set := domain.FileChunkSet{
		Chunks:       make([]domain.FileChunk, 0, total),
		ChunkSize:    chunkSize,
		TotalChunks:  total,
		OriginalSize: size,
	}

	buf := make([]byte, chunkSize)
	remaining := size
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return domain.FileChunkSet{}, err
		}
		n := chunkSize
		if remaining < int64(chunkSize) {
			n = int(remaining)
		}
		if _, err := io.ReadFull(src, buf[:n]); err != nil {
			return domain.FileChunkSet{}, fmt.Errorf("read chunk %d: %w", i, err)
		}
		env, err := crypto.Seal(buf[:n], key)
		if err != nil {
			return domain.FileChunkSet{}, fmt.Errorf("seal chunk %d: %w", i, err)
		}
		set.Chunks = append(set.Chunks, domain.FileChunk{Index: i, Nonce: env.Nonce, Cipher: env.Cipher})
		remaining -= int64(n)
		report(onProgress, i+1, total)
	}
	if total == 0 {
		report(onProgress, 0, 0)
	}
	return set, nil
}

func decryptStream(
	ctx context.Context,
	set domain.FileChunkSet,
	key domain.SharedSecret,
	onProgress domain.ProgressFunc,
) ([]byte, error) {
	// The metadata arrives from an untrusted blob; reject inconsistent
	// values before they size any allocation.
	if set.OriginalSize < 0 || set.TotalChunks < 0 {
		return nil, domain.ErrChunkSetMalformed
	}
	if set.TotalChunks > 0 && set.ChunkSize <= 0 {
		return nil, domain.ErrChunkSetMalformed
	}
	if set.OriginalSize > int64(set.TotalChunks)*int64(set.ChunkSize) {
		return nil, domain.ErrChunkSetMalformed
	}

	// The embedded index is authoritative, not array position: storage or
	// transport may have reordered the list.
	chunks := make([]domain.FileChunk, len(set.Chunks))
	copy(chunks, set.Chunks)
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })

	if len(chunks) != set.TotalChunks {
		return nil, domain.ErrChunkSetMalformed
	}
	for i, c := range chunks {
		if c.Index != i {
			return nil, domain.ErrChunkSetMalformed
		}
	}

	out := make([]byte, 0, set.OriginalSize)
	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pt, err := crypto.Open(domain.Envelope{Nonce: c.Nonce, Cipher: c.Cipher}, key)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", c.Index, err)
		}
		out = append(out, pt...)
		report(onProgress, i+1, len(chunks))
	}
	if len(chunks) == 0 {
		report(onProgress, 0, 0)
	}
	if int64(len(out)) != set.OriginalSize {
		return nil, domain.ErrChunkSetMalformed
	}
	return out, nil
}

func report(onProgress domain.ProgressFunc, done, total int) {
	if onProgress == nil {
		return
	}
	if total <= 0 {
		onProgress(100)
		return
	}
	onProgress(done * 100 / total)
}
