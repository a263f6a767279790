package workerpool

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelForRunsAll(t *testing.T) {
	p := New(Config{Enabled: true, Workers: 4})
	defer p.Close()

	var counter int64
	p.ParallelFor(100, func(i int) {
		atomic.AddInt64(&counter, 1)
	})
	assert.EqualValues(t, 100, counter)
}

func TestDisabledPoolRunsSynchronously(t *testing.T) {
	p := New(Config{Enabled: false})
	defer p.Close()

	ran := false
	p.Submit(func(context.Context) { ran = true })
	assert.True(t, ran)
}

func TestRunReturnsFunctionError(t *testing.T) {
	p := New(DefaultConfig())
	defer p.Close()

	err := p.Run(context.Background(), func() error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRunRespectsContextCancellation(t *testing.T) {
	p := New(Config{Enabled: true, Workers: 1})
	defer p.Close()

	block := make(chan struct{})
	p.Submit(func(context.Context) { <-block })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Run(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	close(block)
}
