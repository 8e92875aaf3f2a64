package capture

import "sync"

// Ready is a single-use completion signal. Signal may be called any number
// of times; only the first call has an effect.
type Ready struct {
	once sync.Once
	ch   chan struct{}
}

func NewReady() *Ready {
	return &Ready{
		ch: make(chan struct{}),
	}
}

func (r *Ready) Signal() {
	r.once.Do(func() {
		close(r.ch)
	})
}

func (r *Ready) Done() <-chan struct{} {
	return r.ch
}
