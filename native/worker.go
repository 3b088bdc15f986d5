package native

import (
	"fmt"
	"sync"
)

type anyResp struct {
	v   any
	err error
}

type anyReq struct {
	run  func() (any, error)
	resp chan anyResp
}

// worker owns the transport: every request runs on one goroutine, in order.
type worker struct {
	req  chan anyReq
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func newWorker() *worker {
	w := &worker{
		req:  make(chan anyReq),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(w.done)

		for {
			select {
			case q := <-w.req:
				var out any
				var err error
				func() {
					defer func() {
						if x := recover(); x != nil {
							err = fmt.Errorf("%v", x)
						}
					}()
					out, err = q.run()
				}()
				q.resp <- anyResp{out, err}
				close(q.resp)
			case <-w.quit:
				return
			}
		}
	}()

	return w
}

func (w *worker) close() {
	w.once.Do(func() {
		close(w.quit)
	})
	<-w.done
}

func do[T any](w *worker, fn func() (T, error)) (T, error) {
	var zero T
	resp := make(chan anyResp, 1)
	select {
	case w.req <- anyReq{
		run:  func() (any, error) { v, err := fn(); return v, err },
		resp: resp,
	}:
	case <-w.quit:
		return zero, ErrChannelClosed
	}
	r0 := <-resp
	v, _ := r0.v.(T)
	return v, r0.err
}
