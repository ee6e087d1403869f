package fetch_test

import (
	"sync"

	"github.com/icecave/fetchblob/fetch"
)

// recorder captures the hooks invoked by a task.
type recorder struct {
	mutex    sync.Mutex
	order    []string
	states   []fetch.StateChange
	uploads  [][2]int64
	progress [][2]int64
	result   *fetch.Result
	err      error

	done chan struct{}
}

func record(t fetch.Task) *recorder {
	r := &recorder{done: make(chan struct{})}

	t.OnStateChange(func(s fetch.StateChange) {
		r.mutex.Lock()
		defer r.mutex.Unlock()
		r.order = append(r.order, "state")
		r.states = append(r.states, s)
	}).OnUploadProgress(func(sent, total int64) {
		r.mutex.Lock()
		defer r.mutex.Unlock()
		r.order = append(r.order, "upload")
		r.uploads = append(r.uploads, [2]int64{sent, total})
	}).OnProgress(func(received, total int64) {
		r.mutex.Lock()
		defer r.mutex.Unlock()
		r.order = append(r.order, "progress")
		r.progress = append(r.progress, [2]int64{received, total})
	}).OnFailure(func(err error) {
		r.mutex.Lock()
		defer r.mutex.Unlock()
		r.order = append(r.order, "failure")
		r.err = err
		close(r.done)
	}).OnSuccess(func(res *fetch.Result) {
		r.mutex.Lock()
		defer r.mutex.Unlock()
		r.order = append(r.order, "success")
		r.result = res
		close(r.done)
	})

	return r
}

// cancel requests cancellation of t, returning a channel that receives the
// error passed to the cancel callback.
func cancel(t fetch.Task) <-chan error {
	ch := make(chan error, 1)
	t.Cancel(func(err error) {
		ch <- err
	})
	return ch
}

func (r *recorder) events() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]string(nil), r.order...)
}
