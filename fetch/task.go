package fetch

import (
	"context"
	"sync"
)

// Task is a handle to one transfer.
//
// Hooks must be registered before Start is called. All hooks of a task are
// invoked sequentially, never concurrently, in the order: state change, zero
// or more progress callbacks, then exactly one of the failure hook, the
// success hook or the cancel callback.
type Task interface {
	// ID returns the unique identifier of the task.
	ID() string

	OnStateChange(func(StateChange)) Task
	OnUploadProgress(func(sent, total int64)) Task
	OnProgress(func(received, total int64)) Task
	OnFailure(func(error)) Task
	OnSuccess(func(*Result)) Task

	// Cancel requests cancellation of the transfer. fn is invoked with nil
	// once the cancellation takes effect, or with ErrTaskDone if the transfer
	// had already finished.
	Cancel(fn func(error))

	// Start begins the transfer. It does not block.
	Start()
}

type hooks struct {
	stateChange    func(StateChange)
	uploadProgress func(int64, int64)
	progress       func(int64, int64)
	failure        func(error)
	success        func(*Result)
}

// task is the Task implementation used by fetcher.
type task struct {
	id      string
	run     func(context.Context, *task) (*Result, error)
	discard func(*Result)

	mutex    sync.Mutex
	hooks    hooks
	started  bool
	finished bool
	canceled bool
	onCancel func(error)
	cancel   context.CancelFunc

	deliveryMutex sync.Mutex
	closed        bool
}

func (t *task) ID() string {
	return t.id
}

func (t *task) OnStateChange(fn func(StateChange)) Task {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.hooks.stateChange = fn
	return t
}

func (t *task) OnUploadProgress(fn func(sent, total int64)) Task {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.hooks.uploadProgress = fn
	return t
}

func (t *task) OnProgress(fn func(received, total int64)) Task {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.hooks.progress = fn
	return t
}

func (t *task) OnFailure(fn func(error)) Task {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.hooks.failure = fn
	return t
}

func (t *task) OnSuccess(fn func(*Result)) Task {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.hooks.success = fn
	return t
}

func (t *task) Cancel(fn func(error)) {
	t.mutex.Lock()
	if t.finished {
		t.mutex.Unlock()
		if fn != nil {
			fn(ErrTaskDone)
		}
		return
	}

	t.canceled = true
	t.onCancel = fn
	cancel := t.cancel
	t.mutex.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (t *task) Start() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.started {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.started = true
	t.cancel = cancel
	if t.canceled {
		cancel()
	}

	go t.execute(ctx)
}

func (t *task) execute(ctx context.Context) {
	defer t.cancel()

	result, err := t.run(ctx, t)

	t.mutex.Lock()
	t.finished = true
	canceled := t.canceled
	onCancel := t.onCancel
	h := t.hooks
	t.mutex.Unlock()

	switch {
	case canceled:
		if result != nil && t.discard != nil {
			t.discard(result)
		}
		t.close(func() {
			if onCancel != nil {
				onCancel(nil)
			}
		})
	case err != nil:
		t.close(func() {
			if h.failure != nil {
				h.failure(err)
			}
		})
	default:
		t.close(func() {
			if h.success != nil {
				h.success(result)
			}
		})
	}
}

// emit invokes fn unless the task's terminal hook has already been invoked.
func (t *task) emit(fn func(hooks)) {
	t.mutex.Lock()
	h := t.hooks
	canceled := t.canceled
	t.mutex.Unlock()

	if canceled {
		return
	}

	t.deliveryMutex.Lock()
	defer t.deliveryMutex.Unlock()

	if !t.closed {
		fn(h)
	}
}

// close invokes fn as the terminal hook of the task.
func (t *task) close(fn func()) {
	t.deliveryMutex.Lock()
	defer t.deliveryMutex.Unlock()

	if t.closed {
		return
	}

	t.closed = true
	fn()
}
