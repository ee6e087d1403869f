package xhr

import "github.com/icecave/fetchblob/event"

// relay converts the byte counts reported by a task into progress events.
// A new relay is used for each send.
type relay struct {
	req           *Request
	uploadStarted bool
}

func (p *relay) upload(sent, total int64) {
	up := &p.req.upload

	if !p.uploadStarted {
		p.uploadStarted = true
		up.Dispatch(event.LoadStart, nil)
	}

	if sent >= total {
		up.Dispatch(event.Load, nil)
	}

	up.Dispatch(event.Progress, event.ProgressDetail{
		LengthComputable: true,
		Loaded:           sent,
		Total:            total,
	})
}

func (p *relay) download(received, total int64) {
	r := p.req

	r.mutex.Lock()
	advance := r.readyState == HeadersReceived
	r.mutex.Unlock()

	if advance {
		r.dispatchReadyStateChange(Loading)
	}

	r.Dispatch(event.Progress, event.ProgressDetail{
		LengthComputable: total >= 0,
		Loaded:           received,
		Total:            total,
	})
}
