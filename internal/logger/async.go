package logger

import "context"

// ProgressEvent is one message passed from the worker goroutine to the
// presentation goroutine.
type ProgressEvent struct {
	Current int
	Total   int
	Message string
	IsLog   bool
}

// AsyncProgress forwards progress reports and log messages over a buffered
// channel so the worker never touches presentation state. Report and Emit
// are called from the worker; Run drains the channel on the presentation
// side until Close is called or ctx ends.
type AsyncProgress struct {
	events chan ProgressEvent
}

// NewAsyncProgress creates an AsyncProgress with the given buffer size.
func NewAsyncProgress(buffer int) *AsyncProgress {
	if buffer < 1 {
		buffer = 64
	}
	return &AsyncProgress{events: make(chan ProgressEvent, buffer)}
}

// Report queues a progress notification.
func (a *AsyncProgress) Report(current, total int) {
	a.events <- ProgressEvent{Current: current, Total: total}
}

// Emit queues a log message.
func (a *AsyncProgress) Emit(message string) {
	a.events <- ProgressEvent{Message: message, IsLog: true}
}

// Close signals that no more events will be sent. The worker calls it once
// it has finished.
func (a *AsyncProgress) Close() {
	close(a.events)
}

// ProgressSink receives forwarded progress reports.
type ProgressSink interface {
	Report(current, total int)
}

// LogSink receives forwarded log messages.
type LogSink interface {
	Emit(message string)
}

// Run delivers queued events in order until the channel is closed. Once ctx
// ends, Run stops delivering progress but keeps draining, forwarding only
// log messages, so the worker never blocks.
func (a *AsyncProgress) Run(ctx context.Context, progress ProgressSink, log LogSink) error {
	for {
		if err := ctx.Err(); err != nil {
			for ev := range a.events {
				if ev.IsLog && log != nil {
					log.Emit(ev.Message)
				}
			}
			return err
		}

		select {
		case ev, ok := <-a.events:
			if !ok {
				return nil
			}
			deliver(ev, progress, log)
		case <-ctx.Done():
		}
	}
}

func deliver(ev ProgressEvent, progress ProgressSink, log LogSink) {
	if ev.IsLog {
		if log != nil {
			log.Emit(ev.Message)
		}
		return
	}
	if progress != nil {
		progress.Report(ev.Current, ev.Total)
	}
}
