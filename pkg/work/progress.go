package work

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProgressData is reported once per completed or faulted invocation.
type ProgressData struct {
	Duration    time.Duration
	Index       int
	Result      any
	Data        any
	IsError     bool
	IsCancelled bool
	Error       error
}

type ProgressSink interface {
	Report(ProgressData)
}

type ProgressFunc func(ProgressData)

func (f ProgressFunc) Report(p ProgressData) {
	f(p)
}

// Progress decorates an Invoker and reports its outcome to a sink.
type Progress struct {
	inner Invoker
	sink  ProgressSink
	index int
}

// WithProgress returns inv unchanged when sink is nil.
func WithProgress(inv Invoker, sink ProgressSink, index int) Invoker {
	if sink == nil {
		return inv
	}
	return &Progress{inner: inv, sink: sink, index: index}
}

func (p *Progress) Invoke(ctx context.Context) (any, error) {
	var data any
	if dc, ok := p.inner.(DataCarrier); ok {
		data = dc.Data()
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			p.sink.Report(ProgressData{
				Duration: time.Since(start),
				Index:    p.index,
				Data:     data,
				IsError:  true,
				Error:    fmt.Errorf("worker panicked: %v", rec),
			})
			panic(rec)
		}
	}()

	result, err := p.inner.Invoke(ctx)

	report := ProgressData{
		Duration: time.Since(start),
		Index:    p.index,
		Data:     data,
	}
	if err != nil {
		report.IsError = true
		report.IsCancelled = IsCancellation(err)
		report.Error = err
	} else {
		report.Result = result
	}
	p.sink.Report(report)

	return result, err
}

// Data exposes the payload of the decorated item, if any.
func (p *Progress) Data() any {
	if dc, ok := p.inner.(DataCarrier); ok {
		return dc.Data()
	}
	return nil
}

// Lifetime forwards the decorated item's deadline, or zero when it has none.
func (p *Progress) Lifetime() time.Duration {
	if lt, ok := p.inner.(Lifetimed); ok {
		return lt.Lifetime()
	}
	return 0
}

func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
