package batch_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/godispatch/core/pkg/batch"
	"github.com/godispatch/core/pkg/dispatcher"
	srvErrors "github.com/godispatch/core/pkg/errors"
)

type report struct {
	err       error
	cancelled bool
}

type recorder struct {
	mu      sync.Mutex
	reports []report
}

func (r *recorder) HandleError(err error, _ time.Duration, cancelled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report{err: err, cancelled: cancelled})
}

func (r *recorder) Reports() []report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]report(nil), r.reports...)
}

type collector[T any] struct {
	mu      sync.Mutex
	batches [][]T
}

func (c *collector[T]) handle(_ context.Context, items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, items)
	return nil
}

func (c *collector[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []T
	for _, b := range c.batches {
		out = append(out, b...)
	}
	return out
}

func (c *collector[T]) Batches() [][]T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]T(nil), c.batches...)
}

type event struct {
	Name string
}

var _ = Describe("Batch token", func() {
	var (
		token  *dispatcher.Token
		tok    *batch.Token
		rec    *recorder
		events *collector[event]
	)

	BeforeEach(func() {
		var err error
		rec = &recorder{}
		token, err = dispatcher.NewFactory(rec).Start(dispatcher.Settings{PrefetchCount: 4, Timeout: 5 * time.Second})
		Expect(err).NotTo(HaveOccurred())
		events = &collector[event]{}
	})

	AfterEach(func() {
		Expect(tok.Close()).To(Succeed())
		token.WaitCompleted(5 * time.Second)
		Expect(token.Close()).To(Succeed())
	})

	Context("sending", func() {
		BeforeEach(func() {
			tok = batch.New(token.Plugin())
			Expect(batch.Handle[event](tok, events.handle)).To(Succeed())
		})

		It("should reject nil payloads", func() {
			Expect(srvErrors.IsArgumentRequiredError(tok.Send(nil))).To(BeTrue())
		})

		It("should reject payloads without a handler", func() {
			err := tok.Send(42)
			Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		})

		It("should reject a second handler for the same type", func() {
			err := batch.Handle[event](tok, events.handle)
			Expect(srvErrors.IsInvalidSettingsError(err)).To(BeTrue())
		})

		It("should reject handlers for interface types", func() {
			err := batch.Handle[fmt.Stringer](tok, func(context.Context, []fmt.Stringer) error { return nil })
			Expect(srvErrors.IsInvalidSettingsError(err)).To(BeTrue())
			Expect(err).To(MatchError(ContainSubstring("interface")))
		})

		It("should reject a nil handler", func() {
			err := batch.Handle[string](tok, nil)
			Expect(srvErrors.IsArgumentRequiredError(err)).To(BeTrue())
		})

		It("should deliver queued payloads once on flush", func() {
			// Given
			for _, name := range []string{"a", "b", "c"} {
				Expect(tok.Send(event{Name: name})).To(Succeed())
			}
			Expect(tok.Pending(reflect.TypeFor[event]())).To(Equal(3))

			// When
			flushed := batch.Flush[event](tok)

			// Then
			Expect(flushed).To(BeTrue())
			Eventually(events.Items).Should(Equal([]event{{Name: "a"}, {Name: "b"}, {Name: "c"}}))
			Consistently(events.Batches, 100*time.Millisecond).Should(HaveLen(1))
		})

		It("should not raise an event for an empty queue", func() {
			Expect(batch.Flush[event](tok)).To(BeFalse())
			Expect(tok.FlushType(reflect.TypeFor[string]())).To(BeFalse())
		})
	})

	Context("limits", func() {
		It("should split batches by the item limit", func() {
			// Given
			tok = batch.New(token.Plugin(), batch.WithMaxItems(2))
			Expect(batch.Handle[event](tok, events.handle)).To(Succeed())

			// When
			for i := range 5 {
				Expect(tok.Send(event{Name: string(rune('a' + i))})).To(Succeed())
			}
			batch.Flush[event](tok)

			// Then
			Eventually(events.Items).Should(HaveLen(5))
			for _, b := range events.Batches() {
				Expect(len(b)).To(BeNumerically("<=", 2))
			}
		})

		It("should flush on the interval without an explicit flush", func() {
			// Given
			tok = batch.New(token.Plugin())
			Expect(batch.Handle[event](tok, events.handle, batch.WithInterval(20*time.Millisecond))).To(Succeed())

			// When
			Expect(tok.Send(event{Name: "tick"})).To(Succeed())

			// Then
			Eventually(events.Items).Should(Equal([]event{{Name: "tick"}}))
		})
	})

	Context("concurrent triggers", func() {
		It("should deliver every payload exactly once", func() {
			// Given
			ints := &collector[int]{}
			tok = batch.New(token.Plugin(), batch.WithMaxItems(7))
			Expect(batch.Handle[int](tok, ints.handle, batch.WithInterval(time.Millisecond))).To(Succeed())

			// When
			var wg sync.WaitGroup
			for g := range 10 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					for i := range 50 {
						Expect(tok.Send(g*50 + i)).To(Succeed())
						if i%5 == 0 {
							batch.Flush[int](tok)
						}
					}
				}()
			}
			wg.Wait()
			tok.Stop()
			token.WaitCompleted(5 * time.Second)

			// Then
			items := ints.Items()
			Expect(items).To(HaveLen(500))
			seen := make(map[int]bool, len(items))
			for _, v := range items {
				Expect(seen).NotTo(HaveKey(v))
				seen[v] = true
			}
		})
	})

	Context("stopping", func() {
		BeforeEach(func() {
			tok = batch.New(token.Plugin())
			Expect(batch.Handle[event](tok, events.handle)).To(Succeed())
		})

		It("should drain queued payloads before completing", func() {
			// Given
			Expect(tok.Send(event{Name: "last"})).To(Succeed())

			// When
			tok.Stop()
			token.WaitCompleted(5 * time.Second)

			// Then
			Expect(events.Items()).To(Equal([]event{{Name: "last"}}))
			Expect(tok.Context().Err()).To(MatchError(context.Canceled))
		})

		It("should refuse payloads after stop", func() {
			Expect(tok.StopWithin(time.Second)).To(BeTrue())
			Expect(tok.Send(event{Name: "late"})).To(MatchError(srvErrors.ErrBatchStopped))
		})
	})

	Context("retries", func() {
		It("should retry a failing batch until it succeeds", func() {
			// Given
			var attempts atomic.Int32
			tok = batch.New(token.Plugin(), batch.WithRetryInterval(time.Millisecond))
			Expect(batch.Handle[event](tok, func(context.Context, []event) error {
				if attempts.Add(1) < 3 {
					return errors.New("unavailable")
				}
				return nil
			}, batch.WithRetries(3))).To(Succeed())

			// When
			Expect(tok.Send(event{Name: "retry"})).To(Succeed())
			Expect(batch.Flush[event](tok)).To(BeTrue())

			// Then
			Eventually(func() int64 { return token.Stats().Processed }).Should(BeNumerically("==", 1))
			Expect(attempts.Load()).To(BeNumerically("==", 3))
			Expect(rec.Reports()).To(BeEmpty())
		})

		It("should report the error once retries are exhausted", func() {
			// Given
			boom := errors.New("still unavailable")
			var attempts atomic.Int32
			tok = batch.New(token.Plugin(), batch.WithRetryInterval(time.Millisecond))
			Expect(batch.Handle[event](tok, func(context.Context, []event) error {
				attempts.Add(1)
				return boom
			}, batch.WithRetries(1))).To(Succeed())

			// When
			Expect(tok.Send(event{Name: "fail"})).To(Succeed())
			Expect(batch.Flush[event](tok)).To(BeTrue())

			// Then
			Eventually(rec.Reports).Should(HaveLen(1))
			Expect(attempts.Load()).To(BeNumerically("==", 2))
			reports := rec.Reports()
			Expect(reports).To(HaveLen(1))
			Expect(reports[0].err).To(MatchError(boom))
			Expect(reports[0].cancelled).To(BeFalse())
		})

		It("should stop retrying on a permanent error", func() {
			// Given
			boom := errors.New("malformed batch")
			var attempts atomic.Int32
			tok = batch.New(token.Plugin(), batch.WithRetryInterval(time.Millisecond))
			Expect(batch.Handle[event](tok, func(context.Context, []event) error {
				attempts.Add(1)
				return backoff.Permanent(boom)
			}, batch.WithRetries(5))).To(Succeed())

			// When
			Expect(tok.Send(event{Name: "bad"})).To(Succeed())
			Expect(batch.Flush[event](tok)).To(BeTrue())

			// Then
			Eventually(rec.Reports).Should(HaveLen(1))
			Expect(attempts.Load()).To(BeNumerically("==", 1))
			Expect(rec.Reports()[0].err).To(MatchError(boom))
		})
	})
})
