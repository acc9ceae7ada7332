package work_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/godispatch/core/pkg/errors"
	"github.com/godispatch/core/pkg/work"
)

type sinkRecorder struct {
	mu      sync.Mutex
	reports []work.ProgressData
}

func (s *sinkRecorder) Report(p work.ProgressData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, p)
}

var echo = work.ValueActionFunc[string](func(_ context.Context, data string) (any, error) {
	return "echo:" + data, nil
})

var _ = Describe("Work items", func() {
	Context("construction", func() {
		It("should require a function", func() {
			_, err := work.Func(nil)
			Expect(srvErrors.IsArgumentRequiredError(err)).To(BeTrue())

			_, err = work.Action(nil)
			Expect(srvErrors.IsArgumentRequiredError(err)).To(BeTrue())
		})

		It("should require a value action", func() {
			_, err := work.NewValue[string](nil, "x")
			Expect(srvErrors.IsArgumentRequiredError(err)).To(BeTrue())

			_, err = work.NewValue(work.ValueActionFunc[string](nil), "x")
			Expect(srvErrors.IsArgumentRequiredError(err)).To(BeTrue())

			_, err = work.NewValueLifetime[string](nil, "x", time.Second)
			Expect(srvErrors.IsArgumentRequiredError(err)).To(BeTrue())
		})
	})

	Context("plain", func() {
		It("should pass the context to the function", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			inv, err := work.Func(func(ctx context.Context) error { return ctx.Err() })
			Expect(err).NotTo(HaveOccurred())

			_, err = inv.Invoke(ctx)
			Expect(err).To(MatchError(context.Canceled))
		})

		It("should run a zero-argument action", func() {
			called := 0
			inv, err := work.Action(func() { called++ })
			Expect(err).NotTo(HaveOccurred())

			_, err = inv.Invoke(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(called).To(Equal(1))
		})
	})

	Context("payload-bound", func() {
		It("should invoke the action with its payload", func() {
			v, err := work.NewValue(echo, "data")
			Expect(err).NotTo(HaveOccurred())

			result, err := v.Invoke(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal("echo:data"))
			Expect(v.Data()).To(Equal("data"))
		})
	})

	Context("time-limited", func() {
		DescribeTable("lifetime normalization",
			func(in, expected time.Duration) {
				v, err := work.NewValueLifetime(echo, "data", in)
				Expect(err).NotTo(HaveOccurred())
				Expect(v.Lifetime()).To(Equal(expected))
				Expect(v.Data()).To(Equal("data"))
			},
			Entry("zero becomes one minute", time.Duration(0), time.Minute),
			Entry("negative becomes one minute", -time.Second, time.Minute),
			Entry("positive is kept", 5*time.Second, 5*time.Second),
		)
	})

	Context("progress", func() {
		It("should report success with payload and result", func() {
			v, err := work.NewValue(echo, "data")
			Expect(err).NotTo(HaveOccurred())

			sink := &sinkRecorder{}
			inv := work.WithProgress(v, sink, 7)

			result, err := inv.Invoke(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal("echo:data"))

			Expect(sink.reports).To(HaveLen(1))
			p := sink.reports[0]
			Expect(p.Index).To(Equal(7))
			Expect(p.Data).To(Equal("data"))
			Expect(p.Result).To(Equal("echo:data"))
			Expect(p.IsError).To(BeFalse())
			Expect(p.Duration).To(BeNumerically(">=", 0))
		})

		It("should report and re-raise a fault", func() {
			boom := errors.New("boom")
			inner, err := work.Func(func(context.Context) error { return boom })
			Expect(err).NotTo(HaveOccurred())

			sink := &sinkRecorder{}
			_, err = work.WithProgress(inner, sink, 1).Invoke(context.Background())
			Expect(err).To(MatchError(boom))

			Expect(sink.reports).To(HaveLen(1))
			Expect(sink.reports[0].IsError).To(BeTrue())
			Expect(sink.reports[0].IsCancelled).To(BeFalse())
			Expect(sink.reports[0].Error).To(MatchError(boom))
			Expect(sink.reports[0].Data).To(BeNil())
		})

		It("should report a panic before re-raising it", func() {
			v, err := work.NewValue(work.ValueActionFunc[string](func(context.Context, string) (any, error) {
				panic("boom")
			}), "data")
			Expect(err).NotTo(HaveOccurred())

			sink := &sinkRecorder{}
			inv := work.WithProgress(v, sink, 7)

			Expect(func() { _, _ = inv.Invoke(context.Background()) }).To(PanicWith("boom"))

			Expect(sink.reports).To(HaveLen(1))
			p := sink.reports[0]
			Expect(p.Index).To(Equal(7))
			Expect(p.Data).To(Equal("data"))
			Expect(p.IsError).To(BeTrue())
			Expect(p.IsCancelled).To(BeFalse())
			Expect(p.Error).To(MatchError(ContainSubstring("worker panicked: boom")))
		})

		It("should flag cancellation", func() {
			inner, err := work.Func(func(ctx context.Context) error { return context.DeadlineExceeded })
			Expect(err).NotTo(HaveOccurred())

			var got work.ProgressData
			_, err = work.WithProgress(inner, work.ProgressFunc(func(p work.ProgressData) { got = p }), 0).
				Invoke(context.Background())
			Expect(work.IsCancellation(err)).To(BeTrue())
			Expect(got.IsError).To(BeTrue())
			Expect(got.IsCancelled).To(BeTrue())
		})

		It("should forward the lifetime of the decorated item", func() {
			v, err := work.NewValueLifetime(echo, "data", 3*time.Second)
			Expect(err).NotTo(HaveOccurred())

			inv := work.WithProgress(v, &sinkRecorder{}, 0)
			lt, ok := inv.(work.Lifetimed)
			Expect(ok).To(BeTrue())
			Expect(lt.Lifetime()).To(Equal(3 * time.Second))
		})

		It("should return the item unchanged without a sink", func() {
			v, err := work.NewValue(echo, "data")
			Expect(err).NotTo(HaveOccurred())
			Expect(work.WithProgress(v, nil, 0)).To(BeIdenticalTo(v))
		})
	})
})
