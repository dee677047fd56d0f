package concurrency_test

import (
	"context"
	"sync/atomic"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/concurrency"
)

func TestConcurrency(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Concurrency Suite")
}

var _ = Describe("Manager", func() {
	var manager *concurrency.Manager

	BeforeEach(func() {
		manager = concurrency.NewManager()
	})

	It("caps the exif limit at 32", func() {
		Expect(manager.Limit(concurrency.OpExif)).To(BeNumerically("<=", 32))
	})

	It("keeps move/copy within 4..128", func() {
		limit := manager.Limit(concurrency.OpMoveCopy)
		Expect(limit).To(BeNumerically(">=", 4))
		Expect(limit).To(BeNumerically("<=", 128))
	})

	It("gives hashing more workers than generic work", func() {
		Expect(manager.Limit(concurrency.OpHash)).To(BeNumerically(">=", manager.Limit(concurrency.OpOther)))
	})

	It("scales limits with the adaptive override", func() {
		before := manager.Limit(concurrency.OpHash)
		manager.Adapt(concurrency.OpHash, []float64{100, 100, 100}, 10)
		Expect(manager.Limit(concurrency.OpHash)).To(BeNumerically(">", before))

		manager.Adapt(concurrency.OpHash, []float64{1, 1, 1}, 10)
		Expect(manager.Limit(concurrency.OpHash)).To(BeNumerically("<", before*3))
	})

	Describe("Do", func() {
		It("runs every unit of work", func() {
			var count atomic.Int64
			err := manager.Do(context.Background(), concurrency.OpOther, 50, func(ctx context.Context, i int) error {
				count.Add(1)
				return nil
			})
			Expect(err).To(BeNil())
			Expect(count.Load()).To(Equal(int64(50)))
		})

		It("returns the first error", func() {
			err := manager.Do(context.Background(), concurrency.OpOther, 10, func(ctx context.Context, i int) error {
				if i == 3 {
					return context.Canceled
				}
				return nil
			})
			Expect(err).To(Equal(context.Canceled))
		})
	})
})
