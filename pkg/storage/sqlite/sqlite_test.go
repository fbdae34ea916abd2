package sqlite_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workcharge/charge/pkg/llm"
	"github.com/workcharge/charge/pkg/storage"
	"github.com/workcharge/charge/pkg/storage/sqlite"
	"github.com/workcharge/charge/pkg/storage/storagetest"
)

var _ = Describe("Driver", func() {
	Context("in memory", func() {
		storagetest.DescribeDriver(func() storage.Driver {
			d, err := sqlite.NewDriver(context.Background(), ":memory:")
			Expect(err).NotTo(HaveOccurred())
			return d
		})
	})

	Context("on disk", func() {
		It("keeps messages across reopen", func() {
			ctx := context.Background()
			path := filepath.Join(GinkgoT().TempDir(), "charge.db")

			d, err := sqlite.NewDriver(ctx, path)
			Expect(err).NotTo(HaveOccurred())
			m := llm.NewChatMessage(llm.RoleUser, "remember me")
			Expect(d.Append(ctx, "session_disk", m)).To(Succeed())
			Expect(d.Close()).To(Succeed())

			d, err = sqlite.NewDriver(ctx, path)
			Expect(err).NotTo(HaveOccurred())
			defer d.Close()

			msgs, err := d.Messages(ctx, "session_disk")
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Content).To(Equal("remember me"))
		})

		It("fails for a path in a missing directory", func() {
			_, err := sqlite.NewDriver(context.Background(), "/nonexistent/dir/charge.db")
			Expect(err).To(HaveOccurred())
		})
	})
})
