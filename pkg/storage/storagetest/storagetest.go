// Package storagetest holds behavior shared by every storage.Driver test
// suite.
package storagetest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/workcharge/charge/pkg/llm"
	"github.com/workcharge/charge/pkg/storage"
)

// DescribeDriver registers tests that exercise a storage.Driver. newDriver
// is called before every test and must return an empty store.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = nil
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	Describe("Append and Messages", func() {
		It("returns messages in creation order", func() {
			q := llm.NewChatMessage(llm.RoleUser, "what is my fortune today?")
			a := llm.NewChatMessage(llm.RoleAssistant, "bright, wear green")

			Expect(driver.Append(ctx, "session_a", q, a)).To(Succeed())

			msgs, err := driver.Messages(ctx, "session_a")
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].ID).To(Equal(q.ID))
			Expect(msgs[0].Role).To(Equal(llm.RoleUser))
			Expect(msgs[0].Content).To(Equal("what is my fortune today?"))
			Expect(msgs[1].ID).To(Equal(a.ID))
			Expect(msgs[1].Role).To(Equal(llm.RoleAssistant))
			Expect(msgs[0].CreatedAt).To(BeTemporally("~", q.CreatedAt, time.Microsecond))
		})

		It("keeps the failed flag", func() {
			m := llm.NewChatMessage(llm.RoleAssistant, "Sorry, an error occurred")
			m.Failed = true
			Expect(driver.Append(ctx, "session_a", m)).To(Succeed())

			msgs, err := driver.Messages(ctx, "session_a")
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Failed).To(BeTrue())
		})

		It("ignores messages that were already stored", func() {
			m := llm.NewChatMessage(llm.RoleUser, "hello")
			Expect(driver.Append(ctx, "session_a", m)).To(Succeed())
			Expect(driver.Append(ctx, "session_a", m)).To(Succeed())

			msgs, err := driver.Messages(ctx, "session_a")
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
		})

		It("keeps sessions apart", func() {
			Expect(driver.Append(ctx, "session_a", llm.NewChatMessage(llm.RoleUser, "a"))).To(Succeed())
			Expect(driver.Append(ctx, "session_b", llm.NewChatMessage(llm.RoleUser, "b"))).To(Succeed())

			msgs, err := driver.Messages(ctx, "session_b")
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].Content).To(Equal("b"))
		})

		It("rejects an empty session id", func() {
			err := driver.Append(ctx, "", llm.NewChatMessage(llm.RoleUser, "a"))
			Expect(err).To(HaveOccurred())
		})

		It("returns ErrNotFound for an unknown session", func() {
			_, err := driver.Messages(ctx, "session_missing")
			Expect(err).To(MatchError(storage.ErrNotFound{SessionID: "session_missing"}))
		})
	})

	Describe("Sessions", func() {
		It("returns nothing for an empty store", func() {
			sessions, err := driver.Sessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(BeEmpty())
		})

		It("summarizes sessions, most recent first", func() {
			first := llm.NewChatMessage(llm.RoleUser, "first question")
			reply := llm.NewChatMessage(llm.RoleAssistant, "first answer")
			Expect(driver.Append(ctx, "session_old", first, reply)).To(Succeed())

			later := llm.NewChatMessage(llm.RoleUser, "second question")
			later.CreatedAt = reply.CreatedAt.Add(time.Second)
			Expect(driver.Append(ctx, "session_new", later)).To(Succeed())

			sessions, err := driver.Sessions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(2))

			Expect(sessions[0].SessionID).To(Equal("session_new"))
			Expect(sessions[0].MessageCount).To(Equal(1))
			Expect(sessions[0].FirstPrompt).To(Equal("second question"))

			Expect(sessions[1].SessionID).To(Equal("session_old"))
			Expect(sessions[1].MessageCount).To(Equal(2))
			Expect(sessions[1].FirstPrompt).To(Equal("first question"))
			Expect(sessions[1].StartedAt).To(BeTemporally("~", first.CreatedAt, time.Microsecond))
			Expect(sessions[1].UpdatedAt).To(BeTemporally("~", reply.CreatedAt, time.Microsecond))
		})
	})
}
