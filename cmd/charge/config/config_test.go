package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/workcharge/charge/cmd/charge/config"
	"github.com/workcharge/charge/pkg/cliui"
)

func run(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := configcmder.NewConfigCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return cliui.Plain(out.String()), err
}

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, reset, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "reset", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "charge-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .charge dir so the manager picks it up
		err = os.MkdirAll(filepath.Join(tmpDir, ".charge"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			_, err := run("set", "agent.user_id", "admin")
			Expect(err).NotTo(HaveOccurred())

			// Verify the config file was created
			_, err = os.Stat(filepath.Join(tmpDir, ".charge", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects unknown keys", func() {
			_, err := run("set", "invalid_key", "value")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			_, err := run("set", "agent.user_id")
			Expect(err).To(HaveOccurred())
		})

		It("rejects an invalid timeout", func() {
			_, err := run("set", "agent.timeout", "soon")
			Expect(err).To(HaveOccurred())
		})

		It("rejects an unknown render format", func() {
			_, err := run("set", "render.format", "pdf")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			_, err := run("set", "agent.user_id", "admin")
			Expect(err).NotTo(HaveOccurred())

			out, err := run("get", "agent.user_id")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("agent.user_id  admin"))
		})

		It("shows unset keys", func() {
			out, err := run("get", "agent.user_id")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			_, err := run("get", "invalid_key")
			Expect(err).To(HaveOccurred())
		})

		It("requires exactly one argument", func() {
			_, err := run("get")
			Expect(err).To(HaveOccurred())
		})

		It("prints only the value with --raw", func() {
			out, err := run("get", "--raw", "agent.base_url")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("http://localhost:5000/api\n"))
		})
	})

	Describe("reset subcommand", func() {
		It("restores a default", func() {
			_, err := run("set", "render.format", "raw")
			Expect(err).NotTo(HaveOccurred())

			out, err := run("reset", "render.format")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("render.format = terminal (default)"))

			out, err = run("get", "--raw", "render.format")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("terminal\n"))
		})

		It("clears keys without a default", func() {
			_, err := run("set", "agent.user_id", "admin")
			Expect(err).NotTo(HaveOccurred())

			out, err := run("reset", "agent.user_id")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Cleared agent.user_id"))

			out, err = run("get", "--raw", "agent.user_id")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("\n"))
		})

		It("rejects unknown keys", func() {
			_, err := run("reset", "invalid_key")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			out, err := run("list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("agent.base_url"))
			Expect(out).To(ContainSubstring("events.kafka_topic"))
		})

		It("shows stored values", func() {
			_, err := run("set", "serve.listen", ":9000")
			Expect(err).NotTo(HaveOccurred())

			out, err := run("list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(MatchRegexp(`serve\.listen\s+= ":9000"`))
		})

		It("groups keys by section", func() {
			out, err := run("list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("[agent]"))
			Expect(out).To(ContainSubstring("[render]"))
		})

		It("masks secrets unless asked", func() {
			_, err := run("set", "storage.postgres_dsn", "postgres://u:hunter2@db/charge")
			Expect(err).NotTo(HaveOccurred())

			out, err := run("list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).NotTo(ContainSubstring("hunter2"))
			Expect(out).To(ContainSubstring("[redacted]"))

			out, err = run("list", "--show-secrets")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("hunter2"))
		})

		It("rejects any arguments", func() {
			_, err := run("list", "extra")
			Expect(err).To(HaveOccurred())
		})
	})
})
