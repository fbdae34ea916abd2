package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/workcharge/charge/pkg/config"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads a valid config file and fills the gaps with defaults", func() {
			data := `version = 0

[agent]
base_url = "https://agent.example.test/api"
user_id = "42"

[render]
word_wrap = 100
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Agent.BaseURL).To(Equal("https://agent.example.test/api"))
			Expect(cfg.Agent.UserID).To(Equal("42"))
			Expect(cfg.Agent.Timeout).To(Equal("0"))
			Expect(cfg.Render.WordWrap).To(Equal(uint(100)))
			Expect(cfg.Render.Format).To(Equal(config.FormatTerminal))
			Expect(cfg.Serve.Listen).To(Equal(":8090"))
		})

		It("returns error for malformed TOML", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not valid [[["), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
		})

		It("returns error for unsupported config version", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("version = 7\n"), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Storage.SQLitePath = "/tmp/charge.db"
			Expect(c.SaveConfig(cfg)).To(Succeed())

			data, err := os.ReadFile(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`sqlite_path = "/tmp/charge.db"`))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(nil)).To(HaveOccurred())
		})
	})

	Describe("SetConfigValue", func() {
		var c *config.Configer

		BeforeEach(func() {
			var err error
			c, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("sets a string config key", func() {
			Expect(c.SetConfigValue("agent.base_url", "http://10.0.0.5:5000/api")).To(Succeed())

			val, err := c.GetConfigValue("agent.base_url")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("http://10.0.0.5:5000/api"))
		})

		It("sets a uint config key", func() {
			Expect(c.SetConfigValue("render.word_wrap", "120")).To(Succeed())

			val, err := c.GetConfigValue("render.word_wrap")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("120"))
		})

		It("returns error for unknown key", func() {
			err := c.SetConfigValue("proxy.upstream", "x")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		It("validates the render format", func() {
			Expect(c.SetConfigValue("render.format", "pdf")).To(HaveOccurred())
			Expect(c.SetConfigValue("render.format", config.FormatHTML)).To(Succeed())
		})

		It("validates the agent timeout", func() {
			Expect(c.SetConfigValue("agent.timeout", "soon")).To(HaveOccurred())
			Expect(c.SetConfigValue("agent.timeout", "30s")).To(Succeed())
		})

		It("preserves existing values when setting a new key", func() {
			Expect(c.SetConfigValue("agent.user_id", "7")).To(Succeed())
			Expect(c.SetConfigValue("serve.listen", ":9999")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Agent.UserID).To(Equal("7"))
			Expect(cfg.Serve.Listen).To(Equal(":9999"))
		})
	})

	Describe("GetConfigValue", func() {
		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("events.kafka_topic")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("charge.exchanges"))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("storage.postgres_dsn")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(BeEmpty())
		})
	})

	Describe("ValidConfigKeys", func() {
		It("returns every key in section order", func() {
			Expect(config.ValidConfigKeys()).To(Equal([]string{
				"agent.base_url",
				"agent.user_id",
				"agent.timeout",
				"storage.sqlite_path",
				"storage.postgres_dsn",
				"serve.listen",
				"events.kafka_brokers",
				"events.kafka_topic",
				"render.format",
				"render.word_wrap",
			}))
		})
	})

	Describe("ResetConfigValue", func() {
		var c *config.Configer

		BeforeEach(func() {
			var err error
			c, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("restores the default for keys that have one", func() {
			Expect(c.SetConfigValue("agent.timeout", "30s")).To(Succeed())

			def, err := c.ResetConfigValue("agent.timeout")
			Expect(err).NotTo(HaveOccurred())
			Expect(def).To(Equal("0"))

			val, err := c.GetConfigValue("agent.timeout")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("0"))
		})

		It("clears keys without a default and keeps the rest", func() {
			Expect(c.SetConfigValue("events.kafka_brokers", "b1:9092")).To(Succeed())
			Expect(c.SetConfigValue("serve.listen", ":9999")).To(Succeed())

			def, err := c.ResetConfigValue("events.kafka_brokers")
			Expect(err).NotTo(HaveOccurred())
			Expect(def).To(BeEmpty())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Events.KafkaBrokers).To(BeEmpty())
			Expect(cfg.Serve.Listen).To(Equal(":9999"))
		})

		It("resets every known key", func() {
			for _, key := range config.ValidConfigKeys() {
				_, err := c.ResetConfigValue(key)
				Expect(err).NotTo(HaveOccurred(), key)
			}
		})

		It("returns error for unknown key", func() {
			_, err := c.ResetConfigValue("proxy.upstream")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})
	})

	Describe("IsSecretKey and Section", func() {
		It("marks the postgres DSN as secret", func() {
			Expect(config.IsSecretKey("storage.postgres_dsn")).To(BeTrue())
			Expect(config.IsSecretKey("storage.sqlite_path")).To(BeFalse())
			Expect(config.IsSecretKey("nope")).To(BeFalse())
		})

		It("returns the TOML table of a key", func() {
			Expect(config.Section("render.word_wrap")).To(Equal("render"))
			Expect(config.Section("plain")).To(Equal("plain"))
		})
	})

	Describe("IsValidConfigKey", func() {
		It("distinguishes known keys", func() {
			Expect(config.IsValidConfigKey("agent.base_url")).To(BeTrue())
			Expect(config.IsValidConfigKey("base_url")).To(BeFalse())
			Expect(config.IsValidConfigKey("")).To(BeFalse())
		})
	})

	Describe("round-trip", func() {
		It("saves and loads config correctly with all fields", func() {
			cfg := &config.Config{
				Version: config.CurrentV,
				Agent: config.AgentConfig{
					BaseURL: "http://agent:5000/api",
					UserID:  "1",
					Timeout: "1m",
				},
				Storage: config.StorageConfig{
					SQLitePath:  "/tmp/charge.db",
					PostgresDSN: "postgres://u:p@db/charge",
				},
				Serve:  config.ServeConfig{Listen: ":7000"},
				Events: config.EventsConfig{KafkaBrokers: "k1:9092,k2:9092", KafkaTopic: "t"},
				Render: config.RenderConfig{Format: config.FormatRaw, WordWrap: 60},
			}

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})
	})
})

var _ = Describe("ParseTimeout", func() {
	It("leaves streams unbounded by default", func() {
		d, err := config.ParseTimeout(config.NewDefaultConfig().Agent.Timeout)
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeZero())
	})

	It("treats empty and zero as no timeout", func() {
		d, err := config.ParseTimeout("")
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeZero())

		d, err = config.ParseTimeout("0")
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeZero())
	})

	It("parses durations", func() {
		d, err := config.ParseTimeout("90s")
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(90 * time.Second))
	})

	It("rejects negative and garbage values", func() {
		_, err := config.ParseTimeout("-1s")
		Expect(err).To(HaveOccurred())
		_, err = config.ParseTimeout("later")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("SplitBrokers", func() {
	It("drops blanks and whitespace", func() {
		Expect(config.SplitBrokers(" a:9092, ,b:9092 ")).To(Equal([]string{"a:9092", "b:9092"}))
		Expect(config.SplitBrokers("")).To(BeEmpty())
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("agent.base_url")).To(Equal(defaults.Agent.BaseURL))
		Expect(v.GetString("serve.listen")).To(Equal(defaults.Serve.Listen))
		Expect(v.GetUint("render.word_wrap")).To(Equal(defaults.Render.WordWrap))
	})

	It("reads config file values over defaults", func() {
		data := `[agent]
base_url = "http://filehost/api"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("agent.base_url")).To(Equal("http://filehost/api"))
		Expect(v.GetString("agent.timeout")).To(Equal("0"))
	})

	It("env vars take precedence over config file values", func() {
		data := `[agent]
base_url = "http://filehost/api"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		os.Setenv("CHARGE_AGENT_BASE_URL", "http://envhost/api")
		defer os.Unsetenv("CHARGE_AGENT_BASE_URL")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("agent.base_url")).To(Equal("http://envhost/api"))
	})
})

var _ = Describe("BindRegisteredFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("uses registry defaults and lets a set flag win", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		var baseURL string
		var wrap uint
		cmd := &cobra.Command{Use: "test"}
		config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &baseURL)
		config.AddUintFlag(cmd, config.Flags, config.FlagWordWrap, &wrap)

		f := cmd.Flags().Lookup("base-url")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("b"))
		Expect(f.DefValue).To(Equal("http://localhost:5000/api"))
		Expect(cmd.Flags().Lookup("word-wrap").DefValue).To(Equal("80"))

		Expect(cmd.Flags().Set("base-url", "http://flaghost/api")).To(Succeed())
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagBaseURL, config.FlagWordWrap})

		Expect(v.GetString("agent.base_url")).To(Equal("http://flaghost/api"))
		Expect(v.GetUint("render.word_wrap")).To(Equal(uint(80)))
	})

	It("skips unknown registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		Expect(func() {
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{"does-not-exist", config.FlagListen})
		}).NotTo(Panic())
	})
})
