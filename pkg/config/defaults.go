package config

const (
	defaultBaseURL     = "http://localhost:5000/api"
	defaultTimeout     = "0"
	defaultServeListen = ":8090"
	defaultKafkaTopic  = "charge.exchanges"
	defaultWordWrap    = 80
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Agent: AgentConfig{
			BaseURL: defaultBaseURL,
			Timeout: defaultTimeout,
		},
		Serve: ServeConfig{
			Listen: defaultServeListen,
		},
		Events: EventsConfig{
			KafkaTopic: defaultKafkaTopic,
		},
		Render: RenderConfig{
			Format:   FormatTerminal,
			WordWrap: defaultWordWrap,
		},
	}
}
