package chat

import "context"

// Feature is a preset prompt offered as a one-click action.
type Feature struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// Features are the quick actions shown by every front end.
var Features = []Feature{
	{
		Name:   "fortune",
		Label:  "Daily fortune",
		Prompt: "What is my fortune for today, and what should I wear?",
	},
	{
		Name:   "mbti",
		Label:  "MBTI analysis",
		Prompt: "Analyze my MBTI personality type and what it means for me.",
	},
	{
		Name:   "chart",
		Label:  "Fortune trend",
		Prompt: "Draw a chart of my fortune trend for the coming months.",
	},
	{
		Name:   "relationship",
		Label:  "Relationships",
		Prompt: "Analyze my relationships with the people in my contacts.",
	},
	{
		Name:   "career",
		Label:  "Career advice",
		Prompt: "Give me advice on my career development and possible transitions.",
	},
}

// FeatureByName looks up a preset.
func FeatureByName(name string) (Feature, bool) {
	for _, f := range Features {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// RegisterFeatures adds one action per preset that hands the preset
// prompt to send. Extra input after the action name is appended to it.
func RegisterFeatures(d *Dispatcher, send Handler) {
	for _, f := range Features {
		prompt := f.Prompt
		d.Register(f.Name, f.Label, func(ctx context.Context, arg string) error {
			if arg != "" {
				return send(ctx, prompt+" "+arg)
			}
			return send(ctx, prompt)
		})
	}
}
