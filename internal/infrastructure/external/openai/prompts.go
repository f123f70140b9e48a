package openai

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds the prompts and model parameters used by the transcriber
type PromptConfig struct {
	Transcription struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"transcription"`
}

// DefaultPrompts returns the built-in transcription prompts
func DefaultPrompts() *PromptConfig {
	var p PromptConfig
	p.Transcription.Temperature = 0
	p.Transcription.MaxTokens = 1024
	p.Transcription.System = "You transcribe scanned and handwritten incident reports. " +
		"Return only the text you can read, line by line, without commentary."
	p.Transcription.UserTemplate = `Transcribe the incident report in "{{.Name}}".
Keep times exactly as written (for example 10:30 PM or 00:02:32).
Keep words describing damage exactly as written.
If a word is unreadable write [?] in its place.`
	return &p
}

// LoadPrompts loads prompt configuration from a YAML file. Fields the file
// leaves out keep their defaults.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	prompts := DefaultPrompts()
	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	return prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
