package openai

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 400
)

// PromptConfig holds the extraction prompt and its model parameters.
// The user template is compiled once when the file is parsed.
type PromptConfig struct {
	Extraction struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"extraction"`

	user *template.Template
}

var promptFuncs = template.FuncMap{
	"join": strings.Join,
}

// LoadPrompts loads prompt configuration from a YAML file
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return ParsePrompts(data)
}

// ParsePrompts decodes prompt YAML, fills in model defaults and compiles
// the user template
func ParsePrompts(data []byte) (*PromptConfig, error) {
	var prompts PromptConfig
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	ex := &prompts.Extraction
	if strings.TrimSpace(ex.System) == "" || strings.TrimSpace(ex.UserTemplate) == "" {
		return nil, fmt.Errorf("extraction prompt needs a system prompt and a user template")
	}
	if ex.Temperature < 0 || ex.Temperature > 2 {
		return nil, fmt.Errorf("extraction temperature must be between 0 and 2, got %.2f", ex.Temperature)
	}
	if ex.Temperature == 0 {
		ex.Temperature = defaultTemperature
	}
	if ex.MaxTokens <= 0 {
		ex.MaxTokens = defaultMaxTokens
	}

	tmpl, err := template.New("extraction").
		Funcs(promptFuncs).
		Option("missingkey=zero").
		Parse(ex.UserTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid extraction template: %w", err)
	}
	prompts.user = tmpl
	return &prompts, nil
}

// Render executes the user template against data
func (p *PromptConfig) Render(data interface{}) (string, error) {
	if p.user == nil {
		return "", fmt.Errorf("prompts were not loaded through ParsePrompts")
	}
	var buf bytes.Buffer
	if err := p.user.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render extraction prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
