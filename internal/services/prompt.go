package services

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/advisor.yaml
var defaultPromptYAML []byte

// PromptSpec is the advisor persona loaded from YAML.
type PromptSpec struct {
	System              string            `yaml:"system"`
	LanguageInstruction string            `yaml:"language_instruction"`
	Languages           map[string]string `yaml:"languages"`
	Style               struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

// LoadPromptSpec reads the prompt file at path, or the built-in prompt when path is empty.
func LoadPromptSpec(path string) (*PromptSpec, error) {
	b := defaultPromptYAML
	if path != "" {
		var err error
		b, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file: %w", err)
		}
	}

	var spec PromptSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file: %w", err)
	}
	if strings.TrimSpace(spec.System) == "" {
		return nil, fmt.Errorf("prompt file has no system prompt")
	}
	if spec.Style.Temperature <= 0 {
		spec.Style.Temperature = 0.3
	}
	if spec.Style.MaxTokens <= 0 {
		spec.Style.MaxTokens = 800
	}
	return &spec, nil
}

// LanguageName maps a code to its display name, falling back to the code itself.
func (p *PromptSpec) LanguageName(code string) string {
	if name, ok := p.Languages[code]; ok && name != "" {
		return name
	}
	return code
}

// SystemPrompt is the persona plus the answer-language instruction.
func (p *PromptSpec) SystemPrompt(language string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(p.System))
	if p.LanguageInstruction != "" {
		b.WriteString("\n\n")
		b.WriteString(strings.ReplaceAll(p.LanguageInstruction, "{{language}}", p.LanguageName(language)))
	}
	return b.String()
}
