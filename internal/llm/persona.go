package llm

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona is the fixed identity and instruction set of the admission agent.
type Persona struct {
	Name         string   `yaml:"name"`
	Role         string   `yaml:"role"`
	Description  string   `yaml:"description"`
	Instructions []string `yaml:"instructions"`
}

// DefaultPersona returns the built-in persona for institution.
func DefaultPersona(institution string) Persona {
	return Persona{
		Name: "Admission Assistant",
		Role: fmt.Sprintf("Provide accurate and detailed responses for %s related queries.", institution),
		Description: fmt.Sprintf("A virtual assistant specializing in academic support for %s. "+
			"It provides information on policies, courses, events, and general guidance.", institution),
		Instructions: []string{
			"Respond concisely and accurately to user queries.",
			"If the user does not ask for specific information, act like a chatbot and engage in casual conversation.",
			"If additional resources are required, suggest them or search for the information using available tools.",
			"Structure responses clearly, using bullet points or paragraphs where necessary.",
			"Format responses in Markdown.",
		},
	}
}

// LoadPersona reads a persona from a YAML file. Fields missing from the file
// keep their values from DefaultPersona(institution).
func LoadPersona(path, institution string) (Persona, error) {
	p := DefaultPersona(institution)
	if path == "" {
		return p, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("read persona: %w", err)
	}
	var fromFile Persona
	if err := yaml.Unmarshal(b, &fromFile); err != nil {
		return Persona{}, fmt.Errorf("parse persona %s: %w", path, err)
	}

	if fromFile.Name != "" {
		p.Name = fromFile.Name
	}
	if fromFile.Role != "" {
		p.Role = fromFile.Role
	}
	if fromFile.Description != "" {
		p.Description = fromFile.Description
	}
	if len(fromFile.Instructions) > 0 {
		p.Instructions = fromFile.Instructions
	}
	return p, nil
}

// SystemPrompt renders the persona as a system message.
func (p Persona) SystemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.", p.Name)
	if p.Role != "" {
		b.WriteString(" " + p.Role)
	}
	if p.Description != "" {
		b.WriteString("\n" + p.Description)
	}
	if len(p.Instructions) > 0 {
		b.WriteString("\n\nInstructions:")
		for _, in := range p.Instructions {
			b.WriteString("\n- " + in)
		}
	}
	return b.String()
}
