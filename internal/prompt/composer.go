// Package prompt builds the single text prompt sent to the admission agent.
package prompt

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/uniassist/internal/models"
)

// Section headings, in the order they appear in every prompt.
const (
	referenceHeading = "1. **%s Reference Document**:\n"
	historyHeading   = "2. **Conversation History**:\n"
	queryHeading     = "3. **User Query**:\n"
)

// Composer renders prompts for one institution. The zero MaxChars means no limit.
type Composer struct {
	Institution string
	MaxChars    int
}

// New creates a Composer.
func New(institution string, maxChars int) *Composer {
	return &Composer{Institution: institution, MaxChars: maxChars}
}

// FormatHistory renders turns as "Role: message" lines in order.
func FormatHistory(turns []models.Turn) string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = t.Role.Label() + ": " + t.Message
	}
	return strings.Join(lines, "\n")
}

// Compose builds the prompt from the reference text, the conversation so far
// and the user's new message. The output depends only on its inputs.
//
// When MaxChars is set and the prompt would exceed it, the oldest turns are
// dropped first; if it is still too long with no history, the reference text
// is cut from the end. The preamble and user message are never shortened.
func (c *Composer) Compose(referenceText string, history []models.Turn, userMessage string) string {
	out := c.render(referenceText, history, userMessage)
	if c.MaxChars <= 0 || len(out) <= c.MaxChars {
		return out
	}

	for len(history) > 0 {
		history = history[1:]
		out = c.render(referenceText, history, userMessage)
		if len(out) <= c.MaxChars {
			return out
		}
	}

	over := len(out) - c.MaxChars
	keep := len(referenceText) - over
	if keep < 0 {
		keep = 0
	}
	return c.render(truncateUTF8(referenceText, keep), nil, userMessage)
}

func (c *Composer) render(referenceText string, history []models.Turn, userMessage string) string {
	var b strings.Builder
	b.WriteString(c.preamble())

	fmt.Fprintf(&b, referenceHeading, c.shortName())
	fmt.Fprintf(&b, "The following document contains detailed and official information about %s, "+
		"such as policies, courses, events, and guidelines. Use this as a key source for your response:\n", c.shortName())
	b.WriteString(referenceText)
	b.WriteString("\n\n")

	b.WriteString(historyHeading)
	b.WriteString("Below is the conversation history, which provides additional context about the user's " +
		"current query and previous discussions:\n")
	b.WriteString(FormatHistory(history))
	b.WriteString("\n\n")

	b.WriteString(queryHeading)
	b.WriteString("The user has asked the following question or provided this input:\n")
	b.WriteString(userMessage)
	b.WriteString("\n\n")
	return b.String()
}

func (c *Composer) preamble() string {
	return fmt.Sprintf("You are a knowledgeable admissions assistant specializing in topics related to %s. "+
		"Your role is to provide accurate, concise, and context-specific responses based on the following inputs:\n\n",
		c.Institution)
}

// shortName returns the parenthesized abbreviation of the institution if it has
// one, e.g. "DIU" for "Daffodil International University (DIU)".
func (c *Composer) shortName() string {
	name := strings.TrimSpace(c.Institution)
	open := strings.LastIndex(name, "(")
	if open >= 0 && strings.HasSuffix(name, ")") && open < len(name)-2 {
		return name[open+1 : len(name)-1]
	}
	if name == "" {
		return "Institution"
	}
	return name
}

// truncateUTF8 returns at most n bytes of s without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
