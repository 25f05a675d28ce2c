package prompt

import (
	"fmt"
	"strings"

	"ai-discovery-be/internal/dto"
)

// GroundedBuilder assembles the chat prompt from retrieved papers and models
type GroundedBuilder struct {
	candidates []dto.RetrievalCandidate
	query      string
}

// NewGroundedBuilder creates a new grounded prompt builder
func NewGroundedBuilder(candidates []dto.RetrievalCandidate, query string) *GroundedBuilder {
	return &GroundedBuilder{
		candidates: candidates,
		query:      query,
	}
}

// Build creates the full prompt: retrieved material, task, guidelines, query
func (b *GroundedBuilder) Build() string {
	var prompt strings.Builder

	b.writeReferenceMaterial(&prompt)
	b.writeTask(&prompt)
	b.writeGuidelines(&prompt)
	b.writeUserQuery(&prompt)

	return prompt.String()
}

func (b *GroundedBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	if len(b.candidates) == 0 {
		return
	}

	prompt.WriteString("<reference_material>\n")
	for i, c := range b.candidates {
		kind := "Paper"
		if c.Collection == "models" {
			kind = "Model"
		}
		prompt.WriteString(fmt.Sprintf("[%d] %s: %s\n", i+1, kind, c.Title))
		prompt.WriteString(c.Summary)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("</reference_material>\n\n")
}

func (b *GroundedBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a research assistant for a directory of AI papers and machine-learning models.\n")
	prompt.WriteString("Answer the user's question using the reference material retrieved for it.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *GroundedBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base your answer strictly on the reference material provided\n")
	prompt.WriteString("2. Cite entries by their title when you use them\n")
	prompt.WriteString("3. If several entries are relevant, compare them instead of picking one arbitrarily\n")
	prompt.WriteString("4. If the material doesn't cover what's being asked, say so honestly rather than guessing\n")
	if len(b.candidates) == 0 {
		prompt.WriteString("5. No reference material matched this question; say so and answer from general knowledge, clearly marked as such\n")
	}
	prompt.WriteString("</guidelines>\n\n")
}

func (b *GroundedBuilder) writeUserQuery(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.query)
	prompt.WriteString("\n</user_question>\n\n")
	prompt.WriteString("Now provide your complete response based on the reference material:")
}
