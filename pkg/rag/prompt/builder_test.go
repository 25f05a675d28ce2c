package prompt

import (
	"strings"
	"testing"

	"ai-discovery-be/internal/dto"

	"github.com/google/uuid"
)

func TestBuildIncludesCandidates(t *testing.T) {
	candidates := []dto.RetrievalCandidate{
		{Id: uuid.New(), Collection: "papers", Title: "Attention Is All You Need", Summary: "Transformer architecture.", Similarity: 0.92},
		{Id: uuid.New(), Collection: "models", Title: "ESRGAN", Summary: "Image super-resolution.", Similarity: 0.81},
	}

	got := NewGroundedBuilder(candidates, "what upscales images?").Build()

	if !strings.Contains(got, "<reference_material>") {
		t.Error("missing reference material section")
	}
	if !strings.Contains(got, "Paper: Attention Is All You Need") {
		t.Error("paper candidate not rendered")
	}
	if !strings.Contains(got, "Model: ESRGAN") {
		t.Error("model candidate not rendered")
	}
	if !strings.Contains(got, "what upscales images?") {
		t.Error("user question not rendered")
	}
}

func TestBuildWithoutCandidates(t *testing.T) {
	got := NewGroundedBuilder(nil, "obscure question").Build()

	if strings.Contains(got, "<reference_material>") {
		t.Error("empty retrieval must not render a reference section")
	}
	if !strings.Contains(got, "No reference material matched") {
		t.Error("missing no-material guideline")
	}
	if !strings.Contains(got, "obscure question") {
		t.Error("user question not rendered")
	}
}

func TestBuildSectionOrder(t *testing.T) {
	candidates := []dto.RetrievalCandidate{
		{Id: uuid.New(), Collection: "papers", Title: "T", Summary: "S", Similarity: 0.9},
	}

	got := NewGroundedBuilder(candidates, "q").Build()

	material := strings.Index(got, "<reference_material>")
	task := strings.Index(got, "<task>")
	guidelines := strings.Index(got, "<guidelines>")
	question := strings.Index(got, "<user_question>")

	if !(material < task && task < guidelines && guidelines < question) {
		t.Errorf("sections out of order: material=%d task=%d guidelines=%d question=%d",
			material, task, guidelines, question)
	}
}
