package services

import (
	"fmt"
	"strings"

	"shortlister/internal/models"
)

// maxResumePromptChars caps resume text inlined into a prompt.
const maxResumePromptChars = 20000

// maxBadReplyChars caps how much of a malformed reply is echoed back in a
// correction prompt.
const maxBadReplyChars = 600

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildFactExtractionPrompt creates the single-pass fact sheet prompt.
func (pb *PromptBuilder) BuildFactExtractionPrompt(resumeText string) string {
	return fmt.Sprintf(`You are an expert technical recruiter building a fact sheet from a resume.

RESUME:
%s

Extract the candidate's facts from the resume above.

Return your response in the following JSON format:
{
  "skills": ["<short skill tag>", ...],
  "experience": ["<one line per role: title, company, duration>", ...],
  "education": ["<one line per degree or certification>", ...]
}

Use empty arrays where the resume gives no information. Return ONLY the JSON object, no markdown fences, no commentary.`,
		truncateRunes(resumeText, maxResumePromptChars))
}

// BuildJudgingPrompt creates the per-requisite judgment prompt. Evidence
// chunks are attributed so the rationale can cite them.
func (pb *PromptBuilder) BuildJudgingPrompt(req models.Requisite, profile *models.CandidateProfile, evidence []Evidence) string {
	return fmt.Sprintf(`You are an expert technical recruiter judging a candidate against one hiring requirement.

REQUIREMENT: %s
%s

CANDIDATE PROFILE:
%s

RESUME EVIDENCE:
%s

Judge how well the candidate meets this requirement using ONLY the profile and evidence above. Score conservatively: award high scores only for explicit, strong evidence. When evidence is missing or weak, score low and mention related strengths instead.

Return your response in the following JSON format:
{
  "score_percent": <integer 0-100>,
  "rationale": "<2-3 sentences citing the evidence>",
  "alternate_considerations": ["<related strength worth noting>", ...]
}

Return ONLY the JSON object, no markdown fences, no commentary.`,
		req.Name, req.Description, FormatProfile(profile), FormatEvidence(evidence))
}

// BuildSummaryPrompt creates the final narrative prompt from the
// aggregated run.
func (pb *PromptBuilder) BuildSummaryPrompt(overallPercent int, results []models.CriterionResult) string {
	var lines []string
	for _, result := range results {
		lines = append(lines, fmt.Sprintf("- %s: %d%%: %s",
			result.Requisite, result.ScorePercent, truncateRunes(result.Rationale, 200)))
	}

	return fmt.Sprintf(`You are an expert technical recruiter writing the final shortlisting summary for a candidate.

OVERALL SCORE: %d%%

PER-REQUIREMENT RESULTS:
%s

Return your response in the following JSON format:
{
  "strengths": ["<requirement the candidate clearly meets>", ...],
  "gaps": ["<requirement the candidate misses>", ...],
  "overall_comment": "<one or two sentences on overall fit>"
}

Reference the requirement names listed above. Return ONLY the JSON object, no markdown fences, no commentary.`,
		overallPercent, strings.Join(lines, "\n"))
}

// BuildCorrectionPrompt re-asks after a reply that could not be parsed.
func (pb *PromptBuilder) BuildCorrectionPrompt(original, badReply string) string {
	return fmt.Sprintf(`%s

Your previous reply could not be parsed as JSON:
%s

Return ONLY a valid JSON object of the exact shape requested above. No markdown fences, no commentary.`,
		original, truncateRunes(badReply, maxBadReplyChars))
}

// FormatEvidence renders retrieved chunks with their position and score
// so judgments can point at specific evidence.
func FormatEvidence(evidence []Evidence) string {
	if len(evidence) == 0 {
		return "No indexed evidence was found for this requirement."
	}

	var parts []string
	for _, e := range evidence {
		parts = append(parts, fmt.Sprintf("--- Chunk %d (Score: %.2f) ---\n%s",
			e.SequenceIndex, e.Score, strings.TrimSpace(e.Text)))
	}
	return strings.Join(parts, "\n\n")
}

// FormatProfile renders the extracted fact sheet for prompt use.
func FormatProfile(profile *models.CandidateProfile) string {
	if profile.IsEmpty() {
		return "No structured profile is available for this candidate."
	}

	format := func(items []string) string {
		if len(items) == 0 {
			return "(none)"
		}
		return strings.Join(items, "; ")
	}

	return fmt.Sprintf("Skills: %s\nExperience: %s\nEducation: %s",
		format(profile.Skills), format(profile.Experience), format(profile.Education))
}

func truncateRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
