package exam

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"exam-relay/api/internal/llm"
	"exam-relay/api/internal/util"
)

// ImageMIME is the type every inlined image is tagged with.
const ImageMIME = "image/jpeg"

var ErrInvalidImage = errors.New("image is not valid base64")

const imageAnalysisPrompt = `Role: you are a rigorous, fact-driven expert on the Spanish driving licence theory exam (DGT).
Every answer must be 100% grounded in the Spanish traffic regulations currently in force.

Task: the user uploaded a photo of practice questions. The photo may contain one or several questions.
Identify every independent question and analyse each one separately.

Procedure, for each question you identify:
  a. Extract the Spanish text of the question and of all its options.
  b. Recall the most specific Spanish traffic rule that governs the question and verify it internally.
  c. Apply the verified rule and derive the single correct answer.
  d. Write a structured explanation: translation, answer, rule-based explanation, related knowledge, key vocabulary.

Absolute rules:
  * Base your judgement only on the regulations, never on marks the user may have drawn on the photo.
  * Skip incomplete questions: if a question is visibly cut off (question text or options missing), leave it out of the result.
  * Write translation, explanation, relatedPoints and keywords in Simplified Chinese.

Output format (strict JSON array, even for a single question). Every object must have exactly these keys:
[
  {
    "knowledgePoint": "...",
    "translation": "...",
    "correctAnswer": "...",
    "explanation": "...",
    "relatedPoints": "...",
    "keywords": "..."
  }
]`

const legacyImageAnalysisPrompt = `Role: you are a rigorous expert on the Spanish driving licence theory exam (DGT).
Every answer must be grounded in the Spanish traffic regulations currently in force.

Task: the user uploaded a photo of one practice question. Extract the question and its options,
find the governing rule and give the single correct answer. Ignore any marks drawn on the photo.
Write everything except the answer letter in Simplified Chinese.

Output format: plain text with every field wrapped in its marker pair, each pair exactly once:
[KNOWLEDGE_POINT]...[/KNOWLEDGE_POINT]
[TRANSLATION]...[/TRANSLATION]
[ANSWER]...[/ANSWER]
[EXPLANATION]...[/EXPLANATION]
[RELATED_POINTS]...[/RELATED_POINTS]
[KEYWORDS]...[/KEYWORDS]`

const followUpPrompt = `Role: you are a helpful teaching assistant for the Spanish driving licence theory exam.
Your answers must be 100% grounded in the official Spanish traffic regulations.

Task: the user asks a follow-up question about an analysis you produced earlier. Use that analysis
(the context) together with your knowledge of the regulations and answer in friendly, clear Simplified Chinese.`

const testGenerationPrompt = `Role: you are an expert question writer for the Spanish driving licence theory exam.

Task: based on the "topic tags" the user has studied, write a personalised review test of exactly 3 questions.

Output format (strict JSON array):
[
  {
    "question_es": "...",
    "question_zh": "...",
    "options": ["A. ...", "B. ...", "C. ..."],
    "correct_answer": "A",
    "explanation": "..."
  }
]`

const (
	imageInstruction    = "Follow your analysis procedure and output format strictly."
	followUpContextHead = "This is the previous analysis context:\n"
	followUpQuestionFmt = "Now answer the user's question based on the content above:\n\"%s\""
	testTopicsHead      = "Write the questions for these topics: "
	topicSeparator      = ", "
	legacyPromptName    = "image_legacy"
)

// Assembler turns a classified request into the upstream payload.
type Assembler struct {
	// PromptDir holds optional <name>.system.txt overrides.
	PromptDir string
	// Legacy switches image mode to the tag-delimited contract.
	Legacy bool
}

// SystemPrompt returns the instruction for mode, preferring an override file.
func (a *Assembler) SystemPrompt(mode Mode) (string, error) {
	name, def := string(mode), defaultSystemPrompt(mode)
	if mode == ModeImage && a.Legacy {
		name, def = legacyPromptName, legacyImageAnalysisPrompt
	}
	if def == "" {
		return "", fmt.Errorf("unknown mode %q", mode)
	}
	s, err := util.LoadSystemPrompt(a.PromptDir, name)
	if errors.Is(err, util.ErrPromptNotFound) {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return s, nil
}

func defaultSystemPrompt(mode Mode) string {
	switch mode {
	case ModeImage:
		return imageAnalysisPrompt
	case ModeFollowUp:
		return followUpPrompt
	case ModeTest:
		return testGenerationPrompt
	}
	return ""
}

// Build assembles the system instruction and content parts for mode.
// req is read only.
func (a *Assembler) Build(mode Mode, req Request) (llm.Prompt, error) {
	sys, err := a.SystemPrompt(mode)
	if err != nil {
		return llm.Prompt{}, err
	}
	p := llm.Prompt{System: sys}

	switch mode {
	case ModeImage:
		img, _, err := util.DecodeBase64MaybeDataURL(req.Image)
		if err != nil {
			return llm.Prompt{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		p.Parts = []llm.Part{
			llm.TextPart(imageInstruction),
			llm.BlobPart(ImageMIME, img),
		}
		p.JSON = !a.Legacy
	case ModeFollowUp:
		p.Parts = []llm.Part{
			llm.TextPart(followUpContextHead + indentContext(req.Context)),
			llm.TextPart(fmt.Sprintf(followUpQuestionFmt, req.Question)),
		}
	case ModeTest:
		p.Parts = []llm.Part{
			llm.TextPart(testTopicsHead + strings.Join(req.TestTopics, topicSeparator)),
		}
		p.JSON = true
	default:
		return llm.Prompt{}, fmt.Errorf("unknown mode %q", mode)
	}
	return p, nil
}

func indentContext(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
