package exam

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"exam-relay/api/internal/util"
)

const (
	// UndeterminedAnswer marks a fallback record whose answer could not be extracted.
	UndeterminedAnswer = "undetermined"
	parseFailedNote    = "The AI reply could not be parsed, raw text follows:\n"

	StrategyJSON = "json"
	StrategyTags = "tags"
)

// ParseFailure is a reply that arrived but did not fit the active contract.
// It never carries partially extracted fields.
type ParseFailure struct {
	Strategy string
	Raw      string
	Reason   error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("%s extraction failed: %v", e.Strategy, e.Reason)
}

func (e *ParseFailure) Unwrap() error { return e.Reason }

// DecodeStrict parses the reply as JSON. Code fences are stripped; nothing
// else is repaired and the structure is not validated.
func DecodeStrict(text string) (json.RawMessage, error) {
	s := util.StripCodeFences(text)
	if s == "" {
		return nil, &ParseFailure{Strategy: StrategyJSON, Raw: text, Reason: errors.New("empty reply")}
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, &ParseFailure{Strategy: StrategyJSON, Raw: text, Reason: err}
	}
	return json.RawMessage(s), nil
}

type tagField struct {
	name string
	re   *regexp.Regexp
	set  func(*QuestionAnalysis, string)
}

func tagPattern(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)\[` + tag + `\](.*?)\[/` + tag + `\]`)
}

var legacyTags = []tagField{
	{"KNOWLEDGE_POINT", tagPattern("KNOWLEDGE_POINT"), func(q *QuestionAnalysis, s string) { q.KnowledgePoint = s }},
	{"TRANSLATION", tagPattern("TRANSLATION"), func(q *QuestionAnalysis, s string) { q.Translation = s }},
	{"ANSWER", tagPattern("ANSWER"), func(q *QuestionAnalysis, s string) { q.CorrectAnswer = s }},
	{"EXPLANATION", tagPattern("EXPLANATION"), func(q *QuestionAnalysis, s string) { q.Explanation = s }},
	{"RELATED_POINTS", tagPattern("RELATED_POINTS"), func(q *QuestionAnalysis, s string) { q.RelatedPoints = s }},
	{"KEYWORDS", tagPattern("KEYWORDS"), func(q *QuestionAnalysis, s string) { q.Keywords = s }},
}

// ExtractTagged reads the legacy marker contract. Every marker pair must be
// present with non-blank content, otherwise the whole extraction fails.
func ExtractTagged(text string) (QuestionAnalysis, error) {
	var (
		out     QuestionAnalysis
		missing []string
	)
	for _, f := range legacyTags {
		m := f.re.FindStringSubmatch(text)
		if m == nil || strings.TrimSpace(m[1]) == "" {
			missing = append(missing, f.name)
			continue
		}
		f.set(&out, strings.TrimSpace(m[1]))
	}
	if len(missing) > 0 {
		return QuestionAnalysis{}, &ParseFailure{
			Strategy: StrategyTags,
			Raw:      text,
			Reason:   fmt.Errorf("missing markers: %s", strings.Join(missing, ", ")),
		}
	}
	return out, nil
}

// Result is a normalized response body. Failure is set when Body is a
// degraded fallback built from an unparseable reply.
type Result struct {
	Body    any
	Failure *ParseFailure
}

// Normalizer shapes the upstream text into the envelope for a mode.
type Normalizer struct {
	Legacy bool
}

func (n Normalizer) Normalize(mode Mode, text string) (Result, error) {
	switch mode {
	case ModeImage:
		if n.Legacy {
			return n.taggedAnalysis(text), nil
		}
		return n.analysis(text), nil
	case ModeFollowUp:
		return Result{Body: AnswerResponse{Answer: text}}, nil
	case ModeTest:
		return n.test(text), nil
	}
	return Result{}, fmt.Errorf("unknown mode %q", mode)
}

func (n Normalizer) analysis(text string) Result {
	raw, err := DecodeStrict(text)
	if err != nil {
		return analysisFallback(asParseFailure(err, StrategyJSON, text))
	}
	return Result{Body: AnalysisResponse{Analysis: raw}}
}

func (n Normalizer) taggedAnalysis(text string) Result {
	qa, err := ExtractTagged(text)
	if err != nil {
		return analysisFallback(asParseFailure(err, StrategyTags, text))
	}
	return Result{Body: AnalysisResponse{Analysis: mustMarshal([]QuestionAnalysis{qa})}}
}

func (n Normalizer) test(text string) Result {
	raw, err := DecodeStrict(text)
	if err != nil {
		pf := asParseFailure(err, StrategyJSON, text)
		return Result{
			Body: TestResponse{
				TestQuestions: mustMarshal([]TestQuestion{{
					Options:       []string{},
					CorrectAnswer: UndeterminedAnswer,
					Explanation:   parseFailedNote + pf.Raw,
				}}),
				ParseFailed: true,
				Raw:         pf.Raw,
			},
			Failure: pf,
		}
	}
	return Result{Body: TestResponse{TestQuestions: raw}}
}

func analysisFallback(pf *ParseFailure) Result {
	return Result{
		Body: AnalysisResponse{
			Analysis: mustMarshal([]QuestionAnalysis{{
				CorrectAnswer: UndeterminedAnswer,
				Explanation:   parseFailedNote + pf.Raw,
			}}),
			ParseFailed: true,
			Raw:         pf.Raw,
		},
		Failure: pf,
	}
}

func asParseFailure(err error, strategy, raw string) *ParseFailure {
	var pf *ParseFailure
	if errors.As(err, &pf) {
		return pf
	}
	return &ParseFailure{Strategy: strategy, Raw: raw, Reason: err}
}

// mustMarshal is only used on the package's own plain structs.
func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
