package exam

import "encoding/json"

// Request is the POST body. Exactly one mode must be satisfiable, see Classify.
type Request struct {
	Image      string          `json:"image,omitempty"` // base64, optionally a data:URI
	Context    json.RawMessage `json:"context,omitempty"`
	Question   string          `json:"question,omitempty"`
	TestTopics []string        `json:"testTopics,omitempty"`
}

type Mode string

const (
	ModeImage    Mode = "image"
	ModeFollowUp Mode = "followup"
	ModeTest     Mode = "test"
)

// QuestionAnalysis is one analyzed exam question.
type QuestionAnalysis struct {
	KnowledgePoint string `json:"knowledgePoint"`
	Translation    string `json:"translation"`
	CorrectAnswer  string `json:"correctAnswer"`
	Explanation    string `json:"explanation"`
	RelatedPoints  string `json:"relatedPoints"`
	Keywords       string `json:"keywords"`
}

// TestQuestion is one generated review question.
type TestQuestion struct {
	QuestionES    string   `json:"question_es"`
	QuestionZH    string   `json:"question_zh"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// AnalysisResponse carries the upstream JSON untouched on success. On a parse
// failure Analysis holds a single fallback record and Raw the verbatim reply.
type AnalysisResponse struct {
	Analysis    json.RawMessage `json:"analysis"`
	ParseFailed bool            `json:"parseFailed,omitempty"`
	Raw         string          `json:"raw,omitempty"`
}

type AnswerResponse struct {
	Answer string `json:"answer"`
}

type TestResponse struct {
	TestQuestions json.RawMessage `json:"testQuestions"`
	ParseFailed   bool            `json:"parseFailed,omitempty"`
	Raw           string          `json:"raw,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
