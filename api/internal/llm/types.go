package llm

// Part is one content unit sent upstream: either text or an inline blob.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

func TextPart(s string) Part { return Part{Text: s} }

func BlobPart(mime string, data []byte) Part { return Part{MIMEType: mime, Data: data} }

func (p Part) IsBlob() bool { return p.MIMEType != "" }

// Prompt is the full upstream payload for a single call.
type Prompt struct {
	System string
	Parts  []Part
	// JSON asks the model for application/json output.
	JSON bool
}
