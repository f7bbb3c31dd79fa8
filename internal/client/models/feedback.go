package models

type FeedbackKind string

const (
	FeedbackSuccess FeedbackKind = "success"
	FeedbackError   FeedbackKind = "error"
)

// Feedback is the single outstanding message shown next to a form.
type Feedback struct {
	Kind FeedbackKind
	Text string
}

func SuccessFeedback(text string) *Feedback {
	return &Feedback{Kind: FeedbackSuccess, Text: text}
}

func ErrorFeedback(text string) *Feedback {
	return &Feedback{Kind: FeedbackError, Text: text}
}
