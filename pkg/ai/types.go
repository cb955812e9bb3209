package ai

import "context"

// NoResponseFallback is returned verbatim when the model endpoint answered
// but the payload carried no usable text.
const NoResponseFallback = "Error: No response"

// Completer produces a bot reply grounded on a knowledge document. The
// returned text is raw model output; callers run it through Sanitize before
// showing it to users.
type Completer interface {
	Complete(ctx context.Context, topicContent, userMessage string) (string, error)
}

func contextPart(topicContent string) string {
	return "Context: " + topicContent
}

func questionPart(userMessage string) string {
	return "Answer concisely. Only return the direct answer and show a brief explanation.\nUser question: " + userMessage
}
