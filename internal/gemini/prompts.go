package gemini

import "fmt"

const (
	// NoAnswerText replaces an empty answer from an otherwise successful call
	NoAnswerText = "No direct answer found."

	// FallbackAnswerText is shown when the answer call fails for any reason
	FallbackAnswerText = "Communication with the neural network interrupted. Please try again."
)

func answerPrompt(query string) string {
	return fmt.Sprintf("User Query: %s\n\n"+
		"Provide a direct, comprehensive, and futuristic answer to the query. "+
		"If the query implies a question, answer it. If it's a topic, summarize it. "+
		"Format the text with markdown for readability.", query)
}

func imagePrompt(prompt string) string {
	return fmt.Sprintf("Generate a high-quality, futuristic, cinematic image representing: %s. Aspect ratio 16:9.", prompt)
}

// RelatedTopics derives follow-up topics from the query text alone
func RelatedTopics(query string) []string {
	return []string{
		fmt.Sprintf("Future of %s", query),
		fmt.Sprintf("%s images", query),
		fmt.Sprintf("%s news", query),
		fmt.Sprintf("Advanced %s", query),
	}
}
