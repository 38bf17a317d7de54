package answer

import "fmt"

const promptTemplate = `You are an expert assistant. Based on the following excerpts from a document, please answer the question accurately and concisely. If you cannot answer the question based on the excerpts, say so.

Excerpts:
%s

Question: %s

Answer: Let me analyze the excerpts and provide a clear answer.`

// BuildPrompt renders the QA prompt for the given context and question.
func BuildPrompt(contextText, question string) string {
	return fmt.Sprintf(promptTemplate, contextText, question)
}
