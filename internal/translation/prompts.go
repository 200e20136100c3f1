package translation

import (
	"fmt"
	"strings"
)

const batchDelimiter = "---SEGMENT---"

const batchSystemPromptTemplate = `You are a professional translator. Translate the following conversation content into %s.

Rules:
- Each segment is tagged with a positional marker like [1], [2], ... and separated by a line containing only %s.
- Keep every marker and every %s separator exactly where it is. Do not merge, drop, or reorder segments.
- Preserve formatting, line breaks, and speaker labels (for example "Speaker 1:"). Translate only the natural-language text.
- Do not add explanations, notes, or any text outside the segments.`

const singleSystemPromptTemplate = `You are a professional translator. Translate the following conversation content into %s.

Preserve formatting, line breaks, and speaker labels (for example "Speaker 1:"). Translate only the natural-language text. Output the translation and nothing else.`

const documentSystemPromptTemplate = `You are a professional translator. Translate the string values in the following JSON document into %s.

Rules:
- Output a single valid JSON document with exactly the same structure.
- Translate only string leaf values. Keep every key, number, boolean, null, and array length unchanged.
- Do not add comments, markdown fences, or any text outside the JSON.`

func batchSystemPrompt(targetLanguage string) string {
	return fmt.Sprintf(batchSystemPromptTemplate, targetLanguage, batchDelimiter, batchDelimiter)
}

func batchUserPrompt(units []string, indexes []int) string {
	var b strings.Builder
	for i, idx := range indexes {
		if i > 0 {
			b.WriteString("\n" + batchDelimiter + "\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, units[idx])
	}
	return b.String()
}

func singleSystemPrompt(targetLanguage string) string {
	return fmt.Sprintf(singleSystemPromptTemplate, targetLanguage)
}

func documentSystemPrompt(targetLanguage string) string {
	return fmt.Sprintf(documentSystemPromptTemplate, targetLanguage)
}
