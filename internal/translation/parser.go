package translation

import (
	"regexp"
	"strings"
)

// Backend responses are not contractually structured, so the batch reply is
// recovered heuristically by a chain of parsers: delimiter split first,
// marker split second, paragraph split as a last resort. A chain miss is a
// validation outcome for the caller, not a crash.

var markerRe = regexp.MustCompile(`(?m)^\s*\[(\d+)\]\s*`)

func parseBatchResponse(response string, want int) ([]string, bool) {
	if parts, ok := splitByDelimiter(response, want); ok {
		return parts, true
	}
	if parts, ok := splitByMarkers(response, want); ok {
		return parts, true
	}
	return splitByParagraphs(response, want)
}

func splitByDelimiter(response string, want int) ([]string, bool) {
	if !strings.Contains(response, batchDelimiter) {
		return nil, false
	}

	raw := strings.Split(response, batchDelimiter)
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		p = stripMarker(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	if len(parts) != want {
		return nil, false
	}
	return parts, true
}

func splitByMarkers(response string, want int) ([]string, bool) {
	locs := markerRe.FindAllStringIndex(response, -1)
	if len(locs) != want {
		return nil, false
	}

	parts := make([]string, 0, want)
	for i, loc := range locs {
		end := len(response)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		part := strings.TrimSpace(response[loc[1]:end])
		if part == "" {
			return nil, false
		}
		parts = append(parts, part)
	}
	return parts, true
}

func splitByParagraphs(response string, want int) ([]string, bool) {
	raw := strings.Split(strings.TrimSpace(response), "\n\n")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		p = stripMarker(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	if len(parts) != want {
		return nil, false
	}
	return parts, true
}

func stripMarker(s string) string {
	return strings.TrimSpace(markerRe.ReplaceAllString(s, ""))
}

// stripCodeFence removes a surrounding markdown code fence, which models add
// to JSON output no matter how firmly the prompt forbids it.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
