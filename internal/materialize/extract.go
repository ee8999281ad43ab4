package materialize

import "strings"

// Intent is one file write distilled from a model response: an untrusted
// relative path and the verbatim content destined for it.
type Intent struct {
	Path    string
	Content string
}

const markerToken = "FILE:"

// Ordering matters: "//" before "/*", "/*" before "*".
var commentLeaders = []string{"//", "#", "--", ";", "/*", "*", "<!--"}

var blockCloseTokens = []string{"*/", "-->"}

// ExtractIntents scans response text for fenced code blocks whose first line
// is a FILE: marker comment and returns one intent per block, in document
// order. A fence without a marker is ordinary prose/code and is skipped
// whole; an unterminated fence swallows the rest of the text. Intents found
// before a malformed region are still returned.
//
// A block's content is everything between the marker line and the closing
// fence, with leading and trailing blank lines removed. An empty body is a
// valid intent for a deliberately empty file. The same path may appear twice;
// intents come back in document order and the writer applies them in order,
// so the later block wins.
func ExtractIntents(text string) []Intent {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	var intents []Intent
	i := 0
	for i < len(lines) {
		if !isFenceOpen(lines[i]) {
			i++
			continue
		}

		end := -1
		for j := i + 1; j < len(lines); j++ {
			if isFenceClose(lines[j]) {
				end = j
				break
			}
		}
		if end == -1 {
			break
		}

		if i+1 < end {
			if path, ok := parseMarker(lines[i+1]); ok {
				body := trimBlankEdges(lines[i+2 : end])
				intents = append(intents, Intent{Path: path, Content: strings.Join(body, "\n")})
			}
		}
		i = end + 1
	}
	return intents
}

func isFenceOpen(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "```")
}

func isFenceClose(line string) bool {
	return strings.TrimSpace(line) == "```"
}

// parseMarker recognizes a comment line whose text starts with FILE: right
// after the comment leader, e.g. "// FILE: src/main.js", "# FILE: build.py"
// or "<!-- FILE: index.html -->". Anything else is not a marker.
func parseMarker(line string) (string, bool) {
	s := strings.TrimSpace(line)

	stripped := false
	for _, leader := range commentLeaders {
		if strings.HasPrefix(s, leader) {
			s = strings.TrimSpace(strings.TrimPrefix(s, leader))
			stripped = true
			break
		}
	}
	if !stripped || !strings.HasPrefix(s, markerToken) {
		return "", false
	}

	path := strings.TrimSpace(strings.TrimPrefix(s, markerToken))
	for _, closer := range blockCloseTokens {
		path = strings.TrimSpace(strings.TrimSuffix(path, closer))
	}
	if path == "" {
		return "", false
	}
	return path, true
}

func trimBlankEdges(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
