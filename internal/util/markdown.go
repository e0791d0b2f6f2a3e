package util

import (
	"regexp"
	"strings"
)

var orderedItem = regexp.MustCompile(`^(\s*)\d+\.(\s+)(.*)$`)

// RenumberOrderedLists rewrites Markdown ordered-list markers so every
// contiguous run of list items counts 1, 2, 3... regardless of the numbers
// the model emitted. A non-list line ends the run; the next run restarts at 1.
func RenumberOrderedLists(text string) string {
	lines := strings.Split(text, "\n")
	counter := 0
	for i, line := range lines {
		m := orderedItem.FindStringSubmatch(line)
		if m == nil {
			counter = 0
			continue
		}
		counter++
		lines[i] = m[1] + itoa(counter) + "." + m[2] + m[3]
	}
	return strings.Join(lines, "\n")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

var introPhrases = []string{
	"aquí tienes",
	"aqui tienes",
	"claro,",
	"por supuesto",
	"a continuación",
	"a continuacion",
}

// StripResponseWrapper removes the scaffolding models add around the content
// actually wanted: code fences, leading courtesy phrases, and any leading
// heading that duplicates the section title (headings are inserted by the
// assembler, never taken from the response).
func StripResponseWrapper(text, sectionTitle string) string {
	text = strings.TrimSpace(text)
	text = stripCodeFence(text)

	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			i++
			continue
		}
		low := strings.ToLower(trimmed)
		if isIntroPhrase(low) {
			i++
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			heading := strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
			if sectionTitle == "" || strings.EqualFold(heading, sectionTitle) {
				i++
				continue
			}
		}
		break
	}
	return strings.TrimSpace(strings.Join(lines[i:], "\n"))
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	idx := strings.Index(text, "\n")
	if idx < 0 {
		return text
	}
	body := strings.TrimSpace(text[idx+1:])
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}

func isIntroPhrase(low string) bool {
	if !strings.HasSuffix(low, ":") && len(low) > 120 {
		return false
	}
	for _, p := range introPhrases {
		if strings.HasPrefix(low, p) {
			return true
		}
	}
	return false
}
