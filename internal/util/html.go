package util

import "strings"

// LooksLikeHTML reports whether a generation task produced an HTML visual
// rather than Markdown prose. The task id naming convention is checked first;
// otherwise the response is sniffed for a leading HTML token, looking through
// a code fence when the model wrapped its output in one.
func LooksLikeHTML(promptID, response string) bool {
	id := strings.ToUpper(promptID)
	if strings.Contains(id, "HTML") || strings.Contains(id, "VISUAL") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(response))
	if strings.HasPrefix(head, "```") {
		firstLine, rest, _ := strings.Cut(head, "\n")
		if strings.Contains(firstLine, "html") {
			return true
		}
		head = strings.TrimSpace(rest)
	}
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<div") ||
		strings.HasPrefix(head, "<table")
}

// WrapHTMLFragment embeds a bare HTML fragment into a standalone document
// with the house card styling, so the renderer produces a consistent image.
// Code fences around the fragment are dropped first; fragments that are
// already full documents are returned unchanged.
func WrapHTMLFragment(fragment string) string {
	trimmed := stripCodeFence(strings.TrimSpace(fragment))
	if strings.HasPrefix(strings.ToLower(trimmed), "<!doctype") {
		return trimmed
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"es\">\n<head>\n<meta charset=\"utf-8\">\n<style>\n")
	b.WriteString("body { margin: 0; padding: 24px; background: #f4f6f8; font-family: Arial, Helvetica, sans-serif; color: #1f2933; }\n")
	b.WriteString(".tarjeta { background: #ffffff; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.12); padding: 24px; }\n")
	b.WriteString("table { border-collapse: collapse; width: 100%; }\n")
	b.WriteString("th, td { border: 1px solid #d8dee4; padding: 8px 12px; text-align: left; }\n")
	b.WriteString("th { background: #eef2f6; }\n")
	b.WriteString("</style>\n</head>\n<body>\n<div class=\"tarjeta\">\n")
	b.WriteString(trimmed)
	b.WriteString("\n</div>\n</body>\n</html>\n")
	return b.String()
}
