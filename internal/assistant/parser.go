package assistant

import (
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)\\n```")

// ParsedResponse is a reply split into prose and at most one code block.
type ParsedResponse struct {
	Prose    string
	Code     *string
	Language string
}

func (p ParsedResponse) HasCode() bool {
	return p.Code != nil && *p.Code != ""
}

// Parse extracts the first fenced code block from text. Later blocks are left
// in the prose untouched. An unterminated fence is not a block.
func Parse(text string) ParsedResponse {
	loc := fencePattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return ParsedResponse{Prose: strings.TrimSpace(text)}
	}

	code := strings.TrimSpace(text[loc[4]:loc[5]])
	lang := "text"
	if loc[2] >= 0 {
		lang = text[loc[2]:loc[3]]
	}

	return ParsedResponse{
		Prose:    strings.TrimSpace(text[:loc[0]] + text[loc[1]:]),
		Code:     &code,
		Language: lang,
	}
}
