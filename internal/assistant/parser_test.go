package assistant

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		prose    string
		code     *string
		language string
	}{
		{
			name:  "no code block",
			input: "  just text\n",
			prose: "just text",
		},
		{
			name:     "single block with language",
			input:    "Here you go:\n```go\nfmt.Println(1)\n```\nDone.",
			prose:    "Here you go:\n\nDone.",
			code:     strPtr("fmt.Println(1)"),
			language: "go",
		},
		{
			name:     "block without language",
			input:    "```\n  x := 1  \n```",
			prose:    "",
			code:     strPtr("x := 1"),
			language: "text",
		},
		{
			name:     "empty code body",
			input:    "before```\n\n```after",
			prose:    "beforeafter",
			code:     strPtr(""),
			language: "text",
		},
		{
			name:     "first block wins",
			input:    "a\n```py\none\n```\nb\n```py\ntwo\n```",
			prose:    "a\n\nb\n```py\ntwo\n```",
			code:     strPtr("one"),
			language: "py",
		},
		{
			name:  "unterminated fence",
			input: "text ```python\nprint(1)\n",
			prose: "text ```python\nprint(1)",
		},
		{
			name:  "fence without newline after tag",
			input: "```python print(1)```",
			prose: "```python print(1)```",
		},
		{
			name:     "chunks joined without separator",
			input:    "Hi there```python\nprint(1)\n```",
			prose:    "Hi there",
			code:     strPtr("print(1)"),
			language: "python",
		},
		{
			name:  "empty input",
			input: "",
			prose: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.input)
			if got.Prose != tc.prose {
				t.Errorf("prose = %q, want %q", got.Prose, tc.prose)
			}
			switch {
			case tc.code == nil && got.Code != nil:
				t.Errorf("expected no code, got %q", *got.Code)
			case tc.code != nil && got.Code == nil:
				t.Errorf("expected code %q, got none", *tc.code)
			case tc.code != nil && *got.Code != *tc.code:
				t.Errorf("code = %q, want %q", *got.Code, *tc.code)
			}
			if tc.code != nil && got.Language != tc.language {
				t.Errorf("language = %q, want %q", got.Language, tc.language)
			}
		})
	}
}

func TestParse_HasCode(t *testing.T) {
	if Parse("```\n\n```").HasCode() {
		t.Error("empty block should not count as code")
	}
	if !Parse("```js\nx()\n```").HasCode() {
		t.Error("expected HasCode for non-empty block")
	}
	if Parse("plain").HasCode() {
		t.Error("plain text has no code")
	}
}

func TestParse_ProseIsStable(t *testing.T) {
	inputs := []string{
		"plain answer",
		"Explanation first.\n```sql\nSELECT 1;\n```\nThen a note.",
		"```\nonly code\n```",
		"broken ```go\nfunc(",
	}
	for _, in := range inputs {
		prose := Parse(in).Prose
		again := Parse(prose)
		if again.Prose != prose {
			t.Errorf("reparse of %q changed prose: %q", prose, again.Prose)
		}
		if again.Code != nil {
			t.Errorf("reparse of %q found code %q", prose, *again.Code)
		}
	}
}

func TestParse_RecoversComposedResponse(t *testing.T) {
	cases := []struct{ prose, lang, code string }{
		{"Here is the function.", "go", "func add(a, b int) int {\n\treturn a + b\n}"},
		{"  padded prose  ", "python", "  print('x')  "},
		{"", "sh", "ls -la"},
		{"multi\nline\nprose", "js", "console.log(1)\nconsole.log(2)"},
	}
	for _, tc := range cases {
		text := tc.prose + "\n```" + tc.lang + "\n" + tc.code + "\n```"
		got := Parse(text)
		if got.Prose != trim(tc.prose) {
			t.Errorf("prose = %q, want %q", got.Prose, trim(tc.prose))
		}
		if got.Code == nil || *got.Code != trim(tc.code) {
			t.Errorf("code = %v, want %q", got.Code, trim(tc.code))
		}
		if got.Language != tc.lang {
			t.Errorf("language = %q, want %q", got.Language, tc.lang)
		}
	}
}
