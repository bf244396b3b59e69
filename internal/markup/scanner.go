package markup

import (
	"strings"
	"unicode/utf8"
)

// SuppressKeyword follows a <%-- opener to disable checking of the next line's tag.
const SuppressKeyword = "suppress jsp check"

// excludedComments are comment bodies that never produce a tag: conditional
// comments and markers emitted by templating tools.
var excludedComments = []string{"<%/*", "*/%>", "[if", "<![endif]"}

// Match is an opening marker found by Find. Start and End are byte offsets
// into the searched line; End is just past the opener, where body parsing
// begins.
type Match struct {
	Kind  Kind
	Core  CoreType
	Name  string
	Start int
	End   int
}

// Column returns the 1-based character column of the match within line.
func (m Match) Column(line string) int {
	return columnAt(line, m.Start)
}

// Find returns the leftmost opening marker in line at or after offset. When
// several markers start at the same position the first in this order wins:
// directive, HTML comment, suppress marker, core block, expression, element.
// Excluded comments are stepped over together with their leading word and
// scanning continues after them.
func Find(line string, offset int) (Match, bool) {
	if offset < 0 {
		offset = 0
	}
	for i := offset; i < len(line); i++ {
		switch line[i] {
		case '<':
			m, resume, ok := matchAngle(line, i)
			if ok {
				return m, true
			}
			if resume > i+1 {
				i = resume - 1
			}
		case '$':
			if strings.HasPrefix(line[i:], "${") {
				return Match{Kind: KindExpression, Name: "${", Start: i, End: i + 2}, true
			}
		}
	}
	return Match{}, false
}

// matchAngle tries every '<' opener at line[i]. When nothing matches, the
// returned offset tells Find where to resume.
func matchAngle(line string, i int) (Match, int, bool) {
	rest := line[i:]

	if m, ok := matchDirective(rest); ok {
		m.Start += i
		m.End += i
		return m, 0, true
	}

	if strings.HasPrefix(rest, "<!--") {
		if skip, excluded := excludedComment(rest[len("<!--"):]); excluded {
			return Match{}, i + len("<!--") + skip, false
		}
		return Match{Kind: KindHTMLComment, Name: "<!--", Start: i, End: i + len("<!--")}, 0, true
	}

	if strings.HasPrefix(rest, openComment) {
		if end, ok := matchSuppress(rest); ok {
			return Match{Kind: KindSuppress, Name: SuppressKeyword, Start: i, End: i + end}, 0, true
		}
	}

	if strings.HasPrefix(rest, openScriptlet) {
		opener := openScriptlet
		switch {
		case strings.HasPrefix(rest, openComment):
			opener = openComment
		case strings.HasPrefix(rest, openDeclaration):
			opener = openDeclaration
		case strings.HasPrefix(rest, openExpression):
			opener = openExpression
		}
		return Match{Kind: KindCore, Core: coreTypeOf(opener), Name: opener, Start: i, End: i + len(opener)}, 0, true
	}

	if name, ok := matchElement(rest); ok {
		return Match{Kind: KindElement, Name: name, Start: i, End: i + 1 + len(name)}, 0, true
	}

	return Match{}, 0, false
}

// matchDirective recognises <%@ followed by optional whitespace and an identifier.
func matchDirective(s string) (Match, bool) {
	if !strings.HasPrefix(s, "<%@") {
		return Match{}, false
	}
	j := len("<%@")
	for j < len(s) && isSpace(s[j]) {
		j++
	}
	k := j
	for k < len(s) && isWord(s[k]) {
		k++
	}
	if k == j {
		return Match{}, false
	}
	return Match{Kind: KindDirective, Name: s[j:k], End: k}, true
}

// matchSuppress recognises <%-- [spaces] suppress jsp check ... --%> on one
// line and returns the offset just past the closing delimiter.
func matchSuppress(s string) (int, bool) {
	j := len(openComment)
	for j < len(s) && s[j] == ' ' {
		j++
	}
	if !strings.HasPrefix(s[j:], SuppressKeyword) {
		return 0, false
	}
	j += len(SuppressKeyword)
	closing := strings.LastIndex(s[j:], "--%>")
	if closing < 0 {
		return 0, false
	}
	return j + closing + len("--%>"), true
}

// matchElement recognises <name or <prefix:local. The returned name excludes
// the leading '<' and stops before '>', '/' or whitespace.
func matchElement(s string) (string, bool) {
	if len(s) < 2 || !isNameStart(s[1]) {
		return "", false
	}
	j := 2
	for j < len(s) && (isWord(s[j]) || s[j] == '-' || s[j] == '.') {
		j++
	}
	if j < len(s) && s[j] == ':' {
		k := j + 1
		for k < len(s) && s[k] != '>' && s[k] != '/' && !isSpace(s[k]) {
			k++
		}
		if k > j+1 {
			return s[1:k], true
		}
	}
	return s[1:j], true
}

// excludedComment inspects the first word of a comment body. For excluded
// comments it returns the length of the leading whitespace plus that word.
func excludedComment(body string) (int, bool) {
	j := 0
	for j < len(body) && isSpace(body[j]) {
		j++
	}
	k := j
	for k < len(body) && !isSpace(body[k]) {
		k++
	}
	word := body[j:k]
	for _, prefix := range excludedComments {
		if strings.HasPrefix(word, prefix) {
			return k, true
		}
	}
	return 0, false
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isWord(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isNameStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// columnAt converts a byte offset into a 1-based character column.
func columnAt(line string, offset int) int {
	if offset > len(line) {
		offset = len(line)
	}
	return utf8.RuneCountInString(line[:offset]) + 1
}
