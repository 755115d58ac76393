package ctree

import (
	"strings"
)

// Comment is the parsed documentation attached to a declaration.
type Comment struct {
	Text string
	// Params maps parameter names to their @param / \param descriptions.
	Params map[string]string
}

// Param returns the documentation of the named parameter, if any.
func (c Comment) Param(name string) string {
	if c.Params == nil {
		return ""
	}
	return c.Params[name]
}

// ParseComment extracts the body text and parameter docs from a raw C
// comment block. Both block (/** ... */) and line (///, //!) styles are
// accepted.
func ParseComment(raw string) Comment {
	var (
		text    []string
		params  map[string]string
		current string
	)
	for _, line := range strings.Split(raw, "\n") {
		line = stripCommentMarkers(line)
		cmd, rest, ok := docCommand(line)
		switch {
		case ok && cmd == "param":
			name, desc := splitParam(rest)
			if name == "" {
				continue
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = desc
			current = name
		case ok && (cmd == "brief" || cmd == "details"):
			current = ""
			if rest != "" {
				text = append(text, rest)
			}
		case ok:
			// other commands (@return, @note, ...) end a parameter block
			current = ""
			if rest != "" {
				text = append(text, line)
			}
		case line == "":
			current = ""
			text = append(text, "")
		case current != "":
			params[current] = strings.TrimSpace(params[current] + " " + line)
		default:
			text = append(text, line)
		}
	}
	return Comment{Text: joinParagraphs(text), Params: params}
}

func stripCommentMarkers(line string) string {
	line = strings.TrimSpace(line)
	for _, prefix := range []string{"/**<", "///<", "/**", "/*!", "/*", "///", "//!", "//"} {
		if strings.HasPrefix(line, prefix) {
			line = line[len(prefix):]
			break
		}
	}
	line = strings.TrimSpace(strings.TrimSuffix(line, "*/"))
	for strings.HasPrefix(line, "*") {
		line = strings.TrimSpace(line[1:])
	}
	return line
}

// docCommand recognises "@cmd rest" and "\cmd rest".
func docCommand(line string) (cmd, rest string, ok bool) {
	if line == "" || (line[0] != '@' && line[0] != '\\') {
		return "", "", false
	}
	body := line[1:]
	end := strings.IndexAny(body, " \t")
	if end < 0 {
		return body, "", body != ""
	}
	cmd = body[:end]
	// "@param[in] x" carries a direction annotation
	if i := strings.IndexByte(cmd, '['); i > 0 {
		cmd = cmd[:i]
	}
	return cmd, strings.TrimSpace(body[end:]), cmd != ""
}

func splitParam(rest string) (name, desc string) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", ""
	}
	name = fields[0]
	return name, strings.Join(fields[1:], " ")
}

func joinParagraphs(lines []string) string {
	var (
		b     strings.Builder
		blank bool
	)
	for _, line := range lines {
		if line == "" {
			blank = b.Len() > 0
			continue
		}
		if b.Len() > 0 {
			if blank {
				b.WriteString("\n\n")
			} else {
				b.WriteByte(' ')
			}
		}
		blank = false
		b.WriteString(line)
	}
	return b.String()
}
