package schema

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
	FormatYAML    Format = "yaml"
	FormatText    Format = "text"
)

// Formats lists the supported encodings.
var Formats = []Format{FormatJSON, FormatMsgpack, FormatYAML, FormatText}

// ParseFormat maps a flag or manifest value to a Format. The empty string
// selects json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("unsupported format %q (want json, msgpack, yaml or text)", s)
}

// Ext returns the file extension used for f, without the dot.
func (f Format) Ext() string {
	switch f {
	case FormatMsgpack:
		return "msgpack"
	case FormatYAML:
		return "yaml"
	case FormatText:
		return "txt"
	default:
		return "json"
	}
}

// Write encodes v to w. v is a *Schema, a Module or a []Record; the text
// format accepts only those three.
func Write(w io.Writer, v any, f Format) error {
	switch f {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		enc.SetOmitEmpty(true)
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		bw := bufio.NewWriter(w)
		switch x := v.(type) {
		case *Schema:
			writeSchemaText(bw, x)
		case Module:
			writeModuleText(bw, &x)
		case *Module:
			writeModuleText(bw, x)
		case []Record:
			for i := range x {
				writeRecordText(bw, &x[i])
			}
		default:
			return fmt.Errorf("text format: unsupported value %T", v)
		}
		return bw.Flush()
	}
	return fmt.Errorf("unsupported format %q", f)
}

// Read decodes a schema previously written with Write. Text is write-only.
func Read(r io.Reader, f Format) (*Schema, error) {
	var s Schema
	var err error
	switch f {
	case FormatJSON, "":
		err = json.NewDecoder(r).Decode(&s)
	case FormatMsgpack:
		dec := msgpack.NewDecoder(r)
		dec.SetCustomStructTag("json")
		err = dec.Decode(&s)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&s)
	default:
		return nil, fmt.Errorf("format %q cannot be read back", f)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func writeSchemaText(w *bufio.Writer, s *Schema) {
	fmt.Fprintf(w, "# schema v%d (%s)\n", s.Version, s.Generator)
	for i := range s.Records {
		writeRecordText(w, &s.Records[i])
	}
	for i := range s.Modules {
		w.WriteByte('\n')
		writeModuleText(w, &s.Modules[i])
	}
}

func writeModuleText(w *bufio.Writer, m *Module) {
	fmt.Fprintf(w, "module %s (%s)\n", m.Name, m.Header)
	if len(m.Imports) > 0 {
		fmt.Fprintf(w, "  imports %s\n", strings.Join(m.Imports, ", "))
	}
	if len(m.Helpers) > 0 {
		fmt.Fprintf(w, "  helpers %s\n", strings.Join(m.Helpers, ", "))
	}
	for _, fn := range m.Functions {
		writeDoc(w, "  ", fn.Doc)
		sym := ""
		if fn.Symbol != fn.Name {
			sym = " @" + fn.Symbol
		}
		fmt.Fprintf(w, "  fn %s%s(%s) %s\n", fn.Name, sym, paramsText(fn.Params, fn.Variadic), RefString(fn.Result))
	}
}

func writeRecordText(w *bufio.Writer, r *Record) {
	writeDoc(w, "", r.Doc)
	synth := ""
	if r.Synthesized {
		synth = " // synthesized"
	}
	switch r.Kind {
	case KindScalar:
		fmt.Fprintf(w, "scalar %s = %s\n", r.Name, r.Scalar)
	case KindOpaque:
		fmt.Fprintf(w, "opaque %s\n", r.Name)
	case KindEnum:
		fmt.Fprintf(w, "enum %s : %s {\n", r.Name, r.Backing)
		for _, c := range r.Constants {
			writeDoc(w, "  ", c.Doc)
			if c.Unsigned != 0 && c.Value < 0 {
				fmt.Fprintf(w, "  %s = %d\n", c.Name, c.Unsigned)
				continue
			}
			fmt.Fprintf(w, "  %s = %d\n", c.Name, c.Value)
		}
		w.WriteString("}\n")
	case KindStruct, KindUnion:
		fmt.Fprintf(w, "%s %s size=%d {\n", r.Kind, r.Name, r.Size)
		for _, f := range r.Fields {
			writeDoc(w, "  ", f.Doc)
			if f.BitWidth > 0 {
				fmt.Fprintf(w, "  @%-4d %s: %s (%d) bits %d+%d\n", f.Offset, f.Name, RefString(f.Type), f.Size, f.BitOffset, f.BitWidth)
				continue
			}
			fmt.Fprintf(w, "  @%-4d %s: %s (%d)\n", f.Offset, f.Name, RefString(f.Type), f.Size)
		}
		w.WriteString("}\n")
	case KindPointer:
		fmt.Fprintf(w, "type %s = %s\n", r.Name, RefString(r.Type))
	case KindFunction:
		fmt.Fprintf(w, "callback %s(%s) %s%s\n", r.Name, paramsText(r.Params, r.Variadic), RefString(r.Result), synth)
	case KindReference:
		fmt.Fprintf(w, "alias %s = %s\n", r.Name, r.Target)
	default:
		fmt.Fprintf(w, "%s %s\n", r.Kind, r.Name)
	}
}

func writeDoc(w *bufio.Writer, indent, doc string) {
	if doc == "" {
		return
	}
	for _, line := range strings.Split(doc, "\n") {
		w.WriteString(strings.TrimRight(indent+"// "+line, " "))
		w.WriteByte('\n')
	}
}

func paramsText(params []Param, variadic bool) string {
	parts := make([]string, 0, len(params)+1)
	for _, p := range params {
		if p.Name == "" {
			parts = append(parts, RefString(p.Type))
			continue
		}
		parts = append(parts, p.Name+" "+RefString(p.Type))
	}
	if variadic {
		parts = append(parts, "...")
	}
	return strings.Join(parts, ", ")
}

// RefString renders a type reference compactly: "i32", "Point",
// "*buffer Point", "fn(i32) void".
func RefString(t *TypeRef) string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case RefScalar:
		return t.Scalar
	case RefNamed:
		return t.Name
	case RefPointer:
		return "*" + t.Mode + " " + RefString(t.Pointee)
	case RefFunction:
		return "fn(" + paramsText(t.Params, t.Variadic) + ") " + RefString(t.Result)
	}
	return "?"
}
