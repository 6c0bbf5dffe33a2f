package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// identityKeys are checked in order: MCP server.json uses "package", package.json uses "name".
var identityKeys = []string{"package", "name"}

// jsonFormat edits top-level "version" of package.json-like files in place.
// It is the only kind where a missing version is inserted rather than rejected.
type jsonFormat struct{}

func (jsonFormat) Kind() Kind { return KindNPM }

func (jsonFormat) Read(path string, data []byte) (Fields, error) {
	var fields Fields
	if err := checkJSONObject(data); err != nil {
		return fields, unparsable(path, "%v", err)
	}
	for _, key := range identityKeys {
		if name, err := jsonparser.GetString(data, key); err == nil && name != "" {
			fields.Name = name
			break
		}
	}

	value, typ, _, err := jsonparser.Get(data, "version")
	switch {
	case errors.Is(err, jsonparser.KeyPathNotFoundError):
		return fields, nil
	case err != nil:
		return fields, unparsable(path, "reading version: %v", err)
	case typ != jsonparser.String:
		return fields, unparsable(path, "version is a %s, expected a string", typ)
	}
	version, err := jsonparser.ParseString(value)
	if err != nil {
		return fields, unparsable(path, "reading version: %v", err)
	}
	fields.Version = version
	fields.HasVersion = true
	return fields, nil
}

func (jsonFormat) SetVersion(data []byte, version string) ([]byte, error) {
	if err := checkJSONObject(data); err != nil {
		return nil, err
	}
	quoted, err := json.Marshal(version)
	if err != nil {
		return nil, err
	}

	value, typ, end, err := jsonparser.Get(data, "version")
	switch {
	case err == nil && typ == jsonparser.String:
		// end is just past the closing quote; value is the raw text between the quotes.
		start := end - 1 - len(value)
		return splice(data, start-1, end, quoted), nil
	case err == nil:
		return nil, fmt.Errorf("version is a %s, expected a string", typ)
	case !errors.Is(err, jsonparser.KeyPathNotFoundError):
		return nil, err
	}

	for _, key := range identityKeys {
		if _, _, end, err := jsonparser.Get(data, key); err == nil {
			return insertAfterMember(data, end, quoted), nil
		}
	}
	return insertFirstMember(data, quoted)
}

// insertAfterMember adds "version" right after the member whose value ends at end,
// reusing that member's indentation, or staying on one line for compact objects.
func insertAfterMember(data []byte, end int, quoted []byte) []byte {
	lineStart := bytes.LastIndexByte(data[:end], '\n') + 1
	line := data[lineStart:end]
	indent := line[:len(line)-len(bytes.TrimLeft(line, " \t"))]

	var ins bytes.Buffer
	if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("{")) {
		// Same line as the opening brace: a compact object.
		ins.WriteString(",")
		if bytes.Contains(line, []byte(`": `)) {
			ins.WriteString(` "version": `)
		} else {
			ins.WriteString(`"version":`)
		}
	} else {
		ins.WriteString(",")
		ins.WriteString(newline(data))
		ins.Write(indent)
		ins.WriteString(`"version": `)
	}
	ins.Write(quoted)
	return splice(data, end, end, ins.Bytes())
}

// insertFirstMember adds "version" as the first member of the root object.
func insertFirstMember(data []byte, quoted []byte) ([]byte, error) {
	open := bytes.IndexByte(data, '{')
	if open < 0 {
		return nil, errors.New("no JSON object")
	}
	next := open + 1
	for next < len(data) && isJSONSpace(data[next]) {
		next++
	}
	member := append([]byte(`"version": `), quoted...)
	if next < len(data) && data[next] == '}' {
		return splice(data, open+1, open+1, member), nil
	}
	sep := data[open+1 : next]
	ins := append(member, ',')
	if len(sep) == 0 {
		ins = append(ins, ' ')
	} else {
		ins = append(ins, sep...)
	}
	return splice(data, next, next, ins), nil
}

func checkJSONObject(data []byte) error {
	if !json.Valid(data) {
		return errors.New("invalid JSON")
	}
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("expected a JSON object")
	}
	return nil
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// newline returns the line ending used by data.
func newline(data []byte) string {
	if bytes.Contains(data, []byte("\r\n")) {
		return "\r\n"
	}
	return "\n"
}

// splice returns data with data[start:end] replaced by repl, in a new slice.
func splice(data []byte, start, end int, repl []byte) []byte {
	out := make([]byte, 0, len(data)-(end-start)+len(repl))
	out = append(out, data[:start]...)
	out = append(out, repl...)
	return append(out, data[end:]...)
}
