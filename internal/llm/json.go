package llm

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/invopop/jsonschema"
)

// #region decode
// DecodeJSON unmarshals JSON from model output. It tolerates markdown code fences and
// leading/trailing prose by falling back to the outermost object or array in the text.
func DecodeJSON(text string, v any) error {
	s := stripFences(strings.TrimSpace(text))
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return fmt.Errorf("no JSON value found in model output (len=%d)", len(s))
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return fmt.Errorf("unterminated JSON value in model output (len=%d)", len(s))
	}

	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}

// stripFences removes a surrounding ``` or ```json fence.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 2 {
		s = strings.Join(lines[1:len(lines)-1], "\n")
	}
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// #endregion decode

// #region schema
// SchemaFor renders a compact, self-contained JSON schema for T, suitable for embedding in a prompt.
func SchemaFor[T any]() string {
	r := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	b, err := json.Marshal(r.Reflect(v))
	if err != nil {
		// Reflect output is always marshalable; keep prompts usable regardless.
		return "{}"
	}
	return string(b)
}

// #endregion schema
