package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Rejection reasons reported by NormalizeStrict.
const (
	ReasonMalformedJSON = "malformed_json"
	ReasonNotAList      = "not_a_list"
	ReasonNotAString    = "not_a_string"
	ReasonBlank         = "blank"
)

// A media list is an array of strings holding at least one non-space character. Link patterns
// are checked per kind afterwards.
const listSchemaSource = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "array",
	"items": {"type": "string", "pattern": "\\S"}
}`

var listSchema = jsonschema.MustCompileString("gradlink://media-list.json", listSchemaSource)

// Rejection describes one dropped media entry. Index is -1 when the whole value was unusable.
type Rejection struct {
	Index  int    `json:"index"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// ValidationError aggregates every rejection found while normalizing a media list.
type ValidationError struct {
	Kind       Kind        `json:"kind"`
	Rejections []Rejection `json:"rejections"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d invalid media entr%s", e.Kind, len(e.Rejections), pluralSuffix(len(e.Rejections)))
}

// Normalize turns raw request or column input into the ordered list of acceptable links for kind.
// Malformed input degrades to an empty list; invalid entries are dropped silently.
func Normalize(kind Kind, raw any) []string {
	accepted, _ := collect(kind, raw)
	return accepted
}

// NormalizeStrict behaves like Normalize but also reports every dropped entry as a *ValidationError.
func NormalizeStrict(kind Kind, raw any) ([]string, error) {
	accepted, rejections := collect(kind, raw)
	if len(rejections) > 0 {
		return accepted, &ValidationError{Kind: kind, Rejections: rejections}
	}
	return accepted, nil
}

// Encode renders a list as the JSON text persisted in the media columns.
func Encode(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(payload)
}

func collect(kind Kind, raw any) ([]string, []Rejection) {
	accepted := []string{}

	value, rejection := decode(raw)
	if rejection != nil {
		return accepted, []Rejection{*rejection}
	}
	if value == nil {
		return accepted, nil
	}

	violations, ok := schemaViolations(value)
	if !ok {
		return accepted, []Rejection{{Index: -1, Value: preview(value), Reason: ReasonNotAList}}
	}

	items, _ := value.([]any)
	var rejections []Rejection
	for i, item := range items {
		if reason, bad := violations[i]; bad {
			rejected := Rejection{Index: i, Reason: reason}
			if item != nil {
				rejected.Value = preview(item)
			}
			rejections = append(rejections, rejected)
			continue
		}

		link, _ := item.(string)
		if !kind.Accepts(link) {
			rejections = append(rejections, Rejection{Index: i, Value: link, Reason: invalidReason(kind)})
			continue
		}
		accepted = append(accepted, link)
	}

	return accepted, rejections
}

// schemaViolations validates value against listSchema and maps each failing item to a rejection
// reason. ok is false when value is not a list at all.
func schemaViolations(value any) (map[int]string, bool) {
	err := listSchema.Validate(value)
	if err == nil {
		return nil, true
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return nil, false
	}

	items, _ := value.([]any)
	violations := map[int]string{}
	for _, leaf := range schemaLeaves(validationErr) {
		location := strings.TrimPrefix(leaf.InstanceLocation, "/")
		if location == "" {
			return nil, false
		}
		index, convErr := strconv.Atoi(strings.SplitN(location, "/", 2)[0])
		if convErr != nil || index < 0 || index >= len(items) {
			return nil, false
		}

		reason := ReasonNotAString
		if items[index] == nil || strings.HasSuffix(leaf.KeywordLocation, "/pattern") {
			reason = ReasonBlank
		}
		violations[index] = reason
	}
	return violations, true
}

func schemaLeaves(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		leaves = append(leaves, schemaLeaves(cause)...)
	}
	return leaves
}

// decode converts supported inputs into a JSON-like value; nil means "absent".
func decode(raw any) (any, *Rejection) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		items := make([]any, 0, len(v))
		for _, item := range v {
			items = append(items, item)
		}
		return items, nil
	case []any:
		return v, nil
	case *string:
		if v == nil {
			return nil, nil
		}
		return decode(*v)
	case json.RawMessage:
		return decode([]byte(v))
	case []byte:
		return decode(string(v))
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return nil, &Rejection{Index: -1, Value: truncate(trimmed), Reason: ReasonMalformedJSON}
		}
		if decoded == nil {
			return nil, nil
		}
		// JSON bodies may carry the list as a JSON-encoded string field.
		if nested, ok := decoded.(string); ok {
			return decode(nested)
		}
		return decoded, nil
	default:
		return raw, nil
	}
}

func invalidReason(kind Kind) string {
	switch kind {
	case KindImages:
		return "invalid_image_link"
	case KindVideos:
		return "invalid_video_link"
	case KindDocuments:
		return "invalid_document_link"
	default:
		return "invalid_link"
	}
}

func preview(value any) string {
	return truncate(fmt.Sprint(value))
}

func truncate(value string) string {
	const limit = 120
	if len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut] + "…"
}

func pluralSuffix(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
