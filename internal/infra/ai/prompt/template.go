package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/clients"
)

var (
	ErrMissingField      = errors.New("template references a missing field")
	ErrMalformedTemplate = errors.New("malformed template")
)

// MissingFieldError names the placeholder that had no value.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// RenderTemplate substitutes {placeholder} fields with the client's values.
// "{{" and "}}" produce literal braces.
func RenderTemplate(template string, c clients.Profile) (string, error) {
	return Render(template, c.Fields())
}

// Render substitutes placeholders from fields.
func Render(template string, fields map[string]string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(template))

	for i := 0; i < len(template); i++ {
		ch := template[i]
		switch ch {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				sb.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed '{' at offset %d", ErrMalformedTemplate, i)
			}
			name := template[i+1 : i+1+end]
			val, ok := fields[name]
			if !ok {
				return "", &MissingFieldError{Field: name}
			}
			sb.WriteString(val)
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				sb.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("%w: single '}' at offset %d", ErrMalformedTemplate, i)
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String(), nil
}
