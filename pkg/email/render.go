package email

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/a-h/templ"
)

// Render renders a templ component to a string.
func Render(ctx context.Context, tpl templ.Component) (string, error) {
	var sb strings.Builder
	if err := tpl.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Field is one row of the development notification body.
type Field struct {
	Name  string
	Value string
}

// Fields flattens template data into rows sorted by name.
func Fields(data map[string]any) []Field {
	fields := make([]Field, 0, len(data))
	for k, v := range data {
		fields = append(fields, Field{Name: k, Value: fmt.Sprint(v)})
	}
	slices.SortFunc(fields, func(a, b Field) int { return strings.Compare(a.Name, b.Name) })
	return fields
}
