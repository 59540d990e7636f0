package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// renderReply prints a recipe reply as a card and anything else as text.
func renderReply(w io.Writer, reply map[string]any) {
	if name, ok := reply["name"].(string); ok {
		if _, hasIngredients := reply["ingredients"]; hasIngredients {
			renderRecipe(w, name, reply)
			return
		}
	}
	if text, ok := reply["response"].(string); ok && len(reply) == 1 {
		fmt.Fprintln(w, text)
		return
	}
	b, err := json.MarshalIndent(reply, "", "  ")
	if err != nil {
		fmt.Fprintln(w, reply)
		return
	}
	fmt.Fprintln(w, string(b))
}

func renderRecipe(w io.Writer, name string, reply map[string]any) {
	fmt.Fprintln(w, name)
	fmt.Fprintln(w, strings.Repeat("=", len(name)))
	if d, ok := reply["description"].(string); ok && d != "" {
		fmt.Fprintln(w, d)
	}

	fmt.Fprintln(w, "\nIngredients:")
	for _, item := range stringList(reply["ingredients"]) {
		fmt.Fprintf(w, "  - %s\n", item)
	}

	steps := stringList(reply["instructions"])
	if len(steps) > 0 {
		fmt.Fprintln(w, "\nInstructions:")
		for i, step := range steps {
			fmt.Fprintf(w, "  %d. %s\n", i+1, step)
		}
	}
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return []string{t}
	}
	return nil
}
