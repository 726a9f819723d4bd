// Package template checks the text templates embedded in node params.
package template

import (
	"crypto/rand"
	"fmt"
	"text/template"
	"time"
)

// FuncMap returns the functions available to node templates at run time.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"now": func() string {
			return time.Now().UTC().Format(time.RFC3339)
		},
		"rand": func(max int) int {
			if max <= 0 {
				return 0
			}

			num := make([]byte, 1)
			if _, err := rand.Read(num); err != nil {
				return 0
			}

			return int(num[0]) % max
		},
	}
}

// Check parses templateStr with the node function set without executing it.
func Check(templateStr string) error {
	_, err := template.New("check").Funcs(FuncMap()).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	return nil
}
