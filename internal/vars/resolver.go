package vars

import (
	"regexp"
	"strings"

	"github.com/vedsharma/pingforge/internal/model"
)

// Token returns the template placeholder for key.
func Token(key string) string {
	return "{{" + key + "}}"
}

// Resolve replaces every {{key}} token of each enabled variable, walking the
// variables in order. Keys are matched literally. Tokens without an enabled
// variable are left as they are so missing variables stay visible.
func Resolve(text string, variables []model.Variable) string {
	if text == "" || len(variables) == 0 {
		return text
	}
	for _, v := range variables {
		if !v.Enabled {
			continue
		}
		text = strings.ReplaceAll(text, Token(v.Key), v.Value)
	}
	return text
}

// Resolver binds Resolve to an environment. A nil Resolver, or one without an
// environment, returns its input unchanged.
type Resolver struct {
	env *model.Environment
}

func NewResolver(env *model.Environment) *Resolver {
	return &Resolver{env: env}
}

func (r *Resolver) Resolve(text string) string {
	if r == nil || r.env == nil {
		return text
	}
	return Resolve(text, r.env.Variables)
}

func (r *Resolver) Environment() *model.Environment {
	if r == nil {
		return nil
	}
	return r.env
}

var tokenPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Missing lists the keys of tokens still present in the inputs, first
// occurrence first.
func Missing(texts ...string) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
			key := m[1]
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}
