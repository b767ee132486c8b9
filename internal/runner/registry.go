package runner

import "github.com/nvoss/subdoc/internal/scan"

// builtins are the two reference runners: a single-step interpreted
// invocation and a compile+run pair whose compile output lands in a scoped
// artifact directory.
var builtins = map[string]Template{
	scan.LangPython: {
		Language: scan.LangPython,
		Steps:    [][]string{{"python3", "{file}"}},
	},
	scan.LangJava: {
		Language: scan.LangJava,
		Steps: [][]string{
			{"javac", "-d", "{artifact_dir}", "{file}"},
			{"java", "-cp", "{artifact_dir}", "{base}"},
		},
	},
}

// Registry resolves a language tag to its command template.
type Registry struct {
	templates map[string]Template
}

// NewRegistry builds a registry from the builtin templates plus per-language
// overrides from configuration. An override replaces the builtin wholesale
// and may introduce a language the builtins do not know.
func NewRegistry(overrides map[string][][]string) *Registry {
	templates := make(map[string]Template, len(builtins)+len(overrides))
	for lang, tmpl := range builtins {
		templates[lang] = tmpl
	}
	for lang, steps := range overrides {
		templates[lang] = Template{Language: lang, Steps: steps}
	}
	return &Registry{templates: templates}
}

// Resolve returns the template for a language, or false when none is
// registered. Callers downgrade a miss to a skipped result; it is never a
// hard failure.
func (r *Registry) Resolve(language string) (Template, bool) {
	tmpl, ok := r.templates[language]
	return tmpl, ok
}

// Languages returns the registered language tags; useful for diagnostics.
func (r *Registry) Languages() []string {
	langs := make([]string, 0, len(r.templates))
	for lang := range r.templates {
		langs = append(langs, lang)
	}
	return langs
}
