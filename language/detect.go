// Package language classifies files for the secondary indexes:
// DetectLanguage labels a path by extension (or, failing that,
// filename) for pathindex/contentsearch facets, and IsBinaryContent
// (binary.go) lets the read path reject binary files cheaply before
// spending a full UTF-8 validation pass on them.
package language

import (
	"path/filepath"
	"strings"
)

// extensionLanguages maps a lowercased extension (without the leading
// dot) to the language name DetectLanguage reports for it.
var extensionLanguages = map[string]string{
	"go": "Go",

	"js": "JavaScript", "jsx": "JavaScript", "mjs": "JavaScript", "cjs": "JavaScript",
	"ts": "TypeScript", "tsx": "TypeScript", "mts": "TypeScript", "cts": "TypeScript",

	"py": "Python", "pyi": "Python", "pyw": "Python",

	"rs": "Rust",

	"java": "Java", "kt": "Kotlin", "kts": "Kotlin",

	"c": "C", "h": "C",
	"cpp": "C++", "cc": "C++", "cxx": "C++", "hpp": "C++", "hxx": "C++",

	"cs": "C#", "csx": "C#",

	"swift": "Swift",
	"dart":  "Dart",

	"rb": "Ruby", "erb": "Ruby",

	"php": "PHP",

	"sh": "Shell", "bash": "Shell", "zsh": "Shell", "fish": "Shell",
	"ps1": "PowerShell", "psm1": "PowerShell", "psd1": "PowerShell",

	"html": "HTML", "htm": "HTML",
	"css": "CSS", "scss": "SCSS", "sass": "Sass", "less": "Less",

	"json": "JSON", "jsonc": "JSON",
	"yaml": "YAML", "yml": "YAML",
	"toml": "TOML",
	"xml":  "XML", "xsl": "XML", "xslt": "XML",
	"ini":        "INI",
	"env":        "Env",
	"properties": "Properties",

	"md":  "Markdown", "mdx": "Markdown",
	"rst": "reStructuredText",
	"tex": "LaTeX",

	"sql": "SQL",

	"graphql": "GraphQL", "gql": "GraphQL",

	"proto": "Protobuf",

	"dockerfile": "Dockerfile",

	"tf": "Terraform", "tfvars": "Terraform",

	"lua": "Lua",

	"r": "R", "rmd": "R",

	"scala": "Scala",

	"ex": "Elixir", "exs": "Elixir",
	"erl": "Erlang", "hrl": "Erlang",

	"hs":  "Haskell",
	"zig": "Zig",

	"vue": "Vue", "svelte": "Svelte",

	"txt":     "Text",
	"csv":     "CSV",
	"svg":     "SVG",
	"bat":     "Batch",
	"cmd":     "Batch",
	"makefile": "Makefile",
	"cmake":   "CMake",
	"gradle":  "Gradle",
}

// extensionlessLanguages covers filenames DetectLanguage recognizes by
// name alone, before looking at the extension: names with no extension,
// names whose extension would give the wrong label (CMakeLists.txt), and
// the leading-dot dotfiles below.
var extensionlessLanguages = map[string]string{
	"makefile":       "Makefile",
	"gnumakefile":    "Makefile",
	"dockerfile":     "Dockerfile",
	"cmakelists.txt": "CMake",
	"gemfile":        "Ruby",
	"rakefile":       "Ruby",
	".gitignore":     "Git Config",
	".gitattributes": "Git Config",
	".env":           "Env",
	".env.local":     "Env",
	".env.example":   "Env",
}

// DetectLanguage reports the language a secondary index should tag
// relativePath with, based on its base name for the well-known files in
// extensionlessLanguages (Makefile, Dockerfile, dotfiles) and otherwise
// on its extension. Returns "Unknown" for anything it can't place.
func DetectLanguage(relativePath string) string {
	if lang, ok := extensionlessLanguages[strings.ToLower(filepath.Base(relativePath))]; ok {
		return lang
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(relativePath), "."))
	if ext == "" {
		return "Unknown"
	}

	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return "Unknown"
}
