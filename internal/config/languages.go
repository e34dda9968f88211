package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-enry/go-enry/v2"
)

// Language binds file types to a parser grammar.
type Language struct {
	Name      string   `toml:"name"`
	FileTypes []string `toml:"file-types"`
	Grammar   string   `toml:"grammar"`
}

// GrammarName returns the grammar to parse with, defaulting to the name.
func (l Language) GrammarName() string {
	if l.Grammar != "" {
		return l.Grammar
	}
	return l.Name
}

type Languages struct {
	Languages []Language `toml:"language"`
}

func DefaultLanguages() Languages {
	return Languages{Languages: []Language{
		{Name: "go", FileTypes: []string{"go"}},
		{Name: "bash", FileTypes: []string{"sh", "bash", ".bashrc", ".zshrc"}},
		{Name: "yaml", FileTypes: []string{"yaml", "yml"}},
		{Name: "toml", FileTypes: []string{"toml"}},
		{Name: "markdown", FileTypes: []string{"md", "markdown"}},
	}}
}

func (l Languages) Match(path string) *Language {
	base := filepath.Base(path)
	baseLower := strings.ToLower(base)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	for i := range l.Languages {
		lang := &l.Languages[i]
		for _, ft := range lang.FileTypes {
			ftLower := strings.ToLower(ft)
			if ftLower == ext || ftLower == baseLower {
				return lang
			}
			if strings.HasPrefix(ftLower, ".") && strings.TrimPrefix(ftLower, ".") == ext {
				return lang
			}
		}
	}
	return nil
}

// Detect matches path like Match and falls back to the content's shebang,
// so extensionless scripts still get a grammar.
func (l Languages) Detect(path string, content []byte) *Language {
	if lang := l.Match(path); lang != nil {
		return lang
	}
	name, safe := enry.GetLanguageByShebang(content)
	if !safe || name == "" {
		return nil
	}
	return l.byName(enryName(name))
}

func (l Languages) byName(name string) *Language {
	for i := range l.Languages {
		if strings.EqualFold(l.Languages[i].Name, name) || strings.EqualFold(l.Languages[i].GrammarName(), name) {
			return &l.Languages[i]
		}
	}
	return nil
}

// enryName maps go-enry language names onto grammar names.
func enryName(name string) string {
	if name == "Shell" {
		return "bash"
	}
	return strings.ToLower(name)
}

// LoadLanguages reads languages.toml. User entries take precedence over
// the built-in ones, which are used alone when the file is absent.
func LoadLanguages() (Languages, error) {
	defaults := DefaultLanguages()
	path, err := LanguagesPath()
	if err != nil {
		return defaults, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return defaults, err
	}

	var cfg Languages
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return defaults, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Languages = append(cfg.Languages, defaults.Languages...)
	return cfg, nil
}

func LanguagesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "languages.toml"), nil
}
