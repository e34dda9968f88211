package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Keymap maps key names ("ctrl+f", "enter", "a") to editor actions.
type Keymap map[string]string

type EditorOptions struct {
	TabWidth          int    `toml:"tab-width"`
	LineNumbers       string `toml:"line-numbers"`
	MaxHighlightBytes int    `toml:"max-highlight-bytes"`
}

// ViewOptions drive the virtualized viewport. Sizes are in terminal cells.
type ViewOptions struct {
	RowHeight           int `toml:"row-height"`
	CharWidth           int `toml:"char-width"`
	Overscan            int `toml:"overscan"`
	VirtualizeThreshold int `toml:"virtualize-threshold"`
	ScanBudgetMs        int `toml:"scan-budget-ms"`
}

type Theme struct {
	Theme                      string   `toml:"theme"`
	Foreground                 string   `toml:"foreground"`
	Background                 string   `toml:"background"`
	StatuslineForeground       string   `toml:"statusline-foreground"`
	StatuslineBackground       string   `toml:"statusline-background"`
	LineNumberForeground       string   `toml:"line-number-foreground"`
	LineNumberActiveForeground string   `toml:"line-number-active-foreground"`
	SelectionForeground        string   `toml:"selection-foreground"`
	SelectionBackground        string   `toml:"selection-background"`
	FoldForeground             string   `toml:"fold-foreground"`
	ErrorForeground            string   `toml:"error-foreground"`
	SyntaxKeyword              string   `toml:"syntax-keyword"`
	SyntaxString               string   `toml:"syntax-string"`
	SyntaxComment              string   `toml:"syntax-comment"`
	SyntaxType                 string   `toml:"syntax-type"`
	SyntaxFunction             string   `toml:"syntax-function"`
	SyntaxNumber               string   `toml:"syntax-number"`
	SyntaxConstant             string   `toml:"syntax-constant"`
	SyntaxOperator             string   `toml:"syntax-operator"`
	SyntaxPunctuation          string   `toml:"syntax-punctuation"`
	SyntaxField                string   `toml:"syntax-field"`
	SyntaxBuiltin              string   `toml:"syntax-builtin"`
	SyntaxVariable             string   `toml:"syntax-variable"`
	SyntaxParameter            string   `toml:"syntax-parameter"`
	BracketColors              []string `toml:"bracket-colors"`
}

type Config struct {
	Editor EditorOptions `toml:"editor"`
	View   ViewOptions   `toml:"view"`
	Theme  Theme         `toml:"theme"`
	Keymap Keymap        `toml:"keymap"`
}

func Default() Config {
	return Config{
		Editor: EditorOptions{
			TabWidth:          4,
			LineNumbers:       "absolute",
			MaxHighlightBytes: 4 << 20,
		},
		View: ViewOptions{
			RowHeight:           1,
			CharWidth:           1,
			Overscan:            10,
			VirtualizeThreshold: 200,
			ScanBudgetMs:        4,
		},
		Theme: Theme{
			Foreground:                 "#B3B1AD",
			Background:                 "#0A0E14",
			StatuslineForeground:       "#B3B1AD",
			StatuslineBackground:       "#0F1419",
			LineNumberForeground:       "#3E4B59",
			LineNumberActiveForeground: "#B3B1AD",
			SelectionForeground:        "#B3B1AD",
			SelectionBackground:        "#27425A",
			FoldForeground:             "#5C6773",
			ErrorForeground:            "#FF3333",
			SyntaxKeyword:              "#FFA759",
			SyntaxString:               "#BAE67E",
			SyntaxComment:              "#5C6773",
			SyntaxType:                 "#5CCFE6",
			SyntaxFunction:             "#FFD173",
			SyntaxNumber:               "#D4BFFF",
			SyntaxConstant:             "#FFDD8E",
			SyntaxOperator:             "#F29668",
			SyntaxPunctuation:          "#C0C0C0",
			SyntaxField:                "#E6B673",
			SyntaxBuiltin:              "#73D0FF",
			SyntaxVariable:             "#B3B1AD",
			SyntaxParameter:            "#B3B1AD",
			BracketColors:              []string{"#FFD700", "#DA70D6", "#179FFF"},
		},
		Keymap: Keymap{
			"left":      "move_left",
			"right":     "move_right",
			"up":        "move_up",
			"down":      "move_down",
			"home":      "line_start",
			"end":       "line_end",
			"ctrl+home": "file_start",
			"ctrl+end":  "file_end",
			"pgup":      "page_up",
			"pgdn":      "page_down",
			"ctrl+y":    "scroll_up",
			"ctrl+e":    "scroll_down",
			"backspace": "backspace",
			"del":       "delete_char",
			"enter":     "newline",
			"tab":       "indent",
			"ctrl+f":    "toggle_fold",
			"ctrl+r":    "search",
			"ctrl+n":    "search_next",
			"ctrl+s":    "save",
			"ctrl+q":    "quit",
			"ctrl+c":    "quit",
		},
	}
}

func Load() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var userCfg Config
	if _, err := toml.Decode(string(data), &userCfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if userCfg.Editor.TabWidth > 0 {
		cfg.Editor.TabWidth = userCfg.Editor.TabWidth
	}
	if userCfg.Editor.LineNumbers != "" {
		cfg.Editor.LineNumbers = userCfg.Editor.LineNumbers
	}
	if userCfg.Editor.MaxHighlightBytes > 0 {
		cfg.Editor.MaxHighlightBytes = userCfg.Editor.MaxHighlightBytes
	}
	mergeView(&cfg.View, userCfg.View)
	if userCfg.Theme.Theme != "" {
		cfg.Theme.Theme = userCfg.Theme.Theme
	}
	if cfg.Theme.Theme != "" {
		theme, err := LoadTheme(cfg.Theme.Theme)
		if err != nil {
			return cfg, err
		}
		mergeTheme(&cfg.Theme, theme)
	}
	mergeTheme(&cfg.Theme, userCfg.Theme)
	for k, v := range userCfg.Keymap {
		cfg.Keymap[k] = v
	}

	return cfg, nil
}

func mergeView(dst *ViewOptions, src ViewOptions) {
	if src.RowHeight > 0 {
		dst.RowHeight = src.RowHeight
	}
	if src.CharWidth > 0 {
		dst.CharWidth = src.CharWidth
	}
	if src.Overscan > 0 {
		dst.Overscan = src.Overscan
	}
	if src.VirtualizeThreshold > 0 {
		dst.VirtualizeThreshold = src.VirtualizeThreshold
	}
	if src.ScanBudgetMs > 0 {
		dst.ScanBudgetMs = src.ScanBudgetMs
	}
}

func mergeTheme(dst *Theme, src Theme) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&dst.Foreground, src.Foreground)
	set(&dst.Background, src.Background)
	set(&dst.StatuslineForeground, src.StatuslineForeground)
	set(&dst.StatuslineBackground, src.StatuslineBackground)
	set(&dst.LineNumberForeground, src.LineNumberForeground)
	set(&dst.LineNumberActiveForeground, src.LineNumberActiveForeground)
	set(&dst.SelectionForeground, src.SelectionForeground)
	set(&dst.SelectionBackground, src.SelectionBackground)
	set(&dst.FoldForeground, src.FoldForeground)
	set(&dst.ErrorForeground, src.ErrorForeground)
	set(&dst.SyntaxKeyword, src.SyntaxKeyword)
	set(&dst.SyntaxString, src.SyntaxString)
	set(&dst.SyntaxComment, src.SyntaxComment)
	set(&dst.SyntaxType, src.SyntaxType)
	set(&dst.SyntaxFunction, src.SyntaxFunction)
	set(&dst.SyntaxNumber, src.SyntaxNumber)
	set(&dst.SyntaxConstant, src.SyntaxConstant)
	set(&dst.SyntaxOperator, src.SyntaxOperator)
	set(&dst.SyntaxPunctuation, src.SyntaxPunctuation)
	set(&dst.SyntaxField, src.SyntaxField)
	set(&dst.SyntaxBuiltin, src.SyntaxBuiltin)
	set(&dst.SyntaxVariable, src.SyntaxVariable)
	set(&dst.SyntaxParameter, src.SyntaxParameter)
	if len(src.BracketColors) > 0 {
		dst.BracketColors = append([]string(nil), src.BracketColors...)
	}
}

func ThemePath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "theme", name+".toml"), nil
}

// LoadTheme reads a theme file. Both a bare table and one nested under
// [theme] are accepted.
func LoadTheme(name string) (Theme, error) {
	path, err := ThemePath(name)
	if err != nil {
		return Theme{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("load theme %q: %w", name, err)
	}
	var wrap struct {
		Theme *Theme `toml:"theme"`
	}
	if _, err := toml.Decode(string(data), &wrap); err == nil && wrap.Theme != nil {
		return *wrap.Theme, nil
	}
	var t Theme
	if _, err := toml.Decode(string(data), &t); err != nil {
		return Theme{}, fmt.Errorf("parse theme %q: %w", name, err)
	}
	return t, nil
}

func ConfigDir() (string, error) {
	if v := os.Getenv("DOCSYNC_CONFIG_HOME"); v != "" {
		return filepath.Clean(v), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "docsync"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docsync"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
