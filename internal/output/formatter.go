package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// Formatter renders one model result
type Formatter interface {
	Name() string
	Format(result *domain.ModelResult) ([]byte, error)
}

// FormatterFunc adapts a function to Formatter
type FormatterFunc struct {
	ID string
	F  func(result *domain.ModelResult) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(result *domain.ModelResult) ([]byte, error) {
	return f.F(result)
}

var formatters = map[string]Formatter{}

var formatAliases = map[string]string{
	"verbose":         "console",
	"console-verbose": "console",
	"lite":            "console-lite",
	"md":              "markdown",
	"annual-csv":      "detailed-csv",
}

func register(f Formatter) {
	formatters[f.Name()] = f
}

func init() {
	register(ConsoleFormatter{})
	register(ConsoleVerboseFormatter{})
	register(CSVSummarizer{})
	register(DetailedCSVFormatter{})
	register(JSONFormatter{})
	register(MarkdownFormatter{})
	register(HTMLFormatter{})
}

// NormalizeFormatName lowercases name and resolves aliases
func NormalizeFormatName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if target, ok := formatAliases[name]; ok {
		return target
	}
	return name
}

// GetFormatterByName returns the formatter registered under name or alias,
// nil when there is none
func GetFormatterByName(name string) Formatter {
	return formatters[NormalizeFormatName(name)]
}

// AvailableFormatterNames lists the registered formatter names, sorted
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases lists the accepted aliases, sorted
func AvailableFormatAliases() []string {
	aliases := make([]string, 0, len(formatAliases))
	for alias := range formatAliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// WriteFormatted renders result with f into dir as
// dbmodel_report_<timestamp>.<ext> and returns the path written.
func WriteFormatted(f Formatter, result *domain.ModelResult, dir, ext string) (string, error) {
	data, err := f.Format(result)
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("dbmodel_report_%s.%s", time.Now().UTC().Format("20060102-150405"), ext))
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return filename, nil
}
