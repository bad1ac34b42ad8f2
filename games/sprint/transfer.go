package sprint

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	// SchemaVersion is the only export version the importer accepts.
	SchemaVersion = "1.0"

	// MaxImportSize is the largest import file accepted, in bytes.
	MaxImportSize = 5 * 1024 * 1024

	isoMillis = "2006-01-02T15:04:05.000Z"
)

// Document is the on-disk shape of a challenge export.
type Document struct {
	Version    string   `json:"version"`
	ExportDate string   `json:"exportDate"`
	Challenges []Fields `json:"challenges"`
}

// Export renders the custom challenges as a downloadable JSON document.
func (l *Library) Export(now time.Time) (string, []byte, error) {
	if len(l.custom) == 0 {
		return "", nil, invalid("No custom challenges to export. Please add some challenges first.")
	}

	doc := Document{
		Version:    SchemaVersion,
		ExportDate: now.UTC().Format(isoMillis),
		Challenges: make([]Fields, 0, len(l.custom)),
	}
	for _, c := range l.custom {
		doc.Challenges = append(doc.Challenges, c.Fields)
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", nil, Internal(fmt.Errorf("encode export: %w", err))
	}

	return "ideo-challenges-" + now.UTC().Format("2006-01-02") + ".json", body, nil
}

// CheckFile applies the intake guardrails that run before a file is read.
func CheckFile(name string, size int64) error {
	if !strings.HasSuffix(name, ".json") {
		return newNotice(KindFile, "Please select a valid JSON file (.json extension required).")
	}

	if size > MaxImportSize {
		return newNotice(KindFile, "File is too large. Please select a file smaller than 5MB.")
	}

	return nil
}

// ParseDocument decodes and structurally validates an import file. Every
// offending field is reported at once; nothing is returned unless the whole
// document is valid.
func ParseDocument(body []byte) ([]Fields, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, newNotice(KindFile, "Invalid JSON format. Please check that your file contains valid JSON data.")
		}

		return nil, newNotice(KindFile, "Failed to process file. Please check the file format and try again.")
	}

	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, invalidFile("Invalid JSON structure")
	}

	if version, _ := doc["version"].(string); version != SchemaVersion {
		return nil, invalidFile("Invalid or missing version. Expected version %s", SchemaVersion)
	}

	list, ok := doc["challenges"].([]any)
	if !ok {
		return nil, invalidFile("Missing or invalid challenges array")
	}
	if len(list) == 0 {
		return nil, invalidFile("No challenges found in the file")
	}

	var problems []FieldError
	out := make([]Fields, 0, len(list))

	for i, item := range list {
		record, _ := item.(map[string]any)

		values := make(map[string]string, len(requiredFields))
		for _, name := range requiredFields {
			s, ok := record[name].(string)
			if !ok || strings.TrimSpace(s) == "" {
				problems = append(problems, FieldError{
					Index:   i + 1,
					Field:   name,
					Message: fmt.Sprintf("missing or invalid %q", name),
				})
				continue
			}
			values[name] = s
		}

		out = append(out, Fields{
			Title:       values["title"],
			Description: values["description"],
			Persona:     values["persona"],
			PainPoint:   values["painPoint"],
			Topic:       values["topic"],
		}.Trimmed())
	}

	if len(problems) > 0 {
		return nil, fieldNotice("Invalid JSON file: Some challenges are missing required fields:", problems)
	}

	return out, nil
}

func invalidFile(format string, args ...any) *Notice {
	return newNotice(KindFile, "Invalid JSON file: "+format, args...)
}

// PreviewEntry is one parsed challenge awaiting confirmation.
type PreviewEntry struct {
	Fields

	// Duplicate entries are skipped on confirm.
	Duplicate bool `json:"duplicate"`

	// SimilarTo names an existing title that is a near miss. Advisory only.
	SimilarTo string `json:"similarTo,omitempty"`
}

// Preview holds a validated import until it is confirmed or canceled.
type Preview struct {
	Entries []PreviewEntry `json:"entries"`
}

func (p *Preview) Duplicates() int {
	n := 0
	for _, e := range p.Entries {
		if e.Duplicate {
			n++
		}
	}

	return n
}

// Preview flags each parsed entry against the current library. An entry
// whose title repeats an earlier entry of the same file is also a duplicate.
func (l *Library) Preview(fields []Fields) *Preview {
	p := &Preview{Entries: make([]PreviewEntry, 0, len(fields))}

	for i, f := range fields {
		e := PreviewEntry{Fields: f}

		if _, ok := l.findTitle(f.Title); ok {
			e.Duplicate = true
		}
		for _, prev := range fields[:i] {
			if sameTitle(prev.Title, f.Title) {
				e.Duplicate = true
				break
			}
		}
		if !e.Duplicate {
			e.SimilarTo = l.similarTitle(f.Title)
		}

		p.Entries = append(p.Entries, e)
	}

	return p
}

const (
	similarMinRunes   = 8
	similarMaxChanges = 2
)

func (l *Library) similarTitle(title string) string {
	if utf8.RuneCountInString(title) < similarMinRunes {
		return ""
	}

	needle := strings.ToLower(title)
	for _, c := range l.All() {
		if utf8.RuneCountInString(c.Title) < similarMinRunes {
			continue
		}
		if levenshtein.ComputeDistance(needle, strings.ToLower(c.Title)) <= similarMaxChanges {
			return c.Title
		}
	}

	return ""
}

// ImportResult reports the outcome of a confirmed import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

func (r ImportResult) Message() string {
	msg := fmt.Sprintf("Successfully imported %d challenge%s", r.Imported, plural(r.Imported))
	if r.Skipped > 0 {
		msg += fmt.Sprintf("\n%d duplicate%s skipped", r.Skipped, plural(r.Skipped))
	}

	return msg
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Merge appends every entry whose title is still free. Titles are checked
// again here so that a challenge added after the preview was built is
// never duplicated.
func (l *Library) Merge(p *Preview) ImportResult {
	var res ImportResult

	for _, e := range p.Entries {
		if _, taken := l.findTitle(e.Title); taken || e.Fields.Validate() != nil {
			res.Skipped++
			continue
		}

		l.insert(e.Fields)
		res.Imported++
	}

	return res
}
