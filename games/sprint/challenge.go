package sprint

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Topics offered by the add-challenge form. Any non-empty topic is accepted.
var Topics = []string{
	"Education",
	"Business",
	"Healthcare",
	"Technology",
	"Sustainability",
	"Social Impact",
	"Product Design",
	"Service Design",
	"Custom",
}

// Fields are the five user-supplied parts of a challenge, in the shape used
// by the export file.
type Fields struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Persona     string `json:"persona" yaml:"persona"`
	PainPoint   string `json:"painPoint" yaml:"painPoint"`
	Topic       string `json:"topic" yaml:"topic"`
}

// requiredFields lists the wire names of Fields in validation order.
var requiredFields = []string{"title", "description", "persona", "painPoint", "topic"}

// Trimmed returns f with surrounding whitespace removed from every field.
func (f Fields) Trimmed() Fields {
	return Fields{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Persona:     strings.TrimSpace(f.Persona),
		PainPoint:   strings.TrimSpace(f.PainPoint),
		Topic:       strings.TrimSpace(f.Topic),
	}
}

// Validate reports the first empty field of f.
func (f Fields) Validate() error {
	f = f.Trimmed()

	switch {
	case f.Title == "":
		return invalid("Please enter a challenge title")
	case f.Description == "":
		return invalid("Please enter a challenge description")
	case f.Persona == "":
		return invalid("Please enter a user persona")
	case f.PainPoint == "":
		return invalid("Please enter a pain point")
	case f.Topic == "":
		return invalid("Please select or enter a topic")
	}

	return nil
}

// Challenge is an immutable design prompt. ID is assigned once at creation
// and is the key of the enabled set; Title is unique ignoring case.
type Challenge struct {
	ID uuid.UUID `json:"id"`
	Fields
	BuiltIn bool `json:"builtIn"`
}

func newChallenge(f Fields, builtIn bool) Challenge {
	return Challenge{
		ID:      uuid.New(),
		Fields:  f.Trimmed(),
		BuiltIn: builtIn,
	}
}

func sameTitle(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

//go:embed challenges.yaml
var builtinYAML []byte

type libraryFile struct {
	Challenges []Fields `yaml:"challenges"`
}

// BuiltinChallenges returns the challenges shipped with the game.
func BuiltinChallenges() ([]Fields, error) {
	return parseLibrary(builtinYAML)
}

// LoadLibraryFile reads a YAML challenge list that replaces the built-ins.
func LoadLibraryFile(path string) ([]Fields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read challenge library: %w", err)
	}

	fields, err := parseLibrary(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return fields, nil
}

func parseLibrary(data []byte) ([]Fields, error) {
	var lib libraryFile
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse challenge library: %w", err)
	}

	if len(lib.Challenges) == 0 {
		return nil, errors.New("challenge library is empty")
	}

	out := make([]Fields, 0, len(lib.Challenges))
	for i, f := range lib.Challenges {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("challenge %d: %w", i+1, err)
		}

		f = f.Trimmed()
		for _, prev := range out {
			if sameTitle(prev.Title, f.Title) {
				return nil, fmt.Errorf("challenge %d: duplicate title %q", i+1, f.Title)
			}
		}

		out = append(out, f)
	}

	return out, nil
}
