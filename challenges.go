package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Seednode/designsprint/games/sprint"
	"github.com/spf13/cobra"
)

// validateChallenges checks an export file the way the import dialog does
// and reports how it would merge into the configured library.
func validateChallenges(cfg *Config, w io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if err := sprint.CheckFile(filepath.Base(path), info.Size()); err != nil {
		return err
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fields, err := sprint.ParseDocument(body)
	if err != nil {
		return err
	}

	lib, err := sprint.NewLibrary(cfg.builtin)
	if err != nil {
		return err
	}

	preview := lib.Preview(fields)

	for _, e := range preview.Entries {
		note := ""
		switch {
		case e.Duplicate:
			note = "  (duplicate, would be skipped)"
		case e.SimilarTo != "":
			note = fmt.Sprintf("  (similar to %q)", e.SimilarTo)
		}
		fmt.Fprintf(w, "  - %s [%s]%s\n", e.Title, e.Topic, note)
	}

	fmt.Fprintf(w, "%s: %d valid, %d duplicate\n", path, len(preview.Entries), preview.Duplicates())

	return nil
}

func newChallengesCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenges",
		Short: "Work with challenge export files.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check a challenge export file before importing it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateChallenges(cfg, cmd.OutOrStdout(), args[0])
		},
	})

	return cmd
}
