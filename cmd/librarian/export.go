package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aoideee/libraryhub/internal/config"
	"github.com/aoideee/libraryhub/internal/data"
)

// librarySnapshot is everything the store holds, under one value.
type librarySnapshot struct {
	*data.Document
	Feedback       []*data.Feedback      `json:"feedback"`
	ResearchPapers []*data.ResearchPaper `json:"researchPapers"`
}

func newExportCmd(s *session) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every collection as JSON or YAML",
		Long: `Export the repaired library document and the side collections.

Examples:
  librarian export > library.json
  librarian export --format yaml --output backup/library.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := s.store.Snapshot(ctx)
			if err != nil {
				return err
			}
			feedback, err := s.models.Feedback.GetAll(ctx)
			if err != nil {
				return err
			}
			papers, err := s.models.Research.GetAll(ctx)
			if err != nil {
				return err
			}
			snap := librarySnapshot{Document: doc, Feedback: feedback, ResearchPapers: papers}

			var buf bytes.Buffer
			if err := encodeSnapshot(&buf, format, snap); err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := writeFileAtomic(output, buf.Bytes()); err != nil {
				return err
			}
			ok(cmd.ErrOrStderr(), "exported to %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json|yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

// encodeSnapshot writes snap in format. YAML goes through a JSON round trip
// so keys keep their camelCase API names.
func encodeSnapshot(w io.Writer, format string, snap librarySnapshot) error {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	switch format {
	case "json":
		_, err := w.Write(append(raw, '\n'))
		return err
	case "yaml", "yml":
		var generic map[string]any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

// writeFileAtomic writes to a temp file beside path and renames it into place.
func writeFileAtomic(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".librarian-export-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func newConfigCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML (secrets masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.WriteYAML(cmd.OutOrStdout(), s.cfg)
		},
	}
}
