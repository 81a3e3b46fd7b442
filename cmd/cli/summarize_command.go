package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pep299/meeting-summarizer/internal/application"
	"github.com/pep299/meeting-summarizer/internal/pdf"
	"github.com/pep299/meeting-summarizer/internal/report"
	"github.com/pep299/meeting-summarizer/internal/summary"
	"github.com/pep299/meeting-summarizer/internal/transcript"
)

func newSummarizeCommand(deps cliDeps) *cobra.Command {
	var (
		format  string
		noClean bool
	)

	cmd := &cobra.Command{
		Use:   "summarize [file]",
		Short: "Summarize a transcript or PDF (reads stdin when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "json", "markdown", "html":
			default:
				return fmt.Errorf("unsupported format %q (want json, markdown or html)", format)
			}

			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return summary.ErrEmptyInput
			}

			cfg, err := deps.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if noClean {
				cfg.NormalizeTranscripts = false
			}

			textGen, err := deps.newTextGenerator(cfg)
			if err != nil {
				return err
			}
			summarizer, err := application.NewSummarizer(cfg, textGen)
			if err != nil {
				return err
			}

			env, err := summarizer.GenerateSummary(cmd.Context(), text)
			if err != nil {
				return err
			}

			return writeEnvelope(cmd.OutOrStdout(), env, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, markdown or html")
	cmd.Flags().BoolVar(&noClean, "no-clean", false, "Send the transcript to the model without cleanup")
	return cmd
}

func newCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [file]",
		Short: "Print the cleaned transcript that would be sent to the model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), transcript.Clean(text))
			return err
		},
	}
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary.JSONSchema())
		},
	}
}

// readInput reads the file named in args, or stdin when there is none or
// it is "-". Files ending in .pdf go through text extraction.
func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	if pdf.IsPDFName(path) {
		text, err := pdf.ExtractText(data)
		if err != nil {
			return "", fmt.Errorf("extract text from %s: %w", path, err)
		}
		return text, nil
	}
	return string(data), nil
}

func writeEnvelope(w io.Writer, env *summary.Envelope, format string) error {
	switch format {
	case "markdown":
		_, err := io.WriteString(w, report.Markdown(env.Summary))
		return err
	case "html":
		out, err := report.HTML(env.Summary)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(env)
	}
}
