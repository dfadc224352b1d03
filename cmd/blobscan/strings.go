package main

import (
	"encoding/json"
	"fmt"

	"github.com/nao1215/blobscan/internal/config"
	"github.com/nao1215/blobscan/internal/printable"
	"github.com/spf13/cobra"
)

// NewStringsCmd creates the strings command.
func NewStringsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strings <file>",
		Short: "Extract printable ASCII and UTF-16LE strings",
		Long: `Strings prints runs of printable characters found in a file, with the
byte offset where each run starts and its encoding. Both single-byte ASCII
and UTF-16LE (common in Windows executables and documents) are extracted.

Examples:
  # Strings of at least 4 characters
  blobscan strings malware.exe

  # Longer strings only, at most 50
  blobscan strings --min-length 10 --max 50 memory.dmp

  # Values only, one per line
  blobscan strings --values-only document.doc`,
		Args: cobra.ExactArgs(1),
		RunE: runStringsCmd,
	}

	cmd.Flags().IntP("min-length", "n", config.DefaultMinStringLength, "Shortest run reported")
	cmd.Flags().Int("max", config.DefaultMaxStrings, "Maximum number of strings")
	cmd.Flags().Bool("values-only", false, "Print only the string values")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	addMaxSizeFlag(cmd)

	return cmd
}

// stringResult is the JSON form of one string.
type stringResult struct {
	Value    string `json:"value"`
	Encoding string `json:"encoding"`
	Offset   int    `json:"offset"`
}

// runStringsCmd executes the strings command.
func runStringsCmd(cmd *cobra.Command, args []string) error {
	minLength, err := cmd.Flags().GetInt("min-length")
	if err != nil {
		return err
	}
	maxResults, err := cmd.Flags().GetInt("max")
	if err != nil {
		return err
	}
	valuesOnly, err := cmd.Flags().GetBool("values-only")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	extractor, err := printable.NewExtractor(
		printable.WithMinLength(minLength),
		printable.WithMaxResults(maxResults),
	)
	if err != nil {
		return err
	}

	data, err := readTarget(cmd, args[0])
	if err != nil {
		return err
	}

	strs, err := extractor.Extract(data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		results := make([]stringResult, len(strs))
		for i, s := range strs {
			results[i] = stringResult{Value: s.Value, Encoding: string(s.Encoding), Offset: s.Offset}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	case valuesOnly:
		for _, v := range printable.Values(strs) {
			fmt.Fprintln(out, v)
		}
	default:
		for _, s := range strs {
			fmt.Fprintf(out, "0x%08X  %-8s %s\n", s.Offset, s.Encoding, s.Value)
		}
	}
	return nil
}
