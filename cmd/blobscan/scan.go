package main

import (
	"encoding/json"
	"fmt"

	"github.com/nao1215/blobscan/internal/signature"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Find known file signatures at every offset",
		Long: `Scan searches a file for the magic numbers of known formats at every byte
offset. Overlapping matches are all reported, ordered by offset.

A signature at offset 0 identifies the file itself; signatures further in
point at embedded or appended files. Short magic numbers (for example "MZ")
also occur by chance in large files.

Examples:
  # All signatures in a file
  blobscan scan holiday.jpg

  # Only identify the file type
  blobscan scan --identify unknown.bin

  # JSON output
  blobscan scan --json holiday.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCmd,
	}

	cmd.Flags().BoolP("identify", "i", false, "Only report signatures at offset 0")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	addMaxSizeFlag(cmd)

	return cmd
}

// signatureResult is the JSON form of one match.
type signatureResult struct {
	Offset      int    `json:"offset"`
	OffsetHex   string `json:"offset_hex"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Family      string `json:"family"`
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	identify, err := cmd.Flags().GetBool("identify")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	data, err := readTarget(cmd, args[0])
	if err != nil {
		return err
	}

	var matches []signature.Match
	if identify {
		matches = signature.Identify(data)
	} else {
		matches = signature.Scan(data)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		results := make([]signatureResult, len(matches))
		for i, m := range matches {
			results[i] = signatureResult{
				Offset:      m.Offset,
				OffsetHex:   m.OffsetHex(),
				Name:        m.Signature.Name,
				Description: m.Signature.Description,
				Family:      string(m.Signature.Family),
			}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	if len(matches) == 0 {
		fmt.Fprintln(out, "No signatures found.")
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(out, "%s  %-22s %-34s %s\n", m.OffsetHex(), m.Signature.Name, m.Signature.Description, m.Signature.Family)
	}
	return nil
}
