package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nao1215/blobscan/internal/signature"
	"github.com/spf13/cobra"
)

// NewCatalogCmd creates the catalog command.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the known file signatures",
		Long: `Catalog lists every signature blobscan searches for, with its magic bytes
in hex and the family it belongs to.`,
		Args: cobra.NoArgs,
		RunE: runCatalogCmd,
	}

	cmd.Flags().StringP("family", "f", "", "Only list signatures of this family (e.g. archive, image, key)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")

	return cmd
}

// catalogEntry is the JSON form of one signature.
type catalogEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Magic       string `json:"magic"`
	Family      string `json:"family"`
}

// runCatalogCmd executes the catalog command.
func runCatalogCmd(cmd *cobra.Command, _ []string) error {
	family, err := cmd.Flags().GetString("family")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	var entries []catalogEntry
	for _, sig := range signature.Catalog() {
		if family != "" && !strings.EqualFold(string(sig.Family), family) {
			continue
		}
		entries = append(entries, catalogEntry{
			Name:        sig.Name,
			Description: sig.Description,
			Magic:       fmt.Sprintf("% X", sig.Magic),
			Family:      string(sig.Family),
		})
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	if len(entries) == 0 {
		return fmt.Errorf("no signatures in family %q", family)
	}
	fmt.Fprintf(out, "%-22s %-34s %-12s %s\n", "NAME", "DESCRIPTION", "FAMILY", "MAGIC")
	for _, e := range entries {
		fmt.Fprintf(out, "%-22s %-34s %-12s %s\n", e.Name, e.Description, e.Family, e.Magic)
	}
	fmt.Fprintf(out, "\n%d signatures\n", len(entries))
	return nil
}
