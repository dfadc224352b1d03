package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/nao1215/blobscan/internal/config"
	"github.com/nao1215/blobscan/internal/model"
	"github.com/nao1215/blobscan/internal/pipeline"
	"github.com/nao1215/blobscan/internal/signature"
	"github.com/nao1215/blobscan/internal/stego"
	"github.com/spf13/cobra"
)

// Payload output formats for lsb extract.
const (
	formatHex    = "hex"
	formatBase64 = "base64"
	formatRaw    = "raw"
)

// errRawToTerminal is returned when raw output would go to stdout without -o.
var errRawToTerminal = errors.New("raw output requires --output (use --format hex or base64 for stdout)")

// NewLSBCmd creates the lsb command group.
func NewLSBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsb",
		Short: "Extract or embed data in image pixel LSBs",
		Long: `LSB commands work with data stored in the least-significant bits of image
pixels. Pixels are read row by row, left to right, and the lowest bit of the
red, green and blue channel of each pixel is collected, most significant bit
first, 8 bits per byte.`,
	}

	cmd.AddCommand(newLSBExtractCmd())
	cmd.AddCommand(newLSBEmbedCmd())
	cmd.AddCommand(newLSBCapacityCmd())

	return cmd
}

func newLSBExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Recover the LSB payload of an image",
		Long: `Extract decodes an image (PNG, JPEG, GIF, BMP, TIFF or WebP) and recovers the
bytes stored in its pixel LSBs. Natural images yield random-looking bytes;
a payload that starts with a file signature or readable text was put there.

Examples:
  # Hex dump of the payload
  blobscan lsb extract suspicious.png

  # Save the payload to a file
  blobscan lsb extract -o payload.bin suspicious.png

  # First 64 bytes as base64
  blobscan lsb extract --format base64 --length 64 suspicious.png`,
		Args: cobra.ExactArgs(1),
		RunE: runLSBExtractCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Write the payload to this file")
	cmd.Flags().StringP("format", "f", formatHex, "Output format: hex, base64 or raw")
	cmd.Flags().IntP("length", "l", 0, "Only output the first N bytes (0 for all)")
	cmd.Flags().Int("max-pixels", config.DefaultMaxImagePixels, "Largest image decoded, in pixels (0 for no limit)")
	addMaxSizeFlag(cmd)

	return cmd
}

// runLSBExtractCmd executes the lsb extract command.
func runLSBExtractCmd(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	length, err := cmd.Flags().GetInt("length")
	if err != nil {
		return err
	}
	maxPixels, err := cmd.Flags().GetInt("max-pixels")
	if err != nil {
		return err
	}

	format = strings.ToLower(format)
	switch format {
	case formatHex, formatBase64:
	case formatRaw:
		if output == "" {
			return errRawToTerminal
		}
	default:
		return model.NewValidationError("format", format, "must be hex, base64 or raw")
	}
	if length < 0 {
		return model.NewValidationError("length", length, "must not be negative")
	}

	data, err := readTarget(cmd, args[0])
	if err != nil {
		return err
	}

	payload, err := stego.NewDecoder(stego.WithMaxPixels(maxPixels)).Extract(data)
	if err != nil {
		return err
	}
	if length > 0 && length < len(payload) {
		payload = payload[:length]
	}

	if matches := signature.Identify(payload); len(matches) > 0 {
		newLogger(cmd).Warn("payload starts with a file signature",
			"signature", matches[0].Signature.Description)
	}

	var encoded []byte
	switch format {
	case formatHex:
		encoded = []byte(hex.Dump(payload))
	case formatBase64:
		encoded = []byte(base64.StdEncoding.EncodeToString(payload) + "\n")
	default:
		encoded = payload
	}

	if err := writeOutput(cmd.OutOrStdout(), output, encoded); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(encoded), output)
	}
	return nil
}

func newLSBEmbedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed <image> <payload>",
		Short: "Hide a file in the pixel LSBs of an image",
		Long: `Embed writes a payload into the pixel LSBs of an image and saves the result
as PNG. The payload is written from the first pixel on, in the order that
'lsb extract' reads it. Bits after the payload keep their original values.

The image must have at least 8 * len(payload) / 3 pixels; see 'lsb capacity'.

Examples:
  blobscan lsb embed -o out.png cover.png secret.zip`,
		Args: cobra.ExactArgs(2),
		RunE: runLSBEmbedCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Output PNG path (required)")
	_ = cmd.MarkFlagRequired("output") //nolint:errcheck // flag is defined above
	addMaxSizeFlag(cmd)

	return cmd
}

// runLSBEmbedCmd executes the lsb embed command.
func runLSBEmbedCmd(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	if args[0] == pipeline.StdinTarget && args[1] == pipeline.StdinTarget {
		return errStdinTwice
	}

	imageData, err := readTarget(cmd, args[0])
	if err != nil {
		return err
	}
	img, err := stego.DecodeImage(imageData)
	if err != nil {
		return model.NewDecodeError("image", err)
	}

	payload, err := readTarget(cmd, args[1])
	if err != nil {
		return err
	}

	stegoImage, err := stego.Embed(img, payload)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, stegoImage); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := writeOutput(cmd.OutOrStdout(), output, buf.Bytes()); err != nil {
		return err
	}

	b := img.Bounds()
	fmt.Fprintf(cmd.OutOrStdout(), "Embedded %d of %d bytes into %s\n",
		len(payload), stego.Capacity(b.Dx(), b.Dy()), output)
	return nil
}

func newLSBCapacityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capacity <image>",
		Short: "Print how many bytes fit in the pixel LSBs of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readTarget(cmd, args[0])
			if err != nil {
				return err
			}
			cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
			if err != nil {
				return model.NewDecodeError("image", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%dx%d: %d bytes\n",
				cfg.Width, cfg.Height, stego.Capacity(cfg.Width, cfg.Height))
			return nil
		},
	}
	addMaxSizeFlag(cmd)

	return cmd
}
