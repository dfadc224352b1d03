package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/blobscan/internal/config"
	"github.com/nao1215/blobscan/internal/entropy"
	"github.com/nao1215/blobscan/internal/fileinfo"
	"github.com/nao1215/blobscan/internal/metadata"
	"github.com/nao1215/blobscan/internal/model"
	"github.com/nao1215/blobscan/internal/printable"
	"github.com/nao1215/blobscan/internal/signature"
	"github.com/nao1215/blobscan/internal/stego"
)

// Step names, as recorded in report.PerformedSteps and report.StepErrors.
const (
	StepLoad      = "load"
	StepFileInfo  = "file_info"
	StepSignature = "signatures"
	StepEntropy   = "entropy"
	StepStrings   = "strings"
	StepLSB       = "lsb"
	StepMetadata  = "metadata"
	StepAssess    = "assess"
)

// StdinTarget is the target name that reads from standard input.
const StdinTarget = "-"

// LoadStep reads the target into report.Data.
// Reports that already carry data are left untouched, which lets callers
// analyze in-memory buffers with the same pipeline.
type LoadStep struct {
	maxSize int64
	stdin   io.Reader
}

// LoadStepOption configures a LoadStep.
type LoadStepOption func(*LoadStep)

// WithMaxFileSize sets the largest target read into memory.
// Zero means no limit.
func WithMaxFileSize(n int64) LoadStepOption {
	return func(s *LoadStep) {
		s.maxSize = n
	}
}

// WithStdin sets the reader used for the "-" target.
func WithStdin(r io.Reader) LoadStepOption {
	return func(s *LoadStep) {
		s.stdin = r
	}
}

// NewLoadStep creates a new load step.
func NewLoadStep(opts ...LoadStepOption) *LoadStep {
	s := &LoadStep{maxSize: config.DefaultMaxFileSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return StepLoad
}

// Do reads the target. Failure here is fatal for the pipeline.
func (s *LoadStep) Do(_ context.Context, report *model.Report) error {
	if report.Data != nil {
		return nil
	}

	var (
		data []byte
		err  error
	)
	if report.Target == StdinTarget {
		if s.stdin == nil {
			return errors.New("standard input is not available")
		}
		data, err = fileinfo.ReadAll(s.stdin, "stdin", s.maxSize)
	} else {
		data, err = fileinfo.ReadFile(report.Target, s.maxSize)
	}
	if err != nil {
		return err
	}
	report.Data = data
	return nil
}

// FileInfoStep fills report.FileInfo: size, hashes, hex preview, detected
// types, and file system timestamps for targets read from disk.
type FileInfoStep struct{}

// NewFileInfoStep creates a new file information step.
func NewFileInfoStep() *FileInfoStep {
	return &FileInfoStep{}
}

// Name returns the step name.
func (s *FileInfoStep) Name() string {
	return StepFileInfo
}

// Do executes the file information step.
func (s *FileInfoStep) Do(_ context.Context, report *model.Report) error {
	info := fileinfo.Analyze(report.Data)
	if report.Target != StdinTarget {
		ts, err := fileinfo.Timestamps(report.Target)
		if err != nil {
			// in-memory reports have no file behind them
			report.AddStepError(s.Name(), err)
		} else {
			info.Timestamps = ts
		}
	}
	report.FileInfo = &info
	return nil
}

// SignatureStep scans the whole buffer for catalog signatures.
type SignatureStep struct {
	scanner *signature.Scanner
}

// NewSignatureStep creates a new signature step. A nil scanner selects the
// built-in catalog.
func NewSignatureStep(scanner *signature.Scanner) *SignatureStep {
	if scanner == nil {
		scanner = signature.Default()
	}
	return &SignatureStep{scanner: scanner}
}

// Name returns the step name.
func (s *SignatureStep) Name() string {
	return StepSignature
}

// Do executes the signature step.
func (s *SignatureStep) Do(_ context.Context, report *model.Report) error {
	report.Signatures = toSignatureHits(s.scanner.Scan(report.Data))
	return nil
}

// EntropyStep computes global entropy, the block series with its summary,
// high-entropy regions and compressibility.
type EntropyStep struct {
	blockSize       int
	threshold       float64
	skipCompression bool
}

// NewEntropyStep creates a new entropy step.
func NewEntropyStep(blockSize int, threshold float64, skipCompression bool) *EntropyStep {
	return &EntropyStep{
		blockSize:       blockSize,
		threshold:       threshold,
		skipCompression: skipCompression,
	}
}

// Name returns the step name.
func (s *EntropyStep) Name() string {
	return StepEntropy
}

// Do executes the entropy step.
func (s *EntropyStep) Do(_ context.Context, report *model.Report) error {
	series, err := entropy.CalculateSeries(report.Data, s.blockSize)
	if err != nil {
		return err
	}

	section := &model.EntropySection{
		Global:    entropy.Calculate(report.Data),
		BlockSize: s.blockSize,
		Series:    series,
	}

	summary, err := entropy.Summarize(series)
	if err != nil {
		report.AddStepError(s.Name(), err)
	}
	section.Min = summary.Min
	section.Max = summary.Max
	section.Mean = summary.Mean
	section.Median = summary.Median
	section.StdDev = summary.StdDev

	for _, r := range entropy.HighEntropyRegions(series, s.blockSize, len(report.Data), s.threshold) {
		section.HighRegions = append(section.HighRegions, model.ByteRange{
			Start: r.Start,
			End:   r.End,
			Score: r.Mean,
		})
	}

	if !s.skipCompression {
		ratio, err := entropy.Compressibility(report.Data)
		if err != nil {
			report.AddStepError(s.Name(), err)
		} else {
			section.ZstdRatio = ratio.Zstd
			section.LZ4Ratio = ratio.LZ4
		}
	}

	report.Entropy = section
	return nil
}

// StringsStep extracts printable ASCII and UTF-16LE strings.
type StringsStep struct {
	extractor *printable.Extractor
}

// NewStringsStep creates a new strings step.
func NewStringsStep(extractor *printable.Extractor) *StringsStep {
	return &StringsStep{extractor: extractor}
}

// Name returns the step name.
func (s *StringsStep) Name() string {
	return StepStrings
}

// Do executes the strings step.
func (s *StringsStep) Do(_ context.Context, report *model.Report) error {
	strs, err := s.extractor.Extract(report.Data)
	if err != nil {
		report.AddStepError(s.Name(), err)
	}
	report.Strings = toExtractedStrings(strs)
	return nil
}

// lsbPreviewLength is the number of payload bytes shown as hex.
const lsbPreviewLength = 32

// LSBStep decodes the file as an image and recovers the pixel LSB payload.
// Files that are not images are expected; their decode error is recorded
// as a soft step error.
type LSBStep struct {
	decoder   *stego.Decoder
	extractor *printable.Extractor
	logger    *slog.Logger
}

// NewLSBStep creates a new LSB step. Strings found in the payload are
// extracted with extractor.
func NewLSBStep(decoder *stego.Decoder, extractor *printable.Extractor, logger *slog.Logger) *LSBStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LSBStep{decoder: decoder, extractor: extractor, logger: logger}
}

// Name returns the step name.
func (s *LSBStep) Name() string {
	return StepLSB
}

// Do executes the LSB step.
func (s *LSBStep) Do(_ context.Context, report *model.Report) error {
	raster, err := s.decoder.Decode(report.Data)
	if err != nil {
		s.logger.Debug("not decodable as an image", "target", report.Target, "error", err)
		report.AddStepError(s.Name(), err)
		return nil
	}

	payload := stego.ExtractRaster(raster)
	section := &model.LSBSection{
		Width:           raster.Width(),
		Height:          raster.Height(),
		PayloadSize:     len(payload),
		PreviewHex:      fileinfo.HexPreview(payload, lsbPreviewLength),
		PrintablePrefix: printablePrefix(payload),
		Entropy:         entropy.Calculate(payload),
		Signatures:      toSignatureHits(signature.Identify(payload)),
	}

	strs, err := s.extractor.Extract(payload)
	if err != nil {
		report.AddStepError(s.Name(), err)
	}
	section.Strings = toExtractedStrings(strs)

	report.LSB = section
	return nil
}

// printablePrefix returns the length of the leading run of printable
// ASCII bytes in data.
func printablePrefix(data []byte) int {
	for i, b := range data {
		if b < 0x20 || b > 0x7e {
			return i
		}
	}
	return len(data)
}

// MetadataStep extracts image, EXIF and document metadata.
type MetadataStep struct {
	registry *metadata.Registry
}

// NewMetadataStep creates a new metadata step. A nil registry selects
// metadata.DefaultRegistry.
func NewMetadataStep(registry *metadata.Registry) *MetadataStep {
	if registry == nil {
		registry = metadata.DefaultRegistry()
	}
	return &MetadataStep{registry: registry}
}

// Name returns the step name.
func (s *MetadataStep) Name() string {
	return StepMetadata
}

// Do executes the metadata step.
func (s *MetadataStep) Do(_ context.Context, report *model.Report) error {
	meta, err := s.registry.Extract(report.Data)
	if errors.Is(err, metadata.ErrNotThisFormat) {
		return nil
	}
	if err != nil {
		report.AddStepError(s.Name(), err)
		return nil
	}
	report.Metadata = meta
	return nil
}

// DefaultPipeline builds the full analysis pipeline for one target with
// the given settings. load may be nil when every report passed to the
// pipeline already carries its data.
func DefaultPipeline(settings config.Analysis, load *LoadStep, opts ...Option) (*Pipeline, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	extractor, err := printable.NewExtractor(
		printable.WithMinLength(settings.MinStringLength),
		printable.WithMaxResults(settings.MaxStrings),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create string extractor: %w", err)
	}

	p := New(opts...)
	if load != nil {
		p.AddStep(load)
	}
	p.AddSteps(
		NewFileInfoStep(),
		NewSignatureStep(nil),
		NewEntropyStep(settings.BlockSize, settings.EntropyThreshold, settings.SkipCompression),
		NewStringsStep(extractor),
	)

	if !settings.SkipLSB {
		lsbExtractor, err := printable.NewExtractor(
			printable.WithMinLength(settings.MinStringLength),
			printable.WithMaxResults(config.DefaultLSBStrings),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create string extractor: %w", err)
		}
		decoder := stego.NewDecoder(stego.WithMaxPixels(settings.MaxImagePixels))
		p.AddStep(NewLSBStep(decoder, lsbExtractor, p.logger))
	}
	if !settings.SkipMetadata {
		p.AddStep(NewMetadataStep(nil))
	}
	p.AddStep(NewAssessStep(settings.EntropyThreshold))

	return p, nil
}

func toSignatureHits(matches []signature.Match) []model.SignatureHit {
	if len(matches) == 0 {
		return nil
	}
	hits := make([]model.SignatureHit, len(matches))
	for i, m := range matches {
		hits[i] = model.SignatureHit{
			Offset:      m.Offset,
			OffsetHex:   m.OffsetHex(),
			Name:        m.Signature.Name,
			Description: m.Signature.Description,
			Family:      string(m.Signature.Family),
		}
	}
	return hits
}

func toExtractedStrings(strs []printable.String) []model.ExtractedString {
	if len(strs) == 0 {
		return nil
	}
	out := make([]model.ExtractedString, len(strs))
	for i, s := range strs {
		out[i] = model.ExtractedString{
			Value:    s.Value,
			Encoding: string(s.Encoding),
			Offset:   s.Offset,
		}
	}
	return out
}
