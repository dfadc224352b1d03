// Package pipeline runs the analysis of a file as a sequence of steps.
//
// Each step receives the report built so far and adds its section: file
// information and hashes, signature hits, entropy, strings, the pixel LSB
// payload, format metadata, and finally the assessed findings. A step that
// cannot apply to the file (an LSB step on a PDF, say) records a soft error
// on the report and lets the rest of the pipeline run.
//
// BatchProcessor analyzes many files concurrently with errgroup, one fresh
// pipeline per file, and returns the reports in input order.
package pipeline
