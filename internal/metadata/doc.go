// Package metadata extracts container-level properties from files:
// dimensions, colour model and EXIF tags of images, and the document
// information dictionary of PDFs.
//
// Each format is handled by an Extractor. An extractor that does not
// recognize the data returns ErrNotThisFormat so that a Registry can try
// the next one.
package metadata
