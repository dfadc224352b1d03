// Package signature locates known file formats inside byte buffers by
// their magic bytes.
//
// The built-in catalog is a static table shared by every Scanner and
// never modified after start-up. Scan reports every occurrence at every
// offset, including overlapping ones, so an archive inside an image or an
// executable appended to a document is found wherever it starts.
package signature
