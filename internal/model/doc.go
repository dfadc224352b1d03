// Package model defines the data structures shared by the blobscan packages.
//
// This package contains the following main types:
//   - Report: the result of analyzing one file
//   - Finding: a single assessed observation with a severity
//   - SimpleReport: a summarized, human-readable view of a Report
//   - ValidationError and DecodeError: the error kinds returned by the
//     analysis packages
//
// The analysis packages (entropy, signature, printable, stego, metadata)
// import this package for the error types only. The pipeline converts their
// results into the serializable sections defined here, which are written by
// the report package and stored by the database package.
package model
