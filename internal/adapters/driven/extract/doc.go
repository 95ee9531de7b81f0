// Package extract turns uploaded file bytes into plain text for ingestion.
//
// Each format has its own Extractor. The Registry dispatches on the
// lowercased file extension and returns domain.ErrUnsupportedType for
// anything it does not know; Detect maps sniffed content back to a
// registered type for files without a usable extension. Text formats
// are sniffed first so that a binary file with a text extension is
// rejected rather than indexed.
package extract
