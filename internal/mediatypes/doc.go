// Package mediatypes provides shared file type definitions for the wizard
// server and CLI.
//
// This package exists as a dependency-free foundation that can be imported by other
// packages without creating import cycles. It contains primitive types, constants,
// and pure utility functions with no external dependencies beyond the standard library.
//
// # Extension Detection
//
// Use GetFileType to classify an upload based on its extension:
//
//	ext := strings.ToLower(filepath.Ext(filename))
//	if mediatypes.GetFileType(ext) == mediatypes.FileTypeVideo {
//	    // decodable container
//	}
//
// # MIME Types
//
// Use GetMimeType to get the Content-Type for streamed sources:
//
//	mimeType := mediatypes.GetMimeType(".webm") // "video/webm"
package mediatypes
