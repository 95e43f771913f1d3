// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package exc

const (
	CodeUnknownFatal                  = "P0000"
	CodeFileNotFound                  = "P0001"
	CodeUnsuportedFileSystemOperation = "P0002"
	CodePermissionDenied              = "P0003"
	CodeUnsupportedFileFormat         = "P0004"
	CodeUnexpectedEOF                 = "P0005"
	CodeGrammarSyntax                 = "P0006"
	CodeListingSyntax                 = "P0007"
	CodeConfigSyntax                  = "P0008"
)

// Generation-time analysis failures.
const (
	CodeAmbiguousAction     = "P0100"
	CodeUndeducibleType     = "P0101"
	CodeRecursiveType       = "P0102"
	CodeUndeclaredName      = "P0103"
	CodeUnknownLiteral      = "P0104"
	CodeDirectiveConflict   = "P0105"
	CodeUnsupportedHeader   = "P0106"
	CodeMissingEntryPoint   = "P0107"
	CodeNoLeftRecursiveLead = "P0108"
	CodeInvalidOutput       = "P0109"
)

const (
	CodeEOF = "_EOF_"
)

var (
	defaultNonFatal = map[string]bool{}
)
