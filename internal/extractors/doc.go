// Package extractors turns raw document bytes into plain text.
//
// Each sub-package implements driven.Extractor for one family of formats.
// Registry is the MIME-keyed lookup table the ingestion coordinator calls;
// when several extractors claim a type the highest priority wins.
//
// Extractors are registered at startup by NewDefaultRegistry.
package extractors
