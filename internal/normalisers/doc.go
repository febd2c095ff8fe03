// Package normalisers provides the text extractors that turn uploaded files
// into plain document content. Each extractor handles a set of file
// extensions and is selected through the Registry.
package normalisers
