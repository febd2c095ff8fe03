// Package file provides the TOML-backed configuration store.
//
// Settings live in ~/.libsearch/config.toml by default. Keys are addressed
// in dot notation ("embedding.provider") and written back as TOML tables:
//
//	[embedding]
//	provider = "ollama"
//	model = "all-minilm"
package file
