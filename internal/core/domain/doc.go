// Package domain holds the vectorlite entities and the rules that do not
// depend on storage: documents and their segments, embeddings, queue
// entries with their status machine, groups and search results.
//
// It imports only the standard library. Every other package may import
// domain; domain imports none of them.
package domain
