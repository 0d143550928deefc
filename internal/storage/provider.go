// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/granola-sync/internal/models"

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// Exists reports whether a file or folder exists at path.
	Exists(path string) (bool, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent folders.
	Write(path string, content []byte) error
	// CreateFolder creates the folder at path and any missing parents.
	CreateFolder(path string) error
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.FileInfo, error)
}
