// Package storage defines the corpus file-system abstraction.
package storage

// FileMeta describes one corpus file selected by the include/exclude globs.
type FileMeta struct {
	// Path is slash-separated and relative to the corpus root.
	Path string
	Size int64
}

// Provider is the interface for corpus file operations.
type Provider interface {
	// List returns every file under the root that matches the include globs
	// and none of the exclude globs, sorted by path.
	List() ([]FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Exists reports whether path names a file or directory inside the root.
	Exists(path string) bool
	// IsFile reports whether path names a regular file inside the root.
	IsFile(path string) bool
	// Selected reports whether path passes the include and exclude globs.
	Selected(path string) bool
	// Root returns the absolute corpus root.
	Root() string
}
