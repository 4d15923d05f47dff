// Package remote models the cloud file-tree service the mirror reads from.
package remote

import (
	"context"
	"io"
	"strings"
)

// FolderMimeType is the content type the service reports for folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// Node is one entry (file or folder) reported by a listing call.
// Size is 0 when the service reports none (native document types).
type Node struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
}

// IsFolder reports whether the node is a folder.
func (n Node) IsFolder() bool {
	return n.MimeType == FolderMimeType
}

// Service is the capability surface the mirror needs from the remote
// file-tree service. Implementations must request shared/team-drive
// visibility so folders not owned by the caller are still listed.
type Service interface {
	// ListChildren returns the direct children of a folder, in whatever
	// order the service reports them.
	ListChildren(ctx context.Context, folderID string) ([]Node, error)

	// FileSize returns the remote byte size of a file. A node the service
	// reports no size for yields 0, not an error.
	FileSize(ctx context.Context, fileID string) (int64, error)

	// Download opens the media stream for a file.
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// FolderIDFromURL extracts a folder ID from a shareable URL by taking the
// final path segment. A bare ID passes through unchanged.
func FolderIDFromURL(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}
