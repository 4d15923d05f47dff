package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const listPageSize = 1000

// DriveService implements Service on the Google Drive v3 API.
type DriveService struct {
	svc *drive.Service
}

// NewDrive builds a DriveService from an authenticated HTTP client. The
// client is reused for every call in the session.
func NewDrive(ctx context.Context, client *http.Client) (*DriveService, error) {
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DriveService{svc: svc}, nil
}

// ListChildren lists the direct, non-trashed children of a folder, paging
// through the full result set. Shared-drive items are included so folders
// the caller does not own remain visible.
func (d *DriveService) ListChildren(ctx context.Context, folderID string) ([]Node, error) {
	var nodes []Node
	pageToken := ""
	for {
		call := d.svc.Files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed = false", folderID)).
			Fields("nextPageToken, files(id, name, mimeType, size)").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			PageSize(listPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list children of %s: %w", folderID, err)
		}

		for _, f := range res.Files {
			nodes = append(nodes, Node{
				ID:       f.Id,
				Name:     f.Name,
				MimeType: f.MimeType,
				Size:     f.Size,
			})
		}

		if res.NextPageToken == "" {
			return nodes, nil
		}
		pageToken = res.NextPageToken
	}
}

// FileSize probes the size field of a file's metadata. Native document
// types report no size; the API surfaces that as 0.
func (d *DriveService) FileSize(ctx context.Context, fileID string) (int64, error) {
	f, err := d.svc.Files.Get(fileID).
		Fields("size").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("get metadata for %s: %w", fileID, err)
	}
	return f.Size, nil
}

// Download opens the media stream for a file.
func (d *DriveService) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := d.svc.Files.Get(fileID).
		SupportsAllDrives(true).
		Context(ctx).
		Download()
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileID, err)
	}
	return resp.Body, nil
}
