package remote

import "testing"

func TestFolderIDFromURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1AbCdEfGhIjKl", "1AbCdEfGhIjKl"},
		{"https://drive.google.com/drive/folders/1AbCdEfGhIjKl", "1AbCdEfGhIjKl"},
		{"https://drive.google.com/drive/folders/1AbCdEfGhIjKl/", "1AbCdEfGhIjKl"},
		{"https://drive.google.com/drive/folders/1AbCdEfGhIjKl?usp=sharing", "1AbCdEfGhIjKl"},
		{"https://drive.google.com/drive/u/0/folders/1AbCdEfGhIjKl#top", "1AbCdEfGhIjKl"},
		{"  1AbCdEfGhIjKl  ", "1AbCdEfGhIjKl"},
	}

	for _, c := range cases {
		if got := FolderIDFromURL(c.in); got != c.want {
			t.Errorf("FolderIDFromURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNode_IsFolder(t *testing.T) {
	if !(Node{MimeType: FolderMimeType}).IsFolder() {
		t.Error("folder mime type not classified as folder")
	}
	if (Node{MimeType: "application/octet-stream"}).IsFolder() {
		t.Error("file mime type classified as folder")
	}
	if (Node{}).IsFolder() {
		t.Error("empty mime type classified as folder")
	}
}
