package drive

import (
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"

	"github.com/driveline/driveline/internal/models"
)

// ZipFolder streams a zip archive of a folder's active subtree to w. Entry
// names are virtual paths relative to the folder; files whose blob has gone
// missing are skipped with a log line rather than failing the archive.
func (s *Service) ZipFolder(ctx context.Context, ownerID, folderID int64, w io.Writer) error {
	folder, err := s.Get(ctx, ownerID, folderID)
	if err != nil {
		return err
	}
	if !folder.IsFolder() {
		return models.ErrNotAFolder
	}

	zw := zip.NewWriter(w)

	type entry struct {
		id     int64
		prefix string
	}
	queue := []entry{{id: folderID}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := s.store.ActiveChildren(ctx, ownerID, &current.id)
		if err != nil {
			return fmt.Errorf("list children of %d: %w", current.id, err)
		}

		for _, child := range children {
			if child.IsFolder() {
				queue = append(queue, entry{id: child.ID, prefix: current.prefix + child.Name + "/"})
				continue
			}

			if err := s.zipFile(zw, current.prefix+child.Name, child); err != nil {
				return err
			}
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}

	s.logger.WithField("folder", folderID).Info("Folder archived")
	return nil
}

func (s *Service) zipFile(zw *zip.Writer, name string, node *models.Node) error {
	rc, err := s.blobs.Open(node.Path)
	if err != nil {
		s.logger.WithError(err).WithField("id", node.ID).Warn("Skipping missing blob in archive")
		return nil
	}
	defer rc.Close()

	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: node.CreatedAt,
	}

	fw, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", name, err)
	}
	if _, err := io.Copy(fw, rc); err != nil {
		return fmt.Errorf("write archive entry %s: %w", name, err)
	}
	return nil
}
