package drive

import (
	"context"
	"strings"

	"github.com/driveline/driveline/internal/models"
)

// Renaming a node rewrites its recorded path and, for folders, cascades the
// prefix change through every active descendant. Metadata is only committed
// after the physical move succeeded or was confirmed unnecessary.
//
// Like folder creation the target name must be non-blank, but no check is
// made against an existing active sibling of the same name.
func (s *Service) Rename(ctx context.Context, ownerID, nodeID int64, newName string) (*models.Node, error) {
	if strings.TrimSpace(newName) == "" {
		return nil, models.ErrInvalidName
	}

	node, err := s.Get(ctx, ownerID, nodeID)
	if err != nil {
		return nil, err
	}

	if node.Name == newName {
		return node, nil
	}

	s.logger.WithFields(map[string]interface{}{
		"id":   nodeID,
		"from": node.Name,
		"to":   newName,
	}).Info("Renaming node")

	suffix := node.PathSuffix()

	oldBase, err := s.buildPath(ctx, node.ParentID, node.Name)
	if err != nil {
		return nil, err
	}
	oldBase += suffix

	newBase, err := s.buildPath(ctx, node.ParentID, newName)
	if err != nil {
		return nil, err
	}
	newBase += suffix

	oldFull := node.Path
	newFull := newBase

	// Move the backing blob or directory. A physically absent source is
	// skipped so the metadata rename still proceeds; a failed move of an
	// existing source aborts with the metadata untouched.
	exists, err := s.blobs.Exists(oldFull)
	if err != nil {
		return nil, models.NewPhysicalError(models.OpMove, oldFull, err)
	}
	if exists {
		if err := s.blobs.Move(oldFull, newFull); err != nil {
			return nil, models.NewPhysicalError(models.OpMove, oldFull, err)
		}
		s.logger.WithFields(map[string]interface{}{
			"old": oldFull,
			"new": newFull,
		}).Info("Moved backing path")
	} else {
		s.logger.WithField("path", oldFull).Warn("Source missing on disk, renaming metadata only")
	}

	node.Name = newName
	node.Path = newFull
	if err := s.store.Update(ctx, node); err != nil {
		return nil, err
	}

	if node.IsFolder() {
		if err := s.cascadePaths(ctx, ownerID, nodeID, oldBase, newBase); err != nil {
			return nil, err
		}
	}

	s.logger.WithField("id", nodeID).Info("Rename successful")
	return node, nil
}

// cascadePaths rewrites the recorded path of every active descendant whose
// path starts with oldBase, preserving the remainder verbatim. Descendants
// outside the expected prefix are left untouched.
func (s *Service) cascadePaths(ctx context.Context, ownerID, folderID int64, oldBase, newBase string) error {
	descendants, err := s.Descendants(ctx, ownerID, folderID)
	if err != nil {
		return err
	}

	updated := 0
	for _, desc := range descendants {
		if !strings.HasPrefix(desc.Path, oldBase) {
			s.logger.WithFields(map[string]interface{}{
				"id":   desc.ID,
				"path": desc.Path,
			}).Warn("Descendant path outside renamed prefix, leaving untouched")
			continue
		}

		desc.Path = newBase + desc.Path[len(oldBase):]
		if err := s.store.Update(ctx, desc); err != nil {
			return err
		}
		updated++
	}

	s.logger.WithFields(map[string]interface{}{
		"folder":  folderID,
		"updated": updated,
	}).Info("Updated descendant paths")
	return nil
}
