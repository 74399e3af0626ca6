package drive

import "github.com/driveline/driveline/internal/models"

// annotateLost checks a non-deleted node's recorded path against the blob
// store and sets the ephemeral Lost flag when nothing is there. Listings only
// annotate; direct single-node access (Get) escalates the same discovery to
// an authoritative soft-delete instead.
func (s *Service) annotateLost(node *models.Node) {
	if node.Deleted {
		return
	}

	exists, err := s.blobs.Exists(node.Path)
	if err != nil {
		s.logger.WithError(err).WithField("id", node.ID).Warn("Existence check failed")
		node.Lost = true
		return
	}
	if !exists {
		s.logger.WithField("id", node.ID).Warn("Blob missing on disk, marking as lost")
		node.Lost = true
	}
}
