// Package drive implements the hierarchy engine: folder/file lifecycle,
// rename cascades, quota bookkeeping and drift detection.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/driveline/driveline/internal/events"
	"github.com/driveline/driveline/internal/index"
	"github.com/driveline/driveline/internal/models"
	"github.com/driveline/driveline/internal/storage"
)

// Service coordinates the metadata index, the quota ledger and the physical
// blob store. Every operation takes the caller's owner id explicitly.
type Service struct {
	store  index.Store
	blobs  storage.BlobStore
	logger *events.Logger
}

// NewService creates a drive service.
func NewService(store index.Store, blobs storage.BlobStore, logger *events.Logger) *Service {
	return &Service{
		store:  store,
		blobs:  blobs,
		logger: logger.WithField("service", "drive"),
	}
}

// CreateFolder creates a folder under parentID (nil for root). The name must
// not collide with an active sibling.
func (s *Service) CreateFolder(ctx context.Context, ownerID int64, name string, parentID *int64) (*models.Node, error) {
	if strings.TrimSpace(name) == "" {
		return nil, models.ErrInvalidName
	}

	s.logger.WithFields(map[string]interface{}{
		"owner":  ownerID,
		"name":   name,
		"parent": parentID,
	}).Info("Creating folder")

	if _, err := s.store.ActiveByName(ctx, ownerID, parentID, name); err == nil {
		return nil, models.ErrDuplicateName
	} else if !errors.Is(err, models.ErrNodeNotFound) {
		return nil, fmt.Errorf("check sibling name: %w", err)
	}

	fullPath, err := s.buildPath(ctx, parentID, name)
	if err != nil {
		return nil, err
	}

	// Idempotent: an already-present directory is fine.
	if err := s.blobs.EnsureDir(fullPath); err != nil {
		return nil, models.NewPhysicalError(models.OpMkdir, fullPath, err)
	}

	folder := &models.Node{
		OwnerID:  ownerID,
		ParentID: parentID,
		Name:     name,
		Path:     fullPath + "/",
		Kind:     models.KindFolder,
	}

	if err := s.store.Insert(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.WithField("id", folder.ID).Info("Folder created")
	return folder, nil
}

// Upload stores a new file. The quota is reserved before any physical write;
// any failure after the reservation releases it again before propagating.
func (s *Service) Upload(ctx context.Context, ownerID int64, r io.Reader, sizeBytes int64, originalName, mimeType string, parentID *int64) (*models.Node, error) {
	if strings.TrimSpace(originalName) == "" {
		return nil, models.ErrInvalidName
	}

	s.logger.WithFields(map[string]interface{}{
		"owner":  ownerID,
		"name":   originalName,
		"size":   sizeBytes,
		"parent": parentID,
	}).Info("Uploading file")

	if err := s.store.Reserve(ctx, sizeBytes); err != nil {
		return nil, err
	}

	node, err := s.uploadReserved(ctx, ownerID, r, sizeBytes, originalName, mimeType, parentID)
	if err != nil {
		if relErr := s.store.Release(ctx, sizeBytes); relErr != nil {
			s.logger.WithError(relErr).Error("Failed to release reservation after upload failure")
		}
		return nil, err
	}

	s.logger.WithField("id", node.ID).Info("Upload successful")
	return node, nil
}

func (s *Service) uploadReserved(ctx context.Context, ownerID int64, r io.Reader, sizeBytes int64, originalName, mimeType string, parentID *int64) (*models.Node, error) {
	dirPath, err := s.buildPath(ctx, parentID, "")
	if err != nil {
		return nil, err
	}

	if dirPath != "" {
		if err := s.blobs.EnsureDir(dirPath); err != nil {
			return nil, models.NewPhysicalError(models.OpMkdir, dirPath, err)
		}
	}

	// Opaque globally-unique blob key, preserving the original extension.
	key := uuid.NewString() + models.Ext(originalName)
	blobPath := dirPath + "/" + key

	if _, err := s.blobs.WriteStream(blobPath, r); err != nil {
		return nil, models.NewPhysicalError(models.OpWrite, blobPath, err)
	}

	node := &models.Node{
		OwnerID:  ownerID,
		ParentID: parentID,
		Name:     originalName,
		Path:     blobPath,
		Kind:     models.KindFile,
		File: &models.FileMeta{
			SizeBytes: sizeBytes,
			MIMEType:  mimeType,
		},
	}

	if err := s.store.Insert(ctx, node); err != nil {
		if delErr := s.blobs.Delete(blobPath); delErr != nil {
			s.logger.WithError(delErr).WithField("path", blobPath).Warn("Failed to clean up blob after insert failure")
		}
		return nil, err
	}

	return node, nil
}

// SoftDelete marks a node inactive. It is idempotent: a missing or already
// deleted node is a no-op. File sizes are released from the quota ledger
// unconditionally once the flag is persisted.
func (s *Service) SoftDelete(ctx context.Context, nodeID int64) error {
	node, err := s.store.FindByID(ctx, nodeID)
	if err != nil {
		if errors.Is(err, models.ErrNodeNotFound) {
			return nil
		}
		return err
	}
	if node.Deleted {
		return nil
	}

	node.Deleted = true
	if err := s.store.Update(ctx, node); err != nil {
		return fmt.Errorf("persist soft delete: %w", err)
	}

	if !node.IsFolder() && node.File != nil {
		if err := s.store.Release(ctx, node.File.SizeBytes); err != nil {
			return fmt.Errorf("release quota: %w", err)
		}
		s.logger.WithFields(map[string]interface{}{
			"id":   nodeID,
			"size": node.File.SizeBytes,
		}).Info("Soft deleted file, quota released")
	} else {
		s.logger.WithField("id", nodeID).Info("Soft deleted folder")
	}

	return nil
}

// Delete removes a node: physical blobs first (best effort for folder
// trees), then the soft-delete transition, cascaded through a folder's
// active descendants so their file sizes leave the quota ledger. Folder rows
// are hard-deleted afterwards so their name and path become reusable; file
// rows stay behind as trash entries.
func (s *Service) Delete(ctx context.Context, ownerID, nodeID int64) error {
	node, err := s.store.FindByID(ctx, nodeID)
	if err != nil {
		return err
	}
	if node.OwnerID != ownerID {
		return models.ErrUnauthorized
	}
	if node.Deleted {
		return models.ErrNodeNotFound
	}

	// Collect descendants before any state changes; the walker only sees
	// active rows.
	var descendants []*models.Node
	if node.IsFolder() {
		descendants, err = s.Descendants(ctx, ownerID, nodeID)
		if err != nil {
			return err
		}
	}

	exists, err := s.blobs.Exists(node.Path)
	if err != nil {
		return models.NewPhysicalError(models.OpDelete, node.Path, err)
	}

	if exists {
		if node.IsFolder() {
			// Per-entry failures are logged inside DeleteTree and must not
			// block the metadata transition.
			if err := s.blobs.DeleteTree(node.Path); err != nil {
				s.logger.WithError(err).WithField("path", node.Path).Error("Partial failure removing folder tree")
			}
		} else {
			if err := s.blobs.Delete(node.Path); err != nil {
				return models.NewPhysicalError(models.OpDelete, node.Path, err)
			}
		}
	} else {
		s.logger.WithField("id", nodeID).Warn("Blob already missing on disk")
	}

	for _, desc := range descendants {
		if err := s.SoftDelete(ctx, desc.ID); err != nil {
			return err
		}
	}

	if err := s.SoftDelete(ctx, nodeID); err != nil {
		return err
	}

	if node.IsFolder() {
		if err := s.store.Delete(ctx, nodeID); err != nil {
			return err
		}
		s.logger.WithField("id", nodeID).Info("Hard deleted folder row to release its path")
	}

	return nil
}

// List returns the active children of parentID (root children when nil),
// each annotated with the ephemeral lost flag.
func (s *Service) List(ctx context.Context, ownerID int64, parentID *int64) ([]*models.Node, error) {
	children, err := s.store.ActiveChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, err
	}

	for _, child := range children {
		s.annotateLost(child)
	}
	return children, nil
}

// Recent returns the newest active files across all folders.
func (s *Service) Recent(ctx context.Context, ownerID int64, limit int) ([]*models.Node, error) {
	files, err := s.store.RecentFiles(ctx, ownerID, limit)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		s.annotateLost(f)
	}
	return files, nil
}

// Get loads a single node with full validation: ownership, the deleted flag
// and physical presence. A read that discovers the blob is gone soft-deletes
// the node and reports it as missing.
func (s *Service) Get(ctx context.Context, ownerID, nodeID int64) (*models.Node, error) {
	node, err := s.store.FindByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if node.OwnerID != ownerID {
		s.logger.WithFields(map[string]interface{}{
			"id":    nodeID,
			"owner": ownerID,
		}).Warn("Unauthorized node access")
		return nil, models.ErrUnauthorized
	}
	if node.Deleted {
		return nil, models.ErrNodeNotFound
	}

	exists, err := s.blobs.Exists(node.Path)
	if err != nil {
		return nil, models.NewPhysicalError(models.OpRead, node.Path, err)
	}
	if !exists {
		s.logger.WithField("id", nodeID).Warn("Blob missing on disk, soft deleting")
		if err := s.SoftDelete(ctx, nodeID); err != nil {
			return nil, err
		}
		return nil, models.ErrNodeNotFound
	}

	return node, nil
}

// Download returns a validated file node and a reader over its blob. The
// caller closes the reader.
func (s *Service) Download(ctx context.Context, ownerID, nodeID int64) (*models.Node, io.ReadCloser, error) {
	node, err := s.Get(ctx, ownerID, nodeID)
	if err != nil {
		return nil, nil, err
	}
	if node.IsFolder() {
		return nil, nil, models.ErrNotAFile
	}

	rc, err := s.blobs.Open(node.Path)
	if err != nil {
		return nil, nil, models.NewPhysicalError(models.OpRead, node.Path, err)
	}
	return node, rc, nil
}

// Quota returns the current ledger snapshot.
func (s *Service) Quota(ctx context.Context) (models.Quota, error) {
	return s.store.Quota(ctx)
}
