package drive

import (
	"context"
	"errors"
	"fmt"

	"github.com/driveline/driveline/internal/models"
)

// VirtualPath resolves the ancestor-name chain for a node, root first and
// ending with the node's own name. A dangling parent reference fails with
// models.ErrBrokenChain; callers decide whether that is corruption or
// something to truncate.
func (s *Service) VirtualPath(ctx context.Context, nodeID int64) ([]string, error) {
	node, err := s.store.FindByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	names := []string{node.Name}
	current := node.ParentID
	for current != nil {
		parent, err := s.store.FindByID(ctx, *current)
		if err != nil {
			if errors.Is(err, models.ErrNodeNotFound) {
				return nil, fmt.Errorf("ancestor %d: %w", *current, models.ErrBrokenChain)
			}
			return nil, err
		}
		names = append([]string{parent.Name}, names...)
		current = parent.ParentID
	}

	return names, nil
}

// buildPath concatenates ancestor names from parentID upward, root first,
// joined by "/", with the optional final segment appended. A nil parent
// yields an empty ancestor prefix. Dangling ancestor references truncate
// the walk silently.
func (s *Service) buildPath(ctx context.Context, parentID *int64, finalSegment string) (string, error) {
	var names []string
	current := parentID
	for current != nil {
		parent, err := s.store.FindByID(ctx, *current)
		if err != nil {
			if errors.Is(err, models.ErrNodeNotFound) {
				break
			}
			return "", fmt.Errorf("resolve ancestor: %w", err)
		}
		names = append([]string{parent.Name}, names...)
		current = parent.ParentID
	}

	path := ""
	for _, name := range names {
		path += "/" + name
	}
	if finalSegment != "" {
		path += "/" + finalSegment
	}
	return path, nil
}

// PathChain builds the breadcrumb for a node, root to node. Ancestors whose
// blob is physically absent are included with Lost set and the walk keeps
// going upward, so callers see a gap marker instead of a truncated chain.
// The walk stops at a deleted or dangling ancestor.
func (s *Service) PathChain(ctx context.Context, ownerID, nodeID int64) ([]*models.Node, error) {
	var chain []*models.Node

	current := &nodeID
	for current != nil {
		node, err := s.store.FindByID(ctx, *current)
		if err != nil {
			if errors.Is(err, models.ErrNodeNotFound) {
				break
			}
			return nil, err
		}
		if node.Deleted {
			break
		}
		if node.OwnerID != ownerID {
			return nil, models.ErrUnauthorized
		}

		exists, err := s.blobs.Exists(node.Path)
		if err != nil || !exists {
			s.logger.WithField("id", node.ID).Warn("Path chain entry missing on disk, marking as lost")
			node.Lost = true
		}

		chain = append([]*models.Node{node}, chain...)
		current = node.ParentID
	}

	return chain, nil
}

// Descendants collects every active descendant of a folder, breadth first
// with an explicit queue so arbitrarily deep trees cannot exhaust the stack.
// Each reachable node appears exactly once.
func (s *Service) Descendants(ctx context.Context, ownerID, folderID int64) ([]*models.Node, error) {
	var descendants []*models.Node

	queue := []int64{folderID}
	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		children, err := s.store.ActiveChildren(ctx, ownerID, &currentID)
		if err != nil {
			return nil, fmt.Errorf("list children of %d: %w", currentID, err)
		}
		for _, child := range children {
			descendants = append(descendants, child)
			if child.IsFolder() {
				queue = append(queue, child.ID)
			}
		}
	}

	return descendants, nil
}
