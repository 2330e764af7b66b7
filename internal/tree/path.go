package tree

import (
	"strings"

	"github.com/slugbotics/sluggo/pkg/apperrors"
)

// Tree positions are encoded as materialized paths: fixed-width base36
// segments, one per level, so lexicographic path order is tree order and a
// subtree is a simple prefix range. Sibling slots per level: 36^4.
const (
	stepLen    = 4
	maxPathLen = 255
	alphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// MaxDepth is the deepest representable level.
const MaxDepth = maxPathLen / stepLen

// depthOf derives the level from a path's length. Roots are depth 1.
func depthOf(path string) int {
	return len(path) / stepLen
}

// parentPath strips the last segment. Empty for roots.
func parentPath(path string) string {
	if len(path) <= stepLen {
		return ""
	}
	return path[:len(path)-stepLen]
}

// ancestorPaths returns the paths of all proper ancestors, root first.
func ancestorPaths(path string) []string {
	depth := depthOf(path)
	if depth <= 1 {
		return nil
	}
	out := make([]string, 0, depth-1)
	for i := 1; i < depth; i++ {
		out = append(out, path[:i*stepLen])
	}
	return out
}

// isAncestorOrSelf reports whether a's subtree contains b.
func isAncestorOrSelf(a, b string) bool {
	return strings.HasPrefix(b, a)
}

// firstChildPath is the path of the first child slot under parent. The
// empty parent path yields the first root slot.
func firstChildPath(parent string) (string, error) {
	if len(parent)+stepLen > maxPathLen {
		return "", apperrors.NewDepthOverflow("tree depth limit exceeded")
	}
	return parent + strings.Repeat(alphabet[:1], stepLen-1) + alphabet[1:2], nil
}

// nextSiblingPath increments the last segment of path. Fails when the
// segment is exhausted; surfaced as a depth/path overflow so the caller
// can retry elsewhere in the tree.
func nextSiblingPath(path string) (string, error) {
	seg := []byte(path[len(path)-stepLen:])
	for i := stepLen - 1; i >= 0; i-- {
		idx := strings.IndexByte(alphabet, seg[i])
		if idx < len(alphabet)-1 {
			seg[i] = alphabet[idx+1]
			return path[:len(path)-stepLen] + string(seg), nil
		}
		seg[i] = alphabet[0]
	}
	return "", apperrors.NewDepthOverflow("sibling slots exhausted")
}

// nextPathUnder picks the next free slot under parent given the current
// last occupied sibling path ("" when the parent has no children yet).
func nextPathUnder(parent, lastSibling string) (string, error) {
	if lastSibling == "" {
		return firstChildPath(parent)
	}
	return nextSiblingPath(lastSibling)
}
