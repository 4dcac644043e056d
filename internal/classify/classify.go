// Package classify decides which role a host region plays in a sync run.
package classify

import (
	"strings"

	"github.com/goliatone/go-docsync/internal/identity"
	"github.com/goliatone/go-docsync/internal/markup"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// RoleKind is the coarse role of a region.
type RoleKind int

const (
	RoleContent RoleKind = iota
	RoleIgnored
	RoleTable
	RoleBoundary
	RoleListItem
)

func (k RoleKind) String() string {
	switch k {
	case RoleIgnored:
		return "ignored"
	case RoleTable:
		return "table"
	case RoleBoundary:
		return "boundary"
	case RoleListItem:
		return "list_item"
	default:
		return "content"
	}
}

// Role is the classification of one region. Artifact and Level are only set
// for boundaries.
type Role struct {
	Kind     RoleKind
	Artifact interfaces.ArtifactKind
	Level    int
}

// IsBoundary reports whether the region starts a new artifact.
func (r Role) IsBoundary() bool {
	return r.Kind == RoleBoundary
}

// Classify maps a region to its role under the given mapping and mode. Ignore
// beats table membership, which beats a boundary style, which beats list
// membership; everything else is content.
func Classify(region interfaces.Region, mapping interfaces.StyleMapping, mode interfaces.SyncMode) Role {
	if region == nil {
		return Role{Kind: RoleIgnored}
	}
	if identity.IsIgnored(region.SideChannel(), mapping.Sentinel()) {
		return Role{Kind: RoleIgnored}
	}
	if region.Table() != nil {
		return Role{Kind: RoleTable}
	}
	if kind, level, ok := boundary(region, mapping, mode); ok {
		if strings.TrimSpace(markup.Sanitize(region.Text())) != "" {
			return Role{Kind: RoleBoundary, Artifact: kind, Level: level}
		}
		return Role{Kind: RoleContent}
	}
	if region.List() != nil {
		return Role{Kind: RoleListItem}
	}
	return Role{Kind: RoleContent}
}

// Count returns how many regions classify as boundaries. It is the progress
// total of a run.
func Count(regions []interfaces.Region, mapping interfaces.StyleMapping, mode interfaces.SyncMode) int {
	total := 0
	for _, region := range regions {
		if Classify(region, mapping, mode).IsBoundary() {
			total++
		}
	}
	return total
}

func boundary(region interfaces.Region, mapping interfaces.StyleMapping, mode interfaces.SyncMode) (interfaces.ArtifactKind, int, bool) {
	style := strings.TrimSpace(region.StyleName())
	outline := region.OutlineLevel()

	switch mode {
	case interfaces.ModeRequirements:
		for i, name := range mapping.Requirements {
			if styleMatches(style, name) {
				return interfaces.KindRequirement, i + 1, true
			}
		}
		if mapping.UseOutlineLevels && outline > 0 {
			return interfaces.KindRequirement, outline, true
		}
	case interfaces.ModeTestCases:
		if styleMatches(style, mapping.TestFolder) {
			return interfaces.KindTestFolder, 1, true
		}
		if styleMatches(style, mapping.TestCase) {
			return interfaces.KindTestCase, 2, true
		}
	case interfaces.ModeTasks:
		if styleMatches(style, mapping.Release) {
			return interfaces.KindRelease, 1, true
		}
		if styleMatches(style, mapping.Task) {
			return interfaces.KindTask, 2, true
		}
		if mapping.UseOutlineLevels && outline > 0 {
			if outline == 1 {
				return interfaces.KindRelease, 1, true
			}
			return interfaces.KindTask, 2, true
		}
	}
	return "", 0, false
}

func styleMatches(style, mapped string) bool {
	mapped = strings.TrimSpace(mapped)
	return mapped != "" && strings.EqualFold(style, mapped)
}
