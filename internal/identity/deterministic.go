package identity

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-slug"
	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// DocumentUUID keys a host document by its path or name.
func DocumentUUID(document string) uuid.UUID {
	return UUID("docsync:document:" + strings.TrimSpace(document))
}

// SlugPath joins the slugged segments of a heading path, so cosmetic edits
// (case, punctuation) keep the same path.
func SlugPath(path []string) string {
	segments := make([]string, 0, len(path))
	for _, segment := range path {
		segments = append(segments, SlugSegment(segment))
	}
	return strings.Join(segments, "/")
}

// NodeUUID keys a region inside a document by its slugged heading path, as
// returned by SlugPath, and its ordinal among same-path headings.
func NodeUUID(documentID uuid.UUID, slugPath string, ordinal int) uuid.UUID {
	return UUID("docsync:node:" + documentID.String() + ":" + slugPath + ":" + strconv.Itoa(ordinal))
}

// SlugSegment normalises one heading path segment. Empty or unsluggable
// input yields "_".
func SlugSegment(value string) string {
	normalized, err := slug.Normalize(value)
	if err != nil || normalized == "" {
		return "_"
	}
	return normalized
}
