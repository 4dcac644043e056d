package remote

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"
)

const (
	defaultRouteGroup      = "tracker"
	attachmentRoute        = "attachment"
	defaultAttachmentRoute = "/:project_id/:hint/:attachment_id"
)

var ErrAttachmentRouteMissing = errors.New("remote: attachment route is not configured")

// URLResolverConfig configures attachment URL resolution.
type URLResolverConfig struct {
	// BaseURL is the web root of the tracker, not the service endpoint.
	BaseURL string
	// Route is a go-urlkit path template with :project_id, :hint and
	// :attachment_id parameters.
	Route string
	// Manager replaces the route manager built from BaseURL and Route.
	Manager *urlkit.RouteManager
	// Group names the route group holding the attachment route.
	Group string
}

// URLResolver builds browser URLs for uploaded attachments.
type URLResolver struct {
	manager *urlkit.RouteManager
	group   string
}

// NewURLResolver constructs a resolver backed by go-urlkit.
func NewURLResolver(cfg URLResolverConfig) (*URLResolver, error) {
	group := strings.TrimSpace(cfg.Group)
	if group == "" {
		group = defaultRouteGroup
	}
	manager := cfg.Manager
	if manager == nil {
		base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
		if base == "" {
			return nil, ErrAttachmentRouteMissing
		}
		route := strings.TrimSpace(cfg.Route)
		if route == "" {
			route = defaultAttachmentRoute
		}
		manager = urlkit.NewRouteManager(&urlkit.Config{
			Groups: []urlkit.GroupConfig{
				{
					Name:    group,
					BaseURL: base,
					Paths: map[string]string{
						attachmentRoute: route,
					},
				},
			},
		})
	}
	return &URLResolver{manager: manager, group: group}, nil
}

// Resolve returns the URL of attachmentID inside projectID.
func (r *URLResolver) Resolve(hint string, projectID, attachmentID int) (string, error) {
	if r == nil || r.manager == nil {
		return "", ErrAttachmentRouteMissing
	}
	group, err := lookupGroup(r.manager, r.group)
	if err != nil {
		return "", err
	}
	builder, err := safeBuilder(group, attachmentRoute)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(hint) == "" {
		hint = "Attachment"
	}
	builder.WithParam("project_id", strconv.Itoa(projectID))
	builder.WithParam("hint", strings.TrimSpace(hint))
	builder.WithParam("attachment_id", strconv.Itoa(attachmentID))

	url, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("remote: build attachment url: %w", err)
	}
	return url, nil
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("remote: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: urlkit builder panic: %v", ErrAttachmentRouteMissing, rec)
		}
	}()
	builder = group.Builder(route)
	return builder, err
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: route group %q not found", ErrAttachmentRouteMissing, name)
		}
	}()
	group = manager.Group(name)
	return group, err
}
