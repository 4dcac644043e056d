package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-docsync/internal/hierarchy"
	"github.com/goliatone/go-docsync/internal/identity"
	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/internal/markup"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// session is the state of one run. It receives flushed artifacts from the
// hierarchy builder and processes them one at a time.
type session struct {
	client   interfaces.ArtifactClient
	opts     RunOptions
	mode     interfaces.SyncMode
	outcome  *Outcome
	logger   interfaces.Logger
	progress func(interfaces.Progress)

	current  int
	folder   parent
	release  parent
	releases map[string]interfaces.Release
}

// parent is the most recent folder or release boundary. id stays nil when
// that boundary failed to sync.
type parent struct {
	kind interfaces.ArtifactKind
	name string
	id   *int
}

func newSession(d *Driver, opts RunOptions, mode interfaces.SyncMode, outcome *Outcome, logger interfaces.Logger, progress func(interfaces.Progress)) *session {
	if strings.TrimSpace(opts.AttachmentHint) == "" {
		opts.AttachmentHint = DefaultAttachmentHint
	}
	return &session{
		client:   d.client,
		opts:     opts,
		mode:     mode,
		outcome:  outcome,
		logger:   logger,
		progress: progress,
	}
}

// Accept implements hierarchy.Sink. Item failures are recorded and swallowed;
// only cancellation is returned.
func (s *session) Accept(ctx context.Context, artifact *hierarchy.PendingArtifact) error {
	if err := ctx.Err(); err != nil {
		return abortError(err)
	}

	name := artifactName(artifact.Name)
	logger := logging.WithArtifactContext(s.logger, artifact.Kind, name, "")

	result, err := s.process(ctx, artifact, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return abortError(ctxErr)
		}
		logger.Error("docsync.sync.item_failed", "error", err)
		s.outcome.fail(name, artifact.Kind, err)
	} else {
		logging.WithArtifactContext(logger, "", "", string(result.Action)).Debug("docsync.sync.item_synced", "id", result.ID)
		s.outcome.succeed(result)
	}
	s.current++
	s.report()
	return nil
}

func (s *session) report() {
	if s.progress == nil {
		return
	}
	s.progress(interfaces.Progress{Current: s.current, Total: s.outcome.Total})
}

func (s *session) process(ctx context.Context, artifact *hierarchy.PendingArtifact, name string) (result ItemResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("syncer: panic while syncing %q: %v", name, r)
		}
	}()

	result = ItemResult{Name: name, Kind: artifact.Kind}
	switch artifact.Kind {
	case interfaces.KindTestFolder:
		s.folder = parent{kind: artifact.Kind, name: name}
	case interfaces.KindRelease:
		s.release = parent{kind: artifact.Kind, name: name}
	}
	if artifact.Err != nil {
		return result, fmt.Errorf("syncer: transcode %q: %w", name, artifact.Err)
	}
	if s.opts.DryRun {
		result.Action = ActionPlanned
		if token, ok := identity.Resolve(artifact.Side, artifact.Kind); ok {
			result.ID = token.ID
		}
		return result, nil
	}

	switch artifact.Kind {
	case interfaces.KindRequirement:
		return s.syncRequirement(ctx, artifact, result)
	case interfaces.KindTestFolder:
		return s.syncTestFolder(ctx, artifact, result)
	case interfaces.KindTestCase:
		return s.syncTestCase(ctx, artifact, result)
	case interfaces.KindRelease:
		return s.syncRelease(ctx, artifact, result)
	case interfaces.KindTask:
		return s.syncTask(ctx, artifact, result)
	default:
		return result, fmt.Errorf("syncer: unsupported artifact kind %q", artifact.Kind)
	}
}

// lookup resolves the side channel token and confirms the remote object
// still exists. A stale token reports absent.
func lookup[T any](ctx context.Context, side interfaces.SideChannel, kind interfaces.ArtifactKind, fetch func(context.Context, int) (*T, error)) (*T, error) {
	token, ok := identity.Resolve(side, kind)
	if !ok {
		return nil, nil
	}
	existing, err := fetch(ctx, token.ID)
	if errors.Is(err, interfaces.ErrArtifactNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s %d: %w", kind, token.ID, err)
	}
	return existing, nil
}

// parentID returns the id children of p are filed under. A failed parent
// fails its children unless DetachOrphans is set.
func (s *session) parentID(p parent, child *hierarchy.PendingArtifact) (*int, error) {
	if p.name == "" || p.id != nil {
		return p.id, nil
	}
	if !s.opts.DetachOrphans {
		return nil, fmt.Errorf("%w: %s %q", ErrParentMissing, p.kind, p.name)
	}
	logging.WithArtifactContext(s.logger, child.Kind, artifactName(child.Name), "").
		Warn("docsync.sync.parent_missing", "parent_kind", p.kind, "parent", p.name)
	return nil, nil
}

func (s *session) syncRequirement(ctx context.Context, a *hierarchy.PendingArtifact, result ItemResult) (ItemResult, error) {
	existing, err := lookup(ctx, a.Side, interfaces.KindRequirement, s.client.FetchRequirement)
	if err != nil {
		return result, err
	}

	var saved *interfaces.Requirement
	if existing != nil {
		req := *existing
		req.Name = result.Name
		req.Description = a.Markup
		req.LastModified = identity.ApplyStamp(a.Side, existing.LastModified)
		saved, err = s.client.UpdateRequirement(ctx, req)
		result.Action = ActionUpdated
	} else {
		saved, err = s.client.CreateRequirement(ctx, interfaces.Requirement{
			Name:        result.Name,
			Description: a.Markup,
			IndentLevel: a.Level,
		}, a.IndentOffset)
		result.Action = ActionCreated
	}
	if err != nil {
		return result, fmt.Errorf("%s requirement: %w", verb(result.Action), err)
	}
	result.ID = saved.ID
	if err := stamp(a.Side, interfaces.KindRequirement, saved.ID, saved.LastModified); err != nil {
		return result, err
	}

	description, changed, err := s.uploadAttachments(ctx, interfaces.KindRequirement, saved.ID, saved.Description, a.Attachments)
	if err != nil {
		return result, err
	}
	if !changed {
		return result, nil
	}
	saved.Description = description
	if saved, err = s.client.UpdateRequirement(ctx, *saved); err != nil {
		return result, fmt.Errorf("update requirement attachments: %w", err)
	}
	return result, stamp(a.Side, interfaces.KindRequirement, saved.ID, saved.LastModified)
}

func (s *session) syncTestFolder(ctx context.Context, a *hierarchy.PendingArtifact, result ItemResult) (ItemResult, error) {
	existing, err := lookup(ctx, a.Side, interfaces.KindTestFolder, s.client.FetchTestCaseFolder)
	if err != nil {
		return result, err
	}

	saved := existing
	result.Action = ActionReused
	if saved == nil {
		s.warnUnlinkedAttachments(a)
		saved, err = s.client.CreateTestCaseFolder(ctx, interfaces.TestFolder{
			Name:        result.Name,
			Description: a.Markup,
		})
		if err != nil {
			return result, fmt.Errorf("create test folder: %w", err)
		}
		result.Action = ActionCreated
	}

	id := saved.ID
	s.folder.id = &id
	result.ID = id
	return result, stamp(a.Side, interfaces.KindTestFolder, saved.ID, saved.LastModified)
}

func (s *session) syncTestCase(ctx context.Context, a *hierarchy.PendingArtifact, result ItemResult) (ItemResult, error) {
	existing, err := lookup(ctx, a.Side, interfaces.KindTestCase, s.client.FetchTestCase)
	if err != nil {
		return result, err
	}

	folderID, err := s.parentID(s.folder, a)
	if err != nil {
		return result, err
	}

	var saved *interfaces.TestCase
	if existing != nil {
		tc := *existing
		tc.Name = result.Name
		tc.Description = a.Markup
		if folderID != nil {
			tc.FolderID = folderID
		}
		tc.LastModified = identity.ApplyStamp(a.Side, existing.LastModified)
		saved, err = s.client.UpdateTestCase(ctx, tc)
		result.Action = ActionUpdated
	} else {
		saved, err = s.client.CreateTestCase(ctx, interfaces.TestCase{
			Name:        result.Name,
			Description: a.Markup,
			FolderID:    folderID,
		})
		result.Action = ActionCreated
	}
	if err != nil {
		return result, fmt.Errorf("%s test case: %w", verb(result.Action), err)
	}
	result.ID = saved.ID
	if err := stamp(a.Side, interfaces.KindTestCase, saved.ID, saved.LastModified); err != nil {
		return result, err
	}

	if result.Action == ActionCreated {
		if err := s.addSteps(ctx, saved.ID, a.Steps); err != nil {
			return result, err
		}
	}

	description, changed, err := s.uploadAttachments(ctx, interfaces.KindTestCase, saved.ID, saved.Description, a.Attachments)
	if err != nil {
		return result, err
	}
	if !changed {
		return result, nil
	}
	saved.Description = description
	if saved, err = s.client.UpdateTestCase(ctx, *saved); err != nil {
		return result, fmt.Errorf("update test case attachments: %w", err)
	}
	return result, stamp(a.Side, interfaces.KindTestCase, saved.ID, saved.LastModified)
}

func (s *session) addSteps(ctx context.Context, testCaseID int, steps []markup.Step) error {
	for _, step := range steps {
		saved, err := s.client.AddTestStep(ctx, interfaces.TestStep{
			TestCaseID:     testCaseID,
			Position:       step.Index,
			Description:    step.Description,
			ExpectedResult: step.ExpectedResult,
			SampleData:     step.SampleData,
		})
		if err != nil {
			return fmt.Errorf("add test step %d: %w", step.Index, err)
		}
		if len(step.Attachments) == 0 {
			continue
		}

		changed := false
		for _, att := range step.Attachments {
			url, ok, err := s.uploadAttachment(ctx, interfaces.KindTestStep, saved.ID, att)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			saved.Description = markup.RewritePlaceholder(saved.Description, att.Placeholder, url)
			saved.ExpectedResult = markup.RewritePlaceholder(saved.ExpectedResult, att.Placeholder, url)
			saved.SampleData = markup.RewritePlaceholder(saved.SampleData, att.Placeholder, url)
			changed = true
		}
		if changed {
			if _, err := s.client.UpdateTestStep(ctx, *saved); err != nil {
				return fmt.Errorf("update test step %d attachments: %w", step.Index, err)
			}
		}
	}
	return nil
}

func (s *session) syncRelease(ctx context.Context, a *hierarchy.PendingArtifact, result ItemResult) (ItemResult, error) {
	existing, err := lookup(ctx, a.Side, interfaces.KindRelease, s.client.FetchRelease)
	if err != nil {
		return result, err
	}

	saved := existing
	result.Action = ActionReused
	if saved == nil {
		if saved, err = s.releaseByName(ctx, result.Name); err != nil {
			return result, err
		}
	}
	if saved == nil {
		s.warnUnlinkedAttachments(a)
		saved, err = s.client.CreateRelease(ctx, interfaces.Release{
			Name:        result.Name,
			Description: a.Markup,
		})
		if err != nil {
			return result, fmt.Errorf("create release: %w", err)
		}
		s.releases[releaseKey(saved.Name)] = *saved
		result.Action = ActionCreated
	}

	id := saved.ID
	s.release.id = &id
	result.ID = id
	return result, stamp(a.Side, interfaces.KindRelease, saved.ID, saved.LastModified)
}

// releaseByName adopts an existing remote release with the same name so a
// lost side channel does not duplicate releases.
func (s *session) releaseByName(ctx context.Context, name string) (*interfaces.Release, error) {
	if s.releases == nil {
		releases, err := s.client.FetchReleases(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch releases: %w", err)
		}
		s.releases = make(map[string]interfaces.Release, len(releases))
		for _, release := range releases {
			key := releaseKey(release.Name)
			if _, dup := s.releases[key]; !dup {
				s.releases[key] = release
			}
		}
	}
	if release, ok := s.releases[releaseKey(name)]; ok {
		return &release, nil
	}
	return nil, nil
}

func verb(action Action) string {
	if action == ActionCreated {
		return "create"
	}
	return "update"
}

func releaseKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *session) syncTask(ctx context.Context, a *hierarchy.PendingArtifact, result ItemResult) (ItemResult, error) {
	existing, err := lookup(ctx, a.Side, interfaces.KindTask, s.client.FetchTask)
	if err != nil {
		return result, err
	}

	releaseID, err := s.parentID(s.release, a)
	if err != nil {
		return result, err
	}

	var saved *interfaces.Task
	if existing != nil {
		task := *existing
		task.Name = result.Name
		task.Description = a.Markup
		if releaseID != nil {
			task.ReleaseID = releaseID
		}
		task.LastModified = identity.ApplyStamp(a.Side, existing.LastModified)
		saved, err = s.client.UpdateTask(ctx, task)
		result.Action = ActionUpdated
	} else {
		saved, err = s.client.CreateTask(ctx, interfaces.Task{
			Name:        result.Name,
			Description: a.Markup,
			ReleaseID:   releaseID,
		})
		result.Action = ActionCreated
	}
	if err != nil {
		return result, fmt.Errorf("%s task: %w", verb(result.Action), err)
	}
	result.ID = saved.ID
	if err := stamp(a.Side, interfaces.KindTask, saved.ID, saved.LastModified); err != nil {
		return result, err
	}

	description, changed, err := s.uploadAttachments(ctx, interfaces.KindTask, saved.ID, saved.Description, a.Attachments)
	if err != nil {
		return result, err
	}
	if !changed {
		return result, nil
	}
	saved.Description = description
	if saved, err = s.client.UpdateTask(ctx, *saved); err != nil {
		return result, fmt.Errorf("update task attachments: %w", err)
	}
	return result, stamp(a.Side, interfaces.KindTask, saved.ID, saved.LastModified)
}

// uploadAttachments uploads artifact-owned images against the saved artifact
// and rewrites their placeholders. changed reports whether the parent must be
// saved again.
func (s *session) uploadAttachments(ctx context.Context, kind interfaces.ArtifactKind, artifactID int, description string, attachments []markup.Attachment) (string, bool, error) {
	changed := false
	for _, att := range attachments {
		url, ok, err := s.uploadAttachment(ctx, kind, artifactID, att)
		if err != nil {
			return description, changed, err
		}
		if !ok {
			continue
		}
		description = markup.RewritePlaceholder(description, att.Placeholder, url)
		changed = true
	}
	return description, changed, nil
}

func (s *session) uploadAttachment(ctx context.Context, kind interfaces.ArtifactKind, ownerID int, att markup.Attachment) (string, bool, error) {
	attachmentID, err := s.client.AddAttachment(ctx, kind, ownerID, att.Data, att.Placeholder)
	if err != nil {
		return "", false, fmt.Errorf("upload %s: %w", att.Placeholder, err)
	}
	if attachmentID <= 0 {
		return "", false, nil
	}
	url, err := s.client.ResolveArtifactURL(ctx, s.opts.AttachmentHint, s.opts.ProjectID, attachmentID)
	if err != nil {
		return "", false, fmt.Errorf("resolve attachment %d url: %w", attachmentID, err)
	}
	s.outcome.Attachments++
	return url, true, nil
}

func (s *session) warnUnlinkedAttachments(a *hierarchy.PendingArtifact) {
	if len(a.Attachments) == 0 {
		return
	}
	logging.WithArtifactContext(s.logger, a.Kind, a.Name, "").
		Warn("docsync.sync.attachments_skipped", "count", len(a.Attachments))
}

func stamp(side interfaces.SideChannel, kind interfaces.ArtifactKind, id int, lastModified time.Time) error {
	return identity.Stamp(side, identity.Token{Kind: kind, ID: id, LastModified: lastModified})
}
