package synccmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-docsync/pkg/interfaces"
)

const syncDocumentMessageType = "docsync.sync.document"

// Targets accepted by SyncDocumentCommand.
const (
	TargetRemote = "remote"
	TargetLocal  = "local"
)

// SyncDocumentCommand synchronizes one document into a project.
type SyncDocumentCommand struct {
	// Document is the path or name handed to the document loader.
	Document string `json:"document"`
	// ProjectID may be zero only for dry runs.
	ProjectID int    `json:"project_id"`
	Mode      string `json:"mode"`
	// Target picks the artifact service; blank means remote.
	Target         string `json:"target,omitempty"`
	DryRun         bool   `json:"dry_run,omitempty"`
	AttachmentHint string `json:"attachment_hint,omitempty"`
	Username       string `json:"-"`
	Password       string `json:"-"`
}

// Type implements command.Message.
func (SyncDocumentCommand) Type() string { return syncDocumentMessageType }

// Validate checks the message before the handler runs.
func (cmd SyncDocumentCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Document, validation.Required, validation.By(notBlank)),
		validation.Field(&cmd.ProjectID,
			validation.When(!cmd.DryRun, validation.Required),
			validation.Min(0),
		),
		validation.Field(&cmd.Mode, validation.Required, validation.By(knownMode)),
		validation.Field(&cmd.Target, validation.In(TargetRemote, TargetLocal)),
	)
}

func notBlank(value any) error {
	if s, _ := value.(string); strings.TrimSpace(s) == "" {
		return validation.NewError("docsync.sync.document.blank", "must not be blank")
	}
	return nil
}

func knownMode(value any) error {
	s, _ := value.(string)
	if _, ok := interfaces.ParseSyncMode(s); !ok {
		return validation.NewError("docsync.sync.document.mode", "must be requirements, test-cases or tasks")
	}
	return nil
}
