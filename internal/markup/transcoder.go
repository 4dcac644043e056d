// Package markup turns host regions into the tag-based markup stored in
// artifact descriptions, extracting inline images as attachments.
package markup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-docsync/internal/logging"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// Owner says which record an attachment must be uploaded against.
type Owner string

const (
	OwnerArtifact Owner = "artifact"
	OwnerStep     Owner = "step"
)

const placeholderPrefix = "docsync-attachment-"

// Attachment is an image extracted during transcoding. Placeholder is the
// temporary src written into the markup until the upload yields a real URL.
type Attachment struct {
	ID          int
	Placeholder string
	Extension   string
	Format      string
	Data        []byte
	Owner       Owner
	AltText     string
	// StepIndex is the 1-based step the attachment belongs to when Owner is
	// OwnerStep.
	StepIndex   int
}

// PlaceholderName builds the temporary file name for attachment id.
func PlaceholderName(id int, extension string) string {
	return placeholderPrefix + strconv.Itoa(id) + "." + extension
}

// Transcoder accumulates the markup of one artifact. It is not safe for
// concurrent use; the hierarchy builder owns one per run and resets it at
// every boundary.
type Transcoder struct {
	buf         *strings.Builder
	attachments []Attachment
	next        int
	lists       []listFrame
	owner       Owner
	stepIndex   int
	stepCount   int
	logger      interfaces.Logger
}

// Option configures a Transcoder.
type Option func(*Transcoder)

// WithLogger records dropped images at debug level.
func WithLogger(logger interfaces.Logger) Option {
	return func(t *Transcoder) {
		t.logger = logger
	}
}

// NewTranscoder returns an empty transcoder with the placeholder counter at 1.
func NewTranscoder(opts ...Option) *Transcoder {
	t := &Transcoder{logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	t.logger = logging.OrNoOp(t.logger)
	t.Reset()
	return t
}

// Reset clears the buffer, the attachment list and list state, and restarts
// placeholder ids and step numbering at 1.
func (t *Transcoder) Reset() {
	t.buf = &strings.Builder{}
	t.attachments = nil
	t.next = 1
	t.lists = nil
	t.owner = OwnerArtifact
	t.stepIndex = 0
	t.stepCount = 0
}

// Markup closes any open lists and returns the accumulated markup.
func (t *Transcoder) Markup() string {
	t.closeLists()
	return t.buf.String()
}

// Attachments returns the artifact-owned attachments in placeholder order.
func (t *Transcoder) Attachments() []Attachment {
	if len(t.attachments) == 0 {
		return nil
	}
	out := make([]Attachment, len(t.attachments))
	copy(out, t.attachments)
	return out
}

// Empty reports whether nothing has been written since the last Reset.
func (t *Transcoder) Empty() bool {
	return t.buf.Len() == 0 && len(t.lists) == 0 && len(t.attachments) == 0
}

// Paragraph appends one region. List items join the open list structure;
// anything else closes it first.
func (t *Transcoder) Paragraph(region interfaces.Region) error {
	if region == nil {
		return nil
	}
	if info := region.List(); info != nil {
		return t.listItem(region, *info)
	}
	t.closeLists()
	return t.paragraph(region)
}

func (t *Transcoder) paragraph(region interfaces.Region) error {
	t.buf.WriteString(`<p style="`)
	if align := region.Alignment(); align != interfaces.AlignDefault {
		t.buf.WriteString("text-align:")
		t.buf.WriteString(escapeText(string(align)))
	}
	t.buf.WriteString(`">`)
	if err := t.runs(region); err != nil {
		return err
	}
	t.buf.WriteString("</p>")
	return nil
}

func (t *Transcoder) runs(region interfaces.Region) error {
	defaults := region.Defaults()
	for _, run := range region.Runs() {
		if run.Image != nil {
			if err := t.image(run.Image); err != nil {
				return err
			}
			continue
		}
		text := escapeText(run.Text)
		if text == "" {
			continue
		}
		open, closing := wrappers(run.Format, defaults)
		t.buf.WriteString(open)
		t.buf.WriteString(text)
		t.buf.WriteString(closing)
	}
	return nil
}

// wrappers returns the opening and closing tags for attributes that differ
// from the paragraph default. Tags open as strong, em, u, span and close in
// reverse.
func wrappers(format, defaults interfaces.RunFormat) (string, string) {
	var open, closing []string
	if format.Bold && !defaults.Bold {
		open = append(open, "<strong>")
		closing = append(closing, "</strong>")
	}
	if format.Italic && !defaults.Italic {
		open = append(open, "<em>")
		closing = append(closing, "</em>")
	}
	if format.Underline && !defaults.Underline {
		open = append(open, "<u>")
		closing = append(closing, "</u>")
	}
	font := strings.TrimSpace(format.Font)
	if font != "" && !strings.EqualFold(font, strings.TrimSpace(defaults.Font)) {
		open = append(open, `<span style="font-family:`+escapeText(font)+`">`)
		closing = append(closing, "</span>")
	}
	if len(open) == 0 {
		return "", ""
	}
	var b strings.Builder
	for _, tag := range open {
		b.WriteString(tag)
	}
	var c strings.Builder
	for i := len(closing) - 1; i >= 0; i-- {
		c.WriteString(closing[i])
	}
	return b.String(), c.String()
}

func (t *Transcoder) image(img interfaces.InlineImage) error {
	data, err := img.Data()
	if err != nil {
		return fmt.Errorf("markup: read inline image: %w", err)
	}
	format, ok := DetectFormat(data)
	if !ok {
		t.logger.Debug("docsync.markup.image_dropped", "bytes", len(data))
		return nil
	}
	id := t.next
	t.next++
	attachment := Attachment{
		ID:          id,
		Placeholder: PlaceholderName(id, Extension(format)),
		Extension:   Extension(format),
		Format:      format,
		Data:        data,
		Owner:       t.owner,
		AltText:     img.AltText(),
		StepIndex:   t.stepIndex,
	}
	t.attachments = append(t.attachments, attachment)
	fmt.Fprintf(t.buf, `<img src="%s" alt="%s" />`, attachment.Placeholder, escapeText(attachment.AltText))
	return nil
}

// capture renders fn into a scratch buffer and returns the markup plus the
// attachments it produced, leaving the artifact buffer untouched.
func (t *Transcoder) capture(fn func() error) (string, []Attachment, error) {
	savedBuf, savedLists := t.buf, t.lists
	start := len(t.attachments)
	t.buf = &strings.Builder{}
	t.lists = nil
	defer func() {
		t.buf, t.lists = savedBuf, savedLists
	}()

	err := fn()
	t.closeLists()
	out := t.buf.String()

	var produced []Attachment
	if len(t.attachments) > start {
		produced = append(produced, t.attachments[start:]...)
	}
	return out, produced, err
}
