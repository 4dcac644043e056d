package markup

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-docsync/internal/hostdoc/memdoc"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

func TestParagraphPlainText(t *testing.T) {
	tr := NewTranscoder()
	if err := tr.Paragraph(memdoc.Para("Body text for Login")); err != nil {
		t.Fatalf("Paragraph() error: %v", err)
	}
	if got := tr.Markup(); got != `<p style="">Body text for Login</p>` {
		t.Fatalf("unexpected markup %q", got)
	}
}

func TestParagraphAlignment(t *testing.T) {
	tr := NewTranscoder()
	_ = tr.Paragraph(memdoc.Para("centered").WithAlignment(interfaces.AlignCenter))
	if got := tr.Markup(); got != `<p style="text-align:center">centered</p>` {
		t.Fatalf("unexpected markup %q", got)
	}
}

func TestRunWrappersNestInFixedOrder(t *testing.T) {
	tr := NewTranscoder()
	format := interfaces.RunFormat{Bold: true, Italic: true, Underline: true, Font: "Courier New"}
	_ = tr.Paragraph(memdoc.Para("").WithRuns(memdoc.Formatted("all", format)))

	want := `<p style=""><strong><em><u><span style="font-family:Courier New">all</span></u></em></strong></p>`
	if got := tr.Markup(); got != want {
		t.Fatalf("unexpected markup\n got: %s\nwant: %s", got, want)
	}
}

func TestRunMatchingDefaultsHasNoWrapper(t *testing.T) {
	tr := NewTranscoder()
	defaults := interfaces.RunFormat{Bold: true, Font: "Arial"}
	p := memdoc.Para("").
		WithDefaults(defaults).
		WithRuns(memdoc.Formatted("same", interfaces.RunFormat{Bold: true, Font: "arial"}), memdoc.Formatted(" slanted", interfaces.RunFormat{Bold: true, Italic: true, Font: "Arial"}))
	_ = tr.Paragraph(p)

	want := `<p style="">same<em> slanted</em></p>`
	if got := tr.Markup(); got != want {
		t.Fatalf("unexpected markup\n got: %s\nwant: %s", got, want)
	}
}

func TestTextIsSanitizedAndEscaped(t *testing.T) {
	tr := NewTranscoder()
	_ = tr.Paragraph(memdoc.Para("a < b\x07 & c"))
	if got := tr.Markup(); got != `<p style="">a &lt; b &amp; c</p>` {
		t.Fatalf("unexpected markup %q", got)
	}
}

func TestInlineImagesBecomePlaceholders(t *testing.T) {
	tr := NewTranscoder()
	p := memdoc.Para("").WithRuns(
		memdoc.Text("before "),
		memdoc.Picture(pngBytes(t), "chart"),
		memdoc.Picture([]byte("mystery"), "dropped"),
		memdoc.Picture(emfBytes(), `a "quote"`),
	)
	if err := tr.Paragraph(p); err != nil {
		t.Fatalf("Paragraph() error: %v", err)
	}

	want := `<p style="">before <img src="docsync-attachment-1.png" alt="chart" /><img src="docsync-attachment-2.emf" alt="a &#34;quote&#34;" /></p>`
	if got := tr.Markup(); got != want {
		t.Fatalf("unexpected markup\n got: %s\nwant: %s", got, want)
	}

	attachments := tr.Attachments()
	if len(attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(attachments))
	}
	if attachments[0].ID != 1 || attachments[1].ID != 2 {
		t.Fatalf("expected increasing ids, got %d and %d", attachments[0].ID, attachments[1].ID)
	}
	if attachments[0].Owner != OwnerArtifact || attachments[1].Extension != "emf" {
		t.Fatalf("unexpected attachment metadata %+v", attachments)
	}
}

func TestImageReadFailureIsReported(t *testing.T) {
	tr := NewTranscoder()
	boom := errors.New("clipboard busy")
	p := memdoc.Para("").WithRuns(interfaces.Run{Image: &memdoc.Image{Err: boom}})
	if err := tr.Paragraph(p); !errors.Is(err, boom) {
		t.Fatalf("expected image error, got %v", err)
	}
}

func TestResetRestartsPlaceholderCounter(t *testing.T) {
	tr := NewTranscoder()
	_ = tr.Paragraph(memdoc.Para("").WithRuns(memdoc.Picture(pngBytes(t), "")))
	_ = tr.Paragraph(memdoc.Item(false, 1, "open list"))
	tr.Reset()

	if !tr.Empty() {
		t.Fatalf("expected empty transcoder after reset")
	}
	_ = tr.Paragraph(memdoc.Para("").WithRuns(memdoc.Picture(pngBytes(t), "")))
	if got := tr.Attachments(); len(got) != 1 || got[0].Placeholder != "docsync-attachment-1.png" {
		t.Fatalf("expected counter back at 1, got %+v", got)
	}
	if strings.Contains(tr.Markup(), "<ul>") {
		t.Fatalf("list state should not survive reset")
	}
}

func TestRewritePlaceholder(t *testing.T) {
	markup := `<p style=""><img src="docsync-attachment-1.png" alt="" /></p>`
	if !HasPlaceholders(markup) {
		t.Fatalf("expected placeholder detection")
	}
	got := RewritePlaceholder(markup, "docsync-attachment-1.png", "https://tracker.example.com/7/Attachment/33.aspx?a=1&b=2")
	want := `<p style=""><img src="https://tracker.example.com/7/Attachment/33.aspx?a=1&amp;b=2" alt="" /></p>`
	if got != want {
		t.Fatalf("unexpected rewrite\n got: %s\nwant: %s", got, want)
	}
	if HasPlaceholders(got) {
		t.Fatalf("placeholder should be gone")
	}
}
