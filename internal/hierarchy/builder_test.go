package hierarchy

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/goliatone/go-docsync/internal/hostdoc/memdoc"
	"github.com/goliatone/go-docsync/pkg/interfaces"
)

type collector struct {
	artifacts []*PendingArtifact
	failOn    string
	err       error
}

func (c *collector) Accept(_ context.Context, artifact *PendingArtifact) error {
	if c.failOn != "" && artifact.Name == c.failOn {
		return c.err
	}
	c.artifacts = append(c.artifacts, artifact)
	return nil
}

func build(t *testing.T, mode interfaces.SyncMode, mapping interfaces.StyleMapping, regions ...interfaces.Region) []*PendingArtifact {
	t.Helper()
	sink := &collector{}
	b := NewBuilder(mapping, mode, sink)
	ctx := context.Background()
	for _, region := range regions {
		if err := b.Feed(ctx, region); err != nil {
			t.Fatalf("Feed() error: %v", err)
		}
	}
	if err := b.Finish(ctx); err != nil {
		t.Fatalf("Finish() error: %v", err)
	}
	return sink.artifacts
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestBuilderLoginLogoutScenario(t *testing.T) {
	artifacts := build(t, interfaces.ModeRequirements, interfaces.DefaultStyleMapping(),
		memdoc.Styled("Heading 1", "Login"),
		memdoc.Para("Body text for Login"),
		memdoc.Styled("Heading 1", "Logout"),
		memdoc.Para("Body text for Logout"),
	)
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}
	if artifacts[0].Name != "Login" || artifacts[0].Markup != `<p style="">Body text for Login</p>` {
		t.Fatalf("unexpected first artifact %+v", artifacts[0])
	}
	if artifacts[1].Name != "Logout" || artifacts[1].Markup != `<p style="">Body text for Logout</p>` {
		t.Fatalf("unexpected second artifact %+v", artifacts[1])
	}
}

func TestBuilderIndentOffsets(t *testing.T) {
	artifacts := build(t, interfaces.ModeRequirements, interfaces.DefaultStyleMapping(),
		memdoc.Styled("Heading 1", "A"),
		memdoc.Styled("Heading 2", "A.1"),
		memdoc.Styled("Heading 3", "A.1.1"),
		memdoc.Styled("Heading 1", "B"),
		memdoc.Styled("Heading 2", "B.1"),
	)
	want := []int{0, 1, 1, -2, 1}
	if len(artifacts) != len(want) {
		t.Fatalf("expected %d artifacts, got %d", len(want), len(artifacts))
	}
	for i, artifact := range artifacts {
		if artifact.IndentOffset != want[i] {
			t.Fatalf("artifact %s: expected offset %d, got %d", artifact.Name, want[i], artifact.IndentOffset)
		}
	}
}

func TestBuilderDiscardsContentBeforeFirstBoundary(t *testing.T) {
	artifacts := build(t, interfaces.ModeRequirements, interfaces.DefaultStyleMapping(),
		memdoc.Para("Cover page"),
		memdoc.Item(false, 1, "toc"),
		memdoc.Styled("Heading 1", "First"),
	)
	if len(artifacts) != 1 || artifacts[0].Markup != "" {
		t.Fatalf("expected preamble to be discarded, got %+v", artifacts)
	}
}

func TestBuilderSkipsIgnoredRegions(t *testing.T) {
	artifacts := build(t, interfaces.ModeRequirements, interfaces.DefaultStyleMapping(),
		memdoc.Styled("Heading 1", "Kept"),
		memdoc.Para("secret").WithFields("IGNORE", ""),
		memdoc.Styled("Heading 1", "Skipped").WithFields("IGNORE", ""),
		memdoc.Para("still kept"),
	)
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(artifacts))
	}
	if artifacts[0].Markup != `<p style="">still kept</p>` {
		t.Fatalf("unexpected markup %q", artifacts[0].Markup)
	}
}

func TestBuilderVisitsTablesOnce(t *testing.T) {
	table := memdoc.NewTable("t1", memdoc.TextRow(10, "h"), memdoc.TextRow(10, "v"))
	artifacts := build(t, interfaces.ModeRequirements, interfaces.DefaultStyleMapping(),
		memdoc.Styled("Heading 1", "With table"),
		table.Region(),
		table.Region(),
	)
	want := `<table border="1"><tr><th><p style="">h</p></th></tr><tr><td><p style="">v</p></td></tr></table>`
	if artifacts[0].Markup != want {
		t.Fatalf("unexpected markup %q", artifacts[0].Markup)
	}
}

func TestBuilderClearsVisitedTablesOnFinish(t *testing.T) {
	table := memdoc.NewTable("t1", memdoc.TextRow(10, "h"))
	sink := &collector{}
	b := NewBuilder(interfaces.DefaultStyleMapping(), interfaces.ModeRequirements, sink)
	ctx := context.Background()
	for run := 0; run < 2; run++ {
		_ = b.Feed(ctx, memdoc.Styled("Heading 1", "R"))
		_ = b.Feed(ctx, table.Region())
		_ = b.Finish(ctx)
	}
	if len(sink.artifacts) != 2 || sink.artifacts[1].Markup == "" {
		t.Fatalf("expected the second run to transcode the table again, got %+v", sink.artifacts)
	}
}

func TestBuilderStepTables(t *testing.T) {
	table := memdoc.NewTable("steps",
		memdoc.TextRow(10, "Action", "Expected", "Data"),
		memdoc.TextRow(10, "Click login", "Form", ""),
	)
	artifacts := build(t, interfaces.ModeTestCases, interfaces.DefaultStyleMapping(),
		memdoc.Styled("Heading 1", "Auth"),
		memdoc.Styled("Heading 2", "Valid login"),
		memdoc.Para("Preconditions"),
		table.Region(),
	)
	if len(artifacts) != 2 {
		t.Fatalf("expected folder and test case, got %d", len(artifacts))
	}
	tc := artifacts[1]
	if tc.Kind != interfaces.KindTestCase || len(tc.Steps) != 1 {
		t.Fatalf("expected one step on the test case, got %+v", tc)
	}
	if tc.Markup != `<p style="">Preconditions</p>` {
		t.Fatalf("step table must not render into the description, got %q", tc.Markup)
	}
}

func TestBuilderNumbersStepsAcrossTables(t *testing.T) {
	first := memdoc.NewTable("setup",
		memdoc.TextRow(10, "Action", "Expected", "Data"),
		memdoc.TextRow(10, "Open page", "Form", ""),
	)
	second := memdoc.NewTable("submit",
		memdoc.TextRow(10, "Action", "Expected", "Data"),
		memdoc.NewRow(
			memdoc.TextCell(10, "Submit"),
			memdoc.NewCell(10, memdoc.Para("").WithRuns(memdoc.Picture(pngBytes(t), "screen"))),
			memdoc.TextCell(10, ""),
		),
	)
	artifacts := build(t, interfaces.ModeTestCases, interfaces.DefaultStyleMapping(),
		memdoc.Styled("Heading 1", "Auth"),
		memdoc.Styled("Heading 2", "Valid login"),
		first.Region(),
		memdoc.Para("Then"),
		second.Region(),
		memdoc.Styled("Heading 2", "Invalid login"),
		first.Region(),
	)
	tc := artifacts[1]
	if len(tc.Steps) != 2 || tc.Steps[0].Index != 1 || tc.Steps[1].Index != 2 {
		t.Fatalf("expected steps 1 and 2, got %+v", tc.Steps)
	}
	if att := tc.Steps[1].Attachments; len(att) != 1 || att[0].StepIndex != 2 {
		t.Fatalf("expected the attachment on step 2, got %+v", att)
	}
	if next := artifacts[2]; len(next.Steps) != 0 {
		t.Fatalf("tables are visited once per run, got %+v", next.Steps)
	}
}

func TestBuilderTablesUnderFolderStayMarkup(t *testing.T) {
	table := memdoc.NewTable("t", memdoc.TextRow(10, "a"), memdoc.TextRow(10, "b"))
	artifacts := build(t, interfaces.ModeTestCases, interfaces.DefaultStyleMapping(),
		memdoc.Styled("Heading 1", "Folder"),
		table.Region(),
	)
	if len(artifacts[0].Steps) != 0 || artifacts[0].Markup == "" {
		t.Fatalf("expected table markup on the folder, got %+v", artifacts[0])
	}
}

func TestBuilderMarksTranscodeFailures(t *testing.T) {
	boom := errors.New("image unavailable")
	broken := memdoc.Para("").WithRuns(interfaces.Run{Image: &memdoc.Image{Err: boom}})
	artifacts := build(t, interfaces.ModeRequirements, interfaces.DefaultStyleMapping(),
		memdoc.Styled("Heading 1", "Broken"),
		broken,
		memdoc.Styled("Heading 1", "Fine"),
		memdoc.Para("ok"),
	)
	if len(artifacts) != 2 {
		t.Fatalf("expected both artifacts flushed, got %d", len(artifacts))
	}
	if !errors.Is(artifacts[0].Err, boom) {
		t.Fatalf("expected first artifact to carry the error, got %v", artifacts[0].Err)
	}
	if artifacts[1].Err != nil || artifacts[1].Markup != `<p style="">ok</p>` {
		t.Fatalf("second artifact should be clean, got %+v", artifacts[1])
	}
}

func TestBuilderStopsOnSinkError(t *testing.T) {
	abort := errors.New("aborted")
	sink := &collector{failOn: "A", err: abort}
	b := NewBuilder(interfaces.DefaultStyleMapping(), interfaces.ModeRequirements, sink)
	ctx := context.Background()
	if err := b.Feed(ctx, memdoc.Styled("Heading 1", "A")); err != nil {
		t.Fatalf("unexpected error on first boundary: %v", err)
	}
	if err := b.Feed(ctx, memdoc.Styled("Heading 1", "B")); !errors.Is(err, abort) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestBuilderTaskOutline(t *testing.T) {
	mapping := interfaces.DefaultStyleMapping()
	mapping.Release = ""
	mapping.Task = ""
	mapping.UseOutlineLevels = true

	artifacts := build(t, interfaces.ModeTasks, mapping,
		memdoc.Outlined(1, "Sprint 1"),
		memdoc.Outlined(2, "Design"),
		memdoc.Outlined(2, "Build"),
		memdoc.Outlined(1, "Sprint 2"),
	)
	kinds := []interfaces.ArtifactKind{interfaces.KindRelease, interfaces.KindTask, interfaces.KindTask, interfaces.KindRelease}
	for i, artifact := range artifacts {
		if artifact.Kind != kinds[i] {
			t.Fatalf("artifact %d: expected %s, got %s", i, kinds[i], artifact.Kind)
		}
	}
}
