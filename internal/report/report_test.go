package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReportCounts(t *testing.T) {
	r := New("draft")
	r.Success("usa/alabama")
	r.Skip("usa/empty", "no geotagged photos")
	r.Fail("usa/broken", errors.New("unreadable sidecar"))

	other := New("index")
	other.Success("usa")
	r.Merge(other)

	success, skipped, failed := r.Counts()
	if success != 2 || skipped != 1 || failed != 1 {
		t.Errorf("Counts() = %d, %d, %d; want 2, 1, 1", success, skipped, failed)
	}

	outcomes := r.Outcomes()
	if outcomes[3].Stage != "index" {
		t.Errorf("merged outcome stage = %q, want index", outcomes[3].Stage)
	}
}

func TestReportRender(t *testing.T) {
	r := New("backfill")
	r.Success("usa/alabama")
	r.Skip("usa/texas", "no upload manifest")

	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "usa/texas") || !strings.Contains(out, "no upload manifest") {
		t.Errorf("skip line missing from:\n%s", out)
	}
	if strings.Contains(out, "usa/alabama") {
		t.Errorf("successful units should only be counted:\n%s", out)
	}
}

func TestStatusString(t *testing.T) {
	if StatusFailed.String() != "failed" || Status(42).String() != "unknown" {
		t.Error("unexpected Status strings")
	}
}
