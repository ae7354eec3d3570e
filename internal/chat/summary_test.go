package chat

import "testing"

func TestParseSummaryOutputValid(t *testing.T) {
	raw := `{
		"user_name": "Jane Doe",
		"input_summary": "A project status report.",
		"client_name": "Acme",
		"client_region": "EMEA",
		"vertical": "Retail",
		"feedback": "Positive",
		"project_status": "on-going"
	}`

	res := ParseSummaryOutput(raw)
	if res.Fallback {
		t.Fatalf("unexpected fallback: %s", res.Reason)
	}
	f := res.Fields
	if f.UserName != "Jane Doe" || f.InputSummary != "A project status report." ||
		f.ClientName != "Acme" || f.ClientRegion != "EMEA" ||
		f.Vertical != "Retail" || f.Feedback != "Positive" || f.ProjectStatus != "on-going" {
		t.Fatalf("fields changed in round trip: %+v", f)
	}
}

func TestParseSummaryOutputFenced(t *testing.T) {
	raw := "```json\n{\"user_name\":\"Jane\",\"input_summary\":\"x\",\"client_name\":\"Acme\",\"client_region\":\"NA\",\"vertical\":\"BFSI\",\"feedback\":\"Neutral\",\"project_status\":\"pending\"}\n```"

	res := ParseSummaryOutput(raw)
	if res.Fallback {
		t.Fatalf("fenced JSON should parse: %s", res.Reason)
	}
	if res.Fields.UserName != "Jane" || res.Fields.ProjectStatus != "pending" {
		t.Fatalf("unexpected fields: %+v", res.Fields)
	}
}

func TestParseSummaryOutputMissingFields(t *testing.T) {
	res := ParseSummaryOutput(`{"input_summary": "partial"}`)
	if res.Fallback {
		t.Fatalf("partial object is not a parse failure: %s", res.Reason)
	}
	if res.Fields.InputSummary != "partial" {
		t.Fatalf("present field lost: %+v", res.Fields)
	}
	if res.Fields.UserName != "Unknown" || res.Fields.ClientName != "Unknown" ||
		res.Fields.Feedback != "Unknown" {
		t.Fatalf("missing fields should default to Unknown: %+v", res.Fields)
	}
}

func TestParseSummaryOutputMalformed(t *testing.T) {
	res := ParseSummaryOutput("Sorry, I could not analyze this document.")
	if !res.Fallback {
		t.Fatal("malformed output must be tagged as fallback")
	}
	if res.Reason == "" {
		t.Fatal("fallback must carry a reason")
	}
	f := res.Fields
	if f.UserName != "Unknown" || f.ClientName != "Unknown" ||
		f.ClientRegion != "Unknown" || f.Vertical != "Unknown" ||
		f.Feedback != "Neutral" || f.ProjectStatus != "Unknown" {
		t.Fatalf("unexpected fallback structure: %+v", f)
	}
	if f.InputSummary != "Failed to parse document content" {
		t.Fatalf("unexpected fallback summary: %q", f.InputSummary)
	}
}
