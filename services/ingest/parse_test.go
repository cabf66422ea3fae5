package ingest

import (
	"testing"
)

func TestParsePayloadShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
	}{
		{
			"envelope with typed content",
			`{"content": {"tenantId": "acme", "userId": "u1", "type": "ALERT", "title": "hi"}}`,
		},
		{
			"envelope with string content",
			`{"content": "{\"tenantId\": \"acme\", \"userId\": \"u1\", \"type\": \"ALERT\", \"title\": \"hi\"}"}`,
		},
		{
			"bare request",
			`{"tenantId": "acme", "userId": "u1", "type": "ALERT", "title": "hi"}`,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req, ok := ParsePayload([]byte(tc.payload))
			if !ok {
				t.Fatalf("ParsePayload(%s) = not ok, want ok", tc.payload)
			}
			if req.TenantID != "acme" || req.UserID != "u1" || req.Type != "ALERT" || req.Title != "hi" {
				t.Errorf("parsed request = %+v, want acme/u1/ALERT/hi", req)
			}
		})
	}
}

func TestParsePayloadOptionalFields(t *testing.T) {
	t.Parallel()

	payload := `{
		"userId": "u1",
		"type": "APPROVAL_NEEDED",
		"title": "Approve",
		"body": "Request #42 awaits approval",
		"link": "/approvals/42",
		"severity": "high",
		"sourceService": "workflow",
		"dedupeKey": "approval-42"
	}`
	req, ok := ParsePayload([]byte(payload))
	if !ok {
		t.Fatal("ParsePayload() = not ok, want ok")
	}
	if req.TenantID != "" {
		t.Errorf("TenantID = %q, want empty for the global scope", req.TenantID)
	}
	if req.Body != "Request #42 awaits approval" || req.Link != "/approvals/42" {
		t.Errorf("optional fields not carried through: %+v", req)
	}
	if req.DedupeKey != "approval-42" || req.SourceService != "workflow" {
		t.Errorf("optional fields not carried through: %+v", req)
	}
}

func TestParsePayloadPoison(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
	}{
		{"not json", `this is not json`},
		{"empty object", `{}`},
		{"missing user", `{"type": "ALERT", "title": "hi"}`},
		{"missing type", `{"userId": "u1", "title": "hi"}`},
		{"missing title", `{"userId": "u1", "type": "ALERT"}`},
		{"envelope with invalid content", `{"content": {"userId": "u1"}}`},
		{"envelope with non-json string content", `{"content": "not json either"}`},
		{"empty payload", ``},
		{"json null", `null`},
		{"json array", `[1, 2, 3]`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, ok := ParsePayload([]byte(tc.payload)); ok {
				t.Errorf("ParsePayload(%q) = ok, want poison", tc.payload)
			}
		})
	}
}
