package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// TestOpportunityUnmarshal tests decoding of upstream opportunity objects.
func TestOpportunityUnmarshal(t *testing.T) {
	t.Parallel()

	t.Run("extracts known fields and keeps the rest in Extra", func(t *testing.T) {
		t.Parallel()

		raw := `{
			"noticeId": "abc123",
			"title": "IT Support Services",
			"naicsCode": "541511,541512",
			"type": "Solicitation (Original)",
			"postedDate": "2025-08-20",
			"responseDeadLine": "2025-09-15T17:00:00-04:00",
			"uiLink": "https://sam.gov/opp/abc123/view",
			"solicitationNumber": "W912DY-25-R-0001",
			"pointOfContact": [{"email": "ko@example.mil"}]
		}`

		var opp Opportunity
		if err := json.Unmarshal([]byte(raw), &opp); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		if opp.NoticeID != "abc123" {
			t.Errorf("NoticeID = %q, want %q", opp.NoticeID, "abc123")
		}
		if opp.Type != "Solicitation (Original)" {
			t.Errorf("Type = %q, want %q", opp.Type, "Solicitation (Original)")
		}
		if opp.NAICSCode != "541511,541512" {
			t.Errorf("NAICSCode = %q", opp.NAICSCode)
		}
		if _, ok := opp.Extra["solicitationNumber"]; !ok {
			t.Error("solicitationNumber should be preserved in Extra")
		}
		if _, ok := opp.Extra["pointOfContact"]; !ok {
			t.Error("pointOfContact should be preserved in Extra")
		}
		if _, ok := opp.Extra["noticeId"]; ok {
			t.Error("noticeId should not remain in Extra after extraction")
		}
	})

	t.Run("non-string known field stays in Extra", func(t *testing.T) {
		t.Parallel()

		var opp Opportunity
		if err := json.Unmarshal([]byte(`{"noticeId": "x", "title": null}`), &opp); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if opp.Title != "" {
			t.Errorf("Title = %q, want empty", opp.Title)
		}
		if _, ok := opp.Extra["title"]; !ok {
			t.Error("null title should stay in Extra")
		}
	})
}

// TestOpportunityRoundTrip verifies unknown fields survive encode/decode.
func TestOpportunityRoundTrip(t *testing.T) {
	t.Parallel()

	raw := `{"noticeId":"n1","title":"T","type":"Solicitation","award":{"amount":"100000"},"active":"Yes"}`

	var opp Opportunity
	if err := json.Unmarshal([]byte(raw), &opp); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	encoded, err := json.Marshal(opp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &got); err != nil {
		t.Fatalf("re-unmarshal failed: %v", err)
	}

	for _, key := range []string{"noticeId", "title", "type", "award", "active"} {
		if _, ok := got[key]; !ok {
			t.Errorf("key %q lost in round trip", key)
		}
	}
	if string(got["award"]) != `{"amount":"100000"}` {
		t.Errorf("award payload changed: %s", got["award"])
	}
}

// TestOpportunityCodes tests the comma-joined code split.
func TestOpportunityCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		naics string
		want  []string
	}{
		{"single code", "541511", []string{"541511"}},
		{"multiple codes", "541511,541512", []string{"541511", "541512"}},
		{"spaces and empties", " 541511 ,,541690", []string{"541511", "541690"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Opportunity{NAICSCode: tt.naics}.Codes()
			if len(got) != len(tt.want) {
				t.Fatalf("Codes() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Codes()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestOpportunityMatchesType tests the substring type filter.
func TestOpportunityMatchesType(t *testing.T) {
	t.Parallel()

	if !(Opportunity{Type: "Solicitation (Original)"}).MatchesType("Solicitation") {
		t.Error("Solicitation (Original) should match")
	}
	if !(Opportunity{Type: "Combined Synopsis/Solicitation"}).MatchesType("Solicitation") {
		t.Error("Combined Synopsis/Solicitation should match")
	}
	if (Opportunity{Type: "Sources Sought"}).MatchesType("Solicitation") {
		t.Error("Sources Sought should not match")
	}
}

// TestStoredRecordRoundTrip verifies the on-disk entry shape and the
// survival of collaborator-written keys.
func TestStoredRecordRoundTrip(t *testing.T) {
	t.Parallel()

	raw := `{
		"collected_date": "2025-08-20T09:30:00Z",
		"data": {"noticeId": "n1", "type": "Solicitation"},
		"description": "cached description",
		"analysis_ref": "analysis_n1.json"
	}`

	var rec StoredRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	want := time.Date(2025, 8, 20, 9, 30, 0, 0, time.UTC)
	if !rec.CollectedDate.Equal(want) {
		t.Errorf("CollectedDate = %v, want %v", rec.CollectedDate, want)
	}
	if rec.Data.NoticeID != "n1" {
		t.Errorf("Data.NoticeID = %q", rec.Data.NoticeID)
	}
	if rec.Description != "cached description" {
		t.Errorf("Description = %q", rec.Description)
	}

	encoded, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(encoded), "analysis_ref") {
		t.Error("collaborator-written key analysis_ref lost in round trip")
	}
	if !strings.Contains(string(encoded), `"collected_date":"2025-08-20T09:30:00Z"`) {
		t.Errorf("collected_date not in RFC3339 shape: %s", encoded)
	}
}
