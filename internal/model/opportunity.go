package model

import (
	"encoding/json"
	"strings"
)

// Known upstream field names consumed by the pipeline.
// SAM.gov spells the deadline field "responseDeadLine" (capital L).
const (
	fieldNoticeID         = "noticeId"
	fieldTitle            = "title"
	fieldNAICSCode        = "naicsCode"
	fieldType             = "type"
	fieldPostedDate       = "postedDate"
	fieldResponseDeadline = "responseDeadLine"
	fieldUILink           = "uiLink"
)

// Opportunity is a single contract opportunity record as returned by the
// SAM.gov search API. Records are immutable once stored.
//
// Design decision: We use a typed struct for the fields the pipeline
// actually reads, plus an Extra map for everything else, rather than a
// map[string]any throughout. This gives type safety where it matters
// while letting unknown upstream fields round-trip unmodified.
type Opportunity struct {
	// NoticeID is the natural identifier for the opportunity.
	// It is the dedup key for the whole pipeline.
	NoticeID string

	// Title is the opportunity title.
	Title string

	// NAICSCode is a comma-joined list of NAICS classification codes.
	NAICSCode string

	// Type is the free-text opportunity type, e.g. "Solicitation (Original)"
	// or "Sources Sought".
	Type string

	// PostedDate is the upstream posted date, kept in the upstream's own
	// string format.
	PostedDate string

	// ResponseDeadline is the response deadline, kept as received.
	ResponseDeadline string

	// UILink is the detail-page URL on sam.gov.
	UILink string

	// Extra holds every upstream field not covered above, byte-for-byte.
	Extra map[string]json.RawMessage
}

// UnmarshalJSON decodes an upstream opportunity object, pulling the known
// fields out of the attribute bag and keeping the rest in Extra.
// A known field whose value is not a JSON string (e.g. null) stays in Extra
// rather than being silently coerced.
func (o *Opportunity) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	take := func(key string) string {
		v, ok := raw[key]
		if !ok {
			return ""
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return ""
		}
		delete(raw, key)
		return s
	}

	o.NoticeID = take(fieldNoticeID)
	o.Title = take(fieldTitle)
	o.NAICSCode = take(fieldNAICSCode)
	o.Type = take(fieldType)
	o.PostedDate = take(fieldPostedDate)
	o.ResponseDeadline = take(fieldResponseDeadline)
	o.UILink = take(fieldUILink)

	if len(raw) > 0 {
		o.Extra = raw
	} else {
		o.Extra = nil
	}
	return nil
}

// MarshalJSON re-assembles the upstream object: known fields and the Extra
// bag are merged back into a single flat JSON object. Empty known fields
// are omitted so a decode/encode round trip does not invent keys.
func (o Opportunity) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(o.Extra)+7)
	for k, v := range o.Extra {
		out[k] = v
	}

	put := func(key, value string) error {
		if value == "" {
			return nil
		}
		b, err := json.Marshal(value)
		if err != nil {
			return err
		}
		out[key] = b
		return nil
	}

	for _, f := range []struct{ key, value string }{
		{fieldNoticeID, o.NoticeID},
		{fieldTitle, o.Title},
		{fieldNAICSCode, o.NAICSCode},
		{fieldType, o.Type},
		{fieldPostedDate, o.PostedDate},
		{fieldResponseDeadline, o.ResponseDeadline},
		{fieldUILink, o.UILink},
	} {
		if err := put(f.key, f.value); err != nil {
			return nil, err
		}
	}

	return json.Marshal(out)
}

// Codes splits the comma-joined NAICS code list into individual codes.
// Empty elements are dropped.
func (o Opportunity) Codes() []string {
	if o.NAICSCode == "" {
		return nil
	}
	parts := strings.Split(o.NAICSCode, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := strings.TrimSpace(p); c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}

// MatchesType reports whether the opportunity's type contains the given
// substring. The upstream type is free text ("Solicitation (Original)",
// "Combined Synopsis/Solicitation", ...), so substring matching is the
// only stable check.
func (o Opportunity) MatchesType(substr string) bool {
	return strings.Contains(o.Type, substr)
}
