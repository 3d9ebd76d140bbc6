package model

import (
	"encoding/json"
	"time"
)

// Stored entry field names. The JSON shape is a contract with external
// collaborators (viewer, CRM push), so the names are fixed.
const (
	entryFieldCollectedDate = "collected_date"
	entryFieldData          = "data"
	entryFieldDescription   = "description"
)

// StoredRecord is one entry in the durable opportunity store: the
// opportunity payload plus the timestamp at which the dedup store first
// accepted it. CollectedDate reflects acceptance time, not the upstream
// posted date.
//
// The on-disk shape is {"collected_date": <RFC3339>, "data": {...}} with
// optional per-entry keys (e.g. a cached "description" written by the
// description resolver). Unknown per-entry keys written by collaborators
// survive a load/persist round trip via Extra.
type StoredRecord struct {
	// CollectedDate is when the record was first accepted into the store.
	CollectedDate time.Time

	// Data is the opportunity payload, first-write-wins.
	Data Opportunity

	// Description is an optional cached detail description resolved after
	// collection. Empty means not resolved.
	Description string

	// Extra holds unrecognized per-entry keys so newer store versions and
	// collaborator-written fields are never dropped by older readers.
	Extra map[string]json.RawMessage
}

// UnmarshalJSON decodes a stored entry, tolerating unknown per-entry keys.
func (r *StoredRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw[entryFieldCollectedDate]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			// Older store versions wrote fractional-second timestamps.
			t, err = time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return err
			}
		}
		r.CollectedDate = t
		delete(raw, entryFieldCollectedDate)
	}

	if v, ok := raw[entryFieldData]; ok {
		if err := json.Unmarshal(v, &r.Data); err != nil {
			return err
		}
		delete(raw, entryFieldData)
	}

	if v, ok := raw[entryFieldDescription]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			r.Description = s
			delete(raw, entryFieldDescription)
		}
	}

	if len(raw) > 0 {
		r.Extra = raw
	} else {
		r.Extra = nil
	}
	return nil
}

// MarshalJSON encodes the stored entry back into its on-disk shape,
// including any unrecognized keys carried in Extra.
func (r StoredRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Extra)+3)
	for k, v := range r.Extra {
		out[k] = v
	}

	ts, err := json.Marshal(r.CollectedDate.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	out[entryFieldCollectedDate] = ts

	data, err := json.Marshal(r.Data)
	if err != nil {
		return nil, err
	}
	out[entryFieldData] = data

	if r.Description != "" {
		desc, err := json.Marshal(r.Description)
		if err != nil {
			return nil, err
		}
		out[entryFieldDescription] = desc
	}

	return json.Marshal(out)
}
