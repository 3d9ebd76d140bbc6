package collector

import (
	"bytes"
	"context"
	"encoding/hex"
	"log/slog"

	"golang.org/x/crypto/sha3"

	"github.com/pretorin-ai/govbizops/internal/model"
)

// Fetcher fetches every page of search results for one window and filter
// set. *samgov.Client satisfies this.
type Fetcher interface {
	FetchAll(ctx context.Context, window model.Window, codes []string) ([]model.Opportunity, error)
}

// MergeResult is the outcome of merging the per-code query series.
type MergeResult struct {
	// Records is the unique record set, ordered by first appearance.
	Records []model.Opportunity

	// RawFetched is the raw record count across all queries, before
	// merging.
	RawFetched int
}

// Duplicates returns how many raw records the merge discarded.
func (m MergeResult) Duplicates() int {
	return m.RawFetched - len(m.Records)
}

// Merger unions per-code query results by notice ID.
//
// The upstream API treats multiple filter values in one request as a
// conjunction, so a record matching any one of several codes can only be
// found by querying each code separately and merging. When the same
// notice ID comes back from more than one query the later payload wins;
// the merger hashes each payload and logs a warning when the payloads
// actually differ, so the overwrite is observable. Records without a
// notice ID cannot participate in deduplication and are discarded at
// merge time.
type Merger struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewMerger creates a Merger over the given fetcher.
func NewMerger(fetcher Fetcher, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{fetcher: fetcher, logger: logger}
}

// payloadHash fingerprints a record for the divergence check.
func payloadHash(op model.Opportunity) []byte {
	data, err := op.MarshalJSON()
	if err != nil {
		return nil
	}
	sum := sha3.Sum256(data)
	return sum[:]
}

// Merge runs one query series per code against the window and unions the
// results. A failed query surfaces its error together with everything
// merged so far; queries already completed are not discarded.
func (m *Merger) Merge(ctx context.Context, window model.Window, codes []string) (MergeResult, error) {
	var result MergeResult
	seen := make(map[string]int) // notice ID -> index in result.Records
	hashes := make(map[string][]byte)

	for _, code := range codes {
		page, err := m.fetcher.FetchAll(ctx, window, []string{code})
		result.RawFetched += len(page)
		m.mergeInto(&result, seen, hashes, page)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (m *Merger) mergeInto(result *MergeResult, seen map[string]int, hashes map[string][]byte, page []model.Opportunity) {
	for _, op := range page {
		if op.NoticeID == "" {
			m.logger.Warn("discarding record without a notice ID", "title", op.Title)
			continue
		}

		h := payloadHash(op)
		idx, dup := seen[op.NoticeID]
		if !dup {
			seen[op.NoticeID] = len(result.Records)
			hashes[op.NoticeID] = h
			result.Records = append(result.Records, op)
			continue
		}

		if prev := hashes[op.NoticeID]; !bytes.Equal(prev, h) {
			m.logger.Warn("notice returned with divergent payloads across filter queries",
				"noticeId", op.NoticeID,
				"previousHash", hex.EncodeToString(prev),
				"newHash", hex.EncodeToString(h),
			)
		}
		// Later sighting wins.
		result.Records[idx] = op
		hashes[op.NoticeID] = h
	}
}
