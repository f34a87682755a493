package repository

import (
	"sort"
	"strings"

	"github.com/go-kit/kit/log/level"
)

// loadProcessed parses the processed-comment set. Caller holds processedMu.
func (r *Repository) loadProcessed() (map[string]bool, error) {
	lines, err := readLines(r.path(ProcessedCommentsFile))
	if err != nil {
		_ = level.Error(r.logger).Log("method", "loadProcessed", "err", err)
		return nil, err
	}
	ids := make(map[string]bool, len(lines))
	for _, line := range lines {
		ids[line] = true
	}
	return ids, nil
}

// IsCommentProcessed reports whether the comment id was already handled.
func (r *Repository) IsCommentProcessed(id string) (bool, error) {
	r.processedMu.Lock()
	defer r.processedMu.Unlock()
	ids, err := r.loadProcessed()
	if err != nil {
		return false, err
	}
	return ids[id], nil
}

// MarkCommentProcessed adds the comment id to the processed set. Marking an
// already present id is a no-op.
func (r *Repository) MarkCommentProcessed(id string) error {
	r.processedMu.Lock()
	defer r.processedMu.Unlock()
	ids, err := r.loadProcessed()
	if err != nil {
		return err
	}
	ids[id] = true
	ordered := make([]string, 0, len(ids))
	for id := range ids {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)
	data := strings.Join(ordered, "\n") + "\n"
	if err := writeFileAtomic(r.path(ProcessedCommentsFile), []byte(data)); err != nil {
		_ = level.Error(r.logger).Log("method", "MarkCommentProcessed", "err", err)
		return err
	}
	return nil
}
