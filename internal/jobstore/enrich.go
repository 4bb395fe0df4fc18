package jobstore

import "context"

// enrich runs the best-effort annotations for draft. Errors and panics in
// the enricher are logged and replaced with (nil, false).
func (s *Store) enrich(ctx context.Context, draft Draft, who Identity) (summary *string, spam bool) {
	if s.enricher == nil {
		return nil, false
	}

	summary = s.safeSummarize(ctx, draft.CareerLink)
	spam = s.safeClassify(ctx, draft.toJob(0, who, summary, false, s.opts.Clock()))
	return summary, spam
}

func (s *Store) safeSummarize(ctx context.Context, url string) (summary *string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("company summary panicked", map[string]interface{}{"panic": r})
			summary = nil
		}
	}()

	out, err := s.enricher.Summarize(ctx, url)
	if err != nil {
		s.logger.Warn("company summary failed, continuing without it", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return nil
	}
	return out
}

func (s *Store) safeClassify(ctx context.Context, job Job) (spam bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("spam classification panicked", map[string]interface{}{"panic": r})
			spam = false
		}
	}()

	out, err := s.enricher.ClassifySpam(ctx, job)
	if err != nil {
		s.logger.Warn("spam classification failed, treating job as not spam", map[string]interface{}{
			"title": job.Title,
			"error": err.Error(),
		})
		return false
	}
	return out
}
