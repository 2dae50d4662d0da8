package neutralize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"neutralnews/internal/domain/entity"
	"neutralnews/internal/infra/llm"
	"neutralnews/internal/ratelimiter"
	"neutralnews/internal/repository"
)

// Neutralizer runs the per-group neutralization pipeline over a batch of
// GroupJobs, fanning out across a bounded worker pool and draining a retry
// queue for groups bumped by a rate limit.
type Neutralizer struct {
	store      repository.ArticleStore
	provider   llm.Provider
	limiter    *ratelimiter.Limiter
	retryQueue *RetryQueue
}

// New builds a Neutralizer. limiter is shared process-wide so a 429 seen
// by one worker cools down every other worker too.
func New(store repository.ArticleStore, provider llm.Provider, limiter *ratelimiter.Limiter) *Neutralizer {
	return &Neutralizer{
		store:      store,
		provider:   provider,
		limiter:    limiter,
		retryQueue: NewRetryQueue(),
	}
}

// Run processes every job through a channel-bounded worker pool
// (InitialWorkers concurrent at a time), then drains whatever landed in
// the retry queue one group at a time. It returns one Outcome per input
// job; jobs requeued for retry report their final Outcome from the drain
// pass instead of their first attempt.
func (n *Neutralizer) Run(ctx context.Context, jobs []GroupJob) []Outcome {
	outcomes := make(map[int64]*Outcome, len(jobs))
	var mu sync.Mutex

	sem := make(chan struct{}, InitialWorkers)
	var wg sync.WaitGroup

	for _, job := range jobs {
		job := job
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			outcome := n.safeProcess(ctx, job)
			mu.Lock()
			outcomes[job.GroupID] = &outcome
			mu.Unlock()
		}()
	}
	wg.Wait()

	n.retryQueue.Drain(ctx, RetryQueueInterGroupDelay, func(job GroupJob) error {
		outcome := n.safeProcess(ctx, job)
		mu.Lock()
		outcomes[job.GroupID] = &outcome
		mu.Unlock()
		if !outcome.Success {
			return fmt.Errorf("%s", outcome.Reason)
		}
		return nil
	})

	results := make([]Outcome, 0, len(jobs))
	for _, job := range jobs {
		if o := outcomes[job.GroupID]; o != nil {
			results = append(results, *o)
		}
	}
	return results
}

// safeProcess wraps processJob with panic recovery, generalizing the
// teacher's embedding-hook panic-safety pattern to every neutralize worker.
func (n *Neutralizer) safeProcess(ctx context.Context, job GroupJob) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("neutralize: worker panic recovered",
				slog.Int64("group_id", job.GroupID), slog.Any("panic", r))
			outcome = Outcome{GroupID: job.GroupID, Success: false, Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return n.processJob(ctx, job)
}

func (n *Neutralizer) processJob(ctx context.Context, job GroupJob) Outcome {
	kind := classifyChange(job.Existing, job.Members)
	if kind == KindUnchanged {
		return Outcome{GroupID: job.GroupID, Success: true, Reason: "unchanged"}
	}

	selected, dropped, err := SelectSources(job.Members)
	if unassignErr := n.unassignDropped(ctx, job.GroupID, dropped, job.Existing != nil); unassignErr != nil {
		return Outcome{GroupID: job.GroupID, Success: false,
			Reason: fmt.Errorf("%w: %v", ErrStoreWriteFailure, unassignErr).Error()}
	}
	if err != nil {
		return Outcome{GroupID: job.GroupID, Success: false, Reason: err.Error()}
	}

	if kind == KindChanged {
		oldCount := 0
		if job.Existing != nil {
			oldCount = len(job.Existing.SourceIDs)
		}
		if !needsUpdate(oldCount, len(selected)) {
			if err := n.patchSourceIDsOnly(ctx, job.GroupID, selected); err != nil {
				return Outcome{GroupID: job.GroupID, Success: false,
					Reason: fmt.Errorf("%w: %v", ErrStoreWriteFailure, err).Error()}
			}
			return Outcome{GroupID: job.GroupID, Success: true, Reason: "source_ids_only"}
		}
	}

	result, err := n.callWithRetry(ctx, job.GroupID, selected)
	if err != nil {
		if Classify(err) == ClassRateLimited {
			n.limiter.ForceCooldown(RateLimitCooldown)
			n.retryQueue.Push(job)
			return Outcome{GroupID: job.GroupID, Success: false, Reason: "queued for retry: " + err.Error()}
		}
		return Outcome{GroupID: job.GroupID, Success: false, Reason: err.Error()}
	}

	if err := n.persist(ctx, job, kind, selected, result); err != nil {
		return Outcome{GroupID: job.GroupID, Success: false,
			Reason: fmt.Errorf("%w: %v", ErrStoreWriteFailure, err).Error()}
	}
	return Outcome{GroupID: job.GroupID, Success: true, Reason: kind.String()}
}

// callWithRetry implements §4.7's error handling: a context-length error
// gets exactly one retry with the 3-shortest-sources fallback and is then
// treated as rate-limited if that also fails; a rate-limit/quota error is
// reported immediately as rate-limited (the caller queues it); an invalid
// payload is returned at once without a retry; anything else gets
// transientBackoff's fixed schedule before giving up.
func (n *Neutralizer) callWithRetry(ctx context.Context, groupID int64, selected []*entity.Article) (*llmResult, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	result, err := n.callOnce(ctx, buildPayload(selected))
	if err == nil {
		return result, nil
	}

	switch llm.Classify(err) {
	case llm.ErrClassContextLengthExceeded:
		slog.Warn("neutralize: context length exceeded, retrying with shortest sources",
			slog.Int64("group_id", groupID))
		if err := n.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		result, fallbackErr := n.callOnce(ctx, shortestSourcesFallback(selected))
		if fallbackErr == nil {
			return result, nil
		}
		return nil, fmt.Errorf("%w: context length exceeded on fallback too: %v", ErrRateLimited, fallbackErr)

	case llm.ErrClassRateLimited, llm.ErrClassInsufficientQuota:
		return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	if errors.Is(err, ErrInvalidPayload) {
		return nil, err
	}

	lastErr := err
	for attempt, delay := range transientBackoff {
		slog.Warn("neutralize: llm call failed, retrying",
			slog.Int("attempt", attempt+1), slog.Int64("group_id", groupID), slog.Any("error", lastErr))
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
		if err := n.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		result, lastErr = n.callOnce(ctx, buildPayload(selected))
		if lastErr == nil {
			return result, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrGivingUp, lastErr)
}

func (n *Neutralizer) callOnce(ctx context.Context, sources []llm.SourceInput) (*llmResult, error) {
	raw, err := n.provider.Complete(ctx, llm.SystemPrompt, llm.BuildUserPrompt(sources))
	if err != nil {
		return nil, err
	}

	var result llmResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if result.Relevance < 1 || result.Relevance > 5 {
		return nil, fmt.Errorf("%w: relevance %d out of range [1,5]", ErrInvalidPayload, result.Relevance)
	}
	if result.NeutralTitle == "" || result.NeutralDescription == "" {
		return nil, fmt.Errorf("%w: missing neutral_title or neutral_description", ErrInvalidPayload)
	}
	return &result, nil
}

// unassignDropped clears group_id on every article SelectSources cut
// (§4.7 steps 3b/3d) and, when the group already existed in the store,
// also removes it from the NeutralGroup's source_ids so the two
// one-way references (article.group_id, group.source_ids) stay
// reconciled rather than drifting apart.
func (n *Neutralizer) unassignDropped(ctx context.Context, groupID int64, dropped []*entity.Article, isUpdate bool) error {
	for _, a := range dropped {
		if err := n.store.UpdateGroupID(ctx, a.ArticleID, nil); err != nil {
			return err
		}
		if isUpdate {
			if err := n.store.RemoveSourceFromGroup(ctx, groupID, a.ArticleID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (n *Neutralizer) patchSourceIDsOnly(ctx context.Context, groupID int64, selected []*entity.Article) error {
	sourceIDs := articleIDs(selected)
	return n.store.PatchGroup(ctx, groupID, repository.GroupPatch{SourceIDs: sourceIDs})
}

func (n *Neutralizer) persist(ctx context.Context, job GroupJob, kind ChangeKind, selected []*entity.Article, result *llmResult) error {
	ratings := result.ratingsByOutlet()
	imageURL, imageMedium := mostNeutralImage(selected, ratings)
	date := oldestPubDateClamped(selected)
	sourceIDs := articleIDs(selected)

	switch kind {
	case KindNew:
		group := &entity.NeutralGroup{
			GroupID:            job.GroupID,
			NeutralTitle:       result.NeutralTitle,
			NeutralDescription: result.NeutralDescription,
			Category:           result.Category,
			Relevance:          result.Relevance,
			SourceIDs:          sourceIDs,
			ImageURL:           imageURL,
			ImageMedium:        imageMedium,
			Date:               date,
		}
		if err := n.store.PutGroup(ctx, group); err != nil {
			return err
		}
	case KindChanged:
		patch := repository.GroupPatch{
			NeutralTitle:       &result.NeutralTitle,
			NeutralDescription: &result.NeutralDescription,
			Category:           &result.Category,
			Relevance:          &result.Relevance,
			SourceIDs:          sourceIDs,
			Date:               &date,
		}
		if imageURL != "" {
			patch.ImageURL = &imageURL
			patch.ImageMedium = &imageMedium
		}
		if err := n.store.PatchGroup(ctx, job.GroupID, patch); err != nil {
			return err
		}
	}

	for _, m := range selected {
		rating, ok := ratings[m.Outlet]
		if !ok {
			continue
		}
		if m.NeutralScore != nil && *m.NeutralScore == rating {
			continue
		}
		if err := n.store.UpdateNeutralScore(ctx, m.ArticleID, rating); err != nil {
			return err
		}
	}
	return nil
}

func articleIDs(members []*entity.Article) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ArticleID
	}
	return ids
}

// oldestPubDateClamped returns the oldest PubDate among members, clamped
// to at most 3 days in the past (get_oldest_pub_date's cutoff_date rule),
// so a stray old source doesn't push a fresh group's display date back
// indefinitely.
func oldestPubDateClamped(members []*entity.Article) time.Time {
	oldest := members[0].PubDate
	for _, m := range members[1:] {
		if m.PubDate.Before(oldest) {
			oldest = m.PubDate
		}
	}
	cutoff := time.Now().AddDate(0, 0, -3)
	if oldest.Before(cutoff) {
		return cutoff
	}
	return oldest
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
