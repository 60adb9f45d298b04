package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ai-generation-platform/internal/domain/model"
	"ai-generation-platform/internal/domain/ports/adapter"
	"ai-generation-platform/internal/domain/ports/repository"
	"ai-generation-platform/internal/infra/metrics"
)

// ProviderResolver finds the adapter serving a vendor family.
type ProviderResolver interface {
	Resolve(vendor model.Vendor) (adapter.ProviderAdapter, error)
}

// GenerationOutcome is everything the HTTP layer needs to build a response.
// Success and failure are both ordinary outcomes here; Generate returns a Go
// error only when the request never got past validation.
type GenerationOutcome struct {
	Success bool
	URL     string
	Task    *model.ProviderTask

	// Failure fields
	Category    FailureCategory
	UserMessage string // sanitized, safe for the caller
	RawMessage  string // unredacted, server logs and admin callers only
	Refund      RefundOutcome
}

// TimedOut reports whether the failure was the poller exhausting its budget.
func (o *GenerationOutcome) TimedOut() bool {
	return o.Task != nil && o.Task.Status == model.TaskStatusTimedOut
}

var _ GenerationUseCase = (*generationUC)(nil)

// GenerationUseCase orchestrates one generation job end to end: submit, poll,
// classify, refund, sanitize. The caller has already debited the account.
type GenerationUseCase interface {
	Generate(ctx context.Context, accountID string, req *model.CanonicalJobRequest) (*GenerationOutcome, error)
	// CheckTask proxies a single status check for an in-flight vendor task.
	CheckTask(ctx context.Context, modelName, taskID string) (adapter.StatusResult, error)
	// ListGenerations pages through an account's finished generations.
	ListGenerations(ctx context.Context, accountID string, offset, limit int) ([]*model.GenerationRecord, error)
}

type generationUC struct {
	providers     ProviderResolver
	poller        *Poller
	classifier    *Classifier
	sanitizer     *Sanitizer
	refunds       *RefundEngine
	records       repository.GenerationRecordRepository
	imageAttempts int
	videoAttempts int
	log           *zerolog.Logger
}

func NewGenerationUseCase(
	providers ProviderResolver,
	poller *Poller,
	classifier *Classifier,
	sanitizer *Sanitizer,
	refunds *RefundEngine,
	records repository.GenerationRecordRepository,
	imageAttempts, videoAttempts int,
	log *zerolog.Logger,
) *generationUC {
	if imageAttempts <= 0 {
		imageAttempts = 60
	}
	if videoAttempts <= 0 {
		videoAttempts = 120
	}
	return &generationUC{
		providers:     providers,
		poller:        poller,
		classifier:    classifier,
		sanitizer:     sanitizer,
		refunds:       refunds,
		records:       records,
		imageAttempts: imageAttempts,
		videoAttempts: videoAttempts,
		log:           log,
	}
}

func (u *generationUC) Generate(ctx context.Context, accountID string, req *model.CanonicalJobRequest) (*GenerationOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	spec := req.Spec()
	cost := spec.Cost(req.DurationSeconds)

	// A disconnecting client must not abandon the job mid-flight: the vendor
	// keeps generating either way, and the refund decision has to be made.
	ctx = context.WithoutCancel(ctx)

	start := time.Now()
	prov, err := u.providers.Resolve(spec.Vendor)
	if err != nil {
		// Credentials missing mid-job: the debit already happened, so this
		// resolves like any other failure, refund included.
		task := model.NewProviderTask(req.JobID, "")
		_ = task.Fail(err.Error())
		return u.failed(ctx, accountID, req, task, cost, start), nil
	}

	sub, err := prov.Submit(ctx, req)
	if err != nil {
		task := model.NewProviderTask(req.JobID, "")
		_ = task.Fail(err.Error())
		return u.failed(ctx, accountID, req, task, cost, start), nil
	}

	task := model.NewProviderTask(req.JobID, sub.TaskID)
	u.log.Info().
		Str("job_id", req.JobID).
		Str("task_id", sub.TaskID).
		Str("model", req.VendorModel).
		Str("vendor", string(spec.Vendor)).
		Msg("generation task submitted")

	u.poller.Run(ctx, prov, task, sub, u.attemptBudget(spec.Kind))

	if task.Status == model.TaskStatusSucceeded {
		return u.succeeded(ctx, accountID, req, task, cost, start), nil
	}
	return u.failed(ctx, accountID, req, task, cost, start), nil
}

func (u *generationUC) attemptBudget(kind model.MediaKind) int {
	if kind == model.MediaKindVideo {
		return u.videoAttempts
	}
	return u.imageAttempts
}

func (u *generationUC) succeeded(ctx context.Context, accountID string, req *model.CanonicalJobRequest, task *model.ProviderTask, cost int64, start time.Time) *GenerationOutcome {
	spec := req.Spec()
	metrics.ObserveJob(string(spec.Vendor), req.VendorModel, string(task.Status), task.Attempts, time.Since(start))

	rec := &model.GenerationRecord{
		ID:              req.JobID,
		AccountID:       accountID,
		Vendor:          spec.Vendor,
		Model:           req.VendorModel,
		MediaKind:       req.MediaKind,
		Prompt:          req.Prompt,
		URL:             task.ResultURL,
		DurationSeconds: req.DurationSeconds,
		AspectRatio:     req.AspectRatio,
		CreditsSpent:    cost,
		CreatedAt:       time.Now(),
	}
	if err := u.records.Save(ctx, nil, rec); err != nil {
		// The user already has their media URL; losing the library row is
		// not worth failing the response over.
		u.log.Error().Err(err).Str("job_id", req.JobID).Msg("failed to save generation record")
	}

	u.log.Info().
		Str("job_id", req.JobID).
		Str("task_id", task.TaskID).
		Int("attempts", task.Attempts).
		Dur("duration", time.Since(start)).
		Msg("generation succeeded")
	return &GenerationOutcome{Success: true, URL: task.ResultURL, Task: task}
}

func (u *generationUC) failed(ctx context.Context, accountID string, req *model.CanonicalJobRequest, task *model.ProviderTask, cost int64, start time.Time) *GenerationOutcome {
	spec := req.Spec()
	metrics.ObserveJob(string(spec.Vendor), req.VendorModel, string(task.Status), task.Attempts, time.Since(start))

	raw := task.FailureReason
	category := u.classifier.Classify(raw)

	u.log.Error().
		Str("job_id", req.JobID).
		Str("task_id", task.TaskID).
		Str("status", string(task.Status)).
		Str("category", string(category)).
		Str("vendor_message", raw).
		Msg("generation failed")

	refund := u.refunds.Refund(ctx, accountID, req.JobID, cost, category)

	return &GenerationOutcome{
		Task:        task,
		Category:    category,
		UserMessage: u.userMessage(category, task, raw),
		RawMessage:  raw,
		Refund:      refund,
	}
}

// userMessage builds the outward error text. Moderation gets a standardized
// wording so users are not nudged into resubmitting the same content; other
// failures keep their diagnostic content, minus brand tokens.
func (u *generationUC) userMessage(category FailureCategory, task *model.ProviderTask, raw string) string {
	switch {
	case category == FailureModeration:
		return u.sanitizer.Sanitize("Didn't pass content review. Remove copyrighted names/brands or explicit content and try again.")
	case task.Status == model.TaskStatusTimedOut:
		return u.sanitizer.Sanitize("Generation took too long and timed out. Please try again.")
	default:
		return u.sanitizer.Sanitize("Generation failed: " + raw)
	}
}

func (u *generationUC) ListGenerations(ctx context.Context, accountID string, offset, limit int) ([]*model.GenerationRecord, error) {
	return u.records.ListByAccount(ctx, nil, accountID, offset, limit)
}

func (u *generationUC) CheckTask(ctx context.Context, modelName, taskID string) (adapter.StatusResult, error) {
	spec, err := model.LookupModel(modelName)
	if err != nil {
		return adapter.StatusResult{}, err
	}
	prov, err := u.providers.Resolve(spec.Vendor)
	if err != nil {
		return adapter.StatusResult{}, err
	}
	return prov.CheckStatus(ctx, adapter.Submission{TaskID: taskID})
}
