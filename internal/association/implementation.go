// internal/association/implementation.go
package association

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SuccessMessage is shown after a draft has been handed to the submitter.
const SuccessMessage = "Association created successfully!"

// workflow implements the Workflow interface.
type workflow struct {
	store     *Store
	selector  *Selector
	submitter Submitter
	logger    *zap.Logger
	tracer    trace.Tracer

	submissions        metric.Int64Counter
	validationFailures metric.Int64Counter
}

// NewWorkflow starts a workflow with a fresh draft. The candidate pool is
// fetched from dir once and never refreshed.
func NewWorkflow(ctx context.Context, dir Directory, submitter Submitter, logger *zap.Logger) (Workflow, error) {
	tracer := otel.Tracer("njangi/association")
	ctx, span := tracer.Start(ctx, "association.workflow.start")
	defer span.End()

	pool, err := dir.ListMembers(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list members")
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	span.SetAttributes(attribute.Int("candidate.count", len(pool)))

	meter := otel.Meter("njangi/association")
	submissions, err := meter.Int64Counter("association.submissions",
		metric.WithDescription("Drafts handed to the submitter"))
	if err != nil {
		return nil, fmt.Errorf("failed to create submissions counter: %w", err)
	}
	validationFailures, err := meter.Int64Counter("association.validation_failures",
		metric.WithDescription("Submit attempts rejected by validation"))
	if err != nil {
		return nil, fmt.Errorf("failed to create validation counter: %w", err)
	}

	store := NewStore()
	return &workflow{
		store:              store,
		selector:           NewSelector(store, pool),
		submitter:          submitter,
		logger:             logger,
		tracer:             tracer,
		submissions:        submissions,
		validationFailures: validationFailures,
	}, nil
}

func (w *workflow) Draft() Draft {
	return w.store.Draft()
}

func (w *workflow) Errors() ValidationErrors {
	return w.store.Errors()
}

func (w *workflow) EditField(field, raw string) {
	w.store.EditField(field, raw)
}

func (w *workflow) SetSearchTerm(term string) {
	w.selector.SetSearchTerm(term)
}

func (w *workflow) ToggleDropdown() {
	w.selector.ToggleDropdown()
}

func (w *workflow) FilteredCandidates() []Member {
	return w.selector.FilteredCandidates()
}

func (w *workflow) Candidate(id string) (Member, bool) {
	return w.selector.Candidate(id)
}

func (w *workflow) AddMember(m Member) {
	w.selector.AddMember(m)
}

func (w *workflow) RemoveMember(id string) {
	w.selector.RemoveMember(id)
}

// Submit validates the draft and writes the result back to the store. A
// valid draft is passed to the submitter and then reset. If the submitter
// fails the draft is kept and the error returned.
func (w *workflow) Submit(ctx context.Context, actor Actor) (ValidationErrors, error) {
	ctx, span := w.tracer.Start(ctx, "association.workflow.submit",
		trace.WithAttributes(
			attribute.String("actor.id", actor.ID),
		),
	)
	defer span.End()

	draft := w.store.Draft()
	errs := Validate(draft)
	w.store.setErrors(errs)

	span.SetAttributes(
		attribute.Int("member.count", len(draft.Members)),
		attribute.Int("error.count", len(errs)),
	)

	if !errs.Valid() {
		w.validationFailures.Add(ctx, 1)
		w.logger.Debug("association draft rejected",
			zap.String("actor_id", actor.ID),
			zap.Int("errors", len(errs)),
		)
		return errs, nil
	}

	if err := w.submitter.SubmitAssociation(ctx, actor, draft); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit association")
		w.logger.Error("failed to submit association",
			zap.String("actor_id", actor.ID),
			zap.String("name", draft.Name),
			zap.Error(err),
		)
		return errs, fmt.Errorf("failed to submit association: %w", err)
	}

	w.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("frequency", string(draft.ContributionFrequency)),
	))
	w.logger.Info("association submitted",
		zap.String("actor_id", actor.ID),
		zap.String("name", draft.Name),
		zap.Int("members", len(draft.Members)),
	)

	w.store.Reset()
	return errs, nil
}

// View snapshots the workflow state for rendering.
func (w *workflow) View() View {
	candidates := w.selector.FilteredCandidates()
	v := View{
		Draft:        w.store.Draft(),
		Errors:       w.store.Errors(),
		SearchTerm:   w.selector.SearchTerm(),
		DropdownOpen: w.selector.DropdownOpen(),
		Candidates:   candidates,
	}
	if len(candidates) == 0 {
		v.EmptyMessage = w.selector.EmptyMessage()
	}
	for _, f := range Frequencies() {
		v.Frequencies = append(v.Frequencies, FrequencyOption{Value: f, Label: f.Label()})
	}
	return v
}
