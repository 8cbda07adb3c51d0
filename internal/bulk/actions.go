package bulk

import (
	"fmt"
	"time"

	"github.com/partforge/quotewire/internal/destination"
	"github.com/partforge/quotewire/internal/models"
	"github.com/partforge/quotewire/internal/outreach"
	"gorm.io/gorm"
)

// Kind selects the operation a batch applies to every destination.
type Kind string

const (
	KindDraftOutreach       Kind = "draft_outreach"
	KindWebFormInstructions Kind = "web_form_instructions"
	KindMarkSent            Kind = "mark_sent"
	KindMarkError           Kind = "mark_error"
)

// ResultStatus is the terminal state of one item in a batch.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultError   ResultStatus = "error"
	ResultSkipped ResultStatus = "skipped"
)

// Result is one destination's outcome in a batch, plus any generated payload.
type Result struct {
	DestinationID string
	ProviderLabel string
	Status        ResultStatus
	Message       string

	Email   *outreach.EmailContent        // set for successful draft_outreach items
	WebForm *outreach.WebFormInstructions // set for successful web_form_instructions items
}

// BatchOpts holds optional parameters for a batch.
type BatchOpts struct {
	Concurrency int       // max operations in flight; default DefaultConcurrency
	ErrorNote   string    // shared message, required for mark_error
	Now         time.Time // injected transition time; zero means wall clock
}

// Summary counts terminal statuses across a batch for display.
type Summary struct {
	Success int
	Errors  int
	Skipped int
}

// Summarize tallies batch results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case ResultSuccess:
			s.Success++
		case ResultError:
			s.Errors++
		case ResultSkipped:
			s.Skipped++
		}
	}
	return s
}

// RunBatch applies one operation to a staff-selected set of destinations.
// One item's failure becomes that item's error result; siblings keep
// running. The returned error covers invalid batch parameters only.
func RunBatch(db *gorm.DB, gen outreach.Generator, dests []models.Destination, kind Kind, opts BatchOpts) ([]Result, error) {
	if db == nil {
		return nil, fmt.Errorf("bulk: db is required")
	}
	limit := opts.Concurrency
	if limit == 0 {
		limit = DefaultConcurrency
	}

	var op func(models.Destination) Result
	switch kind {
	case KindDraftOutreach, KindWebFormInstructions:
		if gen == nil {
			return nil, fmt.Errorf("bulk: content generator is required for %s", kind)
		}
		rfqs, err := loadRFQs(db, dests)
		if err != nil {
			return nil, err
		}
		if kind == KindDraftOutreach {
			op = draftOutreachOp(gen, rfqs)
		} else {
			op = webFormOp(gen, rfqs)
		}
	case KindMarkSent:
		op = transitionOp(db, destination.StatusSent, destination.TransitionContext{Now: opts.Now})
	case KindMarkError:
		if opts.ErrorNote == "" {
			return nil, fmt.Errorf("bulk: error note is required for mark_error")
		}
		op = transitionOp(db, destination.StatusError, destination.TransitionContext{Now: opts.Now, ErrorMessage: opts.ErrorNote})
	default:
		return nil, fmt.Errorf("bulk: unknown action kind %q", kind)
	}

	outcomes, err := Map(dests, limit, func(d models.Destination) (Result, error) {
		return op(d), nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(outcomes))
	for i, o := range outcomes {
		if o.Err != nil {
			// Panic inside an operation; keep the positional slot.
			results[i] = Result{
				DestinationID: dests[i].ID,
				ProviderLabel: providerLabel(dests[i]),
				Status:        ResultError,
				Message:       o.Err.Error(),
			}
			continue
		}
		results[i] = o.Value
	}
	return results, nil
}

// draftOutreachOp generates an outreach email for email-mode destinations.
func draftOutreachOp(gen outreach.Generator, rfqs map[string]models.RFQ) func(models.Destination) Result {
	return func(d models.Destination) Result {
		res := Result{DestinationID: d.ID, ProviderLabel: providerLabel(d)}
		if destination.DispatchMode(d.DispatchMode) != destination.ModeEmail {
			res.Status = ResultSkipped
			res.Message = "email only."
			return res
		}
		content, err := gen.EmailContent(rfqs[d.RFQID], d)
		if err != nil {
			res.Status = ResultError
			res.Message = err.Error()
			return res
		}
		res.Status = ResultSuccess
		res.Message = "outreach email drafted"
		res.Email = &content
		return res
	}
}

// webFormOp generates submission instructions for web-form destinations.
func webFormOp(gen outreach.Generator, rfqs map[string]models.RFQ) func(models.Destination) Result {
	return func(d models.Destination) Result {
		res := Result{DestinationID: d.ID, ProviderLabel: providerLabel(d)}
		if destination.DispatchMode(d.DispatchMode) != destination.ModeWebForm {
			res.Status = ResultSkipped
			res.Message = "web form only."
			return res
		}
		instr, err := gen.WebFormInstructions(rfqs[d.RFQID], d)
		if err != nil {
			res.Status = ResultError
			res.Message = err.Error()
			return res
		}
		res.Status = ResultSuccess
		res.Message = "web form instructions generated"
		res.WebForm = &instr
		return res
	}
}

// transitionOp applies one status transition per destination. Invalid
// transitions and validation failures become per-item error results.
func transitionOp(db *gorm.DB, target destination.Status, ctx destination.TransitionContext) func(models.Destination) Result {
	return func(d models.Destination) Result {
		res := Result{DestinationID: d.ID, ProviderLabel: providerLabel(d)}
		if _, err := destination.Transition(db, d.ID, target, ctx); err != nil {
			res.Status = ResultError
			res.Message = err.Error()
			return res
		}
		res.Status = ResultSuccess
		res.Message = fmt.Sprintf("marked %s", target)
		return res
	}
}

// loadRFQs fetches the RFQs referenced by a batch in one query.
func loadRFQs(db *gorm.DB, dests []models.Destination) (map[string]models.RFQ, error) {
	ids := make([]string, 0, len(dests))
	seen := make(map[string]bool)
	for _, d := range dests {
		if !seen[d.RFQID] {
			seen[d.RFQID] = true
			ids = append(ids, d.RFQID)
		}
	}
	result := make(map[string]models.RFQ, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rfqs []models.RFQ
	if err := db.Where("id IN ?", ids).Find(&rfqs).Error; err != nil {
		return nil, fmt.Errorf("bulk: load rfqs: %w", err)
	}
	for _, r := range rfqs {
		result[r.ID] = r
	}
	return result, nil
}

func providerLabel(d models.Destination) string {
	if d.ProviderName != "" {
		return d.ProviderName
	}
	return d.ProviderID
}
