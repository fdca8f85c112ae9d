package smoke

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"golang.org/x/time/rate"

	"github.com/tahcohcat/qwen-tts-web/internal/tts"
)

var (
	titleColour   = color.New(color.FgCyan, color.Bold)
	passColour    = color.New(color.FgGreen)
	failColour    = color.New(color.FgRed, color.Bold)
	skipColour    = color.New(color.FgYellow)
	summaryColour = color.New(color.FgBlue)
)

type CaseError struct {
	Case  string `json:"case"`
	Error string `json:"error"`
}

type Results struct {
	Passed  int         `json:"passed"`
	Failed  int         `json:"failed"`
	Skipped int         `json:"skipped"`
	Total   int         `json:"total"`
	Errors  []CaseError `json:"errors"`
}

// SuccessRate is the passed share of all cases, in percent.
func (r *Results) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Total) * 100
}

// Runner drives cases through a Synthesizer, one at a time.
type Runner struct {
	synth      tts.Synthesizer
	credential string
	limiter    *rate.Limiter
	out        io.Writer
}

type Option func(*Runner)

// WithRate paces calls to perSecond with the given burst; zero disables pacing.
func WithRate(perSecond float64, burst int) Option {
	return func(r *Runner) {
		if perSecond <= 0 {
			r.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

func NewRunner(synth tts.Synthesizer, credential string, opts ...Option) *Runner {
	r := &Runner{
		synth:      synth,
		credential: credential,
		limiter:    rate.NewLimiter(rate.Every(2*time.Second), 1),
		out:        color.Output,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Run(ctx context.Context, cases []Case) (*Results, error) {
	results := &Results{Errors: []CaseError{}}
	titleColour.Fprintf(r.out, "Running %d cases against %s\n\n", len(cases), r.synth.Name())

	for _, c := range cases {
		if r.limiter != nil && c.Expect != ExpectValidation {
			if err := r.limiter.Wait(ctx); err != nil {
				return results, fmt.Errorf("smoke run interrupted: %w", err)
			}
		}

		results.Total++
		skipped, err := r.runCase(ctx, c)
		switch {
		case skipped:
			results.Skipped++
			skipColour.Fprintf(r.out, "SKIP %s: rate limited\n", c.Name)
		case err != nil:
			results.Failed++
			results.Errors = append(results.Errors, CaseError{Case: c.Name, Error: err.Error()})
			failColour.Fprintf(r.out, "FAIL %s: %v\n", c.Name, err)
		default:
			results.Passed++
			passColour.Fprintf(r.out, "PASS %s\n", c.Name)
		}
	}

	r.printSummary(results)
	return results, nil
}

func (r *Runner) runCase(ctx context.Context, c Case) (skipped bool, err error) {
	credential := r.credential
	if c.Credential != "" {
		credential = c.Credential
	}

	resp, err := r.synth.Synthesize(ctx, credential, tts.Request{Text: c.Text, Voice: c.Voice, Streaming: true})
	if tts.KindOf(err) == tts.KindRateLimited {
		return true, nil
	}
	return false, check(c.Expect, resp, err)
}

func check(expect Expectation, resp tts.Response, err error) error {
	switch expect {
	case ExpectAudio:
		if err != nil {
			return err
		}
		if inline, ok := resp.(*tts.InlineAudio); ok && len(inline.Data) == 0 {
			return fmt.Errorf("inline audio is empty")
		}
		if hosted, ok := resp.(*tts.HostedAudio); ok && hosted.URL == "" {
			return fmt.Errorf("hosted audio has no url")
		}
		return nil
	case ExpectValidation:
		if tts.KindOf(err) != tts.KindValidation {
			return unexpected(expect, resp, err)
		}
	case ExpectAuthInvalid:
		if !tts.IsAuthInvalid(err) {
			return unexpected(expect, resp, err)
		}
	default:
		if err == nil {
			return unexpected(expect, resp, err)
		}
	}
	return nil
}

func unexpected(expect Expectation, resp tts.Response, err error) error {
	if err != nil {
		return fmt.Errorf("expected %s, got %v", expect, err)
	}
	return fmt.Errorf("expected %s, got %s audio", expect, resp.Kind())
}

func (r *Runner) printSummary(res *Results) {
	summaryColour.Fprintf(r.out, "\nTotal: %d  Passed: %d  Failed: %d  Skipped: %d\n",
		res.Total, res.Passed, res.Failed, res.Skipped)
	for _, e := range res.Errors {
		failColour.Fprintf(r.out, "  %s: %s\n", e.Case, e.Error)
	}
	summaryColour.Fprintf(r.out, "Success rate: %.1f%%\n", res.SuccessRate())
}
