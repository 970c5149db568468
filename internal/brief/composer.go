package brief

import (
	"context"
	"log/slog"
	"time"
)

// MinTimeout is the floor applied to every model call.
const MinTimeout = 3 * time.Second

// Request is one model call.
type Request struct {
	Model     string
	System    string
	User      string
	WebSearch bool
}

// Response is the raw model text and the URLs it cited.
type Response struct {
	Text      string
	Citations []string
}

// Model generates a response for a request.
type Model interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// Composer runs the model cascade: primary with web search, primary without
// it, then the fallback model, then the local brief.
type Composer struct {
	Model         Model // nil means no API key was configured
	PrimaryModel  string
	FallbackModel string
	WebSearch     bool
	Timeout       time.Duration
	Logger        *slog.Logger
}

// Result is the composed brief and how it was produced.
type Result struct {
	Fallback      bool     `json:"fallback"`
	Reason        string   `json:"reason,omitempty"`
	WebSearchUsed bool     `json:"webSearchUsed"`
	Model         string   `json:"model,omitempty"`
	Brief         Brief    `json:"brief"`
	Findings      Findings `json:"findings"`
}

const (
	reasonMissingKey    = "ANTHROPIC_API_KEY missing"
	reasonEmptyResponse = "Empty model response"
)

// attempt is one parsed model call.
type attempt struct {
	brief     Brief
	citations []string
	ok        bool
}

// Compose never fails: any model problem ends in the local brief with the
// reason recorded.
func (c *Composer) Compose(ctx context.Context, in Input) Result {
	findings := BuildFindings(in)
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	local := func(reason string) Result {
		log.Warn("brief fallback", "reason", reason)
		return Result{Fallback: true, Reason: reason, Brief: LocalBrief(in), Findings: findings}
	}
	if c.Model == nil {
		return local(reasonMissingKey)
	}

	user, err := UserPrompt(in, findings)
	if err != nil {
		return local(err.Error())
	}
	system := SystemPrompt()

	model := c.PrimaryModel
	res, err := c.call(ctx, Request{Model: model, System: system, User: user, WebSearch: c.WebSearch}, findings)
	if (err != nil || !res.ok) && c.WebSearch {
		log.Info("retrying brief without web search", "model", model, "err", err)
		res, err = c.call(ctx, Request{Model: model, System: system, User: user}, findings)
	}
	webUsed := c.WebSearch && len(res.citations) > 0
	if (err != nil || !res.ok || res.brief.empty()) && c.FallbackModel != "" && c.FallbackModel != c.PrimaryModel {
		log.Info("trying fallback model", "model", c.FallbackModel, "err", err)
		model = c.FallbackModel
		res, err = c.call(ctx, Request{Model: model, System: system, User: user}, findings)
		webUsed = false
	}
	if err != nil {
		return local(err.Error())
	}
	if !res.ok || res.brief.empty() {
		return local(reasonEmptyResponse)
	}
	return Result{WebSearchUsed: webUsed, Model: model, Brief: res.brief, Findings: findings}
}

func (c *Composer) call(ctx context.Context, req Request, f Findings) (attempt, error) {
	ctx, cancel := context.WithTimeout(ctx, max(MinTimeout, c.Timeout))
	defer cancel()
	resp, err := c.Model.Generate(ctx, req)
	if err != nil {
		return attempt{}, err
	}
	obj, ok := ParseObject(resp.Text)
	if !ok {
		return attempt{citations: resp.Citations}, nil
	}
	return attempt{brief: Normalize(obj, resp.Citations, f), citations: resp.Citations, ok: true}, nil
}
