// Package policy evaluates the channel dispatch policy with OPA.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by the policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Input is the document a dispatch is judged on.
type Input struct {
	CampaignID string  `json:"campaign_id"`
	Channel    string  `json:"channel"`
	Recipients int     `json:"recipients"`
	Budget     float64 `json:"budget"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine prepares policyContent, which must define package channel_policy.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.channel_policy"),
		rego.Module("channel_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Load reads the policy at path, or uses DefaultPolicy when path is empty.
func Load(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy %s: %w", path, err)
	}
	return NewEngine(ctx, string(content))
}

// Evaluate returns the decision and an optional reason for in.
func (e *Engine) Evaluate(ctx context.Context, in Input) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(in))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, "", nil
	}

	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return DecisionAllow, "", nil
	}
	decision, _ := doc["decision"].(string)
	if decision == "" {
		decision = DecisionAllow
	}
	reason, _ := doc["reason"].(string)
	return decision, reason, nil
}

// DefaultPolicy blocks oversized sends.
const DefaultPolicy = `
package channel_policy

default decision = "allow"

default reason = ""

decision = "block" {
	input.recipients > 1000000
}

reason = "recipient count exceeds 1000000" {
	input.recipients > 1000000
}
`
