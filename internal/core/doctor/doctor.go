// Package doctor runs offline health checks: tool resolution and
// configuration validity. Nothing here talks to a device.
package doctor

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Status is the outcome of one check item.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// CheckItem is one line of a check result, such as a resolved tool path or
// a config field error.
type CheckItem struct {
	Label  string `json:"label"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Result groups the items produced by one check.
type Result struct {
	Name  string      `json:"name"`
	Items []CheckItem `json:"items"`
}

// Check is a single named diagnostic.
type Check interface {
	Name() string
	Run(ctx context.Context) Result
}

// Tally counts items by status.
type Tally struct {
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
}

// Report is the combined outcome of a doctor run.
type Report struct {
	Results []Result
}

// Run executes checks concurrently. Results keep the order of checks.
func Run(ctx context.Context, checks ...Check) Report {
	results := make([]Result, len(checks))

	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			results[i] = check.Run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return Report{Results: results}
}

// Tally counts items across all results.
func (r Report) Tally() Tally {
	var t Tally
	for _, res := range r.Results {
		for _, item := range res.Items {
			switch item.Status {
			case StatusPass:
				t.Passed++
			case StatusWarn:
				t.Warned++
			case StatusFail:
				t.Failed++
			}
		}
	}
	return t
}

// Healthy reports whether no item failed. Warnings do not count.
func (r Report) Healthy() bool {
	return r.Tally().Failed == 0
}
