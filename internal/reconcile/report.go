package reconcile

import (
	"fmt"
	"strings"
	"time"
)

// Action is what happened to one candidate.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionCopied    Action = "copied"
	ActionKept      Action = "kept" // push left an existing image alone
	ActionFailed    Action = "failed"
)

// FileResult is the outcome for one candidate.
type FileResult struct {
	Name   string `json:"name"`
	Image  bool   `json:"image,omitempty"`
	Action Action `json:"action"`
	Error  string `json:"error,omitempty"`
}

// Report summarises one batch.
type Report struct {
	Direction Direction     `json:"direction"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
	Files     []FileResult  `json:"files"`

	Written       int `json:"written"`
	Unchanged     int `json:"unchanged"`
	ImagesCopied  int `json:"images_copied"`
	ImagesSkipped int `json:"images_skipped"`
	Failed        int `json:"failed"`
}

// Succeeded counts candidates processed without error.
func (r *Report) Succeeded() int {
	return r.Written + r.Unchanged + r.ImagesCopied + r.ImagesSkipped
}

func (r *Report) add(res FileResult) {
	switch res.Action {
	case ActionCreated, ActionUpdated:
		if res.Image {
			r.ImagesCopied++
		} else {
			r.Written++
		}
	case ActionCopied:
		r.ImagesCopied++
	case ActionUnchanged:
		if res.Image {
			r.ImagesSkipped++
		} else {
			r.Unchanged++
		}
	case ActionKept:
		r.ImagesSkipped++
	case ActionFailed:
		r.Failed++
	}
	r.Files = append(r.Files, res)
}

// Summary is the one-line human description stored in the activity log.
func (r *Report) Summary() string {
	verb := "Pushed"
	if r.Direction == Pull {
		verb = "Pulled"
	}
	return fmt.Sprintf("%s %d succeeded, %d failed (%d articles written, %d unchanged, %d images copied)",
		verb, r.Succeeded(), r.Failed, r.Written, r.Unchanged, r.ImagesCopied)
}

// Details lists one line per file that was written or failed.
func (r *Report) Details() []string {
	var out []string
	for _, f := range r.Files {
		switch f.Action {
		case ActionUnchanged, ActionKept:
			continue
		case ActionFailed:
			out = append(out, fmt.Sprintf("%s: failed: %s", f.Name, f.Error))
		default:
			out = append(out, fmt.Sprintf("%s: %s", f.Name, f.Action))
		}
	}
	return out
}

// String renders a multi-line summary for terminals.
func (r *Report) String() string {
	var b strings.Builder
	b.WriteString(r.Summary())
	for _, d := range r.Details() {
		b.WriteString("\n  ")
		b.WriteString(d)
	}
	return b.String()
}
