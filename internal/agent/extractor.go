// Package agent runs the LLM-driven extraction loop behind POST /parse: open
// a headless page, let the model clear whatever hides the content, then pull
// the page text through the readability pipeline.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/contextman/contextman/internal/browser"
	"github.com/contextman/contextman/internal/extract"
	"github.com/contextman/contextman/internal/llm"
)

// ErrNoContent reports an extraction run that completed without producing
// any text. The HTTP layer maps it to a dedicated 500 detail.
var ErrNoContent = errors.New("the browser agent failed to extract content")

const stepPause = 1 * time.Second

type Extractor struct {
	decider   llm.Decider
	converter *extract.Converter
	logger    *slog.Logger
	maxSteps  int
	browser   browser.Options
}

func NewExtractor(decider llm.Decider, converter *extract.Converter, logger *slog.Logger, maxSteps int, browserOpts browser.Options) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSteps <= 0 {
		maxSteps = 8
	}
	return &Extractor{
		decider:   decider,
		converter: converter,
		logger:    logger,
		maxSteps:  maxSteps,
		browser:   browserOpts,
	}
}

// Extract loads pageURL in a private browser session, runs the decide/act
// loop until the model judges the content visible, and returns the extracted
// markdown text. An empty extraction returns ErrNoContent.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (string, error) {
	task := BuildTask(pageURL)

	sess, err := browser.NewSession(ctx, e.browser)
	if err != nil {
		return "", err
	}
	defer sess.Close()

	if err := sess.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate to %s failed: %w", pageURL, err)
	}

	if err := e.prepare(ctx, sess, task, pageURL); err != nil {
		return "", err
	}

	html, err := sess.HTML()
	if err != nil {
		return "", err
	}

	result, err := e.converter.Convert(pageURL, html)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(result.Markdown)
	if text == "" {
		return "", ErrNoContent
	}

	e.logger.Info("extraction finished",
		"url", pageURL, "title", result.Title, "bytes", len(text))
	return text, nil
}

// prepare runs the decide/act loop until the model asks for extraction. The
// loop ending by step budget is not an error: whatever is on the page at
// that point gets extracted.
func (e *Extractor) prepare(ctx context.Context, sess *browser.Session, task, pageURL string) error {
	originHost := hostOf(pageURL)
	mem := NewStepMemory(10, 3)

	for step := 1; step <= e.maxSteps; step++ {
		snap, err := sess.Snapshot()
		if err != nil {
			return err
		}

		// The task forbids leaving the page; if a click slipped through to
		// another host, go back and tell the model what happened.
		if originHost != "" && hostOf(snap.URL) != originHost {
			e.logger.Warn("agent left the target host, returning",
				"url", snap.URL, "origin", originHost)
			mem.AddSystemNote("SYSTEM NOTE: The last action navigated away from the target page. Navigation was undone. Do not click links that leave the page.")
			if err := sess.Navigate(pageURL); err != nil {
				return fmt.Errorf("return to %s failed: %w", pageURL, err)
			}
			continue
		}

		decision, err := e.decider.DecideAction(ctx, llm.DecisionInput{
			Task:       task,
			DOMTree:    snap.Tree,
			CurrentURL: snap.URL,
			History:    mem.HistoryString(),
		})
		if err != nil {
			return err
		}

		e.logger.Info("agent step",
			"step", step, "url", snap.URL,
			"action", decision.Action.Type, "target", decision.Action.TargetID,
			"thought", decision.Thought)

		if decision.Action.Type == llm.ActionExtract {
			return nil
		}

		if blocked, reason := mem.ShouldBlock(snap.URL, decision.Action); blocked {
			if mem.LoopTriggered() {
				// Second strike: stop steering and extract what is there.
				e.logger.Warn("loop guard exhausted, extracting", "step", step)
				return nil
			}
			mem.AddSystemNote(reason)
			mem.MarkLoopTriggered()
			continue
		}

		if err := e.executeAction(sess, decision.Action); err != nil {
			mem.AddSystemNote(fmt.Sprintf("SYSTEM ERROR: %v", err))
		} else {
			mem.Add(step, snap.URL, decision.Action)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(stepPause):
		}
	}

	e.logger.Warn("agent step budget exhausted, extracting", "max_steps", e.maxSteps)
	return nil
}

func (e *Extractor) executeAction(sess *browser.Session, action llm.Action) error {
	switch action.Type {
	case llm.ActionClick:
		if action.TargetID == 0 {
			return fmt.Errorf("click without target_id")
		}
		return sess.Click(action.TargetID)
	case llm.ActionScroll:
		return sess.ScrollDown()
	default:
		return fmt.Errorf("unknown action type: %s", action.Type)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
