package aiscorer

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/giygas/diagnostic-api/logging"
	"github.com/giygas/diagnostic-api/metrics"
)

const (
	DefaultTimeout     = 10 * time.Second
	maxEnhancedEntries = 7
)

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-•*]|\d+[.)])\s*`)

// Adapter wraps a Completer with a timeout and the local fallback. A nil
// completer is valid and always answers locally.
type Adapter struct {
	completer Completer
	timeout   time.Duration
}

func NewAdapter(completer Completer, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{completer: completer, timeout: timeout}
}

// Enabled reports whether an external provider is configured.
func (a *Adapter) Enabled() bool {
	return a != nil && a.completer != nil
}

// Diagnose never fails: provider errors, timeouts and unusable answers all
// produce LocalDiagnosis.
func (a *Adapter) Diagnose(ctx context.Context, req Request) *Diagnosis {
	if !a.Enabled() {
		metrics.ExternalScorerRequests.WithLabelValues("disabled").Inc()
		return LocalDiagnosis(req)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	content, err := a.completer.Complete(ctx, CompletionRequest{
		System:      diagnosticSystemPrompt,
		Prompt:      BuildPrompt(req),
		Temperature: diagnosticTemperature,
		MaxTokens:   diagnosticMaxTokens,
		JSON:        true,
	})
	if err != nil {
		metrics.ExternalScorerRequests.WithLabelValues("error").Inc()
		logging.Warn("External scorer call failed, using local diagnosis",
			"provider", a.completer.Name(),
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return LocalDiagnosis(req)
	}

	d, err := ParseDiagnosis(content, req)
	if err != nil {
		metrics.ExternalScorerRequests.WithLabelValues("invalid").Inc()
		logging.Warn("External scorer answer unusable, using local diagnosis",
			"provider", a.completer.Name(),
			"error", err)
		return LocalDiagnosis(req)
	}

	d.Source = a.completer.Name()
	metrics.ExternalScorerRequests.WithLabelValues("ok").Inc()
	logging.Debug("External scorer answered",
		"provider", d.Source,
		"primary", d.Primary.PathologyID,
		"duration_ms", time.Since(start).Milliseconds())
	return d
}

// EnhanceRecommendations asks the provider to rewrite current as up to seven
// bullet lines. current is returned unchanged on any failure.
func (a *Adapter) EnhanceRecommendations(ctx context.Context, pathologyName string, symptoms, current []string) []string {
	if !a.Enabled() {
		return current
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	content, err := a.completer.Complete(ctx, CompletionRequest{
		System:      enhanceSystemPrompt,
		Prompt:      buildEnhancePrompt(pathologyName, symptoms, current),
		Temperature: diagnosticTemperature,
		MaxTokens:   enhanceMaxTokens,
	})
	if err != nil {
		logging.Warn("Recommendation enhancement failed", "provider", a.completer.Name(), "error", err)
		return current
	}

	if lines := bulletLines(content, maxEnhancedEntries); len(lines) > 0 {
		return lines
	}
	return current
}

func bulletLines(content string, limit int) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if !bulletPrefix.MatchString(line) {
			continue
		}
		text := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if text == "" {
			continue
		}
		out = append(out, text)
		if len(out) == limit {
			break
		}
	}
	return out
}
