package diagnostic

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/giygas/diagnostic-api/entities"
	"github.com/giygas/diagnostic-api/interfaces"
	"github.com/giygas/diagnostic-api/logging"
	"github.com/giygas/diagnostic-api/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
)

var ErrNoKnowledgeBase = errors.New("no knowledge base")

// SnapshotSource provides the knowledge base to score against.
type SnapshotSource interface {
	GetSnapshot() (*interfaces.Snapshot, error)
}

type Options struct {
	MinResults    int
	MaxResults    int
	MinConfidence int
	CacheSize     int // 0 disables the result cache
}

func DefaultOptions() Options {
	return Options{
		MinResults:    DefaultMinResults,
		MaxResults:    DefaultMaxResults,
		MinConfidence: DefaultMinConfidence,
		CacheSize:     256,
	}
}

// Report is the full output of one diagnostic run.
type Report struct {
	Results              []entities.DiagnosticResult `json:"results"`
	Analysis             []SymptomAnalysis           `json:"analysis"`
	Patterns             PatternAnalysis             `json:"patterns"`
	KnowledgeBaseVersion uint64                      `json:"knowledgeBaseVersion,omitempty"`
	Emergency            bool                        `json:"emergency,omitempty"`
}

// Diagnose runs the pipeline against kb without caching or fail-safe.
// Empty selections yield an empty report.
func Diagnose(kb *entities.KnowledgeBase, selected []string, pctx *PatientContext, opts Options) (*Report, error) {
	if kb == nil {
		return nil, ErrNoKnowledgeBase
	}

	ids := CleanSymptomIDs(selected)
	if len(ids) == 0 {
		return emptyReport(), nil
	}

	analyzer := NewAnalyzer(KnowledgeBaseNames(kb))
	matched := NewMatcher(kb, opts.MinConfidence).Match(ids)

	return &Report{
		Results:  EnsureMinimum(matched, ids, opts.MinResults, opts.MaxResults, NewGenerator(kb, analyzer)),
		Analysis: analyzer.Analyze(ids, pctx),
		Patterns: DetectPatterns(ids),
	}, nil
}

// CleanSymptomIDs trims ids, drops empty ones and removes duplicates keeping the first occurrence.
func CleanSymptomIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func emptyReport() *Report {
	return &Report{
		Results:  []entities.DiagnosticResult{},
		Analysis: []SymptomAnalysis{},
		Patterns: PatternAnalysis{Patterns: []PatternMatch{}},
	}
}

// Engine is the injectable entry point used by the HTTP layer. It never fails:
// any error or panic while scoring produces the single emergency result.
// Reports may be shared between callers through the cache and must be treated as read-only.
type Engine struct {
	source SnapshotSource
	opts   Options
	cache  *lru.Cache[string, *Report]
}

func NewEngine(source SnapshotSource, opts Options) (*Engine, error) {
	e := &Engine{source: source, opts: opts}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, *Report](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create diagnostic cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

// RunDiagnostic returns between 1 and MaxResults results for any non-empty selection.
func (e *Engine) RunDiagnostic(selected []string, pctx *PatientContext) []entities.DiagnosticResult {
	return e.Run(selected, pctx).Results
}

func (e *Engine) Run(selected []string, pctx *PatientContext) (report *Report) {
	ids := CleanSymptomIDs(selected)
	if len(ids) == 0 {
		return emptyReport()
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Error("Diagnostic pipeline panicked",
				"panic", r,
				"symptoms", ids,
				"stack", string(debug.Stack()))
			report = e.emergency(ids)
		}
	}()

	snap, err := e.source.GetSnapshot()
	if err != nil {
		logging.Error("Diagnostic pipeline failed", "error", err, "symptoms", ids)
		return e.emergency(ids)
	}

	key := cacheKey(snap.Version, ids)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			recordResults(cached.Results)
			return cached
		}
	}

	report, err = Diagnose(snap.KB, ids, pctx, e.opts)
	if err != nil {
		logging.Error("Diagnostic pipeline failed", "error", err, "symptoms", ids)
		return e.emergency(ids)
	}
	report.KnowledgeBaseVersion = snap.Version

	if e.cache != nil {
		e.cache.Add(key, report)
	}
	recordResults(report.Results)

	logging.Debug("Diagnostic completed",
		"symptoms", len(ids),
		"results", len(report.Results),
		"kb_version", snap.Version)
	return report
}

// Purge drops every cached report.
func (e *Engine) Purge() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

func (e *Engine) emergency(ids []string) *Report {
	metrics.DiagnosticEmergencyTotal.Inc()
	results := []entities.DiagnosticResult{EmergencyResult(ids)}
	recordResults(results)
	return &Report{
		Results:   results,
		Analysis:  NewAnalyzer(nil).Analyze(ids, nil),
		Patterns:  DetectPatterns(ids),
		Emergency: true,
	}
}

func recordResults(results []entities.DiagnosticResult) {
	for _, r := range results {
		metrics.DiagnosticsTotal.WithLabelValues(string(r.AnalysisType)).Inc()
	}
}

func cacheKey(version uint64, ids []string) string {
	return strconv.FormatUint(version, 10) + "|" + strings.Join(ids, "\x1f")
}
