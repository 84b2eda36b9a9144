// pkg/templates/render.go
//
// Bounded template rendering. Rendering is pure (no side effects) and
// strict: an unresolved placeholder fails the render rather than leaving
// literal template text in an active config file. Size, timeout, and rate
// bounds keep a bad template from hanging or flooding the pipeline.

package templates

import (
	"bytes"
	"context"
	"sync"
	"text/template"
	"time"

	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// MaxTemplateSize bounds template input.
	MaxTemplateSize = 1 * 1024 * 1024

	// RenderTimeout bounds a single render.
	RenderTimeout = 30 * time.Second

	rateLimitPerMinute = 30
	rateLimitBurst     = 10
)

var (
	renderLimiter = rate.NewLimiter(rate.Every(time.Minute/rateLimitPerMinute), rateLimitBurst)
	limiterMu     sync.Mutex
)

// Renderer renders text templates with missing-key errors enabled.
type Renderer struct {
	logger *zap.Logger
}

// NewRenderer creates a renderer; a nil logger means the global one.
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.L()
	}
	return &Renderer{logger: logger.Named("templates")}
}

// RenderString renders tmplStr with data. Identical inputs yield identical
// output bytes, which is what lets callers skip rewriting unchanged files.
func (r *Renderer) RenderString(ctx context.Context, tmplStr string, data any) (string, error) {
	limiterMu.Lock()
	allowed := renderLimiter.Allow()
	limiterMu.Unlock()
	if !allowed {
		return "", cerr.Newf("template render rate limit exceeded (max %d/min)", rateLimitPerMinute)
	}

	if len(tmplStr) > MaxTemplateSize {
		return "", cerr.Newf("template size %d exceeds limit %d", len(tmplStr), MaxTemplateSize)
	}

	tmpl, err := template.New("render").Option("missingkey=error").Parse(tmplStr)
	if err != nil {
		return "", cerr.Wrap(err, "parse template")
	}

	renderCtx, cancel := context.WithTimeout(ctx, RenderTimeout)
	defer cancel()

	resultCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			errCh <- cerr.Wrap(err, "execute template")
			return
		}
		resultCh <- buf.String()
	}()

	select {
	case <-renderCtx.Done():
		return "", cerr.Newf("template render timed out after %s", RenderTimeout)
	case err := <-errCh:
		return "", err
	case result := <-resultCh:
		r.logger.Debug("Template rendered", zap.Int("output_size", len(result)))
		return result, nil
	}
}
