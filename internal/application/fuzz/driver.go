// Package fuzz drives repeated tool invocations over a wordlist.
package fuzz

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mcptap/mcptap/internal/application/invoke"
	"github.com/mcptap/mcptap/internal/domain/param"
	"github.com/mcptap/mcptap/internal/domain/target"
)

// DefaultPlaceholder is substituted with each wordlist entry.
const DefaultPlaceholder = "FUZZ"

// ToolInvoker executes a single tool invocation. *invoke.Runner satisfies it.
type ToolInvoker interface {
	Run(ctx context.Context, req invoke.Request) (*invoke.Outcome, error)
}

// Options configures a fuzzing run.
type Options struct {
	Spec        *target.Spec
	Tool        string
	RawParams   []string  // KEY=VALUE arguments, substituted per word
	FileParams  param.Map // parameter file entries, never substituted
	Placeholder string    // defaults to DefaultPlaceholder
}

// Iteration reports the outcome of one wordlist entry.
type Iteration struct {
	Index   int
	Total   int
	Word    string
	Outcome *invoke.Outcome
	Err     error
	Elapsed time.Duration
}

// Reporter receives each iteration's result as it completes.
type Reporter func(Iteration)

// Driver runs one invocation per wordlist entry, sequentially. A failing
// invocation is reported and the run continues with the next word.
type Driver struct {
	invoker ToolInvoker
}

// NewDriver creates a Driver.
func NewDriver(invoker ToolInvoker) *Driver {
	return &Driver{invoker: invoker}
}

// Run substitutes each word into the raw parameters and invokes the tool
// once per word. Parameter syntax errors introduced by substitution abort
// the run; invocation failures do not.
func (d *Driver) Run(ctx context.Context, opts Options, report Reporter, words []string) error {
	placeholder := opts.Placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}

	for i, word := range words {
		if err := ctx.Err(); err != nil {
			return err
		}

		params, err := substitute(opts.RawParams, placeholder, word)
		if err != nil {
			return fmt.Errorf("word %q: %w", word, err)
		}
		for key, value := range opts.FileParams {
			if _, exists := params[key]; !exists {
				params[key] = value
			}
		}

		start := time.Now()
		outcome, err := d.invoker.Run(ctx, invoke.Request{
			Spec:   opts.Spec,
			Tool:   opts.Tool,
			Params: params,
		})
		report(Iteration{
			Index:   i,
			Total:   len(words),
			Word:    word,
			Outcome: outcome,
			Err:     err,
			Elapsed: time.Since(start),
		})
	}
	return nil
}

// substitute replaces the placeholder in each raw KEY=VALUE pair before
// splitting, so words may land in keys as well as values.
func substitute(rawParams []string, placeholder, word string) (param.Map, error) {
	m := make(param.Map, len(rawParams))
	for _, raw := range rawParams {
		key, value, err := param.SplitPair(strings.ReplaceAll(raw, placeholder, word))
		if err != nil {
			return nil, err
		}
		m[key] = value
	}
	return m, nil
}

// LoadWordlist reads one word per line. Lines are taken verbatim: blank
// lines count as words, so request indices line up with line numbers.
func LoadWordlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wordlist %s: %w", path, err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wordlist %s: %w", path, err)
	}
	return words, nil
}
