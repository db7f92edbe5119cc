// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mikedesigns-nvisia/asmbli/internal/log"
	"github.com/mikedesigns-nvisia/asmbli/internal/mcp"
)

// Gateway is the slice of the catalog gateway the router consumes.
type Gateway interface {
	ReadyServers() []string
	Capabilities(id string) (mcp.Capabilities, error)
	Invoke(ctx context.Context, id, tool string, args map[string]interface{}) (*mcp.ToolCallResult, error)
	ReadResource(ctx context.Context, id, uri string) (*mcp.ReadResourceResult, error)
}

// noCapabilityResponse is returned when nothing matched, including
// when no servers are enabled at all.
const noCapabilityResponse = "No enabled server offers a matching capability for this request."

// Router turns free-form request text into tool invocations across
// the ready servers. Routers are stateless per request and safe for
// concurrent use.
type Router struct {
	gw         Gateway
	classifier Classifier
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewRouter builds a router over a gateway with the default keyword
// classifier.
func NewRouter(gw Gateway, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		gw:         gw,
		classifier: KeywordClassifier{},
		logger:     log.WithComponent(logger, "bridge"),
		tracer:     otel.Tracer("asmbli/bridge"),
	}
}

// WithClassifier swaps the classification heuristic.
func (r *Router) WithClassifier(c Classifier) *Router {
	r.classifier = c
	return r
}

// Route classifies the request, fans matching invocations out across
// every ready server, and composes the results into one outcome.
// Branch failures land in the outcome; Route itself only fails on
// empty input.
func (r *Router) Route(ctx context.Context, text string) (*Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, mcp.NewError(mcp.ErrorCodeValidation, "request text is empty")
	}

	requestID := uuid.NewString()
	ctx, span := r.tracer.Start(ctx, "bridge.route",
		trace.WithAttributes(attribute.String("request.id", requestID)))
	defer span.End()

	logger := log.WithRequestID(r.logger, requestID)

	tags := r.classifier.Classify(text)
	words := splitWords(text)
	logger.Debug("classified request", slog.Any("tags", tags))

	var tools []toolCandidate
	var resources []resourceCandidate
	snapshot := make(map[string]mcp.Capabilities)
	for _, server := range r.gw.ReadyServers() {
		caps, err := r.gw.Capabilities(server)
		if err != nil {
			logger.Warn("skipping server, capabilities unavailable",
				slog.String(log.ServerKey, server), log.Error(err))
			continue
		}
		snapshot[server] = caps
		tools = append(tools, selectTools(server, caps.Tools, tags, words)...)
		resources = append(resources, selectResources(server, caps.Resources, tags, words)...)
	}

	outcome := &Outcome{RequestID: requestID, Tags: tags, Capabilities: snapshot}
	if len(tools) == 0 && len(resources) == 0 {
		outcome.Response = noCapabilityResponse
		return outcome, nil
	}

	outcome.Results = r.fanOut(ctx, text, tools, resources)
	outcome.Servers = contributingServers(outcome.Results)
	outcome.Response = compose(outcome.Results)

	logger.Info("request routed",
		slog.Int("invocations", len(outcome.Results)),
		slog.Int("servers", len(outcome.Servers)))
	return outcome, nil
}

// fanOut runs every selected invocation concurrently and joins all
// of them. A failing branch never cancels its siblings.
func (r *Router) fanOut(ctx context.Context, text string, tools []toolCandidate, resources []resourceCandidate) []InvocationResult {
	results := make([]InvocationResult, len(tools)+len(resources))
	var wg sync.WaitGroup

	for i, cand := range tools {
		wg.Add(1)
		go func(slot int, cand toolCandidate) {
			defer wg.Done()
			args := ExtractArgs(text, cand.Tool)
			res, err := r.gw.Invoke(ctx, cand.Server, cand.Tool.Name, args)
			results[slot] = InvocationResult{
				Server: cand.Server,
				Tool:   cand.Tool.Name,
				Args:   args,
				Result: res,
				Err:    err,
			}
			if err != nil {
				results[slot].Error = err.Error()
			}
		}(i, cand)
	}

	for i, cand := range resources {
		wg.Add(1)
		go func(slot int, cand resourceCandidate) {
			defer wg.Done()
			read, err := r.gw.ReadResource(ctx, cand.Server, cand.Resource.URI)
			results[slot] = InvocationResult{
				Server: cand.Server,
				URI:    cand.Resource.URI,
				Read:   read,
				Err:    err,
			}
			if err != nil {
				results[slot].Error = err.Error()
			}
		}(len(tools)+i, cand)
	}

	wg.Wait()
	return results
}

// contributingServers lists the distinct servers behind successful
// branches, sorted.
func contributingServers(results []InvocationResult) []string {
	seen := make(map[string]bool)
	for _, res := range results {
		if !res.Failed() {
			seen[res.Server] = true
		}
	}
	out := make([]string, 0, len(seen))
	for server := range seen {
		out = append(out, server)
	}
	sort.Strings(out)
	return out
}

// compose renders the joined results as one readable response:
// successes first, then resource previews, then failures, then the
// contributing-server line.
func compose(results []InvocationResult) string {
	var sb strings.Builder

	var failures []InvocationResult
	for _, res := range results {
		if res.Failed() {
			failures = append(failures, res)
			continue
		}
		switch {
		case res.Tool != "":
			fmt.Fprintf(&sb, "%s/%s:\n%s\n\n", res.Server, res.Tool, res.Preview())
		case res.URI != "":
			fmt.Fprintf(&sb, "resource %s (%s):\n%s\n\n", res.URI, res.Server, res.Preview())
		}
	}

	if len(failures) > 0 {
		sb.WriteString("Some invocations failed:\n")
		for _, res := range failures {
			target := res.Tool
			if target == "" {
				target = res.URI
			}
			fmt.Fprintf(&sb, "- %s/%s: %s\n", res.Server, target, truncate(res.Preview(), 200))
		}
		sb.WriteString("\n")
	}

	servers := contributingServers(results)
	if len(servers) > 0 {
		fmt.Fprintf(&sb, "Contributing servers: %s\n", strings.Join(servers, ", "))
	} else {
		sb.WriteString("No invocation succeeded.\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// Chunk is one piece of a streamed response. A chunk with Done set
// carries no text and marks the end of the stream.
type Chunk struct {
	Text string `json:"text,omitempty"`
	Done bool   `json:"done"`
}

// StreamRoute routes like Route but delivers the composed response
// line by line through onChunk, terminated by a done chunk. An
// onChunk error aborts the stream and is returned.
func (r *Router) StreamRoute(ctx context.Context, text string, onChunk func(Chunk) error) (*Outcome, error) {
	outcome, err := r.Route(ctx, text)
	if err != nil {
		return nil, err
	}

	for _, line := range strings.SplitAfter(outcome.Response, "\n") {
		if line == "" {
			continue
		}
		if err := onChunk(Chunk{Text: line}); err != nil {
			return outcome, err
		}
	}
	if err := onChunk(Chunk{Done: true}); err != nil {
		return outcome, err
	}
	return outcome, nil
}
