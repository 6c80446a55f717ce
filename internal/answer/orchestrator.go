// Package answer orchestrates a question through the guard, retrieval
// and generation stages and assembles the final response with
// provenance.
package answer

import (
	"context"
	"strings"

	"github.com/minber-ai/minber/internal/core"
	"github.com/minber-ai/minber/internal/guard"
	"github.com/minber-ai/minber/internal/llm"
	"github.com/minber-ai/minber/internal/logger"
)

// Fixed response texts. The guard refusals and the degraded apology are
// stable strings so clients can rely on them.
const (
	refusalNonReligious = "Üzgünüm, sadece dini konularda yardımcı olabilirim. Lütfen İslam, Kuran, hadis veya diğer dini konular hakkında soru sorun."
	refusalInjection    = "Lütfen sadece dini sorular sorun. Sistem komutları veya rol değiştirme girişimleri kabul edilmez."
	degradedApology     = "Üzgünüm, şu anda teknik bir sorun yaşıyoruz. Lütfen daha sonra tekrar deneyin."
)

// VerdictRecorder appends guard verdicts to an audit trail. Failures are
// the recorder's problem; the orchestrator never blocks on it.
type VerdictRecorder interface {
	Record(ctx context.Context, userID, sessionID, message string, verdict guard.Verdict) error
}

// Orchestrator answers questions using retrieval-augmented generation.
type Orchestrator struct {
	embedder core.EmbedService
	store    core.VectorStore
	chat     core.ChatService
	recorder VerdictRecorder

	matchThreshold float32
	matchCount     int
}

// NewOrchestrator creates an orchestrator. recorder may be nil when no
// audit trail is configured.
func NewOrchestrator(embedder core.EmbedService, store core.VectorStore, chat core.ChatService, recorder VerdictRecorder, matchThreshold float32, matchCount int) *Orchestrator {
	if matchCount <= 0 {
		matchCount = 3
	}
	return &Orchestrator{
		embedder:       embedder,
		store:          store,
		chat:           chat,
		recorder:       recorder,
		matchThreshold: matchThreshold,
		matchCount:     matchCount,
	}
}

// Ask runs the request state machine:
//
//	received → guard-checked → (blocked) | retrieving → context-assembled
//	         → generating → (answered | provider-failed)
//
// Guard blocks and provider failures both produce well-formed answers;
// nothing here is fatal to the request.
func (o *Orchestrator) Ask(ctx context.Context, message, userID, sessionID string) (core.Answer, error) {
	if strings.TrimSpace(message) == "" {
		return core.Answer{}, &core.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if strings.TrimSpace(userID) == "" {
		return core.Answer{}, &core.ValidationError{Field: "userId", Reason: "must not be empty"}
	}

	// Guard check before any provider call: blocked questions cost
	// nothing.
	verdict := guard.Classify(message)
	o.record(ctx, userID, sessionID, message, verdict)

	if !verdict.IsReligious {
		// Injection takes precedence in the reported reason when both
		// branches hold.
		if verdict.HasInjection {
			return blockedAnswer(core.ReasonPromptInjection), nil
		}
		return blockedAnswer(core.ReasonNonReligious), nil
	}
	if verdict.HasInjection {
		return blockedAnswer(core.ReasonPromptInjection), nil
	}

	// Embed the query. Provider failure degrades the service, it does
	// not error the request.
	queryVector, err := o.embedder.EmbedText(ctx, message)
	if err != nil {
		logger.Error("Failed to embed query for user %s: %v", userID, err)
		return core.Answer{Response: degradedApology, Blocked: false}, nil
	}

	// Retrieve context. A failed or empty search means answering without
	// context, not failing.
	results, err := o.store.Search(ctx, queryVector, o.matchThreshold, o.matchCount)
	if err != nil {
		logger.Error("Context search failed for user %s: %v", userID, err)
		results = nil
	}
	logger.Debug("Retrieved %d context chunks for user %s", len(results), userID)

	systemPrompt := llm.BuildSystemPrompt(results)

	generated, err := o.chat.Complete(ctx, systemPrompt, message)
	if err != nil {
		logger.Error("Chat completion failed for user %s: %v", userID, err)
		return core.Answer{Response: degradedApology, Blocked: false}, nil
	}
	if generated == "" {
		generated = "Yanıt üretilemedi."
	}

	// Screen the generated text as well: a model echoing an override
	// attempt must not reach the client.
	if guard.HasInjection(generated) {
		logger.Warn("Generated answer for user %s tripped the injection screen", userID)
		return blockedAnswer(core.ReasonPromptInjection), nil
	}

	return core.Answer{
		Response: generated,
		Blocked:  false,
		Sources:  distinctSources(results),
	}, nil
}

func (o *Orchestrator) record(ctx context.Context, userID, sessionID, message string, verdict guard.Verdict) {
	if o.recorder == nil {
		return
	}
	// Write-and-forget: the recorder logs its own failures.
	_ = o.recorder.Record(ctx, userID, sessionID, message, verdict)
}

func blockedAnswer(reason string) core.Answer {
	text := refusalNonReligious
	if reason == core.ReasonPromptInjection {
		text = refusalInjection
	}
	return core.Answer{
		Response: text,
		Blocked:  true,
		Reason:   reason,
	}
}

// distinctSources returns the document names of the retrieved chunks in
// retrieval order with duplicates removed.
func distinctSources(results []core.SearchResult) []string {
	if len(results) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(results))
	sources := make([]string, 0, len(results))
	for _, res := range results {
		if _, ok := seen[res.DocumentName]; ok {
			continue
		}
		seen[res.DocumentName] = struct{}{}
		sources = append(sources, res.DocumentName)
	}
	return sources
}
