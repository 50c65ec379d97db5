package manager

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"mlxd/internal/engine"
	"mlxd/internal/tools"
	"mlxd/pkg/types"
)

// Complete runs one generation, delivering events through send. The event
// sequence always ends with exactly one terminal event (done=true), even when
// the engine fails mid-stream; in that case the terminal event carries
// done_reason "error" and a failure class in its content. send errors abort
// delivery: the client is gone and there is nobody left to tell.
func (m *Manager) Complete(ctx context.Context, req types.CompletionRequest, send func(types.CompletionEvent) error) error {
	opts, err := m.normalizeOptions(req.Options)
	if err != nil {
		return err
	}
	if err := m.validatePrompt(req.Prompt); err != nil {
		return err
	}
	if err := validateTools(req.Tools); err != nil {
		return err
	}

	// Warm-up ping: empty prompt terminates immediately, zero engine calls.
	if req.Prompt == "" {
		return send(types.CompletionEvent{Done: true, DoneReason: types.DoneReasonStop})
	}

	// Shared slot hold for the whole generation; Load cannot swap the model
	// out from under us.
	m.slot.RLock()
	defer m.slot.RUnlock()

	m.mu.RLock()
	mdl := m.model
	vision := m.vision
	m.mu.RUnlock()
	if mdl == nil {
		return ErrDependencyUnavailable("no model loaded")
	}

	prompt, image, err := m.prepareInput(req, vision, mdl.Tokenizer())
	if err != nil {
		return err
	}

	if err := m.acquireEngine(ctx); err != nil {
		return err
	}
	defer m.releaseEngine()

	streamReq := engine.StreamRequest{
		Prompt: prompt,
		Image:  image,
		Sampler: engine.SamplerParams{
			Temperature:      float32(opts.Temperature),
			TopK:             opts.TopK,
			TopP:             float32(opts.TopP),
			NumPredict:       opts.NumPredict,
			RepeatPenalty:    float32(opts.RepeatPenalty),
			RepeatLastN:      opts.RepeatLastN,
			PresencePenalty:  float32(opts.PresencePenalty),
			FrequencyPenalty: float32(opts.FrequencyPenalty),
		},
	}

	promptStart := time.Now()
	promptTokens := 0
	if image == nil {
		ids, err := mdl.Tokenize(ctx, prompt)
		if err != nil {
			return ErrEngine(fmt.Sprintf("tokenize prompt: %v", err))
		}
		if len(ids) > opts.NumCtx {
			return ErrValidation(fmt.Sprintf("prompt is %d tokens, exceeding num_ctx %d", len(ids), opts.NumCtx))
		}
		streamReq.Tokens = ids
		streamReq.Prompt = ""
		promptTokens = len(ids)
	}

	it, err := mdl.Stream(ctx, streamReq)
	if err != nil {
		return ErrEngine(fmt.Sprintf("start generation: %v", err))
	}
	defer it.Close()
	promptDur := time.Since(promptStart).Nanoseconds()

	// Streaming is the host default; an absent stream flag means stream.
	stream := req.Stream == nil || *req.Stream
	buffered := len(req.Tools) > 0 || !stream
	return m.drain(ctx, drainParams{
		it:           it,
		send:         send,
		buffered:     buffered,
		extractTools: len(req.Tools) > 0,
		logprobs:     req.Logprobs,
		maxTokens:    2 * opts.NumPredict,
		promptCount:  promptTokens,
		promptDur:    promptDur,
	})
}

type drainParams struct {
	it           engine.TokenIterator
	send         func(types.CompletionEvent) error
	buffered     bool
	extractTools bool
	logprobs     bool
	maxTokens    int
	promptCount  int
	promptDur    int64
}

// drain consumes the token iterator and emits the event protocol. The engine
// owns the num_predict budget; the 2x bound here is a liveness guard against
// a backend that ignores it.
func (m *Manager) drain(ctx context.Context, p drainParams) error {
	var (
		full      strings.Builder
		count     int
		start     = time.Now()
		prevToken = start
	)
	for {
		ev, ok, err := p.it.Next(ctx)
		if err != nil {
			class := engine.ClassifyGeneration(err)
			m.log.Error().Err(err).Str("class", class).Msg("generation failed mid-stream")
			return p.send(types.CompletionEvent{
				Content:            fmt.Sprintf("generation failed: %s", class),
				Done:               true,
				DoneReason:         types.DoneReasonError,
				PromptEvalCount:    p.promptCount,
				PromptEvalDuration: p.promptDur,
				EvalCount:          count,
				EvalDuration:       time.Since(start).Nanoseconds(),
			})
		}
		if !ok {
			break
		}
		count++
		tokensGeneratedTotal.Inc()
		full.WriteString(ev.Text)

		if !p.buffered {
			now := time.Now()
			event := types.CompletionEvent{
				Content:            ev.Text,
				PromptEvalCount:    p.promptCount,
				PromptEvalDuration: p.promptDur,
				EvalCount:          count,
				EvalDuration:       now.Sub(prevToken).Nanoseconds(),
			}
			prevToken = now
			if p.logprobs {
				event.Logprobs = []types.Logprob{{Token: ev.Text, Logprob: ev.Logprob}}
			}
			if err := p.send(event); err != nil {
				return fmt.Errorf("deliver event: %w", err)
			}
		}

		// Trips only once more than the bound has been produced without
		// termination.
		if count > p.maxTokens {
			runawayTripsTotal.Inc()
			m.log.Warn().Int("tokens", count).Msg("runaway guard tripped, terminating generation")
			break
		}
	}
	generationDuration.Observe(time.Since(start).Seconds())

	final := types.CompletionEvent{
		Done:               true,
		DoneReason:         types.DoneReasonStop,
		PromptEvalCount:    p.promptCount,
		PromptEvalDuration: p.promptDur,
		EvalCount:          count,
		EvalDuration:       time.Since(start).Nanoseconds(),
	}
	if p.buffered {
		text := full.String()
		final.Content = text
		if p.extractTools {
			if calls := tools.Extract(text); len(calls) > 0 {
				final.ToolCalls = calls
				final.DoneReason = types.DoneReasonToolCalls
			}
		}
	}
	return p.send(final)
}

// prepareInput resolves the effective prompt and image payload. Images on a
// text-only model are dropped with a warning rather than failing the request.
func (m *Manager) prepareInput(req types.CompletionRequest, vision bool, tk engine.TokenizerInfo) (string, []byte, error) {
	prompt := req.Prompt
	if len(req.Images) == 0 {
		return prompt, nil, nil
	}
	if !vision {
		m.log.Warn().Int("images", len(req.Images)).Msg("dropping images: active model is text-only")
		return prompt, nil, nil
	}
	if len(req.Images) > 1 {
		m.log.Warn().Int("images", len(req.Images)).Msg("multiple images supplied, using the first")
	}
	image, err := base64.StdEncoding.DecodeString(req.Images[0].Data)
	if err != nil {
		return "", nil, ErrValidation(fmt.Sprintf("image 0 is not valid base64: %v", err))
	}
	if tk.ImageToken != "" && !strings.Contains(prompt, tk.ImageToken) {
		prompt = tk.ImageToken + "\n" + prompt
	}
	if tk.ChatTemplate != "" {
		prompt = strings.ReplaceAll(tk.ChatTemplate, "{{prompt}}", prompt)
	}
	return prompt, image, nil
}
