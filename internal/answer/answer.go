// Package answer turns a question into a typed rag.Answer using an eino chat
// model. In retrieval mode the question is grounded in passages retrieved
// from the vector store ("stuff" prompting); in direct mode the raw question
// is sent to the model.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/docrag/internal/budget"
	"github.com/54b3r/docrag/internal/config"
	"github.com/54b3r/docrag/internal/logging"
	"github.com/54b3r/docrag/internal/rag"
)

// Answering modes.
const (
	ModeRetrieval = "retrieval"
	ModeDirect    = "direct"
)

// ErrEmptyAnswer is returned when the model produces no text.
var ErrEmptyAnswer = errors.New("answer: model returned an empty answer")

// stuffSystemPrompt is the system message of the "stuff" question answering
// prompt. Retrieved passages replace {context}.
const stuffSystemPrompt = `Use the following pieces of context to answer the user's question.
If you don't know the answer, just say that you don't know, don't try to make up an answer.
----------------
{context}`

// contextSeparator joins retrieved passages inside the prompt.
const contextSeparator = "\n\n"

// ResolveMode returns the answering mode for a store backend. An explicit
// configured mode always wins. Otherwise weaviate answers directly and every
// other backend answers from retrieved context; implicit reports that the
// backend default was used.
func ResolveMode(configured, backend string) (mode string, implicit bool) {
	if configured != "" {
		return configured, false
	}
	if backend == config.BackendWeaviate {
		return ModeDirect, true
	}
	return ModeRetrieval, true
}

// Config holds the dependencies of an Answerer.
type Config struct {
	// Model generates the answer. Required.
	Model model.BaseChatModel

	// Retriever supplies context passages. Required in retrieval mode.
	Retriever retriever.Retriever

	// Mode is ModeRetrieval or ModeDirect.
	Mode string

	// TopK is the number of passages retrieved. Zero means rag.DefaultTopK.
	TopK int

	// MaxContextTokens is the estimated prompt budget. Zero means
	// budget.DefaultMaxContextTokens.
	MaxContextTokens int
}

// Answerer answers questions. It is safe for concurrent use.
type Answerer struct {
	cfg      Config
	template prompt.ChatTemplate
	chain    compose.Runnable[map[string]any, *schema.Message]
}

// New compiles the prompt → model chain for the configured mode.
func New(ctx context.Context, cfg Config) (*Answerer, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("answer: model must not be nil")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = rag.DefaultTopK
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = budget.DefaultMaxContextTokens
	}

	var tpl prompt.ChatTemplate
	switch cfg.Mode {
	case ModeRetrieval:
		if cfg.Retriever == nil {
			return nil, fmt.Errorf("answer: retrieval mode requires a retriever")
		}
		tpl = prompt.FromMessages(schema.FString,
			schema.SystemMessage(stuffSystemPrompt),
			schema.UserMessage("{question}"),
		)
	case ModeDirect:
		tpl = prompt.FromMessages(schema.FString, schema.UserMessage("{question}"))
	default:
		return nil, fmt.Errorf("answer: unknown mode %q (valid values: retrieval, direct)", cfg.Mode)
	}

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(tpl).AppendChatModel(cfg.Model)
	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("answer: compile chain: %w", err)
	}

	return &Answerer{cfg: cfg, template: tpl, chain: runnable}, nil
}

// Mode returns the answering mode.
func (a *Answerer) Mode() string { return a.cfg.Mode }

// Answer produces an answer for question. In retrieval mode the passages
// that fit the token budget are returned as Sources.
func (a *Answerer) Answer(ctx context.Context, question string) (rag.Answer, error) {
	log := logging.FromContext(ctx)
	vars := map[string]any{"question": question}

	var sources []rag.StoredItem
	if a.cfg.Mode == ModeRetrieval {
		var err error
		sources, err = a.retrieve(ctx, question)
		if err != nil {
			return rag.Answer{}, err
		}
		passages := make([]string, len(sources))
		for i, s := range sources {
			passages[i] = s.Content
		}
		vars["context"] = strings.Join(passages, contextSeparator)
	}

	out, err := a.chain.Invoke(ctx, vars)
	if err != nil {
		return rag.Answer{}, fmt.Errorf("answer: generate: %w", err)
	}
	text := ""
	if out != nil {
		text = strings.TrimSpace(out.Content)
	}
	if text == "" {
		return rag.Answer{}, ErrEmptyAnswer
	}

	log.Debug("answer: generated",
		slog.String("mode", a.cfg.Mode),
		slog.Int("sources", len(sources)),
		slog.Int("answer_chars", len(text)),
	)
	return rag.Answer{Question: question, Text: text, Mode: a.cfg.Mode, Sources: sources}, nil
}

// retrieve fetches the top-k passages and drops the least relevant ones
// until the prompt fits the token budget.
func (a *Answerer) retrieve(ctx context.Context, question string) ([]rag.StoredItem, error) {
	docs, err := a.cfg.Retriever.Retrieve(ctx, question, retriever.WithTopK(a.cfg.TopK))
	if err != nil {
		return nil, fmt.Errorf("answer: retrieve: %w", err)
	}

	fixed, err := a.template.Format(ctx, map[string]any{"question": question, "context": ""})
	if err != nil {
		return nil, fmt.Errorf("answer: format prompt: %w", err)
	}

	passages := make([]string, len(docs))
	for i, d := range docs {
		passages[i] = d.Content
	}
	kept := budget.FitContext(fixed, passages, a.cfg.MaxContextTokens)
	if len(kept) < len(passages) {
		logging.FromContext(ctx).Warn("answer: context trimmed to fit token budget",
			slog.Int("retrieved", len(passages)),
			slog.Int("kept", len(kept)),
			slog.Int("max_context_tokens", a.cfg.MaxContextTokens),
		)
	}

	sources := make([]rag.StoredItem, len(kept))
	for i := range kept {
		sources[i] = rag.FromDocument(docs[i])
	}
	return sources, nil
}
