package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const storytellerSystemPrompt = `You are a dramatic storyteller for a medieval werewolf game. When a game ends, you tell a short atmospheric epilogue about the village's fate. Keep it to 3-4 sentences. Be gothic and dramatic, fitting for a village plagued by werewolves.`

// Storyteller generates a dramatic epilogue when a game ends.
// onChunk is called with each text chunk as it streams in.
type Storyteller interface {
	Tell(ctx context.Context, history []string, onChunk func(string)) (string, error)
}

type llmStoryteller struct {
	llm          llms.Model
	systemPrompt string
	callOpts     []llms.CallOption
}

func (s *llmStoryteller) Tell(ctx context.Context, history []string, onChunk func(string)) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, s.systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman,
			"The public record of the game:\n"+strings.Join(history, "\n")+
				"\n\nTell a short dramatic epilogue (3-4 sentences) about how it ended for the village."),
	}

	var fullText strings.Builder
	opts := append(s.callOpts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		text := string(chunk)
		fullText.WriteString(text)
		if onChunk != nil {
			onChunk(text)
		}
		return nil
	}))

	_, err := s.llm.GenerateContent(ctx, messages, opts...)
	return strings.TrimSpace(fullText.String()), err
}

// buildCallOpts builds LLM call options from the config.
func buildCallOpts(cfg AppConfig, logger *zap.SugaredLogger) []llms.CallOption {
	var opts []llms.CallOption
	if cfg.StorytellerTemperature != "" {
		if f, err := strconv.ParseFloat(cfg.StorytellerTemperature, 64); err == nil {
			opts = append(opts, llms.WithTemperature(f))
			logger.Infow("storyteller temperature set", "temperature", f)
		} else {
			logger.Warnw("invalid storyteller temperature", "value", cfg.StorytellerTemperature, "err", err)
		}
	}
	return opts
}

// initStoryteller builds a storyteller from config. A nil return means the
// feature is disabled; callers must tolerate that.
func initStoryteller(cfg AppConfig, logger *zap.SugaredLogger) Storyteller {
	provider := cfg.StorytellerProvider
	model := cfg.StorytellerModel
	callOpts := buildCallOpts(cfg, logger)

	wrap := func(llm llms.Model) Storyteller {
		return &llmStoryteller{llm: llm, systemPrompt: storytellerSystemPrompt, callOpts: callOpts}
	}

	switch provider {
	case "ollama":
		llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(cfg.StorytellerOllamaURL))
		if err != nil {
			logger.Warnw("storyteller init failed", "provider", provider, "model", model, "err", err)
			return nil
		}
		logger.Infow("storyteller ready", "provider", provider, "model", model, "url", cfg.StorytellerOllamaURL)
		return wrap(llm)
	case "openai":
		llm, err := openai.New(openai.WithModel(model))
		if err != nil {
			logger.Warnw("storyteller init failed", "provider", provider, "model", model, "err", err)
			return nil
		}
		logger.Infow("storyteller ready", "provider", provider, "model", model)
		return wrap(llm)
	case "claude":
		llm, err := anthropic.New(anthropic.WithModel(model))
		if err != nil {
			logger.Warnw("storyteller init failed", "provider", provider, "model", model, "err", err)
			return nil
		}
		logger.Infow("storyteller ready", "provider", provider, "model", model)
		return wrap(llm)
	case "gemini":
		llm, err := googleai.New(context.Background(), googleai.WithDefaultModel(model))
		if err != nil {
			logger.Warnw("storyteller init failed", "provider", provider, "model", model, "err", err)
			return nil
		}
		logger.Infow("storyteller ready", "provider", provider, "model", model)
		return wrap(llm)
	case "groq":
		llm, err := openai.New(
			openai.WithModel(model),
			openai.WithBaseURL("https://api.groq.com/openai/v1"),
			openai.WithToken(cfg.GroqAPIKey),
		)
		if err != nil {
			logger.Warnw("storyteller init failed", "provider", provider, "model", model, "err", err)
			return nil
		}
		logger.Infow("storyteller ready", "provider", provider, "model", model)
		return wrap(llm)
	case "openai-compatible":
		if cfg.StorytellerURL == "" {
			logger.Warn("storyteller_url is required for openai-compatible provider")
			return nil
		}
		opts := []openai.Option{
			openai.WithModel(model),
			openai.WithBaseURL(cfg.StorytellerURL),
		}
		if cfg.StorytellerAPIKey != "" {
			opts = append(opts, openai.WithToken(cfg.StorytellerAPIKey))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			logger.Warnw("storyteller init failed", "provider", provider, "model", model, "url", cfg.StorytellerURL, "err", err)
			return nil
		}
		logger.Infow("storyteller ready", "provider", provider, "model", model, "url", cfg.StorytellerURL)
		return wrap(llm)
	default:
		logger.Info("storyteller disabled (set storyteller_provider to enable)")
		return nil
	}
}
