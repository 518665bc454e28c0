// Command llmselect resolves a model name to a provider, constructs the
// matching chat client and runs a one-shot completion against it.
//
// API keys come from the environment (<PROVIDER>_API_KEY), optionally
// loaded from a .env file in the working directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/evalflow/llmselect/config"
	"github.com/evalflow/llmselect/llm"
	"github.com/evalflow/llmselect/llm/factory"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config file")
		model       = flag.String("model", "llama3.2:3b", "model identifier")
		provider    = flag.String("provider", "", "provider name (auto-detected from the model name when empty)")
		prompt      = flag.String("prompt", "", "user prompt to send")
		system      = flag.String("system", "", "optional system prompt")
		temperature = flag.Float64("temperature", 0, "sampling temperature")
		maxTokens   = flag.Int("max-tokens", factory.DefaultMaxTokens, "completion token cap")
		timeout     = flag.Duration("timeout", 2*time.Minute, "request timeout")
		stream      = flag.Bool("stream", false, "stream the completion")
		list        = flag.Bool("list", false, "list all known models and exit")
	)
	flag.Parse()

	// .env is optional; absence is not an error
	_ = godotenv.Load()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger, err := cfg.BuildLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *list {
		listModels()
		return
	}

	if *prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: llmselect -model <name> -prompt <text>")
		os.Exit(2)
	}

	opts := []factory.Option{
		factory.WithTemperature(float32(*temperature)),
		factory.WithMaxTokens(*maxTokens),
		factory.WithTimeout(*timeout),
		factory.WithLogger(logger),
	}
	if *provider != "" {
		opts = append(opts, factory.WithProvider(*provider))
	}

	client, err := factory.NewClient(*model, opts...)
	if err != nil {
		logger.Fatal("failed to build client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	req := &llm.ChatRequest{
		TraceID: uuid.NewString(),
		Model:   *model,
	}
	if *system != "" {
		req.Messages = append(req.Messages, llm.Message{Role: llm.RoleSystem, Content: *system})
	}
	req.Messages = append(req.Messages, llm.Message{Role: llm.RoleUser, Content: *prompt})

	header := color.New(color.FgCyan, color.Bold)
	header.Printf("%s · %s\n\n", client.Name(), *model)

	if *stream {
		if err := runStream(ctx, client, req); err != nil {
			logger.Fatal("stream failed", zap.Error(err))
		}
		return
	}

	resp, err := client.Completion(ctx, req)
	if err != nil {
		logger.Fatal("completion failed", zap.Error(err))
	}
	for _, choice := range resp.Choices {
		fmt.Println(choice.Message.Content)
	}
	if resp.Usage.TotalTokens > 0 {
		color.New(color.Faint).Printf("\n%d prompt + %d completion = %d tokens\n",
			resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	}
}

func runStream(ctx context.Context, client llm.Provider, req *llm.ChatRequest) error {
	ch, err := client.Stream(ctx, req)
	if err != nil {
		return err
	}
	for chunk := range ch {
		if chunk.Err != nil {
			return chunk.Err
		}
		fmt.Print(chunk.Delta.Content)
	}
	fmt.Println()
	return nil
}

func listModels() {
	providerColor := color.New(color.FgCyan, color.Bold)
	tagColor := color.New(color.Faint)

	for _, name := range factory.Providers() {
		providerColor.Println(name)
		models, _ := factory.ProviderModels(name)
		for _, m := range models {
			fmt.Printf("  %s", m)
			if c, ok := factory.ModelCapability(m); ok {
				tagColor.Printf("  (%s)", c)
			}
			fmt.Println()
		}
	}
}
