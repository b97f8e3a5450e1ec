package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	aicore "github.com/stake-plus/veritrust/src/ai/core"
	_ "github.com/stake-plus/veritrust/src/ai/providers"
	"github.com/stake-plus/veritrust/src/config"
	"github.com/stake-plus/veritrust/src/verify"
)

var runFlags struct {
	providers string
	kind      string
	text      string
	file      string
	mime      string
	model     string
	timeout   time.Duration
	temp      float64
}

var rootCmd = &cobra.Command{
	Use:   "verify-smoketest",
	Short: "Send one verification to each AI provider and print the parsed result",
	RunE:  runSmoketest,
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered provider names",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range aicore.Registered() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (default model %s)\n", name, aicore.ResolveModelName(name, ""))
		}
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&runFlags.providers, "providers", "p", "gemini", "Comma-separated provider list or 'all'")
	f.StringVarP(&runFlags.kind, "kind", "k", "text", "text|image|audio")
	f.StringVar(&runFlags.text, "text", defaultText, "Text to verify when kind=text")
	f.StringVarP(&runFlags.file, "file", "f", "", "Path of the image or audio file to verify")
	f.StringVar(&runFlags.mime, "mime", "", "Override the detected MIME type")
	f.StringVar(&runFlags.model, "model", "", "Override model name")
	f.DurationVar(&runFlags.timeout, "timeout", 90*time.Second, "Per-provider timeout")
	f.Float64Var(&runFlags.temp, "temp", 0.2, "Completion temperature")

	rootCmd.AddCommand(providersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSmoketest(cmd *cobra.Command, _ []string) error {
	providers := resolveProviders(runFlags.providers)
	if len(providers) == 0 {
		return fmt.Errorf("no providers specified")
	}

	req, err := buildRequest()
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	aiCfg := config.Load().AI
	out := cmd.OutOrStdout()
	for _, provider := range providers {
		if err := runProvider(cmd, provider, req, aiCfg); err != nil {
			fmt.Fprintf(out, "[%s] ❌ %v\n", provider, err)
		}
	}
	return nil
}

func buildRequest() (verify.Request, error) {
	kind, err := verify.ParseKind(runFlags.kind)
	if err != nil {
		return verify.Request{}, err
	}
	if kind == verify.KindText {
		return verify.Builder{}.Build(kind, runFlags.text, "")
	}
	if runFlags.file == "" {
		return verify.Request{}, fmt.Errorf("--file is required for kind %s", kind)
	}
	blob, err := os.ReadFile(runFlags.file)
	if err != nil {
		return verify.Request{}, err
	}
	return verify.Builder{}.BuildBytes(kind, blob, runFlags.mime)
}

func runProvider(cmd *cobra.Command, provider string, req verify.Request, aiCfg config.AIConfig) error {
	ai, err := aicore.NewClient(aicore.FactoryConfig{
		Provider:    provider,
		Model:       aicore.ResolveModelName(provider, pickFirst(runFlags.model, aiCfg.Model)),
		Temperature: runFlags.temp,
		Timeout:     runFlags.timeout,
		OpenAIKey:   aiCfg.OpenAIKey,
		GeminiKey:   aiCfg.GeminiKey,
		BaseURL:     aiCfg.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("client init: %w", err)
	}
	client := verify.NewClient(ai, verify.ClientConfig{Timeout: runFlags.timeout})

	start := time.Now()
	res, err := client.Analyze(context.Background(), req)
	if err != nil {
		return err
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Fprintf(cmd.OutOrStdout(), "=== %s === ✅ (%.1fs)\n%s\n", provider, time.Since(start).Seconds(), out)
	return nil
}

func resolveProviders(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.EqualFold(raw, "all") {
		return []string{"gemini", "openai"}
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	var out []string
	seen := map[string]struct{}{}
	for _, p := range parts {
		key := strings.ToLower(strings.TrimSpace(p))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func pickFirst(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

const defaultText = "URGENT: Your bank account has been locked. Verify your identity within 24 hours at the link below or lose access permanently."
