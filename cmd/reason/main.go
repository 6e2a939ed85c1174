package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nidhogg/ponder/internal/provider"
	"github.com/nidhogg/ponder/internal/reasoner"
	"github.com/nidhogg/ponder/internal/strategy"
)

func main() {
	server := flag.String("server", "http://localhost:8000", "ponder server URL (one-shot and /stats)")
	providerName := flag.String("provider", "openai", "LLM provider (openai, anthropic)")
	strategyName := flag.String("strategy", "standard", "reasoning strategy (standard, zero_shot, self_consistency)")
	model := flag.String("model", "", "model name (provider default when empty)")
	temperature := flag.Float64("temperature", 0.7, "sampling temperature")
	verbose := flag.Bool("verbose", false, "show provenance and token usage")
	flag.Parse()

	// One-shot mode: query given as arguments, sent to the server.
	if flag.NArg() > 0 {
		query := strings.Join(flag.Args(), " ")
		sendQuery(*server, *providerName, *strategyName, query, *verbose)
		return
	}

	// Interactive mode reasons locally with conversation memory, so
	// follow-up questions can reference earlier answers.
	_ = godotenv.Load()
	logger := zap.NewNop()
	providers := provider.NewRegistry(logger)
	strategies := strategy.NewRegistry(logger)

	rsn, err := reasoner.New(reasoner.Config{
		Provider:    *providerName,
		Model:       *model,
		Strategy:    *strategyName,
		Temperature: *temperature,
		Memory:      true,
	}, providers, strategies, logger)
	if err != nil {
		printError("Error: %v", err)
		os.Exit(1)
	}

	fmt.Println("ponder CLI")
	fmt.Printf("Provider: %s/%s | Strategy: %s | Memory: enabled\n",
		*providerName, rsn.Model(), rsn.Strategy())
	fmt.Println("Type 'exit' or 'quit' to leave.")
	fmt.Println("Commands: /providers, /strategies, /clear, /history, /debug, /stats")
	fmt.Println("---")

	s := &session{
		rsn:        rsn,
		providers:  providers,
		strategies: strategies,
		out:        os.Stdout,
		server:     *server,
		verbose:    *verbose,
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		if !s.handle(context.Background(), scanner.Text()) {
			return
		}
	}
}

// session is one interactive conversation: a memory-enabled reasoner plus
// the output sink the loop prints to.
type session struct {
	rsn        *reasoner.Reasoner
	providers  *provider.Registry
	strategies *strategy.Registry
	out        io.Writer
	server     string
	verbose    bool
}

// handle processes one line of input. It returns false when the session
// should end.
func (s *session) handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return true
	}
	if input == "exit" || input == "quit" {
		fmt.Fprintln(s.out, "Bye!")
		return false
	}

	switch input {
	case "/providers":
		fmt.Fprintln(s.out, "Available providers:")
		for _, n := range s.providers.Names() {
			fmt.Fprintf(s.out, "  %s\n", n)
		}
	case "/strategies":
		fmt.Fprintln(s.out, "Available strategies:")
		for _, n := range s.strategies.Names() {
			fmt.Fprintf(s.out, "  %s\n", n)
		}
	case "/clear":
		s.rsn.ClearMemory()
		fmt.Fprintln(s.out, "Conversation memory cleared.")
	case "/history":
		history := s.rsn.Memory().History()
		if len(history) == 0 {
			fmt.Fprintln(s.out, "No conversation history.")
			break
		}
		fmt.Fprintln(s.out, "Conversation history:")
		for i, turn := range history {
			fmt.Fprintf(s.out, "  Q%d: %s\n", i+1, turn.Query)
			fmt.Fprintf(s.out, "  A%d: %s\n", i+1, turn.Answer)
		}
	case "/debug":
		if convContext := s.rsn.Memory().Context(); convContext != "" {
			fmt.Fprintln(s.out, "Context sent with the next question:")
			fmt.Fprintln(s.out, convContext)
		} else {
			fmt.Fprintln(s.out, "Memory is empty; no context will be sent.")
		}
	case "/stats":
		fetchStats(s.server)
	default:
		s.ask(ctx, input)
	}
	return true
}

func (s *session) ask(ctx context.Context, query string) {
	result, err := s.rsn.Reason(ctx, query)
	if err != nil {
		printError("Error: %v", err)
		return
	}

	fmt.Fprintln(s.out, "\nReasoning:")
	for _, step := range result.Steps {
		fmt.Fprintf(s.out, "  Step %d: %s\n", step.Number, step.Content)
	}
	if result.Answer != "" {
		fmt.Fprintf(s.out, "\nAnswer: %s (confidence: %.0f%%)\n", result.Answer, result.Confidence*100)
	} else {
		fmt.Fprintln(s.out, "\nNo answer produced.")
	}
	if s.verbose {
		fmt.Fprintf(s.out, "\n[%s/%s via %s, %d tokens]\n",
			result.Provider, result.Model, result.Strategy, result.TotalTokens)
	}
}

type reasonResponse struct {
	ID    string `json:"id"`
	Query string `json:"query"`
	Steps []struct {
		Number  int    `json:"number"`
		Content string `json:"content"`
	} `json:"steps"`
	Answer      string  `json:"answer"`
	Confidence  float64 `json:"confidence"`
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Strategy    string  `json:"strategy"`
	TotalTokens int     `json:"total_tokens"`
}

func sendQuery(server, providerName, strategyName, query string, verbose bool) {
	body, _ := json.Marshal(map[string]string{
		"query":    query,
		"provider": providerName,
		"strategy": strategyName,
	})

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Post(server+"/api/reason", "application/json", bytes.NewReader(body))
	if err != nil {
		printError("Request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		printError("Server error (%d): %s", resp.StatusCode, apiErr.Error)
		return
	}

	var result reasonResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		printError("Failed to parse response: %v", err)
		return
	}

	fmt.Println("\nReasoning:")
	for _, step := range result.Steps {
		fmt.Printf("  Step %d: %s\n", step.Number, step.Content)
	}
	if result.Answer != "" {
		fmt.Printf("\nAnswer: %s (confidence: %.0f%%)\n", result.Answer, result.Confidence*100)
	} else {
		fmt.Println("\nNo answer produced.")
	}
	if verbose {
		fmt.Printf("\n[%s/%s via %s, %d tokens, id=%s]\n",
			result.Provider, result.Model, result.Strategy, result.TotalTokens, result.ID)
	}
}

func fetchStats(server string) {
	resp, err := http.Get(server + "/api/stats")
	if err != nil {
		printError("Request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	var stats struct {
		Total     int     `json:"total"`
		Completed int     `json:"completed"`
		Failed    int     `json:"failed"`
		Pending   int     `json:"pending"`
		AvgTokens float64 `json:"avg_tokens"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		printError("Failed to parse response: %v", err)
		return
	}
	fmt.Printf("Results: %d total, %d completed, %d failed, %d pending (avg %.1f tokens)\n",
		stats.Total, stats.Completed, stats.Failed, stats.Pending, stats.AvgTokens)
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
