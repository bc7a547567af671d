package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"coderd/internal/config"
	"coderd/internal/tool"
)

// coderctl is the standalone invocation surface: it joins its arguments into
// one command line, runs it through execute_command and prints the result
// envelope as indented JSON. With no arguments it prints the tool catalog.
// Deliberately flag-free; the argv IS the command line.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg := config.FromEnv()
	reg := tool.BuildCatalog(tool.CatalogConfig{
		Exec: tool.ShellConfig{
			TimeoutSeconds: cfg.Tools.Exec.TimeoutSeconds,
			MaxOutputBytes: cfg.Tools.Exec.MaxOutputBytes,
		},
		Web: tool.WebConfig{
			APIKey:         cfg.Tools.Web.APIKey,
			EngineID:       cfg.Tools.Web.EngineID,
			TimeoutSeconds: cfg.Tools.Web.TimeoutSeconds,
		},
		PlanPath: cfg.Plan.Path,
	}, logger)

	if len(os.Args) < 2 {
		printCatalog(reg)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := strings.Join(os.Args[1:], " ")
	env := reg.Invoke(ctx, "execute_command", map[string]any{"command": command})

	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		logger.Error("marshal envelope", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func printCatalog(reg *tool.Registry) {
	type entry struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	descs := reg.Descriptors()
	entries := make([]entry, 0, len(descs))
	for _, d := range descs {
		entries = append(entries, entry{Name: d.Name, Description: d.Description})
	}
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal catalog:", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
