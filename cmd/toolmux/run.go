package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/standardbeagle/toolmux/internal/config"
	"github.com/standardbeagle/toolmux/internal/manager"
)

// connectManager loads the merged config and brings up a manager for the
// duration of one command.
func connectManager(ctx context.Context, opts ...manager.Option) (*manager.Manager, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("error getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	descriptors := make([]config.BackendConfig, 0, len(cfg.Backends))
	for _, b := range cfg.Backends {
		descriptors = append(descriptors, b)
	}

	mgr := manager.New(opts...)
	if err := mgr.Initialize(ctx, descriptors); err != nil {
		return nil, err
	}
	return mgr, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}

func cmdStatus(args []string) {
	outputJSON := false
	for _, arg := range args {
		switch arg {
		case "--json":
			outputJSON = true
		case "--help", "-h":
			fmt.Println("Usage: toolmux status [--json]")
			return
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	mgr, err := connectManager(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = mgr.ShutdownAll() }()

	snapshot := mgr.Snapshot()
	metrics := mgr.GetMetrics()

	if outputJSON {
		out := struct {
			Backends []manager.BackendStatus `json:"backends"`
			Metrics  manager.Metrics         `json:"metrics"`
		}{snapshot, metrics}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(snapshot) == 0 {
		fmt.Println("No backends configured.")
		return
	}

	fmt.Printf("%-20s %-14s %-8s %s\n", "BACKEND", "STATE", "TOOLS", "LAST CONTACT")
	for _, b := range snapshot {
		lastContact := "-"
		if !b.LastContact.IsZero() {
			lastContact = b.LastContact.Format(time.RFC3339)
		}
		fmt.Printf("%-20s %-14s %-8d %s\n", b.Name, b.State, b.ToolCount, lastContact)
		if b.Error != "" {
			fmt.Printf("    error: %s\n", b.Error)
		}
	}
	fmt.Printf("\n%d/%d backends connected, %d tools available\n",
		metrics.ConnectedBackends, metrics.TotalBackends, metrics.TotalTools)
}

func cmdTools(args []string) {
	outputJSON := false
	backend := ""
	for _, arg := range args {
		switch arg {
		case "--json":
			outputJSON = true
		case "--help", "-h":
			fmt.Println("Usage: toolmux tools [backend] [--json]")
			return
		default:
			backend = arg
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	mgr, err := connectManager(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = mgr.ShutdownAll() }()

	if backend != "" {
		tools, err := mgr.Tools(backend)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if outputJSON {
			data, _ := json.MarshalIndent(tools, "", "  ")
			fmt.Println(string(data))
			return
		}
		for _, t := range tools {
			fmt.Printf("%s\t%s\n", t.Name, t.Description)
		}
		return
	}

	all, err := mgr.ListAllTools()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if outputJSON {
		data, _ := json.MarshalIndent(all, "", "  ")
		fmt.Println(string(data))
		return
	}

	backends := make([]string, 0, len(all))
	for name := range all {
		backends = append(backends, name)
	}
	sort.Strings(backends)
	for _, name := range backends {
		fmt.Printf("%s:\n", name)
		for _, tool := range all[name] {
			fmt.Printf("  %s\n", tool)
		}
	}
}

func cmdCall(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: toolmux call <backend> <tool> [json-args]")
		os.Exit(1)
	}
	backend := args[0]
	tool := args[1]

	toolArgs := map[string]any{}
	if len(args) > 2 {
		if err := json.Unmarshal([]byte(args[2]), &toolArgs); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid JSON arguments: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	mgr, err := connectManager(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = mgr.ShutdownAll() }()

	result, err := mgr.CallTool(ctx, backend, tool, toolArgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if result.Data != nil {
		data, merr := json.MarshalIndent(result.Data, "", "  ")
		if merr == nil {
			fmt.Println(string(data))
			return
		}
	}
	if result.Message != "" {
		fmt.Println(result.Message)
	}
}
