package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/standardbeagle/toolmux/internal/config"
)

func cmdBackendAdd(args []string) {
	if len(args) < 1 {
		printBackendUsage()
		os.Exit(1)
	}

	name := ""
	command := ""
	var cmdArgs []string
	scope := config.ScopeProject
	transport := "stdio"
	env := make(map[string]string)
	headers := make(map[string]string)
	url := ""
	timeout := ""
	disabled := false

	var positional []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--local":
			scope = config.ScopeLocal
		case args[i] == "--project":
			scope = config.ScopeProject
		case args[i] == "--user":
			scope = config.ScopeUser
		case args[i] == "--disabled":
			disabled = true
		case args[i] == "--transport" || args[i] == "-t":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --transport requires a value")
				os.Exit(1)
			}
			i++
			transport = args[i]
		case strings.HasPrefix(args[i], "--transport="):
			transport = strings.TrimPrefix(args[i], "--transport=")
		case args[i] == "--url":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --url requires a value")
				os.Exit(1)
			}
			i++
			url = args[i]
		case strings.HasPrefix(args[i], "--url="):
			url = strings.TrimPrefix(args[i], "--url=")
		case args[i] == "--timeout":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --timeout requires a value")
				os.Exit(1)
			}
			i++
			timeout = args[i]
		case strings.HasPrefix(args[i], "--timeout="):
			timeout = strings.TrimPrefix(args[i], "--timeout=")
		case args[i] == "--env" || args[i] == "-e":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --env requires KEY=VALUE")
				os.Exit(1)
			}
			i++
			kv := strings.SplitN(args[i], "=", 2)
			if len(kv) != 2 {
				fmt.Fprintf(os.Stderr, "Error: invalid env format '%s', expected KEY=VALUE\n", args[i])
				os.Exit(1)
			}
			env[kv[0]] = kv[1]
		case args[i] == "--header" || args[i] == "-H":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: --header requires 'Key: Value'")
				os.Exit(1)
			}
			i++
			parts := strings.SplitN(args[i], ":", 2)
			if len(parts) != 2 {
				fmt.Fprintf(os.Stderr, "Error: invalid header format '%s', expected 'Key: Value'\n", args[i])
				os.Exit(1)
			}
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		case args[i] == "--help" || args[i] == "-h":
			printBackendUsage()
			return
		default:
			positional = append(positional, args[i])
		}
	}

	if transport == "sse" || transport == "streamable" || transport == "http" {
		if len(positional) < 1 {
			fmt.Fprintln(os.Stderr, "Error: name is required")
			os.Exit(1)
		}
		name = positional[0]
		if url == "" {
			fmt.Fprintln(os.Stderr, "Error: --url is required for HTTP transports")
			os.Exit(1)
		}
	} else {
		if len(positional) < 2 {
			fmt.Fprintln(os.Stderr, "Error: name and command are required for stdio transport")
			os.Exit(1)
		}
		name = positional[0]
		command = positional[1]
		if len(positional) > 2 {
			cmdArgs = positional[2:]
		}
	}

	cwd, _ := os.Getwd()
	cfgPath := config.ConfigPathForScope(scope, cwd)
	if cfgPath == "" {
		fmt.Fprintln(os.Stderr, "Error: could not determine config path")
		os.Exit(1)
	}

	backendCfg := config.BackendConfig{
		Name:     name,
		Type:     transport,
		Command:  command,
		Args:     cmdArgs,
		Env:      env,
		URL:      url,
		Headers:  headers,
		Timeout:  timeout,
		Disabled: disabled,
	}
	if len(env) == 0 {
		backendCfg.Env = nil
	}
	if len(headers) == 0 {
		backendCfg.Headers = nil
	}

	if err := config.AddBackendConfigToFile(cfgPath, backendCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error adding backend: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Added backend '%s' to %s config (%s)\n", name, scope, cfgPath)
}

func cmdBackendAddJSON(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: toolmux backend add-json <name> '<json>' [--local|--project|--user]")
		os.Exit(1)
	}

	name := args[0]
	jsonData := args[1]
	scope := config.ScopeProject
	for _, arg := range args[2:] {
		switch arg {
		case "--local":
			scope = config.ScopeLocal
		case "--project":
			scope = config.ScopeProject
		case "--user":
			scope = config.ScopeUser
		}
	}

	backendCfg, err := config.ParseJSONConfig(jsonData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing JSON config: %v\n", err)
		os.Exit(1)
	}
	backendCfg.Name = name

	cwd, _ := os.Getwd()
	cfgPath := config.ConfigPathForScope(scope, cwd)

	if err := config.AddBackendConfigToFile(cfgPath, *backendCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error adding backend: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Added backend '%s' to %s config (%s)\n", name, scope, cfgPath)
}

func cmdBackendRemove(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: toolmux backend remove <name> [--local|--project|--user]")
		os.Exit(1)
	}

	name := args[0]
	scope := config.ScopeProject
	for _, arg := range args[1:] {
		switch arg {
		case "--local":
			scope = config.ScopeLocal
		case "--project":
			scope = config.ScopeProject
		case "--user":
			scope = config.ScopeUser
		}
	}

	cwd, _ := os.Getwd()
	cfgPath := config.ConfigPathForScope(scope, cwd)

	if err := config.RemoveBackendFromFile(cfgPath, name); err != nil {
		fmt.Fprintf(os.Stderr, "Error removing backend: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Removed backend '%s' from %s config\n", name, scope)
}

func cmdBackendList(args []string) {
	showLocal := true
	showProject := true
	showUser := true
	outputJSON := false

	for _, arg := range args {
		switch arg {
		case "--local":
			showProject = false
			showUser = false
		case "--project":
			showLocal = false
			showUser = false
		case "--user":
			showLocal = false
			showProject = false
		case "--all":
			showLocal = true
			showProject = true
			showUser = true
		case "--json":
			outputJSON = true
		case "--help", "-h":
			fmt.Println("Usage: toolmux backend list [--local|--project|--user|--all] [--json]")
			return
		}
	}

	cwd, _ := os.Getwd()

	all := make(map[string]config.BackendConfig)
	if showUser {
		if userCfg, err := config.LoadUserConfig(); err == nil {
			for name, b := range userCfg.Backends {
				all[name] = b
			}
		}
	}
	if showProject {
		if projectCfg, err := config.LoadProjectConfig(cwd); err == nil {
			for name, b := range projectCfg.Backends {
				all[name] = b
			}
		}
	}
	if showLocal {
		if localCfg, err := config.LoadLocalConfig(cwd); err == nil {
			for name, b := range localCfg.Backends {
				all[name] = b
			}
		}
	}

	if outputJSON {
		data, _ := json.MarshalIndent(all, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(all) == 0 {
		fmt.Println("No backends configured.")
		return
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b := all[name]
		target := b.Command
		if target == "" {
			target = b.URL
		}
		state := ""
		if b.Disabled {
			state = " (disabled)"
		}
		fmt.Printf("%s [%s] %s (%s)%s\n", name, b.Type, target, b.Source, state)
	}
}

func cmdBackendPaths(_ []string) {
	cwd, _ := os.Getwd()
	paths := config.ConfigPaths(cwd)

	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Printf("%-8s %s\n", k, paths[k])
	}
}
