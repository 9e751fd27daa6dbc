package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "status":
		cmdStatus(os.Args[2:])
	case "tools":
		cmdTools(os.Args[2:])
	case "call":
		cmdCall(os.Args[2:])
	case "serve":
		cmdServe(os.Args[2:])
	case "backend":
		if len(os.Args) < 3 {
			printBackendUsage()
			return
		}
		switch os.Args[2] {
		case "add":
			cmdBackendAdd(os.Args[3:])
		case "add-json":
			cmdBackendAddJSON(os.Args[3:])
		case "remove", "rm":
			cmdBackendRemove(os.Args[3:])
		case "list", "ls":
			cmdBackendList(os.Args[3:])
		case "paths":
			cmdBackendPaths(os.Args[3:])
		case "help", "-h", "--help":
			printBackendUsage()
		default:
			printBackendUsage()
			os.Exit(1)
		}
	case "version", "-v", "--version":
		fmt.Printf("toolmux version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`toolmux - multi-backend tool client manager

Usage:
  toolmux status [--json]            Connect to configured backends and show health
  toolmux tools [backend] [--json]   List tools, optionally for one backend
  toolmux call <backend> <tool> [json-args]
                                     Invoke a tool and print the result
  toolmux serve [--addr host:port]   Run continuously, exposing /metrics and /healthz
  toolmux backend <subcommand>       Manage backend configuration
  toolmux version                    Show version
  toolmux help                       Show this help

Configuration:
  .toolmux.kdl                       Project config (shared)
  .toolmux.local.kdl                 Local config (not shared)
  ~/.config/toolmux/config.kdl       User config

Environment:
  TOOLMUX_LOG_LEVEL        DEBUG, INFO, WARN, ERROR (default: WARN)
  TOOLMUX_LOG_FORMAT       text, json (default: text)
  TOOLMUX_TIMEOUT          Connection timeout (default: 30s)
  TOOLMUX_HEALTH_INTERVAL  Health check interval (default: 30s)
  TOOLMUX_RECONNECT_DELAY  Reconnect delay (default: 5s)
`)
}

func printBackendUsage() {
	fmt.Print(`toolmux backend - manage backend configuration

Usage:
  toolmux backend add [flags] <name> <command> [args...]
  toolmux backend add [flags] --transport sse|streamable --url <url> <name>
  toolmux backend add-json <name> '<json>'
  toolmux backend remove <name> [--local|--project|--user]
  toolmux backend list [--local|--project|--user|--all] [--json]
  toolmux backend paths

Flags for add:
  --local, --project, --user   Config scope (default: project)
  --transport, -t <type>       stdio, sse, or streamable (default: stdio)
  --url <url>                  Endpoint for HTTP transports
  --env, -e KEY=VALUE          Environment variable (repeatable)
  --header, -H 'Key: Value'    HTTP header (repeatable)
  --timeout <duration>         Per-backend connection timeout
  --disabled                   Register without connecting
`)
}
