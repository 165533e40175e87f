// Package config provides layered configuration for benchplay.
//
// Values start from Default, are overlaid by an optional settings file
// (YAML or TOML, chosen by extension) and finally by environment variables.
//
// Configuration Sections:
//   - Bench: bench command, bench directory, site and execute flags
//   - Terminal: backend (tmux or pty), session names, startup delay
//   - Companion: external "copy python path" commands
//   - Logging: Log level and output format
//
// Example Usage:
//
//	cfg, err := config.Load("benchplay.yaml")
//	if err != nil {
//		return err
//	}
//	fmt.Println(cfg.Terminal.ConsoleName)
//
// Settings file keys:
//   - siteName, consoleTerminalName, executeTerminalName
//   - autoReload, acceptArgsForExecute, acceptKwargsForExecute
//   - benchCommand, benchPath, backend, startupDelay, shell, tmuxSocket
//   - copyImportCommand, copyPathCommand, logLevel, logDevelopment
//
// Environment Variables:
//   - BENCHPLAY_BENCH_COMMAND, BENCHPLAY_BENCH_PATH, BENCHPLAY_BENCH_SITE_NAME
//   - BENCHPLAY_BENCH_AUTO_RELOAD, BENCHPLAY_BENCH_ACCEPT_ARGS, BENCHPLAY_BENCH_ACCEPT_KWARGS
//   - BENCHPLAY_TERMINAL_BACKEND, BENCHPLAY_TERMINAL_CONSOLE_NAME, BENCHPLAY_TERMINAL_EXECUTE_NAME
//   - BENCHPLAY_TERMINAL_STARTUP_DELAY, BENCHPLAY_TERMINAL_SHELL, BENCHPLAY_TERMINAL_TMUX_SOCKET
//   - BENCHPLAY_COMPANION_COPY_IMPORT_COMMAND, BENCHPLAY_COMPANION_COPY_PATH_COMMAND
//   - BENCHPLAY_LOGGING_LEVEL, BENCHPLAY_LOGGING_DEVELOPMENT
package config
