package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const completionUsage = "usage: fwatch completion <bash|zsh|fish> | fwatch completion path <bash|zsh|fish>"

func (a App) cmdCompletion(g globalFlags, args []string) error {
	if len(args) == 2 && strings.EqualFold(args[0], "path") {
		p, err := completionInstallPath(args[1])
		if err != nil {
			return err
		}
		if g.JSON {
			return writeJSON(map[string]string{"shell": strings.ToLower(args[1]), "path": p})
		}
		fmt.Println(p)
		return nil
	}
	if len(args) != 1 {
		return newExitError(ExitInvalidUsage, completionUsage)
	}
	switch strings.ToLower(args[0]) {
	case "bash":
		fmt.Print(bashCompletionScript())
	case "zsh":
		fmt.Print(zshCompletionScript())
	case "fish":
		fmt.Print(fishCompletionScript())
	default:
		return newExitError(ExitInvalidUsage, "unsupported shell %q (use bash, zsh, or fish)", args[0])
	}
	return nil
}

func completionInstallPath(shell string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", newExitError(ExitGenericFailure, "cannot resolve user home directory")
	}
	switch strings.ToLower(strings.TrimSpace(shell)) {
	case "zsh":
		return filepath.Join(home, ".zsh", "completions", "_fwatch"), nil
	case "bash":
		return filepath.Join(home, ".local", "share", "bash-completion", "completions", "fwatch"), nil
	case "fish":
		return filepath.Join(home, ".config", "fish", "completions", "fwatch.fish"), nil
	default:
		return "", newExitError(ExitInvalidUsage, "unsupported shell %q (use bash, zsh, or fish)", shell)
	}
}

func bashCompletionScript() string {
	return `#!/usr/bin/env bash
_fwatch_completions() {
  local cur prev words cword
  _init_completion -n : || return

  local commands="` + strings.Join(topCommands, " ") + `"
  local watch_sub="` + strings.Join(watchCommands, " ") + `"
  local config_sub="get set"

  if [[ ${cword} -eq 1 ]]; then
    COMPREPLY=( $(compgen -W "${commands}" -- "${cur}") )
    return
  fi

  case "${words[1]}" in
    watch) COMPREPLY=( $(compgen -W "${watch_sub}" -- "${cur}") ) ;;
    config) COMPREPLY=( $(compgen -W "${config_sub}" -- "${cur}") ) ;;
    open) COMPREPLY=( $(compgen -W "/ /login /register /flights" -- "${cur}") ) ;;
    completion) COMPREPLY=( $(compgen -W "bash zsh fish path" -- "${cur}") ) ;;
  esac
}
complete -F _fwatch_completions fwatch
`
}

func zshCompletionScript() string {
	return `#compdef fwatch
_fwatch() {
  local -a commands
  commands=(
    'login:Log in'
    'register:Create an account'
    'logout:Forget the session token'
    'status:Show session status'
    'open:Open a view'
    'watch:Manage watch requests'
    'config:Read or write config'
    'doctor:Run preflight checks'
    'completion:Generate shell completion'
    'help:Show help'
    'version:Show version'
  )

  local -a watch_sub
  watch_sub=(` + strings.Join(quoteAll(watchCommands), " ") + `)
  local -a config_sub
  config_sub=('get' 'set')

  if (( CURRENT == 2 )); then
    _describe 'command' commands
    return
  fi

  case "$words[2]" in
    watch) _describe 'watch command' watch_sub ;;
    config) _describe 'config action' config_sub ;;
    open) _values 'path' / /login /register /flights ;;
    completion) _values 'shell' bash zsh fish path ;;
  esac
}
_fwatch "$@"
`
}

func fishCompletionScript() string {
	return `complete -c fwatch -f
complete -c fwatch -n '__fish_use_subcommand' -a 'login' -d 'Log in'
complete -c fwatch -n '__fish_use_subcommand' -a 'register' -d 'Create an account'
complete -c fwatch -n '__fish_use_subcommand' -a 'logout' -d 'Forget the session token'
complete -c fwatch -n '__fish_use_subcommand' -a 'status' -d 'Show session status'
complete -c fwatch -n '__fish_use_subcommand' -a 'open' -d 'Open a view'
complete -c fwatch -n '__fish_use_subcommand' -a 'watch' -d 'Manage watch requests'
complete -c fwatch -n '__fish_use_subcommand' -a 'config' -d 'Read or write config'
complete -c fwatch -n '__fish_use_subcommand' -a 'doctor' -d 'Run preflight checks'
complete -c fwatch -n '__fish_use_subcommand' -a 'completion' -d 'Generate shell completion'
complete -c fwatch -n '__fish_use_subcommand' -a 'help' -d 'Show help'
complete -c fwatch -n '__fish_use_subcommand' -a 'version' -d 'Show version'

complete -c fwatch -n '__fish_seen_subcommand_from watch' -a '` + strings.Join(watchCommands, " ") + `'
complete -c fwatch -n '__fish_seen_subcommand_from config' -a 'get set'
complete -c fwatch -n '__fish_seen_subcommand_from open' -a '/ /login /register /flights'
complete -c fwatch -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish path'
`
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = "'" + s + "'"
	}
	return out
}
