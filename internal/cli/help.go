package cli

import (
	"fmt"
	"strings"
)

func (a App) help(args []string) error {
	fmt.Print(helpText(args))
	return nil
}

func helpText(args []string) string {
	if len(args) == 0 {
		return usageText()
	}
	switch strings.ToLower(strings.Join(args, " ")) {
	case "watch", "watch create", "watch edit":
		return watchHelpText()
	case "doctor":
		return doctorHelpText()
	case "open":
		return openHelpText()
	default:
		return usageText()
	}
}

func usageText() string {
	return `fwatch - Track flight prices through your flightwatch account

USAGE:
  fwatch [global flags] <command> [args]

COMMANDS:
  login              Log in and keep the session token
  register           Create an account, then log in
  logout             Forget the session token
  status             Show session status and identity
  open <path>        Open a view (/, /login, /register, /flights, /flights/<id>/edit)
  watch list         List watch requests
  watch show         Show one watch request
  watch create       Create a watch request
  watch edit         Edit a watch request
  watch delete       Delete a watch request
  config get/set     Read/write config values
  doctor             Run preflight checks
  completion         Generate shell completion

GLOBAL FLAGS:
  --json             JSON output
  --plain            Stable plain output
  -q, --quiet        Suppress non-essential text
  -v, --verbose      Debug logs to stderr
  --no-input         Disable prompts
  --state-dir PATH   Override state directory
  --timeout DUR      Per-request timeout (e.g. 10s)
  --version          Print version
  -h, --help         Show help
`
}

func watchHelpText() string {
	return `fwatch watch - Manage watch requests

USAGE:
  fwatch watch list
  fwatch watch show --id <id>
  fwatch watch create --from TLV --to JFK --date 2030-01-10 --price 300 [field flags] [--dry-run]
  fwatch watch edit --id <id> [field flags]
  fwatch watch delete --id <id> (--force | --confirm <id>)

FIELD FLAGS:
  --from IATA                  Departure airport (3 letters)
  --to IATA                    Arrival airport (3 letters)
  --date YYYY-MM-DD            Departure date, today or later
  --price N                    Target price, greater than 0
  --name TEXT                  Display name
  --notify-any-drop            Notify on any price drop
  --cabin CLASS                ECONOMY, PREMIUM_ECONOMY, BUSINESS or FIRST
  --round-trip                 Round trip (needs --return)
  --return YYYY-MM-DD          Return date, after the departure date
  --connections N              Maximum connections, 0 for direct
  --max-connection-hours N     Longest layover, only with connections
  --flex-before N              Flexible days before departure
  --flex-after N               Flexible days after departure

RULES:
  - Nothing is sent unless every rule passes; all failing rules are reported together
  - A failed edit is not saved; run the command again with corrected flags
`
}

func openHelpText() string {
	return `fwatch open - Resolve a path through the session guard and render it

USAGE:
  fwatch open <path>

BEHAVIOR:
  - /login and /register redirect to /flights when logged in
  - /flights and /flights/<id>/edit redirect to /login when logged out
  - / always redirects
  - unknown paths exit 5
`
}

func doctorHelpText() string {
	return `fwatch doctor - Run preflight checks

USAGE:
  fwatch doctor [--strict] [global flags]

CHECKS:
  - config validity
  - config/state path writability
  - token store reachability
  - remote service reachability
  - session presence

BEHAVIOR:
  - default: warnings do not fail command
  - --strict: warnings are treated as failures
`
}
