package safety

import (
	"fmt"
	"strings"
)

// destructiveShellVerbs are command substrings that indicate a shell step
// modifies or destroys system state.
var destructiveShellVerbs = []string{
	"rm ", "rmdir", "mkfs", "dd ", "shred", "truncate",
	"shutdown", "reboot", "halt", "kill ", "killall",
	"chown", "chmod 777", "> /dev/",
}

// catastrophicShellPatterns are command substrings that are never allowed
// to dispatch, whatever the declared confidence.
var catastrophicShellPatterns = []string{
	"rm -rf /", "rm -fr /", "rm -rf /*",
	"mkfs /dev", "dd if=/dev/zero of=/dev/",
	":(){", // fork bomb
}

// defaultRules returns the built-in safety rule table.
// Shell execution is never Safe; unknown operations are handled by the
// classifier's no-match default (Dangerous).
func defaultRules() []Rule {
	return []Rule{
		{
			Name:  "shell_execution",
			Match: "shell.*",
			Evaluate: func(in StepInput) (Level, string) {
				command, _ := in.Parameters["command"].(string)
				lower := strings.ToLower(command)

				for _, pattern := range catastrophicShellPatterns {
					if strings.Contains(lower, pattern) {
						return LevelBlocked, fmt.Sprintf("command contains forbidden pattern %q", pattern)
					}
				}

				for _, verb := range destructiveShellVerbs {
					if strings.Contains(lower, verb) {
						return LevelDangerous, fmt.Sprintf("command contains destructive verb %q", strings.TrimSpace(verb))
					}
				}

				if strings.Contains(command, "sudo") {
					return LevelDangerous, "command requests privilege elevation"
				}

				return LevelCaution, "shell execution is never assumed safe"
			},
		},
		{
			Name:  "file_deletion",
			Match: "file.delete",
			Evaluate: func(in StepInput) (Level, string) {
				return LevelCaution, "file deletion is irreversible"
			},
		},
		{
			Name:  "file_operations",
			Match: "file.*",
			Evaluate: func(in StepInput) (Level, string) {
				return LevelSafe, ""
			},
		},
		{
			Name:  "ai_operations",
			Match: "ai.*",
			Evaluate: func(in StepInput) (Level, string) {
				return LevelSafe, ""
			},
		},
		{
			Name:  "state_operations",
			Match: "state.*",
			Evaluate: func(in StepInput) (Level, string) {
				return LevelSafe, ""
			},
		},
	}
}
