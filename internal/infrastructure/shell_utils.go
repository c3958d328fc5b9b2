package infrastructure

import "strings"

// shellSpecialChars are the characters that change meaning in a POSIX shell
const shellSpecialChars = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// ShellEscape quotes s for display in a shell command line.
// Used for logging only; exec.Command never goes through a shell.
//
// Single quotes protect everything except a single quote itself,
// which is closed, emitted inside double quotes, and reopened.
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecialChars) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ShellEscapeCommand renders binary and args as a copy-pasteable command line for logs
func ShellEscapeCommand(binary string, args ...string) string {
	var b strings.Builder
	b.WriteString(ShellEscape(binary))
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(ShellEscape(arg))
	}
	return b.String()
}
