package logger

import "strings"

// hintRule maps message fragments to a remediation hint. Rules are checked
// in order and the first match wins, so specific rules come first.
type hintRule struct {
	match func(msg string) bool
	hint  string
}

func containsAny(subs ...string) func(string) bool {
	return func(msg string) bool {
		for _, s := range subs {
			if strings.Contains(msg, s) {
				return true
			}
		}
		return false
	}
}

var hintRules = []hintRule{
	{
		match: containsAny("no revision table"),
		hint:  "The drawing template does not contain a revision table. Add one to the template.",
	},
	{
		match: containsAny("failed to open", "could not open"),
		hint:  "Check that the file exists, is not open in another program and is not checked out by another user.",
	},
	{
		match: func(msg string) bool {
			return strings.Contains(msg, "no drawing found") ||
				(strings.Contains(msg, "drawing") && strings.Contains(msg, "not found"))
		},
		hint: "Drawing-based formats need a drawing file with the same name as the model, in the same folder.",
	},
	{
		match: containsAny("template"),
		hint:  "Configure a drawing template in the tool settings.",
	},
	{
		match: containsAny("translator", "converter", "executable file not found"),
		hint:  "The converter for this format could not be started. Check the command configured for it.",
	},
	{
		match: containsAny("not found in memory", "document not found"),
		hint:  "The document may have been closed or moved between scan and export. Scan again.",
	},
	{
		match: containsAny("simplif"),
		hint:  "The simplify step failed. Check that the document type supports it.",
	},
	{
		match: containsAny("file not found", "not found", "no such file"),
		hint:  "Check that the source file exists and the path is correct.",
	},
	{
		match: containsAny("save", "write", "permission denied"),
		hint:  "Check that the output folder exists and you have write permission.",
	},
	{
		match: containsAny("pdf", "page"),
		hint:  "The exported PDF is not readable. Re-export it or check the drawing sheets.",
	},
	{
		match: containsAny("com error", "com_error", "rpc", "signal: killed", "timed out"),
		hint:  "The converter stopped responding. Make sure it is not waiting on a dialog.",
	},
}

// ErrorHint returns a remediation hint for a known error message, or "" when
// the message matches no known pattern. Matching is case-insensitive.
func ErrorHint(message string) string {
	msg := strings.ToLower(message)
	for _, rule := range hintRules {
		if rule.match(msg) {
			return rule.hint
		}
	}
	return ""
}
