package preset

import "github.com/Veraticus/highlite/pkg/rules"

// logs highlights common application and system log content. Order matters:
// timestamps and addresses come before plain numbers, quoted strings last.
func logs() []rules.Rule {
	return []rules.Rule{
		// Timestamps
		rules.Regex(`\b\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}(\.\d+)?\b`, rules.RGB(180, 180, 180)),

		// IP addresses, before numbers so 192.168.0.1 stays whole
		rules.Regex(`\b\d{1,3}(\.\d{1,3}){3}\b`, rules.RGB(255, 165, 0)),
		rules.Regex(`\b([0-9a-fA-F]{0,4}:){1,7}[0-9a-fA-F]{0,4}\b`, rules.RGB(255, 165, 0)),

		// URLs and domains
		rules.Regex(`https?://[^\s/$.?#].[^\s]*`, rules.RGB(80, 200, 250)),
		rules.Regex(`\b([a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}\b`, rules.RGB(100, 150, 200)),

		// JSON keys
		rules.Regex(`"[^"]+"\s*:`, rules.RGB(200, 100, 200)),

		// key=value identifiers
		rules.Regex(`\b(user|uid|id|request_id|trace_id|span_id)=\S+\b`, rules.RGB(206, 145, 120)).Fold(),

		// Qualified names such as com.example.Class
		rules.Regex(`\b([A-Za-z_][\w$]*\.)+[A-Za-z_][\w$]*\b`, rules.RGB(86, 156, 214)),

		// File paths
		rules.Regex(`(/[^ \t\n]+)+`, rules.RGB(152, 195, 121)),

		// Levels
		rules.Regex(`\b(FATAL|CRITICAL|FF)\b`, rules.RGB(255, 0, 0)).Fold(),
		rules.Regex(`\b(ERROR|EE)\b`, rules.PresetColor(rules.Red)).Fold(),
		rules.Regex(`\b(WARN(ING)?|WW)\b`, rules.PresetColor(rules.Yellow)).Fold(),
		rules.Regex(`\b(INFO|II)\b`, rules.PresetColor(rules.Green)).Fold(),
		rules.Regex(`\b(DEBUG|DD)\b`, rules.PresetColor(rules.Cyan)).Fold(),
		rules.Regex(`\b(TRACE|VV)\b`, rules.RGB(160, 160, 160)).Fold(),

		// HTTP
		rules.Regex(`\b(GET|POST|PUT|DELETE|PATCH|OPTIONS|HEAD)\b`, rules.RGB(0, 200, 0)),
		rules.Regex(`\b(1\d{2}|2\d{2}|3\d{2}|4\d{2}|5\d{2})\b`, rules.RGB(255, 140, 0)),

		// Threads and pids
		rules.Regex(`\[(main|worker-\d+|thread-\d+)\]`, rules.RGB(140, 140, 255)).Fold(),
		rules.Regex(`\bpid=\d+\b`, rules.RGB(140, 140, 255)),

		// Exceptions and stack frames
		rules.Regex(`\b(Exception|Error|Traceback)\b`, rules.RGB(255, 50, 50)),
		rules.Regex(`^\s+at\s+[^\s]+\([^\)]*\)`, rules.RGB(180, 180, 255)),

		// SQL keywords and shell variables
		rules.Regex(`\b(SELECT|INSERT|UPDATE|DELETE|FROM|WHERE|JOIN|CREATE|DROP|ALTER)\b`, rules.RGB(0, 255, 200)).Fold(),
		rules.Regex(`(\$[a-zA-Z_][\w]*)`, rules.RGB(255, 200, 100)),

		// Remaining numbers
		rules.Regex(`\b\d+(\.\d+)?\b`, rules.RGB(181, 206, 168)),

		// Quoted strings
		rules.Regex(`"([^"\\]|\\.)*"`, rules.RGB(214, 157, 133)),
	}
}
