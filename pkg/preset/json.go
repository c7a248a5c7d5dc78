package preset

import "github.com/Veraticus/highlite/pkg/rules"

func jsonRules() []rules.Rule {
	return []rules.Rule{
		// Keys, before plain strings
		rules.Regex(`"[^"]+"\s*:`, rules.RGB(214, 157, 133)),
		rules.Regex(`"([^"\\]|\\.)*"`, rules.RGB(181, 206, 168)),
		rules.Regex(`\b\d+(\.\d+)?\b`, rules.RGB(206, 145, 120)),
		rules.Regex(`\b(true|false|null)\b`, rules.PresetColor(rules.Cyan)).Fold(),
	}
}
