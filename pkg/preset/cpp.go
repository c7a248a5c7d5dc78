package preset

import "github.com/Veraticus/highlite/pkg/rules"

func cpp() []rules.Rule {
	return []rules.Rule{
		// Strings and char literals
		rules.Regex(`"[^"\\]*(\\.[^"\\]*)*"|'[^'\\]*(\\.[^'\\]*)*'`, rules.RGB(206, 145, 120)),
		// Comments
		rules.Regex(`//.*|/\*.*\*/`, rules.RGB(106, 153, 85)),
		// Preprocessor
		rules.Regex(`^\s*#\s*(include|define|ifdef|ifndef|endif|if|else|pragma|line|error).*$`, rules.PresetColor(rules.Magenta)),
		// Numbers
		rules.Regex(`\b(0x[0-9a-fA-F]+|0b[01]+|\d+\.?\d*([eE][+-]?\d+)?|\d+)\b`, rules.RGB(181, 206, 168)),
		// Operators
		rules.Regex(`(->|::|<<=|>>=|==|!=|<=|>=|&&|\|\||\+\+|--|<<|>>|[\+\-\*\/%=&<>!&\|\^~\.\?:;])`, rules.PresetColor(rules.Red)),
		// Brackets
		rules.Regex(`[\(\)\{\}\[\]]`, rules.RGB(255, 215, 0)),
		// Control flow
		rules.Regex(`\b(if|else|for|while|do|switch|case|default|return|break|continue|goto|throw|try|catch)\b`, rules.RGB(197, 134, 192)),
		// Types and qualifiers
		rules.Regex(`\b(int|long|short|char|float|double|bool|void|size_t|u?int(8|16|32|64)_t|auto|unsigned|signed|const|static|inline|virtual|override|final|volatile|mutable|thread_local|explicit|enum|struct|class|union|typename|template)\b`, rules.PresetColor(rules.Blue)),
		// Other keywords
		rules.Regex(`\b(public|private|protected|using|namespace|friend|this|operator|new|delete|true|false|nullptr|constexpr|static_cast|dynamic_cast|reinterpret_cast|const_cast)\b`, rules.PresetColor(rules.Cyan)),
		rules.Regex(`\bstd::\w*`, rules.PresetColor(rules.Yellow)),
		// PascalCase type names
		rules.Regex(`\b[A-Z]\w*\b`, rules.PresetColor(rules.Green)),
	}
}
