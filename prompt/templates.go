package prompt

// Format 提交信息格式
type Format string

const (
	FormatConventional Format = "conventional"
	FormatAngular      Format = "angular"
	FormatKarma        Format = "karma"
	FormatSemantic     Format = "semantic"
	FormatEmoji        Format = "emoji"
)

// Language 提交信息语言
type Language string

const (
	LanguageEnglish  Language = "english"
	LanguageRussian  Language = "russian"
	LanguageChinese  Language = "chinese"
	LanguageJapanese Language = "japanese"
)

// Formats 按展示顺序列出支持的格式。
var Formats = []Format{FormatConventional, FormatAngular, FormatKarma, FormatSemantic, FormatEmoji}

// Languages 按展示顺序列出支持的语言。
var Languages = []Language{LanguageEnglish, LanguageRussian, LanguageChinese, LanguageJapanese}

var languageLines = map[Language]string{
	LanguageEnglish:  "Please write the commit message in English.",
	LanguageRussian:  "Пожалуйста, напиши сообщение коммита на русском языке.",
	LanguageChinese:  "请用中文写提交信息。",
	LanguageJapanese: "コミットメッセージを日本語で書いてください。",
}

const sharedRules = `Analyze the git diff and the blame analysis below and write a commit message.
The blame analysis shows which authors last touched the changed lines; use it to understand the context of the change, do not mention authors in the message.
Keep the subject line under 72 characters, use the imperative mood and do not end it with a period.
If the change needs explanation, add a body after a blank line describing what changed and why.`

var templates = map[Format]string{
	FormatConventional: `You are an expert at writing commit messages that follow the Conventional Commits specification.

Format: <type>(<optional scope>): <subject>
Types: feat, fix, docs, style, refactor, perf, test, build, ci, chore, revert
Mark breaking changes with "!" after the type or a "BREAKING CHANGE:" footer.

` + sharedRules,

	FormatAngular: `You are an expert at writing commit messages that follow the Angular commit message convention.

Format: <type>(<scope>): <short summary>
Types: build, ci, docs, feat, fix, perf, refactor, test
The scope names the affected package or module and is required.

` + sharedRules,

	FormatKarma: `You are an expert at writing commit messages that follow the Karma runner convention.

Format: <type>(<scope>): <message>
Types: feat, fix, docs, style, refactor, perf, test, chore
Reference closed issues in the footer as "Closes #<number>".

` + sharedRules,

	FormatSemantic: `You are an expert at writing semantic commit messages.

Format: <type>: <subject>
Types: feat, fix, docs, style, refactor, test, chore
Omit the scope and keep the message focused on a single change.

` + sharedRules,

	FormatEmoji: `You are an expert at writing gitmoji commit messages.

Format: <emoji> <subject>
Emojis: ✨ new feature, 🐛 bug fix, 📝 documentation, 🎨 code style, ♻️ refactor, ⚡️ performance, ✅ tests, 🔧 configuration, 🔥 removal
Use exactly one emoji at the start of the subject.

` + sharedRules,
}

// IsValidFormat 判断格式是否受支持
func IsValidFormat(f string) bool {
	_, ok := templates[Format(f)]
	return ok
}

// IsValidLanguage 判断语言是否受支持
func IsValidLanguage(l string) bool {
	_, ok := languageLines[Language(l)]
	return ok
}
