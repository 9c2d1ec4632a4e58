package prompt

import "strings"

// ladderKey 风格阶梯查找键
type ladderKey struct {
	op       Operation
	register Register
	level    int
}

// ladder ELEVATE/GROUND/EXPAND 的指令块
// 缺失的组合回落到同一操作的 (SPEAKING, 1)
var ladder = map[ladderKey]string{
	// ELEVATE
	{OperationElevate, RegisterSpeaking, 1}: `DIRECTION: ELEVATE (POLISH).
Target: Articulate, confident spoken English (CEFR B2/C1).
Mechanism:
1. Lexical Precision: Replace generic words with precise, natural ones.
2. Fluency: Smooth the rhythm so it sounds good when said aloud.
3. Tone: Assured and polite, never stiff.
Example: "I am really hungry" -> "I am famished."`,
	{OperationElevate, RegisterSpeaking, 2}: `DIRECTION: ELEVATE (ORATORICAL).
Target: Refined, memorable speech (CEFR C2).
Mechanism:
1. Rhetoric: Use parallelism, inversion, or a well-placed idiom.
2. Lexical Precision: Prefer vivid, exact vocabulary.
3. Tone: Eloquent but still speakable.
Example: "I am really hungry" -> "Hunger, I confess, has quite overtaken me."`,
	{OperationElevate, RegisterWriting, 1}: `DIRECTION: ELEVATE (ACADEMIC).
Target: Clear formal prose (CEFR C1).
Mechanism:
1. Syntactic Complexity: Use subordination or participial phrases.
2. Lexical Precision: Replace generic verbs with precise ones.
3. Tone: Authoritative and measured.
Example: "I am really hungry" -> "I am experiencing considerable hunger."`,
	{OperationElevate, RegisterWriting, 2}: `DIRECTION: ELEVATE (LITERARY).
Target: Literary register (CEFR C2).
Mechanism:
1. Syntactic Complexity: Use inversion, nominalization, or periodic sentences.
2. Lexical Precision: Choose rare but exact vocabulary.
3. Tone: Refined and deliberate.
Example: "I am really hungry" -> "I am overcome by a ravenous appetite."`,

	// GROUND
	{OperationGround, RegisterSpeaking, 1}: `DIRECTION: GROUND (CLARITY).
Target: Natural everyday speech.
Mechanism:
1. Remove unnecessary modifiers.
2. Use contractions and common words.
3. Keep one idea per sentence.
Example: "I am overcome by a ravenous appetite" -> "I'm really hungry."`,
	{OperationGround, RegisterSpeaking, 2}: `DIRECTION: GROUND (BLUNT).
Target: The shortest natural way to say it out loud.
Mechanism:
1. Cut everything that is not essential.
2. Prefer slang-free, one- or two-syllable words.
3. Fragments are allowed if they sound natural.
Example: "I am overcome by a ravenous appetite" -> "Starving."`,
	{OperationGround, RegisterWriting, 1}: `DIRECTION: GROUND (DIRECTNESS).
Target: Plain, modern written prose.
Mechanism:
1. Remove unnecessary modifiers.
2. Unpack complex grammar into direct Subject-Verb-Object structures.
3. Use strong Anglo-Saxon roots.
Example: "I am overcome by a ravenous appetite" -> "I am very hungry."`,
	{OperationGround, RegisterWriting, 2}: `DIRECTION: GROUND (HEMINGWAY).
Target: Natural, punchy prose in the style of Hemingway.
Mechanism:
1. Short declarative sentences.
2. Concrete nouns and active verbs only.
3. No adverbs.
Example: "I am overcome by a ravenous appetite" -> "I'm starving."`,

	// EXPAND
	{OperationExpand, RegisterSpeaking, 1}: `DIRECTION: NUANCE (FEELING).
Target: Expressive conversational storytelling.
Mechanism:
1. Name the feeling behind the statement.
2. Add one small, relatable detail.
3. Keep it something a person would actually say.
Example: "I am really hungry" -> "I'm so hungry I can't even think straight."`,
	{OperationExpand, RegisterSpeaking, 2}: `DIRECTION: NUANCE & EXPANSION (ANECDOTE).
Target: A vivid spoken anecdote.
Mechanism:
1. "Show, Don't Tell": Describe the physical sensation.
2. Add a specific detail that implies the situation.
3. You may use two or three sentences.
Example: "I am really hungry" -> "My stomach's been growling since the meeting started. I skipped breakfast and I'm paying for it now."`,
	{OperationExpand, RegisterWriting, 1}: `DIRECTION: NUANCE (SENSORY).
Target: Descriptive creative non-fiction.
Mechanism:
1. "Show, Don't Tell": Describe the physical sensation or environment.
2. Add one concrete sensory detail.
3. Keep it to a single sentence.
Example: "I am really hungry" -> "A hollow ache spread beneath my ribs."`,
	{OperationExpand, RegisterWriting, 2}: `DIRECTION: NUANCE & EXPANSION.
Target: Creative Non-Fiction / Novelist style.
Mechanism:
1. "Show, Don't Tell": Describe the physical sensation or environment.
2. Add Detail: Introduce a specific detail that implies the context.
3. Expand: You are allowed to make the sentence longer to add depth.
Example: "I am really hungry" -> "My stomach gave a hollow rumble, reminding me I hadn't eaten since dawn."`,
}

// personas CUSTOM 的预置人设，名称大小写不敏感
var personas = map[string]string{
	"shakespeare": "Rewrite this as Shakespeare might have written it: Early Modern English, iambic rhythm where natural, and vivid metaphor.",
	"hemingway":   "Rewrite this in the style of Ernest Hemingway: short declarative sentences, concrete nouns, no ornament.",
	"scientist":   "Rewrite this as a careful scientist would state it: precise, hedged where appropriate, and quantitative if possible.",
	"poet":        "Rewrite this as a line of lyric poetry with imagery and musicality, keeping the original meaning.",
	"journalist":  "Rewrite this as the lead sentence of a news report: factual, concise, active voice.",
	"child":       "Rewrite this the way a curious seven-year-old would say it: simple words and honest enthusiasm.",
	"lawyer":      "Rewrite this in precise legal drafting style, removing ambiguity without changing the facts.",
}

// defaultCustomInstruction CUSTOM 未提供指令时使用
const defaultCustomInstruction = "Rewrite this."

// lookupLadder 查找指令块，找不到时回落到 (SPEAKING, 1)
func lookupLadder(op Operation, register Register, level int) string {
	if block, ok := ladder[ladderKey{op, register, level}]; ok {
		return block
	}
	return ladder[ladderKey{op, RegisterSpeaking, DefaultLevel}]
}

// customBlock 人设命中时返回预置指令，否则使用用户原始指令
func customBlock(instruction string) string {
	name := strings.ToLower(strings.TrimSpace(instruction))
	if name == "" {
		return "Instruction: " + defaultCustomInstruction
	}
	if preset, ok := personas[name]; ok {
		return "Instruction: " + preset
	}
	return "Instruction: " + instruction
}

// Personas 返回可用的人设名称
func Personas() []string {
	names := make([]string, 0, len(personas))
	for name := range personas {
		names = append(names, name)
	}
	return names
}
