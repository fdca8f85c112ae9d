package smoke

import (
	"strings"

	"github.com/tahcohcat/qwen-tts-web/internal/tts"
)

// Expectation is what a case must produce to pass.
type Expectation int

const (
	ExpectAudio Expectation = iota
	ExpectValidation
	ExpectAuthInvalid
	ExpectAnyError
)

func (e Expectation) String() string {
	switch e {
	case ExpectAudio:
		return "audio"
	case ExpectValidation:
		return "validation error"
	case ExpectAuthInvalid:
		return "auth invalid"
	default:
		return "any error"
	}
}

type Case struct {
	Name  string
	Group string
	Text  string
	Voice tts.Voice
	// Credential overrides the runner's key when set
	Credential string
	Expect     Expectation
}

const (
	GroupConnectivity   = "connectivity"
	GroupAuthentication = "authentication"
	GroupText           = "text processing"
	GroupVoice          = "voice selection"
	GroupErrors         = "error handling"
)

// DefaultCases is the full live suite.
func DefaultCases() []Case {
	return []Case{
		{Name: "basic connectivity", Group: GroupConnectivity, Text: "测试", Voice: tts.VoiceChelsie},
		{Name: "short text", Group: GroupText, Text: "你好，这是一个测试。", Voice: tts.VoiceChelsie},
		{Name: "medium text", Group: GroupText, Text: "人工智能正在改变我们的生活方式，从智能家居到自动驾驶，AI技术无处不在。", Voice: tts.VoiceCherry},
		{Name: "long text", Group: GroupText, Text: strings.Repeat("在这个数字化时代，人工智能技术正在各个领域发挥着越来越重要的作用。", 4), Voice: tts.VoiceSerena},
		{Name: "chinese text", Group: GroupText, Text: "今天天气真好，我们一起去公园散步吧。", Voice: tts.VoiceSerena},
		{Name: "english text", Group: GroupText, Text: "Hello, this is a test of the Qwen TTS system.", Voice: tts.VoiceEthan},
		{Name: "mixed text", Group: GroupText, Text: "AI技术真的很amazing，未来发展potential巨大！", Voice: tts.VoiceChelsie},
		{Name: "special characters", Group: GroupText, Text: "测试！＠＃＄％＾＆＊（）＿＋｛｝［］｜＼：；＂＇＜＞？，．／", Voice: tts.VoiceChelsie},
		{Name: "female voice", Group: GroupVoice, Text: "女声测试", Voice: tts.VoiceChelsie},
		{Name: "male voice", Group: GroupVoice, Text: "男声测试", Voice: tts.VoiceEthan},
		{Name: "dialect voice", Group: GroupVoice, Text: "方言测试", Voice: tts.VoiceDylan},
		{Name: "empty text", Group: GroupErrors, Text: "", Voice: tts.VoiceChelsie, Expect: ExpectValidation},
		{Name: "text over limit", Group: GroupErrors, Text: strings.Repeat("测", tts.MaxTextLength+1), Voice: tts.VoiceChelsie, Expect: ExpectValidation},
		{Name: "unknown voice", Group: GroupErrors, Text: "测试", Voice: "InvalidVoice", Expect: ExpectValidation},
		{Name: "invalid api key", Group: GroupAuthentication, Text: "测试", Voice: tts.VoiceChelsie, Credential: "invalid-key", Expect: ExpectAuthInvalid},
	}
}

// QuickCases is a three-call sanity check.
func QuickCases() []Case {
	return []Case{
		{Name: "basic", Group: GroupConnectivity, Text: "你好，这是一个测试。", Voice: tts.VoiceChelsie},
		{Name: "english", Group: GroupText, Text: "Hello, this is a test.", Voice: tts.VoiceEthan},
		{Name: "chinese", Group: GroupText, Text: "今天天气真好", Voice: tts.VoiceSerena},
	}
}
