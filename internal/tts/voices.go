package tts

import (
	"strings"

	"github.com/schollz/closestmatch"
)

// Voice is a DashScope qwen-tts speaker identifier.
type Voice string

const (
	VoiceChelsie Voice = "Chelsie"
	VoiceCherry  Voice = "Cherry"
	VoiceEthan   Voice = "Ethan"
	VoiceSerena  Voice = "Serena"
	VoiceDylan   Voice = "Dylan"
	VoiceJada    Voice = "Jada"
	VoiceSunny   Voice = "Sunny"
)

// VoiceInfo describes a voice for the UI picker
type VoiceInfo struct {
	Name        Voice  `json:"name"`
	Gender      string `json:"gender"`
	Description string `json:"description"`
}

var supportedVoices = []VoiceInfo{
	{Name: VoiceChelsie, Gender: "female", Description: "Standard female voice"},
	{Name: VoiceCherry, Gender: "female", Description: "Bright, upbeat female voice"},
	{Name: VoiceEthan, Gender: "male", Description: "Standard male voice"},
	{Name: VoiceSerena, Gender: "female", Description: "Gentle female voice"},
	{Name: VoiceDylan, Gender: "male", Description: "Beijing dialect"},
	{Name: VoiceJada, Gender: "female", Description: "Shanghai dialect"},
	{Name: VoiceSunny, Gender: "female", Description: "Sichuan dialect"},
}

var voiceMatcher *closestmatch.ClosestMatch

func init() {
	names := make([]string, 0, len(supportedVoices))
	for _, v := range supportedVoices {
		names = append(names, strings.ToLower(string(v.Name)))
	}
	voiceMatcher = closestmatch.New(names, []int{2})
}

func Voices() []VoiceInfo {
	out := make([]VoiceInfo, len(supportedVoices))
	copy(out, supportedVoices)
	return out
}

// ParseVoice resolves a voice name case-insensitively.
func ParseVoice(name string) (Voice, bool) {
	name = strings.TrimSpace(name)
	for _, v := range supportedVoices {
		if strings.EqualFold(string(v.Name), name) {
			return v.Name, true
		}
	}
	return "", false
}

// SuggestVoice returns the supported voice closest to name, or "" if nothing is close.
func SuggestVoice(name string) Voice {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	match := voiceMatcher.Closest(name)
	if match == "" {
		return ""
	}
	v, _ := ParseVoice(match)
	return v
}
