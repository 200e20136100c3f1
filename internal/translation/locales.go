package translation

import "strings"

// Locale is static reference data: code, English name, native name.
type Locale struct {
	Code       string
	Name       string
	NativeName string
}

var locales = []Locale{
	{Code: "en-US", Name: "English (US)", NativeName: "English"},
	{Code: "en-GB", Name: "English (UK)", NativeName: "English"},
	{Code: "es-ES", Name: "Spanish (Spain)", NativeName: "Español"},
	{Code: "es-MX", Name: "Spanish (Mexico)", NativeName: "Español"},
	{Code: "fr-FR", Name: "French", NativeName: "Français"},
	{Code: "de-DE", Name: "German", NativeName: "Deutsch"},
	{Code: "it-IT", Name: "Italian", NativeName: "Italiano"},
	{Code: "pt-BR", Name: "Portuguese (Brazil)", NativeName: "Português"},
	{Code: "pt-PT", Name: "Portuguese (Portugal)", NativeName: "Português"},
	{Code: "nl-NL", Name: "Dutch", NativeName: "Nederlands"},
	{Code: "pl-PL", Name: "Polish", NativeName: "Polski"},
	{Code: "ro-RO", Name: "Romanian", NativeName: "Română"},
	{Code: "sv-SE", Name: "Swedish", NativeName: "Svenska"},
	{Code: "da-DK", Name: "Danish", NativeName: "Dansk"},
	{Code: "nb-NO", Name: "Norwegian", NativeName: "Norsk"},
	{Code: "fi-FI", Name: "Finnish", NativeName: "Suomi"},
	{Code: "cs-CZ", Name: "Czech", NativeName: "Čeština"},
	{Code: "el-GR", Name: "Greek", NativeName: "Ελληνικά"},
	{Code: "tr-TR", Name: "Turkish", NativeName: "Türkçe"},
	{Code: "ru-RU", Name: "Russian", NativeName: "Русский"},
	{Code: "uk-UA", Name: "Ukrainian", NativeName: "Українська"},
	{Code: "ar-SA", Name: "Arabic", NativeName: "العربية"},
	{Code: "he-IL", Name: "Hebrew", NativeName: "עברית"},
	{Code: "hi-IN", Name: "Hindi", NativeName: "हिन्दी"},
	{Code: "ja-JP", Name: "Japanese", NativeName: "日本語"},
	{Code: "ko-KR", Name: "Korean", NativeName: "한국어"},
	{Code: "zh-CN", Name: "Chinese (Simplified)", NativeName: "简体中文"},
	{Code: "zh-TW", Name: "Chinese (Traditional)", NativeName: "繁體中文"},
	{Code: "vi-VN", Name: "Vietnamese", NativeName: "Tiếng Việt"},
	{Code: "id-ID", Name: "Indonesian", NativeName: "Bahasa Indonesia"},
	{Code: "th-TH", Name: "Thai", NativeName: "ไทย"},
}

// LocaleByCode looks up a locale by its code, case-insensitively.
func LocaleByCode(code string) (Locale, bool) {
	for _, l := range locales {
		if strings.EqualFold(l.Code, code) {
			return l, true
		}
	}
	return Locale{}, false
}

// Locales returns the supported locale table.
func Locales() []Locale {
	out := make([]Locale, len(locales))
	copy(out, locales)
	return out
}
