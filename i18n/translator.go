package i18n

import "fmt"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "got").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			if data["expected"] != "" && data["got"] != "" {
				return fmt.Sprintf("%s が必要ですが %s でした", data["expected"], data["got"])
			}
			return "型が不正です"
		case "required":
			return "必須プロパティが不足しています"
		case "unknown_key":
			return "未知のキーです"
		case "too_short":
			return "短すぎます"
		case "too_long":
			return "長すぎます"
		case "too_small":
			return "小さすぎます"
		case "too_big":
			return "大きすぎます"
		case "pattern":
			return "パターンに一致しません"
		case "invalid_enum":
			return "許可されていない値です"
		case "invalid_const":
			return "固定値と一致しません"
		case "invalid_format":
			return "書式が不正です"
		case "union_mismatch":
			return "いずれのスキーマにも一致しません"
		case "parse_error":
			return "解析エラー"
		case "arity_mismatch":
			return "引数の個数が宣言と一致しません"
		case "schema_error":
			return "スキーマ自体が不正です"
		case "transport_error":
			return "呼び出しに失敗しました"
		case "exact_mismatch":
			return "期待値と一致しません"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			if data["expected"] != "" && data["got"] != "" {
				return fmt.Sprintf("expected %s, got %s", data["expected"], data["got"])
			}
			return "invalid type"
		case "required":
			return "required property missing"
		case "unknown_key":
			return "unknown key"
		case "too_short":
			return "too short"
		case "too_long":
			return "too long"
		case "too_small":
			return "too small"
		case "too_big":
			return "too big"
		case "pattern":
			return "pattern mismatch"
		case "invalid_enum":
			return "value not in enum"
		case "invalid_const":
			return "value differs from const"
		case "invalid_format":
			return "invalid format"
		case "union_mismatch":
			return "value matches no schema variant"
		case "parse_error":
			return "parse error"
		case "arity_mismatch":
			return "param count disagrees with declaration"
		case "schema_error":
			return "declared schema is invalid"
		case "transport_error":
			return "call failed"
		case "exact_mismatch":
			return "result differs from expected example"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
