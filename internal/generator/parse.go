package generator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// fortunePayload は生成応答から取り出すJSONの形。
// 欠けたフィールドは呼び出し側がフォールバックで補完する。
type fortunePayload struct {
	Summary   string   `json:"summary"`
	FullText  string   `json:"fullText"`
	Color     string   `json:"color"`
	Precision string   `json:"precision"`
	Keywords  []string `json:"keywords"`
	Quote     string   `json:"quote"`
}

// extractJSON は応答本文から最初の対応が取れた{...}を切り出す。
// Markdownコードブロック等で囲まれた応答にも対応する。
func extractJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// parseFortunePayload は応答本文をfortunePayloadに復号する。
func parseFortunePayload(content string) (*fortunePayload, error) {
	raw, ok := extractJSON(content)
	if !ok {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var p fortunePayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to decode fortune payload: %w", err)
	}

	return &p, nil
}
