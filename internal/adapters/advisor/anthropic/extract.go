package anthropic

import "strings"

// maxScanBytes は構造化ペイロード抽出で走査する最大バイト数です。
const maxScanBytes = 64 * 1024

// extractPayload は自由形式テキストから最初の釣り合いの取れた {...} 領域を
// 取り出します。JSON 文字列値内の括弧はネストとして数えません。
// 見つからない場合は空文字列を返します。
func extractPayload(text string) string {
	if len(text) > maxScanBytes {
		text = text[:maxScanBytes]
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}
