// C:\Users\wasab\OneDrive\デスクトップ\PYRO\parsers\parser_utils.go
package parsers

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SkipBOM はUTF-8 BOMをスキップします。
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	peeked, err := br.Peek(3)
	if err != nil {
		return br
	}
	if bytes.Equal(peeked, utf8BOM) {
		br.Discard(3)
	}
	return br
}

// DecodeText は UTF-8 (BOM 付き可) と GBK のどちらで保存されたファイルも
// UTF-8 として読めるようにします。Excel (中国語版) の CSV は GBK で保存されます。
func DecodeText(r io.Reader) (io.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ファイルの読み込みに失敗: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return bytes.NewReader(raw), nil
	}
	return transform.NewReader(bytes.NewReader(raw), simplifiedchinese.GBK.NewDecoder()), nil
}

// ParseAmount は "1,200.00" や "¥1,200" のような表記を数値にします。空や不正な値は 0。
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", "，", "", "¥", "", "￥", "").Replace(s)
	if s == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}

var headerKeywords = []string{"名称", "name", "品名"}

// headerStart は先頭5行からヘッダー行を探し、データの開始行を返します。
// 見つからない場合、1行目が (文字列, 数値) ならヘッダーなしとみなします。
func headerStart(rows [][]string) int {
	for i := 0; i < len(rows) && i < 5; i++ {
		joined := strings.ToLower(strings.Join(rows[i], " "))
		for _, kw := range headerKeywords {
			if strings.Contains(joined, kw) {
				return i + 1
			}
		}
	}
	if len(rows) > 0 && len(rows[0]) > 1 {
		if _, err := decimal.NewFromString(strings.TrimSpace(rows[0][1])); err == nil {
			return 0
		}
	}
	return 1
}
