package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// 验证常量
const (
	MaxEmailLength   = 254  // RFC 5321 地址最大长度
	MaxNameLength    = 100  // 名/姓最大长度
	MaxMessageLength = 5000 // 留言最大长度
	MinMessageLength = 10   // 留言最小长度（清洗后）
)

// space 与浏览器端 \s 一致的空白字符集（RE2 的 \s 只含 ASCII 空白）
const space = `\s\v\p{Z}\x{FEFF}`

var (
	emailRegex = regexp.MustCompile(`^[^` + space + `@]+@[^` + space + `@]+\.[^` + space + `@]+$`)
	phoneRegex = regexp.MustCompile(`^\+?[\d` + space + `\-()]{10,}$`)

	angleBrackets  = regexp.MustCompile(`[<>]`)
	jsProtocol     = regexp.MustCompile(`(?i)javascript:`)
	inlineHandlers = regexp.MustCompile(`(?i)on\w+\s*=`)
	nonDigits      = regexp.MustCompile(`\D`)
)

// IsValidEmail 判断去除首尾空白后的字符串是否为邮箱格式
//
// 只做结构校验（local@domain.tld），不解析 RFC 5322 的完整语法。
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

// SanitizeEmail 去除首尾空白并转换为小写
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeInput 清洗自由文本输入
//
// 依次执行：去除首尾空白、删除尖括号、删除 javascript: 协议、删除内联事件处理器（onxxx=）。
// 这是尽力而为的过滤，输出到 HTML 时仍需转义。
func SanitizeInput(input string) string {
	out := strings.TrimSpace(input)
	out = angleBrackets.ReplaceAllString(out, "")
	out = jsProtocol.ReplaceAllString(out, "")
	out = inlineHandlers.ReplaceAllString(out, "")
	return out
}

// IsValidPhone 宽松的电话号码校验：可选的 +，至少 10 个数字/空格/括号/连字符
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(strings.TrimSpace(phone))
}

// FormatPhone 将 10 位数字格式化为 (xxx) xxx-xxxx，其他输入原样返回
func FormatPhone(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	if len(digits) == 10 {
		return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
	}
	return phone
}

// FormatDate 以 "January 2, 2006" 的形式格式化日期
func FormatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// RuneLen 返回字符数（而非字节数）
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
