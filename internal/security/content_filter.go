package security

import (
	"regexp"
	"strings"
)

// spamThreshold 命中多少个垃圾关键词视为垃圾内容
const spamThreshold = 3

// Verdict 内容检查结果
type Verdict struct {
	Flagged bool
	Reason  string
}

// ContentFilter 内容过滤器
//
// 检查联系表单的原始文本（清洗之前），命中恶意模式或足够多的垃圾关键词时标记。
type ContentFilter struct {
	// 恶意内容模式
	maliciousPatterns []*regexp.Regexp

	// 垃圾邮件关键词
	spamKeywords []string
}

// NewContentFilter 创建内容过滤器
func NewContentFilter() *ContentFilter {
	return &ContentFilter{
		maliciousPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)<\s*script\b`),
			regexp.MustCompile(`(?i)javascript\s*:`),
			regexp.MustCompile(`(?i)<[^>]*\bon\w+\s*=`),
			regexp.MustCompile(`(?i)\beval\s*\(`),
			regexp.MustCompile(`(?i)document\.cookie`),
			regexp.MustCompile(`(?i)<\s*iframe\b`),
			regexp.MustCompile(`(?i)<\s*object\b`),
			regexp.MustCompile(`(?i)<\s*embed\b`),
		},
		spamKeywords: []string{
			"viagra", "casino", "lottery", "winner", "congratulations",
			"free money", "click here", "limited time", "act now",
			"guaranteed", "no risk", "earn money", "work from home",
			"crypto giveaway", "seo services",
		},
	}
}

// Classify 检查文本，多段文本按顺序拼接后一起检查
func (cf *ContentFilter) Classify(parts ...string) Verdict {
	content := strings.Join(parts, "\n")

	if reason, ok := cf.checkMaliciousContent(content); ok {
		return Verdict{Flagged: true, Reason: reason}
	}
	if reason, ok := cf.checkSpamContent(content); ok {
		return Verdict{Flagged: true, Reason: reason}
	}
	return Verdict{}
}

func (cf *ContentFilter) checkMaliciousContent(content string) (string, bool) {
	for _, pattern := range cf.maliciousPatterns {
		if pattern.MatchString(content) {
			return "malicious content: " + pattern.String(), true
		}
	}
	return "", false
}

func (cf *ContentFilter) checkSpamContent(content string) (string, bool) {
	contentLower := strings.ToLower(content)

	spamCount := 0
	for _, keyword := range cf.spamKeywords {
		if strings.Contains(contentLower, keyword) {
			spamCount++
		}
	}

	if spamCount >= spamThreshold {
		return "spam content: multiple spam keywords", true
	}
	return "", false
}
