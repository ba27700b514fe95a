package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentFilter_Classify(t *testing.T) {
	cf := NewContentFilter()

	tests := []struct {
		name    string
		parts   []string
		flagged bool
	}{
		{"正常留言", []string{"Ann", "Lee", "I'd love to volunteer at the turtle rescue."}, false},
		{"script 标签", []string{"<script>alert(1)</script>"}, true},
		{"大写 SCRIPT 跨行", []string{"hello\n< SCRIPT src=x>"}, true},
		{"javascript 协议", []string{"see JavaScript:void(0)"}, true},
		{"内联事件", []string{`<img src=x onerror="steal()">`}, true},
		{"eval 调用", []string{"eval (atob('x'))"}, true},
		{"读取 cookie", []string{"document.cookie"}, true},
		{"iframe", []string{"<iframe src=//evil>"}, true},
		{"两个垃圾关键词", []string{"You are a winner, click here"}, false},
		{"三个垃圾关键词", []string{"Congratulations winner! Click here"}, true},
		{"关键词分布在多个字段", []string{"Casino", "Lottery", "act now please"}, true},
		{"单词中包含 on 但不是事件", []string{"Looking forward to seeing the ocean = joy"}, false},
		{"普通文本中的 one =", []string{"Quick question: does one = one tree planted per donation?"}, false},
		{"普通文本中的 online=", []string{"Our online=true volunteer signup form keeps timing out."}, false},
		{"普通文本中的 only =", []string{"The only = sign I know is in math class"}, false},
		{"无空格的内联事件", []string{"<svg/onload=alert(1)>"}, true},
		{"标签内带空格的内联事件", []string{`<body class="x" onLoad = "go()">`}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := cf.Classify(tt.parts...)
			assert.Equal(t, tt.flagged, v.Flagged, v.Reason)
			if tt.flagged {
				assert.NotEmpty(t, v.Reason)
			} else {
				assert.Empty(t, v.Reason)
			}
		})
	}
}
