package leave

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Intent is the kind of leave operation a turn asks for
type Intent string

const (
	IntentApply  Intent = "apply"
	IntentQuery  Intent = "query"
	IntentCancel Intent = "cancel"
	IntentList   Intent = "list"
	IntentModify Intent = "modify"
)

var (
	cancelKeywords = []string{"取消", "撤销", "撤回", "cancel"}
	queryKeywords  = []string{"查询", "查一下", "状态", "进度", "审批结果", "query", "status"}
	listKeywords   = []string{"列表", "记录", "最近", "历史", "list", "history"}
	domainKeywords = []string{"请假", "假", "leave", "lv-"}
	modifyKeywords = []string{"修改", "改成", "改为", "改到", "更改", "调整", "modify", "change"}

	confirmTokens = map[string]struct{}{
		"确认": {}, "确定": {}, "yes": {}, "ok": {}, "submit": {},
	}

	leaveIDPattern   = regexp.MustCompile(`(?i)LV-[0-9a-f]{6,12}`)
	countPattern     = regexp.MustCompile(`(\d+)\s*条`)
	recentPattern    = regexp.MustCompile(`最近\s*(\d+)`)
	defaultListLimit = 5
	maxListLimit     = 20
)

// ClassifyIntent maps turn text to a leave intent. Cancel wins over
// everything; query and list also need leave vocabulary in the text.
func ClassifyIntent(text string) Intent {
	t := strings.ToLower(text)
	inDomain := containsAny(t, domainKeywords)

	switch {
	case containsAny(t, cancelKeywords):
		return IntentCancel
	case inDomain && containsAny(t, queryKeywords):
		return IntentQuery
	case inDomain && containsAny(t, listKeywords):
		return IntentList
	case containsAny(t, modifyKeywords):
		return IntentModify
	}
	return IntentApply
}

// FindLeaveID returns the first leave id mentioned in text, normalized to
// an upper-case prefix and lower-case hex
func FindLeaveID(text string) (string, bool) {
	m := leaveIDPattern.FindString(text)
	if m == "" {
		return "", false
	}
	return "LV-" + strings.ToLower(m[3:]), true
}

// ParseListLimit reads "<N>条" or "最近<N>" from text, clamped to [1, 20]
func ParseListLimit(text string) int {
	for _, re := range []*regexp.Regexp{countPattern, recentPattern} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if errors.Is(err, strconv.ErrRange) {
			return maxListLimit
		}
		if err != nil {
			continue
		}
		return clamp(n, 1, maxListLimit)
	}
	return defaultListLimit
}

// IsConfirmation reports whether text is exactly a confirmation token
func IsConfirmation(text string) bool {
	_, ok := confirmTokens[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
