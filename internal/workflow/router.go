package workflow

import (
	"strings"

	"github.com/Rrens/kb-assistant/internal/domain"
)

var (
	qaModes    = map[string]struct{}{"qa": {}, "rag": {}, "kb": {}}
	leaveModes = map[string]struct{}{"leave": {}, "hr": {}}

	leaveKeywords = []string{"请假", "年假", "病假", "事假", "休假", "调休", "假期", "请一天假", "请半天假", "审批"}
)

// DecideRoute picks the sub-workflow that owns a turn. An active leave
// conversation keeps the turn unless the caller explicitly asks for QA.
func DecideRoute(turn domain.Turn, prior domain.Route) domain.Route {
	mode := strings.ToLower(strings.TrimSpace(turn.Mode))
	_, wantsQA := qaModes[mode]

	if domain.Route(strings.ToLower(string(prior))) == domain.RouteLeave && !wantsQA {
		return domain.RouteLeave
	}
	if wantsQA {
		return domain.RouteQA
	}
	if _, ok := leaveModes[mode]; ok {
		return domain.RouteLeave
	}

	text := strings.ToLower(turn.Text)
	for _, k := range leaveKeywords {
		if strings.Contains(text, k) {
			return domain.RouteLeave
		}
	}
	return domain.RouteQA
}
