package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rrens/kb-assistant/internal/domain"
)

func TestDecideRoute(t *testing.T) {
	tests := []struct {
		name  string
		turn  domain.Turn
		prior domain.Route
		want  domain.Route
	}{
		{"sticky leave with arbitrary text", domain.Turn{Text: "公司报销流程？"}, domain.RouteLeave, domain.RouteLeave},
		{"sticky leave ignores leave mode", domain.Turn{Text: "x", Mode: "leave"}, domain.RouteLeave, domain.RouteLeave},
		{"sticky leave ignores unknown mode", domain.Turn{Text: "x", Mode: "chat"}, domain.RouteLeave, domain.RouteLeave},
		{"qa mode overrides sticky leave", domain.Turn{Text: "请假", Mode: "qa"}, domain.RouteLeave, domain.RouteQA},
		{"rag mode overrides sticky leave", domain.Turn{Text: "x", Mode: " RAG "}, domain.RouteLeave, domain.RouteQA},
		{"keyword after qa turn", domain.Turn{Text: "年假"}, domain.RouteQA, domain.RouteLeave},
		{"kb mode wins over keywords", domain.Turn{Text: "年假几天", Mode: "kb"}, "", domain.RouteQA},
		{"hr mode", domain.Turn{Text: "hello", Mode: "HR"}, "", domain.RouteLeave},
		{"leave mode", domain.Turn{Text: "hello", Mode: "leave"}, domain.RouteQA, domain.RouteLeave},
		{"keyword", domain.Turn{Text: "我想请明天上午的年假"}, "", domain.RouteLeave},
		{"approval keyword", domain.Turn{Text: "审批到哪了"}, "", domain.RouteLeave},
		{"default qa", domain.Turn{Text: "VPN 怎么连？"}, "", domain.RouteQA},
		{"prior qa does not stick", domain.Turn{Text: "调休怎么算"}, domain.RouteQA, domain.RouteLeave},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideRoute(tt.turn, tt.prior))
		})
	}
}
