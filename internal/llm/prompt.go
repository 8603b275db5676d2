package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/kb-assistant/internal/domain"
)

// SlotSystem instructs the model to act as the leave field extractor
const SlotSystem = "你是企业HR请假助手。" +
	"你的任务是从用户请假描述中抽取结构化信息。" +
	"只输出JSON，不要解释。"

// TimeSystem instructs the model to act as the leave time parser
const TimeSystem = "你是时间解析器。" +
	"请把中文自然语言中的请假时间解析为 ISO 8601 start_time/end_time。" +
	"只输出JSON，不要解释。"

// QASystem instructs the model to answer strictly from retrieved evidence
const QASystem = `你是企业知识助理。
- 严格基于给定证据回答，不能编造。
- 若证据不足，说明缺口并提出澄清问题或建议提交工单。
- 输出必须包含引用编号。`

// PromptTimeLayout is the layout used for "now" anchors and expected outputs
const PromptTimeLayout = "2006-01-02 15:04"

// BuildSlotPrompt creates the field extraction prompt
func BuildSlotPrompt(text string) string {
	return fmt.Sprintf(`请从下面文本中抽取字段，输出严格 JSON：
{
  "leave_type": "annual|sick|personal|other",
  "start_time": "YYYY-MM-DD HH:MM 或 null",
  "end_time": "YYYY-MM-DD HH:MM 或 null",
  "reason": "string 或 null"
}

要求：
- 年假=annual，病假=sick，事假=personal，其它=other；无法判断就输出 null
- 如果用户没有明确说开始/结束时间，就输出 null
- 时间必须是 ISO 8601 格式（YYYY-MM-DD HH:MM）
- 不要编造时间
- 只输出 JSON

文本：%s
`, text)
}

// BuildTimePrompt creates the relative time parsing prompt anchored at now
func BuildTimePrompt(now time.Time, text string) string {
	return fmt.Sprintf(`现在时间是：%s（%s）
用户文本：%s

请输出严格 JSON：
{
  "start_time": "YYYY-MM-DD HH:MM 或 null",
  "end_time": "YYYY-MM-DD HH:MM 或 null"
}

规则：
- 能明确推断出具体日期就填 ISO；否则填 null
- “下周二/明天/后天/本周五”等要结合 now 推断
- “上午/下午/全天/半天”：
  - 全天：09:00-18:00
  - 上午：09:00-12:00
  - 下午：13:00-18:00
  - 半天：若只说半天且无上下文，按上午 09:00-12:00
- 只说日期没说时段的，按全天处理
- 如果文本里已经出现 ISO 时间，直接按其输出
- 不要编造不存在的日期
- 只输出 JSON
`, now.Format(PromptTimeLayout), weekdayLabel(now.Weekday()), text)
}

// BuildQAPrompt creates the evidence-grounded answering prompt
func BuildQAPrompt(question string, docs []domain.Document) string {
	var evidence strings.Builder
	for i, d := range docs {
		if i > 0 {
			evidence.WriteString("\n\n")
		}
		fmt.Fprintf(&evidence, "[%d] %s\n(source=%v, page=%v)", i+1, d.Content, d.Metadata["source"], d.Metadata["page"])
	}

	return fmt.Sprintf(`问题：%s

证据（每条带编号）：
%s

请基于证据回答，并在相关句末标注引用，如[1][3]。`, question, evidence.String())
}

var weekdayLabels = [...]string{"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}

func weekdayLabel(d time.Weekday) string {
	return weekdayLabels[d]
}

// ExtractJSON extracts a JSON payload from LLM response
func ExtractJSON(content string) string {
	// Try to extract from markdown code blocks
	if body, ok := extractFromCodeBlock(content, "```", "```"); ok {
		return stripLanguageTag(body)
	}

	// Unterminated fence
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		return stripLanguageTag(strings.Trim(trimmed, "`"))
	}
	return trimmed
}

func extractFromCodeBlock(content, startMarker, endMarker string) (string, bool) {
	startIdx := strings.Index(content, startMarker)
	if startIdx == -1 {
		return "", false
	}

	contentStart := startIdx + len(startMarker)
	endIdx := strings.Index(content[contentStart:], endMarker)
	if endIdx == -1 {
		return "", false
	}

	return content[contentStart : contentStart+endIdx], true
}

// stripLanguageTag drops a leading "json" fence tag. A JSON document never starts with it.
func stripLanguageTag(body string) string {
	body = strings.TrimSpace(body)
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	return strings.TrimSpace(body)
}
