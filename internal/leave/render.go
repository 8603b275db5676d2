package leave

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Rrens/kb-assistant/internal/domain"
)

// User-facing answers
const (
	MsgNeedLeaveID    = "请提供请假单编号（例如 LV-1a2b3c4d）。"
	MsgNoRecords      = "暂无请假记录。"
	MsgDraftDiscarded = "已放弃当前未提交的请假申请。"
	MsgNothingToApply = "没有识别到需要修改的内容，请说明要调整的类型、时间或原因。"
	MsgServiceFailure = "请假服务暂时不可用，请稍后再试。"
	msgNeedInfoSuffix = "。请补充/修正后再说一次。"
	msgNotPendingFmt  = "%s失败：请假单 %s 不存在或不是待审批状态。"
)

var fieldLabels = map[string]string{
	domain.FieldLeaveType: "请假类型",
	domain.FieldStartTime: "开始时间",
	domain.FieldEndTime:   "结束时间",
}

// RenderNeedInfo lists missing fields and rule violations
func RenderNeedInfo(r Result) string {
	var tips []string
	if len(r.Missing) > 0 {
		names := make([]string, 0, len(r.Missing))
		for _, f := range r.Missing {
			if label, ok := fieldLabels[f]; ok {
				names = append(names, label)
				continue
			}
			names = append(names, f)
		}
		tips = append(tips, "缺少信息："+strings.Join(names, "、"))
	}
	if len(r.Violations) > 0 {
		tips = append(tips, "规则问题："+strings.Join(r.Violations, "；"))
	}
	return strings.Join(tips, "；") + msgNeedInfoSuffix
}

// RenderConfirm recaps a complete draft and asks for confirmation
func RenderConfirm(d *domain.LeaveDraft) string {
	return "请确认你的请假信息：\n" +
		fmt.Sprintf("- 类型：%s\n", d.LeaveType.Label()) +
		fmt.Sprintf("- 开始：%s\n", d.StartTime) +
		fmt.Sprintf("- 结束：%s\n", d.EndTime) +
		fmt.Sprintf("- 时长：%s 天\n", formatDays(d.DurationDays)) +
		fmt.Sprintf("- 原因：%s\n", orNone(d.Reason)) +
		"回复“确认”提交，或直接回复修改后的信息。"
}

// RenderCreated announces a submitted request
func RenderCreated(leaveID string) string {
	return fmt.Sprintf("已为你提交请假申请，编号 %s，等待审批。", leaveID)
}

// RenderRecord summarizes one stored request
func RenderRecord(r *domain.LeaveRecord) string {
	return fmt.Sprintf("请假单 %s\n", r.LeaveID) +
		fmt.Sprintf("- 类型：%s\n", r.LeaveType.Label()) +
		fmt.Sprintf("- 开始：%s\n", r.StartTime) +
		fmt.Sprintf("- 结束：%s\n", r.EndTime) +
		fmt.Sprintf("- 时长：%s 天\n", formatDays(&r.DurationDays)) +
		fmt.Sprintf("- 原因：%s\n", orNone(r.Reason)) +
		fmt.Sprintf("- 状态：%s", r.Status.Label())
}

// RenderList renders records in the order given, one per line
func RenderList(records []domain.LeaveRecord) string {
	if len(records) == 0 {
		return MsgNoRecords
	}
	var b strings.Builder
	fmt.Fprintf(&b, "最近 %d 条请假记录：", len(records))
	for i, r := range records {
		fmt.Fprintf(&b, "\n%d. %s %s %s ~ %s（%s 天）%s",
			i+1, r.LeaveID, r.LeaveType.Label(), r.StartTime, r.EndTime,
			formatDays(&r.DurationDays), r.Status.Label())
	}
	return b.String()
}

func RenderNotFound(leaveID string) string {
	return fmt.Sprintf("未找到请假单 %s。", leaveID)
}

func RenderCancelled(leaveID string) string {
	return fmt.Sprintf("已取消请假单 %s。", leaveID)
}

func RenderCancelFailed(leaveID string) string {
	return fmt.Sprintf(msgNotPendingFmt, "取消", leaveID)
}

func RenderModifyFailed(leaveID string) string {
	return fmt.Sprintf(msgNotPendingFmt, "修改", leaveID)
}

// RenderModified recaps the values stored after a successful update
func RenderModified(leaveID string, d *domain.LeaveDraft) string {
	return fmt.Sprintf("已更新请假单 %s，等待审批：\n", leaveID) +
		fmt.Sprintf("- 类型：%s\n", d.LeaveType.Label()) +
		fmt.Sprintf("- 开始：%s\n", d.StartTime) +
		fmt.Sprintf("- 结束：%s\n", d.EndTime) +
		fmt.Sprintf("- 时长：%s 天\n", formatDays(d.DurationDays)) +
		fmt.Sprintf("- 原因：%s", orNone(d.Reason))
}

func formatDays(days *float64) string {
	if days == nil {
		return "未知"
	}
	return strconv.FormatFloat(*days, 'f', -1, 64)
}

func orNone(s string) string {
	if s == "" {
		return "无"
	}
	return s
}
