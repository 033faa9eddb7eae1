package models

// Allocation description tokens
const (
	LabelCarryOver    = "前月以前残高"
	LabelAdjustment   = "手動調整"
	LabelFull         = "全額"
	LabelPartial      = "一部"
	LabelSurplus      = "余剰金"
	LabelRecorded     = "記録済み"
	LabelUnallocated  = "充当先なし"
	MonthLabelLayout  = "2006年01月分"
	DescriptionLayout = "2006/01/02"
)

// Delinquency statuses
const (
	StatusDelinquent = "滞納あり"
	StatusNormal     = "正常"
)

// Mapping sources
const (
	SourceHeuristic = "heuristic"
	SourceTemplate  = "template"
	SourceProfile   = "profile"
	SourceAI        = "ai"
	SourceManual    = "manual"
)

// MaxMatchNames is the number of bank payer-name patterns a tenant can carry.
const MaxMatchNames = 3

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
)
