package recommend

import "github.com/fyrsmithlabs/pillard/internal/metrics"

// Condition describes why a metric triggered a rule: a worsening trend,
// an anomalous reading, or a cross-pillar trade-off.
type Condition string

const (
	CondWorsening Condition = "worsening"
	CondAnomaly   Condition = "anomaly"
	CondTradeoff  Condition = "tradeoff"
)

// TemplateKey addresses one rule template.
type TemplateKey struct {
	Pillar    metrics.Pillar
	Metric    string
	Condition Condition
}

// Template is a recommendation skeleton. Effort is fixed per template.
type Template struct {
	Category    string
	Title       string
	Description string
	ActionItems []string
	Impact      Impact
	Effort      Effort
}

// ruleTable maps trigger conditions to recommendation skeletons. Adding a
// rule means adding an entry here; the engine has no per-metric branching.
var ruleTable = map[TemplateKey]Template{
	{metrics.PillarHealth, "sleep_quality", CondWorsening}: {
		Category:    "sleep",
		Title:       "Improve your sleep routine",
		Description: "Your sleep quality has been slipping. Small routine changes compound quickly.",
		ActionItems: []string{
			"Set a consistent bedtime and wake time",
			"Avoid screens for 30 minutes before bed",
			"Keep the bedroom cool and dark",
		},
		Impact: ImpactHigh,
		Effort: EffortLow,
	},
	{metrics.PillarHealth, "sleep_hours", CondWorsening}: {
		Category:    "sleep",
		Title:       "Protect your sleep window",
		Description: "You are sleeping noticeably less than before.",
		ActionItems: []string{
			"Block out a non-negotiable 8-hour sleep window",
			"Move late-evening commitments earlier",
		},
		Impact: ImpactHigh,
		Effort: EffortMedium,
	},
	{metrics.PillarHealth, "exercise_minutes", CondWorsening}: {
		Category:    "exercise",
		Title:       "Rebuild your exercise habit",
		Description: "Your activity minutes have dropped off recently.",
		ActionItems: []string{
			"Schedule three 30-minute sessions this week",
			"Pick a low-friction activity you enjoy",
			"Pair workouts with an existing daily habit",
		},
		Impact: ImpactHigh,
		Effort: EffortMedium,
	},
	{metrics.PillarHealth, "stress_level", CondWorsening}: {
		Category:    "stress",
		Title:       "Bring your stress back down",
		Description: "Your reported stress has been climbing.",
		ActionItems: []string{
			"Practice a daily 10-minute wind-down",
			"Identify and write down the top stressor each evening",
			"Take a full screen-free break at lunch",
		},
		Impact: ImpactHigh,
		Effort: EffortLow,
	},
	{metrics.PillarFinancial, "daily_spending", CondAnomaly}: {
		Category:    "spending",
		Title:       "Review this week's spending",
		Description: "An unusual spending spike showed up in your recent transactions.",
		ActionItems: []string{
			"Review the transactions behind the spike",
			"Flag anything recurring you did not intend",
		},
		Impact: ImpactMedium,
		Effort: EffortLow,
	},
	{metrics.PillarFinancial, "daily_spending", CondWorsening}: {
		Category:    "spending",
		Title:       "Tighten daily spending",
		Description: "Your average daily spending is trending up.",
		ActionItems: []string{
			"Set a weekly discretionary budget",
			"Batch non-urgent purchases into one weekly review",
		},
		Impact: ImpactMedium,
		Effort: EffortMedium,
	},
	{metrics.PillarFinancial, "savings_rate", CondWorsening}: {
		Category:    "savings",
		Title:       "Get your savings rate back on track",
		Description: "Your savings rate has fallen below its recent level.",
		ActionItems: []string{
			"Automate a transfer on payday",
			"Revisit one recurring subscription",
		},
		Impact: ImpactHigh,
		Effort: EffortLow,
	},
	{metrics.PillarWorkLife, "work_hours", CondWorsening}: {
		Category:    "workload",
		Title:       "Cap your working hours",
		Description: "Your daily work hours keep growing.",
		ActionItems: []string{
			"Set a hard stop time for the next five workdays",
			"Defer or delegate one recurring task",
			"Discuss workload with your manager if the trend holds",
		},
		Impact: ImpactHigh,
		Effort: EffortMedium,
	},
	{metrics.PillarWorkLife, "boundary_violations", CondWorsening}: {
		Category:    "boundaries",
		Title:       "Re-establish after-hours boundaries",
		Description: "After-hours interruptions are happening more often.",
		ActionItems: []string{
			"Silence work notifications after your stop time",
			"Agree an on-call escalation path with your team",
		},
		Impact: ImpactHigh,
		Effort: EffortLow,
	},
	{metrics.PillarWorkLife, "meeting_hours", CondWorsening}: {
		Category:    "meetings",
		Title:       "Reclaim meeting time",
		Description: "Meetings are eating a growing share of your week.",
		ActionItems: []string{
			"Decline meetings without an agenda",
			"Convert one recurring meeting to an async update",
		},
		Impact: ImpactMedium,
		Effort: EffortLow,
	},
	{metrics.PillarProductivity, "focus_score", CondWorsening}: {
		Category:    "focus",
		Title:       "Rebuild deep focus",
		Description: "Your focus scores have been declining.",
		ActionItems: []string{
			"Block a daily 90-minute deep work slot",
			"Turn off non-essential notifications during it",
		},
		Impact: ImpactHigh,
		Effort: EffortLow,
	},
	{metrics.PillarProductivity, "deep_work_minutes", CondWorsening}: {
		Category:    "focus",
		Title:       "Defend your deep work time",
		Description: "Your deep work minutes are shrinking.",
		ActionItems: []string{
			"Schedule deep work before opening email",
			"Batch shallow tasks into a single afternoon block",
		},
		Impact: ImpactHigh,
		Effort: EffortMedium,
	},
	{metrics.PillarProductivity, "distraction_count", CondWorsening}: {
		Category:    "distractions",
		Title:       "Cut down interruptions",
		Description: "Distractions are rising during your work blocks.",
		ActionItems: []string{
			"Identify the top interruption source from your log",
			"Use a status signal when in a focus block",
		},
		Impact: ImpactMedium,
		Effort: EffortLow,
	},
}

// tradeoffTemplate is the generic skeleton for cross-pillar trade-offs
// discovered by the correlation engine when no metric-specific rule exists.
var tradeoffTemplate = Template{
	Category:    "balance",
	Title:       "Rebalance competing habits",
	Description: "Two of your tracked metrics are pulling against each other.",
	ActionItems: []string{
		"Review the linked metrics side by side for the past month",
		"Pick the one that matters more right now and set a floor for the other",
	},
	Impact: ImpactMedium,
	Effort: EffortMedium,
}

// lookupTemplate resolves the rule for a trigger, falling back to the
// generic trade-off skeleton for correlation-driven triggers.
func lookupTemplate(key TemplateKey) (Template, bool) {
	if t, ok := ruleTable[key]; ok {
		return t, true
	}
	if key.Condition == CondTradeoff {
		return tradeoffTemplate, true
	}
	return Template{}, false
}
