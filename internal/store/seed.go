package store

// SeedCard is a card provisioned when a board is first created.
type SeedCard struct {
	Title   string
	Details string
}

// SeedColumn is a column provisioned when a board is first created.
// Column and card positions follow declaration order.
type SeedColumn struct {
	Title string
	Cards []SeedCard
}

var SeedColumns = []SeedColumn{
	{
		Title: "Backlog",
		Cards: []SeedCard{
			{Title: "Align roadmap themes", Details: "Draft quarterly themes with impact statements and metrics."},
			{Title: "Gather customer signals", Details: "Review support tags, sales notes, and churn feedback."},
		},
	},
	{
		Title: "Discovery",
		Cards: []SeedCard{
			{Title: "Prototype analytics view", Details: "Sketch initial dashboard layout and key drill-downs."},
		},
	},
	{
		Title: "In Progress",
		Cards: []SeedCard{
			{Title: "Refine status language", Details: "Standardize column labels and tone across the board."},
			{Title: "Design card layout", Details: "Add hierarchy and spacing for scanning dense lists."},
		},
	},
	{
		Title: "Review",
		Cards: []SeedCard{
			{Title: "QA micro-interactions", Details: "Verify hover, focus, and loading states."},
		},
	},
	{
		Title: "Done",
		Cards: []SeedCard{
			{Title: "Ship marketing page", Details: "Final copy approved and asset pack delivered."},
			{Title: "Close onboarding sprint", Details: "Document release notes and share internally."},
		},
	},
}
