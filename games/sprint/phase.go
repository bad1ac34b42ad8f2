package sprint

// Phase is a stage of the sprint. Phases only move forward.
type Phase int

const (
	PhaseEmpathize Phase = iota
	PhaseIdeate
	PhaseSelect
	PhasePrototype
	PhaseIterate
	PhaseComplete
)

// Point awards. Score never decreases.
const (
	PointsHMW       = 20
	PointsIdea      = 5
	PointsSelection = 20
	PointsPrototype = 30
	PointsIteration = 25
)

const (
	MinIdeas    = 5
	MaxSelected = 3

	minHMWRunes       = 10
	minIdeaRunes      = 3
	minPrototypeRunes = 20
	minIterationRunes = 15

	hmwPhrase = "how might we"
)

// Guide is the prompt text shown while a phase is active.
type Guide struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction"`
	Placeholder string `json:"placeholder,omitempty"`
	Tip         string `json:"tip"`
}

var guides = [...]Guide{
	PhaseEmpathize: {
		Name:        "Empathize",
		Instruction: "Create a 'How Might We...' statement that reframes this challenge as an opportunity.",
		Placeholder: "How might we help...",
		Tip:         "Focus on the human need, not the solution. Start with 'How might we help [persona] to [goal] so that [benefit]?'",
	},
	PhaseIdeate: {
		Name:        "Ideate",
		Instruction: "Generate wild ideas! No judgment, go for quantity!",
		Placeholder: "Type an idea and press Enter...",
		Tip:         "Think: What would Apple do? What if budget was unlimited? What's the opposite of obvious?",
	},
	PhaseSelect: {
		Name:        "Select",
		Instruction: "Choose your top 3 ideas based on: Desirability, Feasibility, and Innovation",
		Tip:         "Look for ideas that users want, you can build, and that feel fresh or unexpected.",
	},
	PhasePrototype: {
		Name:        "Prototype",
		Instruction: "Describe a simple prototype for your best idea. How would you test it in 48 hours?",
		Placeholder: "Our prototype is...",
		Tip:         "Keep it rough! Sketch, storyboard, or role-play. The goal is to learn, not to perfect.",
	},
	PhaseIterate: {
		Name:        "Iterate",
		Instruction: "Reflect: What feedback would improve this? What's the smallest testable version?",
		Placeholder: "I would improve this by...",
		Tip:         "Use: I like... I wish... What if... to refine your concept.",
	},
	PhaseComplete: {
		Name:        "Complete",
		Instruction: "Sprint complete!",
		Tip:         "Download or share your results, or try a new challenge.",
	},
}

func (p Phase) Guide() Guide {
	if p < PhaseEmpathize || p > PhaseComplete {
		return Guide{Name: "Unknown"}
	}
	return guides[p]
}

func (p Phase) String() string {
	return p.Guide().Name
}
