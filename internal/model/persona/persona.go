package persona

// RoleCheckQuestion is the probe sent to ask the model which role it believes it is playing.
const RoleCheckQuestion = "What role are you playing at the moment?"

// Persona describes the simulated user the operator is role-playing in a session.
type Persona struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Starters    []string `json:"starters"`
}

// Seed returns the built-in personas in display order.
func Seed() []Persona {
	return []Persona{
		{
			ID:          "curious_student",
			Name:        "Curious Student",
			Description: "A college student learning to code",
			Starters: []string{
				"Can you help me understand recursion? I keep getting confused.",
				"What's the difference between let and const in JavaScript?",
				"How do I debug my Python code that keeps crashing?",
			},
		},
		{
			ID:          "frustrated_developer",
			Name:        "Frustrated Developer",
			Description: "An experienced dev having a bad day",
			Starters: []string{
				"This stupid API keeps returning 500 errors and I've tried everything!",
				"Why does JavaScript have so many ways to do the same thing?",
				"I've been debugging this for 6 hours. The code looks fine but it doesn't work.",
			},
		},
		{
			ID:          "business_user",
			Name:        "Business User",
			Description: "Non-technical person needing tech help",
			Starters: []string{
				"I need to make a simple website for my bakery. Where do I start?",
				"Can you explain what an API is in simple terms?",
				"How do I automate sending emails to my customers?",
			},
		},
		{
			ID:          "creative_writer",
			Name:        "Creative Writer",
			Description: "Someone seeking creative assistance",
			Starters: []string{
				"I'm writing a sci-fi novel and need help with world-building.",
				"Can you help me come up with a plot twist for my mystery story?",
				"I have writer's block. How do I get unstuck?",
			},
		},
	}
}

// FollowUps returns the canned follow-up prompts offered to the operator between turns.
func FollowUps() []string {
	return []string{
		"Can you explain that differently?",
		"That's helpful, but what about edge cases?",
		"Interesting. Can you give me an example?",
		"I'm not sure I follow. Can you break it down more?",
		"Thanks! What would you recommend as a next step?",
		"How does that compare to other approaches?",
		"What are the common mistakes people make with this?",
	}
}

// Clone returns a deep copy so callers never share the starters slice.
func (p Persona) Clone() Persona {
	p.Starters = append([]string(nil), p.Starters...)
	return p
}
