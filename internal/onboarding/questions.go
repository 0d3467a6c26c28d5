package onboarding

type Kind string

const (
	KindText     Kind = "text"
	KindPhone    Kind = "phone"
	KindTextarea Kind = "textarea"
	KindChips    Kind = "chips"
)

// Condition gates a question's visibility on a prior answer: the question
// is shown only when the referenced answer carries HasValue (equality for
// scalars, membership for multi-choice lists).
type Condition struct {
	Question string `json:"question"`
	HasValue string `json:"has_value"`
}

type Question struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"type"`
	Prompt      string `json:"question"`
	Placeholder string `json:"placeholder,omitempty"`
	HelperText  string `json:"helper_text,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
	Multi       bool   `json:"multi,omitempty"`
	// Options holds display labels, Values the stored value for the same
	// index. Both empty for free-text kinds.
	Options []string `json:"options,omitempty"`
	Values  []string `json:"values,omitempty"`
	// InlineFollowUp is rendered on the same screen as this question when
	// its condition becomes true mid-answer. The follow-up also appears
	// standalone in the static list so couples who skip it inline still
	// get asked.
	InlineFollowUp *Question  `json:"inline_follow_up,omitempty"`
	ConditionalOn  *Condition `json:"conditional_on,omitempty"`
}

var preferredWeeknightsQ = Question{
	ID:            "preferred_weeknights",
	Kind:          KindChips,
	Multi:         true,
	Prompt:        "Which weeknights are usually best?",
	Options:       []string{"Monday", "Tuesday", "Wednesday", "Thursday"},
	Values:        []string{"monday", "tuesday", "wednesday", "thursday"},
	ConditionalOn: &Condition{Question: "preferred_days", HasValue: "weeknight"},
}

var questions = []Question{
	{ID: "primary_name", Kind: KindText, Prompt: "What's your first name?", Placeholder: "e.g. Jordan"},
	{ID: "partner_name", Kind: KindText, Prompt: "What's your partner's first name?", Placeholder: "e.g. Alex"},
	{ID: "partner_phone", Kind: KindPhone, Optional: true, Prompt: "What's your partner's phone number?", HelperText: "So we can text you both the plans", Placeholder: "(555) 123-4567"},
	{ID: "city", Kind: KindText, Prompt: "What city and neighborhood do you live in?", Placeholder: "e.g. Brooklyn, Williamsburg"},
	{ID: "travel_radius", Kind: KindChips, Prompt: "How far are you willing to travel for a date?",
		Options: []string{"Neighborhood only", "Borough", "30 min", "1 hour"},
		Values:  []string{"neighborhood", "borough", "30min", "1hour"}},
	{ID: "budget", Kind: KindChips, Prompt: "What's your typical date night budget?",
		Options: []string{"$", "$$", "$$$", "$$$$"},
		Values:  []string{"$", "$$", "$$$", "$$$$"}},
	{ID: "frequency", Kind: KindChips, Prompt: "How often do you want date nights?",
		Options: []string{"Weekly", "Every 2 weeks", "Monthly"},
		Values:  []string{"weekly", "biweekly", "monthly"}},
	{ID: "preferred_days", Kind: KindChips, Multi: true, Prompt: "What days/times work best?",
		Options:        []string{"Fri evening", "Sat evening", "Sat afternoon", "Sun afternoon", "Sun evening", "Weeknight"},
		Values:         []string{"friday_evening", "saturday_evening", "saturday_afternoon", "sunday_afternoon", "sunday_evening", "weeknight"},
		InlineFollowUp: &preferredWeeknightsQ},
	preferredWeeknightsQ,
	{ID: "interests", Kind: KindChips, Multi: true, Prompt: "What do you enjoy?",
		Options: []string{"Trying new restaurants", "Live music", "Comedy", "Outdoors", "Cooking together", "Museums & art", "Cocktail bars", "Sports", "Theater", "Wellness & spa", "Activities", "Classes", "Exploring areas", "Movies"},
		Values:  []string{"restaurants", "live_music", "comedy", "outdoors", "cooking", "museums_art", "cocktail_bars", "sports", "theater", "wellness_spa", "activities", "classes", "exploring_areas", "movies"}},
	{ID: "food_dislikes", Kind: KindText, Optional: true, Prompt: "Any types of food you don't like?", Placeholder: "e.g. no seafood, no spicy",
		ConditionalOn: &Condition{Question: "interests", HasValue: "restaurants"}},
	{ID: "dietary_restrictions", Kind: KindText, Prompt: "Any dietary restrictions or dealbreakers?", Placeholder: "e.g. vegetarian, no shellfish, or leave blank"},
	{ID: "anything_else", Kind: KindTextarea, Optional: true, Prompt: "Anything else we should know?", Placeholder: `e.g. "We love doing a bite and an activity."`, HelperText: "Don't worry, we'll figure out what you're into pretty fast too"},
	{ID: "surprise_preference", Kind: KindChips, Prompt: "Do you prefer surprises or want to approve every plan?",
		Options: []string{"Surprise me", "I want to approve first"},
		Values:  []string{"surprise_me", "approve_first"}},
	{ID: "preferred_channel", Kind: KindChips, Prompt: "Preferred communication?",
		Options: []string{"SMS", "WhatsApp"},
		Values:  []string{"sms", "whatsapp"}},
}

// Questions returns the static ordered question list.
func Questions() []Question {
	return questions
}

func QuestionByID(id string) (Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// visible evaluates a question's condition against the current answers.
func visible(q Question, answers AnswerSet) bool {
	if q.ConditionalOn == nil {
		return true
	}
	return answers.Get(q.ConditionalOn.Question).Contains(q.ConditionalOn.HasValue)
}

// EffectiveQuestions returns the subsequence of the static list whose
// visibility conditions hold for the given answers, preserving order.
func EffectiveQuestions(answers AnswerSet) []Question {
	result := make([]Question, 0, len(questions))
	for _, q := range questions {
		if visible(q, answers) {
			result = append(result, q)
		}
	}
	return result
}
