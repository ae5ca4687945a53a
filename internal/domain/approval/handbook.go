package approval

import (
	"fmt"
	"strings"
)

// Handbook topics
const (
	TopicGuestStay    = "guest_stay"
	TopicLeave        = "leave_policy"
	TopicMaintenance  = "maintenance"
	TopicRoomCleaning = "room_cleaning"
	TopicGeneral      = "general"
)

type section struct {
	topic    string
	keywords []string
	text     string
}

// Handbook answers rule questions from the same limits the engine enforces
type Handbook struct {
	sections []section
}

// NewHandbook renders the policy texts for policy
func NewHandbook(policy Policy) *Handbook {
	return &Handbook{sections: []section{
		{
			topic:    TopicGuestStay,
			keywords: []string{"guest", "visitor", "friend", "overnight", "stay"},
			text: fmt.Sprintf("Guests may stay up to %s without warden approval, provided you have no violations in the last %d days. "+
				"Longer stays are sent to the warden. Guests must carry ID and sign in at the security desk.",
				plural(policy.MaxGuestNights, "night"), policy.ViolationLookbackDays),
		},
		{
			topic:    TopicLeave,
			keywords: []string{"leave", "home", "absence", "away", "vacation", "holiday"},
			text: fmt.Sprintf("Leave of up to %d days is approved automatically when your record has no violations in the last %d days. "+
				"Longer leave goes to the warden for review. Leave cannot start in the past or exceed %d days.",
				policy.MaxLeaveDays, policy.ViolationLookbackDays, policy.MaxDurationDays),
		},
		{
			topic:    TopicMaintenance,
			keywords: []string{"maintenance", "repair", "broken", "fix", "leak", "electric", "plumbing"},
			text: "Maintenance requests are scheduled automatically. Emergencies, leaks and broken fixtures are attended the same day; " +
				"other problems are scheduled for the next working day.",
		},
		{
			topic:    TopicRoomCleaning,
			keywords: []string{"clean", "cleaning", "housekeeping", "sweep"},
			text:     "Room cleaning can be requested at any time and is scheduled for the next day.",
		},
		{
			topic:    TopicGeneral,
			keywords: []string{"curfew", "rules", "timing", "quiet"},
			text:     "Hostel gates close at 22:00. Quiet hours run from 22:00 to 07:00. Ask about guests, leave, maintenance or cleaning for details.",
		},
	}}
}

// Explain returns the handbook section that best matches question
func (h *Handbook) Explain(question string) (topic, text string) {
	lower := strings.ToLower(question)
	best, bestHits := len(h.sections)-1, 0
	for i, s := range h.sections {
		hits := 0
		for _, kw := range s.keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = i, hits
		}
	}
	return h.sections[best].topic, h.sections[best].text
}

// Topic returns the text of one topic
func (h *Handbook) Topic(topic string) (string, bool) {
	for _, s := range h.sections {
		if s.topic == topic {
			return s.text, true
		}
	}
	return "", false
}

// Topics lists the topic keys in handbook order
func (h *Handbook) Topics() []string {
	topics := make([]string, len(h.sections))
	for i, s := range h.sections {
		topics[i] = s.topic
	}
	return topics
}
