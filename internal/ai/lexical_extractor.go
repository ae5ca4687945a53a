package ai

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/classifier"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/dates"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
)

type intentRow struct {
	intent   entity.Intent
	keywords []*regexp.Regexp
}

func row(intent entity.Intent, keywords ...string) intentRow {
	r := intentRow{intent: intent}
	for _, kw := range keywords {
		r.keywords = append(r.keywords, regexp.MustCompile(`\b`+regexp.QuoteMeta(kw)+`\b`))
	}
	return r
}

// intentKeywords scores a message per intent; the most hits wins, ties go
// to the earlier row.
var intentKeywords = []intentRow{
	row(entity.IntentGuest, "guest", "friend", "visitor", "visit me", "cousin", "relative", "stay over", "staying over", "coming over", "parents visiting"),
	row(entity.IntentLeave, "leave", "going home", "go home", "out of station", "absent", "vacation", "holiday", "trip", "away from hostel"),
	row(entity.IntentMaintenance, "broken", "not working", "leak", "leaking", "repair", "fix", "maintenance", "damaged", "problem with", "issue with", "fan", "light", "tap", "wifi", "socket"),
	row(entity.IntentRoomCleaning, "clean", "cleaning", "housekeeping", "sweep", "dusty", "dirty"),
}

var (
	inquiryRe   = regexp.MustCompile(`(?i)\b(?:policy|policies|rules?|am i allowed|can guests|how long can|how many (?:days|nights)|curfew|what time)\b`)
	greetingRe  = regexp.MustCompile(`(?i)^(?:hi|hello|hey|thanks|thank you|good (?:morning|evening|night))\b`)
	guestNameRe = regexp.MustCompile(`\b(?:[Ff]riend|[Gg]uest|[Cc]ousin|[Bb]rother|[Ss]ister|[Vv]isitor|named|name is|called)\s+([A-Z][a-zA-Z'-]+(?:\s+[A-Z][a-zA-Z'-]+)?)`)
	fromToRe    = regexp.MustCompile(`(?i)\bfrom\s+([^,;!?]+?)\s+(?:to|till|until)\s+([^,.;!?]+)`)
	endPhraseRe = regexp.MustCompile(`(?i)\b(?:until|till|returning(?: on)?|return on|back on|back by)\s+([^,.;!?]+)`)
	relativeRe  = regexp.MustCompile(`(?i)\b(?:in|after)\s+\d+\s+days?\b`)
	reasonRe    = regexp.MustCompile(`(?i)\b(?:because(?: of)?|due to|reason is|reason:|since|to attend)\s+([^,.;!?]+)`)
	reasonForRe = regexp.MustCompile(`(?i)\bfor (?:a|an|my|the|our)\s+([^,.;!?]+)`)
	locationRe  = regexp.MustCompile(`(?i)\b(?:in|at|near)\s+(?:the\s+|my\s+)?((?:room|block)\s*[a-z]?-?\d+[a-z]?|[a-z]?-?\d{2,4}[a-z]?|common (?:room|bathroom|washroom)|bathroom|washroom|toilet|kitchen|corridor|hallway|lobby|mess|laundry|balcony)\b`)
	roomRe      = regexp.MustCompile(`(?i)\broom\s*(?:no\.?|number|#)?\s*([a-z]?-?\d+[a-z]?)\b`)
	myRoomRe    = regexp.MustCompile(`(?i)\bmy room\b`)
	homeRe      = regexp.MustCompile(`(?i)\b(?:going home|go home|visit(?:ing)? (?:my )?(?:family|parents|home))\b`)
)

// LexicalExtractor is a keyword and pattern based entity extractor.
// It needs no network access and is used when no model is configured.
type LexicalExtractor struct {
	rules *classifier.RuleStore
	clock func() time.Time
}

// NewLexicalExtractor creates an extractor reading name rules from rules
func NewLexicalExtractor(rules *classifier.RuleStore) *LexicalExtractor {
	if rules == nil {
		rules = classifier.NewRuleStore(nil)
	}
	return &LexicalExtractor{rules: rules, clock: time.Now}
}

// Extract reads the intent and entities of text
func (x *LexicalExtractor) Extract(ctx context.Context, text string, uc entity.UserContext) (entity.IntentResult, error) {
	if err := ctx.Err(); err != nil {
		return entity.IntentResult{}, err
	}

	today := x.today(uc)
	intent, hits := classifyIntent(text)

	switch {
	case hits == 0 && uc.ActiveType != "":
		// a bare answer continues the open dialogue
		intent = entity.Intent(uc.ActiveType)
	case hits == 0 && inquiryRe.MatchString(text):
		return entity.NewIntentResult(entity.IntentRuleInquiry, nil, 0.85, nil), nil
	case hits == 0 && greetingRe.MatchString(strings.TrimSpace(text)):
		return entity.NewIntentResult(entity.IntentGeneralQuery, nil, 0.6, nil), nil
	case hits == 0:
		return entity.NewIntentResult(entity.IntentUnknown, nil, 0.2, nil), nil
	case inquiryRe.MatchString(text) && strings.HasSuffix(strings.TrimSpace(text), "?"):
		return entity.NewIntentResult(entity.IntentRuleInquiry, nil, 0.85, nil), nil
	}

	t, _ := intent.RequestType()
	entities := x.entities(t, text, uc, today, hits > 0)

	confidence := 0.7
	if hits > 0 {
		confidence = 0.85 + 0.05*float64(min(hits-1, 2))
	}

	return entity.NewIntentResult(intent, entities, confidence, missingAfter(t, entities)), nil
}

func (x *LexicalExtractor) today(uc entity.UserContext) time.Time {
	if uc.Today != "" {
		if d, err := time.Parse(dates.Layout, uc.Today); err == nil {
			return d
		}
	}
	return dates.Civil(x.clock(), uc.Profile.Location(time.UTC))
}

func classifyIntent(text string) (entity.Intent, int) {
	lower := strings.ToLower(text)
	best, bestHits := entity.IntentUnknown, 0
	for _, r := range intentKeywords {
		hits := 0
		for _, kw := range r.keywords {
			if kw.MatchString(lower) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = r.intent, hits
		}
	}
	return best, bestHits
}

func (x *LexicalExtractor) entities(t entity.RequestType, text string, uc entity.UserContext, today time.Time, keyworded bool) map[string]string {
	rules := x.rules.Rules()
	out := make(map[string]string)

	switch t {
	case entity.RequestGuest:
		if m := guestNameRe.FindStringSubmatch(text); m != nil && rules.LooksLikeName(m[1]) {
			out[entity.FieldGuestName] = m[1]
		}
		x.dateRange(text, today, out)
	case entity.RequestLeave:
		x.dateRange(text, today, out)
		if reason := leaveReason(text); reason != "" {
			out[entity.FieldReason] = reason
		}
	case entity.RequestMaintenance:
		if keyworded {
			out[entity.FieldProblemDescription] = strings.TrimSpace(text)
		}
		if m := locationRe.FindStringSubmatch(text); m != nil {
			out[entity.FieldLocation] = strings.ToLower(m[1])
		} else if myRoomRe.MatchString(text) && uc.Profile.RoomNumber != "" {
			out[entity.FieldLocation] = "room " + uc.Profile.RoomNumber
		}
	case entity.RequestRoomCleaning:
		if m := roomRe.FindStringSubmatch(text); m != nil {
			out[entity.FieldRoomNumber] = strings.ToUpper(m[1])
		} else if myRoomRe.MatchString(text) && uc.Profile.RoomNumber != "" {
			out[entity.FieldRoomNumber] = uc.Profile.RoomNumber
		}
	}
	return out
}

// dateRange picks a start date, an end date and a duration out of text.
// Dates are normalised to the canonical layout.
func (x *LexicalExtractor) dateRange(text string, today time.Time, out map[string]string) {
	rest := text
	if m := fromToRe.FindStringSubmatchIndex(text); m != nil {
		start, errStart := dates.ParseDate(text[m[2]:m[3]], today)
		end, errEnd := dates.ParseDate(text[m[4]:m[5]], today)
		if errStart == nil && errEnd == nil {
			out[entity.FieldStartDate] = dates.Format(start)
			out[entity.FieldEndDate] = dates.Format(end)
			return
		}
	}

	if m := endPhraseRe.FindStringSubmatchIndex(text); m != nil {
		if end, err := dates.ParseDate(text[m[2]:m[3]], today); err == nil {
			out[entity.FieldEndDate] = dates.Format(end)
			rest = text[:m[0]] + text[m[1]:]
		}
	}

	for _, seg := range classifier.Segments(rest) {
		if start, err := dates.ParseDate(seg, today); err == nil {
			out[entity.FieldStartDate] = dates.Format(start)
			break
		}
	}

	if out[entity.FieldEndDate] != "" {
		return
	}
	if span, err := dates.ParseDuration(relativeRe.ReplaceAllString(rest, "")); err == nil {
		out[entity.FieldDuration] = span.String()
	}
}

func leaveReason(text string) string {
	if m := reasonRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := reasonForRe.FindStringSubmatch(text); m != nil {
		if _, err := dates.ParseDuration(m[0]); err != nil {
			return strings.TrimSpace(m[1])
		}
	}
	if m := homeRe.FindString(text); m != "" {
		return strings.ToLower(m)
	}
	return ""
}

// missingAfter lists the required fields still absent, counting a duration
// as an end date
func missingAfter(t entity.RequestType, entities map[string]string) []string {
	probe := make(map[string]string, len(entities)+1)
	for k, v := range entities {
		probe[k] = v
	}
	if probe[entity.FieldDuration] != "" && probe[entity.FieldEndDate] == "" {
		probe[entity.FieldEndDate] = probe[entity.FieldDuration]
	}
	return entity.MissingFields(t, probe)
}
