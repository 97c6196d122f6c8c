package matching

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tagvine/postwatch/app/database"
	"github.com/tagvine/postwatch/app/social"
)

// Evaluation is the full breakdown of one post checked against one campaign.
// Match is the binding pass/fail decision; CoverageScore is informational
// only and never gates registration.
type Evaluation struct {
	Match         bool    `json:"match"`
	CoverageScore float64 `json:"coverage_score"`

	HashtagsFound   []string `json:"hashtags_found"`
	HashtagsMissing []string `json:"hashtags_missing"`
	MentionsFound   []string `json:"mentions_found"`
	MentionsMissing []string `json:"mentions_missing"`

	RequiredType string `json:"required_type"`
	ActualType   string `json:"actual_type"`
	TypeMatch    bool   `json:"type_match"`

	WithinWindow bool `json:"within_window"`
}

type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Run checks a post against a campaign's requirements. All four checks must
// pass: required hashtags, required mentions, content type, and publish time
// within the campaign window (inclusive). Partial matches never pass.
func (m *Matcher) Run(post social.Post, campaign database.Campaign) Evaluation {
	caption := normalize(post.Caption)

	eval := Evaluation{
		RequiredType: campaign.ContentType,
		ActualType:   post.MediaType,
	}

	for _, tag := range campaign.RequiredHashtags {
		if strings.Contains(caption, normalizeRequirement(tag, "#")) {
			eval.HashtagsFound = append(eval.HashtagsFound, tag)
		} else {
			eval.HashtagsMissing = append(eval.HashtagsMissing, tag)
		}
	}

	for _, mention := range campaign.RequiredMentions {
		if strings.Contains(caption, normalizeRequirement(mention, "@")) {
			eval.MentionsFound = append(eval.MentionsFound, mention)
		} else {
			eval.MentionsMissing = append(eval.MentionsMissing, mention)
		}
	}

	eval.TypeMatch = campaign.ContentType == "" ||
		campaign.ContentType == database.ContentTypeAny ||
		campaign.ContentType == post.MediaType

	eval.WithinWindow = !post.TakenAt.Before(campaign.StartAt) && !post.TakenAt.After(campaign.EndAt)

	eval.Match = len(eval.HashtagsMissing) == 0 &&
		len(eval.MentionsMissing) == 0 &&
		eval.TypeMatch &&
		eval.WithinWindow

	eval.CoverageScore = m.coverage(campaign, eval)

	return eval
}

// coverage is the mean of per-dimension ratios: fraction of required hashtags
// found, fraction of required mentions found, and type match as 0/1.
// Dimensions with no requirement are skipped.
func (m *Matcher) coverage(campaign database.Campaign, eval Evaluation) float64 {
	var ratios []float64

	if len(campaign.RequiredHashtags) > 0 {
		ratios = append(ratios, float64(len(eval.HashtagsFound))/float64(len(campaign.RequiredHashtags)))
	}
	if len(campaign.RequiredMentions) > 0 {
		ratios = append(ratios, float64(len(eval.MentionsFound))/float64(len(campaign.RequiredMentions)))
	}
	typeRatio := 0.0
	if eval.TypeMatch {
		typeRatio = 1.0
	}
	ratios = append(ratios, typeRatio)

	sum := 0.0
	for _, ratio := range ratios {
		sum += ratio
	}
	return sum / float64(len(ratios))
}

func normalize(text string) string {
	return norm.NFC.String(strings.ToLower(text))
}

// normalizeRequirement accepts requirements written with or without their
// leading marker ("#brand" and "brand" are equivalent).
func normalizeRequirement(value, marker string) string {
	return strings.TrimPrefix(normalize(strings.TrimSpace(value)), marker)
}
