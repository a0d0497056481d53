package score

import (
	"strings"

	"jobsieve/internal/job"
	"jobsieve/internal/util"
)

const (
	maxScore = 100

	// Weights for the individual signals. A full title hit dominates, partial
	// title overlap earns proportional credit, each matched skill adds a bit.
	fullTitleWeight    = 40
	partialTitleWeight = 30
	skillWeight        = 12
	maxSkillScore      = 60
)

// Profile describes the candidate the pipeline scores postings against.
type Profile struct {
	TargetRoles []string
	Skills      []string
}

// Rule is one declarative scoring rule: the record gains Weight when any of
// the needles appears in the scanned text.
type Rule struct {
	Tag    string
	Any    []string
	Weight int
}

// Scorer computes a relevance score in [0,100] for a record against a fixed
// profile. It is a pure function of record and profile with no shared mutable
// state, so it is safe for any number of concurrent callers.
type Scorer struct {
	roles      []string
	skillRules []Rule
}

// New builds a scorer from the profile. Role and skill terms are normalized
// once up front so scoring itself stays allocation-light.
func New(p Profile) *Scorer {
	s := &Scorer{}
	for _, role := range p.TargetRoles {
		if norm := util.Normalize(role); norm != "" {
			s.roles = append(s.roles, norm)
		}
	}
	for _, skill := range p.Skills {
		norm := util.Normalize(skill)
		if norm == "" {
			continue
		}
		s.skillRules = append(s.skillRules, Rule{
			Tag:    "skill:" + norm,
			Any:    []string{norm},
			Weight: skillWeight,
		})
	}
	return s
}

// Score computes the relevance of one record. Missing or garbled input is
// never an error: it simply scores 0.
func (s *Scorer) Score(rec *job.Record) int {
	if rec == nil {
		return 0
	}

	title := util.Normalize(rec.Title)
	text := strings.TrimSpace(title + " " + util.Normalize(rec.Snippet) + " " + util.Normalize(rec.Description))
	if text == "" {
		return 0
	}

	total := s.titleAffinity(title)

	skills := 0
	for _, rule := range s.skillRules {
		for _, needle := range rule.Any {
			if strings.Contains(text, needle) {
				skills += rule.Weight
				break
			}
		}
	}
	if skills > maxSkillScore {
		skills = maxSkillScore
	}
	total += skills

	if total > maxScore {
		total = maxScore
	}
	return total
}

// titleAffinity returns the best match between the title and the target
// roles: full credit for a substring hit, proportional credit for token
// overlap. An empty role list yields a neutral full credit so profiles
// without explicit roles are not starved below any sane threshold.
func (s *Scorer) titleAffinity(title string) int {
	if len(s.roles) == 0 {
		return fullTitleWeight
	}

	titleTokens := util.TokenSet(title)
	best := 0
	for _, role := range s.roles {
		if strings.Contains(title, role) {
			return fullTitleWeight
		}
		roleTokens := util.Tokenize(role)
		if len(roleTokens) == 0 {
			continue
		}
		hits := 0
		for _, tok := range roleTokens {
			if titleTokens[tok] {
				hits++
			}
		}
		credit := partialTitleWeight * hits / len(roleTokens)
		if credit > best {
			best = credit
		}
	}
	return best
}
