package ontology

import (
	"strings"
	"unicode"
)

// Namespace is the IRI bound to the empty prefix
const Namespace = "urn:ontoinsights:dna:"

// Prefixes used by compiled fragments
var Prefixes = map[string]string{
	"":     Namespace,
	"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
	"owl":  "http://www.w3.org/2002/07/owl#",
	"xsd":  "http://www.w3.org/2001/XMLSchema#",
	"geo":  "http://www.geonames.org/ontology#",
}

// Predicates
const (
	PredType              = "a"
	PredLabel             = "rdfs:label"
	PredText              = ":text"
	PredSentiment         = ":sentiment"
	PredActiveAgent       = ":has_active_agent"
	PredAffectedAgent     = ":has_affected_agent"
	PredTopic             = ":has_topic"
	PredTime              = ":has_time"
	PredEarliestBeginning = ":has_earliest_beginning"
	PredLatestEnd         = ":has_latest_end"
	PredLocation          = ":has_location"
	PredCountry           = ":country_name"
	PredAdminLevel        = ":admin_level"
	PredGeonamesID        = "geo:geonamesId"
	PredNegated           = ":negated"
	PredTense             = ":tense"
	PredCondition         = ":has_condition"
)

// Classes
const (
	ClassEvent     = ":EventAndState"
	ClassThing     = "owl:Thing"
	ClassPerson    = ":Person"
	ClassGroup     = ":GroupOfAgents"
	ClassLocation  = ":Location"
	ClassTime      = ":Time"
	ClassCountry   = ":Country"
	ClassOrg       = ":Organization"
	ClassEthnicity = ":EthnicityReligionOrPoliticalIdeology"
)

// Fixed individuals for first and second person pronouns
const (
	Narrator          = ":Narrator"
	Audience          = ":Audience"
	NarratorAndOthers = ":NarratorAndOthers"
)

// Unknown is returned by resolvers when nothing matches
const Unknown = ":Unknown"

// Attributes a condition idiom may carry
const (
	AttrEthnicity         = "Ethnicity"
	AttrPoliticalIdeology = "PoliticalIdeology"
	AttrLineOfBusiness    = "LineOfBusiness"
)

// AttributePredicate maps a condition attribute to its predicate, e.g.
// PoliticalIdeology to :has_political_ideology. Unknown attributes return "".
func AttributePredicate(attr string) string {
	switch attr {
	case AttrEthnicity, AttrPoliticalIdeology, AttrLineOfBusiness:
	default:
		return ""
	}
	var sb strings.Builder
	for i, r := range attr {
		if unicode.IsUpper(r) && i > 0 {
			sb.WriteByte('_')
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return ":has_" + sb.String()
}

// EntityClass maps a named-entity label to a class
func EntityClass(label string) string {
	switch label {
	case "PERSON":
		return ClassPerson
	case "ORG":
		return ClassOrg
	case "NORP":
		return ClassEthnicity
	case "GPE":
		return ClassCountry
	case "LOC", "FAC":
		return ClassLocation
	case "DATE", "TIME":
		return ClassTime
	}
	return ""
}

// LocalName converts text to a prefixed name in the default namespace:
// "New York" becomes ":NewYork".
func LocalName(text string) string {
	var sb strings.Builder
	sb.WriteByte(':')
	upper := true
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if upper {
				r = unicode.ToUpper(r)
			}
			sb.WriteRune(r)
			upper = false
		default:
			upper = true
		}
	}
	if sb.Len() == 1 {
		return ""
	}
	name := sb.String()
	// a local name may not start with a digit in every serializer
	if unicode.IsDigit(rune(name[1])) {
		name = ":_" + name[1:]
	}
	return name
}
