package roster

import (
	"errors"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wcc-tools/mentorsync/internal/utils"
)

const (
	mentorsDocumentKeyConstant              = "mentors"
	itemsDocumentKeyConstant                = "items"
	unsupportedDocumentShapeMessageConstant = "roster document must be a sequence or a mapping containing a mentor sequence"
	displayNameSeparatorConstant            = " "
	availabilityListSeparatorConstant       = ","
)

var errUnsupportedDocumentShape = errors.New(unsupportedDocumentShapeMessageConstant)

// MentorRecord models one mentor entry in the roster document. Fields whose
// hand-edited shapes vary in practice are kept as raw nodes and interpreted
// on demand.
type MentorRecord struct {
	Name         string    `yaml:"name"`
	FullName     string    `yaml:"full_name"`
	Mentor       string    `yaml:"mentor"`
	Title        string    `yaml:"title"`
	FirstName    string    `yaml:"first_name"`
	LastName     string    `yaml:"last_name"`
	Hours        yaml.Node `yaml:"hours"`
	Availability yaml.Node `yaml:"availability"`
	Sort         yaml.Node `yaml:"sort"`
}

// DisplayName resolves the human-facing name of the record, preferring the
// dedicated name keys and falling back to first and last name parts.
func (record MentorRecord) DisplayName() string {
	nameCandidates := []string{record.Name, record.FullName, record.Mentor, record.Title}
	for _, nameCandidate := range nameCandidates {
		if len(strings.TrimSpace(nameCandidate)) > 0 {
			return nameCandidate
		}
	}

	firstName := strings.TrimSpace(record.FirstName)
	lastName := strings.TrimSpace(record.LastName)
	combinedName := strings.TrimSpace(firstName + displayNameSeparatorConstant + lastName)
	return combinedName
}

// HoursValue interprets the hours field as an integer capacity threshold.
func (record MentorRecord) HoursValue() (int, bool) {
	return scalarInteger(record.Hours)
}

// AvailabilityMonths interprets the availability field as a list of month
// numbers. Sequences, comma-separated strings, and single scalars are all
// accepted; entries that do not parse as integers are dropped.
func (record MentorRecord) AvailabilityMonths() []int {
	availabilityNode := record.Availability

	switch availabilityNode.Kind {
	case yaml.SequenceNode:
		monthNumbers := make([]int, 0, len(availabilityNode.Content))
		for _, itemNode := range availabilityNode.Content {
			if itemValue, parsed := scalarInteger(*itemNode); parsed {
				monthNumbers = append(monthNumbers, itemValue)
			}
		}
		return monthNumbers
	case yaml.ScalarNode:
		scalarValue := strings.TrimSpace(availabilityNode.Value)
		if len(scalarValue) == 0 {
			return nil
		}
		if strings.Contains(scalarValue, availabilityListSeparatorConstant) {
			listParts := strings.Split(scalarValue, availabilityListSeparatorConstant)
			monthNumbers := make([]int, 0, len(listParts))
			for _, listPart := range listParts {
				if partValue, parseError := strconv.Atoi(strings.TrimSpace(listPart)); parseError == nil {
					monthNumbers = append(monthNumbers, partValue)
				}
			}
			return monthNumbers
		}
		if singleValue, parseError := strconv.Atoi(scalarValue); parseError == nil {
			return []int{singleValue}
		}
		return nil
	default:
		return nil
	}
}

func scalarInteger(node yaml.Node) (int, bool) {
	if node.Kind != yaml.ScalarNode {
		return 0, false
	}
	parsedValue, parseError := strconv.Atoi(strings.TrimSpace(node.Value))
	if parseError != nil {
		return 0, false
	}
	return parsedValue, true
}

// ParseDocument decodes the roster document into mentor records. The document
// may be a top-level sequence or a mapping carrying the sequence under a
// mentors or items key.
func ParseDocument(documentData []byte) ([]MentorRecord, error) {
	var rootNode yaml.Node
	if unmarshalError := yaml.Unmarshal(documentData, &rootNode); unmarshalError != nil {
		return nil, unmarshalError
	}

	if rootNode.Kind == 0 || len(rootNode.Content) == 0 {
		return nil, nil
	}

	contentNode := rootNode.Content[0]
	sequenceNode, sequenceFound := locateRecordSequence(contentNode)
	if !sequenceFound {
		return nil, errUnsupportedDocumentShape
	}

	var records []MentorRecord
	if decodeError := sequenceNode.Decode(&records); decodeError != nil {
		return nil, decodeError
	}

	return records, nil
}

func locateRecordSequence(contentNode *yaml.Node) (*yaml.Node, bool) {
	switch contentNode.Kind {
	case yaml.SequenceNode:
		return contentNode, true
	case yaml.MappingNode:
		for keyIndex := 0; keyIndex+1 < len(contentNode.Content); keyIndex += 2 {
			keyNode := contentNode.Content[keyIndex]
			valueNode := contentNode.Content[keyIndex+1]
			if keyNode.Value != mentorsDocumentKeyConstant && keyNode.Value != itemsDocumentKeyConstant {
				continue
			}
			if valueNode.Kind == yaml.SequenceNode {
				return valueNode, true
			}
		}
		return nil, false
	default:
		return nil, false
	}
}

// IndexedRoster maps normalized display names to mentor records.
type IndexedRoster struct {
	recordsByIdentifier map[string]MentorRecord
}

// NameCollision reports distinct raw display names sharing one normalized identifier.
type NameCollision struct {
	NormalizedIdentifier string
	DisplayNames         []string
}

// BuildIndex constructs the normalized-name lookup over the provided records.
// When distinct raw names normalize identically the last record wins for
// matching purposes; each such collision is surfaced for reporting.
func BuildIndex(records []MentorRecord) (IndexedRoster, []NameCollision) {
	recordsByIdentifier := make(map[string]MentorRecord, len(records))
	displayNamesByIdentifier := make(map[string][]string, len(records))

	for _, record := range records {
		displayName := record.DisplayName()
		normalizedIdentifier := utils.NormalizeIdentifier(displayName)
		if len(normalizedIdentifier) == 0 {
			continue
		}
		recordsByIdentifier[normalizedIdentifier] = record
		displayNamesByIdentifier[normalizedIdentifier] = appendUniqueName(displayNamesByIdentifier[normalizedIdentifier], displayName)
	}

	var collisions []NameCollision
	for normalizedIdentifier, displayNames := range displayNamesByIdentifier {
		if len(displayNames) > 1 {
			collisions = append(collisions, NameCollision{NormalizedIdentifier: normalizedIdentifier, DisplayNames: displayNames})
		}
	}

	return IndexedRoster{recordsByIdentifier: recordsByIdentifier}, collisions
}

func appendUniqueName(existingNames []string, candidateName string) []string {
	for _, existingName := range existingNames {
		if existingName == candidateName {
			return existingNames
		}
	}
	return append(existingNames, candidateName)
}

// Lookup returns the record registered for the normalized identifier.
func (index IndexedRoster) Lookup(normalizedIdentifier string) (MentorRecord, bool) {
	record, recordFound := index.recordsByIdentifier[normalizedIdentifier]
	return record, recordFound
}

// Size reports the number of distinct normalized identifiers in the index.
func (index IndexedRoster) Size() int {
	return len(index.recordsByIdentifier)
}
