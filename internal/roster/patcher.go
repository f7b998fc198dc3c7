package roster

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/wcc-tools/mentorsync/internal/utils"
)

const (
	// ClosedSortValue deprioritizes a mentor in roster listings once capacity is exhausted.
	ClosedSortValue = 100

	openBracketConstant          = "["
	closeBracketConstant         = "]"
	inlineListSeparatorConstant  = ", "
	emptyInlineListConstant      = "[]"
	blockItemIndentStepConstant  = "  "
	defaultSortIndentConstant    = "  "
	availabilityFieldConstant    = "availability"
	sortFieldConstant            = "sort"
	blockItemPrefixConstant      = "- "
	fieldSeparatorConstant       = ": "
	newlineEndingConstant        = "\n"
	inlineCommentMarkerConstant  = " #"
	doubleQuoteCharacterConstant = byte('"')
	singleQuoteCharacterConstant = byte('\'')
)

var (
	recordStartPattern       = regexp.MustCompile(`^(\s*)-\s+name\s*:\s*(.*)$`)
	availabilityFieldPattern = regexp.MustCompile(`(?i)^(\s*)` + availabilityFieldConstant + `\s*:(.*)$`)
	blockListItemPattern     = regexp.MustCompile(`^(\s*)-\s*(-?\d+)\s*(?:#.*)?$`)
	sortFieldPattern         = regexp.MustCompile(`^(\s*)` + sortFieldConstant + `\s*:\s*(-?\d+)\s*(?:#.*)?$`)
	integerLiteralPattern    = regexp.MustCompile(`-?\d+`)
)

// PatchResult reports the outcome of a format-preserving patch pass.
type PatchResult struct {
	Text    string
	Changed []string
	Missing []string
}

// documentLine keeps a line body together with its original terminator so
// untouched regions re-render byte for byte.
type documentLine struct {
	body   string
	ending string
}

// recordBlock marks the start of one mentor record in the raw document.
type recordBlock struct {
	startIndex int
	rawName    string
}

// Patch removes the target month from the availability of every matched
// worklist mentor and rewrites the mentor's sort field to ClosedSortValue,
// editing only the minimal affected line spans. Worklist entries without a
// matching record block are collected in Missing rather than failing the
// pass. The returned text is the full document with every unmodified byte
// preserved, including line terminators and trailing-newline presence.
func Patch(documentText string, worklist []string, monthNumber int) PatchResult {
	documentLines := splitDocumentLines(documentText)
	recordBlocks := scanRecordBlocks(documentLines)

	blockIndexByIdentifier := make(map[string]int, len(recordBlocks))
	for blockIndex, block := range recordBlocks {
		normalizedIdentifier := utils.NormalizeIdentifier(rawScalarValue(block.rawName))
		if len(normalizedIdentifier) > 0 {
			blockIndexByIdentifier[normalizedIdentifier] = blockIndex
		}
	}

	type blockTarget struct {
		blockIndex  int
		displayName string
	}

	var targets []blockTarget
	var missingNames []string
	claimedBlocks := make(map[int]struct{}, len(worklist))
	for _, displayName := range worklist {
		normalizedIdentifier := utils.NormalizeIdentifier(displayName)
		blockIndex, blockFound := blockIndexByIdentifier[normalizedIdentifier]
		if !blockFound {
			missingNames = append(missingNames, displayName)
			continue
		}
		if _, alreadyClaimed := claimedBlocks[blockIndex]; alreadyClaimed {
			continue
		}
		claimedBlocks[blockIndex] = struct{}{}
		targets = append(targets, blockTarget{blockIndex: blockIndex, displayName: displayName})
	}

	// Edit bottom-up so earlier block boundaries stay valid as line counts shift.
	sort.Slice(targets, func(firstIndex int, secondIndex int) bool {
		return targets[firstIndex].blockIndex > targets[secondIndex].blockIndex
	})

	changedByName := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		blockStart := recordBlocks[target.blockIndex].startIndex
		blockEnd := len(documentLines)
		if target.blockIndex+1 < len(recordBlocks) {
			blockEnd = recordBlocks[target.blockIndex+1].startIndex
		}

		patchedBlockLines, blockChanged := patchBlock(cloneLines(documentLines[blockStart:blockEnd]), monthNumber)
		if blockChanged {
			documentLines = spliceLines(documentLines, blockStart, blockEnd, patchedBlockLines)
			changedByName[target.displayName] = struct{}{}
		}
	}

	var changedNames []string
	for _, displayName := range worklist {
		if _, wasChanged := changedByName[displayName]; wasChanged {
			changedNames = append(changedNames, displayName)
		}
	}

	return PatchResult{
		Text:    joinDocumentLines(documentLines),
		Changed: changedNames,
		Missing: missingNames,
	}
}

// patchBlock applies the availability and sort edits to a single record
// block and reports whether either produced a textual difference.
func patchBlock(blockLines []documentLine, monthNumber int) ([]documentLine, bool) {
	originalText := joinDocumentLines(blockLines)

	availabilityIndex, availabilityFound := findAvailabilityField(blockLines)
	if availabilityFound {
		blockLines = patchAvailabilityField(blockLines, availabilityIndex, monthNumber)
	}

	blockLines = patchSortField(blockLines, availabilityFound, availabilityIndex)

	return blockLines, joinDocumentLines(blockLines) != originalText
}

func findAvailabilityField(blockLines []documentLine) (int, bool) {
	for lineIndex, line := range blockLines {
		if availabilityFieldPattern.MatchString(line.body) {
			return lineIndex, true
		}
	}
	return 0, false
}

func patchAvailabilityField(blockLines []documentLine, fieldIndex int, monthNumber int) []documentLine {
	fieldMatch := availabilityFieldPattern.FindStringSubmatch(blockLines[fieldIndex].body)
	fieldIndent := fieldMatch[1]
	fieldRest := fieldMatch[2]

	if strings.Contains(fieldRest, openBracketConstant) && strings.Contains(fieldRest, closeBracketConstant) {
		blockLines[fieldIndex].body = rewriteInlineAvailability(blockLines[fieldIndex].body, monthNumber)
		return blockLines
	}

	itemIndent := fieldIndent + blockItemIndentStepConstant
	itemValues, itemsEnd := scanBlockListItems(blockLines, fieldIndex+1, itemIndent)
	if len(itemValues) == 0 {
		return blockLines
	}

	remainingValues := removeMonth(itemValues, monthNumber)
	if len(remainingValues) == len(itemValues) {
		return blockLines
	}

	lastRemovedEnding := blockLines[itemsEnd-1].ending

	if len(remainingValues) == 0 {
		collapsedField := documentLine{
			body:   fieldIndent + availabilityFieldConstant + fieldSeparatorConstant + emptyInlineListConstant,
			ending: lastRemovedEnding,
		}
		return spliceLines(blockLines, fieldIndex, itemsEnd, []documentLine{collapsedField})
	}

	firstItemEnding := blockLines[fieldIndex+1].ending
	replacementItems := make([]documentLine, 0, len(remainingValues))
	for valueIndex, remainingValue := range remainingValues {
		itemEnding := firstItemEnding
		if valueIndex == len(remainingValues)-1 {
			itemEnding = lastRemovedEnding
		}
		replacementItems = append(replacementItems, documentLine{
			body:   itemIndent + blockItemPrefixConstant + strconv.Itoa(remainingValue),
			ending: itemEnding,
		})
	}
	return spliceLines(blockLines, fieldIndex+1, itemsEnd, replacementItems)
}

// rewriteInlineAvailability rewrites the bracketed span of an inline
// availability list, leaving the prefix and any trailing comment untouched.
func rewriteInlineAvailability(lineBody string, monthNumber int) string {
	openIndex := strings.Index(lineBody, openBracketConstant)
	if openIndex < 0 {
		return lineBody
	}
	closeOffset := strings.Index(lineBody[openIndex:], closeBracketConstant)
	if closeOffset < 0 {
		return lineBody
	}
	closeIndex := openIndex + closeOffset

	integerLiterals := integerLiteralPattern.FindAllString(lineBody[openIndex:closeIndex+1], -1)
	listValues := make([]int, 0, len(integerLiterals))
	for _, integerLiteral := range integerLiterals {
		parsedValue, parseError := strconv.Atoi(integerLiteral)
		if parseError != nil {
			continue
		}
		listValues = append(listValues, parsedValue)
	}

	remainingValues := removeMonth(listValues, monthNumber)
	if len(remainingValues) == len(listValues) {
		return lineBody
	}

	renderedValues := make([]string, 0, len(remainingValues))
	for _, remainingValue := range remainingValues {
		renderedValues = append(renderedValues, strconv.Itoa(remainingValue))
	}

	rewrittenSpan := openBracketConstant + strings.Join(renderedValues, inlineListSeparatorConstant) + closeBracketConstant
	return lineBody[:openIndex] + rewrittenSpan + lineBody[closeIndex+1:]
}

func scanBlockListItems(blockLines []documentLine, firstItemIndex int, itemIndent string) ([]int, int) {
	var itemValues []int
	itemsEnd := firstItemIndex
	for itemsEnd < len(blockLines) {
		itemMatch := blockListItemPattern.FindStringSubmatch(blockLines[itemsEnd].body)
		if itemMatch == nil || itemMatch[1] != itemIndent {
			break
		}
		itemValue, parseError := strconv.Atoi(itemMatch[2])
		if parseError != nil {
			break
		}
		itemValues = append(itemValues, itemValue)
		itemsEnd++
	}
	return itemValues, itemsEnd
}

// patchSortField rewrites an existing integer sort line to ClosedSortValue or
// inserts a new one after the availability field. The rewritten line drops
// any trailing comment; the insertion inherits the availability indentation.
func patchSortField(blockLines []documentLine, availabilityFound bool, availabilityIndex int) []documentLine {
	for lineIndex, line := range blockLines {
		sortMatch := sortFieldPattern.FindStringSubmatch(line.body)
		if sortMatch == nil {
			continue
		}
		currentValue, parseError := strconv.Atoi(sortMatch[2])
		if parseError == nil && currentValue == ClosedSortValue {
			return blockLines
		}
		blockLines[lineIndex].body = sortMatch[1] + sortFieldConstant + fieldSeparatorConstant + strconv.Itoa(ClosedSortValue)
		return blockLines
	}

	insertIndent := defaultSortIndentConstant
	insertIndex := len(blockLines)
	if availabilityFound {
		fieldMatch := availabilityFieldPattern.FindStringSubmatch(blockLines[availabilityIndex].body)
		insertIndent = fieldMatch[1]
		itemIndent := insertIndent + blockItemIndentStepConstant
		insertIndex = availabilityIndex + 1
		for insertIndex < len(blockLines) {
			itemMatch := blockListItemPattern.FindStringSubmatch(blockLines[insertIndex].body)
			if itemMatch == nil || itemMatch[1] != itemIndent {
				break
			}
			insertIndex++
		}
	}

	insertedLine := documentLine{
		body:   insertIndent + sortFieldConstant + fieldSeparatorConstant + strconv.Itoa(ClosedSortValue),
		ending: newlineEndingConstant,
	}
	if insertIndex > 0 {
		insertedLine.ending = blockLines[insertIndex-1].ending
		if insertIndex == len(blockLines) && len(blockLines[insertIndex-1].ending) == 0 {
			// The block ended without a terminator; the former last line gains
			// one and the inserted line becomes the unterminated final line.
			blockLines[insertIndex-1].ending = newlineEndingConstant
			insertedLine.ending = ""
		}
	}

	return spliceLines(blockLines, insertIndex, insertIndex, []documentLine{insertedLine})
}

func removeMonth(monthValues []int, monthNumber int) []int {
	remainingValues := make([]int, 0, len(monthValues))
	for _, monthValue := range monthValues {
		if monthValue == monthNumber {
			continue
		}
		remainingValues = append(remainingValues, monthValue)
	}
	return remainingValues
}

// scanRecordBlocks locates every record start marker in document order.
func scanRecordBlocks(documentLines []documentLine) []recordBlock {
	var blocks []recordBlock
	for lineIndex, line := range documentLines {
		startMatch := recordStartPattern.FindStringSubmatch(line.body)
		if startMatch == nil {
			continue
		}
		blocks = append(blocks, recordBlock{startIndex: lineIndex, rawName: startMatch[2]})
	}
	return blocks
}

// rawScalarValue strips a surrounding quote pair or a trailing comment from a
// raw scalar captured off a document line.
func rawScalarValue(rawValue string) string {
	trimmedValue := strings.TrimSpace(rawValue)
	if len(trimmedValue) >= 2 && (trimmedValue[0] == doubleQuoteCharacterConstant || trimmedValue[0] == singleQuoteCharacterConstant) {
		quoteCharacter := trimmedValue[0]
		if closeIndex := strings.IndexByte(trimmedValue[1:], quoteCharacter); closeIndex >= 0 {
			return trimmedValue[1 : 1+closeIndex]
		}
	}
	if commentIndex := strings.Index(trimmedValue, inlineCommentMarkerConstant); commentIndex >= 0 {
		trimmedValue = strings.TrimSpace(trimmedValue[:commentIndex])
	}
	return trimmedValue
}

func splitDocumentLines(documentText string) []documentLine {
	var documentLines []documentLine
	for cursor := 0; cursor < len(documentText); {
		lineStart := cursor
		for cursor < len(documentText) && documentText[cursor] != '\n' && documentText[cursor] != '\r' {
			cursor++
		}
		line := documentLine{body: documentText[lineStart:cursor]}
		if cursor < len(documentText) {
			if documentText[cursor] == '\r' && cursor+1 < len(documentText) && documentText[cursor+1] == '\n' {
				line.ending = documentText[cursor : cursor+2]
				cursor += 2
			} else {
				line.ending = documentText[cursor : cursor+1]
				cursor++
			}
		}
		documentLines = append(documentLines, line)
	}
	return documentLines
}

func joinDocumentLines(documentLines []documentLine) string {
	var textBuilder strings.Builder
	for _, line := range documentLines {
		textBuilder.WriteString(line.body)
		textBuilder.WriteString(line.ending)
	}
	return textBuilder.String()
}

func cloneLines(documentLines []documentLine) []documentLine {
	clonedLines := make([]documentLine, len(documentLines))
	copy(clonedLines, documentLines)
	return clonedLines
}

func spliceLines(documentLines []documentLine, spliceStart int, spliceEnd int, replacementLines []documentLine) []documentLine {
	splicedLines := make([]documentLine, 0, len(documentLines)-(spliceEnd-spliceStart)+len(replacementLines))
	splicedLines = append(splicedLines, documentLines[:spliceStart]...)
	splicedLines = append(splicedLines, replacementLines...)
	splicedLines = append(splicedLines, documentLines[spliceEnd:]...)
	return splicedLines
}
