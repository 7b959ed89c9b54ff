package inventory

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
)

const (
	maxMovementEntries  = 40
	maxStocktakeEntries = 50

	largeQuantityWarningThreshold = 10000
)

var (
	batchHeaderPattern = regexp.MustCompile(`(?im)^-\s*batch\s+(\d+)\s*-\s*$`)

	// globalParamPattern matches "key: value" pairs at the head of a batch.
	globalParamPattern = regexp.MustCompile(`(?i)\b(project|driver|from|to)\s*:\s*([^,\n;]+)`)

	stocktakeHeaderPattern = regexp.MustCompile(`(?i)^logged\s+by\s*:\s*(.+)$`)
	stocktakeDatePattern   = regexp.MustCompile(`(?i)date\s*:\s*(\d{1,2})/(\d{1,2})/(\d{2})`)
	stocktakeCategoryPattern = regexp.MustCompile(`(?i)category\s*:\s*([^,\n]+)`)

	// itemQuantityPattern splits an item line into name + quantity + unit +
	// trailing fields. The quantity token is the first signed number
	// followed by an optional unit word.
	itemQuantityPattern = regexp.MustCompile(`(?i)^(.*?),\s*([+-]?\d+(?:\.\d+)?)\s*([a-zA-Z]+)?\s*(?:,\s*(.*))?$`)
)

// CommandParser implements the command parser (C4): detect format, split
// into entries, extract global parameters, produce typed movements or
// stock-take entries.
type CommandParser struct {
	logger *zap.Logger
}

// NewCommandParser constructs a parser. A nil logger is replaced with a
// no-op logger.
func NewCommandParser(logger *zap.Logger) *CommandParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandParser{logger: logger}
}

// ParseMovementBatch parses the body of an `in`/`out`/`adjust` command into
// a typed batch of movements, per §4.4.
func (p *CommandParser) ParseMovementBatch(movementType inventory.MovementType, body string) *ParsedBatch {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return &ParsedBatch{
			MovementType: movementType,
			IsValid:      false,
			Errors: []inventory.EntryError{
				{Category: inventory.CategoryParsing, Severity: inventory.SeverityError,
					Message: "empty command body", Suggestion: inventory.SuggestionFor("empty command body")},
			},
		}
	}

	if batchHeaderPattern.MatchString(body) {
		return p.parseSegmented(movementType, body)
	}

	entries, globalErrs := p.parseEntrySection(movementType, body, 1)
	format := FormatSingle
	if len(entries) > 1 {
		format = FormatFreeBatch
	}

	batch := &ParsedBatch{
		Format:       format,
		MovementType: movementType,
		Entries:      entries,
		Errors:       globalErrs,
	}
	p.finalizeBatch(batch)
	return batch
}

func (p *CommandParser) parseSegmented(movementType inventory.MovementType, body string) *ParsedBatch {
	headerMatches := batchHeaderPattern.FindAllStringSubmatchIndex(body, -1)
	var entries []ParsedEntry
	var errs []inventory.EntryError

	for i, loc := range headerMatches {
		segStart := loc[1]
		segEnd := len(body)
		if i+1 < len(headerMatches) {
			segEnd = headerMatches[i+1][0]
		}
		segmentNumberStr := body[loc[2]:loc[3]]
		batchNumber, convErr := strconv.Atoi(segmentNumberStr)
		if convErr != nil {
			batchNumber = i + 1
		}

		segmentBody := strings.TrimSpace(body[segStart:segEnd])
		segEntries, segErrs := p.parseEntrySection(movementType, segmentBody, batchNumber)
		entries = append(entries, segEntries...)
		errs = append(errs, segErrs...)
	}

	batch := &ParsedBatch{
		Format:       FormatSegmented,
		MovementType: movementType,
		Entries:      entries,
		Errors:       errs,
	}
	p.finalizeBatch(batch)
	return batch
}

// parseEntrySection parses one segment's worth of text: an optional
// leading line of global parameters, followed by item lines separated by
// newlines and/or semicolons.
func (p *CommandParser) parseEntrySection(movementType inventory.MovementType, body string, batchNumber int) ([]ParsedEntry, []inventory.EntryError) {
	globals, remainder := extractGlobalParameters(body, movementType)

	var rawLines []string
	for _, line := range strings.Split(remainder, "\n") {
		for _, part := range strings.Split(line, ";") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			rawLines = append(rawLines, part)
		}
	}

	var entries []ParsedEntry
	var errs []inventory.EntryError
	seenNames := make(map[string]int)

	for idx, line := range rawLines {
		entry, err := parseItemLine(line)
		if err != nil {
			errs = append(errs, inventory.EntryError{
				EntryIndex: idx, ItemName: line, Category: inventory.CategoryParsing,
				Severity: inventory.SeverityError, Message: err.Error(),
				Suggestion: inventory.SuggestionFor(err.Error()),
			})
			continue
		}

		entry.LineNumber = idx
		entry.BatchNumber = batchNumber
		entry.MovementType = movementType
		applyGlobals(&entry, globals)

		if entry.Quantity.IsNegative() && movementType != inventory.MovementADJUST {
			errs = append(errs, inventory.EntryError{
				EntryIndex: idx, ItemName: entry.ItemName, Category: inventory.CategoryValidation,
				Severity: inventory.SeverityError,
				Message:  fmt.Sprintf("entry %d: negative quantity only valid for ADJUST entries", idx+1),
				Suggestion: inventory.SuggestionFor("validation"),
			})
			continue
		}
		if movementType != inventory.MovementADJUST && !entry.Quantity.IsPositive() {
			errs = append(errs, inventory.EntryError{
				EntryIndex: idx, ItemName: entry.ItemName, Category: inventory.CategoryValidation,
				Severity: inventory.SeverityError,
				Message:  fmt.Sprintf("entry %d: quantity must be positive", idx+1),
				Suggestion: inventory.SuggestionFor("validation"),
			})
			continue
		}
		if strings.TrimSpace(entry.ItemName) == "" {
			errs = append(errs, inventory.EntryError{
				EntryIndex: idx, Category: inventory.CategoryValidation, Severity: inventory.SeverityError,
				Message: fmt.Sprintf("entry %d: missing item name", idx+1), Suggestion: inventory.SuggestionFor("validation"),
			})
			continue
		}
		if strings.TrimSpace(entry.Project) == "" {
			errs = append(errs, inventory.EntryError{
				EntryIndex: idx, ItemName: entry.ItemName, Category: inventory.CategoryValidation,
				Severity: inventory.SeverityError,
				Message:  fmt.Sprintf("entry %d: project is required on movements", idx+1),
				Suggestion: inventory.SuggestionFor("validation"),
			})
			continue
		}

		if entry.Quantity.Abs().GreaterThan(decimal.NewFromInt(largeQuantityWarningThreshold)) {
			entry.SoftWarnings = append(entry.SoftWarnings,
				fmt.Sprintf("entry %d: quantity %s is unusually large, please confirm", idx+1, entry.Quantity.String()))
		}
		normalized := inventory.NormalizeName(entry.ItemName)
		if prior, ok := seenNames[normalized]; ok {
			entry.SoftWarnings = append(entry.SoftWarnings,
				fmt.Sprintf("entry %d: duplicate item also appears at entry %d", idx+1, prior+1))
		} else {
			seenNames[normalized] = idx
		}

		entries = append(entries, entry)
	}

	if mixedErr := checkMixedMovementTypes(movementType, entries); mixedErr != "" {
		errs = append(errs, inventory.EntryError{
			Category: inventory.CategoryParsing, Severity: inventory.SeverityError, Message: mixedErr,
			Suggestion: inventory.SuggestionFor(mixedErr),
		})
	}

	return entries, errs
}

// checkMixedMovementTypes is a placeholder seam: movement type is fixed per
// verb in this transport (in/out/adjust are separate commands), so mixing
// can only happen if a future transport allows type to vary per entry. Kept
// as an explicit invariant check per §4.4's cross-entry rule and §8's
// testable property, evaluated against the parsed entries' own type field.
func checkMixedMovementTypes(expected inventory.MovementType, entries []ParsedEntry) string {
	for i, e := range entries {
		if e.MovementType != expected {
			return fmt.Sprintf("movement type at entry %d differs from first entry type", i+1)
		}
	}
	return ""
}

func (p *CommandParser) finalizeBatch(batch *ParsedBatch) {
	if len(batch.Entries) > maxMovementEntries {
		batch.Errors = append(batch.Errors, inventory.EntryError{
			Category: inventory.CategoryValidation, Severity: inventory.SeverityError,
			Message:    fmt.Sprintf("batch has %d entries, exceeding the limit of %d; split into multiple submissions", len(batch.Entries), maxMovementEntries),
			Suggestion: "Split this batch into smaller submissions of 40 entries or fewer.",
		})
		batch.IsValid = false
		return
	}
	batch.IsValid = len(batch.Entries) > 0 && !hasParsingLevelError(batch.Errors)
}

func hasParsingLevelError(errs []inventory.EntryError) bool {
	for _, e := range errs {
		if e.Category == inventory.CategoryParsing {
			return true
		}
	}
	return false
}

// extractGlobalParameters finds project:/driver:/from:/to: fields anywhere
// in the segment — whether on their own header line or sharing a line with
// an item (e.g. "in project: Bridge, cement 50kg, 10 bags") — and strips the
// matched "key: value" tokens out, returning the resolved globals (with
// defaults applied) and the remaining text with just the item content left.
func extractGlobalParameters(body string, movementType inventory.MovementType) (inventory.GlobalParameters, string) {
	// Project has no default: the validation surface (§4.4) requires it on
	// movements, so an absent project: header is a genuine error rather
	// than a silently-defaulted value. Driver/from/to do default, per the
	// "missing values default to not described" rule.
	globals := inventory.GlobalParameters{
		Driver: "not described",
		From:   "not described",
	}
	if movementType == inventory.MovementOUT {
		globals.To = "external"
	} else {
		globals.To = "not described"
	}

	matches := globalParamPattern.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return globals, body
	}

	var out strings.Builder
	last := 0
	for _, loc := range matches {
		key := strings.ToLower(body[loc[2]:loc[3]])
		value := strings.TrimSpace(body[loc[4]:loc[5]])
		switch key {
		case "project":
			globals.Project = value
		case "driver":
			globals.Driver = value
		case "from":
			globals.From = value
		case "to":
			globals.To = value
		}
		out.WriteString(body[last:loc[0]])
		last = loc[1]
	}
	out.WriteString(body[last:])

	remainder := out.String()
	remainder = stripStrayCommaPunctuation(remainder)
	return globals, remainder
}

// stripStrayCommaPunctuation cleans up the comma/whitespace debris left
// behind once global-parameter tokens are removed from a line, e.g.
// "in , cement 50kg, 10 bags" -> "cement 50kg, 10 bags".
func stripStrayCommaPunctuation(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, ", ")
		line = regexp.MustCompile(`,\s*,`).ReplaceAllString(line, ",")
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func applyGlobals(entry *ParsedEntry, globals inventory.GlobalParameters) {
	if entry.Project == "" {
		entry.Project = globals.Project
	}
	if entry.Driver == "" {
		entry.Driver = globals.Driver
	}
	if entry.From == "" {
		entry.From = globals.From
	}
	if entry.To == "" {
		entry.To = globals.To
	}
}

// parseItemLine parses a single "<item_name>, <quantity>[ <unit>][, <field>...]"
// entry per §4.4's item-line grammar.
func parseItemLine(line string) (ParsedEntry, error) {
	m := itemQuantityPattern.FindStringSubmatch(line)
	if m == nil {
		return ParsedEntry{}, fmt.Errorf("could not parse item line %q: expected '<item>, <quantity>[ <unit>]'", line)
	}

	name := strings.TrimSpace(m[1])
	qtyStr := m[2]
	unit := strings.ToLower(strings.TrimSpace(m[3]))
	trailing := strings.TrimSpace(m[4])

	qty, err := decimal.NewFromString(qtyStr)
	if err != nil {
		return ParsedEntry{}, fmt.Errorf("invalid quantity %q in line %q", qtyStr, line)
	}
	if unit == "" {
		unit = "piece"
	}

	entry := ParsedEntry{
		ItemName: name,
		Quantity: qty,
		Unit:     unit,
	}

	if trailing != "" {
		entry.Note = trailing
	}

	return entry, nil
}

// ParseStocktake parses the body of an `inventory` command into a
// stock-take batch, per §4.4's stocktake grammar.
func (p *CommandParser) ParseStocktake(body string) *ParsedStocktake {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	result := &ParsedStocktake{}

	if len(lines) == 0 {
		result.Errors = append(result.Errors, inventory.EntryError{
			Category: inventory.CategoryParsing, Severity: inventory.SeverityError,
			Message: "empty stock-take command",
		})
		return result
	}

	header := lines[0]
	headerMatch := stocktakeHeaderPattern.FindStringSubmatch(header)
	if headerMatch == nil {
		result.Errors = append(result.Errors, inventory.EntryError{
			Category: inventory.CategoryParsing, Severity: inventory.SeverityError,
			Message:    `stock-take must start with "logged by: <names>"`,
			Suggestion: "Start the command with: logged by: <your name>",
		})
		return result
	}

	namesField := headerMatch[1]
	if dateMatch := stocktakeDatePattern.FindStringSubmatch(namesField); dateMatch != nil {
		normalized, err := normalizeDDMMYY(dateMatch[1], dateMatch[2], dateMatch[3])
		if err != nil {
			result.Errors = append(result.Errors, inventory.EntryError{
				Category: inventory.CategoryParsing, Severity: inventory.SeverityError,
				Message: err.Error(),
			})
		} else {
			result.Date = normalized
		}
		namesField = stocktakeDatePattern.ReplaceAllString(namesField, "")
	} else {
		result.Date = time.Now().Format("2006-01-02")
	}

	if catMatch := stocktakeCategoryPattern.FindStringSubmatch(namesField); catMatch != nil {
		result.Category = strings.TrimSpace(catMatch[1])
		namesField = stocktakeCategoryPattern.ReplaceAllString(namesField, "")
	}

	for _, name := range strings.Split(namesField, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			result.LoggedBy = append(result.LoggedBy, name)
		}
	}

	for idx, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			result.BlankLines++
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			result.CommentLines++
			continue
		}

		parts := strings.SplitN(trimmed, ",", 2)
		if len(parts) != 2 {
			result.Errors = append(result.Errors, inventory.EntryError{
				EntryIndex: idx, Category: inventory.CategoryParsing, Severity: inventory.SeverityError,
				Message:    fmt.Sprintf("line %d: expected '<item>, <qty>[ <unit-phrase>]'", idx+2),
				Suggestion: inventory.SuggestionFor("parse format"),
			})
			continue
		}

		itemName := strings.TrimSpace(parts[0])
		qtyFields := strings.Fields(strings.TrimSpace(parts[1]))
		if len(qtyFields) == 0 {
			result.Errors = append(result.Errors, inventory.EntryError{
				EntryIndex: idx, ItemName: itemName, Category: inventory.CategoryValidation,
				Severity: inventory.SeverityError, Message: fmt.Sprintf("line %d: missing counted quantity", idx+2),
			})
			continue
		}
		qty, err := decimal.NewFromString(qtyFields[0])
		if err != nil {
			result.Errors = append(result.Errors, inventory.EntryError{
				EntryIndex: idx, ItemName: itemName, Category: inventory.CategoryValidation,
				Severity: inventory.SeverityError, Message: fmt.Sprintf("line %d: invalid quantity %q", idx+2, qtyFields[0]),
			})
			continue
		}
		unit := "piece"
		if len(qtyFields) > 1 {
			unit = strings.ToLower(qtyFields[1])
		}

		result.Entries = append(result.Entries, StocktakeEntry{
			LineNumber: idx + 2,
			ItemName:   itemName,
			CountedQty: qty,
			Unit:       unit,
		})
	}

	if len(result.Entries) > maxStocktakeEntries {
		result.Errors = append(result.Errors, inventory.EntryError{
			Category: inventory.CategoryValidation, Severity: inventory.SeverityError,
			Message:    fmt.Sprintf("stock-take has %d entries, exceeding the limit of %d", len(result.Entries), maxStocktakeEntries),
			Suggestion: "Split this stock-take into smaller submissions of 50 entries or fewer.",
		})
	}

	result.IsValid = len(result.Entries) > 0 && !hasParsingLevelError(result.Errors) && len(result.Entries) <= maxStocktakeEntries
	return result
}

// normalizeDDMMYY converts a DD/MM/YY date to YYYY-MM-DD, applying the
// century rule (yy<50 -> 2000+yy, else 1900+yy) and validating calendar
// correctness, per §4.4.
func normalizeDDMMYY(ddStr, mmStr, yyStr string) (string, error) {
	dd, err1 := strconv.Atoi(ddStr)
	mm, err2 := strconv.Atoi(mmStr)
	yy, err3 := strconv.Atoi(yyStr)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", fmt.Errorf("invalid date components %s/%s/%s", ddStr, mmStr, yyStr)
	}

	year := 1900 + yy
	if yy < 50 {
		year = 2000 + yy
	}

	t, err := time.Parse("2006-1-2", fmt.Sprintf("%d-%d-%d", year, mm, dd))
	if err != nil || t.Day() != dd || int(t.Month()) != mm {
		return "", fmt.Errorf("invalid date %02d/%02d/%02d", dd, mm, yy)
	}
	return t.Format("2006-01-02"), nil
}
