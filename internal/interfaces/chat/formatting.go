package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/sitestock/inventorybot/internal/application/inventory"
	domaininv "github.com/sitestock/inventorybot/internal/domain/inventory"
)

// maxListedItems bounds how many successes and how many failures a batch
// summary lists individually (§7); outcomes past the bound are not listed
// and not counted in the list.
const maxListedItems = 5

func formatParseErrors(errs []domaininv.EntryError) string {
	if len(errs) == 0 {
		return "Nothing to report."
	}
	var b strings.Builder
	b.WriteString("Could not process this command:\n")
	for _, e := range errs {
		if e.ItemName != "" {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", e.ItemName, e.Message, e.Suggestion)
		} else {
			fmt.Fprintf(&b, "- %s (%s)\n", e.Message, e.Suggestion)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatEntryErrors(errs []domaininv.EntryError) string {
	return formatParseErrors(errs)
}

func formatBatchResult(result *inventory.BatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch %s: %s\n", result.BatchID, result.Summary)

	successes := 0
	failures := 0
	for _, o := range result.Outcomes {
		if o.Success && successes < maxListedItems {
			fmt.Fprintf(&b, "- OK: %s\n", o.ItemName)
			successes++
		} else if !o.Success && failures < maxListedItems {
			suggestion := ""
			if o.Error != nil {
				suggestion = o.Error.Suggestion
			}
			fmt.Fprintf(&b, "- FAILED: %s — %v (%s)\n", o.ItemName, o.Error, suggestion)
			failures++
		}
	}
	if result.RolledBack {
		b.WriteString("A critical failure triggered a rollback of this batch's prior successes.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDuplicateSummary(analysis inventory.DuplicateAnalysis) string {
	var b strings.Builder
	b.WriteString("Possible duplicates found:\n")
	for _, m := range analysis.Matches {
		fmt.Fprintf(&b, "- %q looks like existing item %q (%.0f%%, %s)\n", m.Candidate, m.Existing.Name, m.Score*100, m.Kind)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDuplicatePreview(analysis inventory.DuplicateAnalysis) Response {
	if len(analysis.Matches) == 0 {
		return textResponse("No likely duplicates found. This batch would proceed as new catalogue entries.")
	}
	return textResponse(formatDuplicateSummary(analysis))
}

var helpTopics = map[string]string{
	"": `Available commands:
  in / out <batch spec> — stage inflows/outflows for approval
  adjust <batch spec> — stage a signed adjustment (admin)
  inventory <stock-take block> — cumulative stock-take
  inventory validate <stock-take block> — parse and report only, no writes
  stock <query> — fuzzy-search the catalogue
  preview in|out <batch spec> — duplicate analysis only, no writes
  approve <batch_id> / reject <batch_id> — admin actions on a pending batch
  whoami — show your role
  audit <item> — recent movement history
  help [topic] — this message, or "help batch" for the batch spec grammar`,
	"batch": `Batch spec grammar:
  <item name>, <quantity>[ <unit>][, <note>]
Separate multiple entries with a newline or semicolon. A leading line of
"project: X, driver: Y, from: A, to: B" sets values inherited by every
entry that doesn't override them. Segment a batch into numbered groups with
"-batch N-" header lines.`,
}

func helpResponse(topic string) Response {
	topic = strings.ToLower(strings.TrimSpace(topic))
	text, ok := helpTopics[topic]
	if !ok {
		text = helpTopics[""]
	}
	return textResponse(text)
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify builds the <slug> half of a stock_item_<i>_<slug> callback token.
func slugify(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// hashQuery builds the <qhash> half of a stock_page_* callback token: short,
// deterministic, and opaque, since the raw query text may exceed a
// provider's callback-data length limit.
func hashQuery(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return hex.EncodeToString(sum[:])[:12]
}
