package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "batch.completed.title", "Batch update complete")
	message.SetString(lang, "batch.completed.body", "%d of %d changes applied. Your calculations are being refreshed.")
	message.SetString(lang, "batch.completed_with_failures.body", "%d of %d changes applied, %d failed. Your calculations are being refreshed.")
	message.SetString(lang, "batch.timed_out.title", "Batch update still in progress")
	message.SetString(lang, "batch.timed_out.body", "%d of %d changes finished before the time limit. The rest are still being applied.")
}
