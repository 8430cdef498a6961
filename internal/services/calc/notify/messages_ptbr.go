package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.MustParse("pt-BR")

	message.SetString(lang, "batch.completed.title", "Atualização em lote concluída")
	message.SetString(lang, "batch.completed.body", "%d de %d alterações aplicadas. Seus cálculos estão sendo atualizados.")
	message.SetString(lang, "batch.completed_with_failures.body", "%d de %d alterações aplicadas, %d falharam. Seus cálculos estão sendo atualizados.")
	message.SetString(lang, "batch.timed_out.title", "Atualização em lote ainda em andamento")
	message.SetString(lang, "batch.timed_out.body", "%d de %d alterações concluídas antes do limite de tempo. As demais ainda estão sendo aplicadas.")
}
