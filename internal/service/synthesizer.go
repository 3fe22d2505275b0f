package service

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"expense-bot/internal/query"
)

const maxReplyLines = 6

const (
	msgRetrieval     = "⚠️ Não consegui baixar o arquivo enviado. Tente enviar novamente."
	msgExtraction    = "⚠️ Não consegui ler o texto deste documento. Se for um PDF escaneado, envie cada página como imagem separada ou uma foto mais nítida."
	msgOCRProcessing = "⚠️ Não consegui entender este documento. Tente enviar uma cópia mais nítida."
	msgValidation    = "⚠️ Não encontrei o valor total ou a data neste documento. Confira se eles aparecem na imagem e tente novamente."
	msgExecution     = "❌ Não consegui responder sua pergunta. Tente reformular."
	msgGeneric       = "❌ Ocorreu um erro inesperado. Já fomos avisados, tente novamente em instantes."
	msgReceived      = "✅ Mensagem recebida! Envie a foto ou o PDF de um comprovante, ou pergunte algo como \"Quanto gastei com alimentação este mês?\""
)

// codeLike matches reply templates that carry query text or storage
// vocabulary instead of prose.
var codeLike = regexp.MustCompile(`(?i)\b(select|from\s+\w+\s+where|insert|update|delete|join|group\s+by|user_?id|total_amount|expense_\w+|sum\s*\(|count\s*\()|[{}` + "`" + `;]|::|=>`)

// Synthesizer renders query results and processed documents as short
// Portuguese messages.
type Synthesizer struct{}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Apology maps a pipeline error to its fixed user-facing message. Error
// text itself is never shown.
func (s *Synthesizer) Apology(err error) string {
	switch {
	case errors.Is(err, ErrRetrieval):
		return msgRetrieval
	case errors.Is(err, ErrExtraction):
		return msgExtraction
	case errors.Is(err, ErrOCRProcessing):
		return msgOCRProcessing
	case errors.Is(err, ErrValidation):
		return msgValidation
	case errors.Is(err, ErrExecution):
		return msgExecution
	default:
		return msgGeneric
	}
}

func (s *Synthesizer) Received() string {
	return msgReceived
}

// RenderDocuments summarizes every committed document in order and, when the
// batch stopped early, appends the apology for the failed attachment.
func (s *Synthesizer) RenderDocuments(saved []*SavedExpense, failure error) string {
	var blocks []string
	for _, sv := range saved {
		blocks = append(blocks, s.renderDocument(sv))
	}
	if failure != nil {
		apology := s.Apology(failure)
		if len(saved) > 0 {
			apology = fmt.Sprintf("%s\n(%s registrado(s) antes do erro.)", apology, pluralize(len(saved), "documento", "documentos"))
		}
		blocks = append(blocks, apology)
	}
	return strings.Join(blocks, "\n\n")
}

func (s *Synthesizer) renderDocument(sv *SavedExpense) string {
	lines := []string{
		"✅ Documento registrado!",
		"💰 Valor: " + formatBRL(sv.Expense.Amount),
		"📅 Data: " + formatLongDate(sv.Expense.Date),
	}
	if sv.Expense.Establishment != "" {
		lines = append(lines, "🏪 Local: "+sv.Expense.Establishment)
	}
	if sv.Category != "" {
		lines = append(lines, "📦 Categoria: "+sv.Category)
	}
	lines = append(lines, fmt.Sprintf("🧾 Itens: %d", len(sv.Items)))
	return strings.Join(lines, "\n")
}

// RenderQuery turns a result into at most maxReplyLines lines.
func (s *Synthesizer) RenderQuery(result *query.Result, tr *query.Translation) string {
	spec := tr.Spec
	empty := result.Count == 0 && len(result.Rows) == 0

	headline := ""
	if !empty {
		headline = s.fillTemplate(tr.ResponseTemplate, result, spec)
	}
	if headline == "" {
		headline = builtinHeadline(result, spec)
	}

	lines := []string{headline}
	if !empty {
		for _, row := range result.Rows {
			if len(lines) == maxReplyLines {
				break
			}
			lines = append(lines, "• "+renderRow(result.Kind, row))
		}
	}
	return strings.Join(lines, "\n")
}

// fillTemplate substitutes the known placeholders and returns "" when the
// template is missing or unsafe to show.
func (s *Synthesizer) fillTemplate(template string, result *query.Result, spec query.Spec) string {
	template = strings.TrimSpace(template)
	if template == "" || strings.Contains(template, "\n") {
		return ""
	}

	filled := strings.NewReplacer(
		"{total}", formatBRL(result.Total),
		"{count}", strconv.Itoa(result.Count),
		"{category}", categoryOrAll(spec.Category),
		"{period}", periodOrAll(spec.Period),
	).Replace(template)

	if codeLike.MatchString(filled) {
		return ""
	}
	return filled
}

func builtinHeadline(result *query.Result, spec query.Spec) string {
	period := ""
	if spec.Period.Label != "" {
		period = " " + spec.Period.Label
	}
	category := ""
	if spec.Category != "" {
		category = " com " + spec.Category
	}

	switch result.Kind {
	case query.KindDocumentCount:
		return fmt.Sprintf("📄 Você enviou %s%s.", pluralize(result.Count, "documento", "documentos"), period)
	}

	if result.Count == 0 && len(result.Rows) == 0 {
		if result.Kind == query.KindItemSearch {
			return fmt.Sprintf("🔎 Não encontrei compras de \"%s\"%s.", spec.SearchTerm, period)
		}
		return fmt.Sprintf("🔎 Não encontrei despesas%s%s.", category, period)
	}

	switch result.Kind {
	case query.KindTotalSpent:
		return fmt.Sprintf("💰 Você gastou %s%s%s, em %s.",
			formatBRL(result.Total), category, period, pluralize(result.Count, "despesa", "despesas"))
	case query.KindSpendingByCategory:
		return fmt.Sprintf("📊 Seus gastos por categoria%s:", period)
	case query.KindMonthlyTrend:
		return fmt.Sprintf("📈 Seus gastos por mês%s%s:", category, period)
	case query.KindItemSearch:
		return fmt.Sprintf("🔎 Encontrei %s de \"%s\"%s:", pluralize(len(result.Rows), "compra", "compras"), spec.SearchTerm, period)
	case query.KindRecentExpenses:
		return fmt.Sprintf("🧾 Suas últimas despesas%s%s:", category, period)
	}
	return msgExecution
}

func renderRow(kind query.Kind, row query.Row) string {
	switch kind {
	case query.KindSpendingByCategory:
		label := row.Label
		if label == "" {
			label = "Sem categoria"
		}
		return fmt.Sprintf("%s: %s", label, formatBRL(row.Amount))
	case query.KindMonthlyTrend:
		return fmt.Sprintf("%s: %s", formatMonthLabel(row.Label), formatBRL(row.Amount))
	case query.KindItemSearch:
		return fmt.Sprintf("%s: %s, %s × %s = %s", formatLongDate(row.Date), row.Description,
			formatQuantity(row.Quantity), formatBRL(row.UnitPrice), formatBRL(row.Amount))
	case query.KindRecentExpenses:
		where := row.Establishment
		if where == "" {
			where = row.Description
		}
		if where == "" {
			return fmt.Sprintf("%s: %s", formatLongDate(row.Date), formatBRL(row.Amount))
		}
		return fmt.Sprintf("%s: %s em %s", formatLongDate(row.Date), formatBRL(row.Amount), where)
	}
	return formatBRL(row.Amount)
}

func categoryOrAll(category string) string {
	if category == "" {
		return "todas as categorias"
	}
	return category
}

func periodOrAll(p query.Period) string {
	if p.Label == "" {
		return "no total"
	}
	return p.Label
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}
