package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"agente_gateway/internal/config"
	"agente_gateway/internal/entities"
	"agente_gateway/internal/infrastructure"
	"agente_gateway/internal/interfaces"
)

const (
	apologyReply     = "Lo siento, estoy teniendo problemas técnicos en este momento. Por favor, intenta de nuevo en unos minutos."
	emptyToolReply   = "He encontrado algunos productos, pero no sé cómo describirlos. ¿Puedes ser más específico?"
	emptyDirectReply = "No sé qué decir a eso. ¿Puedes preguntarme otra cosa?"

	noProductsText = "No se encontraron productos relevantes."
	noBusinessText = "No disponible."
	noOffersText   = "No hay ofertas activas."
	noPaymentsText = "No disponibles."
)

// goldenRules is appended to every tool-calling system instruction so the
// model stays grounded in tool output instead of inventing stock or schedules.
const goldenRules = `
REGLAS DE ORO (INQUEBRANTABLES):
1.  **Uso Obligatorio de Herramientas:**
    - Para buscar productos: Usa SIEMPRE 'product_search'.
    - Para agendar o ver horarios: Usa SIEMPRE 'check_availability'. Es tu única fuente de verdad sobre la disponibilidad.
2.  **Recopilación de Datos para Citas:** Antes de llamar a 'check_availability', DEBES tener dos datos del usuario: el servicio exacto (ej: "cancha de fútbol 5") y una fecha/hora (ej: "mañana a las 5 de la tarde"). Si falta alguno, pídelo amablemente.
3.  **Manejo de Errores de Herramientas:** Si una herramienta te devuelve un error (por ejemplo, 'Falta el nombre del servicio o la fecha'), significa que no tenías la información completa. Pide al usuario los datos que faltan de forma clara.
4.  **Prohibido Inventar:** NUNCA inventes productos, precios, stock u horarios. Basa tu respuesta 100% en los datos que te devuelven las herramientas. Si una herramienta no devuelve resultados, eso significa que no hay stock o no hay disponibilidad.
5.  **Presentación de Horarios:** Cuando 'check_availability' te devuelva horarios disponibles, preséntalos al usuario de forma clara y pregúntale cuál prefiere.`

// Orchestrator turns an inbound message into a reply. It is stateless between
// turns: tenant configuration and history arrive with every request.
type Orchestrator struct {
	generator interfaces.Generator
	embedder  interfaces.Embedder
	searcher  interfaces.ProductSearcher
	resolver  *TenantResolver
	tools     *ToolExecutor
	mode      string
	threshold float64
	limit     int
	logger    *slog.Logger
}

func NewOrchestrator(
	generator interfaces.Generator,
	embedder interfaces.Embedder,
	searcher interfaces.ProductSearcher,
	resolver *TenantResolver,
	tools *ToolExecutor,
	mode string,
	threshold float64,
	limit int,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		generator: generator,
		embedder:  embedder,
		searcher:  searcher,
		resolver:  resolver,
		tools:     tools,
		mode:      mode,
		threshold: threshold,
		limit:     limit,
		logger:    logger,
	}
}

// Respond processes one turn and surfaces the turn error to the caller, for
// invocation paths that report failures as such.
func (o *Orchestrator) Respond(ctx context.Context, req entities.ChatRequest) (string, error) {
	turnID := uuid.NewString()
	logger := o.logger.With("turn", turnID, "session", req.SessionID, "client", req.ClientID)

	reply, err := o.respond(ctx, req, logger)
	if err != nil {
		logger.Error("turn failed", "error", err)
		return "", err
	}
	return reply, nil
}

// Reply always returns something sendable for the messaging channel: on any
// pipeline failure it degrades to an apology carrying the underlying message
// rather than going silent.
func (o *Orchestrator) Reply(ctx context.Context, req entities.ChatRequest) string {
	reply, err := o.Respond(ctx, req)
	if err != nil {
		return fmt.Sprintf("%s (%s)", apologyReply, err)
	}
	return reply
}

func (o *Orchestrator) respond(ctx context.Context, req entities.ChatRequest, logger *slog.Logger) (string, error) {
	if req.Message == "" || req.SessionID == "" || req.ClientID == "" {
		return "", fmt.Errorf("missing message, sessionId or clientId")
	}

	tenant, err := o.resolver.Resolve(ctx, req.ClientID)
	if err != nil {
		return "", err
	}

	if o.mode == config.PipelineRetrieval {
		return o.respondRetrieval(ctx, tenant, req, logger)
	}
	return o.respondTools(ctx, tenant, req, logger)
}

// --- Retrieval pipeline ---

func (o *Orchestrator) respondRetrieval(ctx context.Context, tenant *entities.TenantContext, req entities.ChatRequest, logger *slog.Logger) (string, error) {
	intent, err := o.classifyIntent(ctx, tenant.APIKey, req)
	if err != nil {
		return "", fmt.Errorf("classifying intent: %w", err)
	}
	logger.Info("intent classified", "intent", intent)

	var products []entities.Product
	if strings.Contains(string(intent), string(entities.IntentProduct)) {
		products = o.retrieveProducts(ctx, tenant, req, logger)
	}

	prompt := o.buildRetrievalPrompt(tenant, req, products)
	raw, err := o.generator.Generate(ctx, tenant.APIKey, infrastructure.GenerateRequest{
		Contents:         []infrastructure.Content{{Parts: []infrastructure.Part{{Text: prompt}}}},
		GenerationConfig: &infrastructure.GenerationConfig{ResponseMIMEType: "application/json"},
	})
	if err != nil {
		return "", fmt.Errorf("generating reply: %w", err)
	}

	return extractJSONReply(raw.Text), nil
}

// classifyIntent routes the turn so catalog retrieval only runs when needed.
func (o *Orchestrator) classifyIntent(ctx context.Context, apiKey string, req entities.ChatRequest) (entities.Intent, error) {
	prompt := fmt.Sprintf(`Clasifica la "Última pregunta" del cliente en una de estas tres categorías: "PRODUCT_QUERY" (si pregunta por herramientas, tareas, o productos), "BUSINESS_QUERY" (si pregunta por dirección, horarios, pagos, ofertas, o sobre el negocio en general), o "GREETING" (si es solo un saludo o una conversación casual).

Historial:
%s

Última pregunta: "%s"

Categoría:`, formatHistory(req.History, 4), req.Message)

	text, err := o.generator.GenerateText(ctx, apiKey, prompt)
	if err != nil {
		return "", err
	}
	return entities.Intent(strings.TrimSpace(text)), nil
}

// retrieveProducts runs rewrite, embed and vector search. Any failure along
// the way degrades to an empty result set instead of aborting the turn.
func (o *Orchestrator) retrieveProducts(ctx context.Context, tenant *entities.TenantContext, req entities.ChatRequest, logger *slog.Logger) []entities.Product {
	searchQuery, err := o.rewriteQuery(ctx, tenant.APIKey, req)
	if err != nil {
		logger.Warn("query rewriting failed, searching with raw message", "error", err)
		searchQuery = req.Message
	}

	embedding, err := o.embedder.Embed(ctx, tenant.APIKey, searchQuery)
	if err != nil {
		logger.Warn("embedding failed, skipping retrieval", "error", err)
		return nil
	}

	products, err := o.searcher.MatchProducts(ctx, tenant.ID, embedding, o.threshold, o.limit)
	if err != nil {
		logger.Warn("vector search failed, skipping retrieval", "error", err)
		return nil
	}
	logger.Info("retrieval complete", "query", searchQuery, "matches", len(products))
	return products
}

// rewriteQuery condenses the conversation into a short search phrase.
func (o *Orchestrator) rewriteQuery(ctx context.Context, apiKey string, req entities.ChatRequest) (string, error) {
	prompt := fmt.Sprintf(`Basado en el siguiente historial de conversación y la última pregunta del cliente, genera una frase corta y concisa (3 a 5 palabras) que resuma el producto o la tarea principal que el cliente necesita. Esta frase se usará para buscar en una base de datos de productos.
Ejemplos:
- Cliente: "necesito romper una pared" -> "herramienta para demolición pesada"
- Cliente: "y un martillo?" -> "martillo para romper"
- Cliente: "tienes para clavar?" -> "herramienta para clavar clavos"

Historial:
%s

Última pregunta: "%s"

Frase de búsqueda optimizada:`, formatHistory(req.History, 4), req.Message)

	text, err := o.generator.GenerateText(ctx, apiKey, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (o *Orchestrator) buildRetrievalPrompt(tenant *entities.TenantContext, req entities.ChatRequest, products []entities.Product) string {
	agentPrompt := tenant.PromptOverride
	if agentPrompt == "" {
		agentPrompt = tenant.BasePrompt
	}

	var contextText string
	for _, p := range products {
		contextText += fmt.Sprintf("- %s: %s, Precio: $%.2f\n", p.Name, p.Description, p.Price)
	}
	if contextText == "" {
		contextText = noProductsText
	}

	businessText := noBusinessText
	if tenant.Profile != nil {
		businessText = fmt.Sprintf("Nombre: %s, Dirección: %s, Horarios: %s, Teléfono: %s",
			tenant.Profile.Name, tenant.Profile.Address, tenant.Profile.Hours, tenant.Profile.Phone)
	}

	var offersText string
	for _, offer := range tenant.Offers {
		offersText += fmt.Sprintf("- %s: %s (Palabras clave: %s)\n", offer.Title, offer.Description, offer.Keywords)
	}
	if offersText == "" {
		offersText = noOffersText
	}

	var paymentsText string
	for _, pm := range tenant.Payments {
		surcharge := "sin recargo"
		if pm.Surcharge > 0 {
			surcharge = fmt.Sprintf("con un %.0f%% de recargo", pm.Surcharge)
		}
		paymentsText += fmt.Sprintf("- %s: %s\n", pm.Name, surcharge)
	}
	if paymentsText == "" {
		paymentsText = noPaymentsText
	}

	return fmt.Sprintf(`%s
Productos disponibles:
%s

Historial de la Conversación:
%s

---
INFORMACIÓN ADICIONAL DEL NEGOCIO (Úsala si el cliente pregunta por ella):

Información General:
%s

Ofertas Activas (Ofrécelas si el cliente compra un producto relacionado con las palabras clave):
%s

Métodos de Pago Aceptados:
%s

Pregunta del usuario: "%s"

Tu respuesta:`, agentPrompt, contextText, formatHistory(req.History, 6), businessText, offersText, paymentsText, req.Message)
}

// extractJSONReply unwraps a {"reply": "..."} JSON answer, falling back to
// the raw text when the model did not honor the JSON contract.
func extractJSONReply(text string) string {
	var wrapped struct {
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err == nil && wrapped.Reply != "" {
		return wrapped.Reply
	}
	if text == "" {
		return emptyDirectReply
	}
	return text
}

// --- Tool-calling pipeline ---

func (o *Orchestrator) respondTools(ctx context.Context, tenant *entities.TenantContext, req entities.ChatRequest, logger *slog.Logger) (string, error) {
	systemText := o.buildSystemInstruction(tenant)
	contents := cleanHistory(req.History)
	contents = append(contents, infrastructure.Content{
		Role:  "user",
		Parts: []infrastructure.Part{{Text: req.Message}},
	})

	request := infrastructure.GenerateRequest{
		SystemInstruction: &infrastructure.Content{Parts: []infrastructure.Part{{Text: systemText}}},
		Contents:          contents,
		Tools:             o.tools.Declarations(),
	}

	resp, err := o.generator.Generate(ctx, tenant.APIKey, request)
	if err != nil {
		return "", fmt.Errorf("generating reply: %w", err)
	}

	if len(resp.FunctionCalls) == 0 {
		if resp.Text == "" {
			return emptyDirectReply, nil
		}
		return resp.Text, nil
	}

	// Only the first requested call is honored.
	call := resp.FunctionCalls[0]
	logger.Info("executing tool", "tool", call.Name)
	result := o.tools.Execute(ctx, tenant.APIKey, call, tenant.ID)

	// One finalization turn: feed the tool result back and take the text.
	contents = append(contents,
		infrastructure.Content{
			Role:  "model",
			Parts: []infrastructure.Part{{FunctionCall: &call}},
		},
		infrastructure.Content{
			Role: "user",
			Parts: []infrastructure.Part{{FunctionResponse: &infrastructure.FunctionResponse{
				Name:     call.Name,
				Response: result,
			}}},
		},
	)
	request.Contents = contents

	final, err := o.generator.Generate(ctx, tenant.APIKey, request)
	if err != nil {
		return "", fmt.Errorf("finalizing tool turn: %w", err)
	}
	if final.Text == "" {
		return emptyToolReply, nil
	}
	return final.Text, nil
}

// buildSystemInstruction layers the tenant override over the role base prompt,
// substitutes store placeholders and appends the grounding rules.
func (o *Orchestrator) buildSystemInstruction(tenant *entities.TenantContext) string {
	override := tenant.PromptOverride
	if override == "" {
		override = "Eres un asistente."
	}
	instruction := override + "\n\n" + tenant.BasePrompt

	storeName := "la tienda"
	if tenant.Profile != nil && tenant.Profile.Name != "" {
		storeName = tenant.Profile.Name
	}
	instruction = strings.ReplaceAll(instruction, "[Nombre de la Tienda]", storeName)

	return instruction + "\n" + goldenRules
}

// cleanHistory converts caller-supplied turns into model contents, dropping
// empty turns and any leading model turn so the sequence starts with a user.
func cleanHistory(history []entities.Turn) []infrastructure.Content {
	var contents []infrastructure.Content
	for _, turn := range history {
		if strings.TrimSpace(turn.Text) == "" {
			continue
		}
		role := "user"
		if turn.From == "bot" {
			role = "model"
		}
		contents = append(contents, infrastructure.Content{
			Role:  role,
			Parts: []infrastructure.Part{{Text: turn.Text}},
		})
	}
	for len(contents) > 0 && contents[0].Role == "model" {
		contents = contents[1:]
	}
	return contents
}

// formatHistory renders the last n turns as a labeled transcript.
func formatHistory(history []entities.Turn, n int) string {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	var lines []string
	for _, turn := range history {
		label := "Cliente"
		if turn.From == "bot" {
			label = "Asistente"
		}
		lines = append(lines, label+": "+turn.Text)
	}
	return strings.Join(lines, "\n")
}
