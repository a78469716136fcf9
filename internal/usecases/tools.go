package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"agente_gateway/internal/entities"
	"agente_gateway/internal/infrastructure"
	"agente_gateway/internal/interfaces"
)

const (
	toolProductSearch     = "product_search"
	toolCheckAvailability = "check_availability"

	missingBookingDataMsg = "Falta el nombre del servicio o la fecha y hora para verificar."
)

// ToolExecutor runs the function calls the model requests. Failures become
// structured error payloads returned to the model, never hard errors; the
// model is expected to ask the user for whatever was missing.
type ToolExecutor struct {
	embedder  interfaces.Embedder
	searcher  interfaces.ProductSearcher
	threshold float64
	limit     int
	logger    *slog.Logger
	dates     *when.Parser
	now       func() time.Time
}

func NewToolExecutor(embedder interfaces.Embedder, searcher interfaces.ProductSearcher, threshold float64, limit int, logger *slog.Logger) *ToolExecutor {
	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)

	return &ToolExecutor{
		embedder:  embedder,
		searcher:  searcher,
		threshold: threshold,
		limit:     limit,
		logger:    logger,
		dates:     parser,
		now:       time.Now,
	}
}

// Declarations returns the tool schema advertised to the model.
func (t *ToolExecutor) Declarations() []infrastructure.Tool {
	return []infrastructure.Tool{{
		FunctionDeclarations: []infrastructure.FunctionDeclaration{
			{
				Name:        toolProductSearch,
				Description: "Busca productos en el catálogo de la tienda por nombre o descripción.",
				Parameters: &infrastructure.Schema{
					Type: "OBJECT",
					Properties: map[string]*infrastructure.Schema{
						"query": {
							Type:        "STRING",
							Description: `El término de búsqueda para el producto. Por ejemplo: "taladro", "herramienta para cortar madera".`,
						},
					},
					Required: []string{"query"},
				},
			},
			{
				Name:        toolCheckAvailability,
				Description: "Verifica si un servicio (como una cancha de fútbol) está disponible en una fecha y hora específicas. Devuelve los horarios disponibles si los hay.",
				Parameters: &infrastructure.Schema{
					Type: "OBJECT",
					Properties: map[string]*infrastructure.Schema{
						"service_name": {
							Type:        "STRING",
							Description: `El nombre del servicio a verificar. Por ejemplo: "cancha de fútbol 5", "cancha de pádel".`,
						},
						"date_time": {
							Type:        "STRING",
							Description: "La fecha y hora solicitada por el usuario en formato ISO 8601 (YYYY-MM-DDTHH:mm:ss).",
						},
					},
					Required: []string{"service_name", "date_time"},
				},
			},
		},
	}}
}

// Execute runs one function call and returns its structured result payload.
func (t *ToolExecutor) Execute(ctx context.Context, apiKey string, call infrastructure.FunctionCall, clientID string) map[string]any {
	switch call.Name {
	case toolProductSearch:
		return t.productSearch(ctx, apiKey, call.Args, clientID)
	case toolCheckAvailability:
		return t.checkAvailability(call.Args)
	default:
		t.logger.Warn("model requested unknown tool", "tool", call.Name)
		return map[string]any{"error": fmt.Sprintf("La herramienta %s no existe.", call.Name)}
	}
}

func (t *ToolExecutor) productSearch(ctx context.Context, apiKey string, args map[string]any, clientID string) map[string]any {
	query, _ := args["query"].(string)
	if query == "" {
		return map[string]any{"error": "Falta el término de búsqueda."}
	}

	embedding, err := t.embedder.Embed(ctx, apiKey, query)
	if err != nil {
		t.logger.Error("embedding for tool search failed", "error", err)
		return map[string]any{"error": "Hubo un error al buscar en el catálogo."}
	}

	products, err := t.searcher.MatchProducts(ctx, clientID, embedding, t.threshold, t.limit)
	if err != nil {
		t.logger.Error("catalog search failed", "error", err)
		return map[string]any{"error": "Hubo un error al buscar en el catálogo."}
	}

	// An empty list is a valid answer: it means no stock for that query.
	results := make([]map[string]any, 0, len(products))
	for _, p := range products {
		results = append(results, map[string]any{
			"name":        p.Name,
			"description": p.Description,
			"price":       p.Price,
		})
	}
	return map[string]any{"products": results}
}

func (t *ToolExecutor) checkAvailability(args map[string]any) map[string]any {
	serviceName, _ := args["service_name"].(string)
	dateText, _ := args["date_time"].(string)

	if serviceName == "" || dateText == "" {
		return map[string]any{"error": missingBookingDataMsg}
	}

	normalized, err := t.normalizeDate(dateText)
	if err != nil {
		// An unreadable date counts as missing; the model re-asks the user.
		t.logger.Warn("could not interpret requested date", "input", dateText)
		return map[string]any{"error": missingBookingDataMsg}
	}

	// Booking-system integration pending; report the standard evening slots.
	return map[string]any{
		"message":         fmt.Sprintf("Para el servicio %q cerca de la hora solicitada (%s), encontré estos horarios disponibles.", serviceName, normalized),
		"available_slots": []string{"18:00", "19:00", "20:00"},
	}
}

// normalizeDate turns natural phrasing ("mañana a las 5pm", "next tuesday")
// or an ISO timestamp into ISO 8601. Future-biased for ambiguous weekdays.
func (t *ToolExecutor) normalizeDate(text string) (string, error) {
	if ts, err := time.Parse(time.RFC3339, text); err == nil {
		return ts.Format(time.RFC3339), nil
	}
	if ts, err := time.Parse("2006-01-02T15:04:05", text); err == nil {
		return ts.Format(time.RFC3339), nil
	}

	result, err := t.dates.Parse(text, t.now())
	if err != nil || result == nil {
		return "", fmt.Errorf("%w: unparseable date %q", entities.ErrToolExecution, text)
	}
	ts := result.Time
	if ts.Before(t.now()) {
		// Bias ambiguous phrasing toward the future.
		ts = ts.AddDate(0, 0, 7)
	}
	return ts.Format(time.RFC3339), nil
}
