package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"

	"agente_gateway/internal/config"
	"agente_gateway/internal/entities"
	"agente_gateway/internal/infrastructure"
)

func testTenantStore() *mockTenantStore {
	return &mockTenantStore{
		tenant: &entities.TenantContext{
			ID:     "tenant-1",
			APIKey: "key",
			Role:   "ferreteria",
		},
		basePrompt: "Eres el asistente de [Nombre de la Tienda].",
		profile:    &entities.BusinessProfile{Name: "Ferretería Centro", Address: "Calle 1", Hours: "9-18", Phone: "555"},
	}
}

func newTestOrchestrator(gen *mockGenerator, emb *mockEmbedder, search *mockSearcher, store *mockTenantStore, mode string) *Orchestrator {
	resolver := NewTenantResolver(store, testLogger())
	tools := NewToolExecutor(emb, search, 0.5, 5, testLogger())
	return NewOrchestrator(gen, emb, search, resolver, tools, mode, 0.5, 5, testLogger())
}

func TestRetrievalSkipsSearchForGreeting(t *testing.T) {
	gen := &mockGenerator{responses: []*infrastructure.ModelResponse{
		{Text: "GREETING"},
		{Text: `{"reply":"¡Hola!"}`},
	}}
	emb := &mockEmbedder{vector: []float32{0.1}}
	search := &mockSearcher{}

	o := newTestOrchestrator(gen, emb, search, testTenantStore(), config.PipelineRetrieval)
	reply := o.Reply(context.Background(), entities.ChatRequest{
		Message: "hola", SessionID: "s1", ClientID: "tenant-1",
	})

	if reply != "¡Hola!" {
		t.Errorf("unexpected reply: %q", reply)
	}
	if emb.calls != 0 || search.calls != 0 {
		t.Errorf("greeting must not trigger retrieval: embed=%d search=%d", emb.calls, search.calls)
	}
}

func TestRetrievalRunsFullPipelineForProductQuery(t *testing.T) {
	gen := &mockGenerator{responses: []*infrastructure.ModelResponse{
		{Text: "PRODUCT_QUERY"},
		{Text: "martillo para romper"},
		{Text: `{"reply":"Tenemos martillos."}`},
	}}
	emb := &mockEmbedder{vector: []float32{0.1, 0.2}}
	search := &mockSearcher{products: []entities.Product{
		{Name: "Martillo", Description: "de acero", Price: 10},
	}}

	o := newTestOrchestrator(gen, emb, search, testTenantStore(), config.PipelineRetrieval)
	reply := o.Reply(context.Background(), entities.ChatRequest{
		Message: "tienes martillos?", SessionID: "s1", ClientID: "tenant-1",
	})

	if reply != "Tenemos martillos." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if emb.calls != 1 || search.calls != 1 {
		t.Errorf("product query must embed and search once: embed=%d search=%d", emb.calls, search.calls)
	}

	final := gen.requests[len(gen.requests)-1]
	prompt := final.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "Martillo") {
		t.Error("final prompt must include the retrieved product")
	}
	if final.GenerationConfig == nil || final.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Error("final generation must request JSON output")
	}
}

func TestRetrievalDegradesOnSearchFailure(t *testing.T) {
	gen := &mockGenerator{responses: []*infrastructure.ModelResponse{
		{Text: "PRODUCT_QUERY"},
		{Text: "martillo"},
		{Text: `{"reply":"Ahora mismo no puedo revisar el stock."}`},
	}}
	emb := &mockEmbedder{vector: []float32{0.1}}
	search := &mockSearcher{err: entities.ErrVectorSearchFailure}

	o := newTestOrchestrator(gen, emb, search, testTenantStore(), config.PipelineRetrieval)
	reply := o.Reply(context.Background(), entities.ChatRequest{
		Message: "tienes martillos?", SessionID: "s1", ClientID: "tenant-1",
	})

	if strings.HasPrefix(reply, apologyReply) {
		t.Error("search failure must degrade, not abort the turn")
	}

	final := gen.requests[len(gen.requests)-1]
	if !strings.Contains(final.Contents[0].Parts[0].Text, noProductsText) {
		t.Error("degraded prompt must carry the empty-catalog sentinel")
	}
}

func TestRetrievalSentinelsWhenBusinessDataMissing(t *testing.T) {
	store := testTenantStore()
	store.profile = nil
	store.profileErr = errBoom

	gen := &mockGenerator{responses: []*infrastructure.ModelResponse{
		{Text: "BUSINESS_QUERY"},
		{Text: `{"reply":"ok"}`},
	}}

	o := newTestOrchestrator(gen, &mockEmbedder{}, &mockSearcher{}, store, config.PipelineRetrieval)
	o.Reply(context.Background(), entities.ChatRequest{
		Message: "dónde están?", SessionID: "s1", ClientID: "tenant-1",
	})

	final := gen.requests[len(gen.requests)-1]
	prompt := final.Contents[0].Parts[0].Text
	for _, sentinel := range []string{noBusinessText, noOffersText, noPaymentsText} {
		if !strings.Contains(prompt, sentinel) {
			t.Errorf("prompt missing sentinel %q", sentinel)
		}
	}
}

func TestToolsPipelineExecutesFirstCallOnly(t *testing.T) {
	gen := &mockGenerator{responses: []*infrastructure.ModelResponse{
		{FunctionCalls: []infrastructure.FunctionCall{
			{Name: "product_search", Args: map[string]any{"query": "taladro"}},
			{Name: "check_availability", Args: map[string]any{"service_name": "cancha"}},
		}},
		{Text: "Tenemos un taladro disponible."},
	}}
	emb := &mockEmbedder{vector: []float32{0.1}}
	search := &mockSearcher{products: []entities.Product{{Name: "Taladro", Price: 99}}}

	o := newTestOrchestrator(gen, emb, search, testTenantStore(), config.PipelineTools)
	reply := o.Reply(context.Background(), entities.ChatRequest{
		Message: "busco un taladro", SessionID: "s1", ClientID: "tenant-1",
	})

	if reply != "Tenemos un taladro disponible." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if len(gen.requests) != 2 {
		t.Fatalf("expected exactly one finalization turn, got %d requests", len(gen.requests))
	}
	if emb.calls != 1 || search.calls != 1 {
		t.Errorf("only the first requested tool may run: embed=%d search=%d", emb.calls, search.calls)
	}

	// The finalization request must carry the tool round trip.
	final := gen.requests[1]
	last := final.Contents[len(final.Contents)-1]
	if last.Parts[0].FunctionResponse == nil || last.Parts[0].FunctionResponse.Name != "product_search" {
		t.Error("finalization must include the tool response for the first call")
	}
}

func TestToolsPipelineDirectAnswer(t *testing.T) {
	gen := &mockGenerator{responses: []*infrastructure.ModelResponse{
		{Text: "Abrimos de 9 a 18."},
	}}

	o := newTestOrchestrator(gen, &mockEmbedder{}, &mockSearcher{}, testTenantStore(), config.PipelineTools)
	reply := o.Reply(context.Background(), entities.ChatRequest{
		Message: "horarios?", SessionID: "s1", ClientID: "tenant-1",
	})

	if reply != "Abrimos de 9 a 18." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if len(gen.requests) != 1 {
		t.Errorf("direct answers must not add turns, got %d requests", len(gen.requests))
	}
}

func TestToolsSystemInstructionSubstitutesStoreName(t *testing.T) {
	gen := &mockGenerator{responses: []*infrastructure.ModelResponse{{Text: "ok"}}}

	o := newTestOrchestrator(gen, &mockEmbedder{}, &mockSearcher{}, testTenantStore(), config.PipelineTools)
	o.Reply(context.Background(), entities.ChatRequest{
		Message: "hola", SessionID: "s1", ClientID: "tenant-1",
	})

	system := gen.requests[0].SystemInstruction.Parts[0].Text
	if strings.Contains(system, "[Nombre de la Tienda]") {
		t.Error("placeholder must be substituted")
	}
	if !strings.Contains(system, "Ferretería Centro") {
		t.Error("store name missing from system instruction")
	}
	if !strings.Contains(system, "REGLAS DE ORO") {
		t.Error("grounding rules missing from system instruction")
	}
}

func TestHistoryCleanupDropsEmptyAndLeadingModelTurns(t *testing.T) {
	contents := cleanHistory([]entities.Turn{
		{From: "bot", Text: "bienvenido"},
		{From: "user", Text: "   "},
		{From: "user", Text: "hola"},
		{From: "bot", Text: "¿en qué ayudo?"},
	})

	if len(contents) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(contents))
	}
	if contents[0].Role != "user" {
		t.Errorf("history must start with a user turn, got %q", contents[0].Role)
	}
}

func TestReplyApologizesOnPipelineFailure(t *testing.T) {
	gen := &mockGenerator{err: errBoom}

	o := newTestOrchestrator(gen, &mockEmbedder{}, &mockSearcher{}, testTenantStore(), config.PipelineTools)
	reply := o.Reply(context.Background(), entities.ChatRequest{
		Message: "hola", SessionID: "s1", ClientID: "tenant-1",
	})

	if !strings.HasPrefix(reply, apologyReply) {
		t.Errorf("expected apology, got %q", reply)
	}
	if !strings.Contains(reply, errBoom.Error()) {
		t.Errorf("apology must carry the underlying message, got %q", reply)
	}
}

func TestReplyFailsForUnknownTenant(t *testing.T) {
	store := &mockTenantStore{tenantErr: entities.ErrConfigNotFound}
	gen := &mockGenerator{}

	o := newTestOrchestrator(gen, &mockEmbedder{}, &mockSearcher{}, store, config.PipelineTools)
	reply := o.Reply(context.Background(), entities.ChatRequest{
		Message: "hola", SessionID: "s1", ClientID: "nope",
	})

	if !strings.HasPrefix(reply, apologyReply) {
		t.Errorf("unknown tenant must yield apology, got %q", reply)
	}
	if !strings.Contains(reply, entities.ErrConfigNotFound.Error()) {
		t.Errorf("apology must name the missing configuration, got %q", reply)
	}
	if len(gen.requests) != 0 {
		t.Error("no generation may happen without tenant config")
	}
}

func TestRespondSurfacesTurnError(t *testing.T) {
	store := &mockTenantStore{tenantErr: entities.ErrConfigNotFound}

	o := newTestOrchestrator(&mockGenerator{}, &mockEmbedder{}, &mockSearcher{}, store, config.PipelineTools)
	reply, err := o.Respond(context.Background(), entities.ChatRequest{
		Message: "hola", SessionID: "s1", ClientID: "nope",
	})

	if !errors.Is(err, entities.ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
	if reply != "" {
		t.Errorf("no reply may accompany a turn error, got %q", reply)
	}
}
